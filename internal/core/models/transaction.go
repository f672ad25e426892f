package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType определяет вид операции
type TransactionType string

const (
	TransactionDeposit    TransactionType = "DEPOSIT"
	TransactionWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTransfer   TransactionType = "TRANSFER"
)

// TransactionStatus — статус записи. Сервис фиксирует только COMPLETED;
// PENDING и FAILED зарезервированы для асинхронной обработки.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
)

// Transaction is an append-only ledger record. FromAccountID is set for
// WITHDRAWAL and TRANSFER, ToAccountID for DEPOSIT and TRANSFER.
type Transaction struct {
	ID            uuid.UUID         `json:"transactionId" db:"id"`
	FromAccountID *uuid.UUID        `json:"fromAccountId,omitempty" db:"from_account_id"`
	ToAccountID   *uuid.UUID        `json:"toAccountId,omitempty" db:"to_account_id"`
	Amount        decimal.Decimal   `json:"amount" db:"amount"`
	Currency      string            `json:"currency" db:"currency"`
	Type          TransactionType   `json:"type" db:"type"`
	Status        TransactionStatus `json:"status" db:"status"`
	Description   string            `json:"description,omitempty" db:"description"`
	CreatedAt     time.Time         `json:"createdAt" db:"created_at"`
}

// Participant reports whether the account appears as source or destination.
func (t *Transaction) Participant(accountID uuid.UUID) bool {
	if t.FromAccountID != nil && *t.FromAccountID == accountID {
		return true
	}
	return t.ToAccountID != nil && *t.ToAccountID == accountID
}
