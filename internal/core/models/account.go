package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountStatus как его отдаёт сервис счетов
type AccountStatus string

const (
	AccountActive   AccountStatus = "ACTIVE"
	AccountInactive AccountStatus = "INACTIVE"
	AccountBlocked  AccountStatus = "BLOCKED"
)

// Account is a read-only snapshot of an account owned by the remote account
// service. Balance and existence are never cached here across calls.
type Account struct {
	AccountID uuid.UUID       `json:"accountId"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	Status    AccountStatus   `json:"status"`
}
