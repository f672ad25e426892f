package usecase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/gateway"
	"github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/logger"
	"github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/models"
	"github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/repository"
)

var transactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "transactions_total",
	Help: "Completed transactions by type",
}, []string{"type"})

// TransactionUsecase orchestrates money movement: validates accounts against
// the remote account service, appends a ledger record and propagates balance
// changes. The ledger row is committed before the remote balance write; a
// failed write leaves a COMPLETED row with no balance effect.
type TransactionUsecase interface {
	Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, currency, description string) (*models.Transaction, error)
	Withdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, currency, description string) (*models.Transaction, error)
	Transfer(ctx context.Context, fromAccountID, toAccountID uuid.UUID, amount decimal.Decimal, currency, description string) (*models.Transaction, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, page models.PageRequest) (*models.TransactionPage, error)
}

type transactionUsecase struct {
	repo     repository.TransactionRepository
	accounts gateway.AccountGateway
	log      logger.Logger
}

func NewTransactionUsecase(repo repository.TransactionRepository, accounts gateway.AccountGateway, log logger.Logger) TransactionUsecase {
	return &transactionUsecase{repo: repo, accounts: accounts, log: log}
}

func (uc *transactionUsecase) Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, currency, description string) (*models.Transaction, error) {
	uc.logStart(models.TransactionDeposit, amount, currency)

	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	if err := uc.requireAccount(ctx, accountID, ""); err != nil {
		return nil, err
	}

	balance, err := uc.accounts.GetAccountBalance(ctx, accountID)
	if err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		ID:          uuid.New(),
		ToAccountID: &accountID,
		Amount:      amount,
		Currency:    currency,
		Type:        models.TransactionDeposit,
		Status:      models.StatusCompleted,
		Description: description,
	}

	if err := uc.repo.Persist(ctx, transaction); err != nil {
		return nil, err
	}

	if err := uc.propagateBalance(ctx, transaction.ID, accountID, balance.Add(amount)); err != nil {
		return nil, err
	}

	transactionsTotal.WithLabelValues(string(models.TransactionDeposit)).Inc()
	return transaction, nil
}

func (uc *transactionUsecase) Withdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, currency, description string) (*models.Transaction, error) {
	uc.logStart(models.TransactionWithdrawal, amount, currency)

	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	if err := uc.requireAccount(ctx, accountID, ""); err != nil {
		return nil, err
	}

	balance, err := uc.accounts.GetAccountBalance(ctx, accountID)
	if err != nil {
		return nil, err
	}

	// amount == balance is allowed and drains the account to zero
	if amount.GreaterThan(balance) {
		uc.log.Warn("Insufficient funds",
			logger.StringField("account_id", accountID.String()),
			logger.StringField("balance", balance.String()),
			logger.StringField("requested", amount.String()))
		return nil, fmt.Errorf("%w for withdrawal", ErrInsufficientFunds)
	}

	transaction := &models.Transaction{
		ID:            uuid.New(),
		FromAccountID: &accountID,
		Amount:        amount,
		Currency:      currency,
		Type:          models.TransactionWithdrawal,
		Status:        models.StatusCompleted,
		Description:   description,
	}

	if err := uc.repo.Persist(ctx, transaction); err != nil {
		return nil, err
	}

	if err := uc.propagateBalance(ctx, transaction.ID, accountID, balance.Sub(amount)); err != nil {
		return nil, err
	}

	transactionsTotal.WithLabelValues(string(models.TransactionWithdrawal)).Inc()
	return transaction, nil
}

func (uc *transactionUsecase) Transfer(ctx context.Context, fromAccountID, toAccountID uuid.UUID, amount decimal.Decimal, currency, description string) (*models.Transaction, error) {
	uc.logStart(models.TransactionTransfer, amount, currency)

	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	// checked before any remote call
	if fromAccountID == toAccountID {
		return nil, ErrSameAccountTransfer
	}

	if err := uc.requireAccount(ctx, fromAccountID, "from "); err != nil {
		return nil, err
	}
	if err := uc.requireAccount(ctx, toAccountID, "to "); err != nil {
		return nil, err
	}

	fromBalance, err := uc.accounts.GetAccountBalance(ctx, fromAccountID)
	if err != nil {
		return nil, err
	}
	toBalance, err := uc.accounts.GetAccountBalance(ctx, toAccountID)
	if err != nil {
		return nil, err
	}

	if amount.GreaterThan(fromBalance) {
		uc.log.Warn("Insufficient funds",
			logger.StringField("account_id", fromAccountID.String()),
			logger.StringField("balance", fromBalance.String()),
			logger.StringField("requested", amount.String()))
		return nil, fmt.Errorf("%w for transfer", ErrInsufficientFunds)
	}

	transaction := &models.Transaction{
		ID:            uuid.New(),
		FromAccountID: &fromAccountID,
		ToAccountID:   &toAccountID,
		Amount:        amount,
		Currency:      currency,
		Type:          models.TransactionTransfer,
		Status:        models.StatusCompleted,
		Description:   description,
	}

	if err := uc.repo.Persist(ctx, transaction); err != nil {
		return nil, err
	}

	// two sequential writes, not atomic: debit first, then credit
	if err := uc.propagateBalance(ctx, transaction.ID, fromAccountID, fromBalance.Sub(amount)); err != nil {
		return nil, err
	}
	if err := uc.propagateBalance(ctx, transaction.ID, toAccountID, toBalance.Add(amount)); err != nil {
		return nil, err
	}

	transactionsTotal.WithLabelValues(string(models.TransactionTransfer)).Inc()
	return transaction, nil
}

func (uc *transactionUsecase) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	transaction, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return transaction, nil
}

func (uc *transactionUsecase) ListByAccount(ctx context.Context, accountID uuid.UUID, page models.PageRequest) (*models.TransactionPage, error) {
	result, err := uc.repo.FindByAccountID(ctx, accountID, page)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return result, nil
}

func (uc *transactionUsecase) logStart(opType models.TransactionType, amount decimal.Decimal, currency string) {
	uc.log.Info("Starting transaction",
		logger.StringField("type", string(opType)),
		logger.StringField("amount", amount.String()),
		logger.StringField("currency", currency))
}

// requireAccount maps a negative existence check to ErrAccountNotFound.
// Prefix distinguishes the two sides of a transfer ("from ", "to ").
func (uc *transactionUsecase) requireAccount(ctx context.Context, accountID uuid.UUID, prefix string) error {
	exists, err := uc.accounts.AccountExists(ctx, accountID)
	if err != nil {
		uc.log.Error("Account existence check failed",
			logger.StringField("account_id", accountID.String()),
			logger.ErrorField("error", err))
		return err
	}
	if !exists {
		return fmt.Errorf("%s%w: %s", prefix, ErrAccountNotFound, accountID)
	}
	return nil
}

// propagateBalance pushes the new balance to the account service. The ledger
// record is already committed at this point, so a failure here is logged with
// the transaction id before being returned.
func (uc *transactionUsecase) propagateBalance(ctx context.Context, transactionID, accountID uuid.UUID, newBalance decimal.Decimal) error {
	if err := uc.accounts.UpdateAccountBalance(ctx, accountID, newBalance); err != nil {
		uc.log.Error("Balance update failed after ledger commit",
			logger.StringField("transaction_id", transactionID.String()),
			logger.StringField("account_id", accountID.String()),
			logger.StringField("new_balance", newBalance.String()),
			logger.ErrorField("error", err))
		return err
	}
	return nil
}
