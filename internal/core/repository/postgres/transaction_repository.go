package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/logger"
	"github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/models"
	"github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/repository"
)

// sortColumns maps API-level sort field names to table columns. Anything not
// listed falls back to created_at.
var sortColumns = map[string]string{
	"createdAt":     "created_at",
	"amount":        "amount",
	"currency":      "currency",
	"type":          "type",
	"status":        "status",
	"transactionId": "id",
}

type postgresTransactionRepo struct {
	db  *sqlx.DB
	log logger.Logger
}

func NewPostgresTransactionRepo(db *sqlx.DB, log logger.Logger) repository.TransactionRepository {
	return &postgresTransactionRepo{
		db:  db,
		log: log,
	}
}

func (r *postgresTransactionRepo) Persist(ctx context.Context, transaction *models.Transaction) error {
	if transaction.CreatedAt.IsZero() {
		transaction.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO transactions
		(id, from_account_id, to_account_id, amount, currency, type, status, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		transaction.ID,
		transaction.FromAccountID,
		transaction.ToAccountID,
		transaction.Amount,
		transaction.Currency,
		transaction.Type,
		transaction.Status,
		transaction.Description,
		transaction.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("persist transaction: %w", err)
	}

	return nil
}

func (r *postgresTransactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	query := `SELECT id, from_account_id, to_account_id, amount, currency, type, status, description, created_at
		FROM transactions WHERE id = $1`
	err := r.db.GetContext(ctx, &transaction, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: transaction with id %s not found", sql.ErrNoRows, id)
		}
		return nil, fmt.Errorf("error getting transaction: %w", err)
	}

	return &transaction, nil
}

func (r *postgresTransactionRepo) FindByAccountID(ctx context.Context, accountID uuid.UUID, page models.PageRequest) (*models.TransactionPage, error) {
	page = page.Normalize()

	var total int64
	countQuery := `SELECT COUNT(*) FROM transactions WHERE from_account_id = $1 OR to_account_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, accountID); err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}

	column, ok := sortColumns[page.SortBy]
	if !ok {
		column = sortColumns[models.DefaultSortField]
	}
	direction := "DESC"
	if page.SortDirection == models.SortAsc {
		direction = "ASC"
	}

	query := fmt.Sprintf(`SELECT id, from_account_id, to_account_id, amount, currency, type, status, description, created_at
		FROM transactions
		WHERE from_account_id = $1 OR to_account_id = $1
		ORDER BY %s %s
		LIMIT $2 OFFSET $3`, column, direction)

	transactions := []*models.Transaction{}
	if err := r.db.SelectContext(ctx, &transactions, query, accountID, page.Size, page.Offset()); err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}

	return models.NewTransactionPage(transactions, total, page), nil
}
