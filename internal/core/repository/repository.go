package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/models"
)

// TransactionRepository is the append-only ledger. Records are never updated
// or deleted once persisted.
type TransactionRepository interface {
	Persist(ctx context.Context, transaction *models.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	FindByAccountID(ctx context.Context, accountID uuid.UUID, page models.PageRequest) (*models.TransactionPage, error)
}
