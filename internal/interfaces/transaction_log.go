package interfaces

import (
	"context"

	"github.com/sheikh-saqib/currency-trading-service/internal/models"
)

// TransactionLog is the append-only store of trade records.
type TransactionLog interface {
	// Append inserts one record. Records are never updated or deleted.
	Append(ctx context.Context, tx models.Transaction) error

	// ListByUser returns every record for the user, newest first.
	ListByUser(ctx context.Context, userID string) ([]models.Transaction, error)
}
