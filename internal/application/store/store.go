// Package store persists application ledgers, the authoritative side of the
// application/project mirror pair.
package store

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"researchmatch/internal/application/models"
	projectmodels "researchmatch/internal/project/models"
)

type ApplicationStore interface {
	// Create inserts a new ledger document, assigning its ID.
	Create(ctx context.Context, ledger *models.Ledger) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Ledger, error)

	AppendEntry(ctx context.Context, ledgerID bson.ObjectID, entry models.Entry) error
	// RemoveEntry returns sentinel.ErrNoChange when nothing was removed.
	RemoveEntry(ctx context.Context, ledgerID, entryID bson.ObjectID) error
	// SetEntryStatus returns sentinel.ErrNoChange when no entry matched.
	SetEntryStatus(ctx context.Context, ledgerID, entryID bson.ObjectID, status projectmodels.Status) error
}
