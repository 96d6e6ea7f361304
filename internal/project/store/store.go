// Package store persists project ledgers. One ledger document per bucket per
// faculty account; entries are embedded, so every operation below is one
// atomic document write.
package store

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"researchmatch/internal/project/models"
)

// EntryUpdate carries the mutable project fields. ApplicationRefs, owner,
// and the posted timestamp are preserved by updates.
type EntryUpdate struct {
	Name         string
	Description  string
	Questions    []string
	Requirements []models.Requirement
}

type ProjectStore interface {
	// Create inserts a new ledger document, assigning its ID.
	Create(ctx context.Context, ledger *models.Ledger) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Ledger, error)
	// FindByIDs fetches a batch of ledgers; missing ids are skipped, not
	// errors.
	FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]*models.Ledger, error)

	AppendEntry(ctx context.Context, ledgerID bson.ObjectID, entry models.Entry) error
	// UpdateEntry returns sentinel.ErrNoChange when no entry matched.
	UpdateEntry(ctx context.Context, ledgerID, entryID bson.ObjectID, update EntryUpdate) error
	// RemoveEntry returns sentinel.ErrNoChange when nothing was removed.
	RemoveEntry(ctx context.Context, ledgerID, entryID bson.ObjectID) error

	// Mirror maintenance on the embedded applicationRefs list.
	PushApplicationRef(ctx context.Context, ledgerID, entryID bson.ObjectID, ref models.ApplicationRef) error
	PullApplicationRef(ctx context.Context, ledgerID, entryID, applicationEntryID bson.ObjectID) error
	SetApplicationRefStatus(ctx context.Context, ledgerID, entryID, applicationEntryID bson.ObjectID, status models.Status) error
}
