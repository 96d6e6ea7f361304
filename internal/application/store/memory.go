package store

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"

	"researchmatch/internal/application/models"
	projectmodels "researchmatch/internal/project/models"
	"researchmatch/pkg/platform/sentinel"
)

// Memory is the in-memory ApplicationStore used by unit tests.
type Memory struct {
	mu      sync.RWMutex
	ledgers map[bson.ObjectID]*models.Ledger
}

var _ ApplicationStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{ledgers: make(map[bson.ObjectID]*models.Ledger)}
}

func (m *Memory) Create(_ context.Context, ledger *models.Ledger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ledger.ID.IsZero() {
		ledger.ID = bson.NewObjectID()
	}
	m.ledgers[ledger.ID] = copyLedger(ledger)
	return nil
}

func (m *Memory) FindByID(_ context.Context, id bson.ObjectID) (*models.Ledger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ledger, ok := m.ledgers[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyLedger(ledger), nil
}

func (m *Memory) AppendEntry(_ context.Context, ledgerID bson.ObjectID, entry models.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ledger, ok := m.ledgers[ledgerID]
	if !ok {
		return sentinel.ErrNotFound
	}
	ledger.Entries = append(ledger.Entries, entry)
	return nil
}

func (m *Memory) RemoveEntry(_ context.Context, ledgerID, entryID bson.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ledger, ok := m.ledgers[ledgerID]
	if !ok {
		return sentinel.ErrNotFound
	}
	for i := range ledger.Entries {
		if ledger.Entries[i].ID == entryID {
			ledger.Entries = append(ledger.Entries[:i], ledger.Entries[i+1:]...)
			return nil
		}
	}
	return sentinel.ErrNoChange
}

func (m *Memory) SetEntryStatus(_ context.Context, ledgerID, entryID bson.ObjectID, status projectmodels.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ledger, ok := m.ledgers[ledgerID]
	if !ok {
		return sentinel.ErrNotFound
	}
	entry := ledger.FindEntry(entryID)
	if entry == nil {
		return sentinel.ErrNoChange
	}
	entry.Status = status
	return nil
}

func copyLedger(l *models.Ledger) *models.Ledger {
	out := *l
	out.Entries = make([]models.Entry, len(l.Entries))
	for i, e := range l.Entries {
		entry := e
		entry.Questions = append([]string(nil), e.Questions...)
		entry.Answers = append([]string(nil), e.Answers...)
		out.Entries[i] = entry
	}
	return &out
}
