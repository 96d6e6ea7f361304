package store

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"

	"researchmatch/internal/project/models"
	"researchmatch/pkg/platform/sentinel"
)

// Memory is the in-memory ProjectStore used by unit tests.
type Memory struct {
	mu      sync.RWMutex
	ledgers map[bson.ObjectID]*models.Ledger
}

var _ ProjectStore = (*Memory)(nil)

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

func (m *Memory) FindByIDs(_ context.Context, ids []bson.ObjectID) ([]*models.Ledger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Ledger, 0, len(ids))
	for _, id := range ids {
		if ledger, ok := m.ledgers[id]; ok {
			out = append(out, copyLedger(ledger))
		}
	}
	return out, nil
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

func (m *Memory) UpdateEntry(_ context.Context, ledgerID, entryID bson.ObjectID, update EntryUpdate) error {
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
	entry.Name = update.Name
	entry.Description = update.Description
	entry.Questions = append([]string(nil), update.Questions...)
	entry.Requirements = append([]models.Requirement(nil), update.Requirements...)
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

func (m *Memory) PushApplicationRef(_ context.Context, ledgerID, entryID bson.ObjectID, ref models.ApplicationRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, err := m.entry(ledgerID, entryID)
	if err != nil {
		return err
	}
	entry.Applications = append(entry.Applications, ref)
	return nil
}

func (m *Memory) PullApplicationRef(_ context.Context, ledgerID, entryID, applicationEntryID bson.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, err := m.entry(ledgerID, entryID)
	if err != nil {
		return err
	}
	for i := range entry.Applications {
		if entry.Applications[i].EntryID == applicationEntryID {
			entry.Applications = append(entry.Applications[:i], entry.Applications[i+1:]...)
			return nil
		}
	}
	return sentinel.ErrNoChange
}

func (m *Memory) SetApplicationRefStatus(_ context.Context, ledgerID, entryID, applicationEntryID bson.ObjectID, status models.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, err := m.entry(ledgerID, entryID)
	if err != nil {
		return err
	}
	for i := range entry.Applications {
		if entry.Applications[i].EntryID == applicationEntryID {
			entry.Applications[i].Status = status
			return nil
		}
	}
	return sentinel.ErrNoChange
}

// entry returns a pointer into the stored ledger; callers hold the lock.
func (m *Memory) entry(ledgerID, entryID bson.ObjectID) (*models.Entry, error) {
	ledger, ok := m.ledgers[ledgerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	entry := ledger.FindEntry(entryID)
	if entry == nil {
		return nil, sentinel.ErrNoChange
	}
	return entry, nil
}

func copyLedger(l *models.Ledger) *models.Ledger {
	out := *l
	out.Entries = make([]models.Entry, len(l.Entries))
	for i, e := range l.Entries {
		entry := e
		entry.Questions = append([]string(nil), e.Questions...)
		entry.Requirements = append([]models.Requirement(nil), e.Requirements...)
		entry.Applications = append([]models.ApplicationRef(nil), e.Applications...)
		if e.ArchivedAt != nil {
			t := *e.ArchivedAt
			entry.ArchivedAt = &t
		}
		out.Entries[i] = entry
	}
	return &out
}
