package store

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"

	"researchmatch/internal/account/models"
	projectmodels "researchmatch/internal/project/models"
	"researchmatch/pkg/platform/sentinel"
)

// Memory is the in-memory AccountStore used by unit tests and local
// development. Documents are deep-copied on the way in and out so callers
// can't mutate stored state behind the lock.
type Memory struct {
	mu      sync.RWMutex
	byEmail map[string]*models.Account
}

var _ AccountStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{byEmail: make(map[string]*models.Account)}
}

func (m *Memory) Create(_ context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[account.Email]; exists {
		return sentinel.ErrConflict
	}
	if account.ID.IsZero() {
		account.ID = bson.NewObjectID()
	}
	m.byEmail[account.Email] = copyAccount(account)
	return nil
}

func (m *Memory) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.byEmail[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyAccount(acc), nil
}

func (m *Memory) FindByID(_ context.Context, id bson.ObjectID) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, acc := range m.byEmail {
		if acc.ID == id {
			return copyAccount(acc), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (m *Memory) Delete(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[email]; !ok {
		return sentinel.ErrNotFound
	}
	delete(m.byEmail, email)
	return nil
}

func (m *Memory) PushRefreshToken(_ context.Context, email string, tok models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.byEmail[email]
	if !ok {
		return sentinel.ErrNotFound
	}
	acc.Security.RefreshTokens = append(acc.Security.RefreshTokens, tok)
	return nil
}

func (m *Memory) PullRefreshToken(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.byEmail[email]
	if !ok {
		return sentinel.ErrNotFound
	}
	kept := acc.Security.RefreshTokens[:0]
	for _, rt := range acc.Security.RefreshTokens {
		if rt.Token != token {
			kept = append(kept, rt)
		}
	}
	acc.Security.RefreshTokens = kept
	return nil
}

func (m *Memory) ConfirmEmail(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.byEmail[email]
	if !ok {
		return sentinel.ErrNotFound
	}
	acc.EmailConfirmed = true
	acc.EmailTicket = ""
	return nil
}

func (m *Memory) SetPasswordResetTicket(_ context.Context, email string, ticket *models.PasswordResetTicket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.byEmail[email]
	if !ok {
		// Silent no-op: the caller must not learn whether the email exists.
		return nil
	}
	acc.Security.PasswordReset = copyResetTicket(ticket)
	return nil
}

func (m *Memory) CommitPasswordReset(_ context.Context, email, pendingHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.byEmail[email]
	if !ok {
		return sentinel.ErrNotFound
	}
	acc.PasswordHash = pendingHash
	acc.Security.PasswordReset = nil
	return nil
}

func (m *Memory) ClearPasswordResetTicket(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.byEmail[email]
	if !ok {
		return sentinel.ErrNotFound
	}
	acc.Security.PasswordReset = nil
	return nil
}

func (m *Memory) SetEmailChangeTicket(_ context.Context, email string, ticket *models.EmailChangeTicket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.byEmail[email]
	if !ok {
		return sentinel.ErrNotFound
	}
	acc.Security.EmailChange = copyChangeTicket(ticket)
	return nil
}

func (m *Memory) CommitEmailChange(_ context.Context, email, pendingEmail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.byEmail[email]
	if !ok {
		return sentinel.ErrNotFound
	}
	if _, taken := m.byEmail[pendingEmail]; taken {
		return sentinel.ErrConflict
	}
	delete(m.byEmail, email)
	acc.Email = pendingEmail
	acc.Security.EmailChange = nil
	m.byEmail[pendingEmail] = acc
	return nil
}

func (m *Memory) ClearEmailChangeTicket(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.byEmail[email]
	if !ok {
		return sentinel.ErrNotFound
	}
	acc.Security.EmailChange = nil
	return nil
}

func (m *Memory) SetProjectRef(_ context.Context, accountID bson.ObjectID, bucket projectmodels.Bucket, ledgerID bson.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range m.byEmail {
		if acc.ID != accountID {
			continue
		}
		if acc.Faculty == nil {
			return sentinel.ErrNotFound
		}
		id := ledgerID
		switch bucket {
		case projectmodels.BucketDraft:
			acc.Faculty.Projects.Draft = &id
		case projectmodels.BucketActive:
			acc.Faculty.Projects.Active = &id
		case projectmodels.BucketArchived:
			acc.Faculty.Projects.Archived = &id
		}
		return nil
	}
	return sentinel.ErrNotFound
}

func (m *Memory) SetApplicationRef(_ context.Context, accountID, ledgerID bson.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range m.byEmail {
		if acc.ID != accountID {
			continue
		}
		if acc.Student == nil {
			return sentinel.ErrNotFound
		}
		id := ledgerID
		acc.Student.ApplicationLedger = &id
		return nil
	}
	return sentinel.ErrNotFound
}

func copyAccount(a *models.Account) *models.Account {
	out := *a
	out.Security.RefreshTokens = append([]models.RefreshToken(nil), a.Security.RefreshTokens...)
	out.Security.PasswordReset = copyResetTicket(a.Security.PasswordReset)
	out.Security.EmailChange = copyChangeTicket(a.Security.EmailChange)
	if a.Faculty != nil {
		f := *a.Faculty
		out.Faculty = &f
	}
	if a.Student != nil {
		s := *a.Student
		out.Student = &s
	}
	return &out
}

func copyResetTicket(t *models.PasswordResetTicket) *models.PasswordResetTicket {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func copyChangeTicket(t *models.EmailChangeTicket) *models.EmailChangeTicket {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
