// Package store persists account documents. Every operation is a single
// atomic document write; cross-document consistency is the services'
// responsibility. Implementations return sentinel errors so services can
// translate them into domain errors.
package store

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"researchmatch/internal/account/models"
	projectmodels "researchmatch/internal/project/models"
)

type AccountStore interface {
	// Create inserts a new account. Returns sentinel.ErrConflict when the
	// email is already registered.
	Create(ctx context.Context, account *models.Account) error
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Account, error)
	// Delete removes an account outright. Admin/test path only.
	Delete(ctx context.Context, email string) error

	// Refresh ring. Push appends; Pull removes a single token. The ring
	// policy (capacity, eviction choice) lives in the token package; the
	// store just applies the resulting writes.
	PushRefreshToken(ctx context.Context, email string, tok models.RefreshToken) error
	PullRefreshToken(ctx context.Context, email, token string) error

	// ConfirmEmail marks the address confirmed and clears the one-time
	// confirmation ticket in the same write.
	ConfirmEmail(ctx context.Context, email string) error

	// Password reset ticket lifecycle. Set silently no-ops when no account
	// matches the email so the request cannot be used to probe for
	// registered addresses. Commit swaps in the already-hashed pending
	// password and clears the ticket in one write.
	SetPasswordResetTicket(ctx context.Context, email string, ticket *models.PasswordResetTicket) error
	CommitPasswordReset(ctx context.Context, email, pendingHash string) error
	ClearPasswordResetTicket(ctx context.Context, email string) error

	// Email change ticket lifecycle, same shape as password reset except
	// Set fails on a missing account (the caller is authenticated).
	SetEmailChangeTicket(ctx context.Context, email string, ticket *models.EmailChangeTicket) error
	CommitEmailChange(ctx context.Context, email, pendingEmail string) error
	ClearEmailChangeTicket(ctx context.Context, email string) error

	// Ledger references on the role profiles.
	SetProjectRef(ctx context.Context, accountID bson.ObjectID, bucket projectmodels.Bucket, ledgerID bson.ObjectID) error
	SetApplicationRef(ctx context.Context, accountID, ledgerID bson.ObjectID) error
}
