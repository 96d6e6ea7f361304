//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"researchmatch/internal/account/models"
	projectmodels "researchmatch/internal/project/models"
	"researchmatch/pkg/platform/sentinel"
)

func startMongo(t *testing.T) *mongo.Database {
	t.Helper()
	ctx := context.Background()

	ctr, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, testcontainers.TerminateContainer(ctr))
	})

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})
	return client.Database("researchmatch_test")
}

func TestMongoAccountStore(t *testing.T) {
	db := startMongo(t)
	ctx := context.Background()
	store := NewMongo(db)
	require.NoError(t, store.EnsureIndexes(ctx))

	account := &models.Account{
		Email:        "f@x.com",
		DisplayName:  "Prof X",
		PasswordHash: "hash",
		Kind:         models.KindFaculty,
		Faculty:      &models.FacultyProfile{},
		CreatedAt:    time.Now().Truncate(time.Millisecond),
	}
	require.NoError(t, store.Create(ctx, account))
	require.False(t, account.ID.IsZero())

	// The unique index rejects a second account on the same email.
	dup := &models.Account{Email: "f@x.com", Kind: models.KindFaculty}
	require.ErrorIs(t, store.Create(ctx, dup), sentinel.ErrConflict)

	found, err := store.FindByEmail(ctx, "f@x.com")
	require.NoError(t, err)
	require.Equal(t, account.ID, found.ID)

	// Refresh ring push and pull.
	require.NoError(t, store.PushRefreshToken(ctx, "f@x.com", models.RefreshToken{Token: "t1", IssuedAt: time.Now()}))
	require.NoError(t, store.PushRefreshToken(ctx, "f@x.com", models.RefreshToken{Token: "t2", IssuedAt: time.Now()}))
	require.NoError(t, store.PullRefreshToken(ctx, "f@x.com", "t1"))
	found, err = store.FindByEmail(ctx, "f@x.com")
	require.NoError(t, err)
	require.Len(t, found.Security.RefreshTokens, 1)
	require.Equal(t, "t2", found.Security.RefreshTokens[0].Token)

	// Password reset ticket lifecycle.
	ticket := &models.PasswordResetTicket{Token: "tok", PendingHash: "newhash", ExpiresAt: time.Now().Add(10 * time.Minute)}
	require.NoError(t, store.SetPasswordResetTicket(ctx, "f@x.com", ticket))
	require.NoError(t, store.CommitPasswordReset(ctx, "f@x.com", "newhash"))
	found, err = store.FindByEmail(ctx, "f@x.com")
	require.NoError(t, err)
	require.Equal(t, "newhash", found.PasswordHash)
	require.Nil(t, found.Security.PasswordReset)

	// Silent no-op on a missing account.
	require.NoError(t, store.SetPasswordResetTicket(ctx, "ghost@x.com", ticket))

	// Ledger ref updates land on the faculty profile.
	ledgerID := account.ID
	require.NoError(t, store.SetProjectRef(ctx, account.ID, projectmodels.BucketActive, ledgerID))
	found, err = store.FindByEmail(ctx, "f@x.com")
	require.NoError(t, err)
	require.NotNil(t, found.Faculty.Projects.Active)
	require.Equal(t, ledgerID, *found.Faculty.Projects.Active)

	require.NoError(t, store.Delete(ctx, "f@x.com"))
	_, err = store.FindByEmail(ctx, "f@x.com")
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}
