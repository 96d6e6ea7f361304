package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "researchmatch/pkg/domain-errors"
)

func newTestService() *Service {
	return NewService("access-secret", "refresh-secret", 15*time.Minute, 14*24*time.Hour)
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	svc := newTestService()

	access, err := svc.IssueAccessToken("acc-1", "f@x.com", "Prof X")
	require.NoError(t, err)

	claims, err := svc.Verify(access, ClassAccess)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.AccountID)
	assert.Equal(t, "f@x.com", claims.Email)
	assert.Equal(t, "Prof X", claims.DisplayName)
}

func TestVerifyRejectsWrongKeyClass(t *testing.T) {
	svc := newTestService()

	access, err := svc.IssueAccessToken("acc-1", "f@x.com", "Prof X")
	require.NoError(t, err)
	refresh, err := svc.IssueRefreshToken("acc-1", "f@x.com", "Prof X")
	require.NoError(t, err)

	_, err = svc.Verify(access, ClassRefresh)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = svc.Verify(refresh, ClassAccess)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService().WithClock(func() time.Time { return issued })

	access, err := svc.IssueAccessToken("acc-1", "s@x.com", "Student")
	require.NoError(t, err)

	// Still valid just before the TTL boundary.
	svc.WithClock(func() time.Time { return issued.Add(14 * time.Minute) })
	_, err = svc.Verify(access, ClassAccess)
	require.NoError(t, err)

	svc.WithClock(func() time.Time { return issued.Add(16 * time.Minute) })
	_, err = svc.Verify(access, ClassAccess)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := newTestService()
	_, err := svc.Verify("not-a-jwt", ClassAccess)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestRingAdmitEvictsOldestAtCapacity(t *testing.T) {
	r := NewRing(5)

	for i, tok := range []string{"t1", "t2", "t3", "t4", "t5"} {
		evicted, didEvict := r.Admit(tok)
		assert.False(t, didEvict, "admit %d should not evict", i)
		assert.Empty(t, evicted)
	}
	require.Equal(t, 5, r.Len())

	evicted, didEvict := r.Admit("t6")
	assert.True(t, didEvict)
	assert.Equal(t, "t1", evicted)
	assert.Equal(t, 5, r.Len())
	assert.False(t, r.Contains("t1"))
	assert.True(t, r.Contains("t6"))
	assert.Equal(t, []string{"t2", "t3", "t4", "t5", "t6"}, r.Items())
}

func TestRingSeededFromStoredItems(t *testing.T) {
	r := NewRingFrom(5, []string{"a", "b", "c"})
	assert.Equal(t, 3, r.Len())

	evicted, didEvict := r.Admit("d")
	assert.False(t, didEvict)
	assert.Empty(t, evicted)
	assert.True(t, r.Contains("a"))
}
