package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/catalog-service/internal/apperrors"
)

func TestIssueAndVerifyAccessToken(t *testing.T) {
	m := NewManager("test-secret", 15*time.Minute, time.Hour)

	token, err := m.IssueAccess(42)
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewManager("secret-a", 15*time.Minute, time.Hour).IssueAccess(1)
	require.NoError(t, err)

	_, err = NewManager("secret-b", 15*time.Minute, time.Hour).Verify(token)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := NewManager("test-secret", time.Minute, time.Hour)
	issued := time.Now()
	m.now = func() time.Time { return issued }

	token, err := m.IssueAccess(1)
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = m.Verify(token)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := NewManager("test-secret", time.Minute, time.Hour)
	_, err := m.Verify("not.a.jwt")
	assert.Error(t, err)
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("lozinka123")
	require.NoError(t, err)
	assert.NotEqual(t, "lozinka123", hash)

	assert.True(t, CheckPassword(hash, "lozinka123"))
	assert.False(t, CheckPassword(hash, "kriva-lozinka"))
}

func TestHashPasswordRejectsShort(t *testing.T) {
	_, err := HashPassword("kratka")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestNewOpaqueToken(t *testing.T) {
	a, err := NewOpaqueToken()
	require.NoError(t, err)
	b, err := NewOpaqueToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
