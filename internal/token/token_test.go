package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_RefusesEmptySecret(t *testing.T) {
	t.Parallel()

	_, err := NewManager("", "tasknest", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	m, err := NewManager("super-secret", "tasknest", time.Hour)
	require.NoError(t, err)

	signed, tokenID, err := m.Issue("user-123", time.Now())
	require.NoError(t, err)
	assert.NotEmpty(t, tokenID)

	userID, verifiedID, err := m.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
	assert.Equal(t, tokenID, verifiedID)
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	t.Parallel()

	m, err := NewManager("secret", "tasknest", time.Hour)
	require.NoError(t, err)

	// Issued 59 minutes ago: still inside the 1-hour lifetime.
	signed, _, err := m.Issue("u1", time.Now().Add(-59*time.Minute))
	require.NoError(t, err)
	_, _, err = m.Verify(signed)
	assert.NoError(t, err)

	// Issued 61 minutes ago: past expiry.
	signed, _, err = m.Issue("u1", time.Now().Add(-61*time.Minute))
	require.NoError(t, err)
	_, _, err = m.Verify(signed)
	assert.Error(t, err)
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer, err := NewManager("right-secret", "tasknest", time.Hour)
	require.NoError(t, err)
	verifier, err := NewManager("wrong-secret", "tasknest", time.Hour)
	require.NoError(t, err)

	signed, _, err := issuer.Issue("u2", time.Now())
	require.NoError(t, err)

	_, _, err = verifier.Verify(signed)
	assert.Error(t, err)
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	m, err := NewManager("k", "tasknest", time.Hour)
	require.NoError(t, err)

	_, _, err = m.Verify("not.a.jwt")
	assert.Error(t, err)
}
