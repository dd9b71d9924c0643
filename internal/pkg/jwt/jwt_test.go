package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := LoadAndBuild(Config{
		Secret:   "0123456789abcdef0123456789abcdef",
		Issuer:   "onecoupon-console",
		Audience: "merchant-admin",
		TTL:      time.Hour,
	})
	require.NoError(t, err)
	return m
}

func TestGenerateAndVerify(t *testing.T) {
	m := newTestManager(t)

	tok, err := m.Generator.Generate("01JABCDEF", "100012345", "shency", "1000501L", time.Time{})
	require.NoError(t, err)

	claims, err := m.Verifier.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "01JABCDEF", claims.ID)
	assert.Equal(t, "100012345", claims.UserID())
	assert.Equal(t, "shency", claims.Username)
	assert.Equal(t, "1000501L", claims.ShopID)
}

func TestVerify_Rejects(t *testing.T) {
	m := newTestManager(t)

	other, err := LoadAndBuild(Config{
		Secret:   "ffffffffffffffffffffffffffffffff",
		Issuer:   "onecoupon-console",
		Audience: "merchant-admin",
		TTL:      time.Hour,
	})
	require.NoError(t, err)

	foreign, err := other.Generator.Generate("a", "1", "u", "s", time.Time{})
	require.NoError(t, err)
	expired, err := m.Generator.Generate("b", "1", "u", "s", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	testCases := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "wrong secret", token: foreign},
		{name: "expired", token: expired},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.Verifier.Verify(tc.token)
			assert.Error(t, err)
		})
	}
}

func TestLoadAndBuild_ShortSecret(t *testing.T) {
	_, err := LoadAndBuild(Config{Secret: "short"})
	assert.Error(t, err)
}
