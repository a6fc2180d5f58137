package jwtutil

import (
	"testing"
	"time"

	"github.com/Queneri/catalogotefi/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTUtil_RoundTrip(t *testing.T) {
	util := NewJWTUtil(&config.JWTConfig{SigningKey: "k", ExpirationHours: 1})

	token, err := util.GenerateToken("a@b.co", 7, "sess-1", "admin")
	require.NoError(t, err)

	claims, err := util.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.True(t, claims.IsAdmin())
}

func TestJWTUtil_Rejects(t *testing.T) {
	util := NewJWTUtil(&config.JWTConfig{SigningKey: "k", ExpirationHours: 1})

	t.Run("wrong_key", func(t *testing.T) {
		other := NewJWTUtil(&config.JWTConfig{SigningKey: "other", ExpirationHours: 1})
		token, err := other.GenerateToken("a@b.co", 1, "s", "")
		require.NoError(t, err)
		_, err = util.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := util.GenerateToken("a@b.co", 1, "s", "")
		require.NoError(t, err)
		util.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { util.now = time.Now }()
		_, err = util.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := util.ValidateToken("not-a-token")
		assert.Error(t, err)
	})
}
