package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientOptions(t *testing.T) {
	t.Run("plain url", func(t *testing.T) {
		opt, err := clientOptions(RedisConfig{URL: "redis://:pw@localhost:6379/0", ClientName: "api"})
		require.NoError(t, err)
		assert.Equal(t, []string{"localhost:6379"}, opt.InitAddress)
		assert.Equal(t, "api", opt.ClientName)
		assert.True(t, opt.DisableCache)
		assert.Nil(t, opt.TLSConfig)
	})

	t.Run("require tls rejects plaintext", func(t *testing.T) {
		_, err := clientOptions(RedisConfig{URL: "redis://localhost:6379", RequireTLS: true})
		require.Error(t, err)
	})

	t.Run("skip verify on rediss", func(t *testing.T) {
		opt, err := clientOptions(RedisConfig{URL: "rediss://localhost:6380", SkipTLSVerify: true})
		require.NoError(t, err)
		require.NotNil(t, opt.TLSConfig)
		assert.True(t, opt.TLSConfig.InsecureSkipVerify)
	})
}

func TestNewRueidisClient_EmptyURL(t *testing.T) {
	_, err := NewRueidisClient(context.Background(), RedisConfig{})
	require.ErrorIs(t, err, ErrEmptyURL)
	assert.False(t, RedisConfig{}.Enabled())
}
