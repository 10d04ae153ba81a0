package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/mcpcore/internal/auth"
)

func TestCredentialStore_SetAndUseRoundTrip(t *testing.T) {
	store := auth.NewCredentialStore()
	store.Set("anthropic", []byte("sk-ant-secret"))

	var seen string
	err := store.Use("anthropic", func(secret []byte) error {
		seen = string(secret)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-secret", seen)
}

func TestCredentialStore_UseUnknownNameFails(t *testing.T) {
	store := auth.NewCredentialStore()
	err := store.Use("missing", func(secret []byte) error { return nil })
	assert.Error(t, err)
}

func TestCredentialStore_DeleteRemovesCredential(t *testing.T) {
	store := auth.NewCredentialStore()
	store.Set("token", []byte("abc"))
	store.Delete("token")
	err := store.Use("token", func(secret []byte) error { return nil })
	assert.Error(t, err)
}
