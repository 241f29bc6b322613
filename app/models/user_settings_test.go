package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserSettings_IssueAPIKey(t *testing.T) {
	us := &UserSettings{UserID: 1, Plan: "free"}

	rawKey, err := us.IssueAPIKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rawKey, "bhv_"))
	assert.Equal(t, HashAPIKey(rawKey), us.APIKeyHash)
	assert.Equal(t, rawKey[:16], us.APIKeyPrefix)
	require.NotNil(t, us.APIKeyCreatedAt)
	assert.Nil(t, us.APIKeyRevokedAt)
	assert.Nil(t, us.APIKeyLastUsedAt)
	assert.True(t, us.HasActiveAPIKey())

	// Reissuing replaces the key material entirely.
	secondKey, err := us.IssueAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, rawKey, secondKey)
	assert.Equal(t, HashAPIKey(secondKey), us.APIKeyHash)
	assert.NotEqual(t, HashAPIKey(rawKey), us.APIKeyHash)
}

func TestUserSettings_RevokeAPIKey(t *testing.T) {
	us := &UserSettings{UserID: 1}
	_, err := us.IssueAPIKey()
	require.NoError(t, err)

	us.RevokeAPIKey()

	assert.Empty(t, us.APIKeyHash)
	assert.Empty(t, us.APIKeyPrefix)
	require.NotNil(t, us.APIKeyRevokedAt)
	assert.False(t, us.HasActiveAPIKey())
}

func TestUserSettings_HasActiveAPIKey(t *testing.T) {
	var nilSettings *UserSettings
	assert.False(t, nilSettings.HasActiveAPIKey())

	assert.False(t, (&UserSettings{}).HasActiveAPIKey())

	us := &UserSettings{UserID: 1}
	_, err := us.IssueAPIKey()
	require.NoError(t, err)
	assert.True(t, us.HasActiveAPIKey())
}

func TestHashAPIKey(t *testing.T) {
	a := HashAPIKey("bhv_someapikey")
	b := HashAPIKey("  bhv_someapikey  ")
	c := HashAPIKey("bhv_otherapikey")

	// Surrounding whitespace is ignored so header parsing stays forgiving.
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
