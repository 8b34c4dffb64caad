package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	user := NewUser("+5511999999999", "hashed-password", false)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "+5511999999999", user.PhoneNumber)
	assert.Equal(t, "hashed-password", user.PasswordHash)
	assert.False(t, user.IsAdmin)
	assert.False(t, user.TOTPEnabled)
	assert.NotZero(t, user.CreatedAt)
	assert.Equal(t, user.CreatedAt, user.UpdatedAt)
}

func TestNewUserGeneratesUniqueIDs(t *testing.T) {
	first := NewUser("+1", "hash", false)
	second := NewUser("+2", "hash", true)
	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, second.IsAdmin)
}

func TestUserJSONExcludesSensitiveFields(t *testing.T) {
	secret := "encrypted-secret"
	user := NewUser("+5511999999999", "hashed-password", true)
	user.TOTPSecret = &secret

	data, err := json.Marshal(user)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "hashed-password")
	assert.NotContains(t, string(data), "encrypted-secret")
	assert.Contains(t, string(data), "+5511999999999")
}

func TestToResponse(t *testing.T) {
	user := NewUser("+5511999999999", "hash", true)
	user.TOTPEnabled = true

	resp := user.ToResponse()

	assert.Equal(t, user.ID, resp.ID)
	assert.Equal(t, user.PhoneNumber, resp.PhoneNumber)
	assert.True(t, resp.IsAdmin)
	assert.True(t, resp.TOTPEnabled)
	assert.Equal(t, user.CreatedAt, resp.CreatedAt)
}
