package handlers

import (
	"net/http"
	"testing"

	"chat-history-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser(t, "+5511999999999", "password123", false)

	tests := []struct {
		name           string
		body           models.LoginRequest
		expectedStatus int
	}{
		{
			name:           "valid credentials",
			body:           models.LoginRequest{PhoneNumber: "+5511999999999", Password: "password123"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "wrong password",
			body:           models.LoginRequest{PhoneNumber: "+5511999999999", Password: "wrong"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "unknown phone",
			body:           models.LoginRequest{PhoneNumber: "+5511000000000", Password: "password123"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing phone",
			body:           models.LoginRequest{Password: "password123"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing password",
			body:           models.LoginRequest{PhoneNumber: "+5511999999999"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.doJSON(t, "POST", "/api/auth/login", "", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusOK {
				body := decodeJSON(t, w)
				assert.NotEmpty(t, body["access_token"])
				user, ok := body["user"].(map[string]interface{})
				require.True(t, ok)
				assert.Equal(t, "+5511999999999", user["phone_number"])
				assert.NotContains(t, w.Body.String(), "password")
			}
		})
	}
}

func TestLoginReturnedTokenWorks(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser(t, "+5511999999999", "password123", false)

	w := env.doJSON(t, "POST", "/api/auth/login", "", models.LoginRequest{
		PhoneNumber: "+5511999999999",
		Password:    "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	token := decodeJSON(t, w)["access_token"].(string)

	w = env.doJSON(t, "GET", "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "+5511999999999")
}

func TestMe(t *testing.T) {
	env := setupTestEnv(t)
	userID, token := env.createUser(t, "+5511999999999", "password123", false)

	t.Run("authenticated", func(t *testing.T) {
		w := env.doJSON(t, "GET", "/api/auth/me", token, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		body := decodeJSON(t, w)
		user := body["user"].(map[string]interface{})
		assert.Equal(t, userID, user["id"])
	})

	t.Run("no token", func(t *testing.T) {
		w := env.doJSON(t, "GET", "/api/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("deleted account", func(t *testing.T) {
		require.NoError(t, env.userService.DeleteUser(userID))
		w := env.doJSON(t, "GET", "/api/auth/me", token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestLogout(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.createUser(t, "+5511999999999", "password123", false)

	w := env.doJSON(t, "POST", "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Logged out")
}

func TestLoginInvalidJSON(t *testing.T) {
	env := setupTestEnv(t)

	w := env.doJSON(t, "POST", "/api/auth/login", "", "not a login request")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
