package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewDatabase(t *testing.T) {
	database, err := NewDatabase(":memory:")
	require.NoError(t, err)
	require.NotNil(t, database)
	assert.NotNil(t, database.GetDB())
	require.NoError(t, database.Close())
}

func TestNewDatabaseEmptyDSN(t *testing.T) {
	_, err := NewDatabase("")
	assert.Error(t, err)
}

func TestDatabaseCloseTwice(t *testing.T) {
	database, err := NewDatabase(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Close())
	assert.Error(t, database.Close())
}

func TestSeedAdmin(t *testing.T) {
	database, err := NewDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, database.SeedAdmin("+5511999999999", "admin-password"))

	repo := NewUserRepository(database.GetDB())
	admin, err := repo.GetByPhoneNumber("+5511999999999")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.True(t, admin.IsAdmin)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("admin-password")))

	t.Run("idempotent", func(t *testing.T) {
		require.NoError(t, database.SeedAdmin("+5511999999999", "other-password"))

		users, err := repo.List(10, 0)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("validation", func(t *testing.T) {
		assert.Error(t, database.SeedAdmin("", "password"))
		assert.Error(t, database.SeedAdmin("+1", ""))
	})
}
