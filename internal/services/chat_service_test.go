package services

import (
	"os"
	"strings"
	"testing"

	"chat-history-server/internal/chat"
	"chat-history-server/internal/db"
	"chat-history-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serviceTestCSV = `mobile_number,message_id,fromMe,type,direction,text,media,message_created
+1,m1,false,text,INCOMING,hi,,2024-01-01
+1,m2,true,text,OUTGOING,bye,,2024-01-02
+2,m3,false,text,INCOMING,hello world,,2024-01-03
`

func setupChatService(t *testing.T) (*ChatService, *ExportService, *models.User) {
	t.Helper()

	database, err := db.NewDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	users := db.NewUserRepository(database.GetDB())
	user := models.NewUser("+5511999999999", "hash", false)
	require.NoError(t, users.Create(user))

	exports := NewExportService(db.NewExportRepository(database.GetDB()), t.TempDir())
	return NewChatService(exports), exports, user
}

func uploadTestExport(t *testing.T, exports *ExportService, userID, content string) {
	t.Helper()
	_, err := exports.SaveExport(userID, "history.csv", strings.NewReader(content))
	require.NoError(t, err)
}

func TestChatServiceListConversations(t *testing.T) {
	service, exports, user := setupChatService(t)

	t.Run("no export yields empty list", func(t *testing.T) {
		conversations, err := service.ListConversations(user.ID)
		require.NoError(t, err)
		assert.NotNil(t, conversations)
		assert.Empty(t, conversations)
	})

	t.Run("with export", func(t *testing.T) {
		uploadTestExport(t, exports, user.ID, serviceTestCSV)

		conversations, err := service.ListConversations(user.ID)
		require.NoError(t, err)
		require.Len(t, conversations, 2)
		assert.Equal(t, "+2", conversations[0].MobileNumber)
		assert.Equal(t, "+1", conversations[1].MobileNumber)
		assert.Equal(t, "bye", conversations[1].LastMessage)
		assert.Equal(t, 2, conversations[1].MessageCount)
	})
}

func TestChatServiceGetMessages(t *testing.T) {
	service, exports, user := setupChatService(t)

	t.Run("no export yields empty page", func(t *testing.T) {
		page, err := service.GetMessages(user.ID, "+1", 1, 50)
		require.NoError(t, err)
		assert.Empty(t, page.Messages)
		assert.Zero(t, page.TotalMessages)
	})

	t.Run("with export", func(t *testing.T) {
		uploadTestExport(t, exports, user.ID, serviceTestCSV)

		page, err := service.GetMessages(user.ID, "+1", 1, 1)
		require.NoError(t, err)
		require.Len(t, page.Messages, 1)
		assert.Equal(t, "hi", page.Messages[0].Text)
		assert.Equal(t, 2, page.TotalMessages)
		assert.True(t, page.HasNext)
		assert.False(t, page.HasPrev)
	})

	t.Run("missing file surfaces not found", func(t *testing.T) {
		// Break the binding by pointing at a removed file
		require.NoError(t, exports.DeleteForUser(user.ID))
		uploadTestExport(t, exports, user.ID, serviceTestCSV)
		path, err := exports.ResolveActiveExport(user.ID)
		require.NoError(t, err)
		require.NoError(t, os.Remove(path))

		_, err = service.GetMessages(user.ID, "+1", 1, 50)
		assert.ErrorIs(t, err, chat.ErrFileNotFound)
	})
}

func TestChatServiceSearch(t *testing.T) {
	service, exports, user := setupChatService(t)

	t.Run("empty query is rejected even without an export", func(t *testing.T) {
		_, err := service.Search(user.ID, "   ")
		assert.ErrorIs(t, err, chat.ErrEmptyQuery)
	})

	t.Run("no export yields empty results", func(t *testing.T) {
		results, err := service.Search(user.ID, "hello")
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("with export", func(t *testing.T) {
		uploadTestExport(t, exports, user.ID, serviceTestCSV)

		results, err := service.Search(user.ID, "HELLO")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "hello world", results[0].Text)
	})
}
