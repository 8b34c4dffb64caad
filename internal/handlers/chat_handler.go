package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"chat-history-server/internal/chat"
	"chat-history-server/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatHandler serves the conversation browsing API. Authorization has
// already happened in middleware; every query runs against the
// authenticated account's own export.
type ChatHandler struct {
	chatService ChatServiceInterface
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService ChatServiceInterface) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// GetConversations handles GET /api/chat/conversations
func (h *ChatHandler) GetConversations(c *gin.Context) {
	userID := c.GetString("userID")

	conversations, err := h.chatService.ListConversations(userID)
	if err != nil {
		h.renderQueryError(c, userID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// GetMessages handles GET /api/chat/messages/:mobile_number with page and
// per_page query parameters
func (h *ChatHandler) GetMessages(c *gin.Context) {
	userID := c.GetString("userID")
	mobileNumber := c.Param("mobile_number")

	page, ok := parsePositiveInt(c, "page", 0)
	if !ok {
		return
	}
	perPage, ok := parsePositiveInt(c, "per_page", 0)
	if !ok {
		return
	}

	result, err := h.chatService.GetMessages(userID, mobileNumber, page, perPage)
	if err != nil {
		h.renderQueryError(c, userID, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Search handles GET /api/chat/search?q=
func (h *ChatHandler) Search(c *gin.Context) {
	userID := c.GetString("userID")

	results, err := h.chatService.Search(userID, c.Query("q"))
	if err != nil {
		if errors.Is(err, chat.ErrEmptyQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Search query is required"})
			return
		}
		h.renderQueryError(c, userID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// renderQueryError maps engine errors onto the response taxonomy: missing
// file is a not-found, a broken file is a server failure.
func (h *ChatHandler) renderQueryError(c *gin.Context, userID string, err error) {
	switch {
	case errors.Is(err, chat.ErrFileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "History file not found"})
	case errors.Is(err, chat.ErrMalformedCSV):
		logger.Error("Export file is malformed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read history file"})
	default:
		logger.Error("Conversation query failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query history"})
	}
}

// parsePositiveInt reads an optional positive integer query parameter.
// Returns 0 when absent so the engine applies its default; writes a 400
// and returns false on a malformed or non-positive value.
func parsePositiveInt(c *gin.Context, name string, absent int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return absent, true
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " value"})
		return 0, false
	}
	return value, true
}
