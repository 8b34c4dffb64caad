package handlers

import (
	"io"

	"chat-history-server/internal/chat"
	"chat-history-server/internal/models"
)

// UserServiceInterface defines the contract for account operations
// This interface is used for dependency injection and testing
type UserServiceInterface interface {
	CreateUser(phoneNumber, password string, isAdmin bool) (*models.User, error)
	Authenticate(phoneNumber, password, totpCode string) (*models.User, error)
	GetUser(id string) (*models.User, error)
	UpdateUser(id string, req *models.UpdateUserRequest) (*models.User, error)
	DeleteUser(id string) error
	ListUsers(limit, offset int) ([]*models.User, error)

	// 2FA/TOTP methods
	GenerateTOTPSecret(userID string) (string, error)
	EnableTOTP(userID, totpCode string) error
	DisableTOTP(userID string) error
}

// ExportServiceInterface defines the contract for export file operations
type ExportServiceInterface interface {
	SaveExport(userID, originalFilename string, content io.Reader) (*models.ChatExport, error)
	DeleteForUser(userID string) error
}

// ChatServiceInterface defines the contract for conversation queries
type ChatServiceInterface interface {
	ListConversations(userID string) ([]chat.ConversationSummary, error)
	GetMessages(userID, mobileNumber string, page, perPage int) (*chat.MessagePage, error)
	Search(userID, query string) ([]chat.SearchResult, error)
}
