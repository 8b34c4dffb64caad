package services

import (
	"errors"
	"fmt"

	"chat-history-server/internal/chat"
)

// ChatService answers the three conversation queries for an account:
// listing, paginated retrieval, and search. The export file is re-read on
// every call; each request gets an independent snapshot.
type ChatService struct {
	exports *ExportService
}

// NewChatService creates a new ChatService instance
func NewChatService(exports *ExportService) *ChatService {
	return &ChatService{exports: exports}
}

// ListConversations lists the account's conversations with last-message
// summaries. An account without an export gets an empty list, not an error.
func (s *ChatService) ListConversations(userID string) ([]chat.ConversationSummary, error) {
	rows, ok, err := s.loadTable(userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []chat.ConversationSummary{}, nil
	}
	return chat.ListConversations(rows), nil
}

// GetMessages returns one page of the conversation with mobileNumber.
// An account without an export gets an empty page.
func (s *ChatService) GetMessages(userID, mobileNumber string, page, perPage int) (*chat.MessagePage, error) {
	rows, ok, err := s.loadTable(userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		rows = nil
	}
	result := chat.GetMessages(rows, mobileNumber, page, perPage)
	return &result, nil
}

// Search runs a full-text and phone-number search over the account's
// export. An account without an export gets empty results.
func (s *ChatService) Search(userID, query string) ([]chat.SearchResult, error) {
	rows, ok, err := s.loadTable(userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		rows = nil
	}
	return chat.Search(rows, query)
}

// loadTable resolves the account's export and parses it. The second return
// is false when the account simply has no export bound.
func (s *ChatService) loadTable(userID string) ([]chat.Message, bool, error) {
	path, err := s.exports.ResolveActiveExport(userID)
	if err != nil {
		if errors.Is(err, ErrNoExport) {
			return nil, false, nil
		}
		return nil, false, err
	}

	rows, err := chat.LoadTable(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load export: %w", err)
	}
	return rows, true, nil
}
