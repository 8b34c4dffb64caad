package chat

import (
	"errors"
	"sort"
	"strings"
)

const (
	// DefaultPerPage is the page size when the request does not specify one
	DefaultPerPage = 50

	// MaxPerPage caps the page size a single request may ask for
	MaxPerPage = 500

	// MaxSearchResults caps how many rows a search returns
	MaxSearchResults = 100
)

// ErrEmptyQuery indicates a search with an empty or whitespace-only query
var ErrEmptyQuery = errors.New("search query is required")

// ListConversations partitions the table by mobile_number and returns one
// summary per conversation, ordered by last message date descending. Rows
// without a mobile_number are skipped. Ties keep the order in which the
// conversation first appears in the file, so the sort must stay stable.
func ListConversations(rows []Message) []ConversationSummary {
	byNumber := make(map[string]int)
	summaries := make([]ConversationSummary, 0)

	for _, row := range rows {
		if row.MobileNumber == "" {
			continue
		}

		idx, seen := byNumber[row.MobileNumber]
		if !seen {
			byNumber[row.MobileNumber] = len(summaries)
			summaries = append(summaries, ConversationSummary{MobileNumber: row.MobileNumber})
			idx = len(summaries) - 1
		}

		// Last row in file order wins the summary
		summaries[idx].LastMessage = row.Text
		summaries[idx].LastMessageDate = row.MessageCreated
		summaries[idx].MessageCount++
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastMessageDate > summaries[j].LastMessageDate
	})

	return summaries
}

// GetMessages returns one page of the conversation with mobileNumber.
// Matching is exact string equality. Offsets beyond the end yield an empty
// page, not an error. page and perPage fall back to their defaults when
// not positive; perPage is clamped to MaxPerPage.
func GetMessages(rows []Message, mobileNumber string, page, perPage int) MessagePage {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	filtered := make([]Message, 0)
	for _, row := range rows {
		if row.MobileNumber == mobileNumber {
			filtered = append(filtered, row)
		}
	}

	total := len(filtered)
	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return MessagePage{
		Messages:      filtered[start:end],
		TotalMessages: total,
		Page:          page,
		PerPage:       perPage,
		HasNext:       end < total,
		HasPrev:       page > 1,
	}
}

// Search returns rows whose text or mobile_number contains the query,
// case-insensitively, ordered by message_created descending and capped at
// MaxSearchResults. Exact-duplicate rows collapse to a single result. An
// empty or whitespace-only query is a validation error.
func Search(rows []Message, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	needle := strings.ToLower(query)
	seen := make(map[rowKey]bool)
	results := make([]SearchResult, 0)

	for _, row := range rows {
		textMatch := row.Text != "" && strings.Contains(strings.ToLower(row.Text), needle)
		numberMatch := row.MobileNumber != "" && strings.Contains(strings.ToLower(row.MobileNumber), needle)
		if !textMatch && !numberMatch {
			continue
		}

		key := keyOf(row)
		if seen[key] {
			continue
		}
		seen[key] = true

		results = append(results, SearchResult{
			MobileNumber:   row.MobileNumber,
			MessageID:      row.MessageID,
			Text:           row.Text,
			MessageCreated: row.MessageCreated,
			FromMe:         row.FromMe,
		})
	}

	// Absent dates read as the empty string, which sorts last under the
	// descending compare; ties keep original file order.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MessageCreated > results[j].MessageCreated
	})

	if len(results) > MaxSearchResults {
		results = results[:MaxSearchResults]
	}

	return results, nil
}

// rowKey is a comparable projection of a full row, used to collapse
// exact duplicates before ranking.
type rowKey struct {
	mobileNumber   string
	messageID      string
	hasMessageID   bool
	fromMe         Flag
	msgType        string
	direction      string
	text           string
	media          string
	hasMedia       bool
	messageCreated string
}

func keyOf(m Message) rowKey {
	key := rowKey{
		mobileNumber:   m.MobileNumber,
		fromMe:         m.FromMe,
		msgType:        m.Type,
		direction:      m.Direction,
		text:           m.Text,
		messageCreated: m.MessageCreated,
	}
	if m.MessageID != nil {
		key.messageID = *m.MessageID
		key.hasMessageID = true
	}
	if m.Media != nil {
		key.media = *m.Media
		key.hasMedia = true
	}
	return key
}
