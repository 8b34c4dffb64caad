package chat

import "strings"

// Default values substituted for absent CSV cells.
const (
	DefaultType      = "text"
	DefaultDirection = "INCOMING"
)

// Flag is a boolean tolerant of the value spellings CSV exports produce
// ("True", "1", "1.0", ...). Unrecognized values read as false.
type Flag bool

// UnmarshalCSV implements the gocsv unmarshaler
func (f *Flag) UnmarshalCSV(value string) error {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "1.0", "true", "yes":
		*f = true
	default:
		*f = false
	}
	return nil
}

// MarshalCSV implements the gocsv marshaler
func (f Flag) MarshalCSV() (string, error) {
	if f {
		return "true", nil
	}
	return "false", nil
}

// Message is one row of an uploaded conversation export. The loader applies
// the documented defaults once, so consumers never perform presence checks.
type Message struct {
	MobileNumber   string  `csv:"mobile_number" json:"mobile_number"`
	MessageID      *string `csv:"message_id" json:"message_id"`
	FromMe         Flag    `csv:"fromMe" json:"fromMe"`
	Type           string  `csv:"type" json:"type"`
	Direction      string  `csv:"direction" json:"direction"`
	Text           string  `csv:"text" json:"text"`
	Media          *string `csv:"media" json:"media"`
	MessageCreated string  `csv:"message_created" json:"message_created"`
}

// ConversationSummary describes one conversation in a listing: the
// counterpart number plus the last message seen in file order.
type ConversationSummary struct {
	MobileNumber    string `json:"mobile_number"`
	LastMessage     string `json:"last_message"`
	LastMessageDate string `json:"last_message_date"`
	MessageCount    int    `json:"message_count"`
}

// MessagePage is one page of a conversation's messages.
type MessagePage struct {
	Messages      []Message `json:"messages"`
	TotalMessages int       `json:"total_messages"`
	Page          int       `json:"page"`
	PerPage       int       `json:"per_page"`
	HasNext       bool      `json:"has_next"`
	HasPrev       bool      `json:"has_prev"`
}

// SearchResult is one matched row in a search response.
type SearchResult struct {
	MobileNumber   string  `json:"mobile_number"`
	MessageID      *string `json:"message_id"`
	Text           string  `json:"text"`
	MessageCreated string  `json:"message_created"`
	FromMe         Flag    `json:"fromMe"`
}
