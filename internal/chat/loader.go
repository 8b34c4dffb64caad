package chat

import (
	"errors"
	"fmt"
	"os"

	"chat-history-server/pkg/logger"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"
)

var (
	// ErrFileNotFound indicates the export file does not exist on disk
	ErrFileNotFound = errors.New("export file not found")

	// ErrMalformedCSV indicates the export file is not a valid delimited table
	ErrMalformedCSV = errors.New("malformed export file")
)

// LoadTable reads the CSV export at path into memory. The file is re-read on
// every call; there is no caching across requests. Missing cells map to the
// documented defaults so the query engine never checks presence itself.
func LoadTable(path string) ([]Message, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to open export file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logger.Warn("Failed to close export file", zap.Error(closeErr))
		}
	}()

	var rows []Message
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return []Message{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
	}

	for i := range rows {
		normalize(&rows[i])
	}

	return rows, nil
}

// normalize applies the absence defaults to one decoded row.
func normalize(m *Message) {
	if m.MessageID != nil && *m.MessageID == "" {
		m.MessageID = nil
	}
	if m.Media != nil && *m.Media == "" {
		m.Media = nil
	}
	if m.Type == "" {
		m.Type = DefaultType
	}
	if m.Direction == "" {
		m.Direction = DefaultDirection
	}
}
