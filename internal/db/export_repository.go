package db

import (
	"database/sql"
	"fmt"
	"time"

	"chat-history-server/internal/models"

	"github.com/google/uuid"
)

// ExportRepository defines data access for chat export bindings.
// Each user holds at most one active export; Replace swaps the binding
// atomically.
type ExportRepository interface {
	GetActiveByUserID(userID string) (*models.ChatExport, error)
	Replace(userID, csvFilename string) (*models.ChatExport, error)
	DeleteByUserID(userID string) error
}

type exportRepository struct {
	db *sql.DB
}

// NewExportRepository creates a new ExportRepository
func NewExportRepository(db *sql.DB) ExportRepository {
	return &exportRepository{db: db}
}

// GetActiveByUserID retrieves the user's active export, returning (nil, nil)
// when the user has none
func (r *exportRepository) GetActiveByUserID(userID string) (*models.ChatExport, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}

	query := `
		SELECT id, user_id, csv_filename, upload_date
		FROM chat_exports
		WHERE user_id = ?
	`

	export := &models.ChatExport{}
	err := r.db.QueryRow(query, userID).Scan(
		&export.ID,
		&export.UserID,
		&export.CSVFilename,
		&export.UploadDate,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get export: %w", err)
	}

	return export, nil
}

// Replace removes any existing binding for the user and inserts the new one
// in a single transaction, keeping the one-active-export invariant.
func (r *exportRepository) Replace(userID, csvFilename string) (*models.ChatExport, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}
	if csvFilename == "" {
		return nil, fmt.Errorf("CSV filename cannot be empty")
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM chat_exports WHERE user_id = ?", userID); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return nil, fmt.Errorf("delete failed: %w, rollback failed: %v", err, rbErr)
		}
		return nil, fmt.Errorf("failed to delete previous export: %w", err)
	}

	export := &models.ChatExport{
		ID:          uuid.New().String(),
		UserID:      userID,
		CSVFilename: csvFilename,
		UploadDate:  time.Now().Unix(),
	}

	_, err = tx.Exec(
		"INSERT INTO chat_exports (id, user_id, csv_filename, upload_date) VALUES (?, ?, ?, ?)",
		export.ID,
		export.UserID,
		export.CSVFilename,
		export.UploadDate,
	)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return nil, fmt.Errorf("insert failed: %w, rollback failed: %v", err, rbErr)
		}
		return nil, fmt.Errorf("failed to insert export: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit export replacement: %w", err)
	}

	return export, nil
}

// DeleteByUserID removes the user's export binding if present
func (r *exportRepository) DeleteByUserID(userID string) error {
	if userID == "" {
		return fmt.Errorf("user ID cannot be empty")
	}

	if _, err := r.db.Exec("DELETE FROM chat_exports WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete export: %w", err)
	}

	return nil
}
