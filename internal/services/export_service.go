package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"chat-history-server/internal/db"
	"chat-history-server/internal/models"
	"chat-history-server/pkg/logger"
	"chat-history-server/pkg/utils"

	"go.uber.org/zap"
)

// ErrNoExport indicates the account has no active conversation export
var ErrNoExport = errors.New("no export found for user")

// ExportService owns the CSV file lifecycle: saving uploads under the
// upload directory and keeping the one-active-export-per-account binding.
type ExportService struct {
	repo      db.ExportRepository
	uploadDir string
}

// NewExportService creates a new ExportService instance
func NewExportService(repo db.ExportRepository, uploadDir string) *ExportService {
	return &ExportService{
		repo:      repo,
		uploadDir: uploadDir,
	}
}

// SaveExport writes the uploaded CSV to disk as user_<id>_<name> and
// replaces the account's export binding. The previous file, if any, is
// removed after the binding swap.
func (s *ExportService) SaveExport(userID, originalFilename string, content io.Reader) (*models.ChatExport, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if originalFilename == "" {
		return nil, fmt.Errorf("filename is required")
	}

	if err := os.MkdirAll(s.uploadDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	previous, err := s.repo.GetActiveByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check previous export: %w", err)
	}

	filename := fmt.Sprintf("user_%s_%s", userID, utils.SanitizeFilename(originalFilename))
	path := filepath.Join(s.uploadDir, filename)

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0640)
	if err != nil {
		return nil, fmt.Errorf("failed to create export file: %w", err)
	}

	if _, err := io.Copy(file, content); err != nil {
		file.Close()
		if removeErr := os.Remove(path); removeErr != nil {
			logger.Warn("Failed to remove partial export file", zap.Error(removeErr))
		}
		return nil, fmt.Errorf("failed to write export file: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close export file: %w", err)
	}

	export, err := s.repo.Replace(userID, filename)
	if err != nil {
		if removeErr := os.Remove(path); removeErr != nil {
			logger.Warn("Failed to remove orphaned export file", zap.Error(removeErr))
		}
		return nil, fmt.Errorf("failed to bind export: %w", err)
	}

	// Drop the superseded file unless the upload reused its name
	if previous != nil && previous.CSVFilename != filename {
		s.removeFile(previous.CSVFilename)
	}

	logger.Info("Export saved",
		zap.String("user_id", userID),
		zap.String("csv_filename", filename),
	)

	return export, nil
}

// ResolveActiveExport returns the absolute path of the account's active
// export file, or ErrNoExport when none is bound.
func (s *ExportService) ResolveActiveExport(userID string) (string, error) {
	export, err := s.repo.GetActiveByUserID(userID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve export: %w", err)
	}
	if export == nil {
		return "", ErrNoExport
	}
	return filepath.Join(s.uploadDir, export.CSVFilename), nil
}

// DeleteForUser removes the account's export binding and its file.
// Missing bindings and missing files are not errors.
func (s *ExportService) DeleteForUser(userID string) error {
	export, err := s.repo.GetActiveByUserID(userID)
	if err != nil {
		return fmt.Errorf("failed to look up export: %w", err)
	}
	if export == nil {
		return nil
	}

	if err := s.repo.DeleteByUserID(userID); err != nil {
		return fmt.Errorf("failed to delete export binding: %w", err)
	}

	s.removeFile(export.CSVFilename)
	return nil
}

func (s *ExportService) removeFile(filename string) {
	path := filepath.Join(s.uploadDir, filename)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to remove export file",
			zap.String("path", path),
			zap.Error(err),
		)
	}
}
