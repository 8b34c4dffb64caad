package db

import (
	"database/sql"
	"errors"
	"fmt"

	"chat-history-server/internal/models"

	"golang.org/x/crypto/bcrypt"
	_ "github.com/mattn/go-sqlite3"
)

// Database wraps the sqlite connection holding accounts and export bindings.
type Database struct {
	db *sql.DB
}

// NewDatabase opens the sqlite database at the given DSN and ensures the
// schema exists.
func NewDatabase(dsn string) (*Database, error) {
	if dsn == "" {
		return nil, errors.New("database DSN is required")
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// Verify we can actually connect to the database
	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("ping failed: %w, close failed: %v", err, closeErr)
		}
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("enable foreign keys failed: %w, close failed: %v", err, closeErr)
		}
		return nil, err
	}

	// Try to create tables - if this fails, the database is not usable
	if err := createTables(db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("create tables failed: %w, close failed: %v", err, closeErr)
		}
		return nil, err
	}

	return &Database{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			phone_number TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			is_admin BOOLEAN NOT NULL DEFAULT 0,
			totp_secret TEXT,
			totp_enabled BOOLEAN NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS chat_exports (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE,
			csv_filename TEXT NOT NULL,
			upload_date INTEGER NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_users_phone_number ON users(phone_number);
		CREATE INDEX IF NOT EXISTS idx_chat_exports_user_id ON chat_exports(user_id);
	`)
	return err
}

// GetDB exposes the underlying connection for repository construction.
func (d *Database) GetDB() *sql.DB {
	return d.db
}

// Close closes the database connection.
func (d *Database) Close() error {
	if d == nil || d.db == nil {
		return errors.New("database already closed")
	}

	err := d.db.Close()
	d.db = nil
	return err
}

// SeedAdmin creates an administrator account if no user with the given phone
// number exists. Used at startup so a fresh install has a way in.
func (d *Database) SeedAdmin(phoneNumber, password string) error {
	if phoneNumber == "" || password == "" {
		return errors.New("seed admin phone number and password are required")
	}

	repo := NewUserRepository(d.db)
	existing, err := repo.GetByPhoneNumber(phoneNumber)
	if err != nil {
		return fmt.Errorf("failed to check for existing admin: %w", err)
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	admin := models.NewUser(phoneNumber, string(hash), true)
	if err := repo.Create(admin); err != nil {
		return fmt.Errorf("failed to create seed admin: %w", err)
	}

	return nil
}
