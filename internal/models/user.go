package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account that can log in and browse its chat history.
// The phone number is the login identity; IsAdmin gates the management API.
type User struct {
	ID           string  `json:"id"` // UUID
	PhoneNumber  string  `json:"phone_number" binding:"required"`
	PasswordHash string  `json:"-"` // EXCLUDED from JSON - bcrypt hash
	IsAdmin      bool    `json:"is_admin"`
	TOTPSecret   *string `json:"-"` // EXCLUDED from JSON - encrypted TOTP secret
	TOTPEnabled  bool    `json:"totp_enabled"`
	CreatedAt    int64   `json:"created_at"` // Unix timestamp of account creation
	UpdatedAt    int64   `json:"updated_at"` // Unix timestamp of last update
}

// ChatExport binds an account to its uploaded CSV conversation history.
// Each account holds at most one active export; uploading a new file
// replaces the previous binding.
type ChatExport struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	CSVFilename string `json:"csv_filename"`
	UploadDate  int64  `json:"upload_date"`
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
	TOTPCode    string `json:"totp_code,omitempty"`
}

// UpdateUserRequest represents the request body for updating an existing user
type UpdateUserRequest struct {
	PhoneNumber *string `json:"phone_number,omitempty"`
	Password    *string `json:"password,omitempty"`
	IsAdmin     *bool   `json:"is_admin,omitempty"`
}

// UserResponse is the safe user representation for API responses;
// it excludes the password hash and TOTP secret.
type UserResponse struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phone_number"`
	IsAdmin     bool   `json:"is_admin"`
	TOTPEnabled bool   `json:"totp_enabled"`
	CreatedAt   int64  `json:"created_at"`
}

// NewUser creates a new User with generated UUID and timestamps.
// The password should already be hashed before calling this function.
func NewUser(phoneNumber, passwordHash string, isAdmin bool) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		PhoneNumber:  phoneNumber,
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
		TOTPEnabled:  false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ToResponse converts User to UserResponse, excluding all sensitive fields
func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		PhoneNumber: u.PhoneNumber,
		IsAdmin:     u.IsAdmin,
		TOTPEnabled: u.TOTPEnabled,
		CreatedAt:   u.CreatedAt,
	}
}
