package services

import (
	"errors"
	"fmt"
	"regexp"

	"chat-history-server/internal/config"
	"chat-history-server/internal/db"
	"chat-history-server/internal/models"
	"chat-history-server/pkg/logger"
	"chat-history-server/pkg/utils"

	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost parameter for bcrypt password hashing
	BcryptCost = 12

	// MinPasswordLength is the minimum length for passwords
	MinPasswordLength = 8
)

var (
	// ErrInvalidCredentials indicates authentication failure
	ErrInvalidCredentials = errors.New("invalid phone number or password")

	// ErrInvalidTOTP indicates TOTP code validation failure
	ErrInvalidTOTP = errors.New("invalid TOTP code")

	// ErrUserNotFound indicates user does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrPhoneNumberTaken indicates another account owns the phone number
	ErrPhoneNumberTaken = errors.New("phone number already in use")

	// ErrInvalidPhoneNumber indicates phone number validation failure
	ErrInvalidPhoneNumber = errors.New("phone number must be 5-20 digits with optional leading +")

	// ErrInvalidPassword indicates password validation failure
	ErrInvalidPassword = errors.New("password must be at least 8 characters")

	// ErrTOTPNotConfigured indicates no TOTP secret exists for the user
	ErrTOTPNotConfigured = errors.New("TOTP is not configured for this user")
)

var phoneNumberRegex = regexp.MustCompile(`^\+?[0-9]{5,20}$`)

// UserService provides business logic for account management and
// authentication.
type UserService struct {
	repo          db.UserRepository
	encryptionKey string
}

// NewUserService creates a new UserService instance
func NewUserService(repo db.UserRepository, cfg *config.Config) *UserService {
	key := ""
	if cfg != nil {
		key = cfg.Security.TOTPEncryptionKey
	}
	return &UserService{
		repo:          repo,
		encryptionKey: key,
	}
}

// CreateUser creates a new account with a hashed password
func (s *UserService) CreateUser(phoneNumber, password string, isAdmin bool) (*models.User, error) {
	if err := validatePhoneNumber(phoneNumber); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByPhoneNumber(phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check phone number: %w", err)
	}
	if existing != nil {
		return nil, ErrPhoneNumberTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(phoneNumber, string(hashedPassword), isAdmin)
	if err := s.repo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate verifies phone number/password and the TOTP code when the
// account has two-factor enabled.
func (s *UserService) Authenticate(phoneNumber, password, totpCode string) (*models.User, error) {
	user, err := s.repo.GetByPhoneNumber(phoneNumber)
	if err != nil {
		logger.Error("Database error during authentication",
			zap.String("phone_number", phoneNumber),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		logger.Warn("Authentication failed - user not found",
			zap.String("phone_number", phoneNumber),
			zap.String("event_type", "invalid_credentials"),
		)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.Warn("Authentication failed - invalid password",
			zap.String("user_id", user.ID),
			zap.String("event_type", "failed_login"),
		)
		return nil, ErrInvalidCredentials
	}

	if user.TOTPEnabled {
		if err := s.verifyTOTP(user, totpCode); err != nil {
			logger.Warn("Authentication failed - TOTP validation failed",
				zap.String("user_id", user.ID),
				zap.String("event_type", "failed_totp_validation"),
			)
			return nil, err
		}
	}

	logger.Info("User authenticated successfully",
		zap.String("user_id", user.ID),
		zap.String("event_type", "successful_login"),
	)

	return user, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(id string) (*models.User, error) {
	user, err := s.repo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateUser applies the provided changes to an existing account
func (s *UserService) UpdateUser(id string, req *models.UpdateUserRequest) (*models.User, error) {
	user, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}

	if req.PhoneNumber != nil && *req.PhoneNumber != user.PhoneNumber {
		if err := validatePhoneNumber(*req.PhoneNumber); err != nil {
			return nil, err
		}
		existing, err := s.repo.GetByPhoneNumber(*req.PhoneNumber)
		if err != nil {
			return nil, fmt.Errorf("failed to check phone number: %w", err)
		}
		if existing != nil && existing.ID != id {
			return nil, ErrPhoneNumberTaken
		}
		user.PhoneNumber = *req.PhoneNumber
	}

	if req.Password != nil && *req.Password != "" {
		if err := validatePassword(*req.Password); err != nil {
			return nil, err
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hashed)
	}

	if req.IsAdmin != nil {
		user.IsAdmin = *req.IsAdmin
	}

	if err := s.repo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// DeleteUser removes an account
func (s *UserService) DeleteUser(id string) error {
	if _, err := s.GetUser(id); err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// ListUsers retrieves accounts with pagination
func (s *UserService) ListUsers(limit, offset int) ([]*models.User, error) {
	users, err := s.repo.List(limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GenerateTOTPSecret creates a new TOTP secret for the user and stores it
// encrypted. The returned otpauth URL is shown once for enrollment;
// two-factor stays off until EnableTOTP confirms a valid code.
func (s *UserService) GenerateTOTPSecret(userID string) (string, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return "", err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "chat-history-server",
		AccountName: user.PhoneNumber,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	secret := key.Secret()
	stored := secret
	if s.encryptionKey != "" {
		stored, err = utils.EncryptSecret(secret, s.encryptionKey)
		if err != nil {
			return "", fmt.Errorf("failed to encrypt TOTP secret: %w", err)
		}
	}

	user.TOTPSecret = &stored
	user.TOTPEnabled = false
	if err := s.repo.Update(user); err != nil {
		return "", fmt.Errorf("failed to store TOTP secret: %w", err)
	}

	return key.URL(), nil
}

// EnableTOTP turns on two-factor after verifying one code against the
// stored secret.
func (s *UserService) EnableTOTP(userID, totpCode string) error {
	user, err := s.GetUser(userID)
	if err != nil {
		return err
	}
	if user.TOTPSecret == nil || *user.TOTPSecret == "" {
		return ErrTOTPNotConfigured
	}

	if err := s.verifyTOTP(user, totpCode); err != nil {
		return err
	}

	user.TOTPEnabled = true
	if err := s.repo.Update(user); err != nil {
		return fmt.Errorf("failed to enable TOTP: %w", err)
	}
	return nil
}

// DisableTOTP turns off two-factor and discards the secret
func (s *UserService) DisableTOTP(userID string) error {
	user, err := s.GetUser(userID)
	if err != nil {
		return err
	}

	user.TOTPSecret = nil
	user.TOTPEnabled = false
	if err := s.repo.Update(user); err != nil {
		return fmt.Errorf("failed to disable TOTP: %w", err)
	}
	return nil
}

func (s *UserService) verifyTOTP(user *models.User, totpCode string) error {
	if user.TOTPSecret == nil || *user.TOTPSecret == "" {
		return ErrTOTPNotConfigured
	}
	if totpCode == "" {
		return ErrInvalidTOTP
	}

	secret := *user.TOTPSecret
	if s.encryptionKey != "" {
		decrypted, err := utils.DecryptSecret(secret, s.encryptionKey)
		if err != nil {
			return fmt.Errorf("failed to decrypt TOTP secret: %w", err)
		}
		secret = decrypted
	}

	if !totp.Validate(totpCode, secret) {
		return ErrInvalidTOTP
	}
	return nil
}

func validatePhoneNumber(phoneNumber string) error {
	if !phoneNumberRegex.MatchString(phoneNumber) {
		return ErrInvalidPhoneNumber
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrInvalidPassword
	}
	return nil
}
