package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"chat-history-server/internal/models"
	"chat-history-server/internal/services"
	"chat-history-server/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler handles the administrator account-management API
type UserHandler struct {
	userService   UserServiceInterface
	exportService ExportServiceInterface
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService UserServiceInterface, exportService ExportServiceInterface) *UserHandler {
	return &UserHandler{
		userService:   userService,
		exportService: exportService,
	}
}

// List handles GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	limit := 100
	offset := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err != nil || l <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit value"})
			return
		} else {
			limit = l
		}
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err != nil || o < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset value"})
			return
		} else {
			offset = o
		}
	}

	users, err := h.userService.ListUsers(limit, offset)
	if err != nil {
		logger.Error("Failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}

	responses := make([]*models.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, user.ToResponse())
	}

	c.JSON(http.StatusOK, responses)
}

// Create handles POST /api/users. The request is multipart: account fields
// plus the initial CSV export, which is mandatory so every account starts
// with a browsable history.
func (h *UserHandler) Create(c *gin.Context) {
	logger.Info("User creation endpoint called")

	phoneNumber := c.PostForm("phone_number")
	password := c.PostForm("password")
	isAdmin := c.PostForm("is_admin") == "true"

	if phoneNumber == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone number and password are required"})
		return
	}

	fileHeader, err := c.FormFile("csv_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "CSV file is required"})
		return
	}

	user, err := h.userService.CreateUser(phoneNumber, password, isAdmin)
	if err != nil {
		logger.Warn("User creation failed",
			zap.String("phone_number", phoneNumber),
			zap.Error(err),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.rollbackUser(user.ID)
		logger.Error("Failed to open uploaded file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	if _, err := h.exportService.SaveExport(user.ID, fileHeader.Filename, file); err != nil {
		h.rollbackUser(user.ID)
		logger.Error("Failed to save export for new user",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save CSV file"})
		return
	}

	logger.Info("User created",
		zap.String("user_id", user.ID),
		zap.String("phone_number", user.PhoneNumber),
	)

	c.JSON(http.StatusCreated, user.ToResponse())
}

// rollbackUser removes a half-created account when the export save fails
func (h *UserHandler) rollbackUser(userID string) {
	if err := h.userService.DeleteUser(userID); err != nil {
		logger.Error("Failed to roll back user after export failure",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

// Get handles GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userService.GetUser(c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		logger.Error("Failed to get user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user"})
		return
	}

	c.JSON(http.StatusOK, user.ToResponse())
}

// Update handles PUT /api/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	user, err := h.userService.UpdateUser(c.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, services.ErrPhoneNumberTaken),
			errors.Is(err, services.ErrInvalidPhoneNumber),
			errors.Is(err, services.ErrInvalidPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to update user", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		}
		return
	}

	c.JSON(http.StatusOK, user.ToResponse())
}

// Delete handles DELETE /api/users/:id. The export file goes with the
// account.
func (h *UserHandler) Delete(c *gin.Context) {
	userID := c.Param("id")

	if err := h.exportService.DeleteForUser(userID); err != nil {
		logger.Error("Failed to delete export for user",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user data"})
		return
	}

	if err := h.userService.DeleteUser(userID); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		logger.Error("Failed to delete user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	logger.Info("User deleted", zap.String("user_id", userID))
	c.Status(http.StatusNoContent)
}

// UploadCSV handles POST /api/users/:id/upload-csv, replacing the
// account's conversation export
func (h *UserHandler) UploadCSV(c *gin.Context) {
	userID := c.Param("id")

	if _, err := h.userService.GetUser(userID); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		logger.Error("Failed to look up user for upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up user"})
		return
	}

	fileHeader, err := c.FormFile("csv_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "CSV file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Error("Failed to open uploaded file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	if _, err := h.exportService.SaveExport(userID, fileHeader.Filename, file); err != nil {
		logger.Error("Failed to replace export",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save CSV file"})
		return
	}

	logger.Info("Export replaced", zap.String("user_id", userID))
	c.JSON(http.StatusOK, gin.H{"message": "CSV file updated successfully"})
}

// GenerateTOTP handles POST /api/users/:id/totp and returns the otpauth
// enrollment URL
func (h *UserHandler) GenerateTOTP(c *gin.Context) {
	userID := c.Param("id")

	otpURL, err := h.userService.GenerateTOTPSecret(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		logger.Error("Failed to generate TOTP secret", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate TOTP secret"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"otpauth_url": otpURL})
}

// EnableTOTP handles POST /api/users/:id/totp/enable
func (h *UserHandler) EnableTOTP(c *gin.Context) {
	userID := c.Param("id")

	var req struct {
		TOTPCode string `json:"totp_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.TOTPCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "TOTP code is required"})
		return
	}

	if err := h.userService.EnableTOTP(userID, req.TOTPCode); err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, services.ErrTOTPNotConfigured), errors.Is(err, services.ErrInvalidTOTP):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to enable TOTP", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enable TOTP"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "TOTP enabled successfully"})
}

// DisableTOTP handles DELETE /api/users/:id/totp
func (h *UserHandler) DisableTOTP(c *gin.Context) {
	userID := c.Param("id")

	if err := h.userService.DisableTOTP(userID); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		logger.Error("Failed to disable TOTP", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disable TOTP"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "TOTP disabled successfully"})
}
