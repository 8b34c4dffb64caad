package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chat-history-server/internal/config"
	"chat-history-server/internal/db"
	"chat-history-server/internal/services"
	"chat-history-server/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// testEnv wires real services over an in-memory database and a temp upload
// directory, mirroring the production wiring in cmd/server.
type testEnv struct {
	cfg         *config.Config
	router      *gin.Engine
	userService *services.UserService
	exports     *services.ExportService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.TokenExpiry = time.Hour
	cfg.Storage.UploadDir = t.TempDir()

	database, err := db.NewDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	userRepo := db.NewUserRepository(database.GetDB())
	exportRepo := db.NewExportRepository(database.GetDB())

	userService := services.NewUserService(userRepo, cfg)
	exportService := services.NewExportService(exportRepo, cfg.Storage.UploadDir)
	chatService := services.NewChatService(exportService)

	authHandler := NewAuthHandler(cfg, userService)
	userHandler := NewUserHandler(userService, exportService)
	chatHandler := NewChatHandler(chatService)

	router := gin.New()

	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/login", authHandler.Login)
	}

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(cfg))
	{
		protected.GET("/auth/me", authHandler.Me)
		protected.POST("/auth/logout", authHandler.Logout)

		chatGroup := protected.Group("/chat")
		{
			chatGroup.GET("/conversations", chatHandler.GetConversations)
			chatGroup.GET("/messages/:mobile_number", chatHandler.GetMessages)
			chatGroup.GET("/search", chatHandler.Search)
		}

		adminGroup := protected.Group("/users")
		adminGroup.Use(middleware.AdminRequired())
		{
			adminGroup.GET("", userHandler.List)
			adminGroup.POST("", userHandler.Create)
			adminGroup.GET("/:id", userHandler.Get)
			adminGroup.PUT("/:id", userHandler.Update)
			adminGroup.DELETE("/:id", userHandler.Delete)
			adminGroup.POST("/:id/upload-csv", userHandler.UploadCSV)
			adminGroup.POST("/:id/totp", userHandler.GenerateTOTP)
			adminGroup.POST("/:id/totp/enable", userHandler.EnableTOTP)
			adminGroup.DELETE("/:id/totp", userHandler.DisableTOTP)
		}
	}

	return &testEnv{
		cfg:         cfg,
		router:      router,
		userService: userService,
		exports:     exportService,
	}
}

// createUser provisions an account directly through the service layer and
// returns its ID and a valid bearer token.
func (e *testEnv) createUser(t *testing.T, phone, password string, isAdmin bool) (string, string) {
	t.Helper()

	user, err := e.userService.CreateUser(phone, password, isAdmin)
	require.NoError(t, err)

	token, err := middleware.GenerateToken(user.ID, user.IsAdmin, e.cfg)
	require.NoError(t, err)

	return user.ID, token
}

func (e *testEnv) uploadExport(t *testing.T, userID, csv string) {
	t.Helper()
	_, err := e.exports.SaveExport(userID, "history.csv", bytes.NewReader([]byte(csv)))
	require.NoError(t, err)
}

// doJSON performs a request with an optional JSON body and bearer token
func (e *testEnv) doJSON(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// doMultipart performs a multipart request with form fields and an optional
// csv_file part
func (e *testEnv) doMultipart(t *testing.T, method, path, token string, fields map[string]string, csvContent string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if csvContent != "" {
		part, err := writer.CreateFormFile("csv_file", "history.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte(csvContent))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
