package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/murmurchat/murmur/internal/auth"
	"github.com/murmurchat/murmur/internal/config"
	"github.com/murmurchat/murmur/internal/database"
	"github.com/murmurchat/murmur/internal/mail"
	"github.com/murmurchat/murmur/internal/models"
)

// setupAuthHandlerTest wires the auth handler behind a stub middleware
// that injects userID when authenticated is non-nil.
func setupAuthHandlerTest(t *testing.T, authenticated *uuid.UUID) (*gin.Engine, *MockStore) {
	gin.SetMode(gin.TestMode)
	auth.InitJWTKey([]byte("test-secret-key-for-api-tests"))

	router := gin.New()
	mockStore := new(MockStore)
	handler := NewAuthHandler(mockStore, mail.NewDispatcher(config.SMTPConfig{}))

	router.POST("/api/auth/register", handler.Register)
	router.POST("/api/auth/login", handler.Login)

	group := router.Group("/api")
	if authenticated != nil {
		userID := *authenticated
		group.Use(func(c *gin.Context) {
			c.Set("userID", userID)
			c.Next()
		})
	}
	group.POST("/auth/check", handler.Check)
	group.POST("/auth/logout", handler.Logout)
	group.GET("/users", handler.GetAllUsers)

	return router, mockStore
}

func TestRegister(t *testing.T) {
	router, mockStore := setupAuthHandlerTest(t, nil)

	t.Run("Successful registration", func(t *testing.T) {
		expectedUser := &models.User{
			ID:        uuid.New(),
			Username:  "alice",
			Email:     "alice@example.com",
			CreatedAt: time.Now().UTC(),
		}

		mockStore.On("CreateUser", "alice", "alice@example.com", mock.AnythingOfType("string")).
			Return(expectedUser, nil).Once()

		jsonData, _ := json.Marshal(map[string]string{
			"username": "alice",
			"email":    "alice@example.com",
			"password": "password123",
		})
		req, _ := http.NewRequest("POST", "/api/auth/register", bytes.NewBuffer(jsonData))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response models.UserResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, expectedUser.ID, response.ID)
		assert.Equal(t, "alice", response.Username)

		mockStore.AssertExpectations(t)
	})

	t.Run("Duplicate user conflicts", func(t *testing.T) {
		mockStore.On("CreateUser", "alice", "alice@example.com", mock.AnythingOfType("string")).
			Return(nil, database.ErrUserAlreadyExists).Once()

		jsonData, _ := json.Marshal(map[string]string{
			"username": "alice",
			"email":    "alice@example.com",
			"password": "password123",
		})
		req, _ := http.NewRequest("POST", "/api/auth/register", bytes.NewBuffer(jsonData))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Missing fields are rejected", func(t *testing.T) {
		jsonData, _ := json.Marshal(map[string]string{"username": "alice"})
		req, _ := http.NewRequest("POST", "/api/auth/register", bytes.NewBuffer(jsonData))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockStore.AssertNotCalled(t, "CreateUser", "alice", "", "")
	})
}

func TestLogin(t *testing.T) {
	router, mockStore := setupAuthHandlerTest(t, nil)

	hash, err := auth.HashPassword("password123")
	assert.NoError(t, err)

	user := &models.User{
		ID:           uuid.New(),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
	}

	t.Run("Successful login returns token and user", func(t *testing.T) {
		mockStore.On("GetUserByEmail", "alice@example.com").Return(user, nil).Once()
		mockStore.On("UpdateLastSeen", user.ID).Return(nil).Once()

		jsonData, _ := json.Marshal(map[string]string{
			"email":    "alice@example.com",
			"password": "password123",
		})
		req, _ := http.NewRequest("POST", "/api/auth/login", bytes.NewBuffer(jsonData))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Token string              `json:"token"`
			User  models.UserResponse `json:"user"`
		}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.NotEmpty(t, response.Token)
		assert.Equal(t, user.ID, response.User.ID)

		// The issued token must round-trip through validation.
		claims, err := auth.ValidateToken(response.Token)
		assert.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.UserID)

		mockStore.AssertExpectations(t)
	})

	t.Run("Wrong password", func(t *testing.T) {
		mockStore.On("GetUserByEmail", "alice@example.com").Return(user, nil).Once()

		jsonData, _ := json.Marshal(map[string]string{
			"email":    "alice@example.com",
			"password": "wrong-password",
		})
		req, _ := http.NewRequest("POST", "/api/auth/login", bytes.NewBuffer(jsonData))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var response map[string]string
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, "Invalid credentials", response["message"])
	})

	t.Run("Unknown email gets the same answer as a wrong password", func(t *testing.T) {
		mockStore.On("GetUserByEmail", "nobody@example.com").
			Return(nil, database.ErrUserNotFound).Once()

		jsonData, _ := json.Marshal(map[string]string{
			"email":    "nobody@example.com",
			"password": "password123",
		})
		req, _ := http.NewRequest("POST", "/api/auth/login", bytes.NewBuffer(jsonData))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var response map[string]string
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, "Invalid credentials", response["message"])
	})
}

func TestCheck(t *testing.T) {
	t.Run("Authenticated user gets their profile", func(t *testing.T) {
		userID := uuid.New()
		router, mockStore := setupAuthHandlerTest(t, &userID)

		user := &models.User{ID: userID, Username: "alice", Email: "alice@example.com"}
		mockStore.On("GetUserByID", userID).Return(user, nil).Once()

		req, _ := http.NewRequest("POST", "/api/auth/check", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response models.UserResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, userID, response.ID)
		mockStore.AssertExpectations(t)
	})

	t.Run("Deleted account no longer verifies", func(t *testing.T) {
		userID := uuid.New()
		router, mockStore := setupAuthHandlerTest(t, &userID)

		mockStore.On("GetUserByID", userID).Return(nil, database.ErrUserNotFound).Once()

		req, _ := http.NewRequest("POST", "/api/auth/check", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestLogout(t *testing.T) {
	userID := uuid.New()
	router, mockStore := setupAuthHandlerTest(t, &userID)

	t.Run("Logout succeeds even when last_seen update fails", func(t *testing.T) {
		mockStore.On("UpdateLastSeen", userID).Return(assert.AnError).Once()

		req, _ := http.NewRequest("POST", "/api/auth/logout", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]string
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, "Logged out", response["message"])
	})
}

func TestGetAllUsers(t *testing.T) {
	userID := uuid.New()
	router, mockStore := setupAuthHandlerTest(t, &userID)

	t.Run("Caller is excluded from the directory", func(t *testing.T) {
		others := []*models.User{
			{ID: uuid.New(), Username: "bob", Email: "bob@example.com"},
			{ID: uuid.New(), Username: "carol", Email: "carol@example.com"},
		}
		mockStore.On("GetAllUsers", userID).Return(others, nil).Once()

		req, _ := http.NewRequest("GET", "/api/users", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response []models.UserResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Len(t, response, 2)
		for _, u := range response {
			assert.NotEqual(t, userID, u.ID)
		}
		mockStore.AssertExpectations(t)
	})
}
