package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/murmurchat/murmur/internal/auth"
	"github.com/murmurchat/murmur/internal/database"
	"github.com/murmurchat/murmur/internal/logger"
	"github.com/murmurchat/murmur/internal/mail"
	"github.com/murmurchat/murmur/internal/models"
)

var authLog = logger.New("api.auth")

// AuthHandler handles authentication routes
type AuthHandler struct {
	DB   database.Store
	Mail *mail.Dispatcher
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db database.Store, mailer *mail.Dispatcher) *AuthHandler {
	return &AuthHandler{DB: db, Mail: mailer}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.UserRegistration

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	hashedPassword, err := auth.HashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to process password"})
		return
	}

	user, err := h.DB.CreateUser(input.Username, input.Email, hashedPassword)
	if err == database.ErrUserAlreadyExists {
		c.JSON(http.StatusConflict, gin.H{"message": "User already exists"})
		return
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create user"})
		return
	}

	// Welcome mail is best-effort and must not delay the response.
	if h.Mail != nil {
		h.Mail.SendAsync(
			user.Email,
			"Welcome to Murmur",
			fmt.Sprintf("<p>Hi %s, your account is ready.</p>", user.Username),
		)
	}

	c.JSON(http.StatusCreated, models.NewUserResponse(user))
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.UserLogin

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	user, err := h.DB.GetUserByEmail(input.Email)
	if err == database.ErrUserNotFound {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve user"})
		return
	}

	if !auth.CheckPasswordHash(input.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	if err := h.DB.UpdateLastSeen(user.ID); err != nil {
		authLog.Warn("Failed to update last_seen for %s: %v", user.ID, err)
	}

	token, expiry, err := auth.GenerateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":  token,
		"expiry": expiry,
		"user":   models.NewUserResponse(user),
	})
}

// Check verifies the bearer token and returns the current user. The
// client session holder calls this once at startup to decide between
// the authenticated and anonymous states.
func (h *AuthHandler) Check(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated"})
		return
	}

	userUUID := userID.(uuid.UUID)

	user, err := h.DB.GetUserByID(userUUID)
	if err == database.ErrUserNotFound {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve user"})
		return
	}

	c.JSON(http.StatusOK, models.NewUserResponse(user))
}

// Logout records the sign-off. Local credential purge happens client-side
// regardless of this call's outcome, so failures here are soft.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, exists := c.Get("userID")
	if exists {
		if err := h.DB.UpdateLastSeen(userID.(uuid.UUID)); err != nil {
			authLog.Warn("Failed to update last_seen on logout: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GetAllUsers lists every user except the caller, for starting new chats.
func (h *AuthHandler) GetAllUsers(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated"})
		return
	}

	users, err := h.DB.GetAllUsers(userID.(uuid.UUID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve users"})
		return
	}

	responses := make([]models.UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, models.NewUserResponse(u))
	}

	c.JSON(http.StatusOK, responses)
}
