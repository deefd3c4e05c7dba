package database

import (
	"errors"

	"github.com/google/uuid"

	"github.com/murmurchat/murmur/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrMessageNotFound      = errors.New("message not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrForbidden            = errors.New("operation not permitted")
	ErrMessageDeleted       = errors.New("message is deleted")
	ErrEmptyMessage         = errors.New("message needs text or an attachment")
)

// Store is the persistence surface the API handlers depend on.
type Store interface {
	// User methods
	CreateUser(username, email, passwordHash string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uuid.UUID) (*models.User, error)
	UpdateLastSeen(userID uuid.UUID) error
	GetAllUsers(excludeUserID uuid.UUID) ([]*models.User, error)

	// Conversation methods
	GetOrCreateConversation(userID, otherID uuid.UUID) (*models.Conversation, error)
	GetConversationByID(id uuid.UUID) (*models.Conversation, error)
	ListConversations(userID uuid.UUID) ([]*models.Conversation, error)

	// Message methods
	CreateMessage(conversationID, senderID uuid.UUID, text string, attachment *models.Attachment) (*models.Message, error)
	ListMessages(conversationID uuid.UUID) ([]*models.Message, error)
	GetMessageByID(messageID uuid.UUID) (*models.Message, error)
	UpdateMessageText(messageID, editorID uuid.UUID, text string) (*models.Message, error)
	SoftDeleteMessage(messageID, editorID uuid.UUID) error
	MarkMessageRead(messageID, readerID uuid.UUID) error

	Close() error
}

// New opens the postgres-backed store.
func New(connStr string) (Store, error) {
	return NewPostgresStore(connStr)
}
