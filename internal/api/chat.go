package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/murmurchat/murmur/internal/database"
	"github.com/murmurchat/murmur/internal/models"
)

// ChatHandler handles conversation and message routes
type ChatHandler struct {
	DB database.Store
}

// NewChatHandler creates a new chat handler
func NewChatHandler(db database.Store) *ChatHandler {
	return &ChatHandler{DB: db}
}

// ListConversations returns the caller's conversations, most recent
// activity first.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	conversations, err := h.DB.ListConversations(userID.(uuid.UUID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch conversations"})
		return
	}

	if conversations == nil {
		conversations = []*models.Conversation{}
	}
	c.JSON(http.StatusOK, conversations)
}

// GetOrCreateConversation returns the conversation between the caller and
// the given user, creating it on first contact. Repeated calls with the
// same peer return the same conversation.
func (h *ChatHandler) GetOrCreateConversation(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}
	userUUID := userID.(uuid.UUID)

	receiverID, err := uuid.Parse(c.Param("receiverID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user ID"})
		return
	}

	if receiverID == userUUID {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Cannot start a conversation with yourself"})
		return
	}

	conversation, err := h.DB.GetOrCreateConversation(userUUID, receiverID)
	if err == database.ErrUserNotFound {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch conversation"})
		return
	}

	c.JSON(http.StatusOK, conversation)
}

// ListMessages returns a conversation's messages in chronological order.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}
	userUUID := userID.(uuid.UUID)

	conversationID, err := uuid.Parse(c.Param("conversationID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid conversation ID"})
		return
	}

	conversation, err := h.DB.GetConversationByID(conversationID)
	if err == database.ErrConversationNotFound {
		c.JSON(http.StatusNotFound, gin.H{"message": "Conversation not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch messages"})
		return
	}

	if !conversation.HasParticipant(userUUID) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Not a participant"})
		return
	}

	messages, err := h.DB.ListMessages(conversationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch messages"})
		return
	}

	if messages == nil {
		messages = []*models.Message{}
	}
	c.JSON(http.StatusOK, messages)
}

// SendMessage appends a message to a conversation.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	conversationID, err := uuid.Parse(c.Param("conversationID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid conversation ID"})
		return
	}

	var req models.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	message, err := h.DB.CreateMessage(conversationID, userID.(uuid.UUID), req.Text, req.Attachment)
	switch err {
	case nil:
	case database.ErrConversationNotFound:
		c.JSON(http.StatusNotFound, gin.H{"message": "Conversation not found"})
		return
	case database.ErrForbidden:
		c.JSON(http.StatusForbidden, gin.H{"message": "Not a participant"})
		return
	case database.ErrEmptyMessage:
		c.JSON(http.StatusBadRequest, gin.H{"message": "Message needs text or an attachment"})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to send message"})
		return
	}

	c.JSON(http.StatusCreated, message)
}

// EditMessage replaces a message's text. Only the sender may edit, and
// only while the message is not deleted.
func (h *ChatHandler) EditMessage(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	messageID, err := uuid.Parse(c.Param("messageID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid message ID"})
		return
	}

	var req models.MessageEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	message, err := h.DB.UpdateMessageText(messageID, userID.(uuid.UUID), req.Text)
	switch err {
	case nil:
	case database.ErrMessageNotFound:
		c.JSON(http.StatusNotFound, gin.H{"message": "Message not found"})
		return
	case database.ErrMessageDeleted:
		c.JSON(http.StatusConflict, gin.H{"message": "Message is deleted"})
		return
	case database.ErrForbidden:
		c.JSON(http.StatusForbidden, gin.H{"message": "Only the sender can edit a message"})
		return
	case database.ErrEmptyMessage:
		c.JSON(http.StatusBadRequest, gin.H{"message": "Message text cannot be empty"})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to edit message"})
		return
	}

	c.JSON(http.StatusOK, message)
}

// DeleteMessage soft-deletes a message. The record persists for
// conversation continuity; its content stops being served.
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	messageID, err := uuid.Parse(c.Param("messageID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid message ID"})
		return
	}

	err = h.DB.SoftDeleteMessage(messageID, userID.(uuid.UUID))
	switch err {
	case nil:
	case database.ErrMessageNotFound:
		c.JSON(http.StatusNotFound, gin.H{"message": "Message not found"})
		return
	case database.ErrForbidden:
		c.JSON(http.StatusForbidden, gin.H{"message": "Only the sender can delete a message"})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message deleted"})
}

// MarkMessageRead records that the recipient has seen a message. The
// read timestamp is set once; repeat calls are no-ops.
func (h *ChatHandler) MarkMessageRead(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	messageID, err := uuid.Parse(c.Param("messageID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid message ID"})
		return
	}

	err = h.DB.MarkMessageRead(messageID, userID.(uuid.UUID))
	switch err {
	case nil:
	case database.ErrMessageNotFound:
		c.JSON(http.StatusNotFound, gin.H{"message": "Message not found"})
		return
	case database.ErrForbidden:
		c.JSON(http.StatusForbidden, gin.H{"message": "Only the recipient can mark a message read"})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to mark message read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message marked as read"})
}
