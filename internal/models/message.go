package models

import (
	"time"

	"github.com/google/uuid"
)

// AttachmentKind identifies how an attachment should be presented.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentVideo AttachmentKind = "video"
	AttachmentAudio AttachmentKind = "audio"
	AttachmentFile  AttachmentKind = "file"
)

// Attachment is a file carried by a message.
type Attachment struct {
	URL       string         `json:"url"`
	Kind      AttachmentKind `json:"kind"`
	Filename  string         `json:"filename"`
	SizeBytes int64          `json:"size_bytes"`
}

// Message represents a chat message in the system.
// Deleted messages keep their row for conversation continuity; their
// content must not be rendered.
type Message struct {
	ID             uuid.UUID   `json:"id"`
	ConversationID uuid.UUID   `json:"conversation_id"`
	SenderID       uuid.UUID   `json:"sender_id"`
	Text           string      `json:"text,omitempty"`
	Attachment     *Attachment `json:"attachment,omitempty"`
	SentAt         time.Time   `json:"sent_at"`
	ReadAt         *time.Time  `json:"read_at,omitempty"`
	ReadBy         *uuid.UUID  `json:"read_by,omitempty"`
	EditedAt       *time.Time  `json:"edited_at,omitempty"`
	Deleted        bool        `json:"deleted"`
}

// IsRead reports whether the message has been read by the recipient.
func (m *Message) IsRead() bool {
	return m.ReadAt != nil
}

// MessageRequest is the structure for message creation requests.
// Text may be omitted when an attachment is present.
type MessageRequest struct {
	Text       string      `json:"text"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// MessageEditRequest carries the replacement text for an edit.
type MessageEditRequest struct {
	Text string `json:"text" binding:"required"`
}
