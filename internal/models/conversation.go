package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a direct-message thread between exactly two users.
// It is created lazily on first contact; repeated lookups for the same
// unordered participant pair return the same conversation.
type Conversation struct {
	ID           uuid.UUID `json:"id"`
	ParticipantA uuid.UUID `json:"participant_a"`
	ParticipantB uuid.UUID `json:"participant_b"`
	LastMessage  *Message  `json:"last_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasParticipant reports whether the given user belongs to the conversation.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// OtherParticipant returns the peer of the given user. The caller must
// ensure the user is a participant.
func (c *Conversation) OtherParticipant(userID uuid.UUID) uuid.UUID {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}
