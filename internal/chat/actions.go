package chat

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/murmurchat/murmur/internal/models"
)

var (
	ErrNotEditable     = errors.New("message cannot be modified")
	ErrNoPendingDelete = errors.New("no delete has been requested")
)

// CanModify reports whether edit/delete affordances should be offered for
// a message. This is a UI-level guard; the server re-verifies ownership
// and deletion state on every command.
func CanModify(m *models.Message, currentUserID uuid.UUID) bool {
	return !m.Deleted && m.SenderID == currentUserID
}

// EditDraft holds an in-progress edit of a message's text.
type EditDraft struct {
	messageID uuid.UUID
	original  string
	text      string
}

// BeginEdit opens a draft seeded with the message's current text. It
// fails when the caller does not own the message or it is deleted.
func BeginEdit(m *models.Message, currentUserID uuid.UUID) (*EditDraft, error) {
	if !CanModify(m, currentUserID) {
		return nil, ErrNotEditable
	}
	return &EditDraft{messageID: m.ID, original: m.Text, text: m.Text}, nil
}

// MessageID returns the message the draft belongs to.
func (d *EditDraft) MessageID() uuid.UUID {
	return d.messageID
}

// Text returns the draft's current text.
func (d *EditDraft) Text() string {
	return d.text
}

// SetText replaces the draft text.
func (d *EditDraft) SetText(text string) {
	d.text = text
}

// Submit finalizes the draft. It returns the text to persist and true
// when an update should be issued; a whitespace-only draft or one
// identical to the original is a no-op and returns false.
func (d *EditDraft) Submit() (string, bool) {
	trimmed := strings.TrimSpace(d.text)
	if trimmed == "" || d.text == d.original {
		return "", false
	}
	return d.text, true
}

// Cancel discards the draft and returns the original text.
func (d *EditDraft) Cancel() string {
	d.text = d.original
	return d.original
}

// DeleteFlow is the two-step delete command: a delete must be requested
// and then explicitly confirmed before the delete call is issued.
type DeleteFlow struct {
	pending   bool
	messageID uuid.UUID
}

// Request records the intent to delete a message. It fails when the
// caller does not own the message or it is already deleted.
func (f *DeleteFlow) Request(m *models.Message, currentUserID uuid.UUID) error {
	if !CanModify(m, currentUserID) {
		return ErrNotEditable
	}
	f.pending = true
	f.messageID = m.ID
	return nil
}

// Confirm resolves a pending request and returns the message to delete.
func (f *DeleteFlow) Confirm() (uuid.UUID, error) {
	if !f.pending {
		return uuid.Nil, ErrNoPendingDelete
	}
	f.pending = false
	return f.messageID, nil
}

// Cancel drops any pending request.
func (f *DeleteFlow) Cancel() {
	f.pending = false
	f.messageID = uuid.Nil
}

// Pending reports whether a delete request awaits confirmation.
func (f *DeleteFlow) Pending() bool {
	return f.pending
}
