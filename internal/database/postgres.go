package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/murmurchat/murmur/internal/models"
)

type PostgresStore struct {
	*sql.DB
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PostgresStore{db}, nil
}

func (s *PostgresStore) Close() error {
	return s.DB.Close()
}

// --- users ---

func (s *PostgresStore) CreateUser(username, email, passwordHash string) (*models.User, error) {
	var count int
	err := s.QueryRow("SELECT COUNT(*) FROM users WHERE username = $1 OR email = $2",
		username, email).Scan(&count)
	if err != nil {
		return nil, err
	}

	if count > 0 {
		return nil, ErrUserAlreadyExists
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
		LastSeen:     time.Now().UTC(),
	}

	_, err = s.Exec(
		"INSERT INTO users (id, username, email, password_hash, created_at, last_seen) VALUES ($1, $2, $3, $4, $5, $6)",
		user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt, user.LastSeen,
	)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *PostgresStore) GetUserByEmail(email string) (*models.User, error) {
	user := &models.User{}

	err := s.QueryRow(`
		SELECT id, username, email, password_hash,
		       COALESCE(display_name, ''), COALESCE(avatar_url, ''),
		       created_at, last_seen
		FROM users WHERE email = $1`, email).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.DisplayName, &user.AvatarURL, &user.CreatedAt, &user.LastSeen)

	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *PostgresStore) GetUserByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.QueryRow(`
		SELECT id, username, email, password_hash,
		       COALESCE(display_name, ''), COALESCE(avatar_url, ''),
		       created_at, last_seen
		FROM users WHERE id = $1`,
		id).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.AvatarURL,
		&user.CreatedAt,
		&user.LastSeen,
	)

	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (s *PostgresStore) UpdateLastSeen(userID uuid.UUID) error {
	result, err := s.Exec("UPDATE users SET last_seen = $1 WHERE id = $2",
		time.Now().UTC(), userID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (s *PostgresStore) GetAllUsers(excludeUserID uuid.UUID) ([]*models.User, error) {
	rows, err := s.Query(`
		SELECT id, username, email, password_hash,
		       COALESCE(display_name, ''), COALESCE(avatar_url, ''),
		       created_at, last_seen
		FROM users
		WHERE id != $1
		ORDER BY username`, excludeUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.PasswordHash,
			&user.DisplayName,
			&user.AvatarURL,
			&user.CreatedAt,
			&user.LastSeen,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, &user)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

// --- conversations ---

// normalizePair orders two participant IDs so the unordered pair always
// maps to the same row.
func normalizePair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if strings.Compare(a.String(), b.String()) > 0 {
		return b, a
	}
	return a, b
}

func (s *PostgresStore) GetOrCreateConversation(userID, otherID uuid.UUID) (*models.Conversation, error) {
	if _, err := s.GetUserByID(otherID); err != nil {
		return nil, err
	}

	first, second := normalizePair(userID, otherID)

	conv, err := s.getConversationByPair(first, second)
	if err == nil {
		return conv, nil
	}
	if err != ErrConversationNotFound {
		return nil, err
	}

	conv = &models.Conversation{
		ID:           uuid.New(),
		ParticipantA: first,
		ParticipantB: second,
		CreatedAt:    time.Now().UTC(),
	}

	// A concurrent first contact may have inserted the same pair; the
	// unique constraint makes the insert a no-op and the re-select wins.
	result, err := s.Exec(`
		INSERT INTO conversations (id, participant_a, participant_b, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (participant_a, participant_b) DO NOTHING`,
		conv.ID, conv.ParticipantA, conv.ParticipantB, conv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if inserted == 0 {
		return s.getConversationByPair(first, second)
	}

	return conv, nil
}

func (s *PostgresStore) getConversationByPair(first, second uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.QueryRow(`
		SELECT id, participant_a, participant_b, created_at
		FROM conversations
		WHERE participant_a = $1 AND participant_b = $2`,
		first, second).Scan(&conv.ID, &conv.ParticipantA, &conv.ParticipantB, &conv.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}

	return &conv, nil
}

func (s *PostgresStore) GetConversationByID(id uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.QueryRow(`
		SELECT id, participant_a, participant_b, created_at
		FROM conversations
		WHERE id = $1`,
		id).Scan(&conv.ID, &conv.ParticipantA, &conv.ParticipantB, &conv.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}

	return &conv, nil
}

func (s *PostgresStore) ListConversations(userID uuid.UUID) ([]*models.Conversation, error) {
	// Most recent activity first: last message time when there is one,
	// creation time otherwise.
	rows, err := s.Query(`
		SELECT c.id, c.participant_a, c.participant_b, c.created_at,
		       m.id, m.conversation_id, m.sender_id, m.content,
		       m.attachment_url, m.attachment_kind, m.attachment_filename, m.attachment_size,
		       m.created_at, m.read_at, m.read_by, m.edited_at, m.deleted
		FROM conversations c
		LEFT JOIN messages m ON m.id = c.last_message_id
		WHERE c.participant_a = $1 OR c.participant_b = $1
		ORDER BY COALESCE(m.created_at, c.created_at) DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []*models.Conversation
	for rows.Next() {
		var conv models.Conversation
		var msg messageRow
		var msgID uuid.NullUUID

		err := rows.Scan(
			&conv.ID, &conv.ParticipantA, &conv.ParticipantB, &conv.CreatedAt,
			&msgID, &msg.conversationID, &msg.senderID, &msg.content,
			&msg.attachmentURL, &msg.attachmentKind, &msg.attachmentFilename, &msg.attachmentSize,
			&msg.createdAt, &msg.readAt, &msg.readBy, &msg.editedAt, &msg.deleted,
		)
		if err != nil {
			return nil, err
		}

		if msgID.Valid {
			msg.id = msgID.UUID
			conv.LastMessage = msg.toMessage()
		}

		conversations = append(conversations, &conv)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return conversations, nil
}

// --- messages ---

// messageRow collects the nullable columns of a messages row so scanning
// stays in one place.
type messageRow struct {
	id                 uuid.UUID
	conversationID     uuid.NullUUID
	senderID           uuid.NullUUID
	content            sql.NullString
	attachmentURL      sql.NullString
	attachmentKind     sql.NullString
	attachmentFilename sql.NullString
	attachmentSize     sql.NullInt64
	createdAt          sql.NullTime
	readAt             sql.NullTime
	readBy             uuid.NullUUID
	editedAt           sql.NullTime
	deleted            sql.NullBool
}

// toMessage converts a scanned row. Deleted messages keep their identity
// and timestamps but never carry content out of the store.
func (r *messageRow) toMessage() *models.Message {
	msg := &models.Message{
		ID:             r.id,
		ConversationID: r.conversationID.UUID,
		SenderID:       r.senderID.UUID,
		SentAt:         r.createdAt.Time,
		Deleted:        r.deleted.Bool,
	}

	if r.readAt.Valid {
		t := r.readAt.Time
		msg.ReadAt = &t
	}
	if r.readBy.Valid {
		id := r.readBy.UUID
		msg.ReadBy = &id
	}
	if r.editedAt.Valid {
		t := r.editedAt.Time
		msg.EditedAt = &t
	}

	if msg.Deleted {
		return msg
	}

	msg.Text = r.content.String
	if r.attachmentURL.Valid {
		msg.Attachment = &models.Attachment{
			URL:       r.attachmentURL.String,
			Kind:      models.AttachmentKind(r.attachmentKind.String),
			Filename:  r.attachmentFilename.String,
			SizeBytes: r.attachmentSize.Int64,
		}
	}

	return msg
}

const messageColumns = `id, conversation_id, sender_id, content,
	attachment_url, attachment_kind, attachment_filename, attachment_size,
	created_at, read_at, read_by, edited_at, deleted`

func scanMessage(scan func(dest ...interface{}) error) (*models.Message, error) {
	var r messageRow
	err := scan(
		&r.id, &r.conversationID, &r.senderID, &r.content,
		&r.attachmentURL, &r.attachmentKind, &r.attachmentFilename, &r.attachmentSize,
		&r.createdAt, &r.readAt, &r.readBy, &r.editedAt, &r.deleted,
	)
	if err != nil {
		return nil, err
	}
	return r.toMessage(), nil
}

func (s *PostgresStore) CreateMessage(conversationID, senderID uuid.UUID, text string, attachment *models.Attachment) (*models.Message, error) {
	conv, err := s.GetConversationByID(conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(senderID) {
		return nil, ErrForbidden
	}

	if strings.TrimSpace(text) == "" && attachment == nil {
		return nil, ErrEmptyMessage
	}

	message := &models.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
		Attachment:     attachment,
		SentAt:         time.Now().UTC(),
	}

	var attURL, attKind, attFilename interface{}
	var attSize interface{}
	if attachment != nil {
		attURL = attachment.URL
		attKind = string(attachment.Kind)
		attFilename = attachment.Filename
		attSize = attachment.SizeBytes
	}

	_, err = s.Exec(`
		INSERT INTO messages (id, conversation_id, sender_id, content,
			attachment_url, attachment_kind, attachment_filename, attachment_size,
			created_at, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false)`,
		message.ID, message.ConversationID, message.SenderID, message.Text,
		attURL, attKind, attFilename, attSize,
		message.SentAt,
	)
	if err != nil {
		return nil, err
	}

	_, err = s.Exec("UPDATE conversations SET last_message_id = $1 WHERE id = $2",
		message.ID, conversationID)
	if err != nil {
		return nil, err
	}

	return message, nil
}

func (s *PostgresStore) ListMessages(conversationID uuid.UUID) ([]*models.Message, error) {
	rows, err := s.Query(
		"SELECT "+messageColumns+" FROM messages WHERE conversation_id = $1 ORDER BY created_at ASC",
		conversationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

func (s *PostgresStore) GetMessageByID(messageID uuid.UUID) (*models.Message, error) {
	row := s.QueryRow(
		"SELECT "+messageColumns+" FROM messages WHERE id = $1",
		messageID,
	)

	msg, err := scanMessage(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}

	return msg, nil
}

func (s *PostgresStore) UpdateMessageText(messageID, editorID uuid.UUID, text string) (*models.Message, error) {
	msg, err := s.GetMessageByID(messageID)
	if err != nil {
		return nil, err
	}

	if msg.Deleted {
		return nil, ErrMessageDeleted
	}
	if msg.SenderID != editorID {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	// The client already skips identical edits; a duplicate that slips
	// through is treated as success without touching edited_at.
	if msg.Text == text {
		return msg, nil
	}

	now := time.Now().UTC()
	_, err = s.Exec(
		"UPDATE messages SET content = $1, edited_at = $2 WHERE id = $3",
		text, now, messageID,
	)
	if err != nil {
		return nil, err
	}

	msg.Text = text
	msg.EditedAt = &now
	return msg, nil
}

func (s *PostgresStore) SoftDeleteMessage(messageID, editorID uuid.UUID) error {
	msg, err := s.GetMessageByID(messageID)
	if err != nil {
		return err
	}

	if msg.SenderID != editorID {
		return ErrForbidden
	}
	if msg.Deleted {
		return nil
	}

	_, err = s.Exec("UPDATE messages SET deleted = true WHERE id = $1", messageID)
	return err
}

func (s *PostgresStore) MarkMessageRead(messageID, readerID uuid.UUID) error {
	msg, err := s.GetMessageByID(messageID)
	if err != nil {
		return err
	}

	if msg.SenderID == readerID {
		return ErrForbidden
	}

	conv, err := s.GetConversationByID(msg.ConversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(readerID) {
		return ErrForbidden
	}

	// read_at is set once; a second mark is a no-op.
	_, err = s.Exec(
		"UPDATE messages SET read_at = $1, read_by = $2 WHERE id = $3 AND read_at IS NULL",
		time.Now().UTC(), readerID, messageID,
	)
	return err
}
