package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/murmurchat/murmur/internal/models"
)

func staticToken(t string) TokenFunc {
	return func() string { return t }
}

func TestListConversations(t *testing.T) {
	t.Run("Decodes the conversation list", func(t *testing.T) {
		convID := uuid.New()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/chat", r.URL.Path)
			assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

			json.NewEncoder(w).Encode([]models.Conversation{
				{ID: convID, ParticipantA: uuid.New(), ParticipantB: uuid.New(), CreatedAt: time.Now()},
			})
		}))
		defer server.Close()

		gateway := NewGateway(server.URL, staticToken("token-1"))
		conversations, err := gateway.ListConversations(context.Background())

		assert.NoError(t, err)
		assert.Len(t, conversations, 1)
		assert.Equal(t, convID, conversations[0].ID)
	})

	t.Run("Non-2xx normalizes to the generic failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"message": "pq: connection refused"}`))
		}))
		defer server.Close()

		gateway := NewGateway(server.URL, staticToken("token-1"))
		_, err := gateway.ListConversations(context.Background())

		var apiErr *APIError
		assert.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "Failed to fetch conversations", apiErr.Message)
	})

	t.Run("Network failure normalizes to the same shape", func(t *testing.T) {
		gateway := NewGateway("http://127.0.0.1:1", staticToken("token-1"))

		_, err := gateway.ListConversations(context.Background())

		var apiErr *APIError
		assert.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "Failed to fetch conversations", apiErr.Message)
	})
}

func TestGetOrCreateConversation(t *testing.T) {
	otherID := uuid.New()
	convID := uuid.New()
	calls := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/api/chat/user/"+otherID.String(), r.URL.Path)
		json.NewEncoder(w).Encode(models.Conversation{ID: convID})
	}))
	defer server.Close()

	gateway := NewGateway(server.URL, staticToken("token-1"))

	// Idempotence: the same pair yields the same conversation id.
	first, err := gateway.GetOrCreateConversation(context.Background(), otherID)
	assert.NoError(t, err)
	second, err := gateway.GetOrCreateConversation(context.Background(), otherID)
	assert.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, calls)
}

func TestListMessages(t *testing.T) {
	convID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/conversations/"+convID.String()+"/messages", r.URL.Path)
		json.NewEncoder(w).Encode([]models.Message{
			{ID: uuid.New(), ConversationID: convID, Text: "first"},
			{ID: uuid.New(), ConversationID: convID, Text: "second"},
		})
	}))
	defer server.Close()

	gateway := NewGateway(server.URL, staticToken("token-1"))
	messages, err := gateway.ListMessages(context.Background(), convID)

	assert.NoError(t, err)
	assert.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Text)
}

func TestAuthGateway(t *testing.T) {
	user := models.UserResponse{ID: uuid.New(), Username: "alice", Email: "alice@example.com"}

	t.Run("Check returns the token's user", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/auth/check", r.URL.Path)
			assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(user)
		}))
		defer server.Close()

		got, err := NewAuthGateway(server.URL).Check(context.Background(), "token-1")
		assert.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("Login returns credentials", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/auth/login", r.URL.Path)

			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "alice@example.com", body["email"])

			json.NewEncoder(w).Encode(map[string]interface{}{"token": "token-1", "user": user})
		}))
		defer server.Close()

		creds, err := NewAuthGateway(server.URL).Login(context.Background(), "alice@example.com", "password123")
		assert.NoError(t, err)
		assert.Equal(t, "token-1", creds.Token)
		assert.Equal(t, user.Username, creds.User.Username)
	})

	t.Run("Register chains into login", func(t *testing.T) {
		var paths []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.URL.Path)
			if r.URL.Path == "/api/auth/register" {
				w.WriteHeader(http.StatusCreated)
				json.NewEncoder(w).Encode(user)
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"token": "token-1", "user": user})
		}))
		defer server.Close()

		creds, err := NewAuthGateway(server.URL).Register(context.Background(), "alice", "alice@example.com", "password123")
		assert.NoError(t, err)
		assert.Equal(t, "token-1", creds.Token)
		assert.Equal(t, []string{"/api/auth/register", "/api/auth/login"}, paths)
	})

	t.Run("Failed login normalizes to APIError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message": "Invalid credentials"}`))
		}))
		defer server.Close()

		_, err := NewAuthGateway(server.URL).Login(context.Background(), "alice@example.com", "wrong")

		var apiErr *APIError
		assert.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "Login failed", apiErr.Message)
	})
}
