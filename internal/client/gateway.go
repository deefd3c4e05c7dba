// Package client is the HTTP gateway the platform's front ends use to
// talk to the chat API. Every operation is a single round trip, and all
// failures — transport or non-2xx — are normalized to an APIError so
// callers never branch on transport specifics.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/murmurchat/murmur/internal/models"
	"github.com/murmurchat/murmur/internal/session"
)

// APIError is the uniform failure shape surfaced to callers.
type APIError struct {
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// TokenFunc supplies the current bearer token, empty when anonymous.
type TokenFunc func() string

// Gateway is a thin client over the chat REST surface.
type Gateway struct {
	baseURL    string
	token      TokenFunc
	httpClient *http.Client
}

// NewGateway builds a gateway for the API at baseURL.
func NewGateway(baseURL string, token TokenFunc) *Gateway {
	return &Gateway{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// do performs one round trip and decodes a 2xx response into out. Any
// other outcome becomes an APIError carrying failMsg.
func (g *Gateway) do(ctx context.Context, method, path string, body, out interface{}, failMsg string) error {
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &APIError{Message: failMsg}
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return &APIError{Message: failMsg}
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != nil {
		if t := g.token(); t != "" {
			req.Header.Set("Authorization", "Bearer "+t)
		}
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return &APIError{Message: failMsg}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Message: failMsg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Message: failMsg}
	}
	return nil
}

// ListConversations fetches the caller's conversations in the server's
// order, most recent activity first.
func (g *Gateway) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := g.do(ctx, http.MethodGet, "/api/chat", nil, &conversations, "Failed to fetch conversations")
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

// GetOrCreateConversation returns the conversation with the given user,
// creating it on first contact. Idempotent on the participant pair.
func (g *Gateway) GetOrCreateConversation(ctx context.Context, otherParticipantID uuid.UUID) (models.Conversation, error) {
	var conversation models.Conversation
	path := fmt.Sprintf("/api/chat/user/%s", otherParticipantID)
	err := g.do(ctx, http.MethodGet, path, nil, &conversation, "Failed to fetch conversation")
	if err != nil {
		return models.Conversation{}, err
	}
	return conversation, nil
}

// ListMessages fetches a conversation's messages, oldest first.
func (g *Gateway) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	path := fmt.Sprintf("/api/chat/conversations/%s/messages", conversationID)
	err := g.do(ctx, http.MethodGet, path, nil, &messages, "Failed to fetch messages")
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// AuthGateway adapts the auth endpoints to the session holder's AuthAPI.
type AuthGateway struct {
	g *Gateway
}

// NewAuthGateway builds the auth client for the API at baseURL.
func NewAuthGateway(baseURL string) *AuthGateway {
	return &AuthGateway{g: NewGateway(baseURL, nil)}
}

type loginResponse struct {
	Token string              `json:"token"`
	User  models.UserResponse `json:"user"`
}

// Check verifies a bearer token and returns the user it belongs to.
func (a *AuthGateway) Check(ctx context.Context, token string) (models.UserResponse, error) {
	g := NewGateway(a.g.baseURL, func() string { return token })
	var user models.UserResponse
	if err := g.do(ctx, http.MethodPost, "/api/auth/check", nil, &user, "Session check failed"); err != nil {
		return models.UserResponse{}, err
	}
	return user, nil
}

// Login exchanges credentials for a token and user.
func (a *AuthGateway) Login(ctx context.Context, email, password string) (session.Credentials, error) {
	body := map[string]string{"email": email, "password": password}
	var resp loginResponse
	if err := a.g.do(ctx, http.MethodPost, "/api/auth/login", body, &resp, "Login failed"); err != nil {
		return session.Credentials{}, err
	}
	return session.Credentials{Token: resp.Token, User: resp.User}, nil
}

// Register creates the account and then logs in, so the caller ends up
// with a usable token in one command.
func (a *AuthGateway) Register(ctx context.Context, username, email, password string) (session.Credentials, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	if err := a.g.do(ctx, http.MethodPost, "/api/auth/register", body, nil, "Registration failed"); err != nil {
		return session.Credentials{}, err
	}
	return a.Login(ctx, email, password)
}

// Logout tells the server the session ended. Callers treat this as
// fire-and-forget.
func (a *AuthGateway) Logout(ctx context.Context, token string) error {
	g := NewGateway(a.g.baseURL, func() string { return token })
	return g.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, "Logout failed")
}
