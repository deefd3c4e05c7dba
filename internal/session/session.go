package session

import (
	"context"
	"sync"

	"github.com/murmurchat/murmur/internal/logger"
	"github.com/murmurchat/murmur/internal/models"
)

var log = logger.New("session")

// State is where the session holder is in its lifecycle.
type State string

const (
	StateLoading       State = "loading"
	StateAuthenticated State = "authenticated"
	StateAnonymous     State = "anonymous"
)

// Credentials is what the holder persists between sessions.
type Credentials struct {
	Token string              `json:"token"`
	User  models.UserResponse `json:"user"`
}

// CredentialStore is the injected persistence for credentials. Browser
// targets back it with local storage; tests and CLIs use anything with
// get/set/clear.
type CredentialStore interface {
	Get() (Credentials, bool)
	Set(Credentials) error
	Clear() error
}

// AuthAPI is the server surface the holder drives.
type AuthAPI interface {
	Check(ctx context.Context, token string) (models.UserResponse, error)
	Login(ctx context.Context, email, password string) (Credentials, error)
	Register(ctx context.Context, username, email, password string) (Credentials, error)
	Logout(ctx context.Context, token string) error
}

// Holder caches the current user and token for the lifetime of a client
// session. It starts in the loading state and settles into authenticated
// or anonymous after Initialize.
type Holder struct {
	mu    sync.Mutex
	state State
	creds Credentials

	store CredentialStore
	api   AuthAPI

	initOnce sync.Once
}

// NewHolder builds a holder in the loading state.
func NewHolder(store CredentialStore, api AuthAPI) *Holder {
	return &Holder{state: StateLoading, store: store, api: api}
}

// Initialize resolves the initial state from persisted credentials. It
// runs the verification at most once per holder; later calls are no-ops.
func (h *Holder) Initialize(ctx context.Context) {
	h.initOnce.Do(func() {
		creds, ok := h.store.Get()
		if !ok {
			h.transition(StateAnonymous, Credentials{})
			return
		}

		user, err := h.api.Check(ctx, creds.Token)
		if err != nil {
			// Any verification failure purges stale credentials.
			if clearErr := h.store.Clear(); clearErr != nil {
				log.Warn("Failed to clear credentials: %v", clearErr)
			}
			h.transition(StateAnonymous, Credentials{})
			return
		}

		creds.User = user
		if err := h.store.Set(creds); err != nil {
			log.Warn("Failed to persist refreshed credentials: %v", err)
		}
		h.transition(StateAuthenticated, creds)
	})
}

// Login authenticates and persists the session. On failure the error
// propagates and the holder keeps whatever state it had.
func (h *Holder) Login(ctx context.Context, email, password string) error {
	creds, err := h.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return h.adopt(creds)
}

// Register creates an account and enters the authenticated state. Same
// failure semantics as Login.
func (h *Holder) Register(ctx context.Context, username, email, password string) error {
	creds, err := h.api.Register(ctx, username, email, password)
	if err != nil {
		return err
	}
	return h.adopt(creds)
}

func (h *Holder) adopt(creds Credentials) error {
	// Overlapping logins are not deduplicated; the last write wins.
	if err := h.store.Set(creds); err != nil {
		log.Warn("Failed to persist credentials: %v", err)
	}
	h.transition(StateAuthenticated, creds)
	return nil
}

// Logout purges local credentials and goes anonymous unconditionally.
// The server call is fire-and-forget; its failure never blocks the
// local transition.
func (h *Holder) Logout(ctx context.Context) {
	h.mu.Lock()
	token := h.creds.Token
	h.mu.Unlock()

	if err := h.store.Clear(); err != nil {
		log.Warn("Failed to clear credentials: %v", err)
	}
	h.transition(StateAnonymous, Credentials{})

	if token == "" {
		return
	}
	go func() {
		if err := h.api.Logout(context.WithoutCancel(ctx), token); err != nil {
			log.Warn("Server logout failed: %v", err)
		}
	}()
}

func (h *Holder) transition(state State, creds Credentials) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = state
	h.creds = creds
}

// State returns the holder's current state.
func (h *Holder) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// CurrentUser returns the authenticated user, if any.
func (h *Holder) CurrentUser() (models.UserResponse, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.creds.User, h.state == StateAuthenticated
}

// Token returns the bearer token, empty when anonymous.
func (h *Holder) Token() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.creds.Token
}
