package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Farizu224/vending-machine-web/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrNoToken means the auth call looked successful but no bearer token
	// could be extracted from the response. Treated as a failed login rather
	// than silently staying unauthenticated.
	ErrNoToken = errors.New("auth response contained no token")

	// ErrMissingCredentials is returned before any network call when the
	// form is incomplete.
	ErrMissingCredentials = errors.New("email and password are required")
)

// tokenFields is the priority order probed when extracting the bearer token
// from an auth response. Backends have shipped all three shapes.
var tokenFields = []string{"access_token", "accessToken", "token"}

// AuthClient is the slice of the remote API the manager needs. Responses are
// raw maps because the token and user payload appear under varying shapes.
type AuthClient interface {
	Login(ctx context.Context, email, password string) (map[string]interface{}, error)
	Register(ctx context.Context, req domain.RegisterRequest) (map[string]interface{}, error)
}

// Manager caches the authenticated session: the in-memory user plus the
// durable token/profile pair. Pure state transitions live here; storage I/O
// goes through the CredentialStore.
type Manager struct {
	mu    sync.RWMutex
	api   AuthClient
	store CredentialStore
	log   *zap.Logger

	user  *domain.User
	token string
}

// NewManager creates a manager over the given store. Call Hydrate to pick up
// a session persisted by a previous run.
func NewManager(api AuthClient, store CredentialStore, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{api: api, store: store, log: log}
}

// Hydrate loads any persisted session into memory. A corrupt profile clears
// the store instead of leaving a half-usable session behind.
func (m *Manager) Hydrate() {
	token, raw, err := m.store.Load()
	if err != nil {
		if !errors.Is(err, ErrNoCredentials) {
			m.log.Warn("credential store read failed", zap.Error(err))
		}
		return
	}

	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		m.log.Warn("stored profile unreadable, clearing session", zap.Error(err))
		_ = m.store.Clear()
		return
	}

	m.mu.Lock()
	m.user = &user
	m.token = token
	m.mu.Unlock()
}

// Login authenticates against the backend, persists the extracted token and
// profile together, and updates in-memory state. A response without an
// extractable token fails with ErrNoToken and leaves the manager
// unauthenticated.
func (m *Manager) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	body, err := m.api.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return m.adopt(body)
}

// Register creates an account and behaves like an implicit login on success.
func (m *Manager) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	if req.Email == "" || req.Password == "" {
		return nil, ErrMissingCredentials
	}

	body, err := m.api.Register(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return m.adopt(body)
}

// adopt folds a successful auth response into durable and in-memory state.
func (m *Manager) adopt(body map[string]interface{}) (*domain.User, error) {
	token, user, err := extractSession(body)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("serialize profile: %w", err)
	}
	if err := m.store.Save(token, raw); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	m.mu.Lock()
	m.user = &user
	m.token = token
	m.mu.Unlock()

	out := user
	return &out, nil
}

// Logout clears persisted storage and in-memory state unconditionally.
func (m *Manager) Logout() {
	if err := m.store.Clear(); err != nil {
		m.log.Warn("credential store clear failed", zap.Error(err))
	}
	m.mu.Lock()
	m.user = nil
	m.token = ""
	m.mu.Unlock()
}

// IsAuthenticated reports whether a user is set in memory AND the persisted
// token still exists. The double check defends against the store being
// cleared externally; a JWT past its expiry also counts as logged out.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	user := m.user
	m.mu.RUnlock()
	if user == nil {
		return false
	}

	token, _, err := m.store.Load()
	if err != nil || token == "" {
		return false
	}
	return !tokenExpired(token)
}

// User returns the in-memory profile, nil when unauthenticated.
func (m *Manager) User() *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Token returns the cached bearer token, empty when unauthenticated. Used as
// the API client's token source.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// extractSession normalizes the variant auth response shapes: the token is
// probed under tokenFields in order, and the user payload is either the
// nested "user" field or the response body itself minus the token fields.
func extractSession(body map[string]interface{}) (string, domain.User, error) {
	var token string
	for _, field := range tokenFields {
		if v, ok := body[field]; ok {
			if t := cast.ToString(v); t != "" {
				token = t
				break
			}
		}
	}
	if token == "" {
		return "", domain.User{}, ErrNoToken
	}

	payload, ok := body["user"].(map[string]interface{})
	if !ok {
		payload = make(map[string]interface{}, len(body))
		for k, v := range body {
			payload[k] = v
		}
		for _, field := range tokenFields {
			delete(payload, field)
		}
	}

	user := domain.User{
		Name:  cast.ToString(payload["name"]),
		Email: cast.ToString(payload["email"]),
		Phone: cast.ToString(payload["phone"]),
	}
	return token, user, nil
}

// tokenExpired inspects a JWT's exp claim without verifying the signature;
// the backend is the authority, this only avoids retrying a token that is
// already dead. Opaque non-JWT tokens never count as expired here.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
