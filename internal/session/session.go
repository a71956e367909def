// Package session tracks the authenticated identity for this client
// instance and orchestrates register/login/load-user/logout against the
// remote API. The store is injectable: every dependent takes a *Store
// instead of reading ambient globals, so it can be tested in isolation.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"devconnect/internal/alerts"
	"devconnect/internal/api"
	"devconnect/internal/database"
	"devconnect/internal/models"
)

// ErrMissingCredentials means LoadUser was called with no persisted
// token/userId. No network call is made in that case.
var ErrMissingCredentials = errors.New("session: no stored credentials")

// authResponse is the wire shape of the register and login endpoints.
type authResponse struct {
	Token string      `json:"token"`
	Data  models.User `json:"data"`
}

// Store is the session state machine. States: anonymous (loading at
// boot), authenticating, authenticated, anonymous.
//
// Invariant: IsAuthenticated is never true while User is nil, except
// transiently while an auth call is in flight.
type Store struct {
	client *api.Client
	creds  *database.CredentialRepository
	alerts *alerts.Queue
	logger *slog.Logger

	mu    sync.Mutex
	state models.Session
	group singleflight.Group

	resetHooks []func()
}

// NewStore creates the session store and primes it from the credential
// store. A malformed credential pair (token without userId or vice
// versa) is cleared rather than carried into a half-authenticated state.
func NewStore(client *api.Client, creds *database.CredentialRepository, queue *alerts.Queue, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		client: client,
		creds:  creds,
		alerts: queue,
		logger: logger,
		state:  models.Session{Loading: true},
	}

	token, userID, err := creds.Load()
	if errors.Is(err, database.ErrMalformed) {
		logger.Warn("clearing malformed stored credentials")
		if clearErr := creds.Clear(); clearErr != nil {
			return nil, fmt.Errorf("failed to clear malformed credentials: %w", clearErr)
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load stored credentials: %w", err)
	}

	s.state.Token = token
	s.state.UserID = userID
	return s, nil
}

// OnReset registers a hook fired whenever the session identity changes
// or ends: after a successful login and on logout. The profile cache
// hangs its clear here so a prior session's profile cannot leak into
// the next one.
func (s *Store) OnReset(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetHooks = append(s.resetHooks, fn)
}

func (s *Store) fireReset() {
	s.mu.Lock()
	hooks := make([]func(), len(s.resetHooks))
	copy(hooks, s.resetHooks)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// Snapshot returns a copy of the current session state.
func (s *Store) Snapshot() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns the current user, or nil when anonymous.
func (s *Store) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.User
}

// Register creates a new account. On success the token and user id are
// persisted and the session becomes authenticated.
func (s *Store) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	user, err := s.authenticate(ctx, "/register", body)
	if err != nil {
		s.notifyAuthFailure(err, "Registration failed")
		return nil, err
	}
	s.alerts.Show("Registration successful", models.AlertSuccess)
	return user, nil
}

// Login authenticates an existing account. On success any cached state
// from a previous session is reset before dependents refetch.
func (s *Store) Login(ctx context.Context, email, password string) (*models.User, error) {
	body := map[string]string{"email": email, "password": password}
	user, err := s.authenticate(ctx, "/login", body)
	if err != nil {
		s.notifyAuthFailure(err, "Login failed")
		return nil, err
	}
	s.fireReset()
	s.alerts.Show("Login successful", models.AlertSuccess)
	return user, nil
}

// authenticate runs one register/login call and applies the resulting
// state transition.
func (s *Store) authenticate(ctx context.Context, path string, body map[string]string) (*models.User, error) {
	s.mu.Lock()
	s.state.Loading = true
	s.mu.Unlock()

	var resp authResponse
	err := s.client.Post(ctx, path, body, &resp)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.state = models.Session{}
		if clearErr := s.creds.Clear(); clearErr != nil {
			s.logger.Warn("failed to clear credentials", "error", clearErr)
		}
		return nil, err
	}

	if err := s.creds.Save(resp.Token, resp.Data.ID); err != nil {
		s.state = models.Session{}
		return nil, fmt.Errorf("failed to persist credentials: %w", err)
	}

	user := resp.Data
	s.state = models.Session{
		Token:           resp.Token,
		UserID:          user.ID,
		User:            &user,
		IsAuthenticated: true,
	}
	return &user, nil
}

// LoadUser fetches the current user record for the persisted session.
// Without persisted credentials it fails locally; with a matching user
// already in memory it short-circuits. Concurrent calls share one fetch.
func (s *Store) LoadUser(ctx context.Context) (*models.User, error) {
	s.mu.Lock()
	token, userID := s.state.Token, s.state.UserID
	if token == "" || userID == "" {
		s.state.Loading = false
		s.mu.Unlock()
		return nil, ErrMissingCredentials
	}
	if s.state.User != nil && s.state.User.ID == userID {
		user := s.state.User
		s.mu.Unlock()
		return user, nil
	}
	s.mu.Unlock()

	result, err, _ := s.group.Do("loadUser", func() (any, error) {
		var user models.User
		if err := s.client.Get(ctx, "/user/"+userID, &user); err != nil {
			return nil, err
		}
		return &user, nil
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		// Token is expired or otherwise unusable; drop it so the next
		// boot starts cleanly anonymous.
		if clearErr := s.creds.Clear(); clearErr != nil {
			s.logger.Warn("failed to clear credentials", "error", clearErr)
		}
		s.state = models.Session{}
		return nil, err
	}

	user := result.(*models.User)
	s.state.User = user
	s.state.IsAuthenticated = true
	s.state.Loading = false
	return user, nil
}

// Logout clears the session locally. No server call is made; the token
// is simply discarded on this side.
func (s *Store) Logout() {
	s.mu.Lock()
	if err := s.creds.Clear(); err != nil {
		s.logger.Warn("failed to clear credentials", "error", err)
	}
	s.state = models.Session{}
	s.mu.Unlock()

	s.fireReset()
}

// notifyAuthFailure surfaces an auth error: one alert per validation
// message when the server returned a structured list, else one generic.
func (s *Store) notifyAuthFailure(err error, fallback string) {
	for _, msg := range api.Messages(err, fallback) {
		s.alerts.Show(msg, models.AlertDanger)
	}
}
