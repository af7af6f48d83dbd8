// Package auth owns the back-office session credential: login against the
// backend, local expiry checks, and claim decoding. The token is issued and
// validated by the backend; this side only stores it and reads the embedded
// claims, so parsing here is deliberately unverified.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/elpatio/backoffice/pkg/logger"
)

// ErrNotAuthenticated is returned when an operation requires a stored,
// unexpired token and none is available.
var ErrNotAuthenticated = errors.New("not authenticated")

// Claims are the backend-issued token claims the console relies on.
type Claims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"rol"`
	jwt.RegisteredClaims
}

// UserInfo is the locally-decoded identity of the session owner.
type UserInfo struct {
	ID    string
	Email string
	Role  string
}

// Session manages the single admin credential. At most one token is stored at
// a time; collaborators re-read it on every use instead of caching a copy so
// logout and refresh are observed on the next operation.
type Session struct {
	baseURL    string
	store      TokenStore
	httpClient *http.Client
	log        *logger.Logger

	mu            sync.Mutex
	logoutHooks   []func()
	clockSkewSlop time.Duration
}

// Config configures a Session.
type Config struct {
	BaseURL    string
	Store      TokenStore
	HTTPClient *http.Client
	Logger     *logger.Logger
}

// NewSession creates a session manager backed by the given token store.
func NewSession(cfg Config) (*Session, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}
	if cfg.Store == nil {
		cfg.Store = NewMemoryTokenStore()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewDefault("auth")
	}
	return &Session{
		baseURL:       strings.TrimSuffix(cfg.BaseURL, "/"),
		store:         cfg.Store,
		httpClient:    cfg.HTTPClient,
		log:           log,
		clockSkewSlop: 30 * time.Second,
	}, nil
}

// OnLogout registers a hook invoked whenever the session is cleared. The
// realtime manager registers here so logout tears the channel down without a
// package cycle.
func (s *Session) OnLogout(hook func()) {
	s.mu.Lock()
	s.logoutHooks = append(s.logoutHooks, hook)
	s.mu.Unlock()
}

// Token returns the stored bearer token, or "" when none is stored.
func (s *Session) Token() string {
	token, err := s.store.Load()
	if err != nil {
		return ""
	}
	return token
}

// IsAuthenticated reports whether a token is stored and its expiry claim has
// not passed. No network call is made. An expired or undecodable token is
// removed as a side effect. A token inside the clock-skew slop of its expiry
// counts as expired so an operation does not start with a dying credential.
func (s *Session) IsAuthenticated() bool {
	token := s.Token()
	if token == "" {
		return false
	}
	claims, err := decodeClaims(token)
	if err != nil {
		s.log.WithError(err).Warn("stored token is not decodable, clearing")
		s.store.Clear()
		return false
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now().Add(s.clockSkewSlop)) {
		s.store.Clear()
		return false
	}
	return true
}

// UserInfo decodes the identity claims from the stored token.
func (s *Session) UserInfo() (UserInfo, error) {
	token := s.Token()
	if token == "" {
		return UserInfo{}, ErrNotAuthenticated
	}
	claims, err := decodeClaims(token)
	if err != nil {
		return UserInfo{}, fmt.Errorf("decode token claims: %w", err)
	}
	return UserInfo{ID: claims.ID, Email: claims.Email, Role: claims.Role}, nil
}

// Login authenticates against the backend and stores the returned token.
func (s *Session) Login(ctx context.Context, email, password string) error {
	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return fmt.Errorf("marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/admin/login", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read login response: %w", err)
	}

	var decoded struct {
		Token   string `json:"token"`
		Message string `json:"mensaje"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil && resp.StatusCode < 400 {
		return fmt.Errorf("decode login response: %w", err)
	}

	if resp.StatusCode >= 400 {
		msg := decoded.Message
		if msg == "" {
			msg = fmt.Sprintf("login failed with status %d", resp.StatusCode)
		}
		return errors.New(msg)
	}
	if decoded.Token == "" {
		return errors.New("login response carried no token")
	}

	if err := s.store.Save(decoded.Token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	s.log.WithField("email", email).Info("session established")
	return nil
}

// Logout clears the stored token and runs the registered teardown hooks.
func (s *Session) Logout() {
	s.store.Clear()

	s.mu.Lock()
	hooks := make([]func(), len(s.logoutHooks))
	copy(hooks, s.logoutHooks)
	s.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}
	s.log.Info("session cleared")
}

// decodeClaims parses the token without signature verification. The backend
// is the only party that validates signatures; the client only needs the
// embedded expiry and identity claims.
func decodeClaims(token string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}
