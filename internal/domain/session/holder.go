package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Holder owns the signed-in session and its lifecycle.
type Holder struct {
	mu      sync.RWMutex
	current *Session
	auth    Authenticator
	store   Store
	logger  *slog.Logger
}

// NewHolder builds a signed-out holder. Call Restore to pick up a persisted
// session.
func NewHolder(auth Authenticator, store Store, logger *slog.Logger) *Holder {
	return &Holder{
		auth:   auth,
		store:  store,
		logger: logger.With("component", "session.holder"),
	}
}

// Restore loads the persisted session, if any.
func (h *Holder) Restore(ctx context.Context) error {
	s, found, err := h.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if !found || strings.TrimSpace(s.Email) == "" {
		return nil
	}
	h.set(&s)
	h.logger.Debug("session restored", "email", s.Email)
	return nil
}

// SignIn authenticates and persists the resulting session.
func (h *Holder) SignIn(ctx context.Context, email, password string) error {
	s, err := h.auth.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	return h.adopt(ctx, s)
}

// SignUp registers a new account and signs it in.
func (h *Holder) SignUp(ctx context.Context, email, password, deviceID string) error {
	s, err := h.auth.SignUp(ctx, email, password, deviceID)
	if err != nil {
		return err
	}
	return h.adopt(ctx, s)
}

// SignOut forgets the session locally. Server-side revocation is best effort.
func (h *Holder) SignOut(ctx context.Context) error {
	h.mu.Lock()
	prev := h.current
	h.current = nil
	h.mu.Unlock()

	if prev != nil && prev.Token != "" {
		if err := h.auth.SignOut(ctx, *prev); err != nil {
			h.logger.Warn("server sign out failed", "email", prev.Email, "error", err)
		}
	}
	if err := h.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// CurrentUser returns the signed-in session.
func (h *Holder) CurrentUser() (Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.current == nil {
		return Session{}, false
	}
	return *h.current, true
}

// Token returns the bearer token of the current session, or "".
func (h *Holder) Token() string {
	s, _ := h.CurrentUser()
	return s.Token
}

// adopt persists s before making it current, so a failed save leaves the
// holder signed out.
func (h *Holder) adopt(ctx context.Context, s Session) error {
	if err := h.store.Save(ctx, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	h.set(&s)
	return nil
}

func (h *Holder) set(s *Session) {
	h.mu.Lock()
	h.current = s
	h.mu.Unlock()
}

var _ Source = (*Holder)(nil)
