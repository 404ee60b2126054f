package session

import (
	"context"
	"errors"
)

// ErrNotSignedIn is returned by operations that need a signed-in user.
var ErrNotSignedIn = errors.New("not signed in")

// Session is the signed-in identity. The token is opaque to the client.
type Session struct {
	Email string `json:"email"`
	ID    string `json:"id,omitempty"`
	Token string `json:"token,omitempty"`
}

// Source gives synchronous access to the signed-in user.
type Source interface {
	CurrentUser() (Session, bool)
}

// Authenticator talks to the signup/signin backend.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignUp(ctx context.Context, email, password, deviceID string) (Session, error)
	SignOut(ctx context.Context, s Session) error
}

// Store persists the session between runs.
type Store interface {
	Load(ctx context.Context) (Session, bool, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}
