package identity

import (
	"context"
	"sync"
)

// Authenticator is the account API a Tracker drives. Both *Service and the
// backend proxy client satisfy it.
type Authenticator interface {
	Signup(ctx context.Context, email, password, displayName string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Logout(ctx context.Context, token string) error
}

// Tracker holds the signed-in user for one client and publishes every
// change to its observers.
type Tracker struct {
	auth Authenticator

	mu        sync.Mutex
	session   *Session
	observers map[int]func(*User)
	next      int
}

func NewTracker(auth Authenticator) *Tracker {
	return &Tracker{auth: auth, observers: make(map[int]func(*User))}
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (t *Tracker) CurrentUser() *User {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return nil
	}
	u := t.session.User
	return &u
}

// Token returns the current session token, or "" when signed out.
func (t *Tracker) Token() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return ""
	}
	return t.session.Token
}

// OnAuthStateChanged calls fn with the current user immediately and again
// after every signup, login and logout.
func (t *Tracker) OnAuthStateChanged(fn func(*User)) (unsubscribe func()) {
	t.mu.Lock()
	id := t.next
	t.next++
	t.observers[id] = fn
	t.mu.Unlock()

	fn(t.CurrentUser())

	return func() {
		t.mu.Lock()
		delete(t.observers, id)
		t.mu.Unlock()
	}
}

func (t *Tracker) Signup(ctx context.Context, email, password, displayName string) (*User, error) {
	s, err := t.auth.Signup(ctx, email, password, displayName)
	if err != nil {
		return nil, err
	}
	t.set(s)
	return t.CurrentUser(), nil
}

func (t *Tracker) Login(ctx context.Context, email, password string) (*User, error) {
	s, err := t.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	t.set(s)
	return t.CurrentUser(), nil
}

// Logout signs out locally even if revoking the token remotely fails.
func (t *Tracker) Logout(ctx context.Context) error {
	token := t.Token()
	if token == "" {
		return nil
	}
	err := t.auth.Logout(ctx, token)
	t.set(nil)
	return err
}

func (t *Tracker) set(s *Session) {
	t.mu.Lock()
	t.session = s
	var u *User
	if s != nil {
		cp := s.User
		u = &cp
	}
	observers := make([]func(*User), 0, len(t.observers))
	for _, fn := range t.observers {
		observers = append(observers, fn)
	}
	t.mu.Unlock()

	for _, fn := range observers {
		if u == nil {
			fn(nil)
			continue
		}
		cp := *u
		fn(&cp)
	}
}
