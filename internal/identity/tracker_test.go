package identity_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/vietnam-poi-finder/internal/identity"
)

type mockAuthenticator struct {
	signupFn func(ctx context.Context, email, password, displayName string) (*identity.Session, error)
	loginFn  func(ctx context.Context, email, password string) (*identity.Session, error)
	logoutFn func(ctx context.Context, token string) error
}

func (m *mockAuthenticator) Signup(ctx context.Context, email, password, displayName string) (*identity.Session, error) {
	return m.signupFn(ctx, email, password, displayName)
}
func (m *mockAuthenticator) Login(ctx context.Context, email, password string) (*identity.Session, error) {
	return m.loginFn(ctx, email, password)
}
func (m *mockAuthenticator) Logout(ctx context.Context, token string) error {
	return m.logoutFn(ctx, token)
}

func lanSession() *identity.Session {
	return &identity.Session{Token: "tok-1", User: identity.User{ID: "u-1", Email: "lan@example.com"}}
}

func TestTracker_PublishesAuthState(t *testing.T) {
	var loggedOut string
	auth := &mockAuthenticator{
		loginFn: func(context.Context, string, string) (*identity.Session, error) { return lanSession(), nil },
		logoutFn: func(_ context.Context, token string) error {
			loggedOut = token
			return nil
		},
	}
	tr := identity.NewTracker(auth)

	var seen []*identity.User
	unsubscribe := tr.OnAuthStateChanged(func(u *identity.User) { seen = append(seen, u) })
	defer unsubscribe()

	require.Len(t, seen, 1, "observer is called immediately")
	assert.Nil(t, seen[0])

	u, err := tr.Login(context.Background(), "lan@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, "tok-1", tr.Token())

	require.NoError(t, tr.Logout(context.Background()))
	assert.Equal(t, "tok-1", loggedOut)
	assert.Nil(t, tr.CurrentUser())
	assert.Empty(t, tr.Token())

	require.Len(t, seen, 3)
	require.NotNil(t, seen[1])
	assert.Equal(t, "lan@example.com", seen[1].Email)
	assert.Nil(t, seen[2])
}

func TestTracker_Signup(t *testing.T) {
	var gotName string
	auth := &mockAuthenticator{
		signupFn: func(_ context.Context, _, _, displayName string) (*identity.Session, error) {
			gotName = displayName
			s := lanSession()
			s.User.DisplayName = displayName
			return s, nil
		},
	}
	tr := identity.NewTracker(auth)

	u, err := tr.Signup(context.Background(), "lan@example.com", "secret1", "Lan")
	require.NoError(t, err)
	assert.Equal(t, "Lan", gotName)
	assert.Equal(t, "Lan", u.DisplayName)
	assert.Equal(t, "Lan", tr.CurrentUser().DisplayName)
}

func TestTracker_FailedLoginKeepsState(t *testing.T) {
	auth := &mockAuthenticator{
		loginFn: func(context.Context, string, string) (*identity.Session, error) {
			return nil, identity.ErrInvalidCredentials
		},
	}
	tr := identity.NewTracker(auth)

	calls := 0
	tr.OnAuthStateChanged(func(*identity.User) { calls++ })

	_, err := tr.Login(context.Background(), "lan@example.com", "bad")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	assert.Nil(t, tr.CurrentUser())
	assert.Equal(t, 1, calls)
}

func TestTracker_LogoutClearsLocallyOnRemoteError(t *testing.T) {
	auth := &mockAuthenticator{
		loginFn:  func(context.Context, string, string) (*identity.Session, error) { return lanSession(), nil },
		logoutFn: func(context.Context, string) error { return fmt.Errorf("network down") },
	}
	tr := identity.NewTracker(auth)

	_, err := tr.Login(context.Background(), "lan@example.com", "secret1")
	require.NoError(t, err)

	err = tr.Logout(context.Background())
	require.Error(t, err)
	assert.Nil(t, tr.CurrentUser())
}

func TestTracker_LogoutWhenSignedOutIsNoOp(t *testing.T) {
	tr := identity.NewTracker(&mockAuthenticator{})
	assert.NoError(t, tr.Logout(context.Background()))
}

func TestTracker_Unsubscribe(t *testing.T) {
	auth := &mockAuthenticator{
		loginFn: func(context.Context, string, string) (*identity.Session, error) { return lanSession(), nil },
	}
	tr := identity.NewTracker(auth)

	calls := 0
	unsubscribe := tr.OnAuthStateChanged(func(*identity.User) { calls++ })
	unsubscribe()

	_, err := tr.Login(context.Background(), "lan@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
