package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// TokenTTL is how long a session token stays valid.
	TokenTTL = 24 * time.Hour
	// ResetTTL is how long a password reset token stays valid.
	ResetTTL = time.Hour
)

// UserStore persists accounts and password reset tokens.
// *storage.Repository satisfies this interface.
type UserStore interface {
	CreateUser(ctx context.Context, u User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	UpdatePassword(ctx context.Context, userID, hash string) error
	CreatePasswordReset(ctx context.Context, token, userID string, expiresAt time.Time) error
	ConsumePasswordReset(ctx context.Context, token string) (string, error)
}

// Revoker records logged-out token IDs until they would have expired.
// *cache.Cache satisfies this interface.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Mailer delivers password reset tokens.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Service implements signup, login, logout and password reset.
type Service struct {
	users    UserStore
	revoker  Revoker
	mailer   Mailer
	secret   []byte
	validate *validator.Validate
	now      func() time.Time
	log      *slog.Logger
}

// NewService constructs a Service signing tokens with secret.
func NewService(users UserStore, revoker Revoker, mailer Mailer, secret string, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		revoker:  revoker,
		mailer:   mailer,
		secret:   []byte(secret),
		validate: validator.New(),
		now:      time.Now,
		log:      log,
	}
}

func (s *Service) normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func hashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Signup creates an account and returns a session for it.
func (s *Service) Signup(ctx context.Context, email, password, displayName string) (*Session, error) {
	email, err := s.normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	existing, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("checking existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	now := s.now().UTC()
	u := User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.log.Info("user signed up", "user_id", u.ID)
	return s.issue(u)
}

// Login checks credentials and returns a new session. Unknown emails and
// wrong passwords both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email, err := s.normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.log.Info("user logged in", "user_id", u.ID)
	return s.issue(*u)
}

func (s *Service) issue(u User) (*Session, error) {
	now := s.now()
	exp := now.Add(TokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	return &Session{Token: signed, ExpiresAt: exp.UTC().Truncate(time.Second), User: u}, nil
}

func (s *Service) parse(token string) (*claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Subject == "" || c.ID == "" {
		return nil, ErrInvalidToken
	}
	return &c, nil
}

// Verify returns the user a token belongs to. Expired, revoked or malformed
// tokens return ErrInvalidToken.
func (s *Service) Verify(ctx context.Context, token string) (*User, error) {
	c, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revoker.IsRevoked(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("checking token revocation: %w", err)
	}
	if revoked {
		return nil, ErrInvalidToken
	}

	u, err := s.users.GetUserByID(ctx, c.Subject)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if u == nil {
		return nil, ErrInvalidToken
	}
	return u, nil
}

// Logout revokes token until its expiry.
func (s *Service) Logout(ctx context.Context, token string) error {
	c, err := s.parse(token)
	if err != nil {
		return err
	}

	if err := s.revoker.Revoke(ctx, c.ID, c.ExpiresAt.Time); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	s.log.Info("user logged out", "user_id", c.Subject)
	return nil
}

// ResetPassword sends a reset token to email if an account exists. It returns
// nil for unknown emails so callers cannot enumerate accounts.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	email, err := s.normalizeEmail(email)
	if err != nil {
		return err
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("loading user: %w", err)
	}
	if u == nil {
		s.log.Info("password reset requested for unknown email")
		return nil
	}

	token := uuid.NewString()
	if err := s.users.CreatePasswordReset(ctx, token, u.ID, s.now().Add(ResetTTL)); err != nil {
		return fmt.Errorf("storing reset token: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, u.Email, token); err != nil {
		return fmt.Errorf("sending reset email: %w", err)
	}
	return nil
}

// ConfirmReset sets a new password using a token from ResetPassword.
func (s *Service) ConfirmReset(ctx context.Context, token, newPassword string) error {
	if _, err := uuid.Parse(token); err != nil {
		return ErrResetTokenInvalid
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	userID, err := s.users.ConsumePasswordReset(ctx, token)
	if err != nil {
		return fmt.Errorf("consuming reset token: %w", err)
	}
	if userID == "" {
		return ErrResetTokenInvalid
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	s.log.Info("password reset", "user_id", userID)
	return nil
}
