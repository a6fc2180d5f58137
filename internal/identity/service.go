// Package identity registers users, signs them in and answers who is behind a token.
package identity

import (
	"context"
	"strings"
	"time"

	"github.com/Queneri/catalogotefi/internal/model"
	"github.com/Queneri/catalogotefi/pkg/jwtutil"
	"github.com/Queneri/catalogotefi/prometheus"

	"github.com/asaskevich/EventBus"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmailTaken is returned when registering an email that already has an account
	ErrEmailTaken = errors.New("email already registered")
	// ErrUserNotFound is returned by repositories for an unknown user
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned for an unknown email or a wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNoSession is returned when a token does not map to an active session
	ErrNoSession = errors.New("no active session")
)

// ChangeTopic is the bus topic identity changes are published on
const ChangeTopic = "identity:change"

// ChangeKind tells whether a session started or ended
type ChangeKind string

const (
	SignedIn  ChangeKind = "signed_in"
	SignedOut ChangeKind = "signed_out"
)

// Identity is the user behind an active session
type Identity struct {
	UserID    uint      `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role,omitempty"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsAdmin reports whether the identity may mutate the catalog
func (i Identity) IsAdmin() bool {
	return i.Role == model.RoleAdmin
}

// Change is published when a user signs in or out
type Change struct {
	Kind     ChangeKind
	Identity Identity
}

// Credentials is the register and login payload
type Credentials struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=100,password_strength"`
}

// Service implements registration, login, logout and session lookup
type Service struct {
	repo        Repository
	tokens      *jwtutil.JWTUtil
	bus         EventBus.Bus
	adminEmails map[string]bool
	cost        int
	now         func() time.Time
}

// NewService creates an identity service. Emails in adminEmails receive the
// admin role when they register.
func NewService(repo Repository, tokens *jwtutil.JWTUtil, bus EventBus.Bus, adminEmails ...string) *Service {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		admins[normalizeEmail(e)] = true
	}
	return &Service{
		repo:        repo,
		tokens:      tokens,
		bus:         bus,
		adminEmails: admins,
		cost:        bcrypt.DefaultCost,
		now:         time.Now,
	}
}

// Register creates an account
func (s *Service) Register(ctx context.Context, in Credentials) (model.User, error) {
	prometheus.RecordAuthAttempt("register")

	in.Email = normalizeEmail(in.Email)
	if err := model.Validator().Struct(in); err != nil {
		prometheus.RecordAuthError("invalid_registration")
		return model.User{}, model.Translate(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		prometheus.RecordAuthError("password_hash_failed")
		return model.User{}, errors.Wrap(err, "hash password")
	}

	var roles []string
	if s.adminEmails[in.Email] {
		roles = append(roles, model.RoleAdmin)
	}
	user := model.User{Email: in.Email, Password: string(hash)}
	if err := s.repo.CreateUser(ctx, &user, roles...); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			prometheus.RecordAuthError("email_already_exists")
		}
		return model.User{}, err
	}
	return user, nil
}

// Login checks the credentials and opens a session. It returns the signed
// token that identifies the session.
func (s *Service) Login(ctx context.Context, in Credentials) (string, Identity, error) {
	prometheus.RecordAuthAttempt("login")

	user, err := s.repo.FindUserByEmail(ctx, normalizeEmail(in.Email))
	if errors.Is(err, ErrUserNotFound) {
		prometheus.RecordAuthError("user_not_found")
		return "", Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", Identity{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		prometheus.RecordAuthError("invalid_password")
		return "", Identity{}, ErrInvalidCredentials
	}

	role, err := s.role(ctx, user.ID)
	if err != nil {
		return "", Identity{}, err
	}

	now := s.now()
	session := model.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.tokens.TTL()),
		CreatedAt: now,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return "", Identity{}, err
	}

	token, err := s.tokens.GenerateToken(user.Email, user.ID, session.ID, role)
	if err != nil {
		prometheus.RecordAuthError("token_generation_failed")
		return "", Identity{}, errors.Wrap(err, "sign token")
	}

	id := Identity{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      role,
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt,
	}
	s.publish(SignedIn, id)
	return token, id, nil
}

// Session resolves token to the identity of its still active session. The
// role is read again so revoked grants take effect before the token expires.
func (s *Service) Session(ctx context.Context, token string) (Identity, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		prometheus.RecordAuthError("invalid_token")
		return Identity{}, ErrNoSession
	}

	session, err := s.repo.FindSession(ctx, claims.SessionID)
	if err != nil {
		return Identity{}, err
	}
	if !session.Active(s.now()) || session.UserID != claims.UserID {
		prometheus.RecordAuthError("inactive_session")
		return Identity{}, ErrNoSession
	}

	role, err := s.role(ctx, claims.UserID)
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Role:      role,
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// Logout revokes the session behind token
func (s *Service) Logout(ctx context.Context, token string) error {
	id, err := s.Session(ctx, token)
	if err != nil {
		return err
	}
	if err := s.repo.RevokeSession(ctx, id.SessionID, s.now()); err != nil {
		return err
	}
	s.publish(SignedOut, id)
	return nil
}

// HasRole reports whether the user holds role
func (s *Service) HasRole(ctx context.Context, userID uint, role string) (bool, error) {
	return s.repo.HasRole(ctx, userID, role)
}

// GrantRole gives role to the user
func (s *Service) GrantRole(ctx context.Context, userID uint, role string) error {
	return s.repo.GrantRole(ctx, userID, role)
}

// OnIdentityChange registers fn for sign in and sign out events
func (s *Service) OnIdentityChange(fn func(Change)) error {
	return s.bus.Subscribe(ChangeTopic, fn)
}

func (s *Service) role(ctx context.Context, userID uint) (string, error) {
	admin, err := s.repo.HasRole(ctx, userID, model.RoleAdmin)
	if err != nil {
		return "", err
	}
	if admin {
		return model.RoleAdmin, nil
	}
	return "", nil
}

func (s *Service) publish(kind ChangeKind, id Identity) {
	if s.bus != nil {
		s.bus.Publish(ChangeTopic, Change{Kind: kind, Identity: id})
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
