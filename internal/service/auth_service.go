package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/roadside-assist/internal/model"
	"github.com/iliyamo/roadside-assist/internal/repository"
	"github.com/iliyamo/roadside-assist/internal/utils"
)

// PasswordHasher is satisfied by utils.PasswordHasher.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

// TokenIssuer is satisfied by *utils.TokenIssuer.
type TokenIssuer interface {
	Issue(userID int64, role string) (utils.AccessToken, error)
}

// AuthService handles signup and signin by phone number.
type AuthService struct {
	users       UserStore
	hasher      PasswordHasher
	tokens      TokenIssuer
	adminSecret string
	log         *zap.Logger
}

// NewAuthService wires the dependencies.  An empty adminSecret disables
// admin signups entirely.
func NewAuthService(users UserStore, hasher PasswordHasher, tokens TokenIssuer, adminSecret string, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{users: users, hasher: hasher, tokens: tokens, adminSecret: adminSecret, log: log}
}

type SignupInput struct {
	Phone       string
	Password    string
	Name        *string
	Email       *string
	Role        model.Role
	AdminSecret string
}

type SigninInput struct {
	Phone    string
	Password string
	Role     model.Role // optional; checked after the password
}

// AuthResult is what both endpoints return to the client.
type AuthResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Signup registers a new account.  An existing phone is reported before the
// admin secret is looked at.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (AuthResult, error) {
	phone := strings.TrimSpace(in.Phone)
	if _, err := s.users.GetByPhone(ctx, phone); err == nil {
		return AuthResult{}, ErrPhoneExists
	} else if !errors.Is(err, ErrNotFound) {
		return AuthResult{}, err
	}

	role := in.Role
	if role == "" {
		role = model.RoleUser
	}
	if !role.Valid() {
		return AuthResult{}, invalid("role", "must be one of user, worker, admin")
	}
	if role == model.RoleAdmin && !s.adminSecretMatches(in.AdminSecret) {
		s.log.Warn("rejected admin signup", zap.String("phone", phone))
		return AuthResult{}, ErrAdminSignup
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return AuthResult{}, invalid("password", err.Error())
		}
		return AuthResult{}, err
	}
	u := model.User{Phone: phone, Name: in.Name, Email: in.Email, Role: role, PasswordHash: hash}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrConstraint) {
			// lost a race with a concurrent signup for the same phone
			return AuthResult{}, ErrPhoneExists
		}
		return AuthResult{}, err
	}
	s.log.Info("user signed up", zap.Int64("user_id", u.ID), zap.String("role", string(u.Role)))
	return s.result(u)
}

// Signin checks the phone/password pair.  Unknown phone and wrong password
// look the same to the caller.
func (s *AuthService) Signin(ctx context.Context, in SigninInput) (AuthResult, error) {
	u, err := s.users.GetByPhone(ctx, strings.TrimSpace(in.Phone))
	if errors.Is(err, ErrNotFound) {
		return AuthResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return AuthResult{}, err
	}
	if !s.hasher.Verify(u.PasswordHash, in.Password) {
		return AuthResult{}, ErrInvalidCredentials
	}
	if in.Role != "" && in.Role != u.Role {
		return AuthResult{}, ErrRoleMismatch
	}
	return s.result(u)
}

// Me returns the caller's profile.
func (s *AuthService) Me(ctx context.Context, actor model.Actor) (model.User, error) {
	u, err := s.users.GetByID(ctx, actor.ID)
	if errors.Is(err, ErrNotFound) {
		// token outlived its account
		return model.User{}, ErrUnauthenticated
	}
	return u, err
}

func (s *AuthService) result(u model.User) (AuthResult, error) {
	tok, err := s.tokens.Issue(u.ID, string(u.Role))
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: tok.Token, User: u}, nil
}

func (s *AuthService) adminSecretMatches(given string) bool {
	if s.adminSecret == "" || given == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(s.adminSecret)) == 1
}
