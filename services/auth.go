package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"messmate/models"
	"messmate/store"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=student owner"`
}

type LoginInput struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// Session is a signed-in user together with its bearer token.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

type AuthService struct {
	users     store.Users
	blacklist store.TokenBlacklist
	tokens    *TokenManager
	log       *logrus.Logger
}

func NewAuthService(users store.Users, blacklist store.TokenBlacklist, tokens *TokenManager, log *logrus.Logger) *AuthService {
	return &AuthService{users: users, blacklist: blacklist, tokens: tokens, log: log}
}

// Register creates a student or owner account and signs it in. Admin accounts
// are only created by the seed command.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateInput(in); err != nil {
		return Session{}, err
	}
	if in.Role == "" {
		in.Role = models.RoleStudent
	}

	user, err := s.CreateUser(ctx, in.Name, in.Email, in.Password, in.Role)
	if err != nil {
		return Session{}, err
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID.Hex(), "role": user.Role}).Info("user registered")
	return s.sessionFor(user)
}

// CreateUser hashes password and stores a user with the given role.
func (s *AuthService) CreateUser(ctx context.Context, name, email, password, role string) (models.User, error) {
	if !models.ValidRole(role) {
		return models.User{}, InvalidInput("Invalid role")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return models.User{}, Internal("Failed to register", err)
	}
	user, err := s.users.CreateUser(ctx, models.User{
		Name:     name,
		Email:    strings.ToLower(email),
		Password: string(hashed),
		Role:     role,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return models.User{}, Conflict("User already exists", err)
	}
	if err != nil {
		return models.User{}, Internal("Failed to register", err)
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (Session, error) {
	in.Identifier = strings.TrimSpace(in.Identifier)
	if err := validateInput(in); err != nil {
		return Session{}, InvalidInput("Email/Username and password are required")
	}

	user, err := s.users.FindUserByIdentifier(ctx, in.Identifier)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, NotFound("User not found. Please register first.")
	}
	if err != nil {
		return Session{}, Internal("Login failed", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return Session{}, Unauthorized("Invalid credentials")
	}
	return s.sessionFor(user)
}

func (s *AuthService) sessionFor(user models.User) (Session, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID.Hex(), user.Role)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate resolves a bearer token into the calling actor.
func (s *AuthService) Authenticate(ctx context.Context, token string) (Actor, error) {
	if token == "" {
		return Actor{}, Unauthorized("Token required")
	}
	blacklisted, err := s.blacklist.IsBlacklisted(ctx, token)
	if err != nil {
		return Actor{}, Internal("Failed to check token", err)
	}
	if blacklisted {
		return Actor{}, Unauthorized("Token has been blacklisted")
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return Actor{}, err
	}
	return NewActor(claims.UserID, claims.Role)
}

// Verify returns the account behind an authenticated actor.
func (s *AuthService) Verify(ctx context.Context, actor Actor) (models.User, error) {
	user, err := s.users.GetUser(ctx, actor.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, NotFound("User not found")
	}
	if err != nil {
		return models.User{}, Internal("Failed to load user", err)
	}
	return user, nil
}

// Logout blacklists token until it expires.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return err
	}
	expiresAt := time.Unix(claims.ExpiresAt, 0).UTC()
	if err := s.blacklist.BlacklistToken(ctx, token, expiresAt); err != nil {
		return Internal("Failed to blacklist token", err)
	}
	return nil
}

// PurgeExpiredTokens drops blacklist entries whose tokens have expired.
func (s *AuthService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.blacklist.PurgeExpiredTokens(ctx, time.Now().UTC())
}
