package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// UserStorage defines methods required for registering and looking up users.
type UserStorage interface {
	// GetUserByEmail returns nil when no user is registered under email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// InsertUser fails with ErrDuplicateEntity when the email is taken.
	InsertUser(ctx context.Context, u User) error
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	VerifyPassword(password, hashed string) bool
}

// TokenIssuer signs bearer tokens for an identity.
type TokenIssuer interface {
	IssueToken(id Identity) (string, error)
}

// UserService registers and authenticates users.
type UserService struct {
	st     UserStorage
	hasher PasswordHasher
	tokens TokenIssuer
	events Publisher
}

func NewUserService(st UserStorage, hasher PasswordHasher, tokens TokenIssuer, events Publisher) UserService {
	return UserService{st: st, hasher: hasher, tokens: tokens, events: events}
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user and returns a confirmation message.
func (s UserService) Register(ctx context.Context, in NewUser) (string, error) {
	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return "", newError(ErrInvalidInput, "Nombre, email y password son obligatorios")
	}

	existing, err := s.st.GetUserByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return "", newError(ErrDuplicateEntity, "El usuario ya está registrado")
	}

	hashed, err := s.hasher.HashPassword(in.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	u := User{
		ID:           UserID(uuid.NewString()),
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
	}
	if err := s.st.InsertUser(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicateEntity) {
			return "", newError(ErrDuplicateEntity, "El usuario ya está registrado")
		}
		return "", fmt.Errorf("insert user: %w", err)
	}
	log.WithField("user", u.ID.String()).Info("user registered")
	publish(ctx, s.events, u.ID, "user", UserCreated, u.ID.String(), userEventData{Name: u.Name, Email: u.Email})
	return "Usuario Creado Correctamente", nil
}

// Authenticate checks the credentials and returns a signed token.
func (s UserService) Authenticate(ctx context.Context, email, password string) (string, error) {
	u, err := s.st.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return "", newError(ErrNotFound, "El usuario no existe")
	}
	if !s.hasher.VerifyPassword(password, u.PasswordHash) {
		return "", newError(ErrInvalidCredential, "Password Incorrecto")
	}
	token, err := s.tokens.IssueToken(u.Identity())
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}
