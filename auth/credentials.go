package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"uptask-api/domain"
)

const (
	DefaultTokenTTL   = 4 * time.Hour
	DefaultBcryptCost = 10
)

var (
	errInvalidClaims = errors.New("invalid claims")
	errMissingID     = errors.New("missing id")
)

// Claims is the token payload: the user's id, email and name.
type Claims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"nombre"`
	jwt.RegisteredClaims
}

// Credentials hashes passwords and signs and validates HS256 tokens.
type Credentials struct {
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
	parser *jwt.Parser
}

// NewCredentials creates Credentials. Zero ttl or cost select the defaults.
func NewCredentials(secret string, ttl time.Duration, cost int) *Credentials {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &Credentials{
		secret: []byte(secret),
		ttl:    ttl,
		cost:   cost,
		now:    time.Now,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// HashPassword hashes password with a fresh salt.
func (c *Credentials) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether password matches hashed.
func (c *Credentials) VerifyPassword(password, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

// IssueToken signs a token for id that expires after the configured ttl.
func (c *Credentials) IssueToken(id domain.Identity) (string, error) {
	now := c.now()
	claims := Claims{
		ID:    id.ID.String(),
		Email: id.Email,
		Name:  id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// VerifyToken checks the signature and expiry of token and returns its identity.
func (c *Credentials) VerifyToken(token string) (domain.Identity, error) {
	parsed, err := c.parser.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return c.secret, nil
	})
	if err != nil {
		return domain.Identity{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.Identity{}, errInvalidClaims
	}
	if !claims.VerifyExpiresAt(c.now(), true) {
		return domain.Identity{}, errors.New("token expired")
	}
	if claims.ID == "" {
		return domain.Identity{}, errMissingID
	}
	return domain.Identity{ID: domain.UserID(claims.ID), Email: claims.Email, Name: claims.Name}, nil
}
