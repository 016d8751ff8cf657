package auth

import (
	"errors"
	"net/http"
	"strings"
)

var (
	ErrMissingAuthorization = errors.New("missing authorization header")
	ErrBadAuthorization     = errors.New("bad auth header")
)

const bearerPrefix = "Bearer "

// BearerToken extracts the token from the Authorization header. The
// "Bearer " prefix is optional.
func BearerToken(header http.Header) (string, error) {
	values := header.Values("Authorization")
	if len(values) == 0 {
		return "", ErrMissingAuthorization
	}
	return BearerTokenFromString(values[0])
}

// BearerTokenFromString is BearerToken for a raw header value.
func BearerTokenFromString(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrMissingAuthorization
	}
	token := strings.TrimSpace(strings.TrimPrefix(trimmed, bearerPrefix))
	if token == "" || strings.Count(token, ".") != 2 {
		return "", ErrBadAuthorization
	}
	return token, nil
}
