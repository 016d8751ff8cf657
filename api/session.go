package api

import (
	"errors"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"uptask-api/auth"
	"uptask-api/domain"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	VerifyToken(token string) (domain.Identity, error)
}

// SessionMiddleware attaches the caller's identity to the request context.
// Requests without a valid token continue anonymously.
func SessionMiddleware(verifier TokenVerifier, logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			token, err := auth.BearerToken(req.Header)
			if err != nil {
				if !errors.Is(err, auth.ErrMissingAuthorization) {
					logger.WithError(err).Debug("ignoring malformed authorization header")
				}
				return next(c)
			}
			id, err := verifier.VerifyToken(token)
			if err != nil {
				logger.WithError(err).Debug("token rejected, continuing anonymously")
				return next(c)
			}
			c.SetRequest(req.WithContext(domain.WithIdentity(req.Context(), id)))
			return next(c)
		}
	}
}
