package graph

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"uptask-api/domain"
)

// Error codes reported in the "extensions.code" field of GraphQL errors.
const (
	CodeDuplicateEntity   = "DUPLICATE_ENTITY"
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidCredential = "INVALID_CREDENTIAL"
	CodeForbidden         = "FORBIDDEN"
	CodeUnauthenticated   = "UNAUTHENTICATED"
	CodeBadUserInput      = "BAD_USER_INPUT"
	CodeInternal          = "INTERNAL"
)

const internalMessage = "error interno"

// resolverError is returned from resolvers; graphql-go copies Extensions into
// the response error.
type resolverError struct {
	message string
	code    string
}

func (e *resolverError) Error() string { return e.message }

func (e *resolverError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.code}
}

var errorCodes = []struct {
	kind error
	code string
}{
	{domain.ErrDuplicateEntity, CodeDuplicateEntity},
	{domain.ErrNotFound, CodeNotFound},
	{domain.ErrInvalidCredential, CodeInvalidCredential},
	{domain.ErrForbidden, CodeForbidden},
	{domain.ErrUnauthenticated, CodeUnauthenticated},
	{domain.ErrInvalidInput, CodeBadUserInput},
}

// toGraphQLError keeps the message of domain errors and hides everything else.
func toGraphQLError(ctx context.Context, op string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		for _, c := range errorCodes {
			if errors.Is(de, c.kind) {
				return &resolverError{message: de.Message, code: c.code}
			}
		}
	}
	log.WithContext(ctx).WithError(err).WithField("operation", op).Error("resolver failed")
	return &resolverError{message: internalMessage, code: CodeInternal}
}

type panicLogger struct{}

func (panicLogger) LogPanic(ctx context.Context, value interface{}) {
	log.WithContext(ctx).WithField("panic", value).Error("graphql resolver panic")
}
