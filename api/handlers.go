package api

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/graph-gophers/graphql-go"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, schema *graphql.Schema, verifier TokenVerifier, logger *log.Logger, checks ...HealthCheck) {
	e.POST(graphqlRoute, postGraphQL(schema, logger), GzipRequestMiddleware(), SessionMiddleware(verifier, logger))
	e.GET("/healthz", healthz(checks, logger))
}

type graphqlRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

type errorResponse struct {
	Errors []errorMessage `json:"errors"`
}

type errorMessage struct {
	Message string `json:"message"`
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Errors: []errorMessage{{Message: msg}}})
}

func healthz(checks []HealthCheck, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		for _, check := range checks {
			if err := check(c.Request().Context()); err != nil {
				logger.WithError(err).Warn("health check failed")
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	}
}

func postGraphQL(schema *graphql.Schema, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := newGraphQLRequestMetrics(c.Request().Context(), logger)
		c.SetRequest(c.Request().WithContext(ctx))
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		decodeStart := time.Now()
		body, readErr := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes+1))
		if readErr != nil {
			metrics.SetErrorStage("read")
			return badRequest(c, "invalid request body")
		}
		if len(body) > maxBodyBytes {
			metrics.SetErrorStage("read")
			return c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Errors: []errorMessage{{Message: "request body too large"}}})
		}
		var req graphqlRequest
		if decodeErr := sonic.Unmarshal(body, &req); decodeErr != nil {
			metrics.SetErrorStage("decode")
			return badRequest(c, "invalid request body")
		}
		metrics.ObserveDecode(time.Since(decodeStart))
		metrics.SetOperation(req.OperationName)
		if strings.TrimSpace(req.Query) == "" {
			metrics.SetErrorStage("decode")
			return badRequest(c, "missing query")
		}

		execStart := time.Now()
		resp := schema.Exec(ctx, req.Query, req.OperationName, req.Variables)
		metrics.ObserveExec(time.Since(execStart))
		metrics.SetErrorCount(len(resp.Errors))

		data, encErr := sonic.Marshal(resp)
		if encErr != nil {
			metrics.SetErrorStage("encode")
			err = encErr
			return err
		}
		return c.JSONBlob(http.StatusOK, data)
	}
}
