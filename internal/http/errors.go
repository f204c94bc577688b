package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"projecthub/internal/domain"
)

const (
	errorIDKey    = "error_id"
	errorCauseKey = "error_cause"
)

// Code is a machine-readable error code returned alongside the message.
type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeDuplicateAccount   Code = "DUPLICATE_ACCOUNT"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeUnauthenticated    Code = "UNAUTHENTICATED"
	CodeInvalidToken       Code = "INVALID_TOKEN"
	CodeForbidden          Code = "FORBIDDEN"
	CodeNotFound           Code = "NOT_FOUND"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeInternal           Code = "INTERNAL"
)

type errorResponse struct {
	Error   string `json:"error"`
	Code    Code   `json:"code"`
	ErrorID string `json:"error_id,omitempty"`
}

// classify maps an error onto its HTTP status, code and client-safe message.
// The bool reports whether the error is internal and must be logged.
func classify(err error) (int, Code, string, bool) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, CodeValidation, err.Error(), false
	case errors.Is(err, domain.ErrDuplicateAccount):
		return http.StatusBadRequest, CodeDuplicateAccount, "User already exists", false
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusBadRequest, CodeInvalidCredentials, "Invalid credentials", false
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, CodeUnauthenticated, "Access denied, no token provided", false
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusBadRequest, CodeInvalidToken, "Invalid token", false
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, CodeForbidden, "Not allowed to modify this project", false
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, CodeNotFound, notFoundMessage(err), false
	case errors.Is(err, domain.ErrServiceUnavailable), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, CodeServiceUnavailable, "Service temporarily unavailable", true
	default:
		return http.StatusInternalServerError, CodeInternal, "Server error", true
	}
}

func notFoundMessage(err error) string {
	msg := err.Error()
	if msg == "" {
		return "Not found"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func abortWithError(c *gin.Context, err error) {
	status, code, message, internal := classify(err)
	resp := errorResponse{Error: message, Code: code}
	if internal {
		resp.ErrorID = uuid.NewString()
		c.Set(errorIDKey, resp.ErrorID)
	}
	c.AbortWithStatusJSON(status, resp)
}

// fail writes err to the client, logging internal failures under a
// correlation id that is echoed in the response.
func (h *Handler) fail(c *gin.Context, err error) {
	abortWithError(c, err)
	if v, ok := c.Get(errorIDKey); ok {
		h.logger.WithFields(logrus.Fields{
			"error_id": v,
			"method":   c.Request.Method,
			"path":     c.FullPath(),
		}).WithError(err).Error("internal error")
	}
}
