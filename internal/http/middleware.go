package http

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"projecthub/internal/auth"
	"projecthub/internal/domain"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
	principalKey        = "principal"
)

// TokenVerifier checks a session token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID string
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's Principal for downstream handlers.
func RequireAuth(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader(authorizationHeader))
		if token == "" {
			abortWithError(c, domain.ErrUnauthenticated)
			return
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			c.Set(errorCauseKey, err)
			abortWithError(c, domain.ErrInvalidToken)
			return
		}

		c.Set(principalKey, Principal{UserID: claims.UserID})
		c.Next()
	}
}

// bearerToken strips an optional "Bearer " prefix from the header value.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == strings.TrimSpace(bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
}

func principalFrom(c *gin.Context) Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(Principal); ok {
			return p
		}
	}
	return Principal{}
}

func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func accessLog(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		}
		if p := principalFrom(c); p.UserID != "" {
			fields["user_id"] = p.UserID
		}
		if v, ok := c.Get(errorIDKey); ok {
			fields["error_id"] = v
		}
		if v, ok := c.Get(errorCauseKey); ok {
			fields["cause"] = v
		}

		entry := logger.WithFields(fields)
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("request failed")
		case c.Writer.Status() >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	}
}
