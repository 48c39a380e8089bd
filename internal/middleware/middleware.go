package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sunity/api/internal/auth"
	"github.com/sunity/api/internal/helpers"
	"github.com/sunity/api/internal/models"
)

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger provides structured logging middleware
func StructuredLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		requestID, _ := c.Get("request_id")
		attrs := []interface{}{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if user, ok := helpers.CurrentUser(c); ok {
			attrs = append(attrs, "user_id", user.UserID)
		}
		logger.Info("HTTP Request", attrs...)
	}
}

// ErrorHandler logs errors attached with c.Error. Handlers write their own
// envelope, so a body is only produced when nothing was written yet.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()
		requestID, _ := c.Get("request_id")

		logger.Error("Request error",
			"request_id", requestID,
			"error", err.Error(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError,
				models.ErrorResponse(string(helpers.KindInternal), "internal server error"))
		}
	}
}

// Authenticator resolves a session token into the caller's claims.
type Authenticator interface {
	Authenticate(token string) (*helpers.UserClaims, error)
}

// Authenticate accepts the session from an Authorization bearer header, the
// access_token cookie, or a token query parameter on WebSocket upgrades
// (browsers cannot set headers there). An explicit header wins over a
// possibly stale cookie.
func Authenticate(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := a.Authenticate(sessionToken(c))
		if err != nil {
			kind := helpers.KindOf(err)
			c.AbortWithStatusJSON(kind.HTTPStatus(), models.ErrorResponse(string(kind), helpers.ReasonOf(err)))
			return
		}
		c.Set(helpers.ContextUserKey, claims)
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if token, err := c.Cookie(auth.SessionCookie); err == nil && token != "" {
		return token
	}
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return c.Query("token")
	}
	return ""
}
