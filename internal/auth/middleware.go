package auth

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/invoicegen/internal/config"
	obsctx "github.com/smallbiznis/invoicegen/internal/observability/context"
	"github.com/smallbiznis/invoicegen/internal/usercontext"
	"go.uber.org/zap"
)

// SessionCookie carries the token for browser navigation.
const SessionCookie = "invoicer_session"

// UnauthorizedResponder ends a request that failed authentication.
type UnauthorizedResponder interface {
	Respond(c *gin.Context, err error)
}

// Responder answers API calls with a JSON 401 and redirects browser
// navigation to the login page.
type Responder struct {
	LoginURL string
}

func NewResponder(cfg config.Config) UnauthorizedResponder {
	return Responder{LoginURL: cfg.LoginURL}
}

func (r Responder) Respond(c *gin.Context, err error) {
	if r.LoginURL != "" && wantsHTML(c.Request) {
		target := r.LoginURL
		if u, parseErr := url.Parse(r.LoginURL); parseErr == nil {
			q := u.Query()
			q.Set("redirect", c.Request.URL.RequestURI())
			u.RawQuery = q.Encode()
			target = u.String()
		}
		c.Redirect(http.StatusFound, target)
		c.Abort()
		return
	}

	code := "unauthorized"
	switch {
	case errors.Is(err, ErrMissingToken):
		code = "missing_token"
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrMissingSubject):
		code = "invalid_token"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"type":    "unauthorized",
			"code":    code,
			"message": "authentication required",
		},
	})
}

func wantsHTML(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// Middleware authenticates requests and scopes them to the token subject.
type Middleware struct {
	verifier  *Verifier
	responder UnauthorizedResponder
	log       *zap.Logger
}

func NewMiddleware(verifier *Verifier, responder UnauthorizedResponder, log *zap.Logger) *Middleware {
	return &Middleware{
		verifier:  verifier,
		responder: responder,
		log:       log.Named("auth.middleware"),
	}
}

// Required rejects requests without a valid token.
func (m *Middleware) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := m.verifier.Verify(bearerToken(c))
		if err != nil {
			m.log.Debug("rejected request",
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
			m.responder.Respond(c, err)
			return
		}

		ctx := c.Request.Context()
		ctx = usercontext.WithUserID(ctx, identity.UserID)
		ctx = obsctx.WithUserID(ctx, identity.UserID)
		ctx = usercontext.WithEmail(ctx, identity.Email)
		ctx = usercontext.WithIPAddress(ctx, c.ClientIP())
		ctx = usercontext.WithUserAgent(ctx, c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)
		c.Set("user_id", identity.UserID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header != "" {
		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return ""
		}
		return parts[1]
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}
