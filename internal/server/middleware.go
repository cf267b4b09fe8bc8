package server

import (
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	authdomain "github.com/smallbiznis/propostas/internal/auth/domain"
	obscontext "github.com/smallbiznis/propostas/internal/observability/context"
)

const (
	headerAuthorization = "Authorization"
	headerRetryAfter    = "Retry-After"

	corsAllowHeaders     = "authorization, x-client-info, apikey, content-type"
	functionAllowMethods = "POST, OPTIONS"
	apiAllowMethods      = "GET, POST, PUT, DELETE, OPTIONS"
)

func setCORSHeaders(c *gin.Context, methods string) {
	h := c.Writer.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	h.Set("Access-Control-Allow-Methods", methods)
}

// FunctionCORS answers preflight requests and rejects anything but POST.
func FunctionCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		setCORSHeaders(c, functionAllowMethods)

		switch c.Request.Method {
		case http.MethodOptions:
			c.String(http.StatusOK, "ok")
			c.Abort()
			return
		case http.MethodPost:
			c.Next()
		default:
			AbortWithError(c, errMethodNotAllowed)
		}
	}
}

func APICORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		setCORSHeaders(c, apiAllowMethods)
		c.Next()
	}
}

func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := authdomain.BearerToken(c.GetHeader(headerAuthorization))
		if !ok {
			AbortWithError(c, authdomain.ErrUnauthorized)
			return
		}

		identity, err := s.verifier.Verify(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := authdomain.WithIdentity(c.Request.Context(), identity)
		ctx = obscontext.WithActor(ctx, "user", identity.UserID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RateLimit throttles per user and endpoint. It must run after AuthRequired.
func (s *Server) RateLimit(endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() {
			c.Next()
			return
		}

		identity, ok := identityFromContext(c)
		if !ok {
			AbortWithError(c, authdomain.ErrUnauthorized)
			return
		}

		allowed, retryAfter := s.limiter.Allow(c.Request.Context(), identity.UserID.String(), endpoint)
		if !allowed {
			c.Header(headerRetryAfter, retryAfterSeconds(retryAfter))
			AbortWithError(c, errRateLimited)
			return
		}
		c.Next()
	}
}

func retryAfterSeconds(d time.Duration) string {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}

func identityFromContext(c *gin.Context) (authdomain.Identity, bool) {
	return authdomain.IdentityFromContext(c.Request.Context())
}

// requireIdentity writes a 401 when the request carries no caller.
func requireIdentity(c *gin.Context) (authdomain.Identity, bool) {
	identity, ok := identityFromContext(c)
	if !ok {
		AbortWithError(c, authdomain.ErrUnauthorized)
	}
	return identity, ok
}

// parseUUIDField parses a trimmed identifier coming from a request body or path.
func parseUUIDField(value string) (uuid.UUID, bool) {
	id, err := uuid.Parse(value)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// bindOptionalJSON decodes the body into dst and treats an empty body as {}.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
