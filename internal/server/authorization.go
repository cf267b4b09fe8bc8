package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	authdomain "github.com/smallbiznis/propostas/internal/auth/domain"
	memberdomain "github.com/smallbiznis/propostas/internal/membership/domain"
	obscontext "github.com/smallbiznis/propostas/internal/observability/context"
)

const contextOrgIDKey = "organization_id"

// authorizeOrgAction checks the caller's capability on the organization in
// the :id path segment and exposes the parsed id to the handler.
func (s *Server) authorizeOrgAction(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authorizeOrgActionWithContext(c, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) authorizeOrgActionWithContext(c *gin.Context, object string, action string) error {
	identity, ok := identityFromContext(c)
	if !ok {
		return authdomain.ErrUnauthorized
	}

	orgID, ok := parseUUIDField(strings.TrimSpace(c.Param("id")))
	if !ok {
		return memberdomain.ErrNoAccess
	}

	ctx := obscontext.WithOrgID(c.Request.Context(), orgID.String())
	c.Request = c.Request.WithContext(ctx)

	if err := s.authzSvc.Authorize(ctx, identity.UserID, orgID, strings.TrimSpace(object), strings.TrimSpace(action)); err != nil {
		return err
	}

	c.Set(contextOrgIDKey, orgID)
	return nil
}

func orgIDFromGin(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(contextOrgIDKey)
	if !ok {
		return uuid.Nil, false
	}
	orgID, ok := value.(uuid.UUID)
	return orgID, ok && orgID != uuid.Nil
}
