package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	memberdomain "github.com/smallbiznis/propostas/internal/membership/domain"
)

type completeOnboardingRequest struct {
	CompanyName string `json:"company_name"`
}

// CompleteOnboarding accepts an empty body; the organization then gets the
// default name.
func (s *Server) CompleteOnboarding(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req completeOnboardingRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		AbortWithError(c, errInvalidBody)
		return
	}

	org, err := s.orgSvc.CompleteOnboarding(c.Request.Context(), identity.UserID, req.CompanyName)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"organization": org})
}

func (s *Server) ListOrganizations(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	items, err := s.orgSvc.ListOrganizationsByUser(c.Request.Context(), identity.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) GetOrganization(c *gin.Context) {
	orgID, ok := orgIDFromGin(c)
	if !ok {
		AbortWithError(c, memberdomain.ErrNoAccess)
		return
	}

	org, err := s.orgSvc.GetOrganization(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"organization": org})
}
