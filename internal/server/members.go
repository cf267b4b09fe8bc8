package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	memberdomain "github.com/smallbiznis/propostas/internal/membership/domain"
)

var (
	errChangeRoleFieldsRequired = badRequest("organization_id, target_user_id e role são obrigatórios.")
	errRemoveFieldsRequired     = badRequest("organization_id e target_user_id são obrigatórios.")
)

type changeMemberRoleRequest struct {
	OrganizationID string `json:"organization_id"`
	TargetUserID   string `json:"target_user_id"`
	Role           string `json:"role"`
}

type removeMemberRequest struct {
	OrganizationID string `json:"organization_id"`
	TargetUserID   string `json:"target_user_id"`
}

type memberResponse struct {
	OrganizationID string `json:"organization_id"`
	UserID         string `json:"user_id"`
	Role           string `json:"role"`
}

func toMemberResponse(m memberdomain.Member) memberResponse {
	return memberResponse{
		OrganizationID: m.OrganizationID.String(),
		UserID:         m.UserID.String(),
		Role:           string(m.Role),
	}
}

func (s *Server) ChangeMemberRole(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req changeMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidBody)
		return
	}

	orgValue := strings.TrimSpace(req.OrganizationID)
	targetValue := strings.TrimSpace(req.TargetUserID)
	roleValue := strings.TrimSpace(req.Role)
	if orgValue == "" || targetValue == "" || roleValue == "" {
		AbortWithError(c, errChangeRoleFieldsRequired)
		return
	}

	role, err := memberdomain.ParseRole(roleValue)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	orgID, ok := parseUUIDField(orgValue)
	if !ok {
		AbortWithError(c, memberdomain.ErrNoAccess)
		return
	}
	targetID, ok := parseUUIDField(targetValue)
	if !ok {
		AbortWithError(c, memberdomain.ErrNoAccess)
		return
	}

	member, err := s.memberSvc.ChangeRole(c.Request.Context(), memberdomain.ChangeRoleRequest{
		OrganizationID: orgID,
		RequesterID:    identity.UserID,
		TargetUserID:   targetID,
		Role:           role,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"member": toMemberResponse(*member)})
}

func (s *Server) RemoveMember(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req removeMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidBody)
		return
	}

	orgValue := strings.TrimSpace(req.OrganizationID)
	targetValue := strings.TrimSpace(req.TargetUserID)
	if orgValue == "" || targetValue == "" {
		AbortWithError(c, errRemoveFieldsRequired)
		return
	}

	orgID, ok := parseUUIDField(orgValue)
	if !ok {
		AbortWithError(c, memberdomain.ErrNoAccess)
		return
	}
	targetID, ok := parseUUIDField(targetValue)
	if !ok {
		AbortWithError(c, memberdomain.ErrNoAccess)
		return
	}

	if err := s.memberSvc.Remove(c.Request.Context(), memberdomain.RemoveRequest{
		OrganizationID: orgID,
		RequesterID:    identity.UserID,
		TargetUserID:   targetID,
	}); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": true})
}

func (s *Server) ListMembers(c *gin.Context) {
	orgID, ok := orgIDFromGin(c)
	if !ok {
		AbortWithError(c, memberdomain.ErrNoAccess)
		return
	}

	members, err := s.memberSvc.List(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": members})
}
