package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	invitationdomain "github.com/smallbiznis/propostas/internal/invitation/domain"
	memberdomain "github.com/smallbiznis/propostas/internal/membership/domain"
)

var (
	errInviteFieldsRequired = badRequest("organization_id e email são obrigatórios.")
	errInvalidEmail         = badRequest("E-mail inválido.")

	emailValidator = validator.New()
)

type inviteMemberRequest struct {
	OrganizationID string  `json:"organization_id"`
	Email          string  `json:"email"`
	Role           *string `json:"role"`
}

type inviteTokenRequest struct {
	Token string `json:"token"`
}

func (s *Server) InviteMember(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req inviteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidBody)
		return
	}

	orgValue := strings.TrimSpace(req.OrganizationID)
	address := strings.ToLower(strings.TrimSpace(req.Email))
	if orgValue == "" || address == "" {
		AbortWithError(c, errInviteFieldsRequired)
		return
	}
	if err := emailValidator.Var(address, "email"); err != nil {
		AbortWithError(c, errInvalidEmail)
		return
	}

	role := memberdomain.RoleMember
	if req.Role != nil {
		parsed, err := memberdomain.ParseRole(strings.TrimSpace(*req.Role))
		if err != nil {
			AbortWithError(c, err)
			return
		}
		role = parsed
	}

	orgID, ok := parseUUIDField(orgValue)
	if !ok {
		AbortWithError(c, memberdomain.ErrNoAccess)
		return
	}

	invite, err := s.inviteSvc.Invite(c.Request.Context(), invitationdomain.InviteRequest{
		OrganizationID: orgID,
		RequesterID:    identity.UserID,
		Email:          address,
		Role:           role,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invite": invite})
}

// ValidateInvite is public so the acceptance page can show the invite
// before the user signs in.
func (s *Server) ValidateInvite(c *gin.Context) {
	var req inviteTokenRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		AbortWithError(c, errInvalidBody)
		return
	}

	invite, err := s.inviteSvc.Validate(c.Request.Context(), req.Token)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invite": invite})
}

func (s *Server) AcceptInvite(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req inviteTokenRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		AbortWithError(c, errInvalidBody)
		return
	}

	result, err := s.inviteSvc.Accept(c.Request.Context(), invitationdomain.AcceptRequest{
		Token:  req.Token,
		UserID: identity.UserID,
		Email:  identity.Email,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invite": result.Invite,
		"member": toMemberResponse(result.Member),
	})
}

func (s *Server) ListInvites(c *gin.Context) {
	orgID, ok := orgIDFromGin(c)
	if !ok {
		AbortWithError(c, memberdomain.ErrNoAccess)
		return
	}

	invites, err := s.inviteSvc.ListPending(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invites})
}
