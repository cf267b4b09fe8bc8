package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	proposaldomain "github.com/smallbiznis/propostas/internal/proposal/domain"
)

type saveProposalRequest struct {
	Dados map[string]any `json:"dados"`
}

func (s *Server) ListProposals(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	items, err := s.proposalSvc.List(c.Request.Context(), proposaldomain.ListRequest{
		UserID: identity.UserID,
		Search: strings.TrimSpace(c.Query("q")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) GetProposal(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	item, err := s.proposalSvc.Get(c.Request.Context(), identity.UserID, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (s *Server) CreateProposal(c *gin.Context) {
	s.saveProposal(c, "", http.StatusCreated)
}

func (s *Server) UpdateProposal(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		AbortWithError(c, proposaldomain.ErrInvalidID)
		return
	}
	s.saveProposal(c, id, http.StatusOK)
}

func (s *Server) saveProposal(c *gin.Context, id string, status int) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req saveProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidBody)
		return
	}
	if req.Dados == nil {
		AbortWithError(c, proposaldomain.ErrInvalidPayload)
		return
	}

	item, err := s.proposalSvc.Save(c.Request.Context(), proposaldomain.SaveRequest{
		ID:     id,
		UserID: identity.UserID,
		Dados:  req.Dados,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(status, item)
}

func (s *Server) DeleteProposal(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	if err := s.proposalSvc.Delete(c.Request.Context(), identity.UserID, c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) DuplicateProposal(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	dados, err := s.proposalSvc.Duplicate(c.Request.Context(), identity.UserID, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"dados": dados})
}

func (s *Server) NewProposalDraft(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	dados, err := s.proposalSvc.NewDraft(c.Request.Context(), identity.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"dados": dados})
}

func (s *Server) NextProposalNumber(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	number, err := s.proposalSvc.NextNumber(c.Request.Context(), identity.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"proposta_numero": number})
}
