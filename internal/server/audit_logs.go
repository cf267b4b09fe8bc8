package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	auditdomain "github.com/smallbiznis/propostas/internal/audit/domain"
	memberdomain "github.com/smallbiznis/propostas/internal/membership/domain"
	"github.com/smallbiznis/propostas/pkg/db/pagination"
)

var errInvalidTargetUser = badRequest("target_user_id inválido.")

type listAuditLogsQuery struct {
	PageToken    string `form:"page_token"`
	PageSize     int    `form:"page_size"`
	Action       string `form:"action"`
	TargetUserID string `form:"target_user_id"`
}

func (s *Server) ListAuditLogs(c *gin.Context) {
	orgID, ok := orgIDFromGin(c)
	if !ok {
		AbortWithError(c, memberdomain.ErrNoAccess)
		return
	}

	var query listAuditLogsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, errInvalidBody)
		return
	}

	var targetUserID *uuid.UUID
	if value := strings.TrimSpace(query.TargetUserID); value != "" {
		parsed, ok := parseUUIDField(value)
		if !ok {
			AbortWithError(c, errInvalidTargetUser)
			return
		}
		targetUserID = &parsed
	}

	resp, err := s.auditSvc.List(c.Request.Context(), auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		OrganizationID: orgID,
		Action:         strings.TrimSpace(query.Action),
		TargetUserID:   targetUserID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.AuditLogs, "page_info": resp.PageInfo})
}
