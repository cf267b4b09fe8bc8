package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/propostas/internal/audit/domain"
	authdomain "github.com/smallbiznis/propostas/internal/auth/domain"
	"github.com/smallbiznis/propostas/internal/authorization"
	invitationdomain "github.com/smallbiznis/propostas/internal/invitation/domain"
	memberdomain "github.com/smallbiznis/propostas/internal/membership/domain"
	"github.com/smallbiznis/propostas/internal/observability/logger"
	organizationdomain "github.com/smallbiznis/propostas/internal/organization/domain"
	proposaldomain "github.com/smallbiznis/propostas/internal/proposal/domain"
	"github.com/smallbiznis/propostas/pkg/db"
	"go.uber.org/zap"
)

const msgInternal = "Erro interno inesperado."

// requestError is a rejection decided by a handler before any service call.
type requestError struct {
	status  int
	code    string
	message string
}

func (e *requestError) Error() string {
	return e.code
}

func newRequestError(status int, code, message string) error {
	return &requestError{status: status, code: code, message: message}
}

func badRequest(message string) error {
	return newRequestError(http.StatusBadRequest, "invalid_request", message)
}

var (
	errMethodNotAllowed = newRequestError(http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed.")
	errRouteNotFound    = newRequestError(http.StatusNotFound, "route_not_found", "Rota não encontrada.")
	errInvalidBody      = badRequest("Corpo da requisição inválido.")
	errRateLimited      = newRequestError(http.StatusTooManyRequests, "rate_limited", "Muitas requisições. Tente novamente em instantes.")
)

type errorResponse struct {
	Error string `json:"error"`
}

type catalogueEntry struct {
	err     error
	status  int
	message string
}

var catalogue = []catalogueEntry{
	{authdomain.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized."},
	{authdomain.ErrNotConfigured, http.StatusInternalServerError, "Supabase env vars are missing."},
	{organizationdomain.ErrInvalidUser, http.StatusUnauthorized, "Unauthorized."},
	{proposaldomain.ErrInvalidUser, http.StatusUnauthorized, "Unauthorized."},

	{memberdomain.ErrInvalidRole, http.StatusBadRequest, "Role inválida."},
	{memberdomain.ErrNoAccess, http.StatusForbidden, "Usuário sem acesso à organização."},
	{memberdomain.ErrNotManager, http.StatusForbidden, "Apenas owner/admin pode gerir membros."},
	{memberdomain.ErrAdminCannotChangeElevated, http.StatusForbidden, "Admin não pode alterar role de owner/admin."},
	{memberdomain.ErrAdminCanOnlyGrantMember, http.StatusForbidden, "Admin só pode definir role member."},
	{memberdomain.ErrAdminCannotRemoveElevated, http.StatusForbidden, "Admin não pode remover owner/admin."},
	{memberdomain.ErrAdminCannotInviteOwner, http.StatusForbidden, "Admin não pode convidar novo owner."},
	{memberdomain.ErrOwnerSelfDowngrade, http.StatusBadRequest, "Auto-downgrade de owner não é permitido."},
	{memberdomain.ErrLastOwner, http.StatusBadRequest, "Não é permitido remover o último owner."},

	{invitationdomain.ErrInvalidEmail, http.StatusBadRequest, "organization_id e email são obrigatórios."},
	{invitationdomain.ErrTokenMissing, http.StatusBadRequest, "Token de convite não informado."},
	{invitationdomain.ErrNotFound, http.StatusNotFound, "Convite não encontrado."},
	{invitationdomain.ErrAlreadyAccepted, http.StatusConflict, "Este convite já foi aceito."},
	{invitationdomain.ErrExpired, http.StatusGone, "Este convite expirou."},
	{invitationdomain.ErrEmailMismatch, http.StatusForbidden, "O e-mail autenticado é diferente do e-mail do convite."},

	{auditdomain.ErrWriteFailed, http.StatusInternalServerError, "Falha ao gravar log de auditoria."},
	{auditdomain.ErrInvalidPageToken, http.StatusBadRequest, "page_token inválido."},
	{auditdomain.ErrInvalidOrganization, http.StatusBadRequest, "organization_id inválido."},
	{auditdomain.ErrInvalidAction, http.StatusBadRequest, "action inválida."},

	{organizationdomain.ErrNotFound, http.StatusNotFound, "Organização não encontrada."},
	{db.ErrConcurrentUpdate, http.StatusConflict, "Outra alteração foi feita ao mesmo tempo. Tente novamente."},
	{organizationdomain.ErrOnboardingInProcess, http.StatusConflict, "Não foi possível concluir o onboarding da sua conta. Tente novamente em alguns segundos. Se o problema continuar, saia e entre de novo para repetir com segurança."},

	{authorization.ErrForbidden, http.StatusForbidden, "Usuário sem permissão para esta operação."},
	{authorization.ErrInvalidOrganization, http.StatusBadRequest, "organization_id inválido."},

	{proposaldomain.ErrNotFound, http.StatusNotFound, "Proposta não encontrada."},
	{proposaldomain.ErrInvalidID, http.StatusBadRequest, "Identificador de proposta inválido."},
	{proposaldomain.ErrInvalidPayload, http.StatusBadRequest, "Dados da proposta inválidos."},
	{proposaldomain.ErrInvalidStatus, http.StatusBadRequest, "Status de proposta inválido."},
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, message, known := mapError(lastErr.Err)
		if !known || status >= http.StatusInternalServerError {
			logger.FromContext(c.Request.Context()).Error("request failed",
				zap.String("route", c.FullPath()),
				zap.Error(lastErr.Err),
			)
		}
		c.AbortWithStatusJSON(status, errorResponse{Error: message})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, string, bool) {
	if err == nil {
		return http.StatusInternalServerError, msgInternal, false
	}

	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return reqErr.status, reqErr.message, true
	}

	for _, entry := range catalogue {
		if errors.Is(err, entry.err) {
			return entry.status, entry.message, true
		}
	}
	return http.StatusInternalServerError, msgInternal, false
}

func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}

	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return "request", reqErr.code
	}
	if reason := memberdomain.ReasonCode(err); reason != "" {
		return "policy", reason
	}
	for _, entry := range catalogue {
		if errors.Is(err, entry.err) {
			if entry.status >= http.StatusInternalServerError {
				return "internal", entry.err.Error()
			}
			return "domain", entry.err.Error()
		}
	}
	return "internal", "unexpected"
}
