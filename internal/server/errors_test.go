package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	auditdomain "github.com/smallbiznis/propostas/internal/audit/domain"
	memberdomain "github.com/smallbiznis/propostas/internal/membership/domain"
	"github.com/smallbiznis/propostas/pkg/db"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	status, message, known := mapError(fmt.Errorf("change role: %w", memberdomain.ErrLastOwner))
	assert.True(t, known)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Não é permitido remover o último owner.", message)

	status, message, known = mapError(fmt.Errorf("record: %w", auditdomain.ErrWriteFailed))
	assert.True(t, known)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Falha ao gravar log de auditoria.", message)

	status, message, known = mapError(errors.New("pq: connection refused"))
	assert.False(t, known)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Erro interno inesperado.", message)
}

func TestMapErrorConcurrentUpdate(t *testing.T) {
	deadlock := fmt.Errorf("count owners: %w", &pgconn.PgError{Code: "40P01", Message: "deadlock detected"})
	status, message, known := mapError(db.WrapConflict(deadlock))
	assert.True(t, known)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Outra alteração foi feita ao mesmo tempo. Tente novamente.", message)

	kind, code := classifyErrorForLog(db.WrapConflict(deadlock))
	assert.Equal(t, "domain", kind)
	assert.Equal(t, "concurrent_update", code)
}

func TestErrorHandlingMiddlewareHidesInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandlingMiddleware())
	r.GET("/boom", func(c *gin.Context) {
		AbortWithError(c, errors.New("dial tcp 10.0.0.1:5432: secret host"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Erro interno inesperado."}`, w.Body.String())
}

func TestClassifyErrorForLog(t *testing.T) {
	kind, code := classifyErrorForLog(memberdomain.ErrNotManager)
	assert.Equal(t, "policy", kind)
	assert.Equal(t, "not_manager", code)

	kind, code = classifyErrorForLog(errMethodNotAllowed)
	assert.Equal(t, "request", kind)
	assert.Equal(t, "method_not_allowed", code)

	kind, _ = classifyErrorForLog(errors.New("boom"))
	assert.Equal(t, "internal", kind)
}
