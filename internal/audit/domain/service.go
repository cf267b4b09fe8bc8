package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/smallbiznis/propostas/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListAuditLogRequest struct {
	pagination.Pagination
	OrganizationID uuid.UUID
	Action         string
	TargetUserID   *uuid.UUID
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*AuditLog, error)
}

type Service interface {
	// Record writes entry through tx so it commits or rolls back with the
	// mutation it describes.
	Record(ctx context.Context, tx *gorm.DB, entry Entry) error
	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidPageToken    = errors.New("invalid_page_token")
	ErrInvalidAction       = errors.New("invalid_action")
	ErrWriteFailed         = errors.New("audit_write_failed")
)
