package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestWrapConflict(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		conflict bool
	}{
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"serialization failure", fmt.Errorf("update role: %w", &pgconn.PgError{Code: "40001"}), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"gorm duplicated key", fmt.Errorf("create owner membership: %w", gorm.ErrDuplicatedKey), true},
		{"sqlite unique", errors.New("UNIQUE constraint failed: organization_members.organization_id"), true},
		{"foreign key", &pgconn.PgError{Code: "23503"}, false},
		{"other", errors.New("connection refused"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := WrapConflict(tc.err)
			assert.Equal(t, tc.conflict, errors.Is(wrapped, ErrConcurrentUpdate))
			assert.ErrorIs(t, wrapped, tc.err)
		})
	}

	assert.NoError(t, WrapConflict(nil))
	once := WrapConflict(&pgconn.PgError{Code: "40P01"})
	assert.Same(t, once, WrapConflict(once))
}
