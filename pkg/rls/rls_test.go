package rls

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestWithOrganizationSkipsNonPostgres(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	err = conn.Transaction(func(tx *gorm.DB) error {
		return WithOrganization(tx, uuid.New())
	})
	require.NoError(t, err)
}
