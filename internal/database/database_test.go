package database

import (
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustfreeze/backend/internal/models"
)

func TestOpen(t *testing.T) {
	// Test with memory DB
	db, err := Open(DriverSQLite, "file::memory:?cache=shared")
	assert.NoError(t, err)
	assert.NotNil(t, db)

	// Test with file DB
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err = Open(DriverSQLite, dbPath)
	require.NoError(t, err)
	require.NoError(t, Migrate(db, DriverSQLite))
	assert.True(t, db.Migrator().HasTable(&models.FreezeAuditLog{}))
	assert.True(t, db.Migrator().HasIndex(&models.FreezeAuditLog{}, "idx_freeze_audit_trustline"))

	_, err = Open("oracle", "x")
	assert.Error(t, err)
	assert.Error(t, Migrate(db, "oracle"))
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	names, err := fs.Glob(migrationFS, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, n := range names {
		base := filepath.Base(n)
		switch {
		case strings.HasSuffix(base, ".up.sql"):
			ups[strings.TrimSuffix(base, ".up.sql")] = true
		case strings.HasSuffix(base, ".down.sql"):
			downs[strings.TrimSuffix(base, ".down.sql")] = true
		default:
			t.Errorf("unexpected migration file %s", base)
		}
	}
	assert.Equal(t, ups, downs)

	up, err := fs.ReadFile(migrationFS, "migrations/000001_create_freeze_audit_logs.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(up), "freeze_audit_logs")
	assert.Contains(t, string(up), "BEFORE UPDATE OR DELETE")
}
