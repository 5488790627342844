package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/trustfreeze/backend/internal/models"
)

func setupMockStore(t *testing.T) (*GormFreezeAuditStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return NewGormFreezeAuditStore(db), mock
}

func TestGormFreezeAuditStore_InsertBatchIsOneStatement(t *testing.T) {
	store, mock := setupMockStore(t)

	rows := make([]models.FreezeAuditLog, 3)
	for i := range rows {
		rows[i] = models.FreezeAuditLog{
			OperationID:   "01HZXAMPLE0000000000000000",
			TargetAccount: "GTARGET",
			AssetCode:     "USDC",
			AssetIssuer:   "GISSUER",
			Action:        models.FreezeActionFreeze,
			Scope:         models.FreezeScopeGlobal,
			TxHash:        "abc",
			InitiatedBy:   "GISSUER",
		}
	}

	mock.ExpectQuery(`INSERT INTO "freeze_audit_logs" \(.+\) VALUES \(.+\),\(.+\),\(.+\) RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2).AddRow(3))

	require.NoError(t, store.InsertBatch(context.Background(), rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormFreezeAuditStore_InsertBatchEmpty(t *testing.T) {
	store, mock := setupMockStore(t)

	require.NoError(t, store.InsertBatch(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormFreezeAuditStore_ListSharesPredicate(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "freeze_audit_logs" WHERE action = \$1 AND asset_code = \$2`).
		WithArgs("unfreeze", "USDC").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT \* FROM "freeze_audit_logs" WHERE action = \$1 AND asset_code = \$2 ORDER BY created_at desc, id desc LIMIT \$3 OFFSET \$4`).
		WithArgs("unfreeze", "USDC", 20, 40).
		WillReturnRows(sqlmock.NewRows([]string{"id", "action", "asset_code"}).AddRow(9, "unfreeze", "USDC"))

	rows, total, err := store.List(context.Background(), LogFilter{Action: models.FreezeActionUnfreeze, AssetCode: "USDC"}, 40, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, uint(9), rows[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
