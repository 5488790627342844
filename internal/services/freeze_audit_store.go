package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/trustfreeze/backend/internal/models"
)

// LogFilter narrows audit queries. Zero values mean "no filter"; Page and Limit
// of zero select the defaults.
type LogFilter struct {
	TargetAccount string              `form:"target_account"`
	Action        models.FreezeAction `form:"action"`
	AssetCode     string              `form:"asset_code"`
	Page          int                 `form:"page"`
	Limit         int                 `form:"limit"`
}

// LogPage is one page of audit rows plus the total count matching the filter.
type LogPage struct {
	Data  []models.FreezeAuditLog `json:"data"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}

// FreezeAuditStore is the append-only persistence for freeze audit rows.
type FreezeAuditStore interface {
	Insert(ctx context.Context, row *models.FreezeAuditLog) error
	// InsertBatch writes every row in one multi-row INSERT.
	InsertBatch(ctx context.Context, rows []models.FreezeAuditLog) error
	List(ctx context.Context, filter LogFilter, offset, limit int) ([]models.FreezeAuditLog, int64, error)
	// Latest returns nil when the trustline has no audit rows.
	Latest(ctx context.Context, account, assetCode, assetIssuer string) (*models.FreezeAuditLog, error)
}

type GormFreezeAuditStore struct {
	db *gorm.DB
}

var _ FreezeAuditStore = (*GormFreezeAuditStore)(nil)

func NewGormFreezeAuditStore(db *gorm.DB) *GormFreezeAuditStore {
	return &GormFreezeAuditStore{db: db}
}

func (s *GormFreezeAuditStore) Insert(ctx context.Context, row *models.FreezeAuditLog) error {
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("insert freeze audit log: %w", err)
	}
	return nil
}

func (s *GormFreezeAuditStore) InsertBatch(ctx context.Context, rows []models.FreezeAuditLog) error {
	if len(rows) == 0 {
		return nil
	}
	// CreateBatchSize stays at zero so gorm emits a single statement for the slice.
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("insert %d freeze audit logs: %w", len(rows), err)
	}
	return nil
}

func (s *GormFreezeAuditStore) List(ctx context.Context, filter LogFilter, offset, limit int) ([]models.FreezeAuditLog, int64, error) {
	scope := filterScope(filter)

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.FreezeAuditLog{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count freeze audit logs: %w", err)
	}

	rows := make([]models.FreezeAuditLog, 0, limit)
	err := s.db.WithContext(ctx).
		Scopes(scope).
		Order("created_at desc, id desc").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list freeze audit logs: %w", err)
	}
	return rows, total, nil
}

func (s *GormFreezeAuditStore) Latest(ctx context.Context, account, assetCode, assetIssuer string) (*models.FreezeAuditLog, error) {
	var row models.FreezeAuditLog
	err := s.db.WithContext(ctx).
		Where("target_account = ? AND asset_code = ? AND asset_issuer = ?", account, assetCode, assetIssuer).
		Order("created_at desc, id desc").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest freeze audit log: %w", err)
	}
	return &row, nil
}

// filterScope builds the predicate shared by the count and the data query.
func filterScope(f LogFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.TargetAccount != "" {
			db = db.Where("target_account = ?", f.TargetAccount)
		}
		if f.Action != "" {
			db = db.Where("action = ?", f.Action)
		}
		if f.AssetCode != "" {
			db = db.Where("asset_code = ?", f.AssetCode)
		}
		return db
	}
}
