package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrAuditImmutable is returned when something tries to change or remove an audit row.
var ErrAuditImmutable = errors.New("freeze audit log is append-only")

// FreezeAction is the change applied to a holder's trustline authorization flag.
type FreezeAction string

const (
	FreezeActionFreeze   FreezeAction = "freeze"
	FreezeActionUnfreeze FreezeAction = "unfreeze"
)

// Valid reports whether a is a known action.
func (a FreezeAction) Valid() bool {
	return a == FreezeActionFreeze || a == FreezeActionUnfreeze
}

// Authorize returns the value the trustline authorized flag takes after the action.
func (a FreezeAction) Authorize() bool {
	return a == FreezeActionUnfreeze
}

// FreezeScope tags whether an action targeted one account or every holder of an asset.
type FreezeScope string

const (
	FreezeScopeAccount FreezeScope = "account"
	FreezeScopeGlobal  FreezeScope = "global"
)

// FreezeAuditLog records one executed freeze or unfreeze against a single trustline.
// Rows are written only after the ledger confirmed the referenced transaction.
type FreezeAuditLog struct {
	ID            uint         `json:"id" gorm:"primaryKey"`
	OperationID   string       `json:"operation_id" gorm:"size:26;not null;index"`
	TargetAccount string       `json:"target_account" gorm:"size:56;not null;index:idx_freeze_audit_trustline,priority:1"`
	AssetCode     string       `json:"asset_code" gorm:"size:12;not null;index:idx_freeze_audit_trustline,priority:2"`
	AssetIssuer   string       `json:"asset_issuer" gorm:"size:56;not null;index:idx_freeze_audit_trustline,priority:3"`
	Action        FreezeAction `json:"action" gorm:"size:16;not null;index"`
	Scope         FreezeScope  `json:"scope" gorm:"size:16;not null"`
	TxHash        string       `json:"tx_hash" gorm:"size:64;not null"`
	InitiatedBy   string       `json:"initiated_by" gorm:"size:56;not null"`
	Reason        *string      `json:"reason" gorm:"size:500"`
	CreatedAt     time.Time    `json:"created_at" gorm:"index"`
}

// TableName pins the table name shared with the SQL migrations.
func (FreezeAuditLog) TableName() string {
	return "freeze_audit_logs"
}

// BeforeUpdate rejects every update; the log is forensic.
func (l *FreezeAuditLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrAuditImmutable
}

// BeforeDelete rejects every delete.
func (l *FreezeAuditLog) BeforeDelete(tx *gorm.DB) error {
	return ErrAuditImmutable
}
