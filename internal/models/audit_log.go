package models

import "time"

// AuditLog records administrative actions: archival, physical deletion,
// bulk import and export runs
type AuditLog struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	EntityType string    `gorm:"type:varchar(30);not null;index" json:"entity_type"`
	EntityID   string    `gorm:"type:varchar(50);index" json:"entity_id,omitempty"`
	Action     string    `gorm:"type:varchar(30);not null;index" json:"action"`
	Reason     string    `gorm:"type:varchar(50)" json:"reason,omitempty"`
	Detail     string    `gorm:"type:text" json:"detail,omitempty"`
	CreatedAt  time.Time `gorm:"type:datetime;not null;autoCreateTime;index" json:"created_at"`
}

// TableName specifies the table name
func (AuditLog) TableName() string {
	return "audit_logs"
}

// Audit action constants
const (
	AuditActionArchive = "archive"
	AuditActionDelete  = "delete"
	AuditActionImport  = "import"
	AuditActionExport  = "export"
)

// Audit reason constants
const (
	AuditReasonExpired   = "retention_expired"
	AuditReasonManual    = "manual"
	AuditReasonBulkAdmin = "bulk_admin"
)

// Audit entity types
const (
	AuditEntityProject  = "project"
	AuditEntityDocument = "document"
	AuditEntityBatch    = "import_batch"
)
