package models

import (
	"time"
)

// ImportJob holds one queued bulk-import payload (CSV text).
// Imports run asynchronously so oversized uploads never block the request path.
type ImportJob struct {
	ID      int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	BatchID string `gorm:"type:varchar(36);not null;index:idx_import_batch" json:"batch_id"`
	Kind    string `gorm:"type:varchar(20);not null" json:"kind"` // projects, documents
	Payload string `gorm:"type:longtext;not null" json:"-"`

	Status    string     `gorm:"type:varchar(20);not null;default:'pending';index:idx_status" json:"status"` // pending, processing, done, failed
	Attempts  int        `gorm:"default:0" json:"attempts"`
	LastError string     `gorm:"type:text" json:"last_error,omitempty"`
	NextRetryAt *time.Time `gorm:"index:idx_retry" json:"next_retry_at,omitempty"`

	// Row accounting filled in as the worker processes the payload
	RowsTotal    int `gorm:"default:0" json:"rows_total"`
	RowsImported int `gorm:"default:0" json:"rows_imported"`
	RowsFailed   int `gorm:"default:0" json:"rows_failed"`

	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TableName specifies the table name for GORM
func (ImportJob) TableName() string {
	return "import_jobs"
}

// Status constants
const (
	ImportStatusPending       = "pending"
	ImportStatusProcessing    = "processing"
	ImportStatusDone          = "done"
	ImportStatusFailed        = "failed"
	ImportStatusPermanentFail = "permanent_fail" // unparseable payload or unknown kind
)

// Import kinds
const (
	ImportKindProjects  = "projects"
	ImportKindDocuments = "documents"
)

// MaxImportAttempts before marking a job as permanently failed
const MaxImportAttempts = 3

// GetNextRetryDelay calculates exponential backoff for retries
func GetNextRetryDelay(attempts int) time.Duration {
	// 30s, 2min, 10min
	delays := []time.Duration{
		30 * time.Second,
		2 * time.Minute,
		10 * time.Minute,
	}

	if attempts >= len(delays) {
		return delays[len(delays)-1]
	}
	return delays[attempts]
}
