package models

import "time"

// ProjectSnapshot represents a daily snapshot of a project's milestone state
type ProjectSnapshot struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID  string    `gorm:"type:varchar(32);not null;index:idx_project_date" json:"project_id"`
	SnapshotAt time.Time `gorm:"type:date;not null;index:idx_project_date,priority:2;index:idx_snapshot_date" json:"snapshot_at"`

	// Project state at snapshot time
	Stage                 string     `gorm:"type:varchar(20);not null" json:"stage"`
	Status                string     `gorm:"type:varchar(20);not null" json:"status"`
	SurveyDate            *time.Time `gorm:"type:date" json:"survey_date,omitempty"`
	ContractSignedDate    *time.Time `gorm:"type:date" json:"contract_signed_date,omitempty"`
	StructuralCertDate    *time.Time `gorm:"type:date" json:"structural_cert_date,omitempty"`
	ElectricalCertDate    *time.Time `gorm:"type:date" json:"electrical_cert_date,omitempty"`
	ConstructionStartDate *time.Time `gorm:"type:date" json:"construction_start_date,omitempty"`
	MeterInstalledDate    *time.Time `gorm:"type:date" json:"meter_installed_date,omitempty"`

	// Change detection
	HasChanged bool   `gorm:"type:boolean;default:false" json:"has_changed"`
	ChangeNote string `gorm:"type:text" json:"change_note,omitempty"`

	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (ProjectSnapshot) TableName() string {
	return "project_snapshots"
}

// MilestoneChange represents detected changes between snapshots
type MilestoneChange struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID  string    `gorm:"type:varchar(32);not null;index" json:"project_id"`
	SnapshotID uint      `gorm:"type:bigint;not null" json:"snapshot_id"`
	ChangeType string    `gorm:"type:varchar(50);not null" json:"change_type"` // stage_changed, survey_date_changed, etc.
	OldValue   string    `gorm:"type:text" json:"old_value,omitempty"`
	NewValue   string    `gorm:"type:text" json:"new_value,omitempty"`
	DetectedAt time.Time `gorm:"type:datetime;not null;autoCreateTime;index" json:"detected_at"`
}

// TableName specifies the table name
func (MilestoneChange) TableName() string {
	return "milestone_changes"
}

// ChangeType constants
const (
	ChangeTypeStage    = "stage_changed"
	ChangeTypeStatus   = "status_changed"
	ChangeTypeNew      = "new_project"
	ChangeTypeArchived = "project_archived"
)

// MilestoneChangeType builds the change type string for a direct milestone field
func MilestoneChangeType(field MilestoneField) string {
	return string(field) + "_changed"
}
