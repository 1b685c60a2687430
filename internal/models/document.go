package models

import "time"

// ProjectDocument is a regulatory or contractual document attached to a project.
// Only current, non-deleted documents participate in timeline resolution.
type ProjectDocument struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID string `gorm:"type:varchar(32);not null;index:idx_document_project" json:"project_id"`

	TypeCode  string `gorm:"type:varchar(50);index" json:"type_code,omitempty"`
	TypeLabel string `gorm:"type:varchar(200)" json:"type_label,omitempty"`
	Title     string `gorm:"type:text" json:"title,omitempty"`

	SubmittedAt *time.Time `gorm:"type:date" json:"submitted_at,omitempty"`
	IssuedAt    *time.Time `gorm:"type:date" json:"issued_at,omitempty"`

	// Versioning flags: a superseded document keeps its row but loses Current
	Current bool `gorm:"not null;default:true;index" json:"current"`
	Deleted bool `gorm:"not null;default:false" json:"deleted"`

	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (ProjectDocument) TableName() string {
	return "project_documents"
}

// IsRelevant reports whether the document should be considered for date resolution
func (d *ProjectDocument) IsRelevant() bool {
	return d.Current && !d.Deleted
}

// Well-known document type codes
const (
	DocTypeGridApplication   = "GRID_APP"
	DocTypeGridApproval      = "GRID_APPROVAL"
	DocTypeStructuralCert    = "STRUCT_CERT"
	DocTypeElectricalCert    = "ELEC_CERT"
	DocTypeCompletionReport  = "COMPLETION_REPORT"
	DocTypeUtilityAcceptance = "UTILITY_ACCEPT"
	DocTypeSubsidyApp        = "SUBSIDY_APP"
	DocTypeCommissioningCert = "COMMISSIONING_CERT"
)
