package models

import "time"

type Project struct {
	// 基本情報
	ID          string   `gorm:"type:varchar(32);primaryKey" json:"id"`
	Code        string   `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	Name        string   `gorm:"type:text;not null" json:"name"`
	SiteAddress string   `gorm:"type:text" json:"site_address,omitempty"`
	CapacityKw  *float64 `gorm:"type:decimal(10,2)" json:"capacity_kw,omitempty"`

	// ライフサイクル段階
	Stage ProjectStage `gorm:"type:varchar(20);not null;default:'survey';index" json:"stage"`

	// 直接保持するマイルストーン日付
	SurveyDate            *time.Time `gorm:"type:date" json:"survey_date,omitempty"`
	ContractSignedDate    *time.Time `gorm:"type:date" json:"contract_signed_date,omitempty"`
	StructuralCertDate    *time.Time `gorm:"type:date" json:"structural_cert_date,omitempty"`
	ElectricalCertDate    *time.Time `gorm:"type:date" json:"electrical_cert_date,omitempty"`
	ConstructionStartDate *time.Time `gorm:"type:date" json:"construction_start_date,omitempty"`
	MeterInstalledDate    *time.Time `gorm:"type:date" json:"meter_installed_date,omitempty"`

	// ステータス管理（論理削除）
	Status     ProjectStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	ArchivedAt *time.Time    `gorm:"type:datetime" json:"archived_at,omitempty"`

	// タイムスタンプ
	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime;index:idx_created_at,sort:desc" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`
}

// ProjectStatus は案件のステータス
type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "active"
	ProjectStatusArchived ProjectStatus = "archived"
)

// ProjectStage is the lifecycle stage of an installation project
type ProjectStage string

const (
	StageSurvey        ProjectStage = "survey"
	StageContracted    ProjectStage = "contracted"
	StageCertification ProjectStage = "certification"
	StageConstruction  ProjectStage = "construction"
	StageCommissioned  ProjectStage = "commissioned"
)

// TableName はテーブル名を明示的に指定
func (Project) TableName() string {
	return "projects"
}

// IsActive は案件がアクティブかどうか
func (p *Project) IsActive() bool {
	return p.Status == ProjectStatusActive
}

// MarkAsArchived は案件を論理削除
func (p *Project) MarkAsArchived() {
	p.Status = ProjectStatusArchived
	now := time.Now()
	p.ArchivedAt = &now
}

// MilestoneField identifies one of the direct milestone date columns
type MilestoneField string

const (
	FieldSurveyDate            MilestoneField = "survey_date"
	FieldContractSignedDate    MilestoneField = "contract_signed_date"
	FieldStructuralCertDate    MilestoneField = "structural_cert_date"
	FieldElectricalCertDate    MilestoneField = "electrical_cert_date"
	FieldConstructionStartDate MilestoneField = "construction_start_date"
	FieldMeterInstalledDate    MilestoneField = "meter_installed_date"
)

// MilestoneDate reads one direct milestone date field by name
func (p *Project) MilestoneDate(field MilestoneField) *time.Time {
	switch field {
	case FieldSurveyDate:
		return p.SurveyDate
	case FieldContractSignedDate:
		return p.ContractSignedDate
	case FieldStructuralCertDate:
		return p.StructuralCertDate
	case FieldElectricalCertDate:
		return p.ElectricalCertDate
	case FieldConstructionStartDate:
		return p.ConstructionStartDate
	case FieldMeterInstalledDate:
		return p.MeterInstalledDate
	}
	return nil
}
