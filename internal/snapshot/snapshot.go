package snapshot

import (
	"fmt"
	"log"
	"solar-ops-portal/internal/models"
	"time"

	"gorm.io/gorm"
)

// Service handles project snapshot operations
type Service struct {
	db *gorm.DB
}

// NewService creates a new snapshot service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// milestoneFields lists the direct date columns tracked between snapshots
var milestoneFields = []models.MilestoneField{
	models.FieldSurveyDate,
	models.FieldContractSignedDate,
	models.FieldStructuralCertDate,
	models.FieldElectricalCertDate,
	models.FieldConstructionStartDate,
	models.FieldMeterInstalledDate,
}

func snapshotMilestone(s *models.ProjectSnapshot, field models.MilestoneField) *time.Time {
	switch field {
	case models.FieldSurveyDate:
		return s.SurveyDate
	case models.FieldContractSignedDate:
		return s.ContractSignedDate
	case models.FieldStructuralCertDate:
		return s.StructuralCertDate
	case models.FieldElectricalCertDate:
		return s.ElectricalCertDate
	case models.FieldConstructionStartDate:
		return s.ConstructionStartDate
	case models.FieldMeterInstalledDate:
		return s.MeterInstalledDate
	}
	return nil
}

func newSnapshot(project *models.Project) *models.ProjectSnapshot {
	return &models.ProjectSnapshot{
		ProjectID:             project.ID,
		SnapshotAt:            time.Now().Truncate(24 * time.Hour), // Truncate to date only
		Stage:                 string(project.Stage),
		Status:                string(project.Status),
		SurveyDate:            project.SurveyDate,
		ContractSignedDate:    project.ContractSignedDate,
		StructuralCertDate:    project.StructuralCertDate,
		ElectricalCertDate:    project.ElectricalCertDate,
		ConstructionStartDate: project.ConstructionStartDate,
		MeterInstalledDate:    project.MeterInstalledDate,
	}
}

// DetectChanges compares current project state with the most recent snapshot
func (s *Service) DetectChanges(project *models.Project) ([]models.MilestoneChange, error) {
	// Get the most recent snapshot (not today's)
	var lastSnapshot models.ProjectSnapshot
	today := time.Now().Truncate(24 * time.Hour)

	result := s.db.Where("project_id = ? AND snapshot_at < ?", project.ID, today).
		Order("snapshot_at DESC").
		First(&lastSnapshot)

	if result.Error == gorm.ErrRecordNotFound {
		// No previous snapshot, this is a new project
		return []models.MilestoneChange{{
			ProjectID:  project.ID,
			ChangeType: models.ChangeTypeNew,
			NewValue:   "New project detected",
			DetectedAt: time.Now(),
		}}, nil
	} else if result.Error != nil {
		return nil, result.Error
	}

	changes := []models.MilestoneChange{}

	// Stage change
	if string(project.Stage) != lastSnapshot.Stage {
		changes = append(changes, models.MilestoneChange{
			ProjectID:  project.ID,
			ChangeType: models.ChangeTypeStage,
			OldValue:   lastSnapshot.Stage,
			NewValue:   string(project.Stage),
			DetectedAt: time.Now(),
		})
	}

	// Status change (active -> archived and back)
	if string(project.Status) != lastSnapshot.Status {
		changeType := models.ChangeTypeStatus
		if project.Status == models.ProjectStatusArchived {
			changeType = models.ChangeTypeArchived
		}
		changes = append(changes, models.MilestoneChange{
			ProjectID:  project.ID,
			ChangeType: changeType,
			OldValue:   lastSnapshot.Status,
			NewValue:   string(project.Status),
			DetectedAt: time.Now(),
		})
	}

	// Direct milestone date changes
	for _, field := range milestoneFields {
		current := project.MilestoneDate(field)
		previous := snapshotMilestone(&lastSnapshot, field)
		if datePtrEqual(current, previous) {
			continue
		}
		changes = append(changes, models.MilestoneChange{
			ProjectID:  project.ID,
			ChangeType: models.MilestoneChangeType(field),
			OldValue:   formatDate(previous),
			NewValue:   formatDate(current),
			DetectedAt: time.Now(),
		})
	}

	return changes, nil
}

// SaveChanges saves detected changes to the database
func (s *Service) SaveChanges(changes []models.MilestoneChange, snapshotID uint) error {
	if len(changes) == 0 {
		return nil
	}

	// Set snapshot ID for all changes
	for i := range changes {
		changes[i].SnapshotID = snapshotID
	}

	return s.db.Create(&changes).Error
}

// CreateSnapshotWithChangeDetection creates a snapshot and detects changes
func (s *Service) CreateSnapshotWithChangeDetection(project *models.Project) error {
	// Detect changes first
	changes, err := s.DetectChanges(project)
	if err != nil {
		log.Printf("Warning: Failed to detect changes for project %s: %v", project.ID, err)
	}

	snapshot := newSnapshot(project)
	snapshot.HasChanged = len(changes) > 0
	if len(changes) > 0 {
		snapshot.ChangeNote = fmt.Sprintf("%d changes detected", len(changes))
	}

	// Check if snapshot already exists for today
	var existing models.ProjectSnapshot
	result := s.db.Where("project_id = ? AND snapshot_at = ?", project.ID, snapshot.SnapshotAt).First(&existing)

	if result.Error == gorm.ErrRecordNotFound {
		// Create new snapshot
		if err := s.db.Create(snapshot).Error; err != nil {
			return err
		}
	} else if result.Error != nil {
		return result.Error
	} else {
		// Update existing snapshot
		snapshot.ID = existing.ID
		if err := s.db.Save(snapshot).Error; err != nil {
			return err
		}
	}

	// Save changes
	if len(changes) > 0 {
		if err := s.SaveChanges(changes, snapshot.ID); err != nil {
			log.Printf("Warning: Failed to save changes: %v", err)
		} else {
			log.Printf("Detected %d changes for project %s", len(changes), project.ID)
		}
	}

	return nil
}

// GetProjectHistory retrieves snapshot history for a project
func (s *Service) GetProjectHistory(projectID string, limit int) ([]models.ProjectSnapshot, error) {
	var snapshots []models.ProjectSnapshot
	query := s.db.Where("project_id = ?", projectID).Order("snapshot_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&snapshots).Error; err != nil {
		return nil, err
	}

	return snapshots, nil
}

// GetRecentChanges retrieves recent milestone changes across all projects
func (s *Service) GetRecentChanges(limit int) ([]models.MilestoneChange, error) {
	var changes []models.MilestoneChange
	query := s.db.Order("detected_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&changes).Error; err != nil {
		return nil, err
	}

	return changes, nil
}

// Helper functions
func datePtrEqual(a, b *time.Time) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.UTC().Truncate(24 * time.Hour).Equal(b.UTC().Truncate(24 * time.Hour))
}

func formatDate(d *time.Time) string {
	if d == nil {
		return "nil"
	}
	return d.Format("2006-01-02")
}
