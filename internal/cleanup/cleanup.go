package cleanup

import (
	"fmt"
	"log"
	"solar-ops-portal/internal/models"
	"time"

	"gorm.io/gorm"
)

// Service handles physical deletion of old archived projects
type Service struct {
	db *gorm.DB
}

// NewService creates a new cleanup service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CleanupConfig holds configuration for cleanup operations
type CleanupConfig struct {
	RetentionDays    int  // Days to keep archived projects before physical deletion (default: 90)
	MaxDeletionCount int  // Maximum number of projects to delete in one run (safety limit)
	DryRun           bool // If true, only log what would be deleted without actually deleting
	DeleteFromSearch bool // If true, also delete from Meilisearch
}

// DefaultCleanupConfig returns default configuration
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		RetentionDays:    90,
		MaxDeletionCount: 10000,
		DryRun:           false,
		DeleteFromSearch: true,
	}
}

// CleanupResult holds the result of a cleanup operation
type CleanupResult struct {
	TargetCount     int       `json:"target_count"`     // Number of projects eligible for deletion
	DeletedCount    int       `json:"deleted_count"`    // Number of projects actually deleted
	SkippedCount    int       `json:"skipped_count"`    // Number of projects skipped
	ErrorCount      int       `json:"error_count"`      // Number of errors encountered
	DryRun          bool      `json:"dry_run"`          // Whether this was a dry run
	ExecutedAt      time.Time `json:"executed_at"`      // When the cleanup was executed
	DeletedProjects []string  `json:"deleted_projects"` // IDs of deleted projects
	Errors          []string  `json:"errors,omitempty"` // Error messages
}

// FindExpiredProjects finds projects that are eligible for physical deletion
// Projects must be:
// 1. Status = 'archived'
// 2. archived_at is older than retentionDays
func (s *Service) FindExpiredProjects(retentionDays int) ([]models.Project, error) {
	var projects []models.Project

	cutoffDate := time.Now().AddDate(0, 0, -retentionDays)

	err := s.db.Where("status = ? AND archived_at < ?",
		models.ProjectStatusArchived,
		cutoffDate,
	).Find(&projects).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find expired projects: %w", err)
	}

	log.Printf("Found %d projects archived before %s", len(projects), cutoffDate.Format("2006-01-02"))
	return projects, nil
}

// PhysicallyDelete performs physical deletion of archived projects and their
// documents and quotes
func (s *Service) PhysicallyDelete(config CleanupConfig) (*CleanupResult, error) {
	result := &CleanupResult{
		DryRun:     config.DryRun,
		ExecutedAt: time.Now(),
	}

	// Find expired projects
	expiredProjects, err := s.FindExpiredProjects(config.RetentionDays)
	if err != nil {
		return nil, err
	}

	result.TargetCount = len(expiredProjects)

	if result.TargetCount == 0 {
		log.Println("No expired projects found for deletion")
		return result, nil
	}

	// Safety check: abort if too many projects would be deleted
	if result.TargetCount > config.MaxDeletionCount {
		return nil, fmt.Errorf("safety check failed: %d projects exceed max deletion limit of %d",
			result.TargetCount, config.MaxDeletionCount)
	}

	log.Printf("Starting cleanup: %d projects to delete (retention: %d days, dry-run: %v)",
		result.TargetCount, config.RetentionDays, config.DryRun)

	// Process each project
	for _, proj := range expiredProjects {
		if config.DryRun {
			// Dry run: just log what would be deleted
			log.Printf("[DRY-RUN] Would delete project %s (Code: %s, ArchivedAt: %s)",
				proj.ID, proj.Code, proj.ArchivedAt.Format("2006-01-02"))
			result.DeletedProjects = append(result.DeletedProjects, proj.ID)
			result.DeletedCount++
			continue
		}

		// Begin transaction for atomic operation
		tx := s.db.Begin()

		// 1. Create audit log entry
		auditLog := models.AuditLog{
			EntityType: models.AuditEntityProject,
			EntityID:   proj.ID,
			Action:     models.AuditActionDelete,
			Reason:     models.AuditReasonExpired,
			Detail:     fmt.Sprintf("code=%s archived_at=%s", proj.Code, proj.ArchivedAt.Format("2006-01-02")),
		}

		if err := tx.Create(&auditLog).Error; err != nil {
			tx.Rollback()
			errMsg := fmt.Sprintf("Failed to create audit log for project %s: %v", proj.ID, err)
			log.Printf("ERROR: %s", errMsg)
			result.Errors = append(result.Errors, errMsg)
			result.ErrorCount++
			continue
		}

		// 2. Delete associated documents and quotes
		if err := tx.Where("project_id = ?", proj.ID).Delete(&models.ProjectDocument{}).Error; err != nil {
			tx.Rollback()
			errMsg := fmt.Sprintf("Failed to delete documents for project %s: %v", proj.ID, err)
			log.Printf("ERROR: %s", errMsg)
			result.Errors = append(result.Errors, errMsg)
			result.ErrorCount++
			continue
		}
		if err := tx.Where("project_id = ?", proj.ID).Delete(&models.Quote{}).Error; err != nil {
			tx.Rollback()
			errMsg := fmt.Sprintf("Failed to delete quotes for project %s: %v", proj.ID, err)
			log.Printf("ERROR: %s", errMsg)
			result.Errors = append(result.Errors, errMsg)
			result.ErrorCount++
			continue
		}

		// 3. Delete the project record (snapshots are kept for history)
		if err := tx.Delete(&proj).Error; err != nil {
			tx.Rollback()
			errMsg := fmt.Sprintf("Failed to delete project %s: %v", proj.ID, err)
			log.Printf("ERROR: %s", errMsg)
			result.Errors = append(result.Errors, errMsg)
			result.ErrorCount++
			continue
		}

		// Commit transaction
		if err := tx.Commit().Error; err != nil {
			errMsg := fmt.Sprintf("Failed to commit deletion for project %s: %v", proj.ID, err)
			log.Printf("ERROR: %s", errMsg)
			result.Errors = append(result.Errors, errMsg)
			result.ErrorCount++
			continue
		}

		log.Printf("Physically deleted project %s (Code: %s)", proj.ID, proj.Code)
		result.DeletedProjects = append(result.DeletedProjects, proj.ID)
		result.DeletedCount++
	}

	log.Printf("Cleanup completed: %d/%d deleted, %d errors (dry-run: %v)",
		result.DeletedCount, result.TargetCount, result.ErrorCount, config.DryRun)

	return result, nil
}

// GetDeleteStats returns statistics about deleted projects
func (s *Service) GetDeleteStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	// Total deletion audit entries
	var totalDeleted int64
	if err := s.db.Model(&models.AuditLog{}).
		Where("action = ?", models.AuditActionDelete).
		Count(&totalDeleted).Error; err != nil {
		return nil, err
	}
	stats["total_deleted"] = totalDeleted

	// Deletions by reason
	var reasonCounts []struct {
		Reason string
		Count  int64
	}
	if err := s.db.Model(&models.AuditLog{}).
		Select("reason, count(*) as count").
		Where("action = ?", models.AuditActionDelete).
		Group("reason").
		Scan(&reasonCounts).Error; err != nil {
		return nil, err
	}

	reasonMap := make(map[string]int64)
	for _, rc := range reasonCounts {
		reasonMap[rc.Reason] = rc.Count
	}
	stats["by_reason"] = reasonMap

	// Recent deletions (last 30 days)
	var recentDeleted int64
	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	if err := s.db.Model(&models.AuditLog{}).
		Where("action = ? AND created_at >= ?", models.AuditActionDelete, thirtyDaysAgo).
		Count(&recentDeleted).Error; err != nil {
		return nil, err
	}
	stats["deleted_last_30_days"] = recentDeleted

	// Current archived count (pending deletion)
	var currentArchived int64
	if err := s.db.Model(&models.Project{}).
		Where("status = ?", models.ProjectStatusArchived).
		Count(&currentArchived).Error; err != nil {
		return nil, err
	}
	stats["currently_archived"] = currentArchived

	// Expired count (ready for deletion)
	expiredProjects, err := s.FindExpiredProjects(90)
	if err != nil {
		return nil, err
	}
	stats["expired_ready_for_deletion"] = len(expiredProjects)

	return stats, nil
}

// GetRecentAuditLogs returns recent audit log entries
func (s *Service) GetRecentAuditLogs(limit int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := s.db.Order("created_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
