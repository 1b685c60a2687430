package scheduler

import (
	"fmt"
	"log"
	"solar-ops-portal/internal/cleanup"
	"solar-ops-portal/internal/config"
	"solar-ops-portal/internal/models"
	"solar-ops-portal/internal/snapshot"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Scheduler handles scheduled snapshot and cleanup tasks
type Scheduler struct {
	cron      *cron.Cron
	db        *gorm.DB
	snapshot  *snapshot.Service
	cleanup   *cleanup.Service
	config    *config.Config
	isRunning bool
}

// NewScheduler creates a new scheduler
func NewScheduler(db *gorm.DB, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		db:       db,
		snapshot: snapshot.NewService(db),
		cleanup:  cleanup.NewService(db),
		config:   cfg,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Snapshot.DailyRunEnabled {
		log.Println("Scheduler: Daily snapshot run is disabled in configuration")
	} else {
		// Parse daily run time (HH:MM format in config)
		cronSpec := s.parseDailyRunTime(s.config.Snapshot.DailyRunTime)

		// Add daily snapshot job
		_, err := s.cron.AddFunc(cronSpec, func() {
			log.Println("Scheduler: Starting daily snapshot job...")
			if err := s.runDailySnapshot(); err != nil {
				log.Printf("Scheduler: Daily snapshot failed: %v", err)
			} else {
				log.Println("Scheduler: Daily snapshot completed successfully")
			}
		})
		if err != nil {
			return err
		}
		log.Printf("Scheduler: Daily snapshot scheduled at %s (cron: %s)", s.config.Snapshot.DailyRunTime, cronSpec)
	}

	if s.config.Cleanup.WeeklyRunEnabled {
		// Sunday 03:00, an hour after the snapshot window
		_, err := s.cron.AddFunc("0 3 * * 0", func() {
			log.Println("Scheduler: Starting weekly cleanup job...")
			if err := s.runWeeklyCleanup(); err != nil {
				log.Printf("Scheduler: Weekly cleanup failed: %v", err)
			} else {
				log.Println("Scheduler: Weekly cleanup completed successfully")
			}
		})
		if err != nil {
			return err
		}
		log.Println("Scheduler: Weekly cleanup scheduled (Sunday 03:00)")
	} else {
		log.Println("Scheduler: Weekly cleanup is disabled in configuration")
	}

	s.cron.Start()
	s.isRunning = true
	log.Println("Scheduler: Started")

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	if s.isRunning {
		s.cron.Stop()
		s.isRunning = false
		log.Println("Scheduler: Stopped")
	}
}

// runDailySnapshot snapshots every active project and records milestone changes
func (s *Scheduler) runDailySnapshot() error {
	var projects []models.Project
	if err := s.db.Where("status = ?", models.ProjectStatusActive).Find(&projects).Error; err != nil {
		return err
	}

	log.Printf("Scheduler: Found %d active projects to snapshot", len(projects))

	successCount := 0
	errorCount := 0
	changedCount := 0

	for i := range projects {
		proj := &projects[i]

		// Detect changes before snapshotting so the count is logged
		changes, err := s.snapshot.DetectChanges(proj)
		if err != nil {
			log.Printf("Scheduler: Failed to detect changes for project %s: %v", proj.ID, err)
		}
		if len(changes) > 0 {
			changedCount++
			log.Printf("Scheduler: Project %s has %d changes", proj.ID, len(changes))
		}

		if err := s.snapshot.CreateSnapshotWithChangeDetection(proj); err != nil {
			log.Printf("Scheduler: Failed to create snapshot for project %s: %v", proj.ID, err)
			errorCount++
			continue
		}

		successCount++
	}

	log.Printf("Scheduler: Daily snapshot completed. Success: %d, Errors: %d, Changed: %d",
		successCount, errorCount, changedCount)

	return nil
}

// runWeeklyCleanup physically deletes archived projects past retention
func (s *Scheduler) runWeeklyCleanup() error {
	cfg := cleanup.DefaultCleanupConfig()
	cfg.RetentionDays = s.config.Cleanup.RetentionDays
	cfg.MaxDeletionCount = s.config.Cleanup.MaxDeletionCount

	result, err := s.cleanup.PhysicallyDelete(cfg)
	if err != nil {
		return err
	}

	log.Printf("Scheduler: Weekly cleanup deleted %d/%d projects (%d errors)",
		result.DeletedCount, result.TargetCount, result.ErrorCount)
	return nil
}

// RunNow immediately executes the daily snapshot job (for manual trigger)
func (s *Scheduler) RunNow() error {
	log.Println("Scheduler: Manual trigger - starting snapshot job...")
	return s.runDailySnapshot()
}

// parseDailyRunTime converts HH:MM format to cron specification
// Example: "02:00" -> "0 2 * * *" (run at 2:00 AM every day)
func (s *Scheduler) parseDailyRunTime(timeStr string) string {
	// timeStr is expected to be in "HH:MM" format
	// Convert to cron format: "minute hour * * *"
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	// Default to 2:00 AM if parsing fails
	log.Printf("Scheduler: Failed to parse time '%s', using default 02:00", timeStr)
	return "0 2 * * *"
}
