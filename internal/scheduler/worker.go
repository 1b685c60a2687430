package scheduler

import (
	"fmt"
	"log"
	"solar-ops-portal/internal/backup"
	"solar-ops-portal/internal/database"
	"solar-ops-portal/internal/metrics"
	"solar-ops-portal/internal/models"
	"strings"
	"sync/atomic"
	"time"

	"gorm.io/gorm"
)

// ImportWorker processes import_jobs items in the background so bulk uploads
// never block the request path
type ImportWorker struct {
	db           *gorm.DB
	store        *database.GormDB
	stopChan     chan struct{}
	running      atomic.Bool
	pollInterval time.Duration
}

// NewImportWorker creates a new import worker
func NewImportWorker(db *gorm.DB, pollInterval time.Duration) *ImportWorker {
	if pollInterval <= 0 {
		pollInterval = 15 * time.Second
	}
	return &ImportWorker{
		db:           db,
		store:        database.NewGormDBFromDB(db),
		stopChan:     make(chan struct{}),
		pollInterval: pollInterval,
	}
}

// Start starts the import worker
func (w *ImportWorker) Start() {
	if !w.running.CompareAndSwap(false, true) {
		log.Println("ImportWorker: Already running")
		return
	}

	log.Printf("ImportWorker: Started (poll_interval=%v)", w.pollInterval)

	go w.run()
}

// Stop stops the import worker
func (w *ImportWorker) Stop() {
	if !w.running.CompareAndSwap(true, false) {
		return
	}

	log.Println("ImportWorker: Stopping...")
	close(w.stopChan)
}

// run is the main worker loop
func (w *ImportWorker) run() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			log.Println("ImportWorker: Stopped")
			return
		case <-ticker.C:
			w.processNext()
		}
	}
}

// processNext picks up the next runnable job
func (w *ImportWorker) processNext() {
	var job models.ImportJob
	now := time.Now()

	// Priority 1: Try to get a pending job first
	result := w.db.Where("status = ?", models.ImportStatusPending).
		Order("created_at ASC").
		First(&job)

	// Priority 2: If no pending jobs, try failed jobs with retry time passed
	if result.Error == gorm.ErrRecordNotFound {
		result = w.db.Where("status = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?", models.ImportStatusFailed, now).
			Order("created_at ASC").
			First(&job)
	}

	if result.Error != nil {
		if result.Error != gorm.ErrRecordNotFound {
			log.Printf("ImportWorker: Error fetching next job: %v", result.Error)
		}
		return
	}

	w.processJob(&job)
}

// processJob runs a single import job
func (w *ImportWorker) processJob(job *models.ImportJob) {
	log.Printf("ImportWorker: Processing job id=%d batch=%s kind=%s attempt=%d",
		job.ID, job.BatchID, job.Kind, job.Attempts+1)

	// Mark as processing
	job.Status = models.ImportStatusProcessing
	job.Attempts++
	if err := w.db.Save(job).Error; err != nil {
		log.Printf("ImportWorker: Failed to update status to processing: %v", err)
		return
	}

	var imported, failed, total int
	var err error

	switch job.Kind {
	case models.ImportKindProjects:
		imported, failed, total, err = w.importProjects(job.Payload)
	case models.ImportKindDocuments:
		imported, failed, total, err = w.importDocuments(job.Payload)
	default:
		// Unknown kind never succeeds on retry
		w.failPermanently(job, fmt.Sprintf("unknown import kind %q", job.Kind))
		return
	}

	job.RowsTotal = total
	job.RowsImported = imported
	job.RowsFailed = failed

	if err != nil {
		w.handleImportError(job, err)
		return
	}

	// Done, even if some rows were rejected: row failures are data problems,
	// not job problems
	job.Status = models.ImportStatusDone
	job.LastError = ""
	completedAt := time.Now()
	job.CompletedAt = &completedAt
	job.NextRetryAt = nil

	if err := w.db.Save(job).Error; err != nil {
		log.Printf("ImportWorker: Failed to mark job as done: %v", err)
		return
	}

	// Record the run in the audit trail
	audit := models.AuditLog{
		EntityType: models.AuditEntityBatch,
		EntityID:   job.BatchID,
		Action:     models.AuditActionImport,
		Reason:     models.AuditReasonBulkAdmin,
		Detail:     fmt.Sprintf("kind=%s imported=%d failed=%d total=%d", job.Kind, imported, failed, total),
	}
	if err := w.db.Create(&audit).Error; err != nil {
		log.Printf("ImportWorker: Failed to write audit log: %v", err)
	}

	metrics.IncrementImportJob(job.Kind, job.Status)
	log.Printf("ImportWorker: Completed job id=%d batch=%s imported=%d failed=%d",
		job.ID, job.BatchID, imported, failed)
}

// importProjects parses and upserts project rows
func (w *ImportWorker) importProjects(payload string) (imported, failed, total int, err error) {
	projects, rowErrors, err := backup.ParseProjectsCSV(payload)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("permanent_fail: %w", err)
	}

	total = len(projects) + len(rowErrors)
	failed = len(rowErrors)
	for _, re := range rowErrors {
		log.Printf("ImportWorker: Rejected project row: %v", re)
	}

	for i := range projects {
		if saveErr := w.store.SaveProject(&projects[i]); saveErr != nil {
			log.Printf("ImportWorker: Failed to save project %s: %v", projects[i].Code, saveErr)
			failed++
			continue
		}
		imported++
	}

	return imported, failed, total, nil
}

// importDocuments parses document rows and attaches them to projects by code
func (w *ImportWorker) importDocuments(payload string) (imported, failed, total int, err error) {
	rows, rowErrors, err := backup.ParseDocumentsCSV(payload)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("permanent_fail: %w", err)
	}

	total = len(rows) + len(rowErrors)
	failed = len(rowErrors)
	for _, re := range rowErrors {
		log.Printf("ImportWorker: Rejected document row: %v", re)
	}

	// Resolve project codes once per batch
	idByCode := make(map[string]string)

	for i := range rows {
		row := &rows[i]

		projectID, ok := idByCode[row.ProjectCode]
		if !ok {
			proj, lookupErr := w.store.GetProjectByCode(row.ProjectCode)
			if lookupErr != nil {
				log.Printf("ImportWorker: Unknown project code %q, skipping document row", row.ProjectCode)
				failed++
				continue
			}
			projectID = proj.ID
			idByCode[row.ProjectCode] = projectID
		}

		row.Document.ProjectID = projectID
		if saveErr := w.store.SaveDocument(&row.Document); saveErr != nil {
			log.Printf("ImportWorker: Failed to save document for project %s: %v", row.ProjectCode, saveErr)
			failed++
			continue
		}
		imported++
	}

	return imported, failed, total, nil
}

// handleImportError handles job failures with retry logic
func (w *ImportWorker) handleImportError(job *models.ImportJob, err error) {
	errMsg := err.Error()
	log.Printf("ImportWorker: Job id=%d failed: %v", job.ID, err)

	// Unparseable payloads never succeed on retry
	if strings.Contains(errMsg, "permanent_fail") {
		w.failPermanently(job, errMsg)
		return
	}

	if job.Attempts >= models.MaxImportAttempts {
		// Max retries exceeded
		log.Printf("ImportWorker: Max retries exceeded for job id=%d (%d attempts)", job.ID, job.Attempts)
		job.Status = models.ImportStatusFailed
		job.LastError = fmt.Sprintf("Max retries exceeded (%d): %s", job.Attempts, errMsg)
		completedAt := time.Now()
		job.CompletedAt = &completedAt
		job.NextRetryAt = nil
		metrics.IncrementImportJob(job.Kind, models.ImportStatusFailed)
	} else {
		// Schedule retry with exponential backoff
		delay := models.GetNextRetryDelay(job.Attempts - 1) // -1 because we already incremented Attempts
		nextRetry := time.Now().Add(delay)
		job.Status = models.ImportStatusFailed
		job.LastError = errMsg
		job.NextRetryAt = &nextRetry
		log.Printf("ImportWorker: Scheduling retry for job id=%d in %v (attempt %d/%d)",
			job.ID, delay, job.Attempts, models.MaxImportAttempts)
	}

	if err := w.db.Save(job).Error; err != nil {
		log.Printf("ImportWorker: Failed to save retry status: %v", err)
	}
}

// failPermanently marks a job as permanently failed (no retry)
func (w *ImportWorker) failPermanently(job *models.ImportJob, reason string) {
	log.Printf("ImportWorker: Permanent failure for job id=%d: %s", job.ID, reason)
	job.Status = models.ImportStatusPermanentFail
	job.LastError = reason
	completedAt := time.Now()
	job.CompletedAt = &completedAt
	job.NextRetryAt = nil

	if err := w.db.Save(job).Error; err != nil {
		log.Printf("ImportWorker: Failed to save permanent_fail status: %v", err)
	}
	metrics.IncrementImportJob(job.Kind, models.ImportStatusPermanentFail)
}

// GetQueueStats returns current import queue statistics
func (w *ImportWorker) GetQueueStats() map[string]interface{} {
	var stats struct {
		Pending       int64
		Processing    int64
		Done          int64
		Failed        int64
		PermanentFail int64
	}

	w.db.Model(&models.ImportJob{}).Where("status = ?", models.ImportStatusPending).Count(&stats.Pending)
	w.db.Model(&models.ImportJob{}).Where("status = ?", models.ImportStatusProcessing).Count(&stats.Processing)
	w.db.Model(&models.ImportJob{}).Where("status = ?", models.ImportStatusDone).Count(&stats.Done)
	w.db.Model(&models.ImportJob{}).Where("status = ?", models.ImportStatusFailed).Count(&stats.Failed)
	w.db.Model(&models.ImportJob{}).Where("status = ?", models.ImportStatusPermanentFail).Count(&stats.PermanentFail)

	return map[string]interface{}{
		"pending":        stats.Pending,
		"processing":     stats.Processing,
		"done":           stats.Done,
		"failed":         stats.Failed,
		"permanent_fail": stats.PermanentFail,
		"is_running":     w.running.Load(),
	}
}
