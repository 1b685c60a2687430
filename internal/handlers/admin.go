package handlers

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"solar-ops-portal/internal/backup"
	"solar-ops-portal/internal/cleanup"
	"solar-ops-portal/internal/metrics"
	"solar-ops-portal/internal/models"
	"solar-ops-portal/internal/scheduler"
	"solar-ops-portal/internal/snapshot"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdminHandler handles admin-related requests
type AdminHandler struct {
	db              *gorm.DB
	scheduler       *scheduler.Scheduler
	snapshotService *snapshot.Service
	cleanupService  *cleanup.Service
	maxPayloadBytes int
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB, sched *scheduler.Scheduler, maxPayloadBytes int) *AdminHandler {
	if maxPayloadBytes <= 0 {
		maxPayloadBytes = 10 << 20
	}
	return &AdminHandler{
		db:              db,
		scheduler:       sched,
		snapshotService: snapshot.NewService(db),
		cleanupService:  cleanup.NewService(db),
		maxPayloadBytes: maxPayloadBytes,
	}
}

// GetStats returns system statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats := make(map[string]interface{})

	// Project counts by status
	var activeCount, archivedCount int64
	h.db.Model(&models.Project{}).Where("status = ?", models.ProjectStatusActive).Count(&activeCount)
	h.db.Model(&models.Project{}).Where("status = ?", models.ProjectStatusArchived).Count(&archivedCount)

	stats["projects"] = map[string]interface{}{
		"active":   activeCount,
		"archived": archivedCount,
		"total":    activeCount + archivedCount,
	}

	// Recent update activity (last 24 hours)
	last24h := time.Now().AddDate(0, 0, -1)
	var recentlyUpdated int64
	h.db.Model(&models.Project{}).Where("updated_at >= ?", last24h).Count(&recentlyUpdated)
	stats["recent_activity"] = map[string]interface{}{
		"updated_last_24h": recentlyUpdated,
	}

	// Snapshot statistics
	var snapshotCount int64
	h.db.Model(&models.ProjectSnapshot{}).Count(&snapshotCount)
	stats["snapshots"] = map[string]interface{}{
		"total": snapshotCount,
	}

	// Milestone changes (last 7 days)
	last7days := time.Now().AddDate(0, 0, -7)
	var recentChanges int64
	h.db.Model(&models.MilestoneChange{}).Where("detected_at >= ?", last7days).Count(&recentChanges)
	stats["changes"] = map[string]interface{}{
		"last_7_days": recentChanges,
	}

	// Deletion statistics
	deleteStats, err := h.cleanupService.GetDeleteStats()
	if err != nil {
		log.Printf("Failed to get delete stats: %v", err)
	} else {
		stats["deletions"] = deleteStats
	}

	c.JSON(http.StatusOK, stats)
}

// GetRecentActivity returns recently updated projects
func (h *AdminHandler) GetRecentActivity(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "50")
	limit, _ := strconv.Atoi(limitStr)

	var projects []models.Project
	err := h.db.Order("updated_at DESC").Limit(limit).Find(&projects).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"projects": projects,
		"count":    len(projects),
	})
}

// TriggerSnapshot manually triggers the daily snapshot job
func (h *AdminHandler) TriggerSnapshot(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Scheduler not available (MySQL/GORM required)",
		})
		return
	}

	log.Println("Admin: Manual snapshot trigger requested")

	// Run in goroutine to avoid blocking
	go func() {
		if err := h.scheduler.RunNow(); err != nil {
			log.Printf("Admin: Manual snapshot failed: %v", err)
		} else {
			log.Println("Admin: Manual snapshot completed successfully")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Snapshot job started",
		"status":  "running",
	})
}

// RunCleanup executes physical deletion of old archived projects
func (h *AdminHandler) RunCleanup(c *gin.Context) {
	var req struct {
		RetentionDays    int  `json:"retention_days"`     // Days to keep (default: 90)
		MaxDeletionCount int  `json:"max_deletion_count"` // Safety limit (default: 10000)
		DryRun           bool `json:"dry_run"`            // Dry run mode
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Set defaults
	config := cleanup.DefaultCleanupConfig()
	if req.RetentionDays > 0 {
		config.RetentionDays = req.RetentionDays
	}
	if req.MaxDeletionCount > 0 {
		config.MaxDeletionCount = req.MaxDeletionCount
	}
	config.DryRun = req.DryRun

	log.Printf("Admin: Running cleanup (retention: %d days, max: %d, dry-run: %v)",
		config.RetentionDays, config.MaxDeletionCount, config.DryRun)

	result, err := h.cleanupService.PhysicallyDelete(config)
	if err != nil {
		log.Printf("Admin: Cleanup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("Admin: Cleanup completed: %d/%d deleted (dry-run: %v)",
		result.DeletedCount, result.TargetCount, result.DryRun)

	c.JSON(http.StatusOK, result)
}

// GetAuditLogs returns recent audit log entries
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "100")
	limit, _ := strconv.Atoi(limitStr)

	logs, err := h.cleanupService.GetRecentAuditLogs(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"count": len(logs),
	})
}

// GetProjectHistory returns snapshot history for a project
func (h *AdminHandler) GetProjectHistory(c *gin.Context) {
	projectID := c.Param("id")
	limitStr := c.DefaultQuery("limit", "30")
	limit, _ := strconv.Atoi(limitStr)

	snapshots, err := h.snapshotService.GetProjectHistory(projectID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project_id": projectID,
		"snapshots":  snapshots,
		"count":      len(snapshots),
	})
}

// GetRecentChanges returns recent milestone changes
func (h *AdminHandler) GetRecentChanges(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "100")
	limit, _ := strconv.Atoi(limitStr)

	changes, err := h.snapshotService.GetRecentChanges(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"changes": changes,
		"count":   len(changes),
	})
}

// GetStageDistribution returns active project counts per lifecycle stage
func (h *AdminHandler) GetStageDistribution(c *gin.Context) {
	type StageStat struct {
		Stage string `json:"stage"`
		Count int64  `json:"count"`
	}

	var stats []StageStat
	err := h.db.Model(&models.Project{}).
		Select("stage, count(*) as count").
		Where("status = ?", models.ProjectStatusActive).
		Group("stage").
		Order("count DESC").
		Scan(&stats).Error

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stage_distribution": stats,
		"count":              len(stats),
	})
}

// GetCapacityDistribution returns project counts per capacity range
func (h *AdminHandler) GetCapacityDistribution(c *gin.Context) {
	type CapacityRange struct {
		RangeLabel string  `json:"range_label"`
		MinKw      float64 `json:"min_kw"`
		MaxKw      float64 `json:"max_kw"`
		Count      int64   `json:"count"`
	}

	ranges := []CapacityRange{
		{RangeLabel: "〜10kW", MinKw: 0, MaxKw: 10},
		{RangeLabel: "10〜50kW", MinKw: 10, MaxKw: 50},
		{RangeLabel: "50〜250kW", MinKw: 50, MaxKw: 250},
		{RangeLabel: "250kW〜1MW", MinKw: 250, MaxKw: 1000},
		{RangeLabel: "1MW〜", MinKw: 1000, MaxKw: 1000000},
	}

	for i := range ranges {
		var count int64
		h.db.Model(&models.Project{}).
			Where("status = ? AND capacity_kw >= ? AND capacity_kw < ?",
				models.ProjectStatusActive, ranges[i].MinKw, ranges[i].MaxKw).
			Count(&count)
		ranges[i].Count = count
	}

	c.JSON(http.StatusOK, gin.H{
		"capacity_distribution": ranges,
	})
}

// ExportProjects streams all projects as a CSV download
func (h *AdminHandler) ExportProjects(c *gin.Context) {
	var projects []models.Project
	if err := h.db.Order("code ASC").Find(&projects).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	data, err := backup.ExportProjectsCSV(projects)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.auditExport(models.AuditEntityProject, fmt.Sprintf("rows=%d", len(projects)))
	metrics.IncrementExport("projects")

	filename := backup.ExportFilename("projects", time.Now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// ExportDocuments streams all current documents as a CSV download
func (h *AdminHandler) ExportDocuments(c *gin.Context) {
	var docs []models.ProjectDocument
	if err := h.db.Where("current = ? AND deleted = ?", true, false).
		Order("project_id ASC, id ASC").Find(&docs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var projects []models.Project
	if err := h.db.Select("id, code").Find(&projects).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	codeByID := make(map[string]string, len(projects))
	for _, p := range projects {
		codeByID[p.ID] = p.Code
	}

	data, err := backup.ExportDocumentsCSV(docs, codeByID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.auditExport(models.AuditEntityDocument, fmt.Sprintf("rows=%d", len(docs)))
	metrics.IncrementExport("documents")

	filename := backup.ExportFilename("documents", time.Now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// QueueImport accepts a CSV payload and queues it for the import worker
func (h *AdminHandler) QueueImport(c *gin.Context) {
	kind := c.Param("kind")
	if kind != models.ImportKindProjects && kind != models.ImportKindDocuments {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown import kind %q", kind)})
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, int64(h.maxPayloadBytes)+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(payload) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty payload"})
		return
	}
	if len(payload) > h.maxPayloadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("payload exceeds %d bytes", h.maxPayloadBytes),
		})
		return
	}

	job := models.ImportJob{
		BatchID: uuid.New().String(),
		Kind:    kind,
		Payload: string(payload),
		Status:  models.ImportStatusPending,
	}

	if err := h.db.Create(&job).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("Admin: Queued %s import batch=%s (%d bytes)", kind, job.BatchID, len(payload))

	c.JSON(http.StatusAccepted, gin.H{
		"batch_id": job.BatchID,
		"kind":     kind,
		"status":   job.Status,
	})
}

// GetImportStatus returns the state of an import batch
func (h *AdminHandler) GetImportStatus(c *gin.Context) {
	batchID := c.Param("batch_id")

	var jobs []models.ImportJob
	if err := h.db.Where("batch_id = ?", batchID).Find(&jobs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(jobs) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "batch not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"batch_id": batchID,
		"jobs":     jobs,
	})
}

func (h *AdminHandler) auditExport(entityType, detail string) {
	audit := models.AuditLog{
		EntityType: entityType,
		Action:     models.AuditActionExport,
		Reason:     models.AuditReasonManual,
		Detail:     detail,
	}
	if err := h.db.Create(&audit).Error; err != nil {
		log.Printf("Admin: Failed to write export audit log: %v", err)
	}
}
