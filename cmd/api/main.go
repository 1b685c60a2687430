package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"solar-ops-portal/internal/config"
	"solar-ops-portal/internal/database"
	"solar-ops-portal/internal/handlers"
	"solar-ops-portal/internal/metrics"
	"solar-ops-portal/internal/models"
	"solar-ops-portal/internal/ratelimit"
	"solar-ops-portal/internal/scheduler"
	"solar-ops-portal/internal/search"
	"solar-ops-portal/internal/snapshot"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	db              *database.DB
	gormDB          *database.GormDB
	searchClient    *search.SearchClient
	appConfig       *config.Config
	rateLimiter     *ratelimit.RateLimiter
	appScheduler    *scheduler.Scheduler
	importWorker    *scheduler.ImportWorker
	snapshotService *snapshot.Service
)

func main() {
	// Load .env if present (local development)
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	// Load configuration
	configPath := getEnv("CONFIG_PATH", "/app/config/portal_config.yaml")
	var err error
	appConfig, err = config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	} else {
		log.Printf("Loaded configuration from %s", configPath)
	}

	// Initialize database based on configuration
	dbType := appConfig.Database.Type
	if dbType == "" {
		dbType = getEnv("DB_TYPE", "mysql")
	}

	if dbType == "mysql" {
		log.Println("Using MySQL with GORM")
		mysqlCfg := appConfig.Database.MySQL

		// Get port as string, handle 0 as empty
		portStr := ""
		if mysqlCfg.Port > 0 {
			portStr = fmt.Sprintf("%d", mysqlCfg.Port)
		}

		gormDB, err = database.NewGormDB(
			getEnvOrConfig(mysqlCfg.Host, "DB_HOST", "mysql"),
			getEnvOrConfig(portStr, "DB_PORT", "3306"),
			getEnvOrConfig(mysqlCfg.User, "DB_USER", "solarops_user"),
			getEnvOrConfig(mysqlCfg.Password, "DB_PASSWORD", "solarops_pass"),
			getEnvOrConfig(mysqlCfg.Database, "DB_NAME", "solarops_db"),
		)
		if err != nil {
			log.Fatalf("Failed to connect to MySQL: %v", err)
		}
		defer gormDB.Close()

		// Initialize schema with GORM AutoMigrate
		if err := gormDB.InitSchema(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
	} else {
		log.Println("Using PostgreSQL")
		pgCfg := appConfig.Database.Postgres

		portStr := ""
		if pgCfg.Port > 0 {
			portStr = fmt.Sprintf("%d", pgCfg.Port)
		}

		db, err = database.NewDB(
			getEnvOrConfig(pgCfg.Host, "DB_HOST", "db"),
			getEnvOrConfig(portStr, "DB_PORT", "5432"),
			getEnvOrConfig(pgCfg.User, "DB_USER", "solarops_user"),
			getEnvOrConfig(pgCfg.Password, "DB_PASSWORD", "solarops_pass"),
			getEnvOrConfig(pgCfg.Database, "DB_NAME", "solarops_db"),
		)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		// Initialize schema
		if err := db.InitSchema(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
	}

	// Initialize Meilisearch using config
	meilisearchHost := appConfig.Search.Meilisearch.Host
	if meilisearchHost == "" {
		meilisearchHost = getEnv("MEILISEARCH_HOST", "http://meilisearch:7700")
	}
	meilisearchKey := appConfig.Search.Meilisearch.APIKey
	if meilisearchKey == "" {
		meilisearchKey = getEnv("MEILISEARCH_KEY", "masterKey123")
	}

	searchClient = search.NewSearchClient(meilisearchHost, meilisearchKey)

	// Wait for Meilisearch to be ready
	time.Sleep(2 * time.Second)

	if err := searchClient.InitIndex(); err != nil {
		log.Printf("Warning: Failed to initialize search index: %v", err)
	}

	// Initialize rate limiter
	rateLimiter = ratelimit.NewRateLimiter(
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.RequestsPerDay,
		appConfig.RateLimit.Enabled,
	)
	log.Printf("Rate limiter initialized: %d req/min, %d req/hour, %d req/day (enabled: %v)",
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.RequestsPerDay,
		appConfig.RateLimit.Enabled,
	)

	// Initialize snapshot service (MySQL only)
	if gormDB != nil {
		sqlDB, _ := gormDB.GetDB()
		snapshotService = snapshot.NewService(sqlDB)
		log.Println("Snapshot service initialized")
	}

	// Initialize and start scheduler (MySQL only)
	if gormDB != nil {
		sqlDB, _ := gormDB.GetDB()
		appScheduler = scheduler.NewScheduler(sqlDB, appConfig)
		if err := appScheduler.Start(); err != nil {
			log.Printf("Warning: Failed to start scheduler: %v", err)
		}
		defer appScheduler.Stop()

		// Initialize and start import worker
		importWorker = scheduler.NewImportWorker(sqlDB, appConfig.Import.GetPollInterval())
		importWorker.Start()
		defer importWorker.Stop()
		log.Println("Import worker started")
	}

	// Setup Gin router
	r := gin.Default()

	// CORS configuration
	allowOrigins := appConfig.Server.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:5176"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Use(metricsMiddleware())

	// Routes
	r.GET("/health", healthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/api/projects", getProjects)
	r.POST("/api/projects", createProject)
	r.GET("/api/projects/:id", getProject)
	r.PUT("/api/projects/:id", updateProject)
	r.DELETE("/api/projects/:id", archiveProject)

	r.GET("/api/projects/:id/documents", getProjectDocuments)
	r.POST("/api/projects/:id/documents", createDocument)
	r.DELETE("/api/documents/:id", deleteDocument)

	r.GET("/api/projects/:id/quotes", getProjectQuotes)
	r.POST("/api/projects/:id/quotes", createQuote)
	r.GET("/api/projects/:id/quotes/compare", compareQuotes)

	// Comparison routes with rate limiting
	var comparisonStore handlers.ComparisonStore
	if gormDB != nil {
		comparisonStore = gormDB
	} else {
		comparisonStore = db
	}
	comparisonHandler := handlers.NewComparisonHandler(comparisonStore)
	r.POST("/api/compare", rateLimitMiddleware(), comparisonHandler.Compare)
	r.POST("/api/compare/csv", rateLimitMiddleware(), comparisonHandler.CompareCSV)
	r.POST("/api/compare/report", rateLimitMiddleware(), comparisonHandler.CompareReport)

	// Rate limiter stats endpoint
	r.GET("/api/ratelimit/stats", getRateLimitStats)

	// Scheduler and snapshot endpoints
	r.POST("/api/scheduler/run", triggerScheduledSnapshot)
	r.GET("/api/projects/:id/history", getProjectHistory)
	r.GET("/api/changes/recent", getRecentChanges)

	// Import worker stats endpoint
	r.GET("/api/queue/stats", getQueueStats)

	r.GET("/api/search", searchProjects)
	r.POST("/api/search/advanced", advancedSearchProjects)
	r.GET("/api/search/facets", getSearchFacets)
	r.POST("/api/search/reindex", reindexAllProjects)
	r.GET("/api/filter", filterProjects)

	// Admin API routes (requires authentication in production)
	if gormDB != nil {
		sqlDB, _ := gormDB.GetDB()
		adminHandler := handlers.NewAdminHandler(sqlDB, appScheduler, appConfig.Import.MaxPayloadBytes)

		admin := r.Group("/api/admin")
		{
			// Statistics
			admin.GET("/stats", adminHandler.GetStats)
			admin.GET("/activity", adminHandler.GetRecentActivity)
			admin.GET("/stage-distribution", adminHandler.GetStageDistribution)
			admin.GET("/capacity-distribution", adminHandler.GetCapacityDistribution)

			// Snapshot control
			admin.POST("/snapshot/trigger", adminHandler.TriggerSnapshot)

			// Cleanup operations
			admin.POST("/cleanup/run", adminHandler.RunCleanup)
			admin.GET("/cleanup/logs", adminHandler.GetAuditLogs)

			// Project history
			admin.GET("/projects/:id/history", adminHandler.GetProjectHistory)
			admin.GET("/changes/recent", adminHandler.GetRecentChanges)

			// Bulk export and import
			admin.GET("/export/projects", adminHandler.ExportProjects)
			admin.GET("/export/documents", adminHandler.ExportDocuments)
			admin.POST("/import/:kind", rateLimitMiddleware(), adminHandler.QueueImport)
			admin.GET("/import/status/:batch_id", adminHandler.GetImportStatus)
		}

		log.Println("Admin API routes registered at /api/admin/*")
	}

	port := getEnv("PORT", strconv.Itoa(appConfig.Server.Port))
	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now(),
	})
}

func getProjects(c *gin.Context) {
	// Build filters from query parameters
	filters := database.ProjectFilters{
		Stage:  c.Query("stage"),
		Status: c.Query("status"),
		Query:  c.Query("q"),
		SortBy: c.DefaultQuery("sort", "newest"),
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, parseErr := strconv.Atoi(limitStr); parseErr == nil && limit > 0 {
			filters.Limit = limit
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if offset, parseErr := strconv.Atoi(offsetStr); parseErr == nil && offset >= 0 {
			filters.Offset = offset
		}
	}

	if gormDB != nil {
		start := time.Now()
		result, err := gormDB.ListProjects(filters)
		duration := time.Since(start)

		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// Log listing performance for monitoring
		log.Printf("[Projects API] duration_ms=%d total=%d limit=%d sort=%s",
			duration.Milliseconds(), result.Total, result.Limit, filters.SortBy)

		c.JSON(http.StatusOK, result)
		return
	}

	// Legacy fallback (should not be reached in production)
	projects, err := db.GetAllProjects()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, projects)
}

func getProject(c *gin.Context) {
	id := c.Param("id")
	var project *models.Project
	var err error

	if gormDB != nil {
		project, err = gormDB.GetProjectByID(id)
	} else {
		project, err = db.GetProjectByID(id)
	}

	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	// Fetch documents and quotes if using GORM
	var documents []models.ProjectDocument
	var quotes []models.Quote
	if gormDB != nil {
		documents, _ = gormDB.GetProjectDocuments(id)
		quotes, _ = gormDB.GetProjectQuotes(id)
	}

	response := gin.H{
		"project":   project,
		"documents": documents,
		"quotes":    quotes,
	}

	c.JSON(http.StatusOK, response)
}

// projectRequest carries project fields with dates in YYYY-MM-DD form
type projectRequest struct {
	Code                  string   `json:"code" binding:"required"`
	Name                  string   `json:"name" binding:"required"`
	SiteAddress           string   `json:"site_address"`
	CapacityKw            *float64 `json:"capacity_kw"`
	Stage                 string   `json:"stage"`
	SurveyDate            string   `json:"survey_date"`
	ContractSignedDate    string   `json:"contract_signed_date"`
	StructuralCertDate    string   `json:"structural_cert_date"`
	ElectricalCertDate    string   `json:"electrical_cert_date"`
	ConstructionStartDate string   `json:"construction_start_date"`
	MeterInstalledDate    string   `json:"meter_installed_date"`
}

func (r *projectRequest) toModel() (*models.Project, error) {
	p := &models.Project{
		Code:        r.Code,
		Name:        r.Name,
		SiteAddress: r.SiteAddress,
		CapacityKw:  r.CapacityKw,
		Stage:       models.ProjectStage(r.Stage),
	}

	dates := []struct {
		value string
		dst   **time.Time
	}{
		{r.SurveyDate, &p.SurveyDate},
		{r.ContractSignedDate, &p.ContractSignedDate},
		{r.StructuralCertDate, &p.StructuralCertDate},
		{r.ElectricalCertDate, &p.ElectricalCertDate},
		{r.ConstructionStartDate, &p.ConstructionStartDate},
		{r.MeterInstalledDate, &p.MeterInstalledDate},
	}
	for _, d := range dates {
		parsed, err := parseDateParam(d.value)
		if err != nil {
			return nil, err
		}
		*d.dst = parsed
	}

	return p, nil
}

func createProject(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := req.toModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if gormDB != nil {
		err = gormDB.SaveProject(project)
	} else {
		err = db.SaveProject(project)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Index in Meilisearch
	if err := searchClient.IndexProject(project); err != nil {
		log.Printf("Warning: Failed to index project: %v", err)
	}

	c.JSON(http.StatusOK, project)
}

func updateProject(c *gin.Context) {
	id := c.Param("id")

	var existing *models.Project
	var err error
	if gormDB != nil {
		existing, err = gormDB.GetProjectByID(id)
	} else {
		existing, err = db.GetProjectByID(id)
	}
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := req.toModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Code changes are not supported: the code determines the ID
	if project.Code != existing.Code {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project code cannot be changed"})
		return
	}
	project.ID = existing.ID
	project.CreatedAt = existing.CreatedAt
	project.Status = existing.Status
	project.ArchivedAt = existing.ArchivedAt

	if gormDB != nil {
		err = gormDB.SaveProject(project)
	} else {
		err = db.SaveProject(project)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := searchClient.IndexProject(project); err != nil {
		log.Printf("Warning: Failed to index project: %v", err)
	}

	c.JSON(http.StatusOK, project)
}

func archiveProject(c *gin.Context) {
	if gormDB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Archival requires MySQL/GORM"})
		return
	}

	id := c.Param("id")

	project, err := gormDB.GetProjectByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}
	if !project.IsActive() {
		c.JSON(http.StatusConflict, gin.H{"error": "Project is already archived"})
		return
	}

	if err := gormDB.MarkProjectAsArchived(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Audit the archival
	audit := models.AuditLog{
		EntityType: models.AuditEntityProject,
		EntityID:   id,
		Action:     models.AuditActionArchive,
		Reason:     models.AuditReasonManual,
		Detail:     fmt.Sprintf("code=%s", project.Code),
	}
	if err := gormDB.DB().Create(&audit).Error; err != nil {
		log.Printf("Warning: Failed to write audit log: %v", err)
	}

	// Drop from search index so archived projects stop matching
	if err := searchClient.DeleteProject(id); err != nil {
		log.Printf("Warning: Failed to remove project from search index: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     id,
		"status": models.ProjectStatusArchived,
	})
}

func getProjectDocuments(c *gin.Context) {
	id := c.Param("id")

	var documents []models.ProjectDocument
	var err error
	if gormDB != nil {
		documents, err = gormDB.GetProjectDocuments(id)
	} else {
		grouped, gerr := db.GetDocumentsForProjects([]string{id})
		documents, err = grouped[id], gerr
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project_id": id,
		"documents":  documents,
		"count":      len(documents),
	})
}

func createDocument(c *gin.Context) {
	if gormDB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Document writes require MySQL/GORM"})
		return
	}

	projectID := c.Param("id")
	if _, err := gormDB.GetProjectByID(projectID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	var req struct {
		TypeCode    string `json:"type_code"`
		TypeLabel   string `json:"type_label"`
		Title       string `json:"title"`
		SubmittedAt string `json:"submitted_at"`
		IssuedAt    string `json:"issued_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.TypeCode == "" && req.TypeLabel == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type_code or type_label is required"})
		return
	}

	submittedAt, err := parseDateParam(req.SubmittedAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	issuedAt, err := parseDateParam(req.IssuedAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc := models.ProjectDocument{
		ProjectID:   projectID,
		TypeCode:    req.TypeCode,
		TypeLabel:   req.TypeLabel,
		Title:       req.Title,
		SubmittedAt: submittedAt,
		IssuedAt:    issuedAt,
	}

	if err := gormDB.SaveDocument(&doc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, doc)
}

func deleteDocument(c *gin.Context) {
	if gormDB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Document writes require MySQL/GORM"})
		return
	}

	id := c.Param("id")

	var doc models.ProjectDocument
	if err := gormDB.DB().First(&doc, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	// Soft delete: the row stays for history but leaves timeline resolution
	if err := gormDB.DB().Model(&doc).Update("deleted", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	audit := models.AuditLog{
		EntityType: models.AuditEntityDocument,
		EntityID:   id,
		Action:     models.AuditActionDelete,
		Reason:     models.AuditReasonManual,
		Detail:     fmt.Sprintf("project_id=%s type_code=%s", doc.ProjectID, doc.TypeCode),
	}
	if err := gormDB.DB().Create(&audit).Error; err != nil {
		log.Printf("Warning: Failed to write audit log: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "deleted": true})
}

func getProjectQuotes(c *gin.Context) {
	if gormDB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Quotes require MySQL/GORM"})
		return
	}

	id := c.Param("id")
	quotes, err := gormDB.GetProjectQuotes(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project_id": id,
		"quotes":     quotes,
		"count":      len(quotes),
	})
}

func createQuote(c *gin.Context) {
	if gormDB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Quotes require MySQL/GORM"})
		return
	}

	projectID := c.Param("id")
	if _, err := gormDB.GetProjectByID(projectID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	var req struct {
		Reference  string   `json:"reference" binding:"required"`
		Vendor     string   `json:"vendor"`
		SystemKw   *float64 `json:"system_kw"`
		TotalPrice int      `json:"total_price" binding:"required"`
		Status     string   `json:"status"`
		ValidUntil string   `json:"valid_until"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	validUntil, err := parseDateParam(req.ValidUntil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quote := models.Quote{
		ProjectID:  projectID,
		Reference:  req.Reference,
		Vendor:     req.Vendor,
		SystemKw:   req.SystemKw,
		TotalPrice: req.TotalPrice,
		Status:     models.QuoteStatus(req.Status),
		ValidUntil: validUntil,
	}

	if err := gormDB.SaveQuote(&quote); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, quote)
}

// compareQuotes ranks a project's quotes by unit price
func compareQuotes(c *gin.Context) {
	if gormDB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Quotes require MySQL/GORM"})
		return
	}

	projectID := c.Param("id")
	if _, err := gormDB.GetProjectByID(projectID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	quotes, err := gormDB.GetProjectQuotes(projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	type quoteRow struct {
		models.Quote
		PricePerKw *float64 `json:"price_per_kw,omitempty"`
		Cheapest   bool     `json:"cheapest"`
	}

	rows := make([]quoteRow, len(quotes))
	cheapest := -1
	for i := range quotes {
		rows[i] = quoteRow{Quote: quotes[i], PricePerKw: quotes[i].PricePerKw()}
		// Rejected quotes stay in the listing but never win
		if quotes[i].Status == models.QuoteStatusRejected || rows[i].PricePerKw == nil {
			continue
		}
		if cheapest < 0 || *rows[i].PricePerKw < *rows[cheapest].PricePerKw {
			cheapest = i
		}
	}
	if cheapest >= 0 {
		rows[cheapest].Cheapest = true
	}

	c.JSON(http.StatusOK, gin.H{
		"project_id": projectID,
		"quotes":     rows,
		"count":      len(rows),
	})
}

func searchProjects(c *gin.Context) {
	query := c.Query("q")
	limitStr := c.DefaultQuery("limit", "20")

	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil {
		limit = 20
	}

	// If no query, get all from database
	if query == "" {
		var projects []models.Project
		var err error

		if gormDB != nil {
			projects, err = gormDB.GetAllProjects()
		} else {
			projects, err = db.GetAllProjects()
		}

		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, projects)
		return
	}

	// Search using Meilisearch
	projects, err := searchClient.Search(query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, projects)
}

func filterProjects(c *gin.Context) {
	query := c.Query("q")
	limitStr := c.DefaultQuery("limit", "20")

	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil {
		limit = 20
	}

	// Parse filter parameters
	params := search.FilterParams{
		Query:  query,
		Status: c.Query("status"),
		Limit:  limit,
	}

	// Stages
	if stages := c.QueryArray("stage"); len(stages) > 0 {
		params.Stages = stages
	}

	// Capacity range
	if minKwStr := c.Query("min_capacity_kw"); minKwStr != "" {
		if minKw, err := strconv.ParseFloat(minKwStr, 64); err == nil {
			params.MinCapacityKw = &minKw
		}
	}
	if maxKwStr := c.Query("max_capacity_kw"); maxKwStr != "" {
		if maxKw, err := strconv.ParseFloat(maxKwStr, 64); err == nil {
			params.MaxCapacityKw = &maxKw
		}
	}

	// Sort by
	if sortBy := c.Query("sort_by"); sortBy != "" {
		params.SortBy = sortBy
	}

	// If no query and no filters, get all from database
	if query == "" && len(params.Stages) == 0 && params.Status == "" &&
		params.MinCapacityKw == nil && params.MaxCapacityKw == nil {
		var projects []models.Project
		var err error

		if gormDB != nil {
			projects, err = gormDB.GetAllProjects()
		} else {
			projects, err = db.GetAllProjects()
		}

		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, projects)
		return
	}

	// Search with filters using Meilisearch
	projects, err := searchClient.FilterSearch(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, projects)
}

// advancedSearchProjects performs advanced search with filters and facets
func advancedSearchProjects(c *gin.Context) {
	var reqBody struct {
		Query         string   `json:"query"`
		Limit         int64    `json:"limit"`
		Offset        int64    `json:"offset"`
		Stages        []string `json:"stages"`
		Status        string   `json:"status"`
		MinCapacityKw *float64 `json:"min_capacity_kw"`
		MaxCapacityKw *float64 `json:"max_capacity_kw"`
		Sort          string   `json:"sort"` // "code_asc", "capacity_desc", etc.
		Facets        []string `json:"facets"`
	}

	if err := c.ShouldBindJSON(&reqBody); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Build filter conditions
	filters := []string{}

	if len(reqBody.Stages) > 0 {
		stageFilters := make([]string, len(reqBody.Stages))
		for i, stage := range reqBody.Stages {
			stageFilters[i] = fmt.Sprintf("stage = '%s'", stage)
		}
		filters = append(filters, "("+strings.Join(stageFilters, " OR ")+")")
	}
	if reqBody.Status != "" {
		filters = append(filters, fmt.Sprintf("status = '%s'", reqBody.Status))
	}
	if reqBody.MinCapacityKw != nil {
		filters = append(filters, fmt.Sprintf("capacity_kw >= %f", *reqBody.MinCapacityKw))
	}
	if reqBody.MaxCapacityKw != nil {
		filters = append(filters, fmt.Sprintf("capacity_kw <= %f", *reqBody.MaxCapacityKw))
	}

	// Build sort conditions
	sortConditions := []string{}
	if reqBody.Sort != "" {
		switch reqBody.Sort {
		case "code_asc":
			sortConditions = append(sortConditions, "code:asc")
		case "capacity_asc":
			sortConditions = append(sortConditions, "capacity_kw:asc")
		case "capacity_desc":
			sortConditions = append(sortConditions, "capacity_kw:desc")
		case "signed_asc":
			sortConditions = append(sortConditions, "contract_signed_date:asc")
		case "newest":
			sortConditions = append(sortConditions, "created_at:desc")
		}
	}

	// Default facets
	facets := reqBody.Facets
	if len(facets) == 0 {
		facets = []string{"stage", "status"}
	}

	// Perform search
	searchReq := search.SearchRequest{
		Query:        reqBody.Query,
		Limit:        reqBody.Limit,
		Offset:       reqBody.Offset,
		Filter:       filters,
		Sort:         sortConditions,
		FacetsFilter: facets,
	}

	if searchReq.Limit == 0 {
		searchReq.Limit = 20
	}

	result, err := searchClient.AdvancedSearch(searchReq)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hits":            result.Hits,
		"total_hits":      result.TotalHits,
		"facets":          result.Facets,
		"processing_time": result.ProcessingTime,
		"query":           reqBody.Query,
		"filters":         filters,
	})
}

// getSearchFacets retrieves facet distributions
func getSearchFacets(c *gin.Context) {
	facetsParam := c.DefaultQuery("facets", "stage,status")
	facets := strings.Split(facetsParam, ",")

	facetDist, err := searchClient.GetFacets(facets)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"facets": facetDist,
	})
}

// reindexAllProjects re-indexes all projects from database to Meilisearch
func reindexAllProjects(c *gin.Context) {
	log.Println("[Reindex] Starting full reindex of all projects")

	var projects []models.Project
	var err error

	if gormDB != nil {
		projects, err = gormDB.GetActiveProjects()
	} else {
		projects, err = db.GetAllProjects()
	}

	if err != nil {
		log.Printf("[Reindex] Error fetching projects from database: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch projects from database",
		})
		return
	}

	log.Printf("[Reindex] Found %d projects in database", len(projects))

	// Index all projects to Meilisearch
	successCount := 0
	failCount := 0

	for i, project := range projects {
		if err := searchClient.IndexProject(&project); err != nil {
			log.Printf("[Reindex] Error indexing project %d (%s): %v", i+1, project.ID, err)
			failCount++
		} else {
			successCount++
		}

		// Log progress every 100 projects
		if (i+1)%100 == 0 {
			log.Printf("[Reindex] Progress: %d/%d indexed", i+1, len(projects))
		}
	}

	log.Printf("[Reindex] Reindex complete. Success: %d, Failed: %d", successCount, failCount)

	c.JSON(http.StatusOK, gin.H{
		"message": "Reindex complete",
		"total":   len(projects),
		"indexed": successCount,
		"failed":  failCount,
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrConfig returns config value if set, otherwise falls back to environment variable, then default
func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, defaultValue)
}

func parseDateParam(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return &t, nil
}

// rateLimitMiddleware returns a Gin middleware that enforces rate limiting
func rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rateLimiter.AllowRequest() {
			stats := rateLimiter.GetStats()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Rate limit exceeded",
				"message": "Too many requests. Please try again later.",
				"stats":   stats,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// metricsMiddleware records request durations for Prometheus
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}

// getRateLimitStats returns current rate limiter statistics
func getRateLimitStats(c *gin.Context) {
	stats := rateLimiter.GetStats()
	c.JSON(http.StatusOK, stats)
}

// getQueueStats returns current import queue statistics
func getQueueStats(c *gin.Context) {
	if importWorker == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Import worker is not available (requires MySQL/GORM)",
		})
		return
	}

	stats := importWorker.GetQueueStats()
	c.JSON(http.StatusOK, stats)
}

// triggerScheduledSnapshot manually triggers the scheduled snapshot job
func triggerScheduledSnapshot(c *gin.Context) {
	if appScheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Scheduler is not available (requires MySQL/GORM)",
		})
		return
	}

	// Run in background to avoid timeout
	go func() {
		if err := appScheduler.RunNow(); err != nil {
			log.Printf("Manual snapshot run failed: %v", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Scheduled snapshot job started in background",
		"status":  "running",
	})
}

// getProjectHistory retrieves snapshot history for a project
func getProjectHistory(c *gin.Context) {
	if snapshotService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Snapshot service is not available (requires MySQL/GORM)",
		})
		return
	}

	projectID := c.Param("id")
	limitStr := c.DefaultQuery("limit", "30")
	limit, _ := strconv.Atoi(limitStr)

	snapshots, err := snapshotService.GetProjectHistory(projectID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project_id": projectID,
		"count":      len(snapshots),
		"snapshots":  snapshots,
	})
}

// getRecentChanges retrieves recent milestone changes
func getRecentChanges(c *gin.Context) {
	if snapshotService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Snapshot service is not available (requires MySQL/GORM)",
		})
		return
	}

	limitStr := c.DefaultQuery("limit", "50")
	limit, _ := strconv.Atoi(limitStr)

	changes, err := snapshotService.GetRecentChanges(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(changes),
		"changes": changes,
	})
}
