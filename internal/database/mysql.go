package database

import (
	"crypto/md5"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"solar-ops-portal/internal/models"
)

type GormDB struct {
	db *gorm.DB
}

func NewGormDB(host, port, user, password, dbname string) (*GormDB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, err
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &GormDB{db: db}, nil
}

// NewGormDBFromDB creates a GormDB wrapper from an existing gorm.DB instance
func NewGormDBFromDB(db *gorm.DB) *GormDB {
	return &GormDB{db: db}
}

// DB returns the underlying gorm.DB instance
func (gdb *GormDB) DB() *gorm.DB {
	return gdb.db
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the underlying gorm.DB instance
func (gdb *GormDB) GetDB() (*gorm.DB, error) {
	return gdb.db, nil
}

// InitSchema creates tables using GORM AutoMigrate
func (gdb *GormDB) InitSchema() error {
	// AutoMigrate will create tables if they don't exist
	return gdb.db.AutoMigrate(
		&models.Project{},
		&models.ProjectDocument{},
		&models.Quote{},
		&models.ProjectSnapshot{},
		&models.MilestoneChange{},
		&models.AuditLog{},
		&models.ImportJob{},
	)
}

// SaveProject saves or updates a project (upsert by code)
func (gdb *GormDB) SaveProject(p *models.Project) error {
	// Generate ID from normalized code if not set
	if p.ID == "" {
		p.ID = generateMD5(normalizeCode(p.Code))
	}

	// Set default status to active if not set
	if p.Status == "" {
		p.Status = models.ProjectStatusActive
	}
	if p.Stage == "" {
		p.Stage = models.StageSurvey
	}

	// Upsert: try to find existing project by code
	var existing models.Project
	result := gdb.db.Where("code = ?", p.Code).First(&existing)

	if result.Error == gorm.ErrRecordNotFound {
		// Create new
		return gdb.db.Create(p).Error
	} else if result.Error != nil {
		return result.Error
	}

	// Update existing (keep original CreatedAt, Status, and ArchivedAt)
	p.CreatedAt = existing.CreatedAt
	p.ID = existing.ID
	p.Status = existing.Status
	p.ArchivedAt = existing.ArchivedAt
	return gdb.db.Save(p).Error
}

// GetAllProjects retrieves all projects, newest first
func (gdb *GormDB) GetAllProjects() ([]models.Project, error) {
	var projects []models.Project
	err := gdb.db.Order("created_at DESC").Find(&projects).Error
	return projects, err
}

// GetActiveProjects retrieves all active (non-archived) projects
func (gdb *GormDB) GetActiveProjects() ([]models.Project, error) {
	var projects []models.Project
	err := gdb.db.Where("status = ?", models.ProjectStatusActive).Order("created_at DESC").Find(&projects).Error
	return projects, err
}

// GetProjectByID retrieves a project by ID
func (gdb *GormDB) GetProjectByID(id string) (*models.Project, error) {
	var project models.Project
	err := gdb.db.Where("id = ?", id).First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// GetProjectByCode retrieves a project by its unique code
func (gdb *GormDB) GetProjectByCode(code string) (*models.Project, error) {
	var project models.Project
	err := gdb.db.Where("code = ?", code).First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// GetProjectsByIDs retrieves projects in the order the IDs were given.
// Comparison runs depend on that order: the first selected project is the
// baseline.
func (gdb *GormDB) GetProjectsByIDs(ids []string) ([]models.Project, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var projects []models.Project
	if err := gdb.db.Where("id IN ?", ids).Find(&projects).Error; err != nil {
		return nil, err
	}

	byID := make(map[string]models.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}

	ordered := make([]models.Project, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// ProjectFilters are the list endpoint's query parameters
type ProjectFilters struct {
	Stage  string
	Status string
	Query  string
	SortBy string
	Limit  int
	Offset int
}

// ProjectPage is one page of the project listing
type ProjectPage struct {
	Projects []models.Project `json:"projects"`
	Total    int64            `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// ListProjects retrieves projects with filters and pagination
func (gdb *GormDB) ListProjects(filters ProjectFilters) (*ProjectPage, error) {
	query := gdb.db.Model(&models.Project{})

	if filters.Stage != "" {
		query = query.Where("stage = ?", filters.Stage)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	} else {
		query = query.Where("status = ?", models.ProjectStatusActive)
	}
	if filters.Query != "" {
		like := "%" + filters.Query + "%"
		query = query.Where("code LIKE ? OR name LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var orderClause string
	switch filters.SortBy {
	case "code":
		orderClause = "code ASC"
	case "contract_signed_asc":
		orderClause = "CASE WHEN contract_signed_date IS NULL THEN 1 ELSE 0 END, contract_signed_date ASC"
	case "contract_signed_desc":
		orderClause = "CASE WHEN contract_signed_date IS NULL THEN 1 ELSE 0 END, contract_signed_date DESC"
	case "oldest":
		orderClause = "created_at ASC"
	default:
		// Default to newest first
		orderClause = "created_at DESC"
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	var projects []models.Project
	err := query.Order(orderClause).Limit(limit).Offset(filters.Offset).Find(&projects).Error
	if err != nil {
		return nil, err
	}

	return &ProjectPage{
		Projects: projects,
		Total:    total,
		Limit:    limit,
		Offset:   filters.Offset,
	}, nil
}

// MarkProjectAsArchived marks a project as archived (logical deletion)
func (gdb *GormDB) MarkProjectAsArchived(id string) error {
	now := time.Now()
	return gdb.db.Model(&models.Project{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      models.ProjectStatusArchived,
			"archived_at": &now,
		}).Error
}

// GetProjectDocuments retrieves the current, non-deleted documents of a project
func (gdb *GormDB) GetProjectDocuments(projectID string) ([]models.ProjectDocument, error) {
	var docs []models.ProjectDocument
	err := gdb.db.Where("project_id = ? AND current = ? AND deleted = ?", projectID, true, false).
		Order("id ASC").
		Find(&docs).Error
	return docs, err
}

// GetDocumentsForProjects retrieves current documents for a set of projects,
// grouped by project ID
func (gdb *GormDB) GetDocumentsForProjects(projectIDs []string) (map[string][]models.ProjectDocument, error) {
	grouped := make(map[string][]models.ProjectDocument, len(projectIDs))
	if len(projectIDs) == 0 {
		return grouped, nil
	}

	var docs []models.ProjectDocument
	err := gdb.db.Where("project_id IN ? AND current = ? AND deleted = ?", projectIDs, true, false).
		Order("id ASC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}

	for _, d := range docs {
		grouped[d.ProjectID] = append(grouped[d.ProjectID], d)
	}
	return grouped, nil
}

// SaveDocument stores a document, superseding any current document of the
// same type code for the project
func (gdb *GormDB) SaveDocument(doc *models.ProjectDocument) error {
	return gdb.db.Transaction(func(tx *gorm.DB) error {
		if doc.TypeCode != "" {
			err := tx.Model(&models.ProjectDocument{}).
				Where("project_id = ? AND type_code = ? AND current = ?", doc.ProjectID, doc.TypeCode, true).
				Update("current", false).Error
			if err != nil {
				return err
			}
		}
		doc.Current = true
		return tx.Create(doc).Error
	})
}

// GetProjectQuotes retrieves all quotes for a project, newest first
func (gdb *GormDB) GetProjectQuotes(projectID string) ([]models.Quote, error) {
	var quotes []models.Quote
	err := gdb.db.Where("project_id = ?", projectID).Order("created_at DESC").Find(&quotes).Error
	return quotes, err
}

// SaveQuote stores a quote
func (gdb *GormDB) SaveQuote(q *models.Quote) error {
	if q.Status == "" {
		q.Status = models.QuoteStatusDraft
	}
	return gdb.db.Create(q).Error
}

// normalizeCode normalizes a project code for consistent ID generation
func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// generateMD5 generates MD5 hash for a string
func generateMD5(text string) string {
	hash := md5.Sum([]byte(text))
	return fmt.Sprintf("%x", hash)
}
