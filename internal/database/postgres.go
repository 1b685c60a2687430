package database

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"solar-ops-portal/internal/models"
)

type DB struct {
	conn *sql.DB
}

func NewDB(host, port, user, password, dbname string) (*DB, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// InitSchema creates the core tables if they don't exist
func (db *DB) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS projects (
		id VARCHAR(32) PRIMARY KEY,
		code VARCHAR(50) NOT NULL UNIQUE,
		name TEXT NOT NULL,
		site_address TEXT,
		capacity_kw DECIMAL(10, 2),
		stage VARCHAR(20) NOT NULL DEFAULT 'survey',

		-- Direct milestone dates
		survey_date DATE,
		contract_signed_date DATE,
		structural_cert_date DATE,
		electrical_cert_date DATE,
		construction_start_date DATE,
		meter_installed_date DATE,

		status VARCHAR(20) NOT NULL DEFAULT 'active',
		archived_at TIMESTAMP,

		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS project_documents (
		id SERIAL PRIMARY KEY,
		project_id VARCHAR(32) NOT NULL REFERENCES projects(id),
		type_code VARCHAR(50),
		type_label VARCHAR(200),
		title TEXT,
		submitted_at DATE,
		issued_at DATE,
		current BOOLEAN NOT NULL DEFAULT TRUE,
		deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	-- Create indexes for filtering
	CREATE INDEX IF NOT EXISTS idx_projects_created_at ON projects(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_projects_stage ON projects(stage);
	CREATE INDEX IF NOT EXISTS idx_projects_status ON projects(status);
	CREATE INDEX IF NOT EXISTS idx_documents_project ON project_documents(project_id);
	`
	_, err := db.conn.Exec(query)
	return err
}

// SaveProject saves a project to the database (upsert by code)
func (db *DB) SaveProject(p *models.Project) error {
	if p.ID == "" {
		p.ID = generateMD5(normalizeCode(p.Code))
	}
	if p.Status == "" {
		p.Status = models.ProjectStatusActive
	}
	if p.Stage == "" {
		p.Stage = models.StageSurvey
	}

	query := `
	INSERT INTO projects (
		id, code, name, site_address, capacity_kw, stage,
		survey_date, contract_signed_date, structural_cert_date,
		electrical_cert_date, construction_start_date, meter_installed_date,
		status, created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
	ON CONFLICT (code) DO UPDATE SET
		name = EXCLUDED.name,
		site_address = EXCLUDED.site_address,
		capacity_kw = EXCLUDED.capacity_kw,
		stage = EXCLUDED.stage,
		survey_date = EXCLUDED.survey_date,
		contract_signed_date = EXCLUDED.contract_signed_date,
		structural_cert_date = EXCLUDED.structural_cert_date,
		electrical_cert_date = EXCLUDED.electrical_cert_date,
		construction_start_date = EXCLUDED.construction_start_date,
		meter_installed_date = EXCLUDED.meter_installed_date,
		updated_at = NOW()
	`
	_, err := db.conn.Exec(query,
		p.ID, p.Code, p.Name, p.SiteAddress, p.CapacityKw, p.Stage,
		p.SurveyDate, p.ContractSignedDate, p.StructuralCertDate,
		p.ElectricalCertDate, p.ConstructionStartDate, p.MeterInstalledDate,
		p.Status,
	)
	return err
}

const projectColumns = `
	id, code, name, site_address, capacity_kw, stage,
	survey_date, contract_signed_date, structural_cert_date,
	electrical_cert_date, construction_start_date, meter_installed_date,
	status, archived_at, created_at, updated_at`

func scanProject(row interface{ Scan(...interface{}) error }) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID, &p.Code, &p.Name, &p.SiteAddress, &p.CapacityKw, &p.Stage,
		&p.SurveyDate, &p.ContractSignedDate, &p.StructuralCertDate,
		&p.ElectricalCertDate, &p.ConstructionStartDate, &p.MeterInstalledDate,
		&p.Status, &p.ArchivedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetAllProjects retrieves all projects from the database
func (db *DB) GetAllProjects() ([]models.Project, error) {
	rows, err := db.conn.Query(`SELECT ` + projectColumns + ` FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// GetProjectByID retrieves a project by ID
func (db *DB) GetProjectByID(id string) (*models.Project, error) {
	row := db.conn.QueryRow(`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	return scanProject(row)
}

// GetProjectsByIDs retrieves projects preserving the given ID order
func (db *DB) GetProjectsByIDs(ids []string) ([]models.Project, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := db.conn.Query(`SELECT `+projectColumns+` FROM projects WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]models.Project, len(ids))
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		byID[p.ID] = *p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ordered := make([]models.Project, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// GetDocumentsForProjects retrieves current, non-deleted documents grouped by
// project ID
func (db *DB) GetDocumentsForProjects(projectIDs []string) (map[string][]models.ProjectDocument, error) {
	grouped := make(map[string][]models.ProjectDocument, len(projectIDs))
	if len(projectIDs) == 0 {
		return grouped, nil
	}

	rows, err := db.conn.Query(`
		SELECT id, project_id, type_code, type_label, title,
		       submitted_at, issued_at, current, deleted, created_at, updated_at
		FROM project_documents
		WHERE project_id = ANY($1) AND current = TRUE AND deleted = FALSE
		ORDER BY id ASC`, pq.Array(projectIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var d models.ProjectDocument
		err := rows.Scan(
			&d.ID, &d.ProjectID, &d.TypeCode, &d.TypeLabel, &d.Title,
			&d.SubmittedAt, &d.IssuedAt, &d.Current, &d.Deleted, &d.CreatedAt, &d.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		grouped[d.ProjectID] = append(grouped[d.ProjectID], d)
	}
	return grouped, rows.Err()
}
