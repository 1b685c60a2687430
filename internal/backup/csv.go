package backup

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"solar-ops-portal/internal/models"
)

// Excel needs the BOM to open UTF-8 CSVs correctly
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const dateLayout = "2006-01-02"

// projectHeader is the column layout for project export and import payloads
var projectHeader = []string{
	"code", "name", "site_address", "capacity_kw", "stage",
	"survey_date", "contract_signed_date", "structural_cert_date",
	"electrical_cert_date", "construction_start_date", "meter_installed_date",
	"status",
}

// documentHeader is the column layout for document export and import payloads.
// Documents reference their project by code, not internal ID, so exports stay
// portable across environments.
var documentHeader = []string{
	"project_code", "type_code", "type_label", "title", "submitted_at", "issued_at",
}

// RowError describes a single rejected row in an import payload
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// DocumentRow is one parsed document import row before project resolution
type DocumentRow struct {
	ProjectCode string
	Document    models.ProjectDocument
}

// ExportProjectsCSV renders projects as a UTF-8 CSV with BOM
func ExportProjectsCSV(projects []models.Project) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(projectHeader); err != nil {
		return nil, err
	}

	for _, p := range projects {
		record := []string{
			p.Code,
			p.Name,
			p.SiteAddress,
			formatFloat(p.CapacityKw),
			string(p.Stage),
			formatDate(p.SurveyDate),
			formatDate(p.ContractSignedDate),
			formatDate(p.StructuralCertDate),
			formatDate(p.ElectricalCertDate),
			formatDate(p.ConstructionStartDate),
			formatDate(p.MeterInstalledDate),
			string(p.Status),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportDocumentsCSV renders documents as a UTF-8 CSV with BOM.
// codeByProjectID maps internal project IDs to their codes; documents whose
// project is missing from the map are skipped.
func ExportDocumentsCSV(docs []models.ProjectDocument, codeByProjectID map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(documentHeader); err != nil {
		return nil, err
	}

	for _, d := range docs {
		code, ok := codeByProjectID[d.ProjectID]
		if !ok {
			continue
		}
		record := []string{
			code,
			d.TypeCode,
			d.TypeLabel,
			d.Title,
			formatDate(d.SubmittedAt),
			formatDate(d.IssuedAt),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportFilename builds a timestamped export filename like projects_20230715.csv
func ExportFilename(kind string, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", kind, now.Format("20060102"))
}

// ParseProjectsCSV parses an import payload into projects.
// Rows that fail validation are reported in the returned RowError slice;
// parsing continues past them. A malformed payload (bad header, unreadable
// CSV) returns an error instead.
func ParseProjectsCSV(payload string) ([]models.Project, []RowError, error) {
	r, err := newReader(payload, projectHeader)
	if err != nil {
		return nil, nil, err
	}

	var projects []models.Project
	var rowErrors []RowError

	line := 1 // header consumed
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrors = append(rowErrors, RowError{Line: line, Message: err.Error()})
			continue
		}

		p, err := parseProjectRecord(record)
		if err != nil {
			rowErrors = append(rowErrors, RowError{Line: line, Message: err.Error()})
			continue
		}
		projects = append(projects, *p)
	}

	return projects, rowErrors, nil
}

// ParseDocumentsCSV parses an import payload into document rows keyed by
// project code
func ParseDocumentsCSV(payload string) ([]DocumentRow, []RowError, error) {
	r, err := newReader(payload, documentHeader)
	if err != nil {
		return nil, nil, err
	}

	var rows []DocumentRow
	var rowErrors []RowError

	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrors = append(rowErrors, RowError{Line: line, Message: err.Error()})
			continue
		}

		row, err := parseDocumentRecord(record)
		if err != nil {
			rowErrors = append(rowErrors, RowError{Line: line, Message: err.Error()})
			continue
		}
		rows = append(rows, *row)
	}

	return rows, rowErrors, nil
}

func newReader(payload string, expectedHeader []string) (*csv.Reader, error) {
	payload = strings.TrimPrefix(payload, string(utf8BOM))

	r := csv.NewReader(strings.NewReader(payload))
	r.FieldsPerRecord = len(expectedHeader)

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, col := range expectedHeader {
		if strings.TrimSpace(header[i]) != col {
			return nil, fmt.Errorf("unexpected header column %d: got %q, want %q", i, header[i], col)
		}
	}
	return r, nil
}

func parseProjectRecord(record []string) (*models.Project, error) {
	code := strings.TrimSpace(record[0])
	if code == "" {
		return nil, fmt.Errorf("code is required")
	}
	name := strings.TrimSpace(record[1])
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	p := &models.Project{
		Code:        code,
		Name:        name,
		SiteAddress: strings.TrimSpace(record[2]),
	}

	if v := strings.TrimSpace(record[3]); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid capacity_kw %q", v)
		}
		p.CapacityKw = &f
	}

	stage := models.ProjectStage(strings.TrimSpace(record[4]))
	if stage != "" {
		if !validStage(stage) {
			return nil, fmt.Errorf("invalid stage %q", stage)
		}
		p.Stage = stage
	}

	dateFields := []struct {
		name string
		dst  **time.Time
	}{
		{"survey_date", &p.SurveyDate},
		{"contract_signed_date", &p.ContractSignedDate},
		{"structural_cert_date", &p.StructuralCertDate},
		{"electrical_cert_date", &p.ElectricalCertDate},
		{"construction_start_date", &p.ConstructionStartDate},
		{"meter_installed_date", &p.MeterInstalledDate},
	}
	for i, f := range dateFields {
		d, err := parseDate(record[5+i])
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %v", f.name, err)
		}
		*f.dst = d
	}

	status := models.ProjectStatus(strings.TrimSpace(record[11]))
	switch status {
	case "", models.ProjectStatusActive:
		p.Status = models.ProjectStatusActive
	case models.ProjectStatusArchived:
		p.Status = models.ProjectStatusArchived
	default:
		return nil, fmt.Errorf("invalid status %q", status)
	}

	return p, nil
}

func parseDocumentRecord(record []string) (*DocumentRow, error) {
	code := strings.TrimSpace(record[0])
	if code == "" {
		return nil, fmt.Errorf("project_code is required")
	}

	doc := models.ProjectDocument{
		TypeCode:  strings.TrimSpace(record[1]),
		TypeLabel: strings.TrimSpace(record[2]),
		Title:     strings.TrimSpace(record[3]),
	}
	if doc.TypeCode == "" && doc.TypeLabel == "" {
		return nil, fmt.Errorf("type_code or type_label is required")
	}

	var err error
	if doc.SubmittedAt, err = parseDate(record[4]); err != nil {
		return nil, fmt.Errorf("invalid submitted_at: %v", err)
	}
	if doc.IssuedAt, err = parseDate(record[5]); err != nil {
		return nil, fmt.Errorf("invalid issued_at: %v", err)
	}

	return &DocumentRow{ProjectCode: code, Document: doc}, nil
}

func validStage(s models.ProjectStage) bool {
	switch s {
	case models.StageSurvey, models.StageContracted, models.StageCertification,
		models.StageConstruction, models.StageCommissioned:
		return true
	}
	return false
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%q is not in YYYY-MM-DD format", s)
	}
	return &t, nil
}

func formatDate(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format(dateLayout)
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
