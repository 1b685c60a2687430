package timeline

import (
	"strings"
	"time"

	"solar-ops-portal/internal/models"
)

// ResolvedDate is the outcome of resolving one step for one project.
// DocCode records which document type supplied the date; empty for direct
// project fields and for unresolved steps.
type ResolvedDate struct {
	Date    *time.Time `json:"date"`
	DocCode string     `json:"doc_code,omitempty"`
}

// ResolveStepDate produces the date for one step of one project.
// Pure function: no side effects, same inputs always yield the same output.
func ResolveStepDate(p *models.Project, docs []models.ProjectDocument, step Step) ResolvedDate {
	switch src := step.Source.(type) {
	case DirectField:
		return ResolvedDate{Date: p.MilestoneDate(src.Field)}

	case DocumentWithFallback:
		// A populated project field wins outright; no document lookup happens
		if d := p.MilestoneDate(src.Field); d != nil {
			return ResolvedDate{Date: d}
		}
		doc := findDocument(docs, src.Codes, src.Labels)
		if doc == nil {
			return ResolvedDate{}
		}
		return ResolvedDate{Date: doc.SubmittedAt, DocCode: doc.TypeCode}

	case DocumentOnly:
		doc := findDocument(docs, src.Codes, src.Labels)
		if doc == nil {
			return ResolvedDate{}
		}
		if src.Date == DocDateIssued {
			return ResolvedDate{Date: doc.IssuedAt, DocCode: doc.TypeCode}
		}
		return ResolvedDate{Date: doc.SubmittedAt, DocCode: doc.TypeCode}
	}

	return ResolvedDate{}
}

// ResolveDates builds the full per-step date table for one project
func ResolveDates(p *models.Project, docs []models.ProjectDocument) [StepCount]ResolvedDate {
	var out [StepCount]ResolvedDate
	for i, step := range Steps {
		out[i] = ResolveStepDate(p, docs, step)
	}
	return out
}

// findDocument searches the project's documents: exact type-code match first,
// then label-contains in declared label order. First match in input order wins;
// superseded and deleted documents are skipped.
func findDocument(docs []models.ProjectDocument, codes, labels []string) *models.ProjectDocument {
	for i := range docs {
		if !docs[i].IsRelevant() {
			continue
		}
		for _, code := range codes {
			if docs[i].TypeCode == code {
				return &docs[i]
			}
		}
	}

	for _, label := range labels {
		needle := strings.ToLower(label)
		for i := range docs {
			if !docs[i].IsRelevant() {
				continue
			}
			if docs[i].TypeLabel != "" && strings.Contains(strings.ToLower(docs[i].TypeLabel), needle) {
				return &docs[i]
			}
		}
	}

	return nil
}
