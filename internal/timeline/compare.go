package timeline

import (
	"fmt"

	"solar-ops-portal/internal/models"
)

// ProjectInput is one project and its current documents, as fetched from the
// store. The comparison engine never touches the database itself.
type ProjectInput struct {
	Project   models.Project
	Documents []models.ProjectDocument
}

// ProjectResult holds the computed date table and intervals for one project
type ProjectResult struct {
	ProjectID string                    `json:"project_id"`
	Code      string                    `json:"code"`
	Name      string                    `json:"name"`
	Baseline  bool                      `json:"baseline"`
	StepDates [StepCount]ResolvedDate   `json:"step_dates"`
	Intervals map[string]IntervalResult `json:"intervals"`

	// TotalDays spans the earliest and latest resolved step dates,
	// used to scale the narrative bar chart
	TotalDays *int `json:"total_days,omitempty"`
}

// Result is a full comparison run: per-project results (baseline first) plus
// cross-project statistics for the aggregated consecutive pairs
type Result struct {
	Projects []ProjectResult      `json:"projects"`
	Stats    map[string]PairStats `json:"stats"`
}

// Baseline returns the baseline project's result
func (r *Result) Baseline() *ProjectResult {
	if len(r.Projects) == 0 {
		return nil
	}
	return &r.Projects[0]
}

// Compare runs the full engine over a set of projects. The first input is the
// baseline; all deltas are computed against it. At least one project is
// required. The computation is pure: re-running on the same snapshot yields
// identical results.
func Compare(inputs []ProjectInput) (*Result, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("comparison requires at least one project")
	}

	result := &Result{
		Projects: make([]ProjectResult, 0, len(inputs)),
		Stats:    make(map[string]PairStats),
	}

	// Pass 1: resolve every project's date table
	tables := make([][StepCount]ResolvedDate, len(inputs))
	for i, in := range inputs {
		tables[i] = ResolveDates(&in.Project, in.Documents)
	}

	// Pass 2: baseline intervals first, then every project against them
	baselineIntervals := make(map[string]IntervalResult, len(Pairs))
	for _, pair := range Pairs {
		baselineIntervals[pair.Key] = ComputeInterval(tables[0], pair, nil)
	}

	for i, in := range inputs {
		pr := ProjectResult{
			ProjectID: in.Project.ID,
			Code:      in.Project.Code,
			Name:      in.Project.Name,
			Baseline:  i == 0,
			StepDates: tables[i],
			Intervals: make(map[string]IntervalResult, len(Pairs)),
			TotalDays: totalSpanDays(tables[i]),
		}

		for _, pair := range Pairs {
			if i == 0 {
				pr.Intervals[pair.Key] = baselineIntervals[pair.Key]
				continue
			}
			pr.Intervals[pair.Key] = ComputeInterval(tables[i], pair, baselineIntervals[pair.Key].Days)
		}

		result.Projects = append(result.Projects, pr)
	}

	// Pass 3: aggregate the first ten consecutive pairs over non-baseline projects
	consecutive := ConsecutivePairs()
	if len(consecutive) > AggregatedPairCount {
		consecutive = consecutive[:AggregatedPairCount]
	}
	for _, pair := range consecutive {
		sample := make([]IntervalResult, 0, len(result.Projects)-1)
		for _, pr := range result.Projects[1:] {
			sample = append(sample, pr.Intervals[pair.Key])
		}
		result.Stats[pair.Key] = AggregatePair(pair.Key, sample)
	}

	return result, nil
}

// totalSpanDays measures the spread between the earliest and latest resolved
// dates of a project's table; nil when fewer than two steps resolved
func totalSpanDays(dates [StepCount]ResolvedDate) *int {
	var earliest, latest *ResolvedDate
	for i := range dates {
		if dates[i].Date == nil {
			continue
		}
		if earliest == nil || dates[i].Date.Before(*earliest.Date) {
			earliest = &dates[i]
		}
		if latest == nil || dates[i].Date.After(*latest.Date) {
			latest = &dates[i]
		}
	}
	if earliest == nil || latest == nil || earliest == latest {
		return nil
	}
	days := DaysBetween(*earliest.Date, *latest.Date)
	return &days
}
