package timeline

import (
	"fmt"
	"strings"
)

const barChartWidth = 40

// RenderNarrative renders a comparison result as a Markdown document intended
// for copy-paste into external reports: baseline identification, a bar chart
// of overall durations, per-stage tables with signed deltas against the
// baseline, and a closing summary-interval section. pairKeys selects which
// comparison pairs appear; nil or empty selects all.
func RenderNarrative(res *Result, pairKeys []string) string {
	selected := selectPairs(pairKeys)

	var b strings.Builder

	b.WriteString("# Project Timeline Comparison\n\n")
	if base := res.Baseline(); base != nil {
		fmt.Fprintf(&b, "Baseline: **%s** (%s)\n\n", base.Code, base.Name)
	}
	fmt.Fprintf(&b, "Projects compared: %d\n\n", len(res.Projects))

	writeDurationChart(&b, res)

	b.WriteString("## Stage Comparison\n\n")
	for _, pair := range selected {
		if pair.Kind != PairConsecutive {
			continue
		}
		writePairTable(&b, res, pair)
	}

	b.WriteString("## Summary Intervals\n\n")
	for _, pair := range selected {
		if pair.Kind != PairSummary {
			continue
		}
		writePairTable(&b, res, pair)
	}

	return b.String()
}

func selectPairs(pairKeys []string) []Pair {
	if len(pairKeys) == 0 {
		return Pairs
	}
	selected := make([]Pair, 0, len(pairKeys))
	for _, key := range pairKeys {
		if p, ok := PairByKey(key); ok {
			selected = append(selected, p)
		}
	}
	return selected
}

// writeDurationChart renders a block-character bar chart of each project's
// total timeline span, scaled to the longest project
func writeDurationChart(b *strings.Builder, res *Result) {
	b.WriteString("## Overall Duration\n\n")

	maxDays := 0
	codeWidth := 0
	for _, pr := range res.Projects {
		if pr.TotalDays != nil && *pr.TotalDays > maxDays {
			maxDays = *pr.TotalDays
		}
		if len(pr.Code) > codeWidth {
			codeWidth = len(pr.Code)
		}
	}

	b.WriteString("```\n")
	for _, pr := range res.Projects {
		if pr.TotalDays == nil {
			fmt.Fprintf(b, "%-*s  (incomplete)\n", codeWidth, pr.Code)
			continue
		}
		bar := barFor(*pr.TotalDays, maxDays)
		fmt.Fprintf(b, "%-*s  %s %d days\n", codeWidth, pr.Code, bar, *pr.TotalDays)
	}
	b.WriteString("```\n\n")
}

func barFor(days, maxDays int) string {
	if maxDays <= 0 || days <= 0 {
		return ""
	}
	length := days * barChartWidth / maxDays
	if length < 1 {
		length = 1
	}
	return strings.Repeat("█", length)
}

// writePairTable renders one pair as a pipe table of every project's day
// count with its signed delta against the baseline
func writePairTable(b *strings.Builder, res *Result, pair Pair) {
	fmt.Fprintf(b, "### %s\n\n", pair.Label)
	b.WriteString("| Project | Days | vs Baseline |\n")
	b.WriteString("|---|---:|---:|\n")

	for _, pr := range res.Projects {
		iv := pr.Intervals[pair.Key]

		days := "-"
		if iv.Days != nil {
			days = fmt.Sprintf("%d", *iv.Days)
		}

		delta := "-"
		if pr.Baseline {
			delta = "baseline"
		} else if iv.Delta != nil {
			delta = fmt.Sprintf("%+d", *iv.Delta)
		}

		fmt.Fprintf(b, "| %s | %s | %s |\n", pr.Code, days, delta)
	}

	if stats, ok := res.Stats[pair.Key]; ok && stats.Count > 0 {
		fmt.Fprintf(b, "\nSample: n=%d, avg %d, median %d, min %d, max %d\n",
			stats.Count, *stats.Average, *stats.Median, *stats.Min, *stats.Max)
	}
	b.WriteString("\n")
}
