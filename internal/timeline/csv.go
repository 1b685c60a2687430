package timeline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"
)

// utf8BOM keeps spreadsheet tools from misdetecting the encoding
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const csvDateLayout = "2006-01-02"

// WriteCSV renders a comparison result as BOM-prefixed UTF-8 CSV: a header
// row, then one row per project with its code, name, every resolved step date
// in step order, and the four summary interval day counts. Unresolved dates
// and incomplete intervals render as empty strings.
func WriteCSV(res *Result) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)

	summaries := SummaryPairs()

	header := make([]string, 0, 2+StepCount+len(summaries))
	header = append(header, "Project Code", "Project Name")
	for _, step := range Steps {
		header = append(header, step.Label)
	}
	for _, pair := range summaries {
		header = append(header, pair.Label+" (days)")
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, pr := range res.Projects {
		row := make([]string, 0, len(header))
		row = append(row, pr.Code, pr.Name)
		for _, rd := range pr.StepDates {
			if rd.Date == nil {
				row = append(row, "")
				continue
			}
			row = append(row, rd.Date.Format(csvDateLayout))
		}
		for _, pair := range summaries {
			iv := pr.Intervals[pair.Key]
			if iv.Days == nil {
				row = append(row, "")
				continue
			}
			row = append(row, fmt.Sprintf("%d", *iv.Days))
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CSVFilename names the download after the baseline project and the given date
func CSVFilename(res *Result, now time.Time) string {
	code := "comparison"
	if b := res.Baseline(); b != nil && b.Code != "" {
		code = b.Code
	}
	return fmt.Sprintf("%s_%s.csv", code, now.Format("20060102"))
}
