// Package leads imports lead lists from CSV or Excel files and scores them
// in bulk.
//
// The first row is a header. Recognised columns (case-insensitive):
// lead_ref, budget, urgency, decision_maker, timeframe, has_email, has_phone,
// source. Missing columns are treated as unspecified.
package leads

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"roofquote/core/scoring"
	"roofquote/core/types"
)

// Row is one lead read from a file
type Row struct {
	// Line is the 1-based line (or sheet row) the lead came from
	Line    int
	LeadRef string
	Inputs  types.LeadScoreInputs
}

// RowError is a field-level problem on one row
type RowError struct {
	Line    int    `json:"line"`
	LeadRef string `json:"lead_ref,omitempty"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Result is the outcome of scoring one row
type Result struct {
	Line    int             `json:"line"`
	LeadRef string          `json:"lead_ref"`
	Score   types.LeadScore `json:"score"`

	// RecordID is set when the score was persisted
	RecordID string `json:"record_id,omitempty"`
}

// Recorder persists a scored lead
type Recorder interface {
	SaveLeadRecord(ctx context.Context, rec *types.LeadRecord) error
}

// Read loads rows from a .csv or .xlsx file
func Read(path string) ([]Row, []RowError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open lead file: %w", err)
	}
	defer f.Close()

	var headers []string
	var data [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		headers, data, err = parseExcel(f)
	default:
		headers, data, err = parseCSV(f)
	}
	if err != nil {
		return nil, nil, err
	}
	rows, rowErrs := mapRows(headers, data)
	return rows, rowErrs, nil
}

// ParseCSV reads rows from CSV text
func ParseCSV(r io.Reader) ([]Row, []RowError, error) {
	headers, data, err := parseCSV(r)
	if err != nil {
		return nil, nil, err
	}
	rows, rowErrs := mapRows(headers, data)
	return rows, rowErrs, nil
}

func parseCSV(file io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(all) < 1 {
		return nil, nil, fmt.Errorf("file must contain a header row")
	}
	return all[0], all[1:], nil
}

func parseExcel(file io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 1 {
		return nil, nil, fmt.Errorf("file must contain a header row")
	}
	return rows[0], rows[1:], nil
}

func mapRows(headers []string, data [][]string) ([]Row, []RowError) {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	get := func(rec []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []Row
	var errs []RowError
	for n, rec := range data {
		line := n + 2
		if blank(rec) {
			continue
		}
		row := Row{
			Line:    line,
			LeadRef: get(rec, "lead_ref"),
			Inputs: types.LeadScoreInputs{
				Budget:    types.BudgetRange(strings.ToLower(get(rec, "budget"))),
				Urgency:   types.Urgency(strings.ToLower(get(rec, "urgency"))),
				Timeframe: types.Timeframe(strings.ToLower(get(rec, "timeframe"))),
				Source:    types.LeadSource(strings.ToLower(get(rec, "source"))),
			},
		}

		var bad bool
		for _, f := range []struct {
			col string
			dst *bool
		}{
			{"decision_maker", &row.Inputs.DecisionMaker},
			{"has_email", &row.Inputs.HasEmail},
			{"has_phone", &row.Inputs.HasPhone},
		} {
			v, err := parseBool(get(rec, f.col))
			if err != nil {
				errs = append(errs, RowError{Line: line, LeadRef: row.LeadRef, Message: fmt.Sprintf("%s: %v", f.col, err)})
				bad = true
				break
			}
			*f.dst = v
		}
		if !bad {
			rows = append(rows, row)
		}
	}
	return rows, errs
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// parseBool accepts the spellings CRMs export; empty is false
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "no", "n":
		return false, nil
	case "yes", "y":
		return true, nil
	}
	return strconv.ParseBool(s)
}

// Options controls a batch run
type Options struct {
	// Recorder, when set, persists every scored row that has a lead_ref
	Recorder Recorder

	// Progress is called once per processed row
	Progress func()
}

// Score scores every row. Rows with unknown bucket values are reported as
// RowErrors and do not stop the batch; a recorder failure does.
func Score(ctx context.Context, scorer *scoring.Scorer, rows []Row, opts Options) ([]Result, []RowError, error) {
	results := make([]Result, 0, len(rows))
	var errs []RowError

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return results, errs, err
		}

		score, err := scorer.Score(row.Inputs)
		if err != nil {
			errs = append(errs, RowError{Line: row.Line, LeadRef: row.LeadRef, Message: err.Error()})
		} else {
			res := Result{Line: row.Line, LeadRef: row.LeadRef, Score: score}
			if opts.Recorder != nil && row.LeadRef != "" {
				rec := &types.LeadRecord{LeadRef: row.LeadRef, Inputs: row.Inputs, Score: score}
				if err := opts.Recorder.SaveLeadRecord(ctx, rec); err != nil {
					return results, errs, fmt.Errorf("failed to save lead %s: %w", row.LeadRef, err)
				}
				res.RecordID = rec.ID
			}
			results = append(results, res)
		}

		if opts.Progress != nil {
			opts.Progress()
		}
	}
	return results, errs, nil
}
