package reporting

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
)

type Field struct {
	Name  string
	Value any
}

// Row is an ordered list of named cells; the first row's names become the CSV header.
type Row []Field

// ToCSV renders rows as RFC 4180 CSV. Nested values are JSON-encoded into a single
// cell. An empty input renders as an empty document.
func ToCSV(rows []Row) ([]byte, error) {
	if len(rows) == 0 {
		return []byte{}, nil
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	header := make([]string, len(rows[0]))
	for i, f := range rows[0] {
		header[i] = f.Name
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, row := range rows {
		rec := make([]string, len(row))
		for i, f := range row {
			cell, err := formatCell(f.Value)
			if err != nil {
				return nil, fmt.Errorf("failed to encode column %s: %w", f.Name, err)
			}
			rec[i] = cell
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func formatCell(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	case time.Time:
		return val.UTC().Format(time.RFC3339), nil
	case fmt.Stringer:
		return val.String(), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// RowsFromData flattens generated report data into CSV rows.
func RowsFromData(data any) ([]Row, error) {
	var rows []Row
	switch d := data.(type) {
	case []domain.CategoryCount:
		for _, c := range d {
			rows = append(rows, Row{{"value", c.Value}, {"count", c.Count}, {"percentage", c.Percentage}})
		}
	case []domain.CrossRow:
		for _, r := range d {
			rows = append(rows, Row{{"value", r.Value}, {"total", r.Total}, {"details", r.Details}})
		}
	case []domain.QuestionSummary:
		for _, s := range d {
			rows = append(rows, Row{{"question_id", s.QuestionID}, {"total", s.Total}, {"details", s.Details}})
		}
	case []domain.ItemGroup:
		for _, g := range d {
			rows = append(rows, Row{{"question_id", g.QuestionID}, {"question_text", g.QuestionText}, {"answers", g.Answers}})
		}
	default:
		return nil, domain.NewValidationError("data", fmt.Sprintf("unsupported report data %T", data))
	}
	return rows, nil
}

// DecodeData restores typed report data from its stored JSON form.
func DecodeData(t domain.ReportType, raw []byte) (any, error) {
	var (
		data any
		err  error
	)
	switch t {
	case domain.ReportTypeVariable:
		var d []domain.CategoryCount
		err = json.Unmarshal(raw, &d)
		data = d
	case domain.ReportTypeCross:
		var d []domain.CrossRow
		err = json.Unmarshal(raw, &d)
		data = d
	case domain.ReportTypeSample:
		var d []domain.QuestionSummary
		err = json.Unmarshal(raw, &d)
		data = d
	case domain.ReportTypeItem:
		var d []domain.ItemGroup
		err = json.Unmarshal(raw, &d)
		data = d
	default:
		return nil, domain.NewValidationError("type", fmt.Sprintf("unknown report type %q", t))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s report data: %w", t, err)
	}
	return data, nil
}
