package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"tastymetrics/internal/report"
	"tastymetrics/pkg/errors"
)

// Format selects the output encoding for a result set.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// ParseFormat validates a format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTable, FormatJSON, FormatCSV:
		return Format(s), nil
	default:
		return "", errors.ValidationError("format", s, "must be table, json or csv")
	}
}

// Write encodes the result in the given format.
func Write(w io.Writer, result *report.Result, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatCSV:
		return writeCSV(w, result)
	default:
		writeTable(w, result)
		return nil
	}
}

func writeTable(w io.Writer, result *report.Result) {
	headers := result.Columns
	if useColor(w) {
		colored := make([]string, len(headers))
		for i, h := range headers {
			colored[i] = color.CyanString(h)
		}
		headers = colored
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, row := range result.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatValue(v)
		}
		table.Append(cells)
	}

	table.Render()
	fmt.Fprintf(w, "\n%d row(s)\n", len(result.Rows))
}

func writeCSV(w io.Writer, result *report.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(result.Columns); err != nil {
		return err
	}
	for _, row := range result.Rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = formatValue(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, result *report.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		return t.String()
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

func useColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
