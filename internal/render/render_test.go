package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tastymetrics/internal/report"
)

func sampleResult() *report.Result {
	return &report.Result{
		Query:   "daily-trend",
		Columns: []string{"DATE", "TOTAL_ORDERS", "DAILY_REVENUE"},
		Rows: [][]interface{}{
			{"2021-01-01", int64(2), decimal.RequireFromString("30")},
			{"2021-01-02", int64(1), decimal.RequireFromString("12.50")},
		},
	}
}

func TestParseFormat(t *testing.T) {
	for _, valid := range []string{"table", "json", "csv"} {
		f, err := ParseFormat(valid)
		require.NoError(t, err)
		assert.Equal(t, Format(valid), f)
	}

	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResult(), FormatTable))

	out := buf.String()
	assert.Contains(t, out, "DATE")
	assert.Contains(t, out, "2021-01-01")
	assert.Contains(t, out, "12.5")
	assert.Contains(t, out, "2 row(s)")
	// Not a terminal, so no ANSI escapes.
	assert.NotContains(t, out, "\x1b[")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResult(), FormatCSV))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "DATE,TOTAL_ORDERS,DAILY_REVENUE", lines[0])
	assert.Equal(t, "2021-01-01,2,30", lines[1])
	assert.Equal(t, "2021-01-02,1,12.50", lines[2])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResult(), FormatJSON))

	var decoded report.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "daily-trend", decoded.Query)
	assert.Len(t, decoded.Rows, 2)
}

func TestWriteEmptyResult(t *testing.T) {
	var buf bytes.Buffer
	empty := &report.Result{Query: "daily-trend", Columns: []string{"DATE"}, Rows: [][]interface{}{}}

	require.NoError(t, Write(&buf, empty, FormatTable))
	assert.Contains(t, buf.String(), "0 row(s)")
}

func TestFormatValueNil(t *testing.T) {
	assert.Equal(t, "", formatValue(nil))
	assert.Equal(t, "7", formatValue(int64(7)))
	assert.Equal(t, "1.25", formatValue(decimal.RequireFromString("1.25")))
}
