package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/lotoarchive/zabava-archive/internal/draw"
)

var sampleRecords = []draw.Record{
	{Date: "2 августа 2025", DrawNumber: "12346", Numbers: "1 2 3 4 5 6 7 8 9 10 11 12"},
	{Date: "1 августа 2025", DrawNumber: "12345", Numbers: "20 21 22 23 24 25 26 27 28 29 30 31"},
	{Date: "Суббота, 31 июля", Time: "", DrawNumber: "12344", Numbers: "1 \"2\" 3 4 5 6 7 8 9 10 11 12"},
}

func TestWriteCSV_Layout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords[:2]))

	want := "\uFEFFDate,Time,DrawNumber,Numbers\n" +
		"2 августа 2025,,12346,\"1 2 3 4 5 6 7 8 9 10 11 12\"\n" +
		"1 августа 2025,,12345,\"20 21 22 23 24 25 26 27 28 29 30 31\"\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords))

	body := strings.TrimPrefix(buf.String(), BOM)
	require.NotEqual(t, buf.String(), body, "output must start with a BOM")

	rows, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, len(sampleRecords)+1)
	assert.Equal(t, Header, rows[0])

	for i, r := range sampleRecords {
		assert.Equal(t, []string{r.Date, r.Time, r.DrawNumber, r.Numbers}, rows[i+1])
	}
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, BOM+"Date,Time,DrawNumber,Numbers\n", buf.String())
}

func TestNeedsQuotes(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"plain", false},
		{"", false},
		{"a,b", true},
		{`say "hi"`, true},
		{"two\nlines", true},
		{" leading", true},
		{"inner space", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, needsQuotes(tt.in), tt.in)
	}
}

func TestSaveCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "draws_full.csv")
	require.NoError(t, Save(path, FormatCSV, sampleRecords))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte(BOM)))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestSaveXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draws.xlsx")
	require.NoError(t, Save(path, FormatXLSX, sampleRecords))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close() // nolint:errcheck

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, len(sampleRecords)+1)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, "12345", rows[2][2])
	assert.Equal(t, sampleRecords[0].Numbers, rows[1][3])
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("json")
	assert.Error(t, err)

	assert.Equal(t, FormatXLSX, FormatForPath("a/b.XLSX"))
	assert.Equal(t, FormatCSV, FormatForPath("draws_full.csv"))
	assert.Equal(t, FormatCSV, FormatForPath("noext"))
}

func TestSave_UnknownFormat(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "x"), Format("pdf"), nil)
	assert.Error(t, err)
}
