package converter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nconklindev/censo/internal/engine"
	"github.com/nconklindev/censo/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func writeTestXLSX(t *testing.T, path string, rows [][]any) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
}

func writeTestCSV(t *testing.T, path string, records [][]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll(records))
	require.NoError(t, f.Close())
}

// padRows fills rows trimmed by the reader back to the header width.
func padRows(headers []string, rows [][]string) [][]string {
	out := [][]string{headers}
	for _, row := range rows {
		padded := make([]string, len(headers))
		copy(padded, row)
		out = append(out, padded)
	}
	return out
}

func TestReadFileData_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.xlsx")
	writeTestXLSX(t, path, [][]any{
		{"Relatório de vidas"},
		{},
		{" Documento ", "Nome", "Renda"},
		{"111.444.777-35", "Ana", 1234.5},
	})

	data, err := ReadFileData(path)
	require.NoError(t, err)

	assert.Equal(t, 2, data.HeaderRow)
	assert.Equal(t, []string{"Documento", "Nome", "Renda"}, data.Headers)
	require.Len(t, data.Rows, 1)
	assert.Equal(t, []string{"111.444.777-35", "Ana", "1234.5"}, data.Rows[0])
	assert.True(t, data.SerialDates)
}

func TestReadFileData_CSV(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"UTF-8", []byte("CPF,Nome\n11144477735,João\n")},
		{"UTF-8 BOM", append([]byte{0xEF, 0xBB, 0xBF}, []byte("CPF,Nome\n11144477735,João\n")...)},
		{"Semicolon", []byte("CPF;Nome\n11144477735;João\n")},
	}

	win1252, err := charmap.Windows1252.NewEncoder().Bytes([]byte("CPF;Nome\n11144477735;João\n"))
	require.NoError(t, err)
	tests = append(tests, struct {
		name string
		data []byte
	}{"Windows-1252", win1252})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := ReadFileDataFrom(bytes.NewReader(tt.data), ".CSV")
			require.NoError(t, err)
			assert.Equal(t, []string{"CPF", "Nome"}, data.Headers)
			assert.Equal(t, [][]string{{"11144477735", "João"}}, data.Rows)
			assert.False(t, data.SerialDates)
		})
	}
}

func TestReadFileData_Errors(t *testing.T) {
	_, err := ReadFileDataFrom(strings.NewReader("not a workbook"), ".xlsx")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreadableFile))

	_, err = ReadFileDataFrom(strings.NewReader(""), ".csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreadableFile))

	_, err = ReadFileDataFrom(strings.NewReader("x"), ".pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestFindHeaderRow(t *testing.T) {
	tests := []struct {
		name     string
		rows     [][]string
		expected int
	}{
		{"First row", [][]string{{"CPF", "Nome"}, {"1", "Ana"}}, 0},
		{"After title", [][]string{{"Censo"}, {"CPF", "Nome", "UF"}, {"1", "Ana", "SP"}}, 1},
		{"Numbers only", [][]string{{"1", "2"}}, -1},
		{"Accented header", [][]string{{"Órgão", "Nº"}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, findHeaderRow(tt.rows))
		})
	}
}

func TestConvert_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	inputFile := filepath.Join(tmpDir, "vidas.xlsx")
	outputFile := OutputPath(inputFile, "_normalizado")

	writeTestXLSX(t, inputFile, [][]any{
		{"documento", "nome", "nasc", "sexo", "inclusao", "fone", "estado", "salario"},
		{"111.444.777-35", "Ana", "15/03/1990", "F", "01/02/2024", "11987654321", "sp", "1.234,56"},
		{"00000000000", "Bruno", "not-a-date", "M", "01/02/2024", "123", "S", "abc"},
	})

	mapping := engine.ColumnMapping{
		"CPF":        "documento",
		"Nome":       "nome",
		"NASCIMENTO": "nasc",
		"Sexo":       "sexo",
		"Inclusão":   "inclusao",
		"Telefone":   "fone",
		"UF":         "estado",
		"Salário":    "salario",
		"Cargo":      "coluna de outro arquivo",

		// Blank dates are invalid, so the admission date reuses inclusao.
		"Data de admissão": "inclusao",
	}

	progress := make(chan float64, 10)
	result, err := Convert(ConvertRequest{
		InputFile:  inputFile,
		OutputFile: outputFile,
		FormatID:   "vida",
		Mapping:    mapping,
		Export:     ExportOptions{Sheet: "Censo", Highlight: true},
	}, progress)
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "vida", result.Format)
	assert.Equal(t, 2, result.RowsProcessed)
	assert.Equal(t, 4, result.InvalidCells)
	assert.Equal(t, 1, result.InvalidRows)
	assert.Equal(t, []string{`required column "CPF" not found in file`,
		`required column "Nome" not found in file`,
		`required column "NASCIMENTO" not found in file`,
		`required column "Sexo" not found in file`,
		`required column "Inclusão" not found in file`}, result.Issues)

	close(progress)
	var last float64
	for p := range progress {
		last = p
	}
	assert.Equal(t, 1.0, last)

	vida, err := schema.Default().Lookup("vida")
	require.NoError(t, err)
	data, err := ReadFileData(inputFile)
	require.NoError(t, err)
	table, _ := engine.Normalize(data, mapping, vida)

	reread, err := ReadFileData(outputFile)
	require.NoError(t, err)

	assert.Equal(t, table.Columns, reread.Headers)
	assert.Equal(t, table.Strings(), padRows(reread.Headers, reread.Rows))

	f, err := excelize.OpenFile(outputFile)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "Censo", f.GetSheetName(0))
	errCell, err := f.GetCellValue("Censo", "A3")
	require.NoError(t, err)
	assert.Equal(t, "CPF, NASCIMENTO, Telefone, UF", errCell)
}

func TestConvert_CSVOutput(t *testing.T) {
	tmpDir := t.TempDir()
	inputFile := filepath.Join(tmpDir, "saude.csv")
	outputFile := filepath.Join(tmpDir, "saude_out.csv")

	writeTestCSV(t, inputFile, [][]string{
		{"CPF", "UF"},
		{"52998224725", "rj"},
	})

	result, err := Convert(ConvertRequest{
		InputFile:  inputFile,
		OutputFile: outputFile,
		FormatID:   "saude",
		Mapping:    engine.ColumnMapping{"CPF": "CPF", "UF": "UF"},
	}, nil)
	require.NoError(t, err)
	// NASCIMENTO and Data de admissão are unmapped, so both are blank and invalid.
	assert.Equal(t, 2, result.InvalidCells)
	assert.Equal(t, 1, result.InvalidRows)

	reread, err := ReadFileData(outputFile)
	require.NoError(t, err)
	specs, err := schema.Default().FieldSpecs("saude")
	require.NoError(t, err)
	assert.Equal(t, schema.Names(specs), reread.Headers)
	require.Len(t, reread.Rows, 1)
	assert.Equal(t, "52998224725", reread.Rows[0][0])
	assert.Equal(t, "RJ", reread.Rows[0][reread.Column("UF")])
	assert.Equal(t, "0", reread.Rows[0][reread.Column("Salário")])
	assert.Equal(t, engine.Invalid, reread.Rows[0][reread.Column("NASCIMENTO")])
}

func TestConvert_Failures(t *testing.T) {
	tmpDir := t.TempDir()
	inputFile := filepath.Join(tmpDir, "in.csv")
	writeTestCSV(t, inputFile, [][]string{{"CPF"}, {"11144477735"}})

	t.Run("Unknown format", func(t *testing.T) {
		out := filepath.Join(tmpDir, "unknown.xlsx")
		_, err := Convert(ConvertRequest{InputFile: inputFile, OutputFile: out, FormatID: "auto"}, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, schema.ErrUnknownFormat))
		assert.NoFileExists(t, out)
	})

	t.Run("Unreadable input", func(t *testing.T) {
		bad := filepath.Join(tmpDir, "bad.xlsx")
		require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0644))
		out := filepath.Join(tmpDir, "bad_out.xlsx")
		_, err := Convert(ConvertRequest{InputFile: bad, OutputFile: out, FormatID: "vida"}, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnreadableFile))
		assert.NoFileExists(t, out)
	})

	t.Run("Unsupported output", func(t *testing.T) {
		out := filepath.Join(tmpDir, "out.txt")
		_, err := Convert(ConvertRequest{InputFile: inputFile, OutputFile: out, FormatID: "vida"}, nil)
		require.Error(t, err)
		assert.NoFileExists(t, out)
	})
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("dir", "vidas_normalizado.xlsx"), OutputPath(filepath.Join("dir", "vidas.csv"), "_normalizado"))
}
