package converter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nconklindev/censo/internal/types"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
)

const RowDetectionLimit = 10

var (
	// ErrUnreadableFile marks an upload that could not be decoded as a spreadsheet.
	ErrUnreadableFile = errors.New("unreadable spreadsheet")
	// ErrUnsupportedType marks an upload with an extension we cannot read.
	ErrUnsupportedType = errors.New("unsupported file type")
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// ReadFileData reads headers and rows from a file on disk
func ReadFileData(filePath string) (*types.FileData, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadFileDataFrom(f, filepath.Ext(filePath))
}

// ReadFileDataFrom decodes an upload whose type is given by its extension.
func ReadFileDataFrom(r io.Reader, ext string) (*types.FileData, error) {
	switch strings.ToLower(ext) {
	case ".csv":
		return readCSVData(r)
	case ".xlsx":
		return readXLSXData(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
}

func readCSVData(r io.Reader) (*types.FileData, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	data, err := decodeText(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrUnreadableFile)
	}

	return &types.FileData{
		Headers: trimHeaders(records[0]),
		Rows:    records[1:],
	}, nil
}

func readXLSXData(r io.Reader) (*types.FileData, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("%w: no sheets found", ErrUnreadableFile)
	}

	// Raw values keep dates as Excel serials and numbers unformatted.
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrUnreadableFile)
	}

	// Find the header row (row with the most non-empty text cells)
	headerRowIdx := findHeaderRow(rows)
	if headerRowIdx == -1 {
		return nil, fmt.Errorf("%w: could not find header row", ErrUnreadableFile)
	}

	return &types.FileData{
		Headers:     trimHeaders(rows[headerRowIdx]),
		Rows:        rows[headerRowIdx+1:],
		HeaderRow:   headerRowIdx,
		SerialDates: true,
	}, nil
}

// decodeText returns UTF-8 bytes without BOM. Files that are not valid UTF-8
// are read as Windows-1252, the usual encoding of spreadsheets saved by Excel
// in Portuguese locales.
func decodeText(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return data[len(bomUTF8):], nil
	case bytes.HasPrefix(data, bomUTF16LE):
		return xunicode.UTF16(xunicode.LittleEndian, xunicode.UseBOM).NewDecoder().Bytes(data)
	case bytes.HasPrefix(data, bomUTF16BE):
		return xunicode.UTF16(xunicode.BigEndian, xunicode.UseBOM).NewDecoder().Bytes(data)
	case utf8.Valid(data):
		return data, nil
	}
	return charmap.Windows1252.NewDecoder().Bytes(data)
}

// detectDelimiter picks ';' when the header line has more semicolons than
// commas, as Excel does for locales with a decimal comma.
func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

func trimHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = strings.TrimSpace(h)
	}
	return out
}

// findHeaderRow locates the first row that appears to be a header
// by finding the row with the most non-empty text cells
func findHeaderRow(rows [][]string) int {
	maxNonEmpty := 0
	headerIdx := -1

	// Look at first 20 rows max
	searchLimit := len(rows)
	if searchLimit > RowDetectionLimit*2 {
		searchLimit = RowDetectionLimit * 2
	}

	for i := 0; i < searchLimit; i++ {
		nonEmptyCount := 0
		hasText := false

		for _, cell := range rows[i] {
			trimmed := strings.TrimSpace(cell)
			if trimmed != "" {
				nonEmptyCount++
				if containsLetters(trimmed) {
					hasText = true
				}
			}
		}

		// A single-column roster still has a one-cell header
		if nonEmptyCount >= 1 && hasText && nonEmptyCount > maxNonEmpty {
			maxNonEmpty = nonEmptyCount
			headerIdx = i
		}
	}

	return headerIdx
}

// containsLetters checks if a string contains any alphabetic characters
func containsLetters(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
