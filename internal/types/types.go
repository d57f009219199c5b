package types

// ConversionResult summarizes one normalization run.
type ConversionResult struct {
	RunID         string
	InputFile     string
	OutputFile    string
	Format        string
	Columns       []string
	RowsProcessed int
	InvalidCells  int
	InvalidRows   int
	Issues        []string
}

// FileData is a decoded upload: one header row and the data rows under it.
type FileData struct {
	Headers   []string
	Rows      [][]string
	HeaderRow int
	// SerialDates is set for workbooks, whose raw date cells are Excel serials.
	SerialDates bool
}

// Column returns the index of the named header, or -1.
func (d *FileData) Column(name string) int {
	for i, h := range d.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at row/col, or "" when the row is short.
func (d *FileData) Cell(row, col int) string {
	if row < 0 || row >= len(d.Rows) || col < 0 || col >= len(d.Rows[row]) {
		return ""
	}
	return d.Rows[row][col]
}
