// Package converter reads roster uploads and writes normalized spreadsheets.
package converter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/censo/internal/engine"
	"github.com/nconklindev/censo/internal/pkg/logger"
	"github.com/nconklindev/censo/internal/schema"
	"github.com/nconklindev/censo/internal/types"

	"github.com/google/uuid"
)

// ConvertRequest describes one normalization run from file to file.
type ConvertRequest struct {
	InputFile  string
	OutputFile string
	FormatID   string
	Mapping    engine.ColumnMapping
	// Registry defaults to the built-in formats.
	Registry *schema.Registry
	Export   ExportOptions
}

// OutputPath derives the default output file: same directory, suffix added,
// always .xlsx.
func OutputPath(inputFile, suffix string) string {
	ext := filepath.Ext(inputFile)
	return strings.TrimSuffix(inputFile, ext) + suffix + ".xlsx"
}

// Convert reads the input, normalizes it into the requested format and writes
// the output. An unknown format or unreadable input aborts before anything is
// written; a failed write leaves no output file behind.
func Convert(req ConvertRequest, progressChan chan<- float64) (*types.ConversionResult, error) {
	registry := req.Registry
	if registry == nil {
		registry = schema.Default()
	}

	runID := uuid.NewString()

	format, err := registry.Lookup(req.FormatID)
	if err != nil {
		return nil, err
	}

	// Helper to report progress
	reportProgress := func(p float64) {
		if progressChan != nil {
			select {
			case progressChan <- p:
			default:
			}
		}
	}

	logger.Info("conversion started", "run", runID, "format", format.ID, "input", req.InputFile)

	data, err := ReadFileData(req.InputFile)
	if err != nil {
		logger.Error("read failed", "run", runID, "error", err)
		return nil, err
	}
	reportProgress(0.25)

	issues := engine.CheckRequired(data, format)
	table, report := engine.Normalize(data, req.Mapping, format)
	reportProgress(0.75)

	if err := writeOutput(req.OutputFile, table, report, req.Export); err != nil {
		logger.Error("export failed", "run", runID, "error", err)
		return nil, err
	}
	reportProgress(1)

	logger.Info("conversion finished",
		"run", runID,
		"rows", len(table.Rows),
		"invalid_cells", report.Count(),
		"invalid_rows", report.InvalidRows(),
		"output", req.OutputFile)

	return &types.ConversionResult{
		RunID:         runID,
		InputFile:     req.InputFile,
		OutputFile:    req.OutputFile,
		Format:        format.ID,
		Columns:       table.Columns,
		RowsProcessed: len(table.Rows),
		InvalidCells:  report.Count(),
		InvalidRows:   report.InvalidRows(),
		Issues:        engine.Messages(issues),
	}, nil
}

func writeOutput(path string, table *engine.NormalizedTable, report engine.ValidationResult, opts ExportOptions) (err error) {
	var write func(io.Writer) error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		write = func(w io.Writer) error { return WriteXLSX(w, table, report, opts) }
	case ".csv":
		write = func(w io.Writer) error { return WriteCSV(w, table) }
	default:
		return fmt.Errorf("unsupported output type: %s", ext)
	}

	outFile, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := outFile.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	return write(outFile)
}
