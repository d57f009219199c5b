// Package server exposes the import formats and the roster conversion over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/nconklindev/censo/internal/converter"
	"github.com/nconklindev/censo/internal/engine"
	"github.com/nconklindev/censo/internal/pkg/logger"
	"github.com/nconklindev/censo/internal/schema"
	"github.com/nconklindev/censo/internal/types"
)

const xlsxMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Server handles each request in isolation; it only holds read-only state.
type Server struct {
	registry  *schema.Registry
	export    converter.ExportOptions
	maxUpload int64
}

// New creates a server over registry. maxUpload bounds the request body.
func New(registry *schema.Registry, export converter.ExportOptions, maxUpload int64) *Server {
	if registry == nil {
		registry = schema.Default()
	}
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}
	return &Server{registry: registry, export: export, maxUpload: maxUpload}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition", "X-Run-ID", "X-Invalid-Cells", "X-Invalid-Rows"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/formats", s.listFormats)
	r.Get("/formats/{id}/fields", s.fieldSpecs)
	r.Post("/check", s.check)
	r.Post("/convert", s.convert)

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Info("request",
			"id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

type formatSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	ErrorColumn bool   `json:"error_column"`
	Fields      int    `json:"fields"`
}

func (s *Server) listFormats(w http.ResponseWriter, _ *http.Request) {
	formats := s.registry.Formats()
	out := make([]formatSummary, len(formats))
	for i, f := range formats {
		out[i] = formatSummary{ID: f.ID, Title: f.Title, ErrorColumn: f.ErrorColumn, Fields: len(f.Fields())}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) fieldSpecs(w http.ResponseWriter, r *http.Request) {
	specs, err := s.registry.FieldSpecs(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, specs)
}

type checkResponse struct {
	Format    string                 `json:"format"`
	Headers   []string               `json:"headers"`
	Rows      int                    `json:"rows"`
	Issues    []engine.RequiredIssue `json:"issues"`
	Ready     bool                   `json:"ready"`
	Suggested engine.ColumnMapping   `json:"suggested_mapping"`
}

func (s *Server) check(w http.ResponseWriter, r *http.Request) {
	format, data, err := s.readUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	issues := engine.CheckRequired(data, format)
	if issues == nil {
		issues = []engine.RequiredIssue{}
	}
	writeJSON(w, http.StatusOK, checkResponse{
		Format:    format.ID,
		Headers:   data.Headers,
		Rows:      len(data.Rows),
		Issues:    issues,
		Ready:     len(issues) == 0,
		Suggested: engine.SuggestMapping(data.Headers, format.Fields()),
	})
}

func (s *Server) convert(w http.ResponseWriter, r *http.Request) {
	format, data, err := s.readUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	var mapping engine.ColumnMapping
	if raw := r.FormValue("mapping"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			writeError(w, badRequest("mapping must be a JSON object of field to column: %v", err))
			return
		}
	} else {
		mapping = engine.SuggestMapping(data.Headers, format.Fields())
	}

	runID := uuid.NewString()
	table, report := engine.Normalize(data, mapping, format)

	var buf bytes.Buffer
	if err := converter.WriteXLSX(&buf, table, report, s.export); err != nil {
		writeError(w, err)
		return
	}

	filename := r.FormValue("filename")
	if filename == "" {
		filename = format.ID + "_normalizado.xlsx"
	}

	logger.Info("conversion served",
		"run", runID,
		"format", format.ID,
		"rows", len(table.Rows),
		"invalid_cells", report.Count())

	w.Header().Set("Content-Type", xlsxMime)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(filename)))
	w.Header().Set("X-Run-ID", runID)
	w.Header().Set("X-Invalid-Cells", strconv.Itoa(report.Count()))
	w.Header().Set("X-Invalid-Rows", strconv.Itoa(report.InvalidRows()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Error("response write failed", "run", runID, "error", err)
	}
}

// readUpload resolves the format before decoding the file so an unknown
// format is reported without touching the upload. Bodies over maxUpload are
// rejected.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (schema.ImportFormat, *types.FileData, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			return schema.ImportFormat{}, nil, fmt.Errorf("%w: limit is %d bytes", errUploadTooLarge, s.maxUpload)
		}
		return schema.ImportFormat{}, nil, badRequest("expected multipart form: %v", err)
	}

	format, err := s.registry.Lookup(r.FormValue("format"))
	if err != nil {
		return schema.ImportFormat{}, nil, err
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return schema.ImportFormat{}, nil, badRequest("missing file: %v", err)
	}
	defer file.Close()

	data, err := converter.ReadFileDataFrom(file, filepath.Ext(header.Filename))
	if err != nil {
		return schema.ImportFormat{}, nil, fmt.Errorf("%s: %w", header.Filename, err)
	}
	return format, data, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

var errUploadTooLarge = errors.New("upload too large")

type requestError struct{ msg string }

func (e requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return requestError{msg: fmt.Sprintf(format, args...)}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("json encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	var reqErr requestError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &reqErr):
		status = http.StatusBadRequest
	case errors.Is(err, errUploadTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, schema.ErrUnknownFormat):
		status = http.StatusNotFound
	case errors.Is(err, converter.ErrUnreadableFile), errors.Is(err, converter.ErrUnsupportedType):
		status = http.StatusUnprocessableEntity
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("internal error", "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
