package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/clientdesk/clientdesk/modules/crm/importer"
	"github.com/clientdesk/clientdesk/modules/crm/services"
	"github.com/clientdesk/clientdesk/pkg/application"
	"github.com/clientdesk/clientdesk/pkg/composables"
	"github.com/clientdesk/clientdesk/pkg/configuration"
	"github.com/clientdesk/clientdesk/pkg/middleware"
)

// maxUploadBytes caps a single CSV upload at 64 MiB.
const maxUploadBytes = 64 << 20

type ImportAPIController struct {
	app      application.Application
	imports  *services.ImportService
	basePath string
}

func NewImportAPIController(app application.Application) application.Controller {
	return &ImportAPIController{
		app:      app,
		imports:  app.Service(services.ImportService{}).(*services.ImportService),
		basePath: "/crm/api/clients/import",
	}
}

func (c *ImportAPIController) Key() string {
	return c.basePath
}

func (c *ImportAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.ProvideUser())

	router.HandleFunc("", c.ImportCSV).Methods(http.MethodPost)
	router.HandleFunc("/batch", c.ImportBatch).Methods(http.MethodPost)
	router.HandleFunc("/{runID}/progress", c.Progress).Methods(http.MethodGet)
}

// ImportCSV accepts a CSV payload either as a multipart "file" part or as the
// raw request body, and runs the import synchronously. The response carries
// the full summary; a runId header links to the progress endpoint for callers
// polling from another connection.
func (c *ImportAPIController) ImportCSV(w http.ResponseWriter, r *http.Request) {
	data, err := readUpload(r)
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "IMPORT_INVALID_UPLOAD", err.Error())
		return
	}

	jobOpts := c.jobOptions(r)
	w.Header().Set("X-Import-Run-ID", jobOpts.RunID)

	summary, err := c.imports.ImportCSV(r.Context(), data, c.requestUser(r), jobOpts)
	if err != nil {
		if errors.Is(err, importer.ErrEmptyFile) || errors.Is(err, importer.ErrMissingHeader) {
			writeAPIError(w, r, http.StatusBadRequest, "IMPORT_INVALID_FILE", err.Error())
			return
		}
		writeInternalError(w, r, "IMPORT_INTERNAL", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"runId":   jobOpts.RunID,
		"summary": summary,
	})
}

type batchRequest struct {
	Clients   []map[string]any `json:"clients"`
	BatchSize int              `json:"batchSize"`
	Options   struct {
		SkipValidation          bool `json:"skipValidation"`
		SkipPaymentTokenization bool `json:"skipPaymentTokenization"`
	} `json:"options"`
}

// ImportBatch accepts pre-sanitized rows as JSON: {"clients": [...],
// "batchSize": N, "options": {...}} or a bare array of objects. Row values
// may be any JSON scalar; they are stringified here so the pipeline only
// ever sees string fields.
func (c *ImportAPIController) ImportBatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "IMPORT_INVALID_UPLOAD", "could not read request body")
		return
	}

	var req batchRequest
	if err := decodeBatchBody(body, &req); err != nil || req.Clients == nil {
		if err := decodeBatchBody(body, &req.Clients); err != nil {
			writeAPIError(w, r, http.StatusBadRequest, "IMPORT_INVALID_JSON", "invalid json")
			return
		}
	}
	if len(req.Clients) == 0 {
		writeAPIError(w, r, http.StatusBadRequest, "IMPORT_EMPTY_BATCH", "batch contains no rows")
		return
	}

	rows := make([]map[string]string, 0, len(req.Clients))
	for _, raw := range req.Clients {
		row := make(map[string]string, len(raw))
		for key, value := range raw {
			row[key] = scalarString(value)
		}
		rows = append(rows, row)
	}

	jobOpts := c.jobOptions(r)
	if req.BatchSize > 0 {
		jobOpts.BatchSize = req.BatchSize
	}
	jobOpts.SkipValidation = jobOpts.SkipValidation || req.Options.SkipValidation
	jobOpts.SkipPaymentTokenization = jobOpts.SkipPaymentTokenization || req.Options.SkipPaymentTokenization
	w.Header().Set("X-Import-Run-ID", jobOpts.RunID)

	summary, err := c.imports.ImportBatch(r.Context(), rows, c.requestUser(r), jobOpts)
	if err != nil {
		writeInternalError(w, r, "IMPORT_INTERNAL", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"runId":   jobOpts.RunID,
		"summary": summary,
	})
}

func (c *ImportAPIController) Progress(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["runID"]
	progress, err := c.imports.Progress(r.Context(), runID)
	if err != nil {
		if errors.Is(err, importer.ErrProgressNotFound) {
			writeAPIError(w, r, http.StatusNotFound, "IMPORT_RUN_NOT_FOUND", "no progress recorded for this run")
			return
		}
		writeInternalError(w, r, "IMPORT_INTERNAL", err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (c *ImportAPIController) jobOptions(r *http.Request) services.ImportJobOptions {
	opts := services.ImportJobOptions{RunID: uuid.NewString()}

	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("batchSize")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			opts.BatchSize = parsed
		}
	}
	opts.SkipValidation = parseBoolParam(q.Get("skipValidation"))
	opts.SkipPaymentTokenization = parseBoolParam(q.Get("skipPaymentTokenization"))
	return opts
}

// decodeBatchBody decodes with UseNumber so numeric row values keep their
// original textual form instead of going through float64.
func decodeBatchBody(body []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(dst)
}

// scalarString renders a decoded JSON scalar the way the pipeline expects a
// raw field. Nested objects and arrays have no place in a flat row and
// collapse to an empty string.
func scalarString(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case json.Number:
		return value.String()
	case bool:
		return strconv.FormatBool(value)
	default:
		return ""
	}
}

func parseBoolParam(v string) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && parsed
}

func readUpload(r *http.Request) ([]byte, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, errors.New("could not parse multipart form")
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, errors.New(`multipart form is missing a "file" part`)
		}
		defer func() { _ = file.Close() }()
		return io.ReadAll(io.LimitReader(file, maxUploadBytes))
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		return nil, errors.New("could not read request body")
	}
	if len(data) == 0 {
		return nil, errors.New("empty upload")
	}
	return data, nil
}

func (c *ImportAPIController) requestUser(r *http.Request) string {
	if email, err := composables.UseUser(r.Context()); err == nil {
		return email
	}
	return configuration.Use().ServiceAccountEmail
}
