package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "sheetpilot/internal/errors"
	"sheetpilot/internal/pipeline"
	"sheetpilot/internal/reader"
	"sheetpilot/internal/services"
	"sheetpilot/internal/validation"
	"sheetpilot/pkg/contracts/domain"
)

// WorkbookServiceInterface defines the service operations the handler needs.
// Defined on the consumer side so tests can substitute a stub.
type WorkbookServiceInterface interface {
	Upload(ctx context.Context, r io.Reader, sourceName string) (*services.Session, error)
	Get(id string) (*services.Session, error)
	Months(ctx context.Context, id string, dateColumnIndex int) ([]domain.MonthBucket, error)
	Process(ctx context.Context, id string, selection domain.ProcessingSelection) (domain.Grid, error)
	Export(ctx context.Context, id string, selection domain.ProcessingSelection, options services.ExportOptions, w io.Writer) error
	Delete(id string)
}

// WorkbookHandler handles workbook session HTTP requests with RFC 7807 errors
type WorkbookHandler struct {
	service         WorkbookServiceInterface
	logger          *slog.Logger
	errorHandler    *apierrors.ErrorHandler
	validate        *validator.Validate
	uploadValidator *validation.UploadValidator
	maxUploadBytes  int64
}

// NewWorkbookHandler creates a new workbook handler
func NewWorkbookHandler(service WorkbookServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxUploadBytes int64) *WorkbookHandler {
	v := validator.New()

	// Use JSON tag names in validation error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if maxUploadBytes <= 0 {
		maxUploadBytes = 50 * 1024 * 1024
	}

	return &WorkbookHandler{
		service:         service,
		logger:          logger.With(slog.String("component", "workbook_handler")),
		errorHandler:    errorHandler,
		validate:        v,
		uploadValidator: validation.NewUploadValidator(logger),
		maxUploadBytes:  maxUploadBytes,
	}
}

// Routes returns the workbook routes with proper Chi patterns
func (h *WorkbookHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Upload)

	r.Route("/{id}", func(r chi.Router) {
		r.Use(h.SessionCtx)
		r.Get("/", h.GetSession)
		r.Get("/months", h.GetMonths)
		r.Post("/preview", h.Preview)
		r.Post("/export", h.Export)
		r.Delete("/", h.DeleteSession)
	})

	return r
}

// SessionCtx middleware validates the session ID parameter
func (h *WorkbookHandler) SessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("id", "Session ID is required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ProcessRequest carries the user's column and row selections for one
// pipeline run.
type ProcessRequest struct {
	RemoveColumns []string `json:"remove_columns" validate:"omitempty,dive,min=1"`
	ExcludeMonths []string `json:"exclude_months" validate:"omitempty,dive,min=1"`
	ColumnOrder   []int    `json:"column_order,omitempty" validate:"omitempty,dive,gte=0"`
	AddColumns    []string `json:"add_columns" validate:"omitempty,dive,min=1,max=64"`
}

func (req *ProcessRequest) toSelection() domain.ProcessingSelection {
	return domain.ProcessingSelection{
		SelectedHeaders: req.RemoveColumns,
		SelectedMonths:  req.ExcludeMonths,
		ColumnOrder:     domain.ColumnOrderSpec(req.ColumnOrder),
		AddedColumns:    req.AddColumns,
	}
}

// ExportRequest extends ProcessRequest with output options.
type ExportRequest struct {
	ProcessRequest
	Format       string `json:"format" validate:"omitempty,oneof=xlsx csv"`
	SplitByMonth bool   `json:"split_by_month"`
}

// CandidateResponse is one detected date column candidate.
type CandidateResponse struct {
	Index      int     `json:"index"`
	Header     string  `json:"header"`
	Confidence float64 `json:"confidence"`
	MatchType  string  `json:"match_type"`
}

// MonthResponse is one month bucket summary.
type MonthResponse struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
	Count       int    `json:"count"`
}

// SessionResponse describes an upload session.
type SessionResponse struct {
	ID              string              `json:"id"`
	SourceName      string              `json:"source_name"`
	SheetName       string              `json:"sheet_name"`
	RowCount        int                 `json:"row_count"`
	HeaderRowIndex  int                 `json:"header_row_index"`
	Header          []string            `json:"header"`
	DateColumnIndex int                 `json:"date_column_index"`
	Candidates      []CandidateResponse `json:"candidates"`
	Months          []MonthResponse     `json:"months"`
	CreatedAt       time.Time           `json:"created_at"`
}

// PreviewResponse is the processed grid returned to the client.
type PreviewResponse struct {
	Header   []string     `json:"header"`
	Rows     []domain.Row `json:"rows"`
	RowCount int          `json:"row_count"`
}

func sessionToResponse(s *services.Session) *SessionResponse {
	resp := &SessionResponse{
		ID:              s.ID,
		SourceName:      s.SourceName,
		SheetName:       s.SheetName,
		RowCount:        len(s.Grid),
		HeaderRowIndex:  s.HeaderRowIndex,
		Header:          s.Header,
		DateColumnIndex: s.DateColumnIndex,
		Candidates:      make([]CandidateResponse, 0, len(s.Candidates)),
		Months:          monthsToResponse(s.MonthBuckets),
		CreatedAt:       s.CreatedAt,
	}
	for _, c := range s.Candidates {
		resp.Candidates = append(resp.Candidates, CandidateResponse{
			Index:      c.Index,
			Header:     c.Header,
			Confidence: c.Confidence,
			MatchType:  c.MatchType,
		})
	}
	return resp
}

func monthsToResponse(buckets []domain.MonthBucket) []MonthResponse {
	months := make([]MonthResponse, 0, len(buckets))
	for _, b := range buckets {
		months = append(months, MonthResponse{
			Key:         b.Key,
			DisplayName: b.DisplayName,
			Count:       b.Count,
		})
	}
	return months
}

// Upload handles POST /api/workbooks. Accepts a multipart form with the
// workbook under the "file" field.
func (h *WorkbookHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "Multipart field 'file' is required"))
		return
	}
	defer file.Close()

	if err := h.uploadValidator.ValidateFilename(header.Filename); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", err.Error()))
		return
	}

	head := make([]byte, 4)
	n, _ := io.ReadFull(file, head)
	if err := h.uploadValidator.ValidateContent(head[:n]); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", err.Error()))
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	session, err := h.service.Upload(ctx, file, header.Filename)
	if err != nil {
		h.logger.ErrorContext(ctx, "upload failed",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, mapError(err))
		return
	}

	h.logger.InfoContext(ctx, "workbook uploaded",
		slog.String("session_id", session.ID),
		slog.String("filename", header.Filename),
		slog.Int("rows", len(session.Grid)))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, sessionToResponse(session))
}

// GetSession handles GET /api/workbooks/{id}
func (h *WorkbookHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, mapError(err))
		return
	}
	render.JSON(w, r, sessionToResponse(session))
}

// GetMonths handles GET /api/workbooks/{id}/months. The optional "column"
// query parameter switches the date column before aggregating.
func (h *WorkbookHandler) GetMonths(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	session, err := h.service.Get(id)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapError(err))
		return
	}

	columnIndex := session.DateColumnIndex
	if raw := r.URL.Query().Get("column"); raw != "" {
		columnIndex, err = strconv.Atoi(raw)
		if err != nil || columnIndex < 0 || columnIndex >= len(session.Header) {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("column", fmt.Sprintf("Invalid column index %q", raw)))
			return
		}
	}

	buckets, err := h.service.Months(r.Context(), id, columnIndex)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapError(err))
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"date_column_index": columnIndex,
		"months":            monthsToResponse(buckets),
	})
}

// Preview handles POST /api/workbooks/{id}/preview and returns the
// processed grid without exporting it.
func (h *WorkbookHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.errorHandler.HandleError(w, r, h.validationError(err))
		return
	}

	grid, err := h.service.Process(r.Context(), chi.URLParam(r, "id"), req.toSelection())
	if err != nil {
		h.errorHandler.HandleError(w, r, mapError(err))
		return
	}

	resp := &PreviewResponse{Rows: []domain.Row{}}
	if len(grid) > 0 {
		resp.Header = pipelineHeader(grid[0])
		resp.Rows = grid[1:]
		resp.RowCount = len(grid) - 1
	}
	render.JSON(w, r, resp)
}

// Export handles POST /api/workbooks/{id}/export and streams the rendered
// file back as a download. The export is staged in memory so pipeline
// failures still produce a proper problem response instead of a truncated
// body.
func (h *WorkbookHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req ExportRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.errorHandler.HandleError(w, r, h.validationError(err))
		return
	}

	session, err := h.service.Get(id)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapError(err))
		return
	}

	format := req.Format
	if format == "" {
		format = "xlsx"
	}

	var buf bytes.Buffer
	options := services.ExportOptions{Format: format, SplitByMonth: req.SplitByMonth}
	if err := h.service.Export(ctx, id, req.toSelection(), options, &buf); err != nil {
		h.logger.ErrorContext(ctx, "export failed",
			slog.String("session_id", id),
			slog.String("format", format),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, mapExportError(err))
		return
	}

	filename := exportFilename(session.SourceName, format)
	contentType := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	if format == "csv" {
		contentType = "text/csv; charset=utf-8"
	}

	h.logger.InfoContext(ctx, "export completed",
		slog.String("session_id", id),
		slog.String("format", format),
		slog.Bool("split_by_month", req.SplitByMonth),
		slog.Int("bytes", buf.Len()))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	io.Copy(w, &buf)
}

// DeleteSession handles DELETE /api/workbooks/{id}
func (h *WorkbookHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	h.service.Delete(chi.URLParam(r, "id"))
	render.NoContent(w, r)
}

// mapError converts known service and pipeline sentinels to their API
// error equivalents, so the error handler maps them structurally instead
// of by message. Unrecognized errors pass through unchanged.
func mapError(err error) error {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return apierrors.ErrSessionNotFound
	case errors.Is(err, reader.ErrEmptyWorkbook):
		return apierrors.EmptyWorkbookError(err)
	case errors.Is(err, pipeline.ErrDateColumnRemoved):
		return apierrors.ErrDateColumnRemoved
	default:
		return err
	}
}

// mapExportError additionally folds unknown export failures into the
// export sentinel so clients see EXPORT_FAILED rather than a generic
// internal error.
func mapExportError(err error) error {
	mapped := mapError(err)
	var apiErr *apierrors.APIError
	if errors.As(mapped, &apiErr) {
		return mapped
	}
	return apierrors.ErrExportFailed
}

func (h *WorkbookHandler) validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]apierrors.ValidationError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, apierrors.ValidationError{
				Field:   fe.Field(),
				Message: fmt.Sprintf("failed %q validation", fe.Tag()),
			})
		}
		return apierrors.NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", fields)
	}
	return apierrors.InvalidRequestWithError(err)
}

func pipelineHeader(row domain.Row) []string {
	names := make([]string, len(row))
	for i, cell := range row {
		if s, ok := cell.(string); ok {
			names[i] = s
		} else if cell != nil {
			names[i] = fmt.Sprint(cell)
		}
	}
	return names
}

func exportFilename(sourceName, format string) string {
	base := strings.TrimSuffix(filepath.Base(sourceName), filepath.Ext(sourceName))
	if base == "" || base == "." {
		base = "workbook"
	}
	return base + "_processed." + format
}
