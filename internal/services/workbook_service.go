package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"sheetpilot/internal/exporter"
	"sheetpilot/internal/pipeline"
	"sheetpilot/internal/reader"
	"sheetpilot/pkg/contracts/domain"
)

// ErrSessionNotFound is returned when the referenced upload session does
// not exist or has been deleted.
var ErrSessionNotFound = errors.New("upload session not found")

// Session holds one uploaded workbook and every piece of state derived
// from it. A session processes exactly one workbook: a fresh upload is a
// fresh session, so derived state from a previous file can never leak
// into a new one. A registered session is immutable; recomputing derived
// fields (candidates, buckets) swaps a fresh snapshot into the registry,
// so concurrent readers holding an older snapshot stay consistent.
type Session struct {
	ID              string
	SourceName      string
	SheetName       string
	Grid            domain.Grid
	HeaderRowIndex  int
	Header          []string
	Candidates      []domain.DateColumnCandidate
	DateColumnIndex int
	MonthBuckets    []domain.MonthBucket
	CreatedAt       time.Time
}

// WorkbookService owns upload sessions and coordinates the reader, the
// transformation pipeline, and the exporters on their behalf. The mutex
// guards the session registry; session values themselves are immutable
// once registered, so readers outside the lock need no further
// synchronization.
type WorkbookService struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	reader       *reader.Reader
	processor    *pipeline.Processor
	excelWriter  *exporter.ExcelWriter
	logger       *slog.Logger
	assumedOrder domain.DateOrder
	maxSamples   int
}

// WorkbookServiceConfig holds configuration options for the service.
type WorkbookServiceConfig struct {
	AssumedOrder     domain.DateOrder // Day/month ordering for ambiguous dates
	DetectionSamples int              // Rows sampled per column during date detection
	MaxRows          int              // Upper bound on rows per uploaded sheet
	StyledExport     bool             // Apply styling to exported workbooks
}

// NewWorkbookService creates the service with its collaborators wired in.
func NewWorkbookService(logger *slog.Logger, config WorkbookServiceConfig) *WorkbookService {
	if logger == nil {
		logger = slog.Default()
	}
	if config.AssumedOrder == "" {
		config.AssumedOrder = domain.DateOrderDayFirst
	}
	if config.DetectionSamples <= 0 {
		config.DetectionSamples = 10
	}

	return &WorkbookService{
		sessions: make(map[string]*Session),
		reader:   reader.New(logger, reader.ReaderConfig{MaxRows: config.MaxRows}),
		processor: pipeline.NewProcessor(logger, pipeline.ProcessorConfig{
			AssumedOrder: config.AssumedOrder,
		}),
		excelWriter:  exporter.NewExcelWriter(logger, exporter.ExcelWriterConfig{Styled: config.StyledExport}),
		logger:       logger.With(slog.String("component", "workbook_service")),
		assumedOrder: config.AssumedOrder,
		maxSamples:   config.DetectionSamples,
	}
}

// Upload reads a workbook, locates its header row, detects date column
// candidates, and registers a new session. The top-ranked candidate
// becomes the default date column; month buckets are aggregated for it
// immediately so the UI can render month counts without a second call.
func (s *WorkbookService) Upload(ctx context.Context, r io.Reader, sourceName string) (*Session, error) {
	wb, err := s.reader.Read(r, sourceName)
	if err != nil {
		return nil, err
	}

	headerRow := pipeline.LocateHeaderRow(wb.Grid)
	normalized := wb.Grid[headerRow:]
	header := pipeline.HeaderNames(normalized[0])
	candidates := pipeline.DetectDateColumns(header, normalized[1:], s.maxSamples, s.assumedOrder)

	session := &Session{
		ID:              uuid.New().String(),
		SourceName:      wb.SourceName,
		SheetName:       wb.SheetName,
		Grid:            wb.Grid,
		HeaderRowIndex:  headerRow,
		Header:          header,
		Candidates:      candidates,
		DateColumnIndex: -1,
		CreatedAt:       time.Now(),
	}
	if len(candidates) > 0 {
		session.DateColumnIndex = candidates[0].Index
		session.MonthBuckets = pipeline.AggregateByMonth(normalized, session.DateColumnIndex, s.assumedOrder)
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "workbook uploaded",
		slog.String("session_id", session.ID),
		slog.String("source", sourceName),
		slog.Int("header_row", headerRow),
		slog.Int("date_candidates", len(candidates)))
	return session, nil
}

// Get returns the session with the given ID.
func (s *WorkbookService) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Months returns month buckets for the given date column, recomputing and
// caching them when the column differs from the session's current one.
// Changing the column invalidates any month selection the caller holds:
// display names are only meaningful against the column they were
// aggregated from, so the caller must clear its selection state.
func (s *WorkbookService) Months(ctx context.Context, id string, dateColumnIndex int) ([]domain.MonthBucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	if dateColumnIndex == session.DateColumnIndex && session.MonthBuckets != nil {
		return session.MonthBuckets, nil
	}

	// Registered sessions are never mutated in place. Recomputation builds
	// a fresh snapshot and swaps it in, so concurrent requests that
	// already fetched the old *Session read stable fields.
	normalized := session.Grid[session.HeaderRowIndex:]
	next := *session
	next.DateColumnIndex = dateColumnIndex
	next.MonthBuckets = pipeline.AggregateByMonth(normalized, dateColumnIndex, s.assumedOrder)
	s.sessions[id] = &next

	s.logger.InfoContext(ctx, "month buckets recomputed",
		slog.String("session_id", id),
		slog.Int("date_column", dateColumnIndex),
		slog.Int("buckets", len(next.MonthBuckets)))
	return next.MonthBuckets, nil
}

// Process runs the transformation pipeline for the session with the given
// selection and returns the final grid, header row first.
func (s *WorkbookService) Process(ctx context.Context, id string, selection domain.ProcessingSelection) (domain.Grid, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return s.processor.Process(ctx, session.Grid, session.HeaderRowIndex, selection, session.DateColumnIndex, session.MonthBuckets)
}

// ExportOptions selects the export rendering.
type ExportOptions struct {
	Format       string // "xlsx" or "csv"
	SplitByMonth bool   // One sheet per month; xlsx only
}

// Export processes the session's grid with the selection and writes the
// result to w. Split export re-finds the date column by header name in the
// processed grid; if the user's own column removal dropped it, the split
// fails with pipeline.ErrDateColumnRemoved rather than producing empty
// sheets.
func (s *WorkbookService) Export(ctx context.Context, id string, selection domain.ProcessingSelection, options ExportOptions, w io.Writer) error {
	session, err := s.Get(id)
	if err != nil {
		return err
	}

	finalGrid, err := s.processor.Process(ctx, session.Grid, session.HeaderRowIndex, selection, session.DateColumnIndex, session.MonthBuckets)
	if err != nil {
		return err
	}

	switch options.Format {
	case "csv":
		return exporter.WriteCSV(w, finalGrid, exporter.CSVOptions{BOMPrefix: true})
	case "", "xlsx":
		classification := pipeline.ClassifyColumns(finalGrid, s.assumedOrder)
		if !options.SplitByMonth {
			return s.excelWriter.WriteGrid(w, finalGrid, classification, session.SheetName)
		}

		if session.DateColumnIndex < 0 || session.DateColumnIndex >= len(session.Header) {
			return pipeline.ErrDateColumnRemoved
		}
		dateHeader := session.Header[session.DateColumnIndex]
		result, err := pipeline.SplitByMonth(finalGrid, dateHeader, s.assumedOrder)
		if err != nil {
			return err
		}
		if result.InvalidDateRows > 0 {
			s.logger.WarnContext(ctx, "rows excluded from split: date did not parse",
				slog.String("session_id", id),
				slog.Int("invalid_date_rows", result.InvalidDateRows))
		}
		return s.excelWriter.WriteSplit(w, finalGrid[0], result, classification)
	default:
		return fmt.Errorf("unsupported export format %q", options.Format)
	}
}

// Delete removes the session. Deleting an unknown session is a no-op.
func (s *WorkbookService) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
