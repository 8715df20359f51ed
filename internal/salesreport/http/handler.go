package salesreporthttp

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"github.com/cineconnect/cineconnect/internal/pdf/svgpage"
	"github.com/cineconnect/cineconnect/internal/platform/httpx"
	"github.com/cineconnect/cineconnect/internal/reporting"
	"github.com/cineconnect/cineconnect/internal/salesreport"
)

const (
	maxBodyBytes   = 1 << 20
	requestTimeout = 30 * time.Second
)

// RunService manages queued report runs.
type RunService interface {
	CreateRun(ctx context.Context, req salesreport.CreateRunRequest) (salesreport.Run, error)
	Get(ctx context.Context, id uuid.UUID) (salesreport.Run, error)
	List(ctx context.Context, limit int) ([]salesreport.Run, error)
}

// DataService supplies aggregated report data.
type DataService interface {
	LoadSales(ctx context.Context, period string, start, end time.Time) (salesreport.ReportData, error)
	Invalidate(ctx context.Context) error
}

// Handler serves report rendering and run management endpoints.
type Handler struct {
	logger    *slog.Logger
	generator *salesreport.Generator
	runs      RunService
	data      DataService
	store     *salesreport.Store
	validate  *validator.Validate
	group     singleflight.Group
	now       func() time.Time
	timeout   time.Duration
}

// NewHandler constructs the report HTTP handler.
func NewHandler(logger *slog.Logger, generator *salesreport.Generator, runs RunService, store *salesreport.Store, validate *validator.Validate) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &Handler{
		logger:    logger,
		generator: generator,
		runs:      runs,
		store:     store,
		validate:  validate,
		now:       time.Now,
		timeout:   requestTimeout,
	}
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// WithData enables the aggregated data endpoints.
func (h *Handler) WithData(data DataService) {
	h.data = data
}

type rendered struct {
	report salesreport.Report
	etag   string
}

func (h *Handler) handleRender(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var data salesreport.ReportData
	if err := json.Unmarshal(body, &data); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: decode report data: %v", httpx.ErrValidation, err))
		return
	}
	if err := data.Validate(h.validate); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %w", httpx.ErrValidation, err))
		return
	}
	period := periodOf(r, data)
	key := fingerprint(period, body)
	etag := `"` + key[:32] + `"`
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	// identical concurrent requests share one generation
	v, err, shared := h.group.Do(key, func() (any, error) {
		rep, err := h.generator.Generate(ctx, data, period)
		if err != nil {
			return nil, err
		}
		return rendered{report: rep, etag: etag}, nil
	})
	if err != nil {
		h.handleServerError(w, "render sales report", err)
		return
	}
	out := v.(rendered)
	h.logger.Debug("sales report rendered", slog.String("period", period), slog.Int("pages", out.report.Pages), slog.Bool("shared", shared))
	h.writePDF(w, salesreport.FileName(period, h.now()), out.etag, out.report)
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var data salesreport.ReportData
	if err := json.Unmarshal(body, &data); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: decode report data: %v", httpx.ErrValidation, err))
		return
	}
	if err := data.Validate(h.validate); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %w", httpx.ErrValidation, err))
		return
	}
	page := 1
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			httpx.RespondError(w, fmt.Errorf("%w: page must be a positive integer", httpx.ErrValidation))
			return
		}
	}
	period := periodOf(r, data)
	doc, err := h.generator.Layout(data, period)
	if err != nil {
		h.handleServerError(w, "layout sales report", err)
		return
	}
	if page > doc.PageCount() {
		httpx.RespondError(w, fmt.Errorf("%w: page %d of %d", httpx.ErrNotFound, page, doc.PageCount()))
		return
	}
	svg, err := svgpage.Render(doc.Pages()[page-1], doc.Config().Geometry, svgpage.Opts{
		Title:       fmt.Sprintf("Reporte de ventas %s, página %d", period, page),
		Description: fmt.Sprintf("Página %d de %d", page, doc.PageCount()),
	})
	if err != nil {
		h.handleServerError(w, "preview sales report", err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml; charset=utf-8")
	w.Header().Set("X-Report-Pages", strconv.Itoa(doc.PageCount()))
	_, _ = io.WriteString(w, string(svg))
}

func (h *Handler) handleReceipt(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var data salesreport.ReceiptData
	if err := json.Unmarshal(body, &data); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: decode receipt: %v", httpx.ErrValidation, err))
		return
	}
	if err := data.Validate(h.validate); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %w", httpx.ErrValidation, err))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	rep, err := h.generator.Receipt(ctx, data)
	if err != nil {
		h.handleServerError(w, "render receipt", err)
		return
	}
	h.writePDF(w, salesreport.ReceiptFileName(data.Booking.TransactionID), "", rep)
}

func (h *Handler) handleData(w http.ResponseWriter, r *http.Request) {
	if h.data == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "report data source not configured")
		return
	}
	q := r.URL.Query()
	start, err := parseDay(q.Get("start"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: start: %v", httpx.ErrValidation, err))
		return
	}
	end, err := parseDay(q.Get("end"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: end: %v", httpx.ErrValidation, err))
		return
	}
	period := strings.ToLower(strings.TrimSpace(q.Get("period")))
	data, err := h.data.LoadSales(r.Context(), period, start, end)
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRange) {
			httpx.RespondError(w, fmt.Errorf("%w: %w", httpx.ErrValidation, err))
			return
		}
		h.handleServerError(w, "load report data", err)
		return
	}
	httpx.JSON(w, http.StatusOK, data)
}

func (h *Handler) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.data == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "report data source not configured")
		return
	}
	if err := h.data.Invalidate(r.Context()); err != nil {
		h.handleServerError(w, "invalidate report cache", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "report queue not configured")
		return
	}
	var req salesreport.CreateRunRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: decode request: %v", httpx.ErrValidation, err))
		return
	}
	run, err := h.runs.CreateRun(r.Context(), req)
	if err != nil {
		h.respondRunError(w, "create run", err)
		return
	}
	w.Header().Set("Location", "/reports/sales/"+run.ID.String())
	httpx.JSON(w, http.StatusAccepted, run)
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "report queue not configured")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.runs.List(r.Context(), limit)
	if err != nil {
		h.respondRunError(w, "list runs", err)
		return
	}
	if runs == nil {
		runs = []salesreport.Run{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, run)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	if run.Status != salesreport.StatusReady || run.FilePath == "" {
		httpx.Problem(w, http.StatusConflict, "Not Ready", fmt.Sprintf("run is %s", run.Status))
		return
	}
	file, err := h.store.Open(run.FilePath)
	if err != nil {
		h.handleServerError(w, "open report", err)
		return
	}
	defer file.Close()
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", run.FileName))
	if run.FileSize != nil {
		w.Header().Set("Content-Length", strconv.FormatInt(*run.FileSize, 10))
	}
	if _, err := io.Copy(w, file); err != nil {
		h.logger.Warn("stream report", slog.Any("error", err), slog.String("run_id", run.ID.String()))
	}
}

func (h *Handler) loadRun(w http.ResponseWriter, r *http.Request) (salesreport.Run, bool) {
	if h.runs == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "report queue not configured")
		return salesreport.Run{}, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid run id", httpx.ErrValidation))
		return salesreport.Run{}, false
	}
	run, err := h.runs.Get(r.Context(), id)
	if err != nil {
		h.respondRunError(w, "get run", err)
		return salesreport.Run{}, false
	}
	return run, true
}

func (h *Handler) respondRunError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, salesreport.ErrInvalidRequest):
		httpx.RespondError(w, fmt.Errorf("%w: %w", httpx.ErrValidation, err))
	case errors.Is(err, salesreport.ErrRunNotFound):
		httpx.RespondError(w, fmt.Errorf("%w: %w", httpx.ErrNotFound, err))
	case errors.Is(err, salesreport.ErrDuplicateRun):
		httpx.RespondError(w, fmt.Errorf("%w: %w", httpx.ErrDuplicate, err))
	default:
		h.handleServerError(w, op, err)
	}
}

func (h *Handler) handleServerError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		h.logger.Warn(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusGatewayTimeout, "Timeout", "report generation timed out")
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func (h *Handler) writePDF(w http.ResponseWriter, name, etag string, rep salesreport.Report) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(rep.PDF)))
	w.Header().Set("X-Report-Pages", strconv.Itoa(rep.Pages))
	if etag != "" {
		w.Header().Set("ETag", etag)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, bytes.NewReader(rep.PDF)); err != nil {
		h.logger.Warn("stream pdf", slog.Any("error", err))
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", httpx.ErrValidation, err)
	}
	return body, nil
}

func parseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, raw)
}

func periodOf(r *http.Request, data salesreport.ReportData) string {
	if p := strings.TrimSpace(r.URL.Query().Get("period")); p != "" {
		return strings.ToLower(p)
	}
	if p := strings.TrimSpace(data.Metadata.Period); p != "" {
		return strings.ToLower(p)
	}
	return "custom"
}

// fingerprint identifies a render request by its period and raw body.
func fingerprint(period string, body []byte) string {
	h, _ := blake2b.New256(nil)
	_, _ = h.Write([]byte(period))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
