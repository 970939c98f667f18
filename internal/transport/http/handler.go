// Package http exposes the engine over a JSON REST API.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/sri0310-dev/tesseract/internal/errors"
	"github.com/sri0310-dev/tesseract/internal/service"
	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

const dateParamLayout = "2006-01-02"

// Handler serves the engine API.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(svc *service.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:    svc,
		logger: logger.With(slog.String("component", "api_handler")),
	}
}

// Routes returns the API routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/records/ingest", h.IngestRecords)
	r.Post("/analyze", h.Analyze)

	r.Get("/ipc/{hctID}", h.GetIPCSeries)
	r.Get("/records/{hctID}", h.GetRecords)

	r.Route("/signals", func(r chi.Router) {
		r.Get("/", h.ListSignals)
		r.Get("/active", h.ActiveSignals)
		r.Post("/{signalID}/acknowledge", h.AcknowledgeSignal)
	})

	r.Get("/entities", h.ListEntities)

	r.Route("/refdata", func(r chi.Router) {
		r.Get("/version", h.RefDataVersion)
		r.Post("/reload", h.ReloadRefData)
	})

	return r
}

// IngestRecords accepts a batch of raw records and runs the pipeline.
func (h *Handler) IngestRecords(w http.ResponseWriter, r *http.Request) {
	var raws []domain.RawRecord
	if err := render.DecodeJSON(r.Body, &raws); err != nil {
		apierrors.RenderError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if len(raws) == 0 {
		apierrors.RenderError(w, r, apierrors.ErrValidation("body", "At least one record is required"))
		return
	}

	summary, err := h.svc.Ingest(r.Context(), raws)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "ingest failed",
			slog.Int("received", len(raws)),
			slog.String("error", err.Error()),
		)
		apierrors.RenderError(w, r, apierrors.IngestError(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, summary)
}

// analyzeRequest names the corridor and date to analyze.
type analyzeRequest struct {
	HCTID              string `json:"hct_id"`
	OriginCountry      string `json:"origin_country"`
	DestinationCountry string `json:"destination_country,omitempty"`
	Date               string `json:"date"`
}

// Analyze runs the metric stack for one corridor.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		apierrors.RenderError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if req.HCTID == "" {
		apierrors.RenderError(w, r, apierrors.ErrValidation("hct_id", "Commodity id is required"))
		return
	}
	date, err := time.Parse(dateParamLayout, req.Date)
	if err != nil {
		apierrors.RenderError(w, r, apierrors.ErrValidation("date", "Date must be YYYY-MM-DD"))
		return
	}

	result, err := h.svc.Analyze(r.Context(), req.HCTID, req.OriginCountry, req.DestinationCountry, date)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "analysis failed",
			slog.String("hct_id", req.HCTID),
			slog.String("error", err.Error()),
		)
		apierrors.RenderError(w, r, apierrors.ErrInternalServer)
		return
	}
	render.JSON(w, r, result)
}

// GetIPCSeries returns stored implied-price points.
func (h *Handler) GetIPCSeries(w http.ResponseWriter, r *http.Request) {
	hctID := chi.URLParam(r, "hctID")
	origin := r.URL.Query().Get("origin")
	from, to, ok := h.dateRange(w, r)
	if !ok {
		return
	}

	points, err := h.svc.Store.ListIPCPoints(r.Context(), hctID, origin, from, to)
	if err != nil {
		apierrors.RenderError(w, r, apierrors.ErrInternalServer)
		return
	}
	render.JSON(w, r, points)
}

// GetRecords returns normalized records for a commodity.
func (h *Handler) GetRecords(w http.ResponseWriter, r *http.Request) {
	hctID := chi.URLParam(r, "hctID")
	from, to, ok := h.dateRange(w, r)
	if !ok {
		return
	}

	recs, err := h.svc.Store.ListRecords(r.Context(), hctID, from, to)
	if err != nil {
		apierrors.RenderError(w, r, apierrors.ErrInternalServer)
		return
	}
	render.JSON(w, r, recs)
}

// ListSignals returns stored signals, optionally scoped by commodity
// and a since timestamp.
func (h *Handler) ListSignals(w http.ResponseWriter, r *http.Request) {
	since := time.Time{}
	if v := r.URL.Query().Get("since"); v != "" {
		parsed, err := time.Parse(dateParamLayout, v)
		if err != nil {
			apierrors.RenderError(w, r, apierrors.ErrValidation("since", "Date must be YYYY-MM-DD"))
			return
		}
		since = parsed
	}

	sigs, err := h.svc.Store.ListSignals(r.Context(), r.URL.Query().Get("hct_id"), since)
	if err != nil {
		apierrors.RenderError(w, r, apierrors.ErrInternalServer)
		return
	}
	render.JSON(w, r, sigs)
}

// ActiveSignals returns the tracker's currently alerting conditions.
func (h *Handler) ActiveSignals(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.svc.Tracker.Active())
}

// AcknowledgeSignal marks a signal as reviewed.
func (h *Handler) AcknowledgeSignal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "signalID")
	found, err := h.svc.AcknowledgeSignal(r.Context(), id)
	if err != nil {
		apierrors.RenderError(w, r, apierrors.ErrInternalServer)
		return
	}
	if !found {
		apierrors.RenderError(w, r, apierrors.ErrSignalNotFound)
		return
	}
	render.JSON(w, r, map[string]any{"id": id, "acknowledged": true})
}

// ListEntities returns the canonical entity registry.
func (h *Handler) ListEntities(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.svc.Resolver.Entities())
}

// RefDataVersion reports the active reference snapshot.
func (h *Handler) RefDataVersion(w http.ResponseWriter, r *http.Request) {
	snap := h.svc.Provider.Current()
	render.JSON(w, r, map[string]any{
		"version":   snap.Version,
		"loaded_at": snap.LoadedAt,
		"stale":     snap.Stale(time.Now()),
	})
}

// reloadRequest names the reference inputs to load.
type reloadRequest struct {
	SnapshotFile string `json:"snapshot_file,omitempty"`
	WorkbookFile string `json:"workbook_file,omitempty"`
}

// ReloadRefData swaps in a new reference snapshot.
func (h *Handler) ReloadRefData(w http.ResponseWriter, r *http.Request) {
	var req reloadRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		apierrors.RenderError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.svc.ReloadReferenceData(r.Context(), req.SnapshotFile, req.WorkbookFile); err != nil {
		h.logger.ErrorContext(r.Context(), "reference reload failed",
			slog.String("error", err.Error()),
		)
		apierrors.RenderError(w, r, apierrors.NewWithDetails(
			http.StatusUnprocessableEntity, "REFDATA_RELOAD_FAILED",
			"Reference data reload failed", err.Error()))
		return
	}
	snap := h.svc.Provider.Current()
	render.JSON(w, r, map[string]any{"version": snap.Version})
}

// dateRange parses from/to query parameters with sane defaults: the
// trailing 90 days ending today.
func (h *Handler) dateRange(w http.ResponseWriter, r *http.Request) (from, to time.Time, ok bool) {
	to = time.Now().UTC().Truncate(24 * time.Hour)
	from = to.AddDate(0, 0, -90)
	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse(dateParamLayout, v)
		if err != nil {
			apierrors.RenderError(w, r, apierrors.ErrValidation("from", "Date must be YYYY-MM-DD"))
			return from, to, false
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse(dateParamLayout, v)
		if err != nil {
			apierrors.RenderError(w, r, apierrors.ErrValidation("to", "Date must be YYYY-MM-DD"))
			return from, to, false
		}
		to = parsed
	}
	if to.Before(from) {
		apierrors.RenderError(w, r, apierrors.ErrValidation("to", "End date precedes start date"))
		return from, to, false
	}
	return from, to, true
}
