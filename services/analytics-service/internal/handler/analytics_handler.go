package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"colorfest/services/analytics-service/internal/models"
	"colorfest/shared/pkg/helpers"
	"colorfest/shared/pkg/logger"
)

// DefaultMaxImportBytes caps the historical CSV upload
const DefaultMaxImportBytes = 64 << 20

// DashboardProvider serves the live feed views
type DashboardProvider interface {
	Editions() ([]models.EditionSummary, error)
	Dashboard(key string, settings models.Settings) (*models.Dashboard, error)
	Status() models.Status
	Refresh(ctx context.Context) error
}

// SnapshotProvider reads stored baselines
type SnapshotProvider interface {
	Snapshots(ctx context.Context, date string) ([]models.SnapshotEntry, error)
	SnapshotDates(ctx context.Context) ([]string, error)
}

// Comparer compares editions over a period
type Comparer interface {
	Compare(ctx context.Context, from, to string) ([]models.EditionComparison, error)
}

// EventProvider looks up a single upstream event
type EventProvider interface {
	Event(ctx context.Context, id string) (*models.EventDetail, error)
}

// HistoricalImporter replaces and reads the historical table
type HistoricalImporter interface {
	Import(ctx context.Context, r io.Reader) (*models.ImportResult, error)
	History(ctx context.Context, editionKey string) ([]models.HistoricalDailyPresenze, error)
}

type AnalyticsHandler struct {
	dashboard      DashboardProvider
	snapshots      SnapshotProvider
	comparison     Comparer
	historical     HistoricalImporter
	events         EventProvider
	validator      *helpers.CustomValidator
	log            *logger.Logger
	refreshLimit   func(http.Handler) http.Handler
	maxImportBytes int64
}

func NewAnalyticsHandler(
	dashboard DashboardProvider,
	snapshots SnapshotProvider,
	comparison Comparer,
	historical HistoricalImporter,
	events EventProvider,
	refreshLimit func(http.Handler) http.Handler,
	log *logger.Logger,
) *AnalyticsHandler {
	if refreshLimit == nil {
		refreshLimit = func(next http.Handler) http.Handler { return next }
	}
	return &AnalyticsHandler{
		dashboard:      dashboard,
		snapshots:      snapshots,
		comparison:     comparison,
		historical:     historical,
		events:         events,
		validator:      helpers.NewCustomValidator(),
		log:            log,
		refreshLimit:   refreshLimit,
		maxImportBytes: DefaultMaxImportBytes,
	}
}

// RegisterRoutes registers the analytics API on mux
func (h *AnalyticsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/editions", h.ListEditions)
	mux.HandleFunc("GET /api/editions/{key}/dashboard", h.GetDashboard)
	mux.Handle("POST /api/refresh", h.refreshLimit(http.HandlerFunc(h.Refresh)))
	mux.HandleFunc("GET /api/status", h.GetStatus)
	mux.HandleFunc("GET /api/events/{id}", h.GetEvent)
	mux.HandleFunc("GET /api/snapshots/dates", h.ListSnapshotDates)
	mux.HandleFunc("GET /api/snapshots/{date}", h.GetSnapshots)
	mux.HandleFunc("GET /api/comparison", h.Compare)
	mux.HandleFunc("POST /api/historical/import", h.ImportHistorical)
	mux.HandleFunc("GET /api/historical/{edition}", h.GetHistorical)
}

// ListEditions handles GET /api/editions
func (h *AnalyticsHandler) ListEditions(w http.ResponseWriter, r *http.Request) {
	editions, err := h.dashboard.Editions()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"editions": editions})
}

type dashboardQuery struct {
	Goal     int64 `json:"goal" validate:"min=0"`
	Capacity int64 `json:"capacity" validate:"min=0"`
}

// GetDashboard handles GET /api/editions/{key}/dashboard?goal=&capacity=
func (h *AnalyticsHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	q := dashboardQuery{
		Goal:     helpers.ParseInt(r.URL.Query().Get("goal")),
		Capacity: helpers.ParseInt(r.URL.Query().Get("capacity")),
	}
	if err := h.validator.Validate(q); err != nil {
		helpers.WriteValidationErrorResponse(w, err, requestLocale(r))
		return
	}

	d, err := h.dashboard.Dashboard(r.PathValue("key"), models.Settings{Goal: q.Goal, CapacityPerDay: q.Capacity})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Refresh handles POST /api/refresh
func (h *AnalyticsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.dashboard.Refresh(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.dashboard.Status())
}

// GetStatus handles GET /api/status
func (h *AnalyticsHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.dashboard.Status())
}

// GetEvent handles GET /api/events/{id}
func (h *AnalyticsHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	detail, err := h.events.Event(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// ListSnapshotDates handles GET /api/snapshots/dates
func (h *AnalyticsHandler) ListSnapshotDates(w http.ResponseWriter, r *http.Request) {
	dates, err := h.snapshots.SnapshotDates(r.Context())
	if err != nil {
		h.log.Entry().WithError(err).Error("Failed to list snapshot dates")
		writeServiceError(w, err)
		return
	}
	if dates == nil {
		dates = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"dates": dates})
}

type snapshotQuery struct {
	Date string `json:"date" validate:"required,isodate"`
}

// GetSnapshots handles GET /api/snapshots/{date}
func (h *AnalyticsHandler) GetSnapshots(w http.ResponseWriter, r *http.Request) {
	q := snapshotQuery{Date: r.PathValue("date")}
	if err := h.validator.Validate(q); err != nil {
		helpers.WriteValidationErrorResponse(w, err, requestLocale(r))
		return
	}

	entries, err := h.snapshots.Snapshots(r.Context(), q.Date)
	if err != nil {
		h.log.Entry().WithError(err).WithField("date", q.Date).Error("Failed to read snapshots")
		writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []models.SnapshotEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"date": q.Date, "snapshots": entries})
}

type comparisonQuery struct {
	From string `json:"from" validate:"required,isodate"`
	To   string `json:"to" validate:"required,isodate"`
}

// Compare handles GET /api/comparison?from=&to=
func (h *AnalyticsHandler) Compare(w http.ResponseWriter, r *http.Request) {
	q := comparisonQuery{
		From: r.URL.Query().Get("from"),
		To:   r.URL.Query().Get("to"),
	}
	if err := h.validator.Validate(q); err != nil {
		helpers.WriteValidationErrorResponse(w, err, requestLocale(r))
		return
	}

	rows, err := h.comparison.Compare(r.Context(), q.From, q.To)
	if err != nil {
		h.log.Entry().WithError(err).Error("Comparison failed")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"from": q.From, "to": q.To, "editions": rows})
}

// ImportHistorical handles POST /api/historical/import with the CSV as body
func (h *AnalyticsHandler) ImportHistorical(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, h.maxImportBytes)
	defer body.Close()

	res, err := h.historical.Import(r.Context(), body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "export too large")
			return
		}
		h.log.Entry().WithError(err).Error("Historical import failed")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetHistorical handles GET /api/historical/{edition}
func (h *AnalyticsHandler) GetHistorical(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("edition")
	rows, err := h.historical.History(r.Context(), key)
	if err != nil {
		h.log.WithEdition(key).WithError(err).Error("Failed to read historical presenze")
		writeServiceError(w, err)
		return
	}
	if rows == nil {
		rows = []models.HistoricalDailyPresenze{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"edition": key, "days": rows})
}
