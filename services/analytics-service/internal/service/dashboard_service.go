package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"colorfest/services/analytics-service/internal/attribution"
	"colorfest/services/analytics-service/internal/models"
	"colorfest/services/analytics-service/internal/repository"
	"colorfest/shared/pkg/helpers"
	"colorfest/shared/pkg/logger"
	"colorfest/shared/pkg/metrics"
)

// DefaultFetchTimeout bounds one upstream feed call
const DefaultFetchTimeout = 15 * time.Second

// Fetcher loads the current event feed
type Fetcher interface {
	FetchEvents(ctx context.Context) ([]models.RawEvent, error)
}

// BaselineStore captures and reads daily snapshot baselines
type BaselineStore interface {
	CaptureBaseline(ctx context.Context, events []models.RawEvent, today string) (int64, error)
	GetBaseline(ctx context.Context, date string) (*models.Baseline, error)
}

// feedState is one successfully loaded feed with everything derived from it
type feedState struct {
	editions          []models.Edition
	eventCount        int
	refreshedAt       time.Time
	baselineDate      string
	todayBaseline     *models.Baseline
	yesterdayBaseline *models.Baseline
	fromCache         bool
}

// DashboardService owns the live feed and renders edition dashboards from it
type DashboardService struct {
	fetcher   Fetcher
	baselines BaselineStore
	cache     repository.FeedCache
	engine    *attribution.Engine
	log       *logger.Logger
	metrics   *metrics.Metrics

	fetchTimeout time.Duration
	defaults     models.Settings
	now          func() time.Time

	sem       *semaphore.Weighted
	loading   atomic.Bool
	observers []func(error)

	mu        sync.RWMutex
	state     *feedState
	lastError string
}

// DashboardOption configures a DashboardService
type DashboardOption func(*DashboardService)

// WithFetchTimeout overrides DefaultFetchTimeout
func WithFetchTimeout(d time.Duration) DashboardOption {
	return func(s *DashboardService) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithFeedCache keeps the last good feed in cache
func WithFeedCache(cache repository.FeedCache) DashboardOption {
	return func(s *DashboardService) { s.cache = cache }
}

// WithDefaultSettings sets the goal and capacity used when a request omits them
func WithDefaultSettings(settings models.Settings) DashboardOption {
	return func(s *DashboardService) { s.defaults = settings }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) DashboardOption {
	return func(s *DashboardService) { s.now = now }
}

func NewDashboardService(
	fetcher Fetcher,
	baselines BaselineStore,
	engine *attribution.Engine,
	log *logger.Logger,
	m *metrics.Metrics,
	opts ...DashboardOption,
) *DashboardService {
	s := &DashboardService{
		fetcher:      fetcher,
		baselines:    baselines,
		engine:       engine,
		log:          log,
		metrics:      m,
		fetchTimeout: DefaultFetchTimeout,
		defaults:     models.Settings{Goal: attribution.DefaultGoal},
		now:          time.Now,
		sem:          semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnRefresh registers fn to be called after every refresh attempt with its
// outcome. Not safe to call once refreshes are running.
func (s *DashboardService) OnRefresh(fn func(error)) {
	s.observers = append(s.observers, fn)
}

func (s *DashboardService) notify(err error) {
	for _, fn := range s.observers {
		fn(err)
	}
}

// Refresh fetches the feed and replaces the in-memory state. Only one refresh
// runs at a time; on failure the previous state is kept.
func (s *DashboardService) Refresh(ctx context.Context) error {
	if !s.sem.TryAcquire(1) {
		return ErrRefreshInProgress
	}
	defer s.sem.Release(1)

	s.loading.Store(true)
	defer s.loading.Store(false)

	start := time.Now()
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	events, err := s.fetcher.FetchEvents(fetchCtx)
	cancel()
	s.metrics.RefreshDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		s.metrics.RefreshTotal.WithLabelValues("failure").Inc()
		s.mu.Lock()
		s.lastError = err.Error()
		s.mu.Unlock()
		s.log.Entry().WithError(err).Error("Feed refresh failed, keeping previous data")
		s.notify(err)
		return fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	active := models.ActiveEvents(events)
	now := s.now()
	today := s.localDate(now, 0)

	captured := true
	if _, err := s.baselines.CaptureBaseline(ctx, active, today); err != nil {
		captured = false
		s.metrics.BaselineFailures.WithLabelValues("capture").Inc()
		s.log.Entry().WithError(err).Warn("Baseline capture failed, serving totals without baselines")
	}

	state := s.buildState(ctx, active, now, captured)

	s.mu.Lock()
	s.state = state
	s.lastError = ""
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Save(ctx, repository.CachedFeed{FetchedAt: now, Events: active}); err != nil {
			s.log.Entry().WithError(err).Warn("Failed to cache feed")
		}
	}

	s.metrics.RefreshTotal.WithLabelValues("success").Inc()
	s.metrics.EventsInFeed.Set(float64(len(active)))
	s.metrics.LastRefreshUnixTS.Set(float64(now.Unix()))
	s.log.Entry().WithField("events", len(active)).WithField("editions", len(state.editions)).Info("Feed refreshed")
	s.notify(nil)
	return nil
}

// Warm loads the cached feed so dashboards render before the first fetch.
// A missing cache is not an error.
func (s *DashboardService) Warm(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	feed, err := s.cache.Load(ctx)
	if err != nil {
		return err
	}
	if feed == nil {
		return nil
	}

	state := s.buildState(ctx, models.ActiveEvents(feed.Events), feed.FetchedAt, true)
	state.fromCache = true

	s.mu.Lock()
	if s.state == nil {
		s.state = state
	}
	s.mu.Unlock()

	s.log.Entry().WithField("events", state.eventCount).WithField("fetched_at", feed.FetchedAt).Info("Warmed from cached feed")
	return nil
}

// buildState groups the feed and loads the baselines. Without a successful
// capture both baselines stay nil: an empty read would count every sale as today's.
func (s *DashboardService) buildState(ctx context.Context, active []models.RawEvent, fetchedAt time.Time, captured bool) *feedState {
	today := s.localDate(s.now(), 0)
	st := &feedState{
		editions:     s.engine.GroupByEdition(active),
		eventCount:   len(active),
		refreshedAt:  fetchedAt,
		baselineDate: today,
	}
	if captured {
		st.todayBaseline = s.readBaseline(ctx, today)
		st.yesterdayBaseline = s.readBaseline(ctx, s.localDate(s.now(), -1))
	}
	return st
}

func (s *DashboardService) localDate(t time.Time, offsetDays int) string {
	return t.In(s.engine.Location()).AddDate(0, 0, offsetDays).Format(helpers.ISODate)
}

// readBaseline returns nil when the baseline cannot be read
func (s *DashboardService) readBaseline(ctx context.Context, date string) *models.Baseline {
	b, err := s.baselines.GetBaseline(ctx, date)
	if err != nil {
		s.metrics.BaselineFailures.WithLabelValues("read").Inc()
		s.log.Entry().WithField("date", date).WithError(err).Warn("Baseline unavailable")
		return nil
	}
	return b
}

func (s *DashboardService) snapshot() (*feedState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil, ErrNoData
	}
	return s.state, nil
}

// Editions lists the editions of the current feed
func (s *DashboardService) Editions() ([]models.EditionSummary, error) {
	st, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	latest, _ := attribution.LatestEdition(st.editions)

	out := make([]models.EditionSummary, 0, len(st.editions))
	for _, ed := range st.editions {
		out = append(out, models.EditionSummary{
			EditionIdentity: ed.EditionIdentity,
			EventCount:      len(ed.Events),
			IsLatest:        ed.Key == latest.Key,
		})
	}
	return out, nil
}

// Dashboard renders one edition. Only the latest edition gets the sold-today
// overlay and the daily breakdown.
func (s *DashboardService) Dashboard(key string, settings models.Settings) (*models.Dashboard, error) {
	st, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	var ed *models.Edition
	for i := range st.editions {
		if st.editions[i].Key == key {
			ed = &st.editions[i]
			break
		}
	}
	if ed == nil {
		return nil, fmt.Errorf("%w: %s", ErrEditionNotFound, key)
	}

	if settings.Goal <= 0 {
		settings.Goal = s.defaults.Goal
	}
	if settings.CapacityPerDay <= 0 {
		settings.CapacityPerDay = s.defaults.CapacityPerDay
	}

	latest, _ := attribution.LatestEdition(st.editions)
	dist := s.engine.DailyAttendance(*ed)
	presenze := attribution.TotalPresenze(dist)
	refreshedAt := st.refreshedAt

	d := &models.Dashboard{
		Edition:       ed.EditionIdentity,
		IsLatest:      ed.Key == latest.Key,
		Days:          s.engine.EditionDays(*ed),
		Attendance:    dist,
		Tickets:       s.engine.TicketRows(*ed),
		TotalTickets:  attribution.TotalTickets(*ed),
		TotalPresenze: presenze,
		Goal:          attribution.GoalProgress(presenze, settings.Goal),
		Capacity:      attribution.DayCapacity(dist, settings.CapacityPerDay),
		RefreshedAt:   &refreshedAt,
	}

	if d.IsLatest {
		d.DailySales = s.engine.DailySalesBreakdown(*ed)
		d.Today = s.todayOverlay(*ed, st)
	}
	return d, nil
}

func (s *DashboardService) todayOverlay(ed models.Edition, st *feedState) *models.TodayOverlay {
	if st.todayBaseline == nil {
		return nil
	}

	today := attribution.Delta(ed.Events, st.todayBaseline).Total
	var yesterday int64
	if st.yesterdayBaseline != nil {
		for _, ev := range ed.Events {
			if sold := st.todayBaseline.Sold(ev.ID) - st.yesterdayBaseline.Sold(ev.ID); sold > 0 {
				yesterday += sold
			}
		}
	}

	return &models.TodayOverlay{
		BaselineDate:      st.baselineDate,
		PerDay:            s.engine.TodaySalesPerDay(ed, st.todayBaseline, st.yesterdayBaseline),
		Total:             attribution.DayOverDay(today, yesterday),
		Breakdown:         attribution.TodayBreakdown(ed, st.todayBaseline),
		PresenzeBreakdown: s.engine.TodayPresenzeBreakdown(ed, st.todayBaseline),
	}
}

// Status reports the live fetch state
func (s *DashboardService) Status() models.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := models.Status{
		Loading:   s.loading.Load(),
		LastError: s.lastError,
	}
	if s.state != nil {
		refreshedAt := s.state.refreshedAt
		out.LastRefresh = &refreshedAt
		out.EventCount = s.state.eventCount
		out.FromCache = s.state.fromCache
		out.BaselineOK = s.state.todayBaseline != nil
	}
	return out
}
