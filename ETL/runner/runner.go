package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/LilVoxy/obeya_headcount/ETL/analytics"
	"github.com/LilVoxy/obeya_headcount/ETL/extractors"
	"github.com/LilVoxy/obeya_headcount/ETL/load"
	"github.com/LilVoxy/obeya_headcount/ETL/metrics"
	"github.com/LilVoxy/obeya_headcount/ETL/models"
	"github.com/LilVoxy/obeya_headcount/ETL/transform"
	"github.com/LilVoxy/obeya_headcount/ETL/utils"
)

// Event types sent to the notifier.
const (
	EventDatasetRefreshed = "dataset_refreshed"
	EventCacheInvalidated = "cache_invalidated"
	EventSnapshotLoaded   = "snapshot_loaded"
)

// Notifier receives dataset lifecycle events
type Notifier interface {
	Broadcast(eventType string, payload interface{})
}

// Options are the collaborators of an ETLRunner. Extractor is required.
type Options struct {
	Extractor   *extractors.Extractor
	Transformer *transform.Transformer
	Cache       load.ResultCache
	Metrics     *metrics.Metrics
	Notifier    Notifier
	LoadManager *load.LoadManager
	Logger      *utils.ETLLogger
	TrendConfig analytics.TrendConfig
}

// SourceStatus describes the dataset currently held by the runner
type SourceStatus struct {
	Loaded     bool              `json:"loaded"`
	Kind       models.SourceKind `json:"kind,omitempty"`
	RowsRead   int               `json:"rows_read"`
	Records    int               `json:"records"`
	Rejected   int               `json:"rejected"`
	Dimensions []string          `json:"dimensions"`
	Years      []int             `json:"years"`
	LoadedAt   time.Time         `json:"loaded_at,omitempty"`
}

// ETLRunner owns the ingested dataset and serves per-period results from it.
// The dataset is swapped atomically on Refresh; readers see the old or the new one.
type ETLRunner struct {
	mu       sync.RWMutex
	source   *models.Source
	loadedAt time.Time

	// generation counts dataset swaps; results of an older one are not cached
	generation uint64

	extractor   *extractors.Extractor
	transformer *transform.Transformer
	cache       load.ResultCache
	metrics     *metrics.Metrics
	notifier    Notifier
	loadManager *load.LoadManager
	logger      *utils.ETLLogger
	trendConfig analytics.TrendConfig

	flight singleflight.Group
	now    func() time.Time
}

// New creates an ETLRunner. The dataset is loaded lazily on first use.
func New(opts Options) (*ETLRunner, error) {
	if opts.Extractor == nil {
		return nil, errors.New("runner: extractor is required")
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewNopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(nil)
	}
	if opts.Transformer == nil {
		opts.Transformer = transform.NewTransformer(nil, opts.Logger)
	}
	opts.Transformer.WithObserver(opts.Metrics)
	if opts.Cache == nil {
		opts.Cache = load.NewMemoryCache(10 * time.Minute)
	}
	if opts.TrendConfig == (analytics.TrendConfig{}) {
		opts.TrendConfig = analytics.DefaultTrendConfig()
	}

	return &ETLRunner{
		extractor:   opts.Extractor,
		transformer: opts.Transformer,
		cache:       opts.Cache,
		metrics:     opts.Metrics,
		notifier:    opts.Notifier,
		loadManager: opts.LoadManager,
		logger:      opts.Logger,
		trendConfig: opts.TrendConfig,
		now:         time.Now,
	}, nil
}

// Source returns the current dataset, loading it when none is held yet
func (r *ETLRunner) Source(ctx context.Context) (*models.Source, error) {
	r.mu.RLock()
	source := r.source
	r.mu.RUnlock()
	if source != nil {
		return source, nil
	}
	if err := r.Refresh(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.source, nil
}

// Refresh re-extracts and re-ingests the raw dataset, then drops cached results.
// Concurrent calls share one extraction.
func (r *ETLRunner) Refresh(ctx context.Context) error {
	_, err, _ := r.flight.Do("refresh", func() (interface{}, error) {
		return nil, r.refresh(ctx)
	})
	return err
}

func (r *ETLRunner) refresh(ctx context.Context) error {
	startTime := r.now()
	frame, err := r.extractor.Extract(ctx)
	if err != nil {
		r.metrics.ObserveRun(metrics.OutcomeFailed)
		return err
	}
	r.metrics.ObservePhase("extract", r.now().Sub(startTime))

	ingestStart := r.now()
	source, err := r.transformer.Ingest(frame)
	if err != nil {
		r.metrics.ObserveRun(metrics.OutcomeFailed)
		return err
	}
	r.metrics.ObservePhase("ingest", r.now().Sub(ingestStart))

	loadedAt := r.now()
	r.mu.Lock()
	r.source = source
	r.loadedAt = loadedAt
	r.generation++
	r.mu.Unlock()

	if err := r.cache.Invalidate(ctx); err != nil {
		r.logger.Error("Invalidating cache after refresh: %v", err)
	}
	r.metrics.ObserveRefresh(source.RowsRead, loadedAt)
	r.logger.Info("Dataset refreshed: %d rows, kind %s", source.RowsRead, source.Kind)
	r.notify(EventDatasetRefreshed, r.Status())
	return nil
}

// Invalidate drops every memoized result without touching the dataset
func (r *ETLRunner) Invalidate(ctx context.Context) error {
	if err := r.cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	r.logger.Info("Result cache invalidated")
	r.notify(EventCacheInvalidated, map[string]interface{}{"at": r.now()})
	return nil
}

// Process returns the canonical table of one period, from cache when possible.
// A period with no rows yields an Empty result and no error.
func (r *ETLRunner) Process(ctx context.Context, month string, year int) (*models.Result, error) {
	period := models.Period{Month: transform.NormalizeText(month), Year: year}

	cached, ok, err := r.cache.Get(ctx, period)
	if err != nil {
		r.logger.Warn("Reading cache for %s %d: %v", period.Month, period.Year, err)
	}
	r.metrics.ObserveCache(ok)
	if ok {
		return cached, nil
	}

	_, generation := r.current()
	v, err, _ := r.flight.Do(fmt.Sprintf("process:%d:%s:%d", generation, period.Month, period.Year), func() (interface{}, error) {
		return r.process(ctx, period)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Result), nil
}

func (r *ETLRunner) process(ctx context.Context, period models.Period) (*models.Result, error) {
	if _, err := r.Source(ctx); err != nil {
		return nil, err
	}
	source, generation := r.current()

	startTime := r.now()
	result, err := r.transformer.Transform(source, period.Month, period.Year)
	if err != nil {
		r.metrics.ObserveRun(metrics.OutcomeFailed)
		return nil, err
	}
	r.metrics.ObservePhase("transform", r.now().Sub(startTime))

	if result.Empty() {
		r.metrics.ObserveRun(metrics.OutcomeEmpty)
	} else {
		r.metrics.ObserveRun(metrics.OutcomeSuccess)
	}

	r.store(ctx, result, generation)
	return result, nil
}

// current returns the held dataset and its generation
func (r *ETLRunner) current() (*models.Source, uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.source, r.generation
}

// store caches a result computed from the given generation. A Refresh swaps
// the dataset before it invalidates, so a swap seen after Set means the entry
// may have outlived that invalidation and is dropped again.
func (r *ETLRunner) store(ctx context.Context, result *models.Result, generation uint64) {
	period := result.Period
	if _, current := r.current(); current != generation {
		r.logger.Debug("Dataset changed while processing %s %d, result not cached", period.Month, period.Year)
		return
	}
	if err := r.cache.Set(ctx, result); err != nil {
		r.logger.Warn("Caching result for %s %d: %v", period.Month, period.Year, err)
		return
	}
	if _, current := r.current(); current != generation {
		if err := r.cache.Invalidate(ctx); err != nil {
			r.logger.Error("Dropping stale result for %s %d: %v", period.Month, period.Year, err)
		}
	}
}

// Trend processes the twelve months of a year and fits a linear trend
func (r *ETLRunner) Trend(ctx context.Context, year int, forecastMonths int) (analytics.Trend, error) {
	results := make([]*models.Result, len(transform.Months))
	for i, month := range transform.Months {
		res, err := r.Process(ctx, month, year)
		if err != nil {
			return analytics.Trend{}, err
		}
		results[i] = res
	}

	cfg := r.trendConfig
	if forecastMonths > 0 {
		cfg.ForecastMonths = forecastMonths
	}
	return analytics.BuildTrend(year, analytics.MonthlyPoints(results), cfg), nil
}

// SaveTrend fits the trend of a year and stores its forecasts.
// It needs a LoadManager.
func (r *ETLRunner) SaveTrend(ctx context.Context, year int, forecastMonths int) (analytics.Trend, error) {
	if r.loadManager == nil {
		return analytics.Trend{}, fmt.Errorf("save trend: analytics database is not configured")
	}
	trend, err := r.Trend(ctx, year, forecastMonths)
	if err != nil {
		return analytics.Trend{}, err
	}
	if err := r.loadManager.SaveTrend(ctx, uuid.NewString(), trend); err != nil {
		return analytics.Trend{}, err
	}
	return trend, nil
}

// StoredForecasts reads back the forecasts saved by SaveTrend
func (r *ETLRunner) StoredForecasts(ctx context.Context, year int) ([]analytics.ForecastPoint, error) {
	if r.loadManager == nil {
		return nil, fmt.Errorf("stored forecasts: analytics database is not configured")
	}
	return r.loadManager.StoredForecasts(ctx, year)
}

// LastRun returns the most recent successful run, nil when there is none
// or no analytics database is configured.
func (r *ETLRunner) LastRun(ctx context.Context) (*models.ETLRunLog, error) {
	if r.loadManager == nil {
		return nil, nil
	}
	return r.loadManager.LastSuccessfulRun(ctx)
}

// RunOnce refreshes the dataset, processes one period and stores its snapshot.
// Without a LoadManager the snapshot step is skipped.
func (r *ETLRunner) RunOnce(ctx context.Context, month string, year int) (*models.Result, error) {
	runID := uuid.NewString()
	startTime := r.now()
	period := models.Period{Month: transform.NormalizeText(month), Year: year}
	r.logger.Info("Starting run %s for %s %d", runID, period.Month, period.Year)

	if err := r.Refresh(ctx); err != nil {
		r.recordFailure(ctx, runID, startTime, period, err)
		return nil, err
	}

	result, err := r.Process(ctx, period.Month, period.Year)
	if err != nil {
		r.recordFailure(ctx, runID, startTime, period, err)
		return nil, err
	}

	if r.loadManager != nil {
		loadStart := r.now()
		source, err := r.Source(ctx)
		if err != nil {
			r.recordFailure(ctx, runID, startTime, period, err)
			return nil, err
		}
		if err := r.loadManager.Load(ctx, runID, startTime, source.RowsRead, result); err != nil {
			r.metrics.ObserveRun(metrics.OutcomeFailed)
			return nil, err
		}
		r.metrics.ObservePhase("load", r.now().Sub(loadStart))
		r.notify(EventSnapshotLoaded, map[string]interface{}{
			"run_id": runID, "period": result.Period, "records": len(result.Records),
		})
	}

	r.logger.Info("Run %s finished. Records: %d, rejected: %d, duration: %v",
		runID, len(result.Records), len(result.Rejections), r.now().Sub(startTime))
	return result, nil
}

func (r *ETLRunner) recordFailure(ctx context.Context, runID string, startTime time.Time, period models.Period, cause error) {
	r.logger.Error("Run %s failed: %v", runID, cause)
	if r.loadManager == nil {
		return
	}
	if err := r.loadManager.RecordFailure(ctx, runID, startTime, period, cause); err != nil {
		r.logger.Error("Recording failed run %s: %v", runID, err)
	}
}

// Status describes the held dataset
func (r *ETLRunner) Status() SourceStatus {
	r.mu.RLock()
	source, loadedAt := r.source, r.loadedAt
	r.mu.RUnlock()

	if source == nil {
		return SourceStatus{Dimensions: []string{}, Years: []int{}}
	}
	return SourceStatus{
		Loaded:     true,
		Kind:       source.Kind,
		RowsRead:   source.RowsRead,
		Records:    len(source.Records),
		Rejected:   len(source.Rejections),
		Dimensions: source.Dimensions,
		Years:      analytics.AvailableYears(source),
		LoadedAt:   loadedAt,
	}
}

// StartScheduler refreshes the dataset every interval until ctx is done.
// A zero interval disables scheduling and returns immediately.
func (r *ETLRunner) StartScheduler(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		r.logger.Info("Scheduled refresh disabled")
		return nil
	}

	scheduler := gocron.NewScheduler(time.UTC)
	r.logger.Info("Starting refresh scheduler with interval %v", interval)

	_, err := scheduler.Every(interval).WaitForSchedule().Do(func() {
		r.logger.Info("Scheduled dataset refresh")
		if err := r.Refresh(ctx); err != nil {
			r.logger.Error("Scheduled refresh failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("configuring scheduler: %w", err)
	}

	scheduler.StartAsync()
	<-ctx.Done()
	scheduler.Stop()
	r.logger.Info("Refresh scheduler stopped")
	return nil
}

func (r *ETLRunner) notify(eventType string, payload interface{}) {
	if r.notifier != nil {
		r.notifier.Broadcast(eventType, payload)
	}
}
