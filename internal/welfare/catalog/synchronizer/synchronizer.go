// Package synchronizer pulls external welfare catalogs into the local store.
//
// A run walks pages until the source says there are no more or MaxPages is
// reached. Failed pages and records are logged and skipped; only a cancelled
// context stops a run early. Regional calls are paced by a burst-1 limiter.
//
// At most one central and one local run are active per process; a call that
// finds its scope busy returns without touching the catalog.
package synchronizer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"welfarehub/internal/welfare/catalog/source"
	"welfarehub/internal/welfare/catalog/store"
	"welfarehub/internal/welfare/metrics"
	"welfarehub/internal/welfare/models"
	dErrors "welfarehub/pkg/domain-errors"
	"welfarehub/pkg/platform/sentinel"
)

// ErrSyncInProgress is returned by the Start calls when the scope is busy.
var ErrSyncInProgress = dErrors.Wrap(sentinel.ErrConflict, dErrors.CodeConflict, "catalog sync already in progress")

// ErrSyncDisabled is returned by the Start calls when sync is switched off.
var ErrSyncDisabled = dErrors.Wrap(sentinel.ErrUnavailable, dErrors.CodeUnavailable, "welfare sync is disabled")

// Store is the write side of the catalog the synchronizer needs.
type Store interface {
	Upsert(ctx context.Context, rec *models.BenefitRecord, now time.Time) (store.UpsertOutcome, error)
	MarkUnseen(ctx context.Context, filter store.UnseenFilter, seenSince, now time.Time) (int, error)
	DeactivateStaleBefore(ctx context.Context, cutoff, now time.Time) (int, error)
}

type Config struct {
	Enabled       bool
	PageSize      int
	MaxPages      int
	MaxRetryCount int
	RetryDelay    time.Duration
	RegionDelay   time.Duration
	StaleAfter    time.Duration
	MajorRegions  []string
}

// maxConsecutivePageFailures ends a walk whose source keeps failing.
const maxConsecutivePageFailures = 2

type Synchronizer struct {
	registry *source.Registry
	store    Store
	cfg      Config
	limiter  *rate.Limiter
	logger   *slog.Logger
	metrics  *metrics.Metrics
	clock    func() time.Time

	central sync.Mutex
	local   sync.Mutex

	runCtx     context.Context
	cancelRuns context.CancelFunc
	runs       sync.WaitGroup
}

type Option func(*Synchronizer)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Synchronizer) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Synchronizer) { s.metrics = m }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Synchronizer) { s.clock = clock }
}

func New(registry *source.Registry, st Store, cfg Config, opts ...Option) *Synchronizer {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 100
	}
	if cfg.MaxRetryCount <= 0 {
		cfg.MaxRetryCount = 1
	}
	limit := rate.Inf
	if cfg.RegionDelay > 0 {
		limit = rate.Every(cfg.RegionDelay)
	}
	s := &Synchronizer{
		registry: registry,
		store:    st,
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   slog.Default(),
		clock:    time.Now,
	}
	s.runCtx, s.cancelRuns = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(s)
	}
	if cfg.Enabled && registry.Len() == 0 {
		s.logger.Warn("welfare sync enabled but no sources are registered")
	}
	return s
}

// Enabled reports whether sync calls do any work.
func (s *Synchronizer) Enabled() bool {
	return s.cfg.Enabled && s.registry.Len() > 0
}

func (s *Synchronizer) disabledResult(name string) models.SyncResult {
	now := s.clock()
	s.logger.Warn("welfare sync is disabled, skipping", "source", name)
	return models.SyncResult{Source: name, Disabled: true, StartedAt: now, FinishedAt: now}
}

func (s *Synchronizer) busyResult(ctx context.Context, name string) models.SyncResult {
	now := s.clock()
	s.logger.WarnContext(ctx, "welfare sync already running, skipping", "source", name)
	return models.SyncResult{Source: name, InProgress: true, StartedAt: now, FinishedAt: now}
}

// StartCentral launches a central sync in the background and returns once it
// has claimed the central scope. The run outlives ctx's cancellation but
// keeps its values; Shutdown stops it.
func (s *Synchronizer) StartCentral(ctx context.Context) error {
	return s.start(ctx, &s.central, s.syncCentral)
}

// StartLocal is StartCentral for one region.
func (s *Synchronizer) StartLocal(ctx context.Context, regionCode, subRegionCode string) error {
	return s.start(ctx, &s.local, func(ctx context.Context) models.SyncResult {
		return s.syncLocal(ctx, regionCode, subRegionCode)
	})
}

func (s *Synchronizer) start(ctx context.Context, guard *sync.Mutex, run func(context.Context) models.SyncResult) error {
	if !s.Enabled() {
		return ErrSyncDisabled
	}
	if !guard.TryLock() {
		return ErrSyncInProgress
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(s.runCtx, cancel)
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		defer guard.Unlock()
		defer stop()
		defer cancel()
		run(runCtx)
	}()
	return nil
}

// Shutdown cancels background runs and waits for them to return.
func (s *Synchronizer) Shutdown(ctx context.Context) error {
	s.cancelRuns()
	done := make(chan struct{})
	go func() {
		s.runs.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SyncCentral refreshes every central source. Central records not seen in a
// complete run are marked STALE.
func (s *Synchronizer) SyncCentral(ctx context.Context) models.SyncResult {
	if !s.Enabled() {
		return s.disabledResult("central")
	}
	if !s.central.TryLock() {
		return s.busyResult(ctx, "central")
	}
	defer s.central.Unlock()
	return s.syncCentral(ctx)
}

func (s *Synchronizer) syncCentral(ctx context.Context) models.SyncResult {
	startedAt := s.clock()
	total := models.SyncResult{Source: "central", StartedAt: startedAt, FinishedAt: startedAt}
	complete := true
	for _, src := range s.registry.ByScope(models.ScopeCentral) {
		res, walked := s.syncSource(ctx, src, source.PageRequest{})
		total.Merge(res)
		complete = complete && walked && res.Complete()
	}
	if complete && ctx.Err() == nil {
		total.Deactivated = s.markUnseen(ctx, store.UnseenFilter{Scope: models.ScopeCentral}, startedAt)
	}
	total.FinishedAt = s.clock()
	s.logResult(ctx, total)
	return total
}

// SyncLocal refreshes one region (and optional sub-region). Calls are paced
// so consecutive regional syncs keep at least RegionDelay apart.
func (s *Synchronizer) SyncLocal(ctx context.Context, regionCode, subRegionCode string) models.SyncResult {
	if !s.Enabled() {
		return s.disabledResult("local")
	}
	if !s.local.TryLock() {
		return s.busyResult(ctx, "local")
	}
	defer s.local.Unlock()
	return s.syncLocal(ctx, regionCode, subRegionCode)
}

func (s *Synchronizer) syncLocal(ctx context.Context, regionCode, subRegionCode string) models.SyncResult {
	region := models.NormalizeRegion(regionCode)
	startedAt := s.clock()
	total := models.SyncResult{Source: "local", Region: region, SubRegion: subRegionCode, StartedAt: startedAt, FinishedAt: startedAt}

	if err := s.limiter.Wait(ctx); err != nil {
		total.Errors = append(total.Errors, fmt.Sprintf("pacing: %v", err))
		total.FinishedAt = s.clock()
		return total
	}

	complete := true
	req := source.PageRequest{RegionCode: region, SubRegionCode: subRegionCode}
	for _, src := range s.registry.ByScope(models.ScopeLocal) {
		res, walked := s.syncSource(ctx, src, req)
		total.Merge(res)
		complete = complete && walked && res.Complete()
	}
	if complete && region != "" && ctx.Err() == nil {
		filter := store.UnseenFilter{Scope: models.ScopeLocal, Region: region, SubRegion: subRegionCode}
		total.Deactivated = s.markUnseen(ctx, filter, startedAt)
	}
	total.FinishedAt = s.clock()
	s.logResult(ctx, total)
	return total
}

// SyncMajorRegions syncs each configured major region independently.
func (s *Synchronizer) SyncMajorRegions(ctx context.Context) models.SyncResult {
	if !s.Enabled() {
		return s.disabledResult("local")
	}
	if !s.local.TryLock() {
		return s.busyResult(ctx, "local")
	}
	defer s.local.Unlock()
	startedAt := s.clock()
	total := models.SyncResult{Source: "local", StartedAt: startedAt, FinishedAt: startedAt}
	for _, region := range s.cfg.MajorRegions {
		if ctx.Err() != nil {
			break
		}
		total.Merge(s.syncLocal(ctx, region, ""))
	}
	total.FinishedAt = s.clock()
	return total
}

// DeactivateStale marks records not synced within StaleAfter of now as STALE.
func (s *Synchronizer) DeactivateStale(ctx context.Context, now time.Time) (int, error) {
	if s.cfg.StaleAfter <= 0 {
		return 0, nil
	}
	cutoff := now.Add(-s.cfg.StaleAfter)
	n, err := s.store.DeactivateStaleBefore(ctx, cutoff, now)
	if err != nil {
		return 0, fmt.Errorf("deactivate stale catalog records: %w", err)
	}
	s.metrics.AddStale(n)
	s.logger.InfoContext(ctx, "stale catalog records deactivated", "count", n, "cutoff", cutoff)
	return n, nil
}

// syncSource walks one source. walked is false when the walk stopped before
// the source reported its last page.
func (s *Synchronizer) syncSource(ctx context.Context, src source.Source, base source.PageRequest) (models.SyncResult, bool) {
	start := s.clock()
	res := models.SyncResult{Source: src.ID(), Region: base.RegionCode, SubRegion: base.SubRegionCode, StartedAt: start}
	walked := false
	failures := 0

	for pageNo := 1; pageNo <= s.cfg.MaxPages; pageNo++ {
		if ctx.Err() != nil {
			res.Errors = append(res.Errors, ctx.Err().Error())
			break
		}
		req := base
		req.PageNo = pageNo
		req.PageSize = s.cfg.PageSize

		page, err := s.fetchWithRetry(ctx, src, req)
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("page %d: %v", pageNo, err))
			s.logger.WarnContext(ctx, "catalog page failed, skipping",
				"source", src.ID(),
				"region", base.RegionCode,
				"page", pageNo,
				"category", source.GetCategory(err),
				"error", err,
			)
			failures++
			if !source.IsRetryable(err) || failures >= maxConsecutivePageFailures {
				break
			}
			continue
		}
		failures = 0
		res.Pages++
		res.Fetched += len(page.Records) + page.Dropped
		res.Skipped += page.Dropped
		if page.Dropped > 0 {
			s.logger.WarnContext(ctx, "dropped malformed catalog records",
				"source", src.ID(),
				"page", pageNo,
				"count", page.Dropped,
			)
		}

		s.applyPage(ctx, src.ID(), page, &res)

		if !page.HasMore {
			walked = true
			break
		}
		if pageNo == s.cfg.MaxPages {
			s.logger.WarnContext(ctx, "catalog page ceiling reached",
				"source", src.ID(),
				"region", base.RegionCode,
				"max_pages", s.cfg.MaxPages,
			)
		}
	}

	res.FinishedAt = s.clock()
	status := "complete"
	if !walked || !res.Complete() {
		status = "partial"
	}
	s.metrics.ObserveSyncRun(src.ID(), status, res.FinishedAt.Sub(start))
	return res, walked
}

func (s *Synchronizer) applyPage(ctx context.Context, sourceID string, page *source.Page, res *models.SyncResult) {
	for _, rec := range page.Records {
		outcome, err := s.store.Upsert(ctx, rec, s.clock())
		if err != nil {
			res.Failed++
			s.metrics.ObserveSyncRecord(sourceID, "failed")
			s.logger.ErrorContext(ctx, "catalog upsert failed",
				"source", sourceID,
				"source_id", rec.SourceID,
				"error", err,
			)
			continue
		}
		s.metrics.ObserveSyncRecord(sourceID, outcome.String())
		if outcome == store.OutcomeUnchanged {
			res.Unchanged++
		} else {
			res.Upserted++
		}
	}
}

// fetchWithRetry makes up to MaxRetryCount attempts with a fixed delay,
// retrying only retryable categories.
func (s *Synchronizer) fetchWithRetry(ctx context.Context, src source.Source, req source.PageRequest) (*source.Page, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxRetryCount; attempt++ {
		page, err := src.FetchPage(ctx, req)
		if err == nil {
			return page, nil
		}
		lastErr = err
		if !source.IsRetryable(err) || attempt == s.cfg.MaxRetryCount {
			break
		}
		s.metrics.IncrementSyncRetry(src.ID(), string(source.GetCategory(err)))
		s.logger.InfoContext(ctx, "retrying catalog page",
			"source", src.ID(),
			"page", req.PageNo,
			"attempt", attempt,
			"error", err,
		)
		if err := sleep(ctx, s.cfg.RetryDelay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (s *Synchronizer) markUnseen(ctx context.Context, filter store.UnseenFilter, startedAt time.Time) int {
	n, err := s.store.MarkUnseen(ctx, filter, startedAt, s.clock())
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to mark unseen catalog records",
			"scope", filter.Scope,
			"region", filter.Region,
			"error", err,
		)
		return 0
	}
	s.metrics.AddStale(n)
	return n
}

func (s *Synchronizer) logResult(ctx context.Context, r models.SyncResult) {
	s.logger.InfoContext(ctx, "welfare catalog sync finished",
		"source", r.Source,
		"region", r.Region,
		"sub_region", r.SubRegion,
		"fetched", r.Fetched,
		"upserted", r.Upserted,
		"unchanged", r.Unchanged,
		"skipped", r.Skipped,
		"failed", r.Failed,
		"pages", r.Pages,
		"deactivated", r.Deactivated,
		"duration", r.FinishedAt.Sub(r.StartedAt),
	)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
