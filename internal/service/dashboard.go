package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"feedbackdesk/internal/cache"
	"feedbackdesk/internal/metrics"
	"feedbackdesk/internal/model"
	"feedbackdesk/internal/repository"
)

// refreshTimeout bounds recomputes started in the background
const refreshTimeout = 30 * time.Second

var tracer = otel.Tracer("feedbackdesk/service")

// DashboardService recomputes, caches and pushes the admin dashboard
type DashboardService struct {
	schema      *SchemaService
	gate        *Gate
	responses   repository.ResponseRepo
	cache       cache.DashboardCache
	broadcaster Broadcaster
	metrics     *metrics.Metrics
	logger      *slog.Logger

	highThreshold int
	lowThreshold  int

	generation atomic.Uint64
	applyMu    sync.Mutex
	wg         sync.WaitGroup
	now        func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	schema *SchemaService,
	gate *Gate,
	responses repository.ResponseRepo,
	dashboardCache cache.DashboardCache,
	broadcaster Broadcaster,
	m *metrics.Metrics,
	logger *slog.Logger,
	highThreshold, lowThreshold int,
) *DashboardService {
	return &DashboardService{
		schema:        schema,
		gate:          gate,
		responses:     responses,
		cache:         dashboardCache,
		broadcaster:   broadcaster,
		metrics:       m,
		logger:        logger,
		highThreshold: highThreshold,
		lowThreshold:  lowThreshold,
		now:           time.Now,
	}
}

// Snapshot is the raw data a dashboard is computed from
type Snapshot struct {
	Questions    []model.Question
	Responses    []*model.Response
	AccessPINSet bool
}

// LoadSnapshot reads schema and secret concurrently, then the responses.
func (s *DashboardService) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		questions, err := s.schema.Load(gctx)
		if err != nil {
			return err
		}
		snap.Questions = questions
		return nil
	})
	g.Go(func() error {
		stored, err := s.gate.Stored(gctx)
		if err != nil {
			return err
		}
		snap.AccessPINSet = stored
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	responses, err := s.responses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load responses: %w", ErrStorageUnavailable, err)
	}
	snap.Responses = responses
	return snap, nil
}

// Refresh runs a full recompute. Only the result of the most recently started
// recompute is cached and pushed; an older result is still returned to its
// caller but otherwise dropped.
func (s *DashboardService) Refresh(ctx context.Context) (*model.Dashboard, error) {
	gen := s.generation.Add(1)
	start := time.Now()

	ctx, span := tracer.Start(ctx, "dashboard.refresh")
	span.SetAttributes(attribute.Int64("dashboard.generation", int64(gen)))
	defer func() {
		s.metrics.RecomputeDuration.Observe(time.Since(start).Seconds())
		span.End()
	}()

	snap, err := s.LoadSnapshot(ctx)
	if err != nil {
		s.metrics.Recomputes.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "load snapshot")
		return nil, err
	}
	span.SetAttributes(attribute.Int("dashboard.responses", len(snap.Responses)))

	dashboard, err := Compute(snap.Responses, snap.Questions, AggregateOptions{
		HighThreshold: s.highThreshold,
		LowThreshold:  s.lowThreshold,
		Now:           s.now().UTC(),
	})
	if err != nil {
		s.metrics.Recomputes.WithLabelValues("error").Inc()
		return nil, err
	}
	dashboard.Generation = gen
	dashboard.AccessPINSet = snap.AccessPINSet

	s.apply(ctx, dashboard)
	return dashboard, nil
}

func (s *DashboardService) apply(ctx context.Context, dashboard *model.Dashboard) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	if latest := s.generation.Load(); dashboard.Generation != latest {
		s.metrics.Recomputes.WithLabelValues("stale").Inc()
		s.logger.Debug("dropping stale dashboard", "generation", dashboard.Generation, "latest", latest)
		return
	}

	if err := s.cache.Set(ctx, dashboard); err != nil {
		s.logger.Warn("failed to cache dashboard", "error", err)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToAdmins(MsgTypeDashboardUpdated, dashboard)
	}
	s.metrics.Recomputes.WithLabelValues("applied").Inc()
}

// Invalidate drops the cached dashboard. The next Current recomputes.
func (s *DashboardService) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx)
}

// Current returns the cached dashboard, recomputing on a miss, with comments
// filtered by search.
func (s *DashboardService) Current(ctx context.Context, search string) (*model.Dashboard, error) {
	dashboard, err := s.cache.Get(ctx)
	if err != nil {
		s.logger.Warn("dashboard cache read failed", "error", err)
		dashboard = nil
	}
	if dashboard == nil {
		if dashboard, err = s.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	filtered := *dashboard
	filtered.SearchTerm = search
	filtered.Comments = FilterComments(dashboard.Comments, search)
	return &filtered, nil
}

// Trigger starts a background recompute. It never blocks the caller.
func (s *DashboardService) Trigger(reason string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if _, err := s.Refresh(ctx); err != nil {
			s.logger.Error("dashboard recompute failed", "reason", reason, "error", err)
		}
	}()
}

// Wait blocks until background recomputes started by Trigger have finished.
func (s *DashboardService) Wait() {
	s.wg.Wait()
}
