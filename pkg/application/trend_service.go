package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agentroi/runrate/pkg/domain"
	"github.com/agentroi/runrate/pkg/domain/analytics"
)

// Default trend window settings.
const (
	DefaultForecastDays = 30
	maxForecastDays     = 365
)

// TrendQuery selects the series to analyze.
type TrendQuery struct {
	Metric       analytics.Metric
	AgentID      string
	Division     string
	LookbackDays int
	ForecastDays int
}

// TrendService runs trend analysis over the snapshot store.
type TrendService struct {
	snapshots    domain.SnapshotRepository
	lookbackDays int
	forecastDays int
	logger       *slog.Logger
	now          func() time.Time
}

// NewTrendService creates a trend service. Non-positive window settings use
// the defaults.
func NewTrendService(snapshots domain.SnapshotRepository, lookbackDays, forecastDays int, logger *slog.Logger) *TrendService {
	if lookbackDays <= 0 {
		lookbackDays = analytics.DefaultLookbackDays
	}
	if forecastDays <= 0 {
		forecastDays = DefaultForecastDays
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TrendService{
		snapshots:    snapshots,
		lookbackDays: lookbackDays,
		forecastDays: forecastDays,
		logger:       logger,
		now:          time.Now,
	}
}

// Trend analyzes one metric over the requested window.
func (s *TrendService) Trend(ctx context.Context, q TrendQuery) (analytics.TrendData, error) {
	if q.Metric == "" {
		q.Metric = analytics.MetricTimeSaved
	}
	if !q.Metric.IsValid() {
		return analytics.TrendData{}, fmt.Errorf("unknown metric %q", q.Metric)
	}
	q = s.withDefaults(q)

	snaps, err := s.snapshots.LoadSnapshots(ctx, s.filter(q))
	if err != nil {
		return analytics.TrendData{}, fmt.Errorf("load snapshots: %w", err)
	}

	trend := analytics.Analyze(snaps, q.Metric, q.ForecastDays)
	s.logger.Debug("analyzed trend",
		"metric", q.Metric,
		"points", len(trend.Historical),
		"r_squared", trend.Regression.RSquared)
	return trend, nil
}

// CompareMetrics analyzes every metric over the same window. The snapshot
// series is loaded once and the metrics are analyzed concurrently.
func (s *TrendService) CompareMetrics(ctx context.Context, q TrendQuery) ([]analytics.TrendData, error) {
	q = s.withDefaults(q)

	snaps, err := s.snapshots.LoadSnapshots(ctx, s.filter(q))
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}

	metrics := analytics.Metrics()
	out := make([]analytics.TrendData, len(metrics))

	g, ctx := errgroup.WithContext(ctx)
	for i, m := range metrics {
		i, m := i, m
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = analytics.Analyze(snaps, m, q.ForecastDays)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TrendService) withDefaults(q TrendQuery) TrendQuery {
	if q.LookbackDays <= 0 {
		q.LookbackDays = s.lookbackDays
	}
	if q.ForecastDays <= 0 {
		q.ForecastDays = s.forecastDays
	}
	if q.ForecastDays > maxForecastDays {
		q.ForecastDays = maxForecastDays
	}
	return q
}

func (s *TrendService) filter(q TrendQuery) analytics.Filter {
	since := s.now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -q.LookbackDays)
	return analytics.Filter{AgentID: q.AgentID, Division: q.Division, Since: since}
}
