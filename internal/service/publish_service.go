package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/engagement-funnel/internal/models"
	appErrors "github.com/noah-isme/engagement-funnel/pkg/errors"
)

const latestSuffix = "latest"

// ReportCache abstracts persistence of published reports.
type ReportCache interface {
	Load(ctx context.Context, key string) (*models.FunnelReport, error)
	Save(ctx context.Context, report *models.FunnelReport, ttl time.Duration, keys ...string) error
}

// PublishService makes finished reports available to other consumers through the cache.
type PublishService struct {
	repo    ReportCache
	prefix  string
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger
}

// NewPublishService constructs a publisher. A nil repo disables publishing.
func NewPublishService(repo ReportCache, prefix string, ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *PublishService {
	if prefix == "" {
		prefix = "funnel:report"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublishService{repo: repo, prefix: prefix, ttl: ttl, metrics: metrics, logger: logger}
}

// Enabled reports whether a cache is attached.
func (s *PublishService) Enabled() bool {
	return s != nil && s.repo != nil
}

// RunKey is the cache key of one run's report.
func (s *PublishService) RunKey(runID string) string {
	return fmt.Sprintf("%s:%s", s.prefix, runID)
}

// LatestKey is the cache key that always points at the most recent report.
func (s *PublishService) LatestKey() string {
	return s.RunKey(latestSuffix)
}

// Publish stores the report under its run key and the latest key, returning the run key.
func (s *PublishService) Publish(ctx context.Context, report *models.FunnelReport) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	if report == nil || report.RunID == "" {
		return "", appErrors.Clone(appErrors.ErrInternal, "report without run id cannot be published")
	}
	key := s.RunKey(report.RunID)
	start := time.Now()
	err := s.repo.Save(ctx, report, s.ttl, key, s.LatestKey())
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrRender.Code, appErrors.ErrRender.ExitCode, "publish report")
	}
	s.logger.Info("report published", zap.String("key", key), zap.Duration("ttl", s.ttl))
	return key, nil
}

// Latest returns the most recently published report.
func (s *PublishService) Latest(ctx context.Context) (*models.FunnelReport, error) {
	if !s.Enabled() {
		return nil, appErrors.ErrCacheMiss
	}
	report, err := s.repo.Load(ctx, s.LatestKey())
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrSource.Code, appErrors.ErrSource.ExitCode, "load latest report")
	}
	return report, nil
}
