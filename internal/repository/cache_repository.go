package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/engagement-funnel/internal/models"
	appErrors "github.com/noah-isme/engagement-funnel/pkg/errors"
)

// ReportCacheRepository stores funnel reports as JSON documents in Redis.
type ReportCacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewReportCacheRepository constructs a cache repository. A nil client turns writes into no-ops
// and reads into misses.
func NewReportCacheRepository(client *redis.Client, logger *zap.Logger) *ReportCacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportCacheRepository{client: client, logger: logger}
}

// Load retrieves the report stored under key.
func (r *ReportCacheRepository) Load(ctx context.Context, key string) (*models.FunnelReport, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var report models.FunnelReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("unmarshal report for %s: %w", key, err)
	}
	return &report, nil
}

// Save writes the report under every key in a single transaction so readers of the
// run key and the latest pointer never disagree.
func (r *ReportCacheRepository) Save(ctx context.Context, report *models.FunnelReport, ttl time.Duration, keys ...string) error {
	if r.client == nil || len(keys) == 0 {
		return nil
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report %s: %w", report.RunID, err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Set(ctx, key, payload, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set %v: %w", keys, err)
	}
	r.logger.Debug("report cached", zap.Strings("keys", keys), zap.Int("bytes", len(payload)))
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *ReportCacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
