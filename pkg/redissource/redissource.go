// Package redissource provides a pager.Source that pages through items
// stored in a Redis list.
//
// Each list element holds one JSON-encoded item. A page is the LRANGE
// window [page*pageSize, (page+1)*pageSize); the list length is reported
// as the authoritative total count, so the controller detects completion
// proactively without waiting for an empty page.
package redissource

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pagekit/pagekit/pkg/pager"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for Redis source operations.
var (
	redisPagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "redissource_pages_total",
		Help: "Total Redis page reads by status",
	}, []string{"status"})
)

// Source pages through a Redis list, decoding each element into T.
type Source[T any] struct {
	rdb      *redis.Client
	key      string
	pageSize int
	logger   zerolog.Logger
}

// New creates a Redis page source over the list stored at key.
func New[T any](rdb *redis.Client, key string, pageSize int) (*Source[T], error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if key == "" {
		return nil, fmt.Errorf("list key is required")
	}
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be > 0 (got %d)", pageSize)
	}

	return &Source[T]{
		rdb:      rdb,
		key:      key,
		pageSize: pageSize,
		logger:   log.With().Str("component", "redissource").Logger(),
	}, nil
}

// FetchPage implements pager.Source. It reads one LRANGE window and the
// list length.
func (s *Source[T]) FetchPage(ctx context.Context, page int) (pager.Page[T], error) {
	start := time.Now()

	total, err := s.rdb.LLen(ctx, s.key).Result()
	if err != nil {
		redisPagesTotal.WithLabelValues("error").Inc()
		return pager.Page[T]{}, fmt.Errorf("llen %s: %w", s.key, err)
	}

	lo := int64(page) * int64(s.pageSize)
	hi := lo + int64(s.pageSize) - 1

	raw, err := s.rdb.LRange(ctx, s.key, lo, hi).Result()
	if err != nil {
		redisPagesTotal.WithLabelValues("error").Inc()
		return pager.Page[T]{}, fmt.Errorf("lrange %s [%d,%d]: %w", s.key, lo, hi, err)
	}

	items := make([]T, 0, len(raw))
	for i, el := range raw {
		var v T
		if err := json.Unmarshal([]byte(el), &v); err != nil {
			redisPagesTotal.WithLabelValues("decode_error").Inc()
			return pager.Page[T]{}, fmt.Errorf("decode element %d of page %d: %w", i, page, err)
		}
		items = append(items, v)
	}

	redisPagesTotal.WithLabelValues("ok").Inc()
	s.logger.Debug().
		Str("key", s.key).
		Int("page", page).
		Int("count", len(items)).
		Int64("total", total).
		Dur("duration", time.Since(start)).
		Msg("Page read from list")

	return pager.Page[T]{Items: items, TotalCount: int(total)}, nil
}
