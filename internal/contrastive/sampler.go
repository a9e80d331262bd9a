package contrastive

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/courtside/internal/metrics"
	"github.com/yourusername/courtside/internal/models"
)

// DefaultNegatives is the default negative pool size per training sample.
const DefaultNegatives = 64

// LabelSource supplies label vectors from persistent storage when the cache
// is cold or depleted.
type LabelSource interface {
	GetRandomBatch(ctx context.Context, limit int, excludeGame uuid.UUID) ([]models.TransitionLabel, error)
}

// NegativeSampleCache maintains a bounded, refreshable pool of other games'
// label vectors for contrastive negatives. It is shared mutable state:
// readers work on a snapshot so a refresh underneath them is harmless.
type NegativeSampleCache struct {
	source  LabelSource
	pool    *cache.Cache
	maxSize int
	logger  *logrus.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewNegativeSampleCache creates a cache holding at most maxSize labels,
// each expiring after ttl.
func NewNegativeSampleCache(source LabelSource, ttl time.Duration, maxSize int, seed int64, logger *logrus.Logger) *NegativeSampleCache {
	return &NegativeSampleCache{
		source:  source,
		pool:    cache.New(ttl, ttl*2),
		maxSize: maxSize,
		logger:  logger,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

func poolKey(label models.TransitionLabel) string {
	return label.GameID.String() + ":" + label.TeamID
}

// Put adds one label to the pool, evicting expired entries first when full.
func (c *NegativeSampleCache) Put(label models.TransitionLabel) {
	if c.pool.ItemCount() >= c.maxSize {
		c.pool.DeleteExpired()
		if c.pool.ItemCount() >= c.maxSize {
			return
		}
	}
	c.pool.SetDefault(poolKey(label), label)
	metrics.NegativeCacheSize.Set(float64(c.pool.ItemCount()))
}

// Size returns the current number of pooled labels.
func (c *NegativeSampleCache) Size() int {
	return c.pool.ItemCount()
}

// Refresh repopulates the pool from the label source.
func (c *NegativeSampleCache) Refresh(ctx context.Context) error {
	labels, err := c.source.GetRandomBatch(ctx, c.maxSize, uuid.Nil)
	if err != nil {
		return fmt.Errorf("failed to refresh negative pool: %w", err)
	}
	c.pool.Flush()
	for _, label := range labels {
		if err := label.Validate(); err != nil {
			// Corrupt stored labels are skipped, not fatal.
			c.logger.WithError(err).WithField("game_id", label.GameID).
				Debug("Skipping invalid label during refresh")
			continue
		}
		c.pool.SetDefault(poolKey(label), label)
	}
	metrics.NegativeCacheRefreshesTotal.Inc()
	metrics.NegativeCacheSize.Set(float64(c.pool.ItemCount()))
	return nil
}

// Sample draws up to k negative label vectors, always excluding the positive
// game's own labels. When the pool cannot cover k it pulls additional labels
// from the source on demand. Returns an error only when no usable negative
// exists at all.
func (c *NegativeSampleCache) Sample(ctx context.Context, excludeGame uuid.UUID, k int) ([][models.NumOutcomes]float64, error) {
	usable := c.snapshot(excludeGame)

	if len(usable) < k && c.source != nil {
		extra, err := c.source.GetRandomBatch(ctx, c.maxSize, excludeGame)
		if err != nil {
			c.logger.WithError(err).Warn("On-demand negative refill failed, sampling from current pool")
		} else {
			for _, label := range extra {
				if label.Validate() != nil {
					continue
				}
				c.Put(label)
			}
			usable = c.snapshot(excludeGame)
		}
	}

	if len(usable) == 0 {
		return nil, fmt.Errorf("%w: negative pool is empty", models.ErrNoTrainingData)
	}

	c.mu.Lock()
	c.rng.Shuffle(len(usable), func(i, j int) {
		usable[i], usable[j] = usable[j], usable[i]
	})
	c.mu.Unlock()

	if len(usable) > k {
		usable = usable[:k]
	}
	out := make([][models.NumOutcomes]float64, len(usable))
	for i, label := range usable {
		out[i] = label.Probs
	}
	return out, nil
}

// snapshot copies the current pool contents, dropping the excluded game and
// any label that fails validation.
func (c *NegativeSampleCache) snapshot(excludeGame uuid.UUID) []models.TransitionLabel {
	items := c.pool.Items()
	labels := make([]models.TransitionLabel, 0, len(items))
	for _, item := range items {
		label, ok := item.Object.(models.TransitionLabel)
		if !ok {
			continue
		}
		if label.GameID == excludeGame {
			continue
		}
		if label.Validate() != nil {
			continue
		}
		labels = append(labels, label)
	}
	return labels
}
