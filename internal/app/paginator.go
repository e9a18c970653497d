package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"reviewharvest/internal/adapters/observability"
	"reviewharvest/internal/domain"
)

// Paginator drives one source to collect up to a requested number of raw
// records. It owns the inter-batch delay, the retry-with-doubled-delay policy
// for transient failures, and cursor checkpointing.
type Paginator struct {
	src        domain.Source
	stats      *domain.RunStats
	cursors    domain.CursorStore // optional
	appID      string
	delay      time.Duration
	batchSize  int
	maxRetries int // consecutive failures per round before giving up
}

func NewPaginator(src domain.Source, stats *domain.RunStats, cursors domain.CursorStore,
	appID string, delay time.Duration, batchSize, maxRetries int) *Paginator {
	if batchSize <= 0 {
		batchSize = 200
	}
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &Paginator{
		src:        src,
		stats:      stats,
		cursors:    cursors,
		appID:      appID,
		delay:      delay,
		batchSize:  batchSize,
		maxRetries: maxRetries,
	}
}

// Collect fetches up to max records in upstream delivery order. Cancellation
// is honored at round boundaries and returns whatever was collected with a
// nil error. A round that keeps failing past the retry cap ends collection
// early and surfaces the last error alongside the partial result.
func (p *Paginator) Collect(ctx context.Context, max int, resume bool) ([]domain.RawRecord, error) {
	platform := string(p.src.Platform())

	var cursor *string
	if resume && p.cursors != nil {
		if c, ok, err := p.cursors.Get(ctx, p.src.Platform(), p.appID); err != nil {
			log.Warn().Err(err).Msg("cursor checkpoint load failed, starting from the top")
		} else if ok {
			cursor = &c
			log.Info().Str("cursor", c).Msg("resuming from checkpointed cursor")
		}
	}

	var collected []domain.RawRecord
	retries := 0
	for len(collected) < max {
		if ctx.Err() != nil {
			log.Info().Int("collected", len(collected)).Msg("fetch interrupted")
			return collected, nil
		}

		count := p.batchSize
		if rem := max - len(collected); rem < count {
			count = rem
		}

		items, next, err := p.src.FetchBatch(ctx, cursor, count)
		if err != nil {
			if ctx.Err() != nil {
				log.Info().Int("collected", len(collected)).Msg("fetch interrupted")
				return collected, nil
			}
			p.stats.AddError()
			observability.ObserveBatch(platform, false, 0)
			retries++
			log.Error().Err(err).Int("retry", retries).Msg("batch fetch failed")
			if retries > p.maxRetries {
				return collected, fmt.Errorf("giving up after %d consecutive failures: %w", retries, err)
			}
			if !sleepCtx(ctx, p.delay*2) {
				return collected, nil
			}
			continue // retry the same round
		}
		retries = 0

		p.stats.AddFetched(len(items))
		observability.ObserveBatch(platform, true, len(items))
		collected = append(collected, items...)
		log.Info().
			Int("batch", len(items)).
			Int("total", len(collected)).
			Msg("batch fetched")

		if next != nil && p.cursors != nil {
			if err := p.cursors.Set(ctx, p.src.Platform(), p.appID, *next); err != nil {
				log.Warn().Err(err).Msg("cursor checkpoint save failed")
			}
		}

		if len(items) == 0 || next == nil {
			log.Info().Msg("no more reviews available")
			if p.cursors != nil {
				_ = p.cursors.Clear(ctx, p.src.Platform(), p.appID)
			}
			break
		}
		cursor = next

		if len(collected) >= max {
			break
		}
		if !sleepCtx(ctx, p.delay) {
			log.Info().Int("collected", len(collected)).Msg("fetch interrupted")
			return collected, nil
		}
	}
	return collected, nil
}

// sleepCtx waits for d or returns false if ctx is done first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
