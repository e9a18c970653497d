package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"reviewharvest/internal/adapters/observability"
	"reviewharvest/internal/domain"
)

// RunOptions are the caller-supplied parameters for one fetch invocation.
type RunOptions struct {
	AppID      string
	MaxReviews int
	Delay      time.Duration
	BatchSize  int
	MaxRetries int
	Resume     bool
	OutputName string // optional; synthesized from platform/app/timestamp when empty
}

// RunResult is everything a caller needs after a completed run.
type RunResult struct {
	Reviews       []domain.Review
	RawPath       string
	ProcessedPath string
	Stats         domain.StatsSnapshot
}

// FetchService wires the whole pipeline: paginate one source, normalize,
// classify, persist raw+processed datasets, and archive best-effort.
// Archive and cursors are optional collaborators; nil disables them.
type FetchService struct {
	src     domain.Source
	store   domain.ReviewStore
	archive domain.ReviewArchive
	cursors domain.CursorStore
	stats   *domain.RunStats
}

func NewFetchService(src domain.Source, store domain.ReviewStore,
	archive domain.ReviewArchive, cursors domain.CursorStore, stats *domain.RunStats) *FetchService {
	return &FetchService{src: src, store: store, archive: archive, cursors: cursors, stats: stats}
}

func (s *FetchService) Run(ctx context.Context, opts RunOptions) (RunResult, error) {
	platform := s.src.Platform()
	res := RunResult{}

	pag := NewPaginator(s.src, s.stats, s.cursors, opts.AppID, opts.Delay, opts.BatchSize, opts.MaxRetries)
	raw, err := pag.Collect(ctx, opts.MaxReviews, opts.Resume)
	if err != nil {
		// Partial data is still worth processing; the error count already
		// reflects what went wrong.
		log.Warn().Err(err).Int("collected", len(raw)).Msg("fetch ended early, continuing with partial data")
	}

	fetchedAt := time.Now().UTC()
	reviews, nerr := Normalize(platform, raw, fetchedAt)
	if nerr != nil {
		log.Error().Err(nerr).Msg("normalization rejected the batch")
	}

	flagged := Classify(reviews)
	s.stats.AddSecurityRelated(flagged)
	observability.SecurityFlagged.WithLabelValues(string(platform)).Add(float64(flagged))

	res.Reviews = reviews
	res.Stats = s.stats.Snapshot()

	if len(reviews) == 0 {
		return res, domain.ErrNoReviews
	}

	name := opts.OutputName
	if name == "" {
		name = fmt.Sprintf("%s_%s_%s", platform, opts.AppID, fetchedAt.Format("20060102_150405"))
	}

	rawPath, err := s.store.SaveRaw(name, reviews)
	if err != nil {
		return res, fmt.Errorf("save raw dataset: %w", err)
	}
	res.RawPath = rawPath
	log.Info().Str("path", rawPath).Int("rows", len(reviews)).Msg("raw dataset saved")

	processedPath, err := s.store.SaveProcessed(name, reviews)
	if err != nil {
		return res, fmt.Errorf("save processed dataset: %w", err)
	}
	res.ProcessedPath = processedPath
	log.Info().Str("path", processedPath).Msg("processed dataset saved")

	if s.archive != nil {
		// Archive even when the run was interrupted; the datasets made it to
		// disk, so the archive should match them.
		if err := s.archive.UpsertReviews(context.WithoutCancel(ctx), opts.AppID, reviews); err != nil {
			log.Error().Err(err).Msg("archive upsert failed (datasets already on disk)")
		} else {
			log.Info().Int("rows", len(reviews)).Msg("archived to database")
		}
	}

	res.Stats = s.stats.Snapshot()
	return res, nil
}
