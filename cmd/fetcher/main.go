package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"reviewharvest/internal/adapters/appstore"
	"reviewharvest/internal/adapters/googleplay"
	httpserver "reviewharvest/internal/adapters/http_server"
	"reviewharvest/internal/adapters/observability"
	redisad "reviewharvest/internal/adapters/redis"
	"reviewharvest/internal/app"
	"reviewharvest/internal/domain"
	"reviewharvest/internal/shared"
	"reviewharvest/internal/storage/csvstore"
	mysqlarc "reviewharvest/internal/storage/mysql"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, domain.ErrNoReviews) {
			log.Error().Msg("no reviews were fetched, nothing to persist")
		} else {
			log.Error().Err(err).Msg("run failed")
		}
		os.Exit(1)
	}
}

// run holds the whole lifecycle so every deferred cleanup fires before the
// process decides its exit code.
func run() error {
	platformFlag := flag.String("platform", "", "platform to fetch from: google or apple (required)")
	appID := flag.String("app-id", "", "app id: package name for Google, numeric id for Apple (required)")
	country := flag.String("country", "us", "country code")
	maxReviews := flag.Int("max-reviews", 1000, "maximum number of reviews to fetch")
	delaySec := flag.Float64("delay", 1.0, "delay between requests in seconds")
	lang := flag.String("lang", "en", "language code (Google only)")
	output := flag.String("output", "", "custom output filename (without extension)")
	resume := flag.Bool("resume", false, "resume from a checkpointed cursor (needs REDIS_ADDR)")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	_ = godotenv.Load()
	cfg := shared.Load()

	runID := uuid.NewString()
	log.Logger = observability.NewLogger(cfg.AppEnv, runID)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	platform, err := domain.ParsePlatform(*platformFlag)
	if err != nil {
		return fmt.Errorf("invalid -platform: %w", err)
	}
	if *appID == "" {
		return fmt.Errorf("-app-id is required")
	}
	// Validate before touching the network.
	if err := shared.ValidateAppID(platform, *appID); err != nil {
		return fmt.Errorf("app id %q: %w", *appID, err)
	}

	log.Info().
		Str("platform", string(platform)).
		Str("app_id", *appID).
		Int("max_reviews", *maxReviews).
		Msg("fetcher starting")

	var src domain.Source
	switch platform {
	case domain.PlatformGoogle:
		src, err = googleplay.New(cfg.GoogleBase, *appID, *lang, *country, cfg.RequestsPerSec)
	case domain.PlatformApple:
		var cl *appstore.Client
		cl, err = appstore.New(cfg.AppStoreBase, *appID, *country, cfg.RequestsPerSec)
		if err == nil {
			src = appstore.NewSource(cl)
		}
	}
	if err != nil {
		return fmt.Errorf("initialize source client: %w", err)
	}

	store, err := csvstore.New(cfg.RawDir, cfg.ProcessedDir)
	if err != nil {
		return fmt.Errorf("prepare output directories: %w", err)
	}

	var cursors domain.CursorStore
	if cfg.RedisAddr != "" {
		cursors = redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, cfg.CursorTTL)
	} else if *resume {
		log.Warn().Msg("-resume set but REDIS_ADDR is empty, checkpoints disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var archive domain.ReviewArchive
	if cfg.MySQLDSN != "" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return fmt.Errorf("open mysql: %w", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			return fmt.Errorf("ping mysql: %w", err)
		}
		arc := mysqlarc.New(db)
		if err := arc.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("archive schema setup: %w", err)
		}
		archive = arc
		log.Info().Msg("database archive enabled")
	}

	stats := &domain.RunStats{}
	svc := app.NewFetchService(src, store, archive, cursors, stats)
	opts := app.RunOptions{
		AppID:      *appID,
		MaxReviews: *maxReviews,
		Delay:      time.Duration(*delaySec * float64(time.Second)),
		BatchSize:  cfg.BatchSize,
		MaxRetries: cfg.MaxRetries,
		Resume:     *resume,
		OutputName: *output,
	}

	g, gctx := errgroup.WithContext(ctx)

	var httpSrv *http.Server
	if cfg.MetricsAddr != "" {
		srv := httpserver.New()
		reg := observability.InitRegistry()
		srv.Mount("/metrics", observability.MetricsHandler(reg))
		srv.MountHandlers(&httpserver.Handlers{
			RunID:    runID,
			Platform: platform,
			AppID:    *appID,
			Stats:    stats,
		})
		httpSrv = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           srv.Mux(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info().Str("addr", cfg.MetricsAddr).Msg("ops server listening")
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	var res app.RunResult
	var runErr error
	g.Go(func() error {
		res, runErr = svc.Run(gctx, opts)
		if httpSrv != nil {
			shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shCtx)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("ops server: %w", err)
	}

	snap := res.Stats
	log.Info().
		Int("fetched", snap.Fetched).
		Int("errors", snap.Errors).
		Int("security_related", snap.SecurityRelated).
		Float64("security_percent", snap.SecurityPercent()).
		Msg("fetch statistics")

	if runErr != nil {
		return runErr
	}

	log.Info().
		Int("reviews", len(res.Reviews)).
		Str("raw", res.RawPath).
		Str("processed", res.ProcessedPath).
		Msg("fetch completed")
	return nil
}
