// Command intelligenced runs the trade intelligence engine as an HTTP
// service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sri0310-dev/tesseract/internal/config"
	"github.com/sri0310-dev/tesseract/internal/entity"
	"github.com/sri0310-dev/tesseract/internal/infrastructure"
	"github.com/sri0310-dev/tesseract/internal/metrics"
	"github.com/sri0310-dev/tesseract/internal/normalizer"
	"github.com/sri0310-dev/tesseract/internal/predictor"
	"github.com/sri0310-dev/tesseract/internal/refdata"
	"github.com/sri0310-dev/tesseract/internal/service"
	"github.com/sri0310-dev/tesseract/internal/signals"
	"github.com/sri0310-dev/tesseract/internal/store/sqlite"
	transport "github.com/sri0310-dev/tesseract/internal/transport/http"
	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "intelligenced: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telemetry, err := infrastructure.InitializeTelemetry(ctx, version, logger)
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer telemetry.Shutdown(context.Background())

	snap, err := buildSnapshot(cfg.RefData)
	if err != nil {
		return fmt.Errorf("load reference data: %w", err)
	}
	provider, err := refdata.NewProvider(snap, logger)
	if err != nil {
		return fmt.Errorf("initialize reference provider: %w", err)
	}

	if dir := filepath.Dir(cfg.Storage.DSN); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}
	st, err := sqlite.New(cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	// Warm the resolver from persisted entities so restarts do not mint
	// duplicate ids for known names.
	seed, err := st.ListEntities(ctx)
	if err != nil {
		logger.WarnContext(ctx, "failed to load persisted entities",
			slog.String("error", err.Error()))
	} else if len(seed) > 0 {
		logger.InfoContext(ctx, "entity registry loaded",
			slog.Int("entities", len(seed)))
	}

	svc := buildService(cfg, provider, st, telemetry, seed, logger)

	router := transport.NewRouter(cfg.Server, svc, telemetry, logger)
	srv := transport.NewServer(cfg.Server, router)

	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "http server listening",
			slog.Int("port", cfg.Server.Port),
			slog.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	return transport.Shutdown(context.Background(), srv, cfg.Server.ShutdownTimeout, logger)
}

func buildSnapshot(cfg config.RefDataConfig) (*refdata.Snapshot, error) {
	snap := refdata.DefaultSnapshot()
	if cfg.SnapshotFile != "" {
		loaded, err := refdata.LoadFile(cfg.SnapshotFile)
		if err != nil {
			return nil, err
		}
		snap = loaded
	}
	if cfg.WorkbookFile != "" {
		if err := refdata.LoadWorkbook(cfg.WorkbookFile, snap); err != nil {
			return nil, err
		}
	}
	snap.MaxAge = cfg.MaxAge
	return snap, nil
}

func buildService(cfg *config.Config, provider *refdata.Provider, st *sqlite.Store, telemetry *infrastructure.Telemetry, seed []domain.Entity, logger *slog.Logger) *service.Service {
	norm := normalizer.New(normalizer.Options{
		SuspectLowUSDPerMT:     cfg.Normalizer.SuspectLowUSDPerMT,
		SuspectHighUSDPerMT:    cfg.Normalizer.SuspectHighUSDPerMT,
		OutlierMADMultiplier:   cfg.Normalizer.OutlierMADMultiplier,
		OutlierMinComparables:  cfg.Normalizer.OutlierMinComparables,
		OutlierMultiplierByHCT: cfg.Normalizer.OutlierMultiplierByHCT,
		MaxWorkers:             cfg.Normalizer.MaxWorkers,
	}, logger)

	resolver := entity.NewResolver(entity.Config{
		MatchThreshold:  cfg.Entity.MatchThreshold,
		ReviewThreshold: cfg.Entity.ReviewThreshold,
	}, seed, logger)

	engine := metrics.NewEngine(metrics.Config{
		IPCWindowDays:      cfg.Metrics.IPCWindowDays,
		IPCThinWindowDays:  cfg.Metrics.IPCThinWindowDays,
		MinRecordsHigh:     cfg.Metrics.MinRecordsHigh,
		MinRecordsMedium:   cfg.Metrics.MinRecordsMedium,
		MaxDispersionHigh:  cfg.Metrics.MaxDispersionHigh,
		CoverageHigh:       cfg.Metrics.CoverageHigh,
		CoverageMedium:     cfg.Metrics.CoverageMedium,
		MinSampleQuotable:  cfg.Metrics.MinSampleQuotable,
		FVIRecentDays:      cfg.Metrics.FVIRecentDays,
		FVIBaselineLag:     cfg.Metrics.FVIBaselineLag,
		SDOverPct:          cfg.Metrics.SDOverPct,
		SDSlightPct:        cfg.Metrics.SDSlightPct,
		WithdrawalSharePct: cfg.Metrics.WithdrawalSharePct,
		SurgeMultiplier:    cfg.Metrics.SurgeMultiplier,
	}, logger)

	generator := signals.NewGenerator(signals.Config{
		IPCMovePct:      cfg.Signals.IPCMovePct,
		IPCMoveHighPct:  cfg.Signals.IPCMoveHighPct,
		CSSRatioTrigger: cfg.Signals.CSSRatioTrigger,
	}, logger)

	tracker := signals.NewTracker(signals.TrackerConfig{
		ConsecutiveForAlert: cfg.Signals.ConsecutiveForAlert,
		Cooldown:            cfg.Signals.Cooldown,
		TTL:                 cfg.Signals.TTL,
	})

	pred := predictor.New(predictor.Config{
		MinHistoryDays: cfg.Predictor.MinHistoryDays,
		HorizonDays:    cfg.Predictor.HorizonDays,
	}, logger)

	return service.New(norm, resolver, engine, generator, tracker, pred, provider, st, telemetry, logger)
}
