// Package service orchestrates the pipeline: normalization, entity
// resolution, metric computation, signal escalation and prediction,
// with persistence at each stage.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sri0310-dev/tesseract/internal/entity"
	"github.com/sri0310-dev/tesseract/internal/infrastructure"
	"github.com/sri0310-dev/tesseract/internal/metrics"
	"github.com/sri0310-dev/tesseract/internal/normalizer"
	"github.com/sri0310-dev/tesseract/internal/predictor"
	"github.com/sri0310-dev/tesseract/internal/refdata"
	"github.com/sri0310-dev/tesseract/internal/signals"
	"github.com/sri0310-dev/tesseract/internal/store"
	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

// analysisLookbackMonths bounds how much history each analysis run
// loads. Fifteen months covers the year-over-year comparisons plus the
// FVI baseline lag.
const analysisLookbackMonths = 15

// Service wires the pipeline stages together.
type Service struct {
	Normalizer *normalizer.Normalizer
	Resolver   *entity.Resolver
	Engine     *metrics.Engine
	Generator  *signals.Generator
	Tracker    *signals.Tracker
	Predictor  *predictor.Predictor
	Provider   *refdata.Provider
	Store      store.Store
	Telemetry  *infrastructure.Telemetry

	logger *slog.Logger
	clock  func() time.Time

	pendingMu      sync.Mutex
	pendingSignals []domain.Signal
}

// New creates the service and hooks the resolver's review signals into
// the pending signal queue.
func New(
	n *normalizer.Normalizer,
	r *entity.Resolver,
	e *metrics.Engine,
	g *signals.Generator,
	t *signals.Tracker,
	p *predictor.Predictor,
	provider *refdata.Provider,
	st store.Store,
	tel *infrastructure.Telemetry,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		Normalizer: n,
		Resolver:   r,
		Engine:     e,
		Generator:  g,
		Tracker:    t,
		Predictor:  p,
		Provider:   provider,
		Store:      st,
		Telemetry:  tel,
		logger:     logger,
		clock:      time.Now,
	}
	r.SetSignalSink(s.enqueueSignal)
	return s
}

// IngestSummary reports one ingestion run.
type IngestSummary struct {
	Received        int `json:"received"`
	Normalized      int `json:"normalized"`
	Faulted         int `json:"faulted"`
	OutliersFlagged int `json:"outliers_flagged"`
	EntitiesCreated int `json:"entities_created"`
	EntitiesTotal   int `json:"entities_total"`
}

// Ingest normalizes a batch of raw records, resolves their parties and
// persists the results. Every input yields exactly one output record.
func (s *Service) Ingest(ctx context.Context, raws []domain.RawRecord) (IngestSummary, error) {
	summary := IngestSummary{Received: len(raws)}
	snap := s.Provider.Current()
	entitiesBefore := len(s.Resolver.Entities())

	recs, err := s.Normalizer.NormalizeBatch(ctx, raws, snap)
	if err != nil {
		return summary, fmt.Errorf("ingest: %w", err)
	}
	summary.Normalized = len(recs)

	for i := range recs {
		rec := &recs[i]
		rec.ConsigneeEntityID = s.Resolver.Resolve(rec.Consignee, rec.ConsigneeCode)
		rec.ConsignorEntityID = s.Resolver.Resolve(rec.Consignor, rec.ConsignorCode)
		s.Resolver.RecordCommodity(rec.ConsigneeEntityID, rec.HCTID)
		s.Resolver.RecordCommodity(rec.ConsignorEntityID, rec.HCTID)
		if len(rec.Faults) > 0 {
			summary.Faulted++
		}
		if rec.PriceStatus == domain.PriceOutlier {
			summary.OutliersFlagged++
		}
	}

	if err := s.Store.UpsertRecords(ctx, recs); err != nil {
		return summary, fmt.Errorf("ingest: persist records: %w", err)
	}
	entities := s.Resolver.Entities()
	summary.EntitiesTotal = len(entities)
	summary.EntitiesCreated = summary.EntitiesTotal - entitiesBefore
	if err := s.Store.UpsertEntities(ctx, entities); err != nil {
		return summary, fmt.Errorf("ingest: persist entities: %w", err)
	}
	if err := s.flushPendingSignals(ctx); err != nil {
		return summary, err
	}

	if s.Telemetry != nil {
		s.Telemetry.RecordsNormalized.Add(ctx, int64(summary.Normalized))
		s.Telemetry.RecordsFaulted.Add(ctx, int64(summary.Faulted))
		s.Telemetry.OutliersFlagged.Add(ctx, int64(summary.OutliersFlagged))
		s.Telemetry.EntitiesCreated.Add(ctx, int64(summary.EntitiesCreated))
	}
	s.logger.InfoContext(ctx, "ingest complete",
		slog.Int("received", summary.Received),
		slog.Int("normalized", summary.Normalized),
		slog.Int("faulted", summary.Faulted),
		slog.Int("outliers", summary.OutliersFlagged),
		slog.Int("entities_created", summary.EntitiesCreated),
	)
	return summary, nil
}

// AnalysisResult bundles one analysis run for a commodity corridor.
type AnalysisResult struct {
	IPC        domain.IPCPoint        `json:"ipc"`
	FVI        domain.FVIPoint        `json:"fvi"`
	CSS        domain.CSSPoint        `json:"css"`
	FAB        domain.FABPoint        `json:"fab"`
	SD         *domain.SDTrackerEntry `json:"sd,omitempty"`
	Signals    []domain.Signal        `json:"signals,omitempty"`
	Prediction *domain.Prediction     `json:"prediction,omitempty"`
	Features   domain.FeatureVector   `json:"features"`
}

// Analyze runs the metric stack for one commodity corridor on a date,
// escalates persistent conditions into signals and updates the
// predictor's feature history.
func (s *Service) Analyze(ctx context.Context, hctID, origin, dest string, date time.Time) (AnalysisResult, error) {
	snap := s.Provider.Current()
	recs, err := s.loadHistory(ctx, hctID, date)
	if err != nil {
		return AnalysisResult{}, err
	}

	result := AnalysisResult{
		IPC: s.Engine.ComputeIPC(recs, hctID, origin, date),
		FVI: s.Engine.ComputeFVI(recs, snap, hctID, origin, dest, date),
		CSS: s.Engine.ComputeCSS(recs, hctID, date),
		FAB: s.Engine.ComputeFAB(recs, snap, hctID, origin, "", "", date),
	}
	if sd, ok := s.Engine.ComputeSDTracker(recs, snap, hctID, origin, date); ok {
		result.SD = &sd
	}

	result.Signals = s.escalate(recs, snap, hctID, origin, date, result)

	result.Features = predictor.BuildFeatures(s.Engine, recs, snap, hctID, origin, dest, date)
	s.Predictor.Observe(result.Features)
	result.Prediction = s.Predictor.Predict(hctID, result.Features.Corridor, date)

	if err := s.Store.UpsertIPCPoints(ctx, []domain.IPCPoint{result.IPC}); err != nil {
		return result, fmt.Errorf("analyze: persist ipc: %w", err)
	}
	if err := s.Store.UpsertFVIPoints(ctx, []domain.FVIPoint{result.FVI}); err != nil {
		return result, fmt.Errorf("analyze: persist fvi: %w", err)
	}
	if len(result.Signals) > 0 {
		if err := s.Store.InsertSignals(ctx, result.Signals); err != nil {
			return result, fmt.Errorf("analyze: persist signals: %w", err)
		}
		if s.Telemetry != nil {
			s.Telemetry.SignalsEmitted.Add(ctx, int64(len(result.Signals)), infrastructure.CommodityAttr(hctID))
		}
	}
	return result, nil
}

// escalate feeds every candidate signal through the tracker and keeps
// those that crossed into alert.
func (s *Service) escalate(recs []domain.NormalizedRecord, snap *refdata.Snapshot, hctID, origin string, date time.Time, result AnalysisResult) []domain.Signal {
	var candidates []domain.Signal
	if sig, ok := s.Generator.FromFVI(result.FVI); ok {
		candidates = append(candidates, sig)
	}
	if result.SD != nil {
		if sig, ok := s.Generator.FromSDTracker(*result.SD); ok {
			candidates = append(candidates, sig)
		}
	}
	if change := s.Engine.IPCChangePct(recs, hctID, origin, date.AddDate(0, 0, -7), date); change != nil {
		if sig, ok := s.Generator.FromIPCMove(hctID, origin, *change, result.IPC); ok {
			candidates = append(candidates, sig)
		}
	}
	if sig, ok := s.Generator.FromCSS(result.CSS); ok {
		candidates = append(candidates, sig)
	}
	for _, anomaly := range s.Engine.DetectAnomalies(recs, hctID, metrics.RoleConsignee, date) {
		if sig, ok := s.Generator.FromCounterpartyAnomaly(anomaly); ok {
			candidates = append(candidates, sig)
		}
	}
	if snap.Stale(s.clock()) {
		candidates = append(candidates, s.Generator.FromStaleReference(snap.Version, snap.LoadedAt))
	}

	var alerts []domain.Signal
	for _, c := range candidates {
		if alert, fired := s.Tracker.Observe(c); fired {
			alerts = append(alerts, alert)
		}
	}
	s.Tracker.Tick()
	return alerts
}

func (s *Service) loadHistory(ctx context.Context, hctID string, date time.Time) ([]domain.NormalizedRecord, error) {
	from := date.AddDate(0, -analysisLookbackMonths, 0)
	recs, err := s.Store.ListRecords(ctx, hctID, from, date)
	if err != nil {
		return nil, fmt.Errorf("analyze: load history: %w", err)
	}
	return recs, nil
}

// ReloadReferenceData swaps in a new snapshot built from the optional
// YAML overlay and Excel workbook.
func (s *Service) ReloadReferenceData(ctx context.Context, snapshotFile, workbookFile string) error {
	snap := refdata.DefaultSnapshot()
	if snapshotFile != "" {
		loaded, err := refdata.LoadFile(snapshotFile)
		if err != nil {
			return fmt.Errorf("reload refdata: %w", err)
		}
		snap = loaded
	}
	if workbookFile != "" {
		if err := refdata.LoadWorkbook(workbookFile, snap); err != nil {
			return fmt.Errorf("reload refdata: %w", err)
		}
	}
	if err := s.Provider.Swap(snap); err != nil {
		return fmt.Errorf("reload refdata: %w", err)
	}
	s.logger.InfoContext(ctx, "reference data reloaded",
		slog.String("version", snap.Version),
	)
	return nil
}

// AcknowledgeSignal marks a signal as seen in both the tracker and the
// store.
func (s *Service) AcknowledgeSignal(ctx context.Context, id string) (bool, error) {
	found, err := s.Store.AcknowledgeSignal(ctx, id)
	if err != nil {
		return false, fmt.Errorf("acknowledge signal: %w", err)
	}
	s.Tracker.Acknowledge(id)
	return found, nil
}

func (s *Service) enqueueSignal(sig domain.Signal) {
	s.pendingMu.Lock()
	s.pendingSignals = append(s.pendingSignals, sig)
	s.pendingMu.Unlock()
}

func (s *Service) flushPendingSignals(ctx context.Context) error {
	s.pendingMu.Lock()
	pending := s.pendingSignals
	s.pendingSignals = nil
	s.pendingMu.Unlock()
	if len(pending) == 0 {
		return nil
	}
	if err := s.Store.InsertSignals(ctx, pending); err != nil {
		return fmt.Errorf("ingest: persist review signals: %w", err)
	}
	return nil
}
