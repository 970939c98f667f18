package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
)

const (
	// ServiceName identifies this service in telemetry output.
	ServiceName = "tesseract-intelligence-engine"
	// MeterName scopes the engine's instruments.
	MeterName = "tesseract"
)

// Telemetry bundles the meter provider, the engine instruments and the
// Prometheus scrape handler.
type Telemetry struct {
	MeterProvider *sdkmetric.MeterProvider
	Meter         metric.Meter
	ScrapeHandler http.Handler

	RecordsNormalized metric.Int64Counter
	RecordsFaulted    metric.Int64Counter
	OutliersFlagged   metric.Int64Counter
	SignalsEmitted    metric.Int64Counter
	EntitiesCreated   metric.Int64Counter
}

// InitializeTelemetry sets up the OpenTelemetry metric pipeline with a
// Prometheus exporter and registers the engine counters.
func InitializeTelemetry(ctx context.Context, version string, logger *slog.Logger) (*Telemetry, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry resource: %w", err)
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)

	t := &Telemetry{
		MeterProvider: provider,
		Meter:         provider.Meter(MeterName),
		ScrapeHandler: promhttp.Handler(),
	}
	if err := t.createInstruments(); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "telemetry initialized",
		slog.String("service", ServiceName),
		slog.String("version", version),
	)
	return t, nil
}

func (t *Telemetry) createInstruments() error {
	var err error
	if t.RecordsNormalized, err = t.Meter.Int64Counter("tesseract_records_normalized_total",
		metric.WithDescription("Raw records normalized")); err != nil {
		return fmt.Errorf("failed to create counter: %w", err)
	}
	if t.RecordsFaulted, err = t.Meter.Int64Counter("tesseract_records_faulted_total",
		metric.WithDescription("Normalized records carrying at least one fault")); err != nil {
		return fmt.Errorf("failed to create counter: %w", err)
	}
	if t.OutliersFlagged, err = t.Meter.Int64Counter("tesseract_outliers_flagged_total",
		metric.WithDescription("Prices flagged as statistical outliers")); err != nil {
		return fmt.Errorf("failed to create counter: %w", err)
	}
	if t.SignalsEmitted, err = t.Meter.Int64Counter("tesseract_signals_emitted_total",
		metric.WithDescription("Alert signals emitted")); err != nil {
		return fmt.Errorf("failed to create counter: %w", err)
	}
	if t.EntitiesCreated, err = t.Meter.Int64Counter("tesseract_entities_created_total",
		metric.WithDescription("New canonical entities minted")); err != nil {
		return fmt.Errorf("failed to create counter: %w", err)
	}
	return nil
}

// Shutdown flushes and stops the metric pipeline.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t.MeterProvider == nil {
		return nil
	}
	return t.MeterProvider.Shutdown(ctx)
}

// CommodityAttr builds the standard commodity attribute set.
func CommodityAttr(hctID string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("hct_id", hctID))
}
