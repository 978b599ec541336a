// Package telemetry wires OpenTelemetry metrics and traces from a single
// endpoint flag, choosing the gRPC or HTTP OTLP exporter by the endpoint's
// scheme. When no endpoint is configured, Instruments is nil and every
// instrumentation call in the stepper becomes a no-op.
package telemetry

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	ServiceName    = "joshsim"
	InstrumentName = "joshsim.stepper"
)

// Instruments bundles the meter/tracer and the pre-created instruments the
// stepper records against. A nil *Instruments means
// telemetry is disabled; every recording method on it is nil-receiver safe.
type Instruments struct {
	meter  metric.Meter
	tracer trace.Tracer

	TimestepDuration metric.Float64Histogram
	EntitiesResolved metric.Int64Counter
	ReplicateCount   metric.Int64Counter

	shutdown func(context.Context) error
}

// Init builds Instruments from endpoint (empty disables telemetry). The
// scheme of endpoint selects gRPC ("grpc://host:port" or bare host:port)
// vs HTTP ("http://..."/"https://...") OTLP exporters.
func Init(ctx context.Context, endpoint string) (*Instruments, error) {
	if endpoint == "" {
		return nil, nil
	}

	res, err := sdkresource.New(ctx, sdkresource.WithAttributes(semconv.ServiceNameKey.String(ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	useHTTP := isHTTP(endpoint)
	bare := stripScheme(endpoint)

	mp, mShutdown, err := newMeterProvider(ctx, bare, useHTTP, res)
	if err != nil {
		return nil, err
	}
	tp, tShutdown, err := newTracerProvider(ctx, bare, useHTTP, res)
	if err != nil {
		return nil, err
	}

	meter := mp.Meter(InstrumentName)
	tracer := tp.Tracer(InstrumentName)

	duration, err := meter.Float64Histogram("stepper.timestep.duration",
		metric.WithDescription("wall time to resolve one timestep"), metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	resolved, err := meter.Int64Counter("stepper.entities.resolved",
		metric.WithDescription("entities whose attributes were resolved"))
	if err != nil {
		return nil, err
	}
	replicates, err := meter.Int64Counter("stepper.replicate.count",
		metric.WithDescription("replicates completed"))
	if err != nil {
		return nil, err
	}

	return &Instruments{
		meter:            meter,
		tracer:           tracer,
		TimestepDuration: duration,
		EntitiesResolved: resolved,
		ReplicateCount:   replicates,
		shutdown: func(ctx context.Context) error {
			if err := mShutdown(ctx); err != nil {
				return err
			}
			return tShutdown(ctx)
		},
	}, nil
}

// Shutdown flushes and closes the exporters. Safe to call on a nil
// Instruments.
func (i *Instruments) Shutdown(ctx context.Context) error {
	if i == nil || i.shutdown == nil {
		return nil
	}
	return i.shutdown(ctx)
}

// RecordTimestep records one timestep's duration. No-op on a nil receiver.
func (i *Instruments) RecordTimestep(ctx context.Context, d time.Duration, replicate int) {
	if i == nil {
		return
	}
	i.TimestepDuration.Record(ctx, d.Seconds())
}

// RecordEntitiesResolved increments the resolved-entity counter. No-op on
// a nil receiver.
func (i *Instruments) RecordEntitiesResolved(ctx context.Context, n int64) {
	if i == nil {
		return
	}
	i.EntitiesResolved.Add(ctx, n)
}

// RecordReplicate increments the completed-replicate counter. No-op on a
// nil receiver.
func (i *Instruments) RecordReplicate(ctx context.Context) {
	if i == nil {
		return
	}
	i.ReplicateCount.Add(ctx, 1)
}

// StartSpan starts a trace span, or returns a no-op span if telemetry is
// disabled.
func (i *Instruments) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if i == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return i.tracer.Start(ctx, name)
}

func isHTTP(endpoint string) bool {
	u, err := url.Parse(endpoint)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

func stripScheme(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint
	}
	return u.Host
}

func newMeterProvider(ctx context.Context, endpoint string, useHTTP bool, res *sdkresource.Resource) (*sdkmetric.MeterProvider, func(context.Context) error, error) {
	var reader sdkmetric.Reader
	if useHTTP {
		exp, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(endpoint))
		if err != nil {
			return nil, nil, fmt.Errorf("telemetry: build otlp/http metric exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exp)
	} else {
		conn, err := newGRPCConn(endpoint)
		if err != nil {
			return nil, nil, err
		}
		exp, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, nil, fmt.Errorf("telemetry: build otlp/grpc metric exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exp)
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader), sdkmetric.WithResource(res))
	return mp, mp.Shutdown, nil
}

func newTracerProvider(ctx context.Context, endpoint string, useHTTP bool, res *sdkresource.Resource) (*sdktrace.TracerProvider, func(context.Context) error, error) {
	var exp sdktrace.SpanExporter
	var err error
	if useHTTP {
		exp, err = otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint))
		if err != nil {
			return nil, nil, fmt.Errorf("telemetry: build otlp/http trace exporter: %w", err)
		}
	} else {
		conn, connErr := newGRPCConn(endpoint)
		if connErr != nil {
			return nil, nil, connErr
		}
		exp, err = otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, nil, fmt.Errorf("telemetry: build otlp/grpc trace exporter: %w", err)
		}
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp), sdktrace.WithResource(res))
	return tp, tp.Shutdown, nil
}

// newGRPCConn connects to the OpenTelemetry Collector over gRPC.
func newGRPCConn(endpoint string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(endpoint,
		// TLS is recommended in production; joshsim's collector endpoints
		// are expected to run on a trusted network by default.
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: dial collector: %w", err)
	}
	return conn, nil
}
