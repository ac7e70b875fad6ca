// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ShutdownFunc flushes and shuts down telemetry providers.
type ShutdownFunc func(ctx context.Context) error

func noopShutdown(context.Context) error { return nil }

// Init wires telemetry according to Config. Call once on startup.
// A disabled config leaves the global no-op providers in place.
func Init(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	if cfg.IsDisabled() {
		slog.InfoContext(ctx, "telemetry disabled")
		return noopShutdown, nil
	}
	if cfg.ServiceName == "" {
		return nil, errors.New("telemetry: ServiceName is required")
	}
	if cfg.StartupTimeout <= 0 {
		cfg.StartupTimeout = 5 * time.Second
	}

	setPropagator()

	switch cfg.Mode {
	case ModeAuto:
		return initAutoMode(ctx, cfg, detectGoAuto())
	case ModeManual:
		return initManualMode(ctx, cfg)
	case ModeDetect, "":
		if detectGoAuto() {
			return initAutoMode(ctx, cfg, true)
		}
		return initManualMode(ctx, cfg)
	default:
		return nil, fmt.Errorf("telemetry: unknown Mode %q", cfg.Mode)
	}
}

// detectGoAuto reports whether the Go auto-instrumentation agent is attached.
func detectGoAuto() bool {
	if os.Getenv("OTEL_GO_AUTO_TARGET_EXE") != "" {
		slog.Info("using auto-instrumentation with sidecar agent")
		return true
	}
	switch strings.ToLower(os.Getenv("OTEL_GO_AUTO_ENABLED")) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func setPropagator() {
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)
}

// In auto mode the agent owns the TracerProvider; we only install a MeterProvider
// for the application metrics the agent cannot see.
func initAutoMode(ctx context.Context, cfg Config, autoDetected bool) (ShutdownFunc, error) {
	if !autoDetected {
		slog.WarnContext(ctx, "telemetry: auto mode requested but no Go auto-instrumentation detected; using no-op")
		return noopShutdown, nil
	}
	if cfg.DisableMetrics {
		return noopShutdown, nil
	}

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource in auto mode: %w", err)
	}

	mp, err := buildMeterProvider(ctx, cfg, res)
	if err != nil {
		slog.WarnContext(ctx, "failed to initialize metrics in auto mode, continuing without custom metrics", slog.Any("error", err))
		return noopShutdown, nil
	}
	otel.SetMeterProvider(mp)

	return func(ctx context.Context) error {
		if err := mp.Shutdown(ctx); err != nil {
			return fmt.Errorf("telemetry: meter provider shutdown: %w", err)
		}
		return nil
	}, nil
}

func initManualMode(parent context.Context, cfg Config) (ShutdownFunc, error) {
	ctx, cancel := context.WithTimeout(parent, cfg.StartupTimeout)
	defer cancel()

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	var exp sdktrace.SpanExporter
	if cfg.Protocol == "grpc" {
		exp, err = buildGRPCTraceExporter(ctx, cfg)
	} else {
		exp, err = buildHTTPTraceExporter(ctx, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("telemetry: build trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(buildSampler(cfg.SamplerRatio)),
	)
	otel.SetTracerProvider(tp)

	var mp *sdkmetric.MeterProvider
	if !cfg.DisableMetrics {
		mp, err = buildMeterProvider(ctx, cfg, res)
		if err != nil {
			_ = tp.Shutdown(parent)
			return nil, fmt.Errorf("telemetry: build metric exporter: %w", err)
		}
		otel.SetMeterProvider(mp)
	}

	return func(ctx context.Context) error {
		var errs []error
		if err := tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry: tracer provider shutdown: %w", err))
		}
		if mp != nil {
			if err := mp.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("telemetry: meter provider shutdown: %w", err))
			}
		}
		return errors.Join(errs...)
	}, nil
}

func buildResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceNameKey.String(cfg.ServiceName),
	}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersionKey.String(cfg.ServiceVersion))
	}
	if cfg.Environment != "" {
		attrs = append(attrs, attribute.String("deployment.environment", cfg.Environment))
	}
	for k, v := range cfg.ResourceAttrs {
		attrs = append(attrs, attribute.String(k, v))
	}

	return resource.New(
		ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithOS(),
		resource.WithAttributes(attrs...),
	)
}

func buildMeterProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	var (
		mexp sdkmetric.Exporter
		err  error
	)
	if cfg.metricsProtocol() == "grpc" {
		mexp, err = buildGRPCMetricExporter(ctx, cfg)
	} else {
		mexp, err = buildHTTPMetricExporter(ctx, cfg)
	}
	if err != nil {
		return nil, err
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(mexp)),
		sdkmetric.WithResource(res),
	), nil
}

func hasScheme(ep string) bool {
	return strings.HasPrefix(ep, "http://") || strings.HasPrefix(ep, "https://")
}

func buildGRPCTraceExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	var opts []otlptracegrpc.Option
	switch ep := cfg.OTLPEndpoint; {
	case ep == "":
	case hasScheme(ep):
		opts = append(opts, otlptracegrpc.WithEndpointURL(ep))
	default:
		opts = append(opts, otlptracegrpc.WithEndpoint(ep))
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	return otlptracegrpc.New(ctx, opts...)
}

func buildHTTPTraceExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	var opts []otlptracehttp.Option
	switch ep := cfg.OTLPEndpoint; {
	case ep == "":
	case hasScheme(ep):
		opts = append(opts, otlptracehttp.WithEndpointURL(ep))
	default:
		opts = append(opts, otlptracehttp.WithEndpoint(ep))
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}

func buildGRPCMetricExporter(ctx context.Context, cfg Config) (sdkmetric.Exporter, error) {
	var opts []otlpmetricgrpc.Option
	switch ep := cfg.metricsEndpoint(); {
	case ep == "":
	case hasScheme(ep):
		opts = append(opts, otlpmetricgrpc.WithEndpointURL(ep))
	default:
		opts = append(opts, otlpmetricgrpc.WithEndpoint(ep))
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	return otlpmetricgrpc.New(ctx, opts...)
}

func buildHTTPMetricExporter(ctx context.Context, cfg Config) (sdkmetric.Exporter, error) {
	var opts []otlpmetrichttp.Option
	switch ep := cfg.metricsEndpoint(); {
	case ep == "":
	case hasScheme(ep):
		opts = append(opts, otlpmetrichttp.WithEndpointURL(ep))
	default:
		opts = append(opts, otlpmetrichttp.WithEndpoint(ep))
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	return otlpmetrichttp.New(ctx, opts...)
}

func buildSampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio <= 0:
		return sdktrace.NeverSample()
	case ratio >= 1:
		return sdktrace.AlwaysSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}
