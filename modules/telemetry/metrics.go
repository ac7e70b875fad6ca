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
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// HTTPMetrics holds the instruments recorded for every HTTP request, plus the
// tracer used to open server spans.
type HTTPMetrics struct {
	tracer trace.Tracer

	requestCounter    metric.Int64Counter
	durationHisto     metric.Float64Histogram
	responseSizeHisto metric.Int64Histogram
}

// NewHTTPMetrics uses the global providers installed by Init.
func NewHTTPMetrics(serviceName string) (*HTTPMetrics, error) {
	return NewHTTPMetricsWithProviders(serviceName, otel.GetMeterProvider(), otel.GetTracerProvider())
}

func NewHTTPMetricsWithProviders(serviceName string, mp metric.MeterProvider, tp trace.TracerProvider) (*HTTPMetrics, error) {
	meter := mp.Meter(serviceName)

	requestCounter, err := meter.Int64Counter(
		"http_server_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	durationHisto, err := meter.Float64Histogram(
		"http_server_duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	responseSizeHisto, err := meter.Int64Histogram(
		"http_server_response_size",
		metric.WithDescription("HTTP response size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &HTTPMetrics{
		tracer:            tp.Tracer(serviceName),
		requestCounter:    requestCounter,
		durationHisto:     durationHisto,
		responseSizeHisto: responseSizeHisto,
	}, nil
}

func (m *HTTPMetrics) Tracer() trace.Tracer {
	return m.tracer
}

// RecordRequest records one finished request. route is the matched mux pattern,
// or the raw path when nothing matched.
func (m *HTTPMetrics) RecordRequest(ctx context.Context, method, route string, status int, durationMs float64, responseSize int64) {
	attrs := metric.WithAttributes(
		attribute.String("http_method", method),
		attribute.String("http_route", route),
		attribute.String("http_status_code", strconv.Itoa(status)),
	)

	m.requestCounter.Add(ctx, 1, attrs)
	m.durationHisto.Record(ctx, durationMs, attrs)
	if responseSize > 0 {
		m.responseSizeHisto.Record(ctx, responseSize, attrs)
	}
}
