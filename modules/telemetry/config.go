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

import "time"

type Mode string

const (
	ModeDetect Mode = "detect"
	ModeManual Mode = "manual"
	ModeAuto   Mode = "auto"
)

// Config is read without prefix since OpenTelemetry has its own env conventions.
type Config struct {
	// OTEL_SDK_DISABLED is the standard switch, OTEL_DISABLED a shorthand.
	Disabled    bool `env:"OTEL_SDK_DISABLED"`
	DisabledAlt bool `env:"OTEL_DISABLED"`

	ServiceName    string `env:"OTEL_SERVICE_NAME" envDefault:"showcase-api"`
	ServiceVersion string `env:"SERVICE_VERSION" envDefault:"dev"`
	Environment    string `env:"ENVIRONMENT" envDefault:"local"`

	// "http://otel-collector:4318" or just "otel-collector:4318". Empty defers to
	// the exporters' own OTEL_EXPORTER_OTLP_* handling.
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"`

	// "grpc" or "http/protobuf"
	Protocol        string `env:"OTEL_EXPORTER_OTLP_PROTOCOL" envDefault:"http/protobuf"`
	MetricsProtocol string `env:"OTEL_EXPORTER_OTLP_METRICS_PROTOCOL"`
	MetricsEndpoint string `env:"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"`

	Insecure bool `env:"OTEL_EXPORTER_OTLP_TRACES_INSECURE"`

	// 0..1: sampling ratio (0=never,1=all,else parentbased+ratio).
	SamplerRatio float64 `env:"OTEL_SAMPLER_RATIO" envDefault:"1"`

	StartupTimeout time.Duration `env:"OTEL_STARTUP_TIMEOUT" envDefault:"5s"`

	// How to interact with Go auto-instrumentation.
	Mode Mode `env:"OTEL_MODE" envDefault:"detect"`

	DisableMetrics bool `env:"OTEL_DISABLE_METRICS"`

	ResourceAttrs map[string]string `env:"OTEL_RESOURCE_ATTRIBUTES" envSeparator:"," envKeyValSeparator:"="`
}

func (c Config) IsDisabled() bool {
	return c.Disabled || c.DisabledAlt
}

func (c Config) metricsProtocol() string {
	if c.MetricsProtocol != "" {
		return c.MetricsProtocol
	}
	return c.Protocol
}

func (c Config) metricsEndpoint() string {
	if c.MetricsEndpoint != "" {
		return c.MetricsEndpoint
	}
	return c.OTLPEndpoint
}
