// Copyright 2025 Tom Barlow
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

package tracing

import (
	"fmt"
	"time"
)

// Exporter types.
const (
	ExporterNone     = "none"
	ExporterConsole  = "console"
	ExporterOTLP     = "otlp"
	ExporterOTLPHTTP = "otlp-http"
)

// Config holds trace export configuration.
type Config struct {
	// Enabled controls whether spans are exported. Spans are still created
	// against the no-op provider when disabled.
	Enabled bool `yaml:"enabled"`

	// ServiceName identifies this process in traces.
	ServiceName string `yaml:"service_name,omitempty"`

	// ServiceVersion is the application version.
	ServiceVersion string `yaml:"-"`

	// SampleRate is the fraction of root traces recorded (0.0 - 1.0).
	SampleRate float64 `yaml:"sample_rate"`

	Exporter ExporterConfig `yaml:"exporter"`

	// BatchInterval is how often spans are flushed (default: 5s).
	BatchInterval time.Duration `yaml:"batch_interval,omitempty"`
}

// ExporterConfig defines where spans go.
type ExporterConfig struct {
	// Type is "console", "otlp" (gRPC), "otlp-http" or "none".
	Type string `yaml:"type"`

	// Endpoint is the OTLP receiver, host:port.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure disables TLS for the OTLP exporters.
	Insecure bool `yaml:"insecure,omitempty"`

	// Headers are sent with every export request.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// DefaultConfig returns configuration with tracing disabled.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    "ghrest",
		ServiceVersion: "dev",
		SampleRate:     1.0,
		Exporter: ExporterConfig{
			Type: ExporterConsole,
		},
		BatchInterval: 5 * time.Second,
	}
}

// Validate checks the exporter type and sample rate.
func (c Config) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("sample_rate must be between 0 and 1, got %v", c.SampleRate)
	}
	switch c.Exporter.Type {
	case ExporterNone, ExporterConsole, "":
	case ExporterOTLP, ExporterOTLPHTTP:
		if c.Enabled && c.Exporter.Endpoint == "" {
			return fmt.Errorf("exporter %s requires an endpoint", c.Exporter.Type)
		}
	default:
		return fmt.Errorf("unknown exporter type: %s", c.Exporter.Type)
	}
	return nil
}
