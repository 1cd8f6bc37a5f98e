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
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestSetup_Disabled(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := Setup(context.Background(), DefaultConfig(), nil)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestSetup_ConsoleExportsRequestSpans(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.ServiceVersion = "1.2.3"

	shutdown, err := Setup(context.Background(), cfg, &buf)
	require.NoError(t, err)

	_, span := StartRequestSpan(context.Background(), "GET", "/repos/octo/hello")
	assert.True(t, span.SpanContext().IsSampled())
	EndRequestSpan(span, 2, 200, nil)

	require.NoError(t, shutdown(context.Background()))
	out := buf.String()
	assert.Contains(t, out, "github.request")
	assert.Contains(t, out, "ghrest.attempts")
	assert.Contains(t, out, "1.2.3")
}

func TestSetup_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Exporter.Type = "zipkin"

	_, err := Setup(context.Background(), cfg, nil)
	assert.Error(t, err)

	cfg.Exporter = ExporterConfig{Type: ExporterOTLP}
	_, err = Setup(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "requires an endpoint")
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.SampleRate = 1.5
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Exporter.Type = ExporterOTLPHTTP
	assert.NoError(t, cfg.Validate(), "endpoint only required when enabled")
}

func TestCreateExporter_None(t *testing.T) {
	exp, err := CreateExporter(context.Background(), ExporterConfig{Type: ExporterNone}, nil)
	require.NoError(t, err)
	assert.Nil(t, exp)
}

func TestNewSampler(t *testing.T) {
	assert.Contains(t, NewSampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, NewSampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, NewSampler(0.25).Description(), "TraceIDRatioBased")

	var _ sdktrace.Sampler = NewSampler(0.5)
}
