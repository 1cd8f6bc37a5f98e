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

/*
Package tracing provides correlation ids and OpenTelemetry spans for ghrest.

Every logical API call made through github.Client runs inside a
"github.request" client span. Spans go to the global tracer provider, which is
a no-op until Setup installs one:

	shutdown, err := tracing.Setup(ctx, tracing.Config{
	    Enabled:     true,
	    ServiceName: "ghrest",
	    SampleRate:  1.0,
	    Exporter:    tracing.ExporterConfig{Type: tracing.ExporterOTLP, Endpoint: "localhost:4317"},
	}, nil)
	defer shutdown(ctx)

# Correlation IDs

A CorrelationID identifies one client session. It is carried in the
User-Agent header and attached to every log line:

	id := tracing.FromContextOrNew(ctx)

# Configuration

	tracing:
	  enabled: true
	  sample_rate: 0.1
	  exporter:
	    type: otlp-http
	    endpoint: collector.internal:4318
	    headers:
	      x-api-key: ...
*/
package tracing
