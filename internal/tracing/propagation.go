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
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope used for API client spans.
const TracerName = "ghrest.github"

// InjectHTTPHeaders injects the trace context into outgoing request headers.
func InjectHTTPHeaders(ctx context.Context, req *http.Request) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
}

// StartRequestSpan starts a client span for one logical API call. It uses the
// global tracer provider, which is a no-op until one is installed.
func StartRequestSpan(ctx context.Context, method, target string) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "github.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", target),
		),
	)
}

// EndRequestSpan records the outcome of a logical API call and ends the span.
func EndRequestSpan(span trace.Span, attempts, status int, err error) {
	span.SetAttributes(
		attribute.Int("ghrest.attempts", attempts),
		attribute.Int("http.response.status_code", status),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
