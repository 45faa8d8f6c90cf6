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

// Package tracing wires OpenTelemetry spans around a run, its jobs, and
// its steps. It is purely observability: nothing in the orchestrator's
// control flow depends on a span's existence or any exporter being
// configured.
package tracing

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "flowrun"

// Provider owns the process-wide TracerProvider. Setup is optional: a
// run started against the noop global tracer (the otel default before
// Setup is called) produces zero-cost no-op spans.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// Setup installs a console span exporter when FLOWRUN_TRACE=1 is set in
// the environment, otherwise leaves the global tracer as the default
// no-op. This keeps tracing ambient and opt-in for local runs while still
// giving the run, job, and step spans somewhere real to go when asked.
func Setup(serviceVersion string) (*Provider, error) {
	if os.Getenv("FLOWRUN_TRACE") != "1" {
		return &Provider{}, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes("",
			semconv.ServiceName("flowrun"),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("building trace resource: %w", err)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)

	return &Provider{tp: tp}, nil
}

// Shutdown flushes and stops the tracer provider, if one was installed.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

func tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartRun opens the top-level span for one orchestrator run.
func StartRun(ctx context.Context, flowName, runID string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "run: "+flowName,
		trace.WithAttributes(
			attribute.String("flow.name", flowName),
			attribute.String("run.id", runID),
		),
	)
}

// StartJob opens a span for one job's execution, nested under the run
// span carried in ctx.
func StartJob(ctx context.Context, jobID string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "job: "+jobID,
		trace.WithAttributes(attribute.String("job.id", jobID)),
	)
}

// StartStep opens a span for one step's execution, nested under the
// enclosing job span.
func StartStep(ctx context.Context, jobID string, stepIndex int, stepName string) (context.Context, trace.Span) {
	return tracer().Start(ctx, fmt.Sprintf("step[%d]: %s", stepIndex, stepName),
		trace.WithAttributes(
			attribute.String("job.id", jobID),
			attribute.Int("step.index", stepIndex),
		),
	)
}

// EndWithState records the final state on a span and closes it. err, if
// non-nil, marks the span as errored.
func EndWithState(span trace.Span, state string, err error) {
	span.SetAttributes(attribute.String("state", state))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
