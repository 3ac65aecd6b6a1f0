/*
Copyright 2026 The Waggle Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package trace contains a helper interface that allows various tracing
// tools to be plugged in to components using this interface. If no plugin is
// registered, the default one makes all tracing calls into no-ops.
package trace

import (
	"context"
	"io"

	"github.com/spf13/pflag"

	"waggle.dev/waggle/go/hive/log"
)

// Span represents a unit of work within a trace. After creating a Span with
// NewSpan(), call Finish() when the work is done to record the Span. Spans
// are not safe for concurrent use; create one per goroutine.
type Span interface {
	// Finish marks the span as complete.
	Finish()
	// Annotate records a key/value pair associated with a Span. It should be
	// called between the creation of the span and Finish.
	Annotate(key string, value any)
}

// NewSpan creates a new Span with the label, as a child of the Span in the
// given context if one exists, and returns a context carrying the new Span.
func NewSpan(inCtx context.Context, label string) (Span, context.Context) {
	parent, _ := currentTracer.FromContext(inCtx)
	span := currentTracer.New(parent, label)
	outCtx := currentTracer.NewContext(inCtx, span)
	return span, outCtx
}

// tracingService is an interface for creating spans or extracting them from
// Contexts.
type tracingService interface {
	// New creates a new span from an existing one, if provided. The parent
	// can also be nil.
	New(parent Span, label string) Span
	// FromContext extracts a span from a context, making it possible to
	// annotate the span with additional information.
	FromContext(ctx context.Context) (Span, bool)
	// NewContext creates a new context containing the provided span.
	NewContext(parent context.Context, span Span) context.Context
}

// TracerFactory creates the tracing service of one backend. A factory is
// handed the service name to report spans under and returns the service and
// a closer that flushes buffered spans on shutdown.
type TracerFactory func(serviceName string) (tracingService, io.Closer, error)

// tracingBackendFactories is keyed by the value of the tracer flag.
// Registration happens in init functions.
var tracingBackendFactories = make(map[string]TracerFactory)

var currentTracer tracingService = noopTracingServer{}

var (
	tracingServer = "noop"
	enableLogging bool
)

// RegisterFlags installs the flags that select and configure the tracing
// backend.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&tracingServer, "tracer", tracingServer, "tracing service to use: noop or opentracing-jaeger")
	fs.BoolVar(&enableLogging, "tracing-enable-logging", enableLogging, "whether to enable logging in the tracing service")
	registerJaegerFlags(fs)
}

// StartTracing enables tracing for serviceName with the backend the tracer
// flag selects. A backend that was never registered or fails to start is
// logged rather than returned, a binary that can not trace should still
// run. Close the returned closer before exit so buffered spans reach the
// collector.
func StartTracing(serviceName string) io.Closer {
	factory, ok := tracingBackendFactories[tracingServer]
	if !ok {
		options := make([]string, 0, len(tracingBackendFactories))
		for k := range tracingBackendFactories {
			options = append(options, k)
		}
		log.Errorf("no such tracing service %q, valid options are %v", tracingServer, options)
		return nilCloser{}
	}

	tracer, closer, err := factory(serviceName)
	if err != nil {
		log.Errorf("failed to create a %s tracer for %s: %v", tracingServer, serviceName, err)
		return nilCloser{}
	}

	currentTracer = tracer
	if tracingServer != "noop" {
		log.Infof("%s tracing enabled for %s", tracingServer, serviceName)
	}
	return closer
}

type nilCloser struct{}

func (nilCloser) Close() error { return nil }

// noopSpan implements Span with no-op methods.
type noopSpan struct{}

func (noopSpan) Finish()              {}
func (noopSpan) Annotate(string, any) {}

// noopTracingServer is the tracing service of a binary that does not trace.
type noopTracingServer struct{}

func (noopTracingServer) New(Span, string) Span { return noopSpan{} }
func (noopTracingServer) FromContext(context.Context) (Span, bool) {
	return nil, false
}
func (noopTracingServer) NewContext(parent context.Context, _ Span) context.Context {
	return parent
}

func init() {
	tracingBackendFactories["noop"] = func(string) (tracingService, io.Closer, error) {
		return noopTracingServer{}, nilCloser{}, nil
	}
}
