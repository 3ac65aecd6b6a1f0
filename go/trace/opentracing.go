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

package trace

import (
	"context"

	"github.com/opentracing/opentracing-go"
)

var _ Span = (*openTracingSpan)(nil)

type openTracingSpan struct {
	otSpan opentracing.Span
}

// Finish will mark a span as finished.
func (s openTracingSpan) Finish() {
	s.otSpan.Finish()
}

// Annotate will add information to an existing span.
func (s openTracingSpan) Annotate(key string, value any) {
	s.otSpan.SetTag(key, value)
}

var _ tracingService = (*openTracingService)(nil)

// openTracingService adapts any opentracing.Tracer to a tracingService.
type openTracingService struct {
	Tracer opentracing.Tracer
}

// New is part of the tracingService interface.
func (s openTracingService) New(parent Span, label string) Span {
	var innerSpan opentracing.Span
	if parent == nil {
		innerSpan = s.Tracer.StartSpan(label)
	} else {
		otParent := parent.(openTracingSpan)
		innerSpan = s.Tracer.StartSpan(label, opentracing.ChildOf(otParent.otSpan.Context()))
	}
	return openTracingSpan{otSpan: innerSpan}
}

// FromContext is part of the tracingService interface.
func (s openTracingService) FromContext(ctx context.Context) (Span, bool) {
	innerSpan := opentracing.SpanFromContext(ctx)
	if innerSpan == nil {
		return nil, false
	}
	return openTracingSpan{otSpan: innerSpan}, true
}

// NewContext is part of the tracingService interface.
func (s openTracingService) NewContext(parent context.Context, span Span) context.Context {
	otSpan, ok := span.(openTracingSpan)
	if !ok {
		return parent
	}
	return opentracing.ContextWithSpan(parent, otSpan.otSpan)
}
