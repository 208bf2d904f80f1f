package callbacks

import (
	"context"
	"sync"

	"github.com/effective-security/eztoolbox/dispatch"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of the default tracer
const TracerName = "github.com/effective-security/eztoolbox"

// OTel maps spans onto OpenTelemetry spans,
// model and tool spans are children of their turn span.
type OTel struct {
	tracer trace.Tracer

	lock  sync.Mutex
	spans map[string]trace.Span
	turns map[string]context.Context
}

// NewOTel returns the sink, with the global tracer when tracer is nil
func NewOTel(tracer trace.Tracer) *OTel {
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	return &OTel{
		tracer: tracer,
		spans:  make(map[string]trace.Span),
		turns:  make(map[string]context.Context),
	}
}

func spanKey(span dispatch.Span) string {
	return string(span.Kind) + ":" + span.TurnID + "/" + span.CorrelationID
}

func (o *OTel) StartSpan(ctx context.Context, span dispatch.Span) {
	o.lock.Lock()
	defer o.lock.Unlock()

	parent := ctx
	if span.Kind != dispatch.SpanTurn {
		if tctx, ok := o.turns[span.TurnID]; ok {
			parent = tctx
		}
	}

	attrs := []attribute.KeyValue{
		attribute.String("eztoolbox.kind", string(span.Kind)),
		attribute.String("eztoolbox.name", span.Name),
	}
	if span.TurnID != "" {
		attrs = append(attrs, attribute.String("eztoolbox.turn_id", span.TurnID))
	}
	if span.CorrelationID != "" {
		attrs = append(attrs, attribute.String("eztoolbox.tool_call_id", span.CorrelationID))
	}

	opts := []trace.SpanStartOption{trace.WithAttributes(attrs...)}
	if !span.Time.IsZero() {
		opts = append(opts, trace.WithTimestamp(span.Time))
	}

	sctx, s := o.tracer.Start(parent, string(span.Kind)+" "+span.Name, opts...)
	o.spans[spanKey(span)] = s
	if span.Kind == dispatch.SpanTurn {
		o.turns[span.TurnID] = sctx
	}
}

func (o *OTel) EndSpan(ctx context.Context, span dispatch.Span) {
	o.lock.Lock()
	defer o.lock.Unlock()

	key := spanKey(span)
	s, ok := o.spans[key]
	if !ok {
		return
	}
	delete(o.spans, key)
	if span.Kind == dispatch.SpanTurn {
		delete(o.turns, span.TurnID)
	}

	if span.Err != nil {
		s.RecordError(span.Err)
		s.SetStatus(codes.Error, span.Err.Error())
	} else {
		s.SetStatus(codes.Ok, "")
	}
	s.End()
}
