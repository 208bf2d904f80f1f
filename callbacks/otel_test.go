package callbacks_test

import (
	"context"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/eztoolbox/callbacks"
	"github.com/effective-security/eztoolbox/dispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	"go.opentelemetry.io/otel/trace/noop"
)

type fakeTracer struct {
	embedded.Tracer

	lock  sync.Mutex
	spans []*fakeSpan
}

func (t *fakeTracer) Start(ctx context.Context, name string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
	t.lock.Lock()
	defer t.lock.Unlock()
	parent, _ := trace.SpanFromContext(ctx).(*fakeSpan)
	s := &fakeSpan{name: name, parent: parent}
	t.spans = append(t.spans, s)
	return trace.ContextWithSpan(ctx, s), s
}

type fakeSpan struct {
	embedded.Span

	name   string
	parent *fakeSpan
	code   codes.Code
	errs   []error
	ended  bool
}

func (s *fakeSpan) End(...trace.SpanEndOption) { s.ended = true }
func (s *fakeSpan) AddEvent(string, ...trace.EventOption) {}
func (s *fakeSpan) AddLink(trace.Link) {}
func (s *fakeSpan) IsRecording() bool { return !s.ended }
func (s *fakeSpan) RecordError(err error, _ ...trace.EventOption) { s.errs = append(s.errs, err) }
func (s *fakeSpan) SpanContext() trace.SpanContext { return trace.SpanContext{} }
func (s *fakeSpan) SetStatus(code codes.Code, _ string) { s.code = code }
func (s *fakeSpan) SetName(name string) { s.name = name }
func (s *fakeSpan) SetAttributes(...attribute.KeyValue) {}
func (s *fakeSpan) TracerProvider() trace.TracerProvider { return noop.NewTracerProvider() }

func Test_OTel(t *testing.T) {
	tracer := &fakeTracer{}
	replay(callbacks.NewOTel(tracer))

	require.Len(t, tracer.spans, 5)
	turn := tracer.spans[0]
	assert.Equal(t, "turn thread1", turn.name)
	assert.Nil(t, turn.parent)

	var names []string
	for _, s := range tracer.spans[1:] {
		names = append(names, s.name)
		assert.Same(t, turn, s.parent, s.name)
	}
	assert.Equal(t, []string{"model gpt-4o", "tool calc.add", "tool calc.divide", "model gpt-4o"}, names)

	for _, s := range tracer.spans {
		assert.True(t, s.ended, s.name)
	}
	assert.Equal(t, codes.Ok, tracer.spans[2].code)
	assert.Equal(t, codes.Error, tracer.spans[3].code)
	require.Len(t, tracer.spans[3].errs, 1)
	assert.EqualError(t, tracer.spans[3].errs[0], "division by zero")

	t.Run("unknown end", func(t *testing.T) {
		o := callbacks.NewOTel(nil)
		o.EndSpan(context.Background(), dispatch.Span{Kind: dispatch.SpanTool, TurnID: "x", CorrelationID: "y"})
		o.StartSpan(context.Background(), dispatch.Span{Kind: dispatch.SpanInvoke, CorrelationID: "y", Name: "calc.add", Err: errors.New("x")})
		o.EndSpan(context.Background(), dispatch.Span{Kind: dispatch.SpanInvoke, CorrelationID: "y", Name: "calc.add", Err: errors.New("x")})
	})
}
