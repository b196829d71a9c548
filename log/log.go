/*
Package log contains an o11y.Provider that emits each span as a JSON
document on stdout. It is intended for development and tests, where a
real tracing backend is unavailable or unwanted.
*/
package log

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/google/uuid"

	"github.com/cadencehq/mongoconn/o11y"
)

type spanKey struct{}

type Provider struct {
	mu           sync.Mutex
	globalFields map[string]interface{}
}

var _ o11y.Provider = (*Provider)(nil)

func New() *Provider {
	return &Provider{
		globalFields: map[string]interface{}{},
	}
}

func (p *Provider) AddGlobalField(key string, val interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.globalFields[key] = val
}

func (p *Provider) StartSpan(ctx context.Context, name string, _ ...o11y.SpanOpt) (context.Context, o11y.Span) {
	parent := p.getSpan(ctx)
	span := &span{
		provider: p,
		name:     name,
		id:       uuid.New(),
		started:  time.Now(),
		fields:   map[string]interface{}{},
	}
	if parent == nil {
		span.trace = &trace{
			id:     uuid.New(),
			fields: map[string]interface{}{},
		}
	} else {
		span.parentID = parent.id
		span.trace = parent.trace
	}
	return context.WithValue(ctx, spanKey{}, span), span
}

func (p *Provider) GetSpan(ctx context.Context) o11y.Span {
	if span := p.getSpan(ctx); span != nil {
		return span
	}
	return nil
}

func (p *Provider) getSpan(ctx context.Context) *span {
	if span, ok := ctx.Value(spanKey{}).(*span); ok {
		return span
	}
	return nil
}

func (p *Provider) AddField(ctx context.Context, key string, val interface{}) {
	if span := p.getSpan(ctx); span != nil {
		span.AddField(key, val)
	}
}

func (p *Provider) AddFieldToTrace(ctx context.Context, key string, val interface{}) {
	span := p.getSpan(ctx)
	if span == nil {
		return
	}
	span.trace.mu.Lock()
	defer span.trace.mu.Unlock()
	span.trace.fields[key] = val
}

// Log sends a zero duration trace event.
func (p *Provider) Log(ctx context.Context, name string, fields ...o11y.Pair) {
	_, span := p.StartSpan(ctx, name)
	for _, f := range fields {
		span.AddField(f.Key, f.Value)
	}
	span.End()
}

func (p *Provider) Close(_ context.Context) {}

func (p *Provider) MetricsProvider() o11y.MetricsProvider {
	return &statsd.NoOpClient{}
}

type trace struct {
	id     uuid.UUID
	mu     sync.Mutex
	fields map[string]interface{}
}

type span struct {
	provider *Provider
	name     string
	trace    *trace
	id       uuid.UUID
	parentID uuid.UUID
	started  time.Time

	mu     sync.Mutex
	fields map[string]interface{}
}

func (s *span) AddField(key string, val interface{}) {
	s.AddRawField("app."+key, val)
}

func (s *span) AddRawField(key string, val interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields[key] = val
}

// RecordMetric is a no-op for the log provider, the fields that feed a
// metric are visible on the span output itself.
func (s *span) RecordMetric(_ o11y.Metric) {}

func (s *span) End() {
	st := struct {
		Name     string                 `json:"name"`
		ID       uuid.UUID              `json:"id"`
		TraceID  uuid.UUID              `json:"trace_id"`
		ParentID uuid.UUID              `json:"parent_id"`
		Started  time.Time              `json:"started"`
		Duration time.Duration          `json:"duration"`
		Fields   map[string]interface{} `json:"fields"`
	}{
		Name:     s.name,
		ID:       s.id,
		TraceID:  s.trace.id,
		ParentID: s.parentID,
		Started:  s.started,
		Fields:   map[string]interface{}{},
		Duration: time.Since(s.started),
	}
	s.provider.mu.Lock()
	for k, v := range s.provider.globalFields {
		st.Fields[k] = v
	}
	s.provider.mu.Unlock()
	s.trace.mu.Lock()
	for k, v := range s.trace.fields {
		st.Fields[k] = v
	}
	s.trace.mu.Unlock()
	s.mu.Lock()
	for k, v := range s.fields {
		st.Fields[k] = v
	}
	s.mu.Unlock()
	e := json.NewEncoder(os.Stdout)
	_ = e.Encode(st) // who cares if we fail
}
