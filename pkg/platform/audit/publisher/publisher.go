// Package publisher fans audit events out to the queryable store and any
// extra sinks (Kafka). It can buffer emission so request latency does not
// depend on sink latency.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	id "idverify/pkg/domain"
	audit "idverify/pkg/platform/audit"
	"idverify/pkg/platform/circuit"
)

var ErrBufferFull = errors.New("audit buffer full")

type Publisher struct {
	store  audit.Store
	sinks  []guardedSink
	logger *slog.Logger

	buffer chan audit.Event
	wg     sync.WaitGroup
	once   sync.Once
}

// guardedSink skips a failing sink until its breaker lets a probe through.
type guardedSink struct {
	sink    audit.Sink
	breaker *circuit.Breaker
}

type Option func(*Publisher)

// WithAsyncBuffer makes Emit enqueue events and return immediately.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.buffer = make(chan audit.Event, size)
		}
	}
}

// WithSink adds a write-only sink. Sink failures are logged, not returned:
// the store is the record of truth. Breaker options tune when a failing sink
// is skipped.
func WithSink(sink audit.Sink, breakerOpts ...circuit.Option) Option {
	return func(p *Publisher) {
		if sink != nil {
			name := fmt.Sprintf("audit-sink-%d", len(p.sinks))
			p.sinks = append(p.sinks, guardedSink{sink: sink, breaker: circuit.New(name, breakerOpts...)})
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an event. In async mode it returns ErrBufferFull rather than
// blocking when the buffer is saturated, or ctx.Err() if ctx is already done.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	if p.buffer == nil {
		return p.write(ctx, event)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case p.buffer <- event:
		return nil
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit buffer full, dropping event", "action", event.Action)
		}
		return ErrBufferFull
	}
}

func (p *Publisher) write(ctx context.Context, event audit.Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	for _, gs := range p.sinks {
		p.forward(ctx, gs, event)
	}
	return nil
}

func (p *Publisher) forward(ctx context.Context, gs guardedSink, event audit.Event) {
	if !gs.breaker.Allow() {
		return
	}
	if err := gs.sink.Append(ctx, event); err != nil {
		_, change := gs.breaker.RecordFailure()
		if p.logger == nil {
			return
		}
		p.logger.ErrorContext(ctx, "audit sink append failed",
			"action", event.Action,
			"sink", gs.breaker.Name(),
			"error", err,
		)
		if change.Opened {
			p.logger.WarnContext(ctx, "audit sink circuit opened; events go to the store only", "sink", gs.breaker.Name())
		}
		return
	}
	if _, change := gs.breaker.RecordSuccess(); change.Closed && p.logger != nil {
		p.logger.InfoContext(ctx, "audit sink circuit closed", "sink", gs.breaker.Name())
	}
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.buffer {
		// Detached from the request: the request may be gone by now.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := p.write(ctx, event); err != nil && p.logger != nil {
			p.logger.Error("async audit write failed", "action", event.Action, "error", err)
		}
		cancel()
	}
}

func (p *Publisher) List(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	return p.store.ListByUser(ctx, userID)
}

// Close flushes buffered events. Emit must not be called after Close.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.buffer != nil {
			close(p.buffer)
			p.wg.Wait()
		}
	})
}
