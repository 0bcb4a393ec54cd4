package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var errBufferFull = errors.New("audit buffer full")

// DropCounter observes events lost because the async buffer was full or the
// sink failed.
type DropCounter interface {
	IncrementAuditPublishFailures()
}

// Publisher fans events into a Store. In async mode Emit never blocks the
// caller: events queue in a bounded buffer drained by one worker goroutine.
type Publisher struct {
	store   Store
	logger  *slog.Logger
	drops   DropCounter
	buffer  chan Event
	timeout time.Duration
	wg      sync.WaitGroup
	once    sync.Once
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithDropCounter(d DropCounter) Option {
	return func(p *Publisher) {
		p.drops = d
	}
}

// WithAsyncBuffer enables async mode with a buffer of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.buffer = make(chan Event, n)
		}
	}
}

// WithAppendTimeout bounds each sink write made by the async worker.
func WithAppendTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:   store,
		logger:  slog.Default(),
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Emit records event. Sync mode returns the sink error; async mode drops the
// event when the buffer is full and returns nil.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if p.buffer == nil {
		if err := p.store.Append(ctx, event); err != nil {
			p.dropped(ctx, event, err)
			return err
		}
		return nil
	}
	select {
	case p.buffer <- event:
	default:
		p.dropped(ctx, event, errBufferFull)
	}
	return nil
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for event := range p.buffer {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		if err := p.store.Append(ctx, event); err != nil {
			p.dropped(ctx, event, err)
		}
		cancel()
	}
}

// Close stops accepting async events and waits for the buffer to drain.
func (p *Publisher) Close() error {
	p.once.Do(func() {
		if p.buffer != nil {
			close(p.buffer)
		}
	})
	p.wg.Wait()
	return nil
}

func (p *Publisher) dropped(ctx context.Context, event Event, err error) {
	if p.drops != nil {
		p.drops.IncrementAuditPublishFailures()
	}
	p.logger.WarnContext(ctx, "audit event dropped",
		"action", event.Action,
		"request_id", event.RequestID,
		"error", err,
	)
}
