package blob

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"file-drop/internal/models"
)

// ErrCircuitOpen is returned without calling the backend while the breaker
// is open.
var ErrCircuitOpen = errors.New("blob store circuit breaker is open")

type circuitState int

const (
	stateClosed circuitState = iota
	stateOpen
	stateHalfOpen
)

func (s circuitState) String() string {
	switch s {
	case stateClosed:
		return "closed"
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker wraps a Store and fails fast after maxFailures consecutive backend
// errors. After cooldown one trial call is let through; success closes the
// circuit again.
type Breaker struct {
	next Store
	log  logrus.FieldLogger
	now  func() time.Time

	mu          sync.Mutex
	maxFailures int
	cooldown    time.Duration
	state       circuitState
	failures    int
	openedAt    time.Time
	trial       bool
}

var _ Store = (*Breaker)(nil)

func NewBreaker(next Store, maxFailures int, cooldown time.Duration, log logrus.FieldLogger) *Breaker {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &Breaker{
		next:        next,
		log:         log.WithField("component", "blob_breaker"),
		now:         time.Now,
		maxFailures: maxFailures,
		cooldown:    cooldown,
	}
}

// State reports the circuit state as "closed", "open" or "half-open".
func (b *Breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.String()
}

func (b *Breaker) before() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return ErrCircuitOpen
		}
		b.state = stateHalfOpen
		b.trial = true
		b.log.Info("circuit half-open")
		return nil
	case stateHalfOpen:
		if b.trial {
			return ErrCircuitOpen
		}
		b.trial = true
	}
	return nil
}

func (b *Breaker) after(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateHalfOpen {
		b.trial = false
	}
	if err == nil {
		if b.state != stateClosed {
			b.log.Info("circuit closed")
		}
		b.state = stateClosed
		b.failures = 0
		return
	}

	b.failures++
	if b.state == stateHalfOpen || b.failures >= b.maxFailures {
		if b.state != stateOpen {
			b.log.WithError(err).WithField("failures", b.failures).Warn("circuit opened")
		}
		b.state = stateOpen
		b.openedAt = b.now()
	}
}

// release gives back a half-open trial slot without recording an outcome.
func (b *Breaker) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == stateHalfOpen {
		b.trial = false
	}
}

// call runs fn under the breaker. Cancellations and deadlines on the caller's
// context say nothing about the backend and are not counted.
func (b *Breaker) call(ctx context.Context, fn func() error) error {
	if err := b.before(); err != nil {
		return err
	}
	err := fn()
	if err != nil && ctx.Err() != nil &&
		(errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		b.release()
		return err
	}
	b.after(err)
	return err
}

// Ping bypasses the breaker so health checks always reach the backend.
func (b *Breaker) Ping(ctx context.Context) error {
	return b.next.Ping(ctx)
}

func (b *Breaker) Exists(ctx context.Context, name string) (bool, error) {
	var ok bool
	err := b.call(ctx, func() error {
		var err error
		ok, err = b.next.Exists(ctx, name)
		return err
	})
	return ok, err
}

func (b *Breaker) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (models.BlobInfo, error) {
	var info models.BlobInfo
	err := b.call(ctx, func() error {
		var err error
		info, err = b.next.Put(ctx, name, r, size, contentType)
		return err
	})
	return info, err
}

func (b *Breaker) Delete(ctx context.Context, name string) error {
	return b.call(ctx, func() error { return b.next.Delete(ctx, name) })
}

func (b *Breaker) List(ctx context.Context) ([]models.BlobInfo, error) {
	var list []models.BlobInfo
	err := b.call(ctx, func() error {
		var err error
		list, err = b.next.List(ctx)
		return err
	})
	return list, err
}
