package llm

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the breaker is rejecting requests after
// repeated provider failures.
var ErrCircuitOpen = errors.New("llm circuit breaker is open")

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

// breakerClient wraps a Client with a circuit breaker. After
// failureThreshold consecutive completion failures it fails fast for
// recoveryTimeout, then lets one probe request through.
type breakerClient struct {
	inner Client

	failureThreshold int
	recoveryTimeout  time.Duration

	mu              sync.Mutex
	state           breakerState
	failureCount    int
	lastFailureTime time.Time
}

// WithBreaker protects a chat client with a circuit breaker. Embedding calls
// share the breaker state since they hit the same provider.
func WithBreaker(inner Client, failureThreshold int, recoveryTimeout time.Duration) Client {
	return &breakerClient{
		inner:            inner,
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
	}
}

func (b *breakerClient) Complete(ctx context.Context, req Request) (string, error) {
	if !b.allow() {
		return "", ErrCircuitOpen
	}
	result, err := b.inner.Complete(ctx, req)
	b.record(err)
	return result, err
}

func (b *breakerClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if !b.allow() {
		return nil, ErrCircuitOpen
	}
	result, err := b.inner.Embed(ctx, text)
	b.record(err)
	return result, err
}

func (b *breakerClient) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateOpen {
		if time.Since(b.lastFailureTime) >= b.recoveryTimeout {
			b.state = stateHalfOpen
			return true
		}
		return false
	}
	return true
}

func (b *breakerClient) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failureCount = 0
		b.state = stateClosed
		return
	}

	b.failureCount++
	b.lastFailureTime = time.Now()
	if b.state == stateHalfOpen || b.failureCount >= b.failureThreshold {
		b.state = stateOpen
	}
}
