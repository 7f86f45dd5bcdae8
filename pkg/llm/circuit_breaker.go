package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker open")

// CircuitState represents the current state of the circuit breaker.
type CircuitState int

const (
	// CircuitClosed means calls flow through.
	CircuitClosed CircuitState = iota
	// CircuitOpen means the provider is considered down and calls fail fast.
	CircuitOpen
	// CircuitHalfOpen means one probe call is in flight.
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// Threshold is the number of consecutive failures before the circuit trips.
	Threshold int
	// ResetAfter is how long the circuit stays open before a probe is allowed.
	ResetAfter time.Duration
}

// DefaultCircuitBreakerConfig trips after 5 consecutive failures and probes again after 30s.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Threshold:  5,
		ResetAfter: 30 * time.Second,
	}
}

// CircuitBreaker fails fast after repeated provider failures so callers can
// fall back without waiting on a timeout for every request.
type CircuitBreaker struct {
	mu               sync.RWMutex
	consecutiveFails int
	threshold        int
	resetAfter       time.Duration
	lastFailure      time.Time
	state            CircuitState
	now              func() time.Time
}

// NewCircuitBreaker creates a new circuit breaker with the given configuration.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.Threshold <= 0 {
		config.Threshold = DefaultCircuitBreakerConfig().Threshold
	}
	return &CircuitBreaker{
		threshold:  config.Threshold,
		resetAfter: config.ResetAfter,
		state:      CircuitClosed,
		now:        time.Now,
	}
}

// Allow reports whether a call may proceed. An open circuit becomes half-open
// once ResetAfter has elapsed and lets exactly one probe through.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return nil
	case CircuitOpen:
		since := cb.now().Sub(cb.lastFailure)
		if since > cb.resetAfter {
			cb.state = CircuitHalfOpen
			return nil
		}
		return fmt.Errorf("%w: %d consecutive failures, last %v ago",
			ErrCircuitOpen, cb.consecutiveFails, since.Round(time.Second))
	case CircuitHalfOpen:
		return fmt.Errorf("%w: probe in flight", ErrCircuitOpen)
	default:
		return fmt.Errorf("circuit breaker in unknown state: %v", cb.state)
	}
}

// RecordSuccess resets the failure count and closes the circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFails = 0
	cb.state = CircuitClosed
}

// RecordFailure counts a failure and trips the circuit at the threshold.
// A failed probe reopens the circuit immediately.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFails++
	cb.lastFailure = cb.now()

	if cb.state == CircuitHalfOpen || cb.consecutiveFails >= cb.threshold {
		cb.state = CircuitOpen
	}
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// ConsecutiveFailures returns the current count of consecutive failures.
func (cb *CircuitBreaker) ConsecutiveFailures() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.consecutiveFails
}

// BreakerClient guards an LLMClient with a CircuitBreaker.
type BreakerClient struct {
	LLMClient
	breaker *CircuitBreaker
}

// WithCircuitBreaker wraps client so that calls fail fast while the breaker is open.
func WithCircuitBreaker(client LLMClient, breaker *CircuitBreaker) *BreakerClient {
	return &BreakerClient{LLMClient: client, breaker: breaker}
}

// Breaker exposes the underlying breaker for health reporting.
func (b *BreakerClient) Breaker() *CircuitBreaker {
	return b.breaker
}

// GenerateResponse forwards to the wrapped client when the breaker allows it.
func (b *BreakerClient) GenerateResponse(ctx context.Context, prompt, systemMessage string, temperature float64) (*GenerateResponseResult, error) {
	if err := b.breaker.Allow(); err != nil {
		return nil, NewErrorWithContext(ErrorTypeCircuit, "provider unavailable", false, err, b.GetModel(), b.GetEndpoint(), 0)
	}

	result, err := b.LLMClient.GenerateResponse(ctx, prompt, systemMessage, temperature)
	b.breaker.record(err)
	return result, err
}

// record updates the breaker with a call outcome. Caller cancellation is not
// counted as a provider failure.
func (cb *CircuitBreaker) record(err error) {
	switch {
	case err == nil:
		cb.RecordSuccess()
	case errors.Is(err, context.Canceled):
	default:
		cb.RecordFailure()
	}
}

// BreakerEmbedder guards an Embedder with the same CircuitBreaker as generation,
// so an unavailable provider fails embedding calls fast too.
type BreakerEmbedder struct {
	Embedder
	breaker *CircuitBreaker
}

// WithEmbeddingCircuitBreaker wraps embedder with breaker.
func WithEmbeddingCircuitBreaker(embedder Embedder, breaker *CircuitBreaker) *BreakerEmbedder {
	return &BreakerEmbedder{Embedder: embedder, breaker: breaker}
}

// CreateEmbeddings forwards to the wrapped embedder when the breaker allows it.
func (b *BreakerEmbedder) CreateEmbeddings(ctx context.Context, inputs []string, model string) ([][]float32, error) {
	if err := b.breaker.Allow(); err != nil {
		return nil, NewErrorWithContext(ErrorTypeCircuit, "provider unavailable", false, err, model, "", 0)
	}

	vectors, err := b.Embedder.CreateEmbeddings(ctx, inputs, model)
	b.breaker.record(err)
	return vectors, err
}
