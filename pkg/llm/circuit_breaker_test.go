package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_InitialState(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig())

	if cb.State() != CircuitClosed {
		t.Errorf("expected initial state to be CircuitClosed, got %v", cb.State())
	}
	if err := cb.Allow(); err != nil {
		t.Errorf("expected no error for closed circuit, got %v", err)
	}
}

func TestCircuitBreaker_TripsAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 3, ResetAfter: 30 * time.Second})

	for i := 0; i < 2; i++ {
		cb.RecordFailure()
	}
	if cb.State() != CircuitClosed {
		t.Fatalf("expected closed below threshold, got %v", cb.State())
	}

	cb.RecordFailure()
	if cb.State() != CircuitOpen {
		t.Fatalf("expected open at threshold, got %v", cb.State())
	}

	err := cb.Allow()
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestCircuitBreaker_HalfOpenAfterReset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 1, ResetAfter: time.Minute})
	now := time.Now()
	cb.now = func() time.Time { return now }

	cb.RecordFailure()
	if err := cb.Allow(); err == nil {
		t.Fatal("expected open circuit to reject")
	}

	now = now.Add(2 * time.Minute)
	if err := cb.Allow(); err != nil {
		t.Fatalf("expected probe to be allowed, got %v", err)
	}
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("expected half-open, got %v", cb.State())
	}

	// Only one probe at a time.
	if err := cb.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected second probe to be rejected, got %v", err)
	}

	cb.RecordSuccess()
	if cb.State() != CircuitClosed || cb.ConsecutiveFailures() != 0 {
		t.Errorf("expected closed with zero failures, got %v/%d", cb.State(), cb.ConsecutiveFailures())
	}
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 5, ResetAfter: time.Minute})
	now := time.Now()
	cb.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		cb.RecordFailure()
	}
	now = now.Add(2 * time.Minute)
	_ = cb.Allow()

	cb.RecordFailure()
	if cb.State() != CircuitOpen {
		t.Errorf("expected failed probe to reopen circuit, got %v", cb.State())
	}
}

func TestBreakerClient_FailsFastWhenOpen(t *testing.T) {
	mock := NewMockLLMClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64) (*GenerateResponseResult, error) {
		return nil, NewError(ErrorTypeEndpoint, "server error", true, errors.New("status code: 503"))
	}
	client := WithCircuitBreaker(mock, NewCircuitBreaker(CircuitBreakerConfig{Threshold: 2, ResetAfter: time.Minute}))

	for i := 0; i < 2; i++ {
		if _, err := client.GenerateResponse(context.Background(), "q", "s", 0); err == nil {
			t.Fatal("expected provider error")
		}
	}

	_, err := client.GenerateResponse(context.Background(), "q", "s", 0)
	if GetErrorType(err) != ErrorTypeCircuit {
		t.Errorf("expected circuit error, got %v", err)
	}
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected errors.Is(err, ErrCircuitOpen), got %v", err)
	}
	if mock.GenerateResponseCalls() != 2 {
		t.Errorf("expected provider to be called twice, got %d", mock.GenerateResponseCalls())
	}
}

func TestBreakerClient_CancellationIsNotAFailure(t *testing.T) {
	mock := NewMockLLMClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64) (*GenerateResponseResult, error) {
		return nil, context.Canceled
	}
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 1, ResetAfter: time.Minute})
	client := WithCircuitBreaker(mock, cb)

	_, _ = client.GenerateResponse(context.Background(), "q", "s", 0)

	if cb.State() != CircuitClosed {
		t.Errorf("expected closed circuit after cancellation, got %v", cb.State())
	}
}

func TestBreakerEmbedder_SharesBreakerWithGeneration(t *testing.T) {
	mock := NewMockLLMClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64) (*GenerateResponseResult, error) {
		return nil, NewError(ErrorTypeEndpoint, "server error", true, errors.New("status code: 503"))
	}
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 2, ResetAfter: time.Minute})
	client := WithCircuitBreaker(mock, cb)
	embedder := WithEmbeddingCircuitBreaker(mock, cb)

	for i := 0; i < 2; i++ {
		_, _ = client.GenerateResponse(context.Background(), "q", "s", 0)
	}

	_, err := embedder.CreateEmbeddings(context.Background(), []string{"total spend"}, "text-embedding-3-small")
	if GetErrorType(err) != ErrorTypeCircuit {
		t.Errorf("expected circuit error, got %v", err)
	}
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected errors.Is(err, ErrCircuitOpen), got %v", err)
	}
	if mock.CreateEmbeddingsCalls() != 0 {
		t.Errorf("expected embeddings not to reach the provider, got %d calls", mock.CreateEmbeddingsCalls())
	}
}

func TestBreakerEmbedder_FailuresTripBreaker(t *testing.T) {
	mock := NewMockLLMClient()
	mock.CreateEmbeddingsFunc = func(ctx context.Context, inputs []string, model string) ([][]float32, error) {
		return nil, errors.New("status code: 502")
	}
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 1, ResetAfter: time.Minute})
	embedder := WithEmbeddingCircuitBreaker(mock, cb)

	if _, err := embedder.CreateEmbeddings(context.Background(), []string{"x"}, "m"); err == nil {
		t.Fatal("expected provider error")
	}
	if cb.State() != CircuitOpen {
		t.Errorf("expected open circuit after embedding failure, got %v", cb.State())
	}
}
