package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}
}

func retryableClassifier(error) ErrorClassification {
	return ErrorClassification{Retryable: true, RecordFailure: true}
}

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	executor := NewExecutor(fastConfig())

	attempts := 0
	err := executor.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}, retryableClassifier)

	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestExecuteStopsOnNonRetryable(t *testing.T) {
	executor := NewExecutor(fastConfig())

	attempts := 0
	err := executor.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errors.New("fatal")
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: true}
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestExecuteGivesUpAfterMaxAttempts(t *testing.T) {
	executor := NewExecutor(fastConfig())

	attempts := 0
	err := executor.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errors.New("still failing")
	}, retryableClassifier)

	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestExecuteHonorsCancelledContext(t *testing.T) {
	executor := NewExecutor(fastConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := executor.Execute(ctx, "op", func(context.Context) error {
		called = true
		return nil
	}, retryableClassifier)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if called {
		t.Fatal("callback ran despite cancelled context")
	}
}

func TestBreakerOpensAfterFailureRatio(t *testing.T) {
	cfg := fastConfig()
	cfg.BreakerEnabled = true
	cfg.BreakerMinRequests = 2
	cfg.BreakerFailureRatio = 0.5
	cfg.BreakerOpenTimeout = time.Minute
	executor := NewExecutor(cfg)

	fail := func(context.Context) error { return errors.New("down") }
	for i := 0; i < 3; i++ {
		_ = executor.Execute(context.Background(), "flaky", fail, func(error) ErrorClassification {
			return ErrorClassification{Retryable: false, RecordFailure: true}
		})
	}

	err := executor.Execute(context.Background(), "flaky", func(context.Context) error {
		t.Fatal("call must not reach the callback once the breaker is open")
		return nil
	}, nil)

	if !IsCircuitOpen(err) {
		t.Fatalf("error = %v, want open-circuit", err)
	}
}
