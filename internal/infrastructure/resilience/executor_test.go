package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func TestExecuteRetriesTemporaryFailure(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), "analysis", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTemp
		}
		return nil
	}, func(err error) ErrorClassification {
		return ErrorClassification{
			Retryable:     errors.Is(err, errTemp),
			RecordFailure: true,
		}
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteDoesNotRetryPermanentFailure(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})

	attempts := 0
	errPermanent := errors.New("permanent")
	err := exec.Execute(context.Background(), "analysis", func(context.Context) error {
		attempts++
		return errPermanent
	}, func(error) ErrorClassification {
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     1 * time.Millisecond,
		RetryMaxBackoff:         1 * time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
	})

	errTemp := errors.New("temporary")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: true,
		}
	}

	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "analysis", func(context.Context) error {
			return errTemp
		}, classifier)
		if !errors.Is(err, errTemp) {
			t.Fatalf("expected temporary error on iteration %d, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "analysis", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, classifier)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open state error, got %v", err)
	}
}

func TestDefaultPolicyMakesSingleAttempt(t *testing.T) {
	exec := NewExecutor(Config{BreakerEnabled: false})

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), "analysis", func(context.Context) error {
		attempts++
		return errTemp
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	})
	if !errors.Is(err, errTemp) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt by default, got %d", attempts)
	}
	if got := exec.Policy().RetryMaxAttempts; got != 1 {
		t.Fatalf("expected normalized max attempts 1, got %d", got)
	}
}

func TestAttemptTimeoutBoundsEachCall(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		AttemptTimeout:      10 * time.Millisecond,
		BreakerEnabled:      false,
	})

	attempts := 0
	err := exec.Execute(context.Background(), "analysis", func(ctx context.Context) error {
		attempts++
		<-ctx.Done()
		return ctx.Err()
	}, func(err error) ErrorClassification {
		return ErrorClassification{Retryable: errors.Is(err, context.DeadlineExceeded), RecordFailure: true}
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected each attempt to time out and retry, got %d attempts", attempts)
	}
}

type recordingObserver struct {
	mu      sync.Mutex
	retries []string
	states  []string
}

func (o *recordingObserver) ObserveRetry(operation string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.retries = append(o.retries, operation)
}

func (o *recordingObserver) ObserveBreakerState(operation, state string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, operation+":"+state)
}

func TestObserverSeesRetriesAndBreakerTransitions(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        2,
		RetryInitialBackoff:     time.Millisecond,
		RetryMaxBackoff:         time.Millisecond,
		BreakerEnabled:          true,
		BreakerMinRequests:      1,
		BreakerFailureRatio:     1,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	})
	observer := &recordingObserver{}
	exec.SetObserver(observer)

	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), "backend.chat", func(context.Context) error {
		return errTemp
	}, func(error) ErrorClassification { return Transient })
	if !errors.Is(err, errTemp) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	if len(observer.retries) != 1 || observer.retries[0] != "backend.chat" {
		t.Fatalf("unexpected retries %v", observer.retries)
	}
	if len(observer.states) != 1 || observer.states[0] != "backend.chat:open" {
		t.Fatalf("unexpected breaker states %v", observer.states)
	}
	if got := exec.State("backend.chat"); got != "open" {
		t.Fatalf("State() = %q, want open", got)
	}
	if got := exec.State("backend.analysis"); got != "closed" {
		t.Fatalf("State() for unseen operation = %q, want closed", got)
	}
}

type hintedError struct{ wait time.Duration }

func (e hintedError) Error() string             { return "slow down" }
func (e hintedError) RetryAfter() time.Duration { return e.wait }

func TestDelayHonoursRetryAfterWithinCap(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: 10 * time.Millisecond,
		RetryMaxBackoff:     time.Second,
		BreakerEnabled:      false,
	})

	if got := exec.delay(10*time.Millisecond, hintedError{wait: 300 * time.Millisecond}); got != 300*time.Millisecond {
		t.Fatalf("expected hint to win, got %v", got)
	}
	if got := exec.delay(10*time.Millisecond, hintedError{wait: time.Minute}); got != time.Second {
		t.Fatalf("expected hint capped at max backoff, got %v", got)
	}
	if got := exec.delay(10*time.Millisecond, errors.New("plain")); got != 10*time.Millisecond {
		t.Fatalf("expected plain backoff, got %v", got)
	}
}

func TestDelayJitterStaysInBounds(t *testing.T) {
	exec := NewExecutor(Config{
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     time.Second,
		RetryJitter:         0.5,
		BreakerEnabled:      false,
	})
	for i := 0; i < 50; i++ {
		got := exec.delay(100*time.Millisecond, errors.New("x"))
		if got < 50*time.Millisecond || got > 150*time.Millisecond {
			t.Fatalf("jittered delay %v outside [50ms, 150ms]", got)
		}
	}
}
