package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	appErrors "github.com/leadforge/leadforge-backend/internal/errors"
)

// fakeSender fails with errs[i] on attempt i+1 and succeeds once errs runs out.
type fakeSender struct {
	errs     []error
	attempts int
}

func (f *fakeSender) Send(ctx context.Context, to, subject, body string) error {
	f.attempts++
	if f.attempts <= len(f.errs) {
		return f.errs[f.attempts-1]
	}
	return nil
}

func testPolicy(maxAttempts int) RetryPolicy {
	p := DefaultPolicy(maxAttempts)
	p.Backoff = func(int) time.Duration { return 0 }
	return p
}

func TestDispatchSucceedsFirstAttempt(t *testing.T) {
	s := &fakeSender{}
	d := NewDispatcher(s, testPolicy(3), time.Second)

	out := d.Dispatch(context.Background(), "a@b.io", "hi", "body")
	if !out.Delivered {
		t.Fatalf("expected delivery, got %+v", out)
	}
	if out.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", out.Attempts)
	}
}

func TestDispatchRetriesTransientFailures(t *testing.T) {
	s := &fakeSender{errs: []error{
		errors.New("connection reset"),
		errors.New("450 greylisted"),
	}}
	d := NewDispatcher(s, testPolicy(3), time.Second)

	out := d.Dispatch(context.Background(), "a@b.io", "hi", "body")
	if !out.Delivered {
		t.Fatalf("expected delivery after retries, got %+v", out)
	}
	if out.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", out.Attempts)
	}
}

func TestDispatchExhaustsRetriesToTerminalFailure(t *testing.T) {
	s := &fakeSender{errs: []error{
		errors.New("timeout"), errors.New("timeout"), errors.New("timeout"),
	}}
	d := NewDispatcher(s, testPolicy(3), time.Second)

	out := d.Dispatch(context.Background(), "a@b.io", "hi", "body")
	if out.Delivered {
		t.Fatal("expected terminal failure")
	}
	if out.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", out.Attempts)
	}
	if out.Permanent {
		t.Error("exhausted transient failure should not be marked permanent")
	}
	if out.Err == nil {
		t.Error("expected last error to be reported")
	}
}

func TestDispatchPermanentFailureSkipsRetries(t *testing.T) {
	s := &fakeSender{errs: []error{
		appErrors.NewPermanentSend("550 no such user"),
		errors.New("should never be reached"),
	}}
	d := NewDispatcher(s, testPolicy(3), time.Second)

	out := d.Dispatch(context.Background(), "gone@b.io", "hi", "body")
	if out.Delivered {
		t.Fatal("expected failure")
	}
	if !out.Permanent {
		t.Error("expected permanent classification")
	}
	if out.Attempts != 1 {
		t.Errorf("permanent failure must not retry, got %d attempts", out.Attempts)
	}
}

func TestDispatchTimeoutIsTransient(t *testing.T) {
	slow := senderFunc(func(ctx context.Context, to, subject, body string) error {
		<-ctx.Done()
		return ctx.Err()
	})
	d := NewDispatcher(slow, testPolicy(2), 5*time.Millisecond)

	out := d.Dispatch(context.Background(), "a@b.io", "hi", "body")
	if out.Delivered {
		t.Fatal("expected failure")
	}
	if out.Permanent {
		t.Error("timeout must classify as transient")
	}
	if out.Attempts != 2 {
		t.Errorf("timeout should be retried, got %d attempts", out.Attempts)
	}
}

func TestDispatchStopsWhenCallerContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := senderFunc(func(ctx context.Context, to, subject, body string) error {
		cancel()
		return errors.New("transient")
	})
	d := NewDispatcher(s, testPolicy(5), time.Second)

	out := d.Dispatch(ctx, "a@b.io", "hi", "body")
	if out.Attempts != 1 {
		t.Errorf("canceled caller context must stop retrying, got %d attempts", out.Attempts)
	}
}

type senderFunc func(ctx context.Context, to, subject, body string) error

func (f senderFunc) Send(ctx context.Context, to, subject, body string) error {
	return f(ctx, to, subject, body)
}

func TestPermanentSMTPClassification(t *testing.T) {
	if !permanentSMTP(errors.New("smtp send: 550 5.1.1 user unknown")) {
		t.Error("550 should be permanent")
	}
	if permanentSMTP(errors.New("smtp send: 421 try again later")) {
		t.Error("421 should be transient")
	}
}
