// internal/dispatch/dispatcher.go
package dispatch

import (
	"context"
	"log"
	"time"

	appErrors "github.com/leadforge/leadforge-backend/internal/errors"
)

// Sender is the external message channel. Implementations must honor the
// context deadline; the dispatcher treats a deadline hit as a transient
// failure.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// RetryPolicy decides how send failures are handled: how many attempts a
// transient failure gets, how long to wait between them, and which errors
// are permanent and skip retrying entirely.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Permanent   func(err error) bool
}

func DefaultPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(attempt*500) * time.Millisecond
		},
		Permanent: appErrors.IsPermanentSend,
	}
}

// Outcome reports one dispatch: delivered, or terminally failed after the
// policy was exhausted (Permanent marks a no-retry provider rejection).
type Outcome struct {
	Delivered bool
	Attempts  int
	Permanent bool
	Err       error
}

// Dispatcher wraps the send channel with a per-attempt timeout and the retry
// policy. One Dispatch call is all-or-nothing: it returns only once the
// message is delivered or terminally failed, so a caller pausing a batch
// never interrupts an in-flight send.
type Dispatcher struct {
	Sender  Sender
	Policy  RetryPolicy
	Timeout time.Duration
}

func NewDispatcher(sender Sender, policy RetryPolicy, timeout time.Duration) *Dispatcher {
	return &Dispatcher{Sender: sender, Policy: policy, Timeout: timeout}
}

func (d *Dispatcher) Dispatch(ctx context.Context, to, subject, body string) Outcome {
	var out Outcome

	for attempt := 1; attempt <= d.Policy.MaxAttempts; attempt++ {
		out.Attempts = attempt

		err := d.sendOnce(ctx, to, subject, body)
		if err == nil {
			out.Delivered = true
			return out
		}
		out.Err = err

		if d.Policy.Permanent != nil && d.Policy.Permanent(err) {
			out.Permanent = true
			return out
		}
		if ctx.Err() != nil {
			return out
		}
		if attempt < d.Policy.MaxAttempts {
			log.Printf("send to %s failed (attempt %d/%d): %v", to, attempt, d.Policy.MaxAttempts, err)
			if d.Policy.Backoff != nil {
				time.Sleep(d.Policy.Backoff(attempt))
			}
		}
	}

	return out
}

func (d *Dispatcher) sendOnce(ctx context.Context, to, subject, body string) error {
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}
	return d.Sender.Send(ctx, to, subject, body)
}
