// internal/dispatch/mock.go
package dispatch

import (
	"context"
	"fmt"
	"math/rand"
)

// MockSender simulates the provider for local development: 90% of sends
// succeed, the rest fail transiently.
type MockSender struct{}

var _ Sender = (*MockSender)(nil)

func (MockSender) Send(_ context.Context, to, _, _ string) error {
	if rand.Float64() < 0.9 {
		return nil
	}
	return fmt.Errorf("mock send to %s failed", to)
}
