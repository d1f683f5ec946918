package waitutil

import (
	"context"
	"time"

	"github.com/mazen160/go-random"
)

// Sleep pauses for a random duration in [min, max], returning early
// with the context's error if the context is cancelled first.
func Sleep(ctx context.Context, min, max time.Duration) error {
	wait := min
	if max > min {
		ms, err := random.IntRange(int(min/time.Millisecond), int(max/time.Millisecond)+1)
		if err == nil {
			wait = time.Duration(ms) * time.Millisecond
		}
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
