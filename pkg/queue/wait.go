package queue

import (
	"context"
	"sync"
	"time"
)

// waitUntil blocks on cond until ready reports true or ctx is done. mu must be held
// by the caller and is held again on return. Cancellation broadcasts under mu, so a
// waiter cannot miss the wakeup between checking ctx and calling Wait.
func waitUntil(ctx context.Context, mu sync.Locker, cond *sync.Cond, ready func() bool) error {
	if ready() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if ctx.Done() != nil {
		stop := context.AfterFunc(ctx, func() {
			mu.Lock()
			cond.Broadcast()
			mu.Unlock()
		})
		defer stop()
	}

	for !ready() {
		if err := ctx.Err(); err != nil {
			return err
		}
		cond.Wait()
	}
	return nil
}

// timeoutContext turns a relative timeout into a context. A non-positive timeout
// yields an already-expired context so the caller makes exactly one attempt.
func timeoutContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx, cancel
	}
	return context.WithTimeout(context.Background(), timeout)
}
