package client

import (
	"context"
	"time"

	overlayerrors "github.com/DeBrosOfficial/overlay/pkg/errors"
)

// budget counts the connection attempts spent by one client operation.
// Every dial plus resync costs one attempt regardless of which step failed.
type budget struct {
	max  uint // 0 = unlimited
	used uint
	last error
}

func (b *budget) exhausted() bool {
	return b.max != 0 && b.used >= b.max
}

// delay is the wait before the next attempt: (n-1)*step for attempt n.
func (b *budget) delay(step time.Duration) time.Duration {
	return time.Duration(b.used) * step
}

func (b *budget) err() error {
	return overlayerrors.NewRetryExhaustedError(b.used, b.last)
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// permanent reports errors that a reconnect cannot fix.
func permanent(err error) bool {
	return overlayerrors.IsCancelled(err) ||
		overlayerrors.IsEndpoint(err) ||
		overlayerrors.IsValidation(err)
}
