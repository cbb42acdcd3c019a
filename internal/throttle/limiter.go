// Package throttle caps transfer throughput with a token bucket shared by
// every stream it wraps.
package throttle

import (
	"context"
	"io"
	"log/slog"

	"golang.org/x/time/rate"
)

// burstMultiplier sizes the bucket relative to the per-second rate, so a
// short stall can be caught up on the next write.
const burstMultiplier = 2

// Limiter is a shared byte-rate limiter. A nil *Limiter is valid and
// unlimited.
type Limiter struct {
	limiter *rate.Limiter
}

// New returns a Limiter allowing bytesPerSec, or nil for 0 (unlimited).
func New(bytesPerSec int64, logger *slog.Logger) *Limiter {
	if bytesPerSec <= 0 {
		return nil
	}

	burst := int(bytesPerSec) * burstMultiplier

	logger.Info("bandwidth limit enabled",
		slog.Int64("bytes_per_sec", bytesPerSec),
		slog.Int("burst", burst),
	)

	return &Limiter{limiter: rate.NewLimiter(rate.Limit(bytesPerSec), burst)}
}

// Writer returns w wrapped so each write waits for enough tokens. A nil
// Limiter returns w unchanged. ctx cancels a pending wait.
func (l *Limiter) Writer(ctx context.Context, w io.Writer) io.Writer {
	if l == nil {
		return w
	}

	return &limitedWriter{ctx: ctx, w: w, limiter: l.limiter}
}

type limitedWriter struct {
	ctx     context.Context
	w       io.Writer
	limiter *rate.Limiter
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	if n > 0 {
		if waitErr := waitN(w.ctx, w.limiter, n); waitErr != nil {
			return n, waitErr
		}
	}

	return n, err
}

// waitN splits a large request into burst-sized chunks: rate.Limiter.WaitN
// rejects requests above the burst.
func waitN(ctx context.Context, limiter *rate.Limiter, n int) error {
	burst := limiter.Burst()

	for n > 0 {
		take := min(n, burst)

		if err := limiter.WaitN(ctx, take); err != nil {
			return err
		}

		n -= take
	}

	return nil
}
