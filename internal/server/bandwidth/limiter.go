// Package bandwidth paces egress on streaming responses, such as CSV
// downloads, so a single export cannot saturate the uplink.
package bandwidth

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// Limiter caps the byte rate of writers wrapped with Writer.
// A nil Limiter imposes no limit.
type Limiter struct {
	rl *rate.Limiter
}

// NewLimiter creates a limiter allowing bytesPerSecond of throughput with a
// burst of one second's worth. bytesPerSecond <= 0 returns nil, meaning
// unlimited.
func NewLimiter(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}
	return &Limiter{rl: rate.NewLimiter(rate.Limit(bytesPerSecond), int(bytesPerSecond))}
}

// Writer wraps w so that writes block to stay within the byte rate. The
// limiter is shared, concurrent downloads split the budget. Writes fail once
// ctx is canceled.
func (l *Limiter) Writer(ctx context.Context, w io.Writer) io.Writer {
	if l == nil {
		return w
	}
	return &pacedWriter{ctx: ctx, l: l.rl, w: w}
}

type pacedWriter struct {
	ctx context.Context
	l   *rate.Limiter
	w   io.Writer
}

func (p *pacedWriter) Write(b []byte) (int, error) {
	written := 0
	for len(b) > 0 {
		// WaitN rejects requests above the burst size, so feed it in
		// burst-sized chunks.
		chunk := b
		if burst := p.l.Burst(); len(chunk) > burst {
			chunk = chunk[:burst]
		}
		if err := p.l.WaitN(p.ctx, len(chunk)); err != nil {
			return written, err
		}
		n, err := p.w.Write(chunk)
		written += n
		if err != nil {
			return written, err
		}
		b = b[len(chunk):]
	}
	return written, nil
}
