// Package latency measures TCP connect latency to a remote endpoint.
package latency

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

var ErrNoSamples = errors.New("cant calculate average latency")

type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

type Result struct {
	Address  string  `json:"address"`
	Attempts int     `json:"attempts"`
	Failures int     `json:"failures"`
	Avg      float64 `json:"avg"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

type Prober struct {
	Host     string
	Port     int
	Attempts int
	Timeout  time.Duration
	// Budget caps the whole run. Attempts not started when it runs out are
	// skipped and the result covers the ones that finished.
	Budget time.Duration
	Dialer Dialer
}

// Probe opens Attempts sequential connections and reports connect times in
// milliseconds. Failed attempts are counted but left out of the average.
// Cancellation of ctx aborts the probe with ctx's error.
func (p *Prober) Probe(ctx context.Context) (*Result, error) {
	addr := net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	dialer := p.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}

	runCtx := ctx
	if p.Budget > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.Budget)
		defer cancel()
	}

	res := &Result{Address: addr}
	var (
		total   float64
		samples int
		lastErr error
	)
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := runCtx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			break
		}
		res.Attempts++
		ms, err := p.once(runCtx, dialer, addr)
		if err != nil {
			res.Failures++
			lastErr = err
			continue
		}
		if samples == 0 || ms < res.Min {
			res.Min = ms
		}
		if ms > res.Max {
			res.Max = ms
		}
		total += ms
		samples++
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if samples == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoSamples, lastErr)
		}
		return nil, ErrNoSamples
	}
	res.Avg = total / float64(samples)
	return res, nil
}

func (p *Prober) once(ctx context.Context, d Dialer, addr string) (float64, error) {
	dialCtx := ctx
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	start := time.Now()
	conn, err := d.DialContext(dialCtx, "tcp", addr)
	elapsed := time.Since(start)
	if err != nil {
		return 0, err
	}
	_ = conn.Close()
	return float64(elapsed) / float64(time.Millisecond), nil
}
