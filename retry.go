package zapcard

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig controls the exponential backoff applied between attempts of a
// failed step. MaxRetries counts additional attempts after the first, so a
// value of 3 allows up to 4 invocations total.
type RetryConfig struct {
	MaxRetries  int     `yaml:"max_retries"`
	BaseDelayMs int     `yaml:"base_delay_ms"`
	MaxDelayMs  int     `yaml:"max_delay_ms"`
	Factor      float64 `yaml:"factor"`

	// Jitter adds a uniform 0..base_delay_ms offset to each delay. Off by
	// default: many sessions retrying in lockstep can spike load against the
	// target, so operators opt in deliberately.
	Jitter bool `yaml:"jitter"`
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:  3,
		BaseDelayMs: 1000,
		MaxDelayMs:  10000,
		Factor:      2,
		Jitter:      false,
	}
}

// Retrier executes a step, waiting min(base * factor^attempt, max) between
// failures, up to MaxRetries additional attempts. The final error is returned
// unchanged so callers can still classify it.
type Retrier struct {
	cfg   RetryConfig
	log   zerolog.Logger
	rand  *rand.Rand
	sleep func(time.Duration)
}

func NewRetrier(cfg RetryConfig, log zerolog.Logger) *Retrier {
	if cfg.Factor <= 0 {
		cfg.Factor = 2
	}
	return &Retrier{
		cfg:   cfg,
		log:   log,
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep: time.Sleep,
	}
}

// Do runs op, retrying on failure until it succeeds, the retry budget is
// exhausted, or ctx is done. The error from the last attempt is returned
// as-is, never wrapped.
func (r *Retrier) Do(ctx context.Context, step string, op func() error) error {
	var last error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if last != nil {
				return last
			}
			return err
		}

		last = op()
		if last == nil {
			return nil
		}

		if attempt >= r.cfg.MaxRetries {
			r.log.Warn().Str("step", step).Int("attempts", attempt+1).Err(last).
				Msg("retry budget exhausted")
			return last
		}

		delay := r.delay(attempt)
		r.log.Debug().Str("step", step).Int("attempt", attempt+1).
			Dur("delay", delay).Err(last).Msg("step failed, backing off")
		r.sleep(delay)
	}
}

func (r *Retrier) delay(attempt int) time.Duration {
	base := float64(r.cfg.BaseDelayMs)
	ms := base * math.Pow(r.cfg.Factor, float64(attempt))
	if maxMs := float64(r.cfg.MaxDelayMs); ms > maxMs {
		ms = maxMs
	}
	if r.cfg.Jitter {
		ms += r.rand.Float64() * base
	}
	return time.Duration(ms) * time.Millisecond
}
