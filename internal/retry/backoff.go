package retry

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// RetryConfig controls how RetryWithBackoff paces its attempts.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	Jitter     bool
	LogRetries bool
}

// RetryResult reports how a retried operation went.
type RetryResult struct {
	Attempts      int
	TotalDuration time.Duration
	LastError     error
	Success       bool
}

// DefaultRetryConfig suits short database and network calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
		LogRetries: true,
	}
}

// LLMRetryConfig allows for the longer latencies and stricter rate
// limits of hosted model APIs.
func LLMRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
		MaxDelay:   60 * time.Second,
		Multiplier: 2.5,
		Jitter:     true,
		LogRetries: true,
	}
}

// RetryWithBackoff runs operation until it succeeds, the attempt budget
// runs out, or ctx is done. Delays grow exponentially between attempts.
func RetryWithBackoff(ctx context.Context, config RetryConfig, operation func() error) RetryResult {
	start := time.Now()
	var result RetryResult

	for attempt := 0; ; attempt++ {
		result.Attempts++

		err := operation()
		if err == nil {
			result.Success = true
			result.LastError = nil
			break
		}
		result.LastError = err

		if attempt >= config.MaxRetries {
			if config.LogRetries {
				log.Error().Err(err).Int("attempts", result.Attempts).Msg("Giving up after final attempt")
			}
			break
		}
		if ctx.Err() != nil {
			result.LastError = ctx.Err()
			break
		}

		delay := calculateDelay(config, attempt)
		if config.LogRetries {
			log.Warn().Err(err).Int("attempt", result.Attempts).Dur("backoff", delay).Msg("Attempt failed, backing off")
		}

		select {
		case <-ctx.Done():
			result.LastError = ctx.Err()
			result.TotalDuration = time.Since(start)
			return result
		case <-time.After(delay):
		}
	}

	result.TotalDuration = time.Since(start)
	return result
}

func calculateDelay(config RetryConfig, attempt int) time.Duration {
	delay := math.Min(
		float64(config.BaseDelay)*math.Pow(config.Multiplier, float64(attempt)),
		float64(config.MaxDelay),
	)

	if config.Jitter {
		// Spread attempts by up to +/-10% so concurrent callers do not
		// hammer a recovering service in lockstep.
		delay += (rand.Float64() - 0.5) * 0.2 * delay
		if delay < 0 {
			delay = float64(config.BaseDelay)
		}
	}

	return time.Duration(delay)
}

var retryableFragments = []string{
	"connection refused",
	"connection reset",
	"connection timeout",
	"timeout",
	"temporary failure",
	"service unavailable",
	"too many requests",
	"rate limit",
	"429",
	"502",
	"503",
	"504",
	"dns lookup failed",
	"no such host",
	"network unreachable",
	"broken pipe",
	"context deadline exceeded",
}

// IsRetryableError reports whether err looks transient. Providers wrap
// their failures inconsistently, so this matches on message fragments.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range retryableFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
