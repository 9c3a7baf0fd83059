package poller

import (
	"math/rand"
	"time"
)

// maxBackoff caps the delay between automatic attempts after failures.
const maxBackoff = 10 * time.Minute

// jitterFraction spreads retries by up to ±20%.
const jitterFraction = 0.2

// calculateBackoff returns base doubled once per consecutive failure, capped
// at maxBackoff. A base already above the cap is returned unchanged.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	limit := max(maxBackoff, base)
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= limit || d <= 0 {
			return limit
		}
	}
	return d
}

// withJitter scales d by a random factor in [0.8, 1.2].
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	factor := 1 + jitterFraction*(2*rand.Float64()-1)
	return time.Duration(float64(d) * factor)
}
