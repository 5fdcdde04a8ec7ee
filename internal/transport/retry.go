package transport

import "time"

// RetryPolicy controls how many times an attempt is made and how long to
// wait between attempts. Backoff receives the zero-based attempt number of
// the attempt that just failed.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
}

// DefaultRetryPolicy retries up to 3 attempts with 2^attempt second waits
// (1s, 2s, 4s, ...).
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     ExponentialBackoff,
	}
}

func ExponentialBackoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}

// ChallengeBackoff waits longer than the ordinary backoff: a host that just
// served a challenge page gets 2^(attempt+1) seconds to cool down.
func ChallengeBackoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt+1)) * time.Second
}
