package resilience

import "time"

// FromFetchConfig builds the content fetch retry policy: maxAttempts
// attempts with a constant sleep of backoffSecs between them.
func FromFetchConfig(maxAttempts int, backoffSecs float64) RetryConfig {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if backoffSecs < 0 {
		backoffSecs = 0
	}
	return FixedBackoff(maxAttempts, time.Duration(backoffSecs*float64(time.Second)))
}

// FromCircuitConfig converts config values to a CircuitBreakerConfig. Only
// transient errors trip the circuit: a 404 or an unknown ticker says
// something about one company, not about the data source.
func FromCircuitConfig(failureThreshold, resetTimeoutSecs int) CircuitBreakerConfig {
	cfg := DefaultCircuitBreakerConfig()
	cfg.ShouldTrip = IsTransient
	if failureThreshold > 0 {
		cfg.FailureThreshold = failureThreshold
	}
	if resetTimeoutSecs > 0 {
		cfg.ResetTimeout = time.Duration(resetTimeoutSecs) * time.Second
	}
	return cfg
}
