package circuitbreaker

import "time"

// Config describes a breaker guarding one downstream store.
type Config struct {
	Name    string
	Enabled bool

	// MaxRequests bounds probe calls while half-open. Zero means one.
	MaxRequests uint

	// Interval clears closed-state counts periodically. Zero never clears.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint

	// Ignore reports errors that must not count as failures, such as
	// caller mistakes or not-found results from a healthy store.
	Ignore func(err error) bool

	// OnStateChange is called on every transition, typically for logging.
	OnStateChange func(name string, from, to State)
}
