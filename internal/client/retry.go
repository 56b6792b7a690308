package client

import "time"

// Retry policy for the message history endpoints. The numbers are tunable
// placeholders, kept in one place so callers and tests agree on them.
const (
	// storeBusyRetries retries after a 503, with linear backoff: the n-th
	// wait is n*storeBusyBackoff (1s, 2s, 3s).
	storeBusyRetries = 3
	storeBusyBackoff = time.Second

	// genericRetries retries after any other failure, fixed delay.
	genericRetries    = 2
	genericRetryDelay = time.Second

	// sendBusyRetryDelay one delayed retry of a busy send.
	sendBusyRetryDelay = 2 * time.Second
)

// DelayFunc waits out a retry backoff. Tests inject a recorder instead of
// sleeping for real.
type DelayFunc func(time.Duration)
