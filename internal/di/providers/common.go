package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// catalogRetryInterval is how often a failed startup catalog load is retried.
	catalogRetryInterval = 15 * time.Second
)
