package tasks

import "time"

// Config holds configuration for the task queue.
type Config struct {
	Workers int

	// MaxRetries and RetryDelay bound retries of a failed render.
	MaxRetries int
	RetryDelay time.Duration

	TaskTimeout time.Duration

	// ReleaseAfter returns tasks held by a crashed worker to the queue.
	ReleaseAfter time.Duration

	CleanupInterval   time.Duration
	RetentionDuration time.Duration
}

// DefaultConfig returns the defaults also used by the configuration layer.
func DefaultConfig() Config {
	return Config{
		Workers:           2,
		MaxRetries:        3,
		RetryDelay:        time.Minute,
		TaskTimeout:       5 * time.Minute,
		ReleaseAfter:      15 * time.Minute,
		CleanupInterval:   time.Hour,
		RetentionDuration: 24 * time.Hour,
	}
}
