/*
Package jobqueue configuration. All tunable parameters for the River job
queue live here.

Performance: raise MaxWorkers for more concurrent title generations.
Reliability: raise MaxRetries when the model provider is flaky. Failed
jobs retain error information in the River jobs table.
*/
package jobqueue

import (
	"time"

	"github.com/riverqueue/river"
)

// QueueConfig holds all configurable parameters for the job queue
type QueueConfig struct {
	// Worker Configuration
	MaxWorkers int // Number of concurrent workers processing jobs (default: 4)

	// Retry Configuration
	MaxRetries int           // Maximum retry attempts per job (default: 5)
	JobTimeout time.Duration // Maximum time a single job can run (default: 1 minute)

	// Title Configuration
	MaxTitleLength int // Maximum stored title length (default: 80)
}

// DefaultQueueConfig returns the default configuration
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		MaxWorkers:     4,
		MaxRetries:     5,
		JobTimeout:     1 * time.Minute,
		MaxTitleLength: 80,
	}
}

// RiverQueueConfig converts our config to River's queue configuration format
func (c *QueueConfig) RiverQueueConfig() map[string]river.QueueConfig {
	return map[string]river.QueueConfig{
		river.QueueDefault: {
			MaxWorkers: c.MaxWorkers,
		},
	}
}
