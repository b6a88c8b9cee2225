// Package workers runs the background consumers of the processing pipeline.
//
// A [Workers] pool owns a fixed number of [Worker] values and runs them
// concurrently until the context given to [Workers.Run] is cancelled.
package workers

import "context"

// Worker is a long-running background task.
//
// Run blocks until ctx is cancelled or the worker hits an unrecoverable
// error. A clean shutdown returns nil.
type Worker interface {
	Run(ctx context.Context) error
}
