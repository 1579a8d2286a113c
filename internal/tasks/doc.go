// Package tasks runs catalogue operations that touch many songs, with real-time progress reporting.
//
// # Core Operations
//
// [PublishEngine.PublishAll] publishes the photos of many songs through a worker pool:
//   - songs are queued in the order given and handed to at most [MaxWorkers] goroutines
//   - each song goes through the catalog service, so the remote URL is recorded per song
//   - a failure is recorded against its song and never stops the rest of the batch
//
// [Pending] selects the songs worth publishing: those with a local photo and no remote copy.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters and a message.
// Updates use select with default so a slow reader never stalls the workers.
package tasks
