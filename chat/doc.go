// Package chat contains the live-chat poll loop.
//
// The Poller drives a paginated chat feed on a fixed cadence, de-duplicates
// messages by id, filters them by an author allow-list, and forwards accepted
// messages to a speech sink. It owns the continuation token and retains it
// across transient fetch failures, so a retried poll re-delivers at most the
// last batch; the in-memory seen set turns that at-least-once retrieval into
// at-most-once speech output.
//
// The loop is strictly sequential: fetch, process each message in order,
// sleep, repeat. Speech rendering is allowed to block the loop for its full
// duration, so chat throughput is bounded by speech speed. Cancellation is
// cooperative via the context and is observed between batches and during
// sleeps.
package chat
