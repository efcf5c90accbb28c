// Package ratelimit bounds how often a user may trigger expensive
// operations, currently AI grading calls. The limiter is injected so a
// multi-instance deployment can swap the in-memory implementation for a
// shared store.
package ratelimit

// Limiter admits or rejects one invocation for the given key. Allow both
// checks and records: an admitted call consumes one slot in the window.
type Limiter interface {
	Allow(key string) bool
}
