// Package pubsub defines the minimal publish seam used by the tracker's
// outputs (the costmap pipeline returns its results to the caller
// instead). The real pub/sub messaging transport is an external
// collaborator per spec.md §1; the tracker only ever calls a Publisher,
// never a concrete transport, so cmd/ mains can wire stdout, a channel,
// or a real broker without the core packages depending on one.
package pubsub

// Publisher delivers one message of type T to whatever transport a
// cmd/ main wired it to. A nil Publisher is a valid no-op subscriber.
type Publisher[T any] func(T)

// Publish calls p if it is non-nil.
func Publish[T any](p Publisher[T], msg T) {
	if p != nil {
		p(msg)
	}
}
