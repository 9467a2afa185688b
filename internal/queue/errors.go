package queue

import "errors"

// ErrQueueFull indicates the pending-item admission limit has been reached.
// Items already being processed do not count against the limit.
var ErrQueueFull = errors.New("queue is full")

// ErrAlreadyQueued indicates the video is already pending or in flight.
var ErrAlreadyQueued = errors.New("video already queued")

// IsFull reports whether err is the queue-saturation rejection.
func IsFull(err error) bool {
	return errors.Is(err, ErrQueueFull)
}

// IsAlreadyQueued reports whether err is the live-duplicate rejection.
func IsAlreadyQueued(err error) bool {
	return errors.Is(err, ErrAlreadyQueued)
}
