// Package queue - Bounded drop-oldest frame buffer between capture and detection.
package queue

import (
	"sync"

	"github.com/nvr-ai/go-framepipe/frames"
)

// DefaultCapacity is the frame capacity used when none is configured.
// Three frames keeps detections close to real time when inference is the
// bottleneck relative to capture.
const DefaultCapacity = 3

// Stats is a snapshot of queue counters.
type Stats struct {
	// Capacity is the fixed maximum depth.
	Capacity int
	// Depth is the number of frames currently buffered.
	Depth int
	// Submitted counts frames accepted by Submit.
	Submitted uint64
	// Evicted counts frames dropped to make room for newer ones.
	Evicted uint64
	// Rejected counts frames refused by validation.
	Rejected uint64
}

// Queue is a fixed-capacity FIFO frame buffer with drop-oldest overflow.
//
// Submit never blocks the producer: when the queue is full the oldest frame
// is evicted before the new one is appended, so the buffered frames are
// always the most recent submissions.
//
// Safe for one producer and one consumer on independent schedules; all
// state is guarded by a single mutex. The ring is index-based so steady
// state does not allocate per frame beyond the submission copy.
type Queue struct {
	mu    sync.Mutex
	ring  []*frames.Frame
	head  int // next read position
	count int

	seq       uint64
	submitted uint64
	evicted   uint64
	rejected  uint64
}

// New creates a queue with the given capacity. Non-positive capacities fall
// back to DefaultCapacity.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{ring: make([]*frames.Frame, capacity)}
}

// Submit validates and appends a copy of the frame, evicting the oldest
// frame first when the queue is at capacity.
//
// The frame is deep-copied so the caller may reuse its pixel buffer
// immediately. A malformed frame is dropped and reported; it never reaches
// the consumer and never crashes the queue.
//
// Arguments:
//   - frame: The captured frame to enqueue.
//
// Returns:
//   - error: A validation error if the frame is malformed, nil otherwise.
func (q *Queue) Submit(frame *frames.Frame) error {
	if frame == nil {
		q.mu.Lock()
		q.rejected++
		q.mu.Unlock()
		return frames.ErrNilBuffer
	}
	if err := frame.Validate(); err != nil {
		q.mu.Lock()
		q.rejected++
		q.mu.Unlock()
		return err
	}

	queued := frame.Clone()

	q.mu.Lock()
	defer q.mu.Unlock()

	q.seq++
	queued.Seq = q.seq
	q.submitted++

	if q.count == len(q.ring) {
		// Full: drop the oldest so the newest always fits.
		q.ring[q.head] = nil
		q.head = (q.head + 1) % len(q.ring)
		q.count--
		q.evicted++
	}

	tail := (q.head + q.count) % len(q.ring)
	q.ring[tail] = queued
	q.count++
	return nil
}

// TakeOne removes and returns the oldest frame without blocking.
//
// Returns:
//   - *frames.Frame: The oldest frame, or nil when the queue is empty.
//     An empty queue is a normal idle condition, not a failure.
func (q *Queue) TakeOne() *frames.Frame {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return nil
	}

	frame := q.ring[q.head]
	q.ring[q.head] = nil
	q.head = (q.head + 1) % len(q.ring)
	q.count--
	return frame
}

// Len returns the current number of buffered frames.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Capacity returns the fixed maximum depth.
func (q *Queue) Capacity() int {
	return len(q.ring)
}

// Clear discards all buffered frames.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.ring {
		q.ring[i] = nil
	}
	q.head = 0
	q.count = 0
}

// Stats returns a snapshot of the queue counters.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	return Stats{
		Capacity:  len(q.ring),
		Depth:     q.count,
		Submitted: q.submitted,
		Evicted:   q.evicted,
		Rejected:  q.rejected,
	}
}
