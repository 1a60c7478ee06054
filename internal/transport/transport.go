// Package transport carries protocol lines to and from the traffic-light controller.
package transport

import "sync"

// Transport is the line channel to the controller. Writes are fire-and-forget
// and become no-ops when the transport is not open. ReadLine never blocks.
type Transport interface {
	IsOpen() bool
	WriteLine(line string)
	ReadLine() (string, bool)
	Available() int
}

// MaxQueuedLines bounds the inbound queue; the oldest lines are dropped first.
const MaxQueuedLines = 256

// lineQueue is a bounded FIFO of received lines, safe for one producer and
// one consumer goroutine.
type lineQueue struct {
	mu      sync.Mutex
	lines   []string
	dropped int
}

func (q *lineQueue) push(line string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.lines) >= MaxQueuedLines {
		q.lines = q.lines[1:]
		q.dropped++
	}
	q.lines = append(q.lines, line)
}

func (q *lineQueue) pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.lines) == 0 {
		return "", false
	}
	line := q.lines[0]
	q.lines = q.lines[1:]
	return line, true
}

func (q *lineQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lines)
}

// Closed is a transport that is never open. It stands in when no serial
// port is configured or the port failed to open.
type Closed struct{}

func (Closed) IsOpen() bool             { return false }
func (Closed) WriteLine(string)         {}
func (Closed) ReadLine() (string, bool) { return "", false }
func (Closed) Available() int           { return 0 }
