package controller

import (
	"sort"
	"time"
)

// TaskID identifies a scheduled task.
type TaskID uint64

// Task is deferred work owned by the control context.
type Task struct {
	ID   TaskID
	Name string
	Due  time.Time
	run  func(now time.Time)
}

// Tasks is a queue of deferred work. Due tasks run from the tick, so they
// never block it and never race with it.
type Tasks struct {
	next    TaskID
	pending []Task
}

// Schedule queues fn to run at the first tick at or after due.
func (q *Tasks) Schedule(due time.Time, name string, fn func(now time.Time)) TaskID {
	q.next++
	q.pending = append(q.pending, Task{ID: q.next, Name: name, Due: due, run: fn})
	return q.next
}

// Cancel removes a pending task. It returns false if the task already ran
// or never existed.
func (q *Tasks) Cancel(id TaskID) bool {
	for i, t := range q.pending {
		if t.ID == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return true
		}
	}
	return false
}

// CancelNamed removes every pending task with the given name.
func (q *Tasks) CancelNamed(name string) int {
	kept := q.pending[:0]
	n := 0
	for _, t := range q.pending {
		if t.Name == name {
			n++
			continue
		}
		kept = append(kept, t)
	}
	q.pending = kept
	return n
}

// RunDue runs every task due at or before now, earliest first, and returns
// how many ran. Tasks scheduled by a running task wait for the next call.
func (q *Tasks) RunDue(now time.Time) int {
	var due, rest []Task
	for _, t := range q.pending {
		if !t.Due.After(now) {
			due = append(due, t)
		} else {
			rest = append(rest, t)
		}
	}
	if len(due) == 0 {
		return 0
	}
	q.pending = rest

	sort.SliceStable(due, func(i, j int) bool { return due[i].Due.Before(due[j].Due) })
	for _, t := range due {
		t.run(now)
	}
	return len(due)
}

// Len returns the number of pending tasks.
func (q *Tasks) Len() int {
	return len(q.pending)
}

// Pending returns a copy of the pending tasks.
func (q *Tasks) Pending() []Task {
	out := make([]Task, len(q.pending))
	copy(out, q.pending)
	return out
}
