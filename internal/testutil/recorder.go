package testutil

import "sync"

// Recorder collects lifecycle calls in the order they happened.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

// Record appends a call.
func (r *Recorder) Record(task, phase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Task: task, Phase: phase})
}

// Calls returns the recorded calls as "task.phase" strings.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.String()
	}
	return out
}

// Count returns how many times task ran phase.
func (r *Recorder) Count(task, phase string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Task == task && c.Phase == phase {
			n++
		}
	}
	return n
}
