package task

import (
	"context"
	"fmt"

	"github.com/specialistvlad/taskloop/internal/deps"
)

// ExitName is the name of the builtin task returned by Exit.
const ExitName = "exit"

// Exit returns a task that terminates the run on its first tick, with the
// World's recorded fault (possibly nil) as payload.
func Exit() *Task {
	return Func(ExitName, func(_ context.Context, in deps.Inputs) (Signal, error) {
		var fault error
		if w := in.World(); w != nil {
			fault = w.Fault()
		}
		return Terminate(fault), nil
	}, deps.WorldName+",optional")
}

// Catalog is the set of tasks a run can switch between, keyed by name.
type Catalog struct {
	tasks map[string]*Task
	order []string
}

// NewCatalog returns a Catalog holding tasks. It panics on duplicates.
func NewCatalog(tasks ...*Task) *Catalog {
	c := &Catalog{tasks: make(map[string]*Task)}
	c.MustAdd(tasks...)
	return c
}

// Add registers tasks. A name can be registered only once.
func (c *Catalog) Add(tasks ...*Task) error {
	for _, t := range tasks {
		if t == nil {
			return fmt.Errorf("task: nil task")
		}
		if _, exists := c.tasks[t.name]; exists {
			return fmt.Errorf("%w: %q", ErrDuplicateTask, t.name)
		}
		c.tasks[t.name] = t
		c.order = append(c.order, t.name)
	}
	return nil
}

// MustAdd is like Add but panics on error.
func (c *Catalog) MustAdd(tasks ...*Task) {
	if err := c.Add(tasks...); err != nil {
		panic(err)
	}
}

// Lookup finds a task by name.
func (c *Catalog) Lookup(name string) (*Task, bool) {
	t, ok := c.tasks[name]
	return t, ok
}

// Get is like Lookup but returns ErrUnknownTask for a missing name.
func (c *Catalog) Get(name string) (*Task, error) {
	t, ok := c.tasks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTask, name)
	}
	return t, nil
}

// Names returns task names in registration order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// Len is the number of tasks.
func (c *Catalog) Len() int { return len(c.order) }
