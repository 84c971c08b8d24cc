package print

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/specialistvlad/taskloop/internal/ctxlog"
	"github.com/specialistvlad/taskloop/internal/deps"
	"github.com/specialistvlad/taskloop/internal/resource"
	"github.com/specialistvlad/taskloop/internal/task"
)

// TaskName is the task printing the World.
const TaskName = "print_world"

// Module registers the print_world task. It prints every World variable,
// sorted by key, then switches to Return, or terminates the run when Return
// is empty.
type Module struct {
	Out    io.Writer
	Return string
}

// Deps are the inputs of the print tick.
type Deps struct {
	World worldKeys `dep:"world"`
}

type worldKeys interface {
	Keys() []string
	Get(key string) (any, bool)
	Ticks() uint64
}

func (m *Module) out() io.Writer {
	if m.Out == nil {
		return os.Stdout
	}
	return m.Out
}

// OnTickPrint is the tick callback of the print_world task.
func (m *Module) OnTickPrint(ctx context.Context, in deps.Inputs) (task.Signal, error) {
	ctxlog.FromContext(ctx).Info("Printing world")

	var d Deps
	if err := in.Bind(&d); err != nil {
		return task.Continue, err
	}

	w := m.out()
	keys := d.World.Keys()
	if len(keys) == 0 {
		fmt.Fprintln(w, "      (empty)")
	}
	for _, k := range keys {
		v, _ := d.World.Get(k)
		fmt.Fprintf(w, "      %s = %v\n", k, v)
	}
	fmt.Fprintf(w, "      (%d ticks so far, visit %d)\n", d.World.Ticks(), in.Activation())

	if m.Return == "" {
		return task.Terminate(nil), nil
	}
	return task.SwitchTo(m.Return), nil
}

// Register adds the task to tasks.
func (m *Module) Register(_ *resource.Registry, tasks *task.Catalog) error {
	return tasks.Add(task.Func(TaskName, m.OnTickPrint, "world"))
}
