package menu

import (
	"context"
	"fmt"

	"github.com/specialistvlad/taskloop/internal/ctxlog"
	"github.com/specialistvlad/taskloop/internal/deps"
	"github.com/specialistvlad/taskloop/internal/task"
)

// NewTask builds the task that runs m. needs are hydrated for every tick and
// handed to the frontend, so a frontend backed by resources (a gamepad, a
// display) declares them here.
//
// Every activation starts on the first item. next and previous wrap around.
func NewTask(m Menu, fe Frontend, needs ...string) (*task.Task, error) {
	if fe == nil {
		return nil, ErrNoFrontend
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	n := &navigator{menu: m, fe: fe}
	return task.New(m.Name,
		task.WithStartup(n.startup),
		task.WithTick(n.tick, needs...),
	)
}

// navigator is the per-task state of a menu.
type navigator struct {
	menu  Menu
	fe    Frontend
	index int
	dirty bool
}

func (n *navigator) startup(context.Context, deps.Inputs) (task.Signal, error) {
	n.index = 0
	n.dirty = true
	return task.Continue, nil
}

func (n *navigator) tick(ctx context.Context, in deps.Inputs) (task.Signal, error) {
	logger := ctxlog.FromContext(ctx)
	input, err := n.fe.Action(ctx, in, n.view())
	if err != nil {
		return task.Continue, fmt.Errorf("menu %q: read input: %w", n.menu.Name, err)
	}

	count := len(n.menu.Items)
	switch input.Action {
	case ActionNext:
		n.index = (n.index + 1) % count
		n.dirty = true
	case ActionPrevious:
		n.index = (n.index - 1 + count) % count
		n.dirty = true
	case ActionSelect:
		logger.Debug("Menu item selected.", "menu", n.menu.Name, "index", n.index)
		return task.SwitchTo(n.menu.Items[n.index].Task), nil
	case ActionIndex:
		if input.Index >= 0 && input.Index < count {
			logger.Debug("Menu item selected.", "menu", n.menu.Name, "index", input.Index)
			return task.SwitchTo(n.menu.Items[input.Index].Task), nil
		}
		logger.Debug("Ignoring out of range menu index.", "menu", n.menu.Name, "index", input.Index)
	case ActionUp:
		if n.menu.Parent != "" {
			return task.SwitchTo(n.menu.Parent), nil
		}
	case ActionExit:
		return task.Terminate(nil), nil
	}

	if n.dirty {
		if err := n.fe.Display(ctx, in, n.view()); err != nil {
			return task.Continue, fmt.Errorf("menu %q: display: %w", n.menu.Name, err)
		}
		n.dirty = false
	}
	return task.Continue, nil
}

func (n *navigator) view() View {
	titles := make([]string, len(n.menu.Items))
	for i, it := range n.menu.Items {
		titles[i] = it.Title
	}
	return View{
		Name:      n.menu.Name,
		Title:     n.menu.Title,
		Items:     titles,
		Index:     n.index,
		HasParent: n.menu.Parent != "",
	}
}

// Register flattens menus, builds a task for each, and adds them to catalog.
// It returns the task names in order; the first is the first root menu.
func Register(catalog *task.Catalog, menus []Menu, fe Frontend, needs ...string) ([]string, error) {
	flat, err := Flatten(menus)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(flat))
	for _, m := range flat {
		t, err := NewTask(m, fe, needs...)
		if err != nil {
			return nil, err
		}
		if err := catalog.Add(t); err != nil {
			return nil, err
		}
		names = append(names, t.Name())
	}
	return names, nil
}
