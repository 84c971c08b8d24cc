package menu

import (
	"context"

	"github.com/specialistvlad/taskloop/internal/deps"
)

// View is what a Frontend is shown.
type View struct {
	Name  string
	Title string
	Items []string
	// Index is the highlighted item.
	Index     int
	HasParent bool
}

// ItemTitle is the title of the highlighted item.
func (v View) ItemTitle() string {
	if v.Index < 0 || v.Index >= len(v.Items) {
		return ""
	}
	return v.Items[v.Index]
}

// Frontend reads navigation input and renders a menu. Both methods run on
// the run loop's goroutine, once per tick at most, and receive the inputs
// hydrated for the menu task's tick.
type Frontend interface {
	// Action returns the next input. It may block.
	Action(ctx context.Context, in deps.Inputs, v View) (Input, error)
	// Display renders v. It is only called after the view changed.
	Display(ctx context.Context, in deps.Inputs, v View) error
}
