package menu

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
	"github.com/specialistvlad/taskloop/internal/task"
)

// GeneratedPrefix starts the name of every menu expanded from a nested item.
const GeneratedPrefix = "menu_task_"

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Item is one menu entry. It either names a task or nests a whole menu.
type Item struct {
	Title string `yaml:"title"`
	Task  string `yaml:"task,omitempty"`
	Menu  *Menu  `yaml:"menu,omitempty"`
}

// Menu is a titled list of items. Name doubles as the task name.
type Menu struct {
	Name  string `yaml:"name,omitempty"`
	Title string `yaml:"title"`
	// Parent is the task "up" switches to. Empty for a root menu.
	Parent string `yaml:"parent_task,omitempty"`
	Items  []Item `yaml:"items"`
}

// Validate reports whether m can be turned into a task. Nested menus must
// have been flattened first.
func (m Menu) Validate() error {
	if _, err := task.NormalizeName(m.Name); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMenu, err)
	}
	if len(m.Items) == 0 {
		return fmt.Errorf("%w: %q has no items", ErrInvalidMenu, m.Name)
	}
	for i, it := range m.Items {
		switch {
		case it.Menu != nil:
			return fmt.Errorf("%w: %q item %d holds a nested menu; flatten it first", ErrInvalidMenu, m.Name, i)
		case it.Title == "":
			return fmt.Errorf("%w: %q item %d has no title", ErrInvalidMenu, m.Name, i)
		case it.Task == "":
			return fmt.Errorf("%w: %q item %q names no task", ErrInvalidMenu, m.Name, it.Title)
		}
	}
	return nil
}

// newName generates names for menus expanded out of nested items.
var newName = func() (string, error) {
	id, err := nanoid.Generate(idAlphabet, 16)
	if err != nil {
		return "", fmt.Errorf("generate menu name: %w", err)
	}
	return GeneratedPrefix + id, nil
}

// Flatten expands nested menus breadth first. Each nested menu gets a
// generated name and its enclosing menu as parent, and the item that held it
// now points at that name. Menus are copied; the input is left untouched.
//
// A nested menu without a title takes the item's title and vice versa.
func Flatten(menus []Menu) ([]Menu, error) {
	queue := append([]Menu(nil), menus...)
	for i := 0; i < len(queue); i++ {
		m := queue[i]
		items := make([]Item, 0, len(m.Items))
		for _, it := range m.Items {
			if it.Menu == nil {
				items = append(items, it)
				continue
			}
			name, err := newName()
			if err != nil {
				return nil, err
			}
			sub := *it.Menu
			sub.Name, sub.Parent = name, m.Name
			title := it.Title
			if title == "" {
				title = sub.Title
			}
			if sub.Title == "" {
				sub.Title = title
			}
			items = append(items, Item{Title: title, Task: name})
			queue = append(queue, sub)
		}
		queue[i].Items = items
	}
	return queue, nil
}

// Targets lists the tasks the items of menus switch to, in order of first
// appearance. Nested menus are walked but not listed themselves.
func Targets(menus []Menu) []string {
	var out []string
	seen := make(map[string]bool)
	var walk func([]Menu)
	walk = func(ms []Menu) {
		for _, m := range ms {
			for _, it := range m.Items {
				if it.Menu != nil {
					walk([]Menu{*it.Menu})
					continue
				}
				if it.Task != "" && !seen[it.Task] {
					seen[it.Task] = true
					out = append(out, it.Task)
				}
			}
		}
	}
	walk(menus)
	return out
}
