package menu

import "fmt"

// Action is a navigation request read from a Frontend.
type Action int

const (
	// ActionNone leaves the menu as it is.
	ActionNone Action = iota
	ActionSelect
	ActionNext
	ActionPrevious
	// ActionUp returns to the parent menu. It is ignored on a root menu.
	ActionUp
	// ActionIndex selects Input.Index directly. Out-of-range indexes are ignored.
	ActionIndex
	// ActionExit terminates the run.
	ActionExit
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionSelect:
		return "select"
	case ActionNext:
		return "next"
	case ActionPrevious:
		return "previous"
	case ActionUp:
		return "up"
	case ActionIndex:
		return "index"
	case ActionExit:
		return "exit"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Input is one reading from a Frontend.
type Input struct {
	Action Action
	// Index is used by ActionIndex.
	Index int
}

// Pick returns an Input selecting item i.
func Pick(i int) Input { return Input{Action: ActionIndex, Index: i} }
