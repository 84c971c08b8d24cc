package testutil

import "fmt"

// Call is one recorded lifecycle invocation.
type Call struct {
	Task  string
	Phase string
}

// String renders the call as "task.phase".
func (c Call) String() string {
	return fmt.Sprintf("%s.%s", c.Task, c.Phase)
}
