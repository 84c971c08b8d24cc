package env_vars

import (
	"context"
	"os"
	"strings"

	"github.com/specialistvlad/taskloop/internal/deps"
	"github.com/specialistvlad/taskloop/internal/resource"
	"github.com/specialistvlad/taskloop/internal/task"
)

// ResourceName is the resource holding the process environment.
const ResourceName = "env"

// Module registers the "env" resource.
type Module struct{}

// Environ returns the process environment as a map.
func Environ() map[string]string {
	envMap := make(map[string]string)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 {
			envMap[pair[0]] = pair[1]
		}
	}
	return envMap
}

// produce reads the environment on every access; it changes rarely but is cheap.
func produce(context.Context, deps.Inputs) (any, error) {
	return Environ(), nil
}

// Register adds the resource to reg.
func (m *Module) Register(reg *resource.Registry, _ *task.Catalog) error {
	return reg.Register(resource.New(ResourceName, produce))
}
