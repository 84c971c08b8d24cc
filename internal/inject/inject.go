// Package inject resolves declared needs against a resource Registry and the
// run's World.
package inject

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/taskloop/internal/deps"
	"github.com/specialistvlad/taskloop/internal/resource"
	"github.com/specialistvlad/taskloop/internal/world"
)

// ErrDependencyCycle is returned when resolving a resource requires its own value.
var ErrDependencyCycle = errors.New("inject: dependency cycle")

// Injector hydrates need lists for lifecycle callbacks and, recursively, for
// resource producers. It implements deps.Hydrator.
type Injector struct {
	reg   *resource.Registry
	world *world.World

	// stack holds the resources currently being produced, outermost first.
	stack []string
}

var _ deps.Hydrator = (*Injector)(nil)

// New creates an Injector. w may be nil, in which case "world" is unresolvable.
func New(reg *resource.Registry, w *world.World) *Injector {
	return &Injector{reg: reg, world: w}
}

// Hydrate resolves every need. The reserved name "world" yields the World;
// any other name is read from the Registry. A required need matching neither
// fails with a *deps.UnresolvedError naming owner; an optional one is
// omitted from the result.
func (i *Injector) Hydrate(ctx context.Context, owner string, needs []deps.Need) (deps.Inputs, error) {
	values := make(map[string]any, len(needs))
	for _, n := range needs {
		if n.Name == deps.WorldName {
			if i.world == nil {
				if n.Optional {
					continue
				}
				return deps.Inputs{}, &deps.UnresolvedError{Name: n.Name, Owner: owner}
			}
			values[n.Name] = i.world
			continue
		}

		if i.reg == nil || !i.reg.Has(n.Name) {
			if n.Optional {
				continue
			}
			return deps.Inputs{}, &deps.UnresolvedError{Name: n.Name, Owner: owner}
		}

		v, err := i.resolve(ctx, n.Name)
		if err != nil {
			return deps.Inputs{}, err
		}
		values[n.Name] = v
	}
	return deps.NewInputs(values), nil
}

// Resolve reads a single resource through the Injector, so its producer's
// own needs are hydrated too. It serves the run loop's checks.
func (i *Injector) Resolve(ctx context.Context, name string) (any, error) {
	if name == deps.WorldName {
		if i.world == nil {
			return nil, &deps.UnresolvedError{Name: name}
		}
		return i.world, nil
	}
	if i.reg == nil {
		return nil, fmt.Errorf("%w: %q", resource.ErrUnknownResource, name)
	}
	return i.resolve(ctx, name)
}

func (i *Injector) resolve(ctx context.Context, name string) (any, error) {
	for _, active := range i.stack {
		if active == name {
			chain := append(append([]string(nil), i.stack...), name)
			return nil, fmt.Errorf("%w: %s", ErrDependencyCycle, strings.Join(chain, " -> "))
		}
	}
	i.stack = append(i.stack, name)
	defer func() { i.stack = i.stack[:len(i.stack)-1] }()

	return i.reg.Resolve(ctx, name, i)
}
