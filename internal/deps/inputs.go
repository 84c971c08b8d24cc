package deps

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/specialistvlad/taskloop/internal/world"
)

// Hydrator resolves a need list into Inputs.
type Hydrator interface {
	Hydrate(ctx context.Context, owner string, needs []Need) (Inputs, error)
}

// Inputs are the resolved values for one callback invocation. An optional
// need that could not be resolved is simply absent.
//
// Inputs also carry the invoking task's counters, which need no declaration.
type Inputs struct {
	values map[string]any

	activation uint64
	tick       uint64
}

// NewInputs wraps a name to value map. It is mostly useful in tests.
func NewInputs(values map[string]any) Inputs {
	return Inputs{values: values}
}

// Lookup returns the value resolved for name.
func (in Inputs) Lookup(name string) (any, bool) {
	v, ok := in.values[name]
	return v, ok
}

// Has reports whether name was resolved.
func (in Inputs) Has(name string) bool {
	_, ok := in.values[name]
	return ok
}

// Len is the number of resolved values.
func (in Inputs) Len() int {
	return len(in.values)
}

// WithCounters returns a copy of in carrying a task's activation number and
// its tick number within that activation.
func (in Inputs) WithCounters(activation, tick uint64) Inputs {
	in.activation, in.tick = activation, tick
	return in
}

// Activation is the invoking task's activation number, starting at 1.
func (in Inputs) Activation() uint64 { return in.activation }

// Tick is the invoking task's tick number in the current activation. It is
// 0 during startup and counts the completed ticks during shutdown.
func (in Inputs) Tick() uint64 { return in.tick }

// World returns the run's World if the callback declared it, nil otherwise.
func (in Inputs) World() *world.World {
	w, _ := in.values[WorldName].(*world.World)
	return w
}

// Get returns the value resolved for name as a T.
func Get[T any](in Inputs, name string) (T, error) {
	var zero T
	v, ok := in.values[name]
	if !ok {
		return zero, &UnresolvedError{Name: name}
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q is %T, want %T", ErrTypeMismatch, name, v, zero)
	}
	return t, nil
}

// MustGet is like Get but panics on error.
func MustGet[T any](in Inputs, name string) T {
	v, err := Get[T](in, name)
	if err != nil {
		panic(err)
	}
	return v
}

// Bind fills the exported fields of the struct pointed to by dst from their
// `dep:"name"` tags. A field tagged "name,optional" is left untouched when
// name is absent; any other missing name is an *UnresolvedError.
func (in Inputs) Bind(dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("deps: Bind requires a pointer to a struct, got %T", dst)
	}
	sv := rv.Elem()
	st := sv.Type()

	for i := 0; i < sv.NumField(); i++ {
		field := st.Field(i)
		tag := field.Tag.Get("dep")
		if tag == "" || tag == "-" || !field.IsExported() {
			continue
		}
		need, err := ParseNeed(tag)
		if err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}

		v, ok := in.values[need.Name]
		if !ok {
			if need.Optional {
				continue
			}
			return &UnresolvedError{Name: need.Name, Owner: st.String() + "." + field.Name}
		}
		if v == nil {
			continue
		}

		vt := reflect.TypeOf(v)
		ft := field.Type
		if ft.Kind() == reflect.Interface {
			if !vt.Implements(ft) {
				return fmt.Errorf("%w: %q of type %v does not implement %v", ErrTypeMismatch, need.Name, vt, ft)
			}
		} else if !vt.AssignableTo(ft) {
			return fmt.Errorf("%w: %q of type %v is not assignable to field %s of type %v",
				ErrTypeMismatch, need.Name, vt, field.Name, ft)
		}
		sv.Field(i).Set(reflect.ValueOf(v))
	}
	return nil
}

// String lists the resolved names, for logs.
func (in Inputs) String() string {
	names := make([]string, 0, len(in.values))
	for k := range in.values {
		names = append(names, k)
	}
	slices.Sort(names)
	return "[" + strings.Join(names, " ") + "]"
}
