package deps

import (
	"fmt"
	"strings"
)

// WorldName is the reserved need that resolves to the run's World.
const WorldName = "world"

// Need is a parsed need declaration.
type Need struct {
	Name     string
	Optional bool
}

// ParseNeed parses "name" or "name,optional".
func ParseNeed(raw string) (Need, error) {
	parts := strings.Split(raw, ",")
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return Need{}, fmt.Errorf("%w: empty name in %q", ErrInvalidNeed, raw)
	}
	n := Need{Name: name}
	for _, flag := range parts[1:] {
		switch strings.TrimSpace(flag) {
		case "optional":
			n.Optional = true
		default:
			return Need{}, fmt.Errorf("%w: unknown flag %q in %q", ErrInvalidNeed, flag, raw)
		}
	}
	return n, nil
}

// ParseNeeds parses a need list and rejects duplicate names. Names match
// case-sensitively.
func ParseNeeds(raw []string) ([]Need, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]Need, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		n, err := ParseNeed(r)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[n.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateNeed, n.Name)
		}
		seen[n.Name] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}

// Names returns the need names without flags.
func Names(needs []Need) []string {
	out := make([]string, len(needs))
	for i, n := range needs {
		out[i] = n.Name
	}
	return out
}
