package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/specialistvlad/taskloop/internal/deps"
	"github.com/valyala/bytebufferpool"
)

// Keyboard is a line-based Frontend. It prints the whole menu and reads one
// line per tick: an item number selects it, "n" and "p" move the highlight,
// an empty line selects the highlighted item, "u" goes up and "q" quits.
// End of input quits too.
type Keyboard struct {
	in  *bufio.Reader
	out io.Writer
}

var _ Frontend = (*Keyboard)(nil)

// NewKeyboard reads from r and prints to w.
func NewKeyboard(r io.Reader, w io.Writer) *Keyboard {
	return &Keyboard{in: bufio.NewReader(r), out: w}
}

// Action prints v and blocks until a line is read. ctx is not consulted while
// blocked.
func (k *Keyboard) Action(_ context.Context, _ deps.Inputs, v View) (Input, error) {
	k.render(v)

	line, err := k.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return Input{}, err
		}
		if strings.TrimSpace(line) == "" {
			return Input{Action: ActionExit}, nil
		}
	}

	switch value := strings.TrimSpace(line); value {
	case "":
		return Input{Action: ActionSelect}, nil
	case "n":
		return Input{Action: ActionNext}, nil
	case "p":
		return Input{Action: ActionPrevious}, nil
	case "q":
		return Input{Action: ActionExit}, nil
	case "u":
		if v.HasParent {
			return Input{Action: ActionUp}, nil
		}
	default:
		if i, err := strconv.Atoi(value); err == nil {
			return Pick(i), nil
		}
	}
	fmt.Fprintf(k.out, "Unrecognised choice %q\n", strings.TrimSpace(line))
	return Input{}, nil
}

// Display does nothing; Action already printed the menu before blocking.
func (k *Keyboard) Display(context.Context, deps.Inputs, View) error { return nil }

func (k *Keyboard) render(v View) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	fmt.Fprintf(buf, "%s\n%s\n", v.Title, strings.Repeat("=", len(v.Title)))
	for i, title := range v.Items {
		marker := " "
		if i == v.Index {
			marker = ">"
		}
		fmt.Fprintf(buf, "%s%d: %s\n", marker, i, title)
	}
	if v.HasParent {
		buf.WriteString("\nSelect an item, or \"u\" for up...\n")
	} else {
		buf.WriteString("\nSelect an item...\n")
	}
	_, _ = k.out.Write(buf.B)
}
