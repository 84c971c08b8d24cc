package menu

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/taskloop/internal/ctxlog"
	"github.com/specialistvlad/taskloop/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// LoadPath reads menus from a single file or from every .hcl, .yaml and .yml
// file below a directory, in lexical path order.
func LoadPath(ctx context.Context, path string, env map[string]string) ([]Menu, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading menus from path.", "path", path)

	files, err := fsutil.FindFilesByExtension(path, ".hcl", ".yaml", ".yml")
	if err != nil {
		return nil, fmt.Errorf("failed to find menu files in %s: %w", path, err)
	}
	if len(files) == 0 {
		logger.Warn("No menu files found in path.", "path", path)
	}

	var menus []Menu
	for _, file := range files {
		loaded, err := LoadFile(ctx, file, env)
		if err != nil {
			return nil, err
		}
		menus = append(menus, loaded...)
	}
	return menus, nil
}

// LoadFile reads menus from path, picking the format from its extension:
// .hcl, or .yaml / .yml. env is exposed to HCL files as the env object.
func LoadFile(ctx context.Context, path string, env map[string]string) ([]Menu, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading menu file.", "path", path)

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu file: %w", err)
	}

	var menus []Menu
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".hcl":
		menus, err = LoadHCL(src, path, env)
	case ".yaml", ".yml":
		menus, err = LoadYAML(bytes.NewReader(src))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("menu file %s: %w", path, err)
	}

	logger.Debug("Loaded menu file.", "path", path, "menus", len(menus))
	return menus, nil
}

// LoadYAML decodes a list of menus:
//
//	- name: main
//	  title: Main menu
//	  items:
//	    - title: Drive
//	      task: drive
//	    - menu:
//	        title: Settings
//	        items:
//	          - title: Calibrate
//	            task: calibrate
func LoadYAML(r io.Reader) ([]Menu, error) {
	var menus []Menu
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&menus); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidMenu)
		}
		return nil, fmt.Errorf("decode yaml menus: %w", err)
	}
	return menus, nil
}

// hclFile is the top-level structure of an HCL menu file.
type hclFile struct {
	Menus []hclMenu `hcl:"menu,block"`
}

type hclMenu struct {
	Name  string    `hcl:"name,label"`
	Title string    `hcl:"title"`
	Items []hclItem `hcl:"item,block"`
}

type hclItem struct {
	Title string      `hcl:"title,label"`
	Task  *string     `hcl:"task,optional"`
	Menu  *hclSubMenu `hcl:"menu,block"`
}

type hclSubMenu struct {
	Title *string   `hcl:"title,optional"`
	Items []hclItem `hcl:"item,block"`
}

// LoadHCL decodes menus written as blocks:
//
//	menu "main" {
//	  title = "Main menu (${env.ROBOT_NAME})"
//	  item "Drive" { task = "drive" }
//	  item "Settings" {
//	    menu {
//	      item "Calibrate" { task = "calibrate" }
//	    }
//	  }
//	}
//
// Attribute expressions may read env.
func LoadHCL(src []byte, filename string, env map[string]string) ([]Menu, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %w", diags)
	}

	var parsed hclFile
	if diags := gohcl.DecodeBody(file.Body, EvalContext(env), &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %w", diags)
	}

	menus := make([]Menu, 0, len(parsed.Menus))
	for _, m := range parsed.Menus {
		menus = append(menus, Menu{Name: m.Name, Title: m.Title, Items: convertItems(m.Items)})
	}
	return menus, nil
}

func convertItems(items []hclItem) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		item := Item{Title: it.Title}
		if it.Task != nil {
			item.Task = *it.Task
		}
		if it.Menu != nil {
			sub := &Menu{Items: convertItems(it.Menu.Items)}
			if it.Menu.Title != nil {
				sub.Title = *it.Menu.Title
			}
			item.Menu = sub
		}
		out = append(out, item)
	}
	return out
}

// EvalContext exposes env to HCL expressions as the env object. Names that
// are not valid HCL identifiers are left out.
func EvalContext(env map[string]string) *hcl.EvalContext {
	vals := make(map[string]cty.Value, len(env))
	for k, v := range env {
		if hclIdentifier(k) {
			vals[k] = cty.StringVal(v)
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(vals)},
	}
}

// hclIdentifier reports whether name can be written as env.<name>.
func hclIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && (r == '-' || (r >= '0' && r <= '9')):
		default:
			return false
		}
	}
	return true
}
