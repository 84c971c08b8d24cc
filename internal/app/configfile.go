package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/taskloop/internal/menu"
	"github.com/specialistvlad/taskloop/modules/env_vars"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ConfigFile is a run configuration read from an HCL file:
//
//	run {
//	  menu          = "menus"
//	  root          = "main"
//	  tick_interval = "100ms"
//	  error_task    = "exit"
//	}
//
//	bindings {
//	  robot_name = env.ROBOT_NAME
//	  max_speed  = 0.8
//	}
//
// Every bindings attribute becomes a static resource. Expressions may read env.
type ConfigFile struct {
	MenuPath     string
	RootTask     string
	ErrorTask    string
	TickInterval time.Duration
	StallTimeout time.Duration
	Bindings     map[string]any
}

type hclConfig struct {
	Run      *hclRun      `hcl:"run,block"`
	Bindings *hclBindings `hcl:"bindings,block"`
}

type hclRun struct {
	Menu         *string `hcl:"menu,optional"`
	Root         *string `hcl:"root,optional"`
	ErrorTask    *string `hcl:"error_task,optional"`
	TickInterval *string `hcl:"tick_interval,optional"`
	StallTimeout *string `hcl:"stall_timeout,optional"`
}

type hclBindings struct {
	Body hcl.Body `hcl:",remain"`
}

// LoadConfigFile reads path. A relative menu path is taken relative to the
// directory of the file.
func LoadConfigFile(path string) (*ConfigFile, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %w", diags)
	}

	evalCtx := menu.EvalContext(env_vars.Environ())
	var parsed hclConfig
	if diags := gohcl.DecodeBody(file.Body, evalCtx, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %w", diags)
	}

	cf := &ConfigFile{}
	if run := parsed.Run; run != nil {
		if run.Menu != nil {
			cf.MenuPath = *run.Menu
			if !filepath.IsAbs(cf.MenuPath) {
				cf.MenuPath = filepath.Join(filepath.Dir(path), cf.MenuPath)
			}
		}
		if run.Root != nil {
			cf.RootTask = *run.Root
		}
		if run.ErrorTask != nil {
			cf.ErrorTask = *run.ErrorTask
		}
		if cf.TickInterval, err = parseDuration("tick_interval", run.TickInterval); err != nil {
			return nil, err
		}
		if cf.StallTimeout, err = parseDuration("stall_timeout", run.StallTimeout); err != nil {
			return nil, err
		}
	}

	if parsed.Bindings != nil {
		if cf.Bindings, err = decodeBindings(parsed.Bindings.Body, evalCtx); err != nil {
			return nil, err
		}
	}
	return cf, nil
}

func parseDuration(name string, raw *string) (time.Duration, error) {
	if raw == nil {
		return 0, nil
	}
	d, err := time.ParseDuration(*raw)
	if err != nil {
		return 0, fmt.Errorf("run.%s: %w", name, err)
	}
	return d, nil
}

func decodeBindings(body hcl.Body, evalCtx *hcl.EvalContext) (map[string]any, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("bindings: %w", diags)
	}
	out := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("bindings.%s: %w", name, diags)
		}
		v, err := goValue(val)
		if err != nil {
			return nil, fmt.Errorf("bindings.%s: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// goValue converts a primitive cty value. Whole numbers become int, other
// numbers float64.
func goValue(val cty.Value) (any, error) {
	if val.IsNull() || !val.IsWhollyKnown() {
		return nil, errors.New("value must be known and not null")
	}
	switch val.Type() {
	case cty.String:
		return val.AsString(), nil
	case cty.Bool:
		return val.True(), nil
	case cty.Number:
		var i int
		if err := gocty.FromCtyValue(val, &i); err == nil {
			return i, nil
		}
		var f float64
		if err := gocty.FromCtyValue(val, &f); err != nil {
			return nil, err
		}
		return f, nil
	}
	return nil, fmt.Errorf("unsupported type %s", val.Type().FriendlyName())
}

// Merge fills the fields of cfg that are still at their zero value from f,
// so command-line flags win over the file. Bindings come from f.
func (f *ConfigFile) Merge(cfg Config) Config {
	if cfg.MenuPath == "" {
		cfg.MenuPath = f.MenuPath
	}
	if cfg.RootTask == "" {
		cfg.RootTask = f.RootTask
	}
	if cfg.ErrorTask == "" {
		cfg.ErrorTask = f.ErrorTask
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = f.TickInterval
	}
	if cfg.StallTimeout == 0 {
		cfg.StallTimeout = f.StallTimeout
	}
	if len(f.Bindings) > 0 {
		merged := make(map[string]any, len(cfg.Bindings)+len(f.Bindings))
		for k, v := range f.Bindings {
			merged[k] = v
		}
		for k, v := range cfg.Bindings {
			merged[k] = v
		}
		cfg.Bindings = merged
	}
	return cfg
}

// bindingNames returns the binding names in a stable order.
func bindingNames(bindings map[string]any) []string {
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
