package app

import (
	"io"

	"github.com/specialistvlad/taskloop/internal/resource"
	"github.com/specialistvlad/taskloop/internal/task"
	"github.com/specialistvlad/taskloop/modules/env_vars"
	"github.com/specialistvlad/taskloop/modules/print"
	"github.com/specialistvlad/taskloop/modules/system"
)

// Module contributes resources and tasks to an App.
type Module interface {
	Register(reg *resource.Registry, tasks *task.Catalog) error
}

// coreModules is the definitive list of all modules that are compiled into
// the taskloop binary. Tasks that finish hand control back to root.
func coreModules(cfg *Config, outW io.Writer, root string) []Module {
	return []Module{
		&env_vars.Module{},
		&print.Module{Out: outW, Return: root},
		&system.Module{Out: outW, Ticks: cfg.StatusTicks, Return: root},
	}
}
