// Package system exposes host statistics as time-gated resources and a task
// that reports them.
//
// The statistics are expensive to sample, so each resource keeps its value
// for a refresh interval; ticks within the interval share a sample.
package system

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/specialistvlad/taskloop/internal/ctxlog"
	"github.com/specialistvlad/taskloop/internal/deps"
	"github.com/specialistvlad/taskloop/internal/resource"
	"github.com/specialistvlad/taskloop/internal/task"
)

// Resource and task names.
const (
	CPUPercent    = "cpu_percent"
	MemoryPercent = "memory_percent"
	LoadAverage   = "load_average"
	DiskPercent   = "disk_percent"
	StatusName    = "system_status"
)

// Default refresh intervals.
const (
	DefaultRefresh     = 2 * time.Second
	DefaultLoadRefresh = 5 * time.Second
	DefaultDiskRefresh = 30 * time.Second
)

const sampleAttempts = 3

var retryDelay = 50 * time.Millisecond

// Module registers the host resources and the system_status task.
type Module struct {
	// Sampler defaults to Host.
	Sampler Sampler
	// DiskPath is the filesystem disk_percent reports on. Defaults to "/".
	DiskPath string
	// Refresh overrides every refresh interval when positive.
	Refresh time.Duration
	// Out receives the status lines. Defaults to os.Stdout.
	Out io.Writer
	// Ticks is how many status lines the task prints per activation before
	// it switches to Return (or terminates when Return is empty). Zero
	// reports forever.
	Ticks  int
	Return string

	lines int
}

// Status is one report of the system_status resource.
type Status struct {
	CPU    float64
	Memory float64
	Disk   float64
	// Load is nil on platforms without a load average.
	Load *load.AvgStat
}

func (s Status) String() string {
	line := fmt.Sprintf("cpu %.1f%% mem %.1f%% disk %.1f%%", s.CPU, s.Memory, s.Disk)
	if s.Load != nil {
		line += fmt.Sprintf(" load %.2f %.2f %.2f", s.Load.Load1, s.Load.Load5, s.Load.Load15)
	}
	return line
}

// Deps are the inputs of the status resource.
type Deps struct {
	CPU    float64       `dep:"cpu_percent"`
	Memory float64       `dep:"memory_percent"`
	Disk   float64       `dep:"disk_percent,optional"`
	Load   *load.AvgStat `dep:"load_average,optional"`
}

func (m *Module) sampler() Sampler {
	if m.Sampler == nil {
		return Host{}
	}
	return m.Sampler
}

func (m *Module) refresh(d time.Duration) time.Duration {
	if m.Refresh > 0 {
		return m.Refresh
	}
	return d
}

// sample retries a flaky read a few times before giving up.
func sample[T any](ctx context.Context, read func(context.Context) (T, error)) (T, error) {
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(retryDelay), sampleAttempts-1), ctx)
	return backoff.RetryWithData(func() (T, error) { return read(ctx) }, b)
}

// Register adds the resources and the task.
func (m *Module) Register(reg *resource.Registry, tasks *task.Catalog) error {
	s := m.sampler()
	diskPath := m.DiskPath
	if diskPath == "" {
		diskPath = "/"
	}

	resources := []resource.Resource{
		resource.New(CPUPercent, func(ctx context.Context, _ deps.Inputs) (any, error) {
			return sample(ctx, s.CPUPercent)
		}, resource.WithRefresh(m.refresh(DefaultRefresh))),
		resource.New(MemoryPercent, func(ctx context.Context, _ deps.Inputs) (any, error) {
			return sample(ctx, s.MemoryPercent)
		}, resource.WithRefresh(m.refresh(DefaultRefresh))),
		resource.New(LoadAverage, func(ctx context.Context, _ deps.Inputs) (any, error) {
			return sample(ctx, s.LoadAverage)
		}, resource.WithRefresh(m.refresh(DefaultLoadRefresh))),
		resource.New(DiskPercent, func(ctx context.Context, _ deps.Inputs) (any, error) {
			return sample(ctx, func(ctx context.Context) (float64, error) { return s.DiskPercent(ctx, diskPath) })
		}, resource.WithRefresh(m.refresh(DefaultDiskRefresh))),
		resource.New(StatusName, produceStatus,
			resource.WithNeeds(CPUPercent, MemoryPercent, DiskPercent+",optional", LoadAverage+",optional")),
	}
	for _, res := range resources {
		if err := reg.Register(res); err != nil {
			return err
		}
	}
	return tasks.Add(task.Must(task.New(StatusName,
		task.WithStartup(m.onStartup),
		task.WithTick(m.OnTickStatus, StatusName, "world"),
	)))
}

func produceStatus(_ context.Context, in deps.Inputs) (any, error) {
	var d Deps
	if err := in.Bind(&d); err != nil {
		return nil, err
	}
	return Status{CPU: d.CPU, Memory: d.Memory, Disk: d.Disk, Load: d.Load}, nil
}

func (m *Module) onStartup(context.Context, deps.Inputs) (task.Signal, error) {
	m.lines = 0
	return task.Continue, nil
}

// OnTickStatus prints one status line and records it on the World.
func (m *Module) OnTickStatus(ctx context.Context, in deps.Inputs) (task.Signal, error) {
	status, err := deps.Get[Status](in, StatusName)
	if err != nil {
		return task.Continue, err
	}
	w := in.World()
	w.Set(StatusName, status)
	w.Set(CPUPercent, status.CPU)

	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintln(out, status.String())

	m.lines++
	ctxlog.FromContext(ctx).Debug("System status sampled.", "status", status.String(), "lines", m.lines)
	if m.Ticks > 0 && m.lines >= m.Ticks {
		if m.Return == "" {
			return task.Terminate(status), nil
		}
		return task.SwitchTo(m.Return), nil
	}
	return task.Continue, nil
}
