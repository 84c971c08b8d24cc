package system

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// Sampler reads host statistics. Every call may be slow.
type Sampler interface {
	CPUPercent(ctx context.Context) (float64, error)
	MemoryPercent(ctx context.Context) (float64, error)
	LoadAverage(ctx context.Context) (*load.AvgStat, error)
	DiskPercent(ctx context.Context, path string) (float64, error)
}

// Host samples the machine the process runs on.
type Host struct{}

var _ Sampler = Host{}

// CPUPercent is the CPU usage across all cores since the previous call.
func (Host) CPUPercent(ctx context.Context) (float64, error) {
	values, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("cpu: no samples")
	}
	return values[0], nil
}

// MemoryPercent is the share of virtual memory in use.
func (Host) MemoryPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}

// LoadAverage is the 1, 5 and 15 minute load average.
func (Host) LoadAverage(ctx context.Context) (*load.AvgStat, error) {
	return load.AvgWithContext(ctx)
}

// DiskPercent is the share of the filesystem holding path in use.
func (Host) DiskPercent(ctx context.Context, path string) (float64, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, err
	}
	return usage.UsedPercent, nil
}
