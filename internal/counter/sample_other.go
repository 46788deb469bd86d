//go:build !linux && !windows

package counter

import (
	"context"

	"github.com/shirou/gopsutil/v3/process"
)

func sample(ctx context.Context, p *process.Process, metric string) (float64, error) {
	mem, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		return 0, err
	}
	switch metric {
	case VirtualBytes:
		return float64(mem.VMS), nil
	case WorkingSet:
		return float64(mem.RSS), nil
	}
	return 0, errNotOnThisPlatform
}
