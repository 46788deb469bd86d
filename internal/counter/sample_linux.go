//go:build linux

package counter

import (
	"context"

	"github.com/shirou/gopsutil/v3/process"
)

func sample(ctx context.Context, p *process.Process, metric string) (float64, error) {
	if metric == WorkingSetPrivate {
		ex, err := p.MemoryInfoExWithContext(ctx)
		if err != nil {
			return 0, err
		}
		if ex.Shared > ex.RSS {
			return 0, nil
		}
		return float64(ex.RSS - ex.Shared), nil
	}

	mem, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		return 0, err
	}
	switch metric {
	case PrivateBytes:
		return float64(mem.Data + mem.Stack), nil
	case VirtualBytes:
		return float64(mem.VMS), nil
	case WorkingSet:
		return float64(mem.RSS), nil
	case PageFileBytes:
		return float64(mem.Swap), nil
	}
	return 0, errNotOnThisPlatform
}
