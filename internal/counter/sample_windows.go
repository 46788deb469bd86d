//go:build windows

package counter

import (
	"context"

	"github.com/shirou/gopsutil/v3/process"
)

// gopsutil reports WorkingSetSize as RSS and PagefileUsage (private commit) as
// VMS on Windows. Virtual Bytes and the private working set are not exposed.
func sample(ctx context.Context, p *process.Process, metric string) (float64, error) {
	mem, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		return 0, err
	}
	switch metric {
	case PrivateBytes, PageFileBytes:
		return float64(mem.VMS), nil
	case WorkingSet:
		return float64(mem.RSS), nil
	}
	return 0, errNotOnThisPlatform
}
