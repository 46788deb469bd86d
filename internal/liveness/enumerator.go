package liveness

import (
	"context"

	"github.com/shirou/gopsutil/v3/process"
)

// Handle is one entry of a process listing. Name may fail for a single entry
// (access denied, process exited mid-scan) without invalidating the listing.
type Handle interface {
	PID() int32
	Name(ctx context.Context) (string, error)
}

// Enumerator lists the processes currently running.
type Enumerator interface {
	Processes(ctx context.Context) ([]Handle, error)
}

// Gopsutil enumerates processes with gopsutil.
type Gopsutil struct{}

// Processes returns every process visible to the current user.
func (Gopsutil) Processes(ctx context.Context) ([]Handle, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	handles := make([]Handle, len(procs))
	for i, p := range procs {
		handles[i] = gopsutilHandle{p}
	}
	return handles, nil
}

type gopsutilHandle struct {
	p *process.Process
}

func (h gopsutilHandle) PID() int32 { return h.p.Pid }

func (h gopsutilHandle) Name(ctx context.Context) (string, error) {
	return h.p.NameWithContext(ctx)
}
