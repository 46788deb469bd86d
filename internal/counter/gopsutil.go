package counter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/bobolobo/perfmonitor/internal/profile"
)

const (
	defaultReadTimeout = 5 * time.Second

	// instanceTTL bounds how long a process listing is reused. All counters of
	// one tick resolve against the same listing.
	instanceTTL = time.Second
)

// Gopsutil reads process memory counters through gopsutil.
//
// Instances follow performance-counter naming: the executable name without
// ".exe", matched case-insensitively, with "#N" selecting the N-th process of
// that name ordered by pid.
type Gopsutil struct {
	readTimeout time.Duration
	now         func() time.Time

	mu        sync.Mutex
	instances map[string][]int32
	listedAt  time.Time
}

// NewGopsutil returns a reader whose individual reads are bounded by
// readTimeout (a non-positive value selects the default).
func NewGopsutil(readTimeout time.Duration) *Gopsutil {
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}
	return &Gopsutil{readTimeout: readTimeout, now: time.Now}
}

// Read returns the current value of ref in bytes.
func (g *Gopsutil) Read(ctx context.Context, ref profile.CounterRef) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, g.readTimeout)
	defer cancel()

	key := metricKey(ref.Metric())
	if !knownMetrics[key] {
		return 0, fmt.Errorf("counter %s: unknown metric %q", ref.Raw, ref.Metric())
	}

	pid, err := g.resolve(ctx, ref.Instance())
	if err != nil {
		return 0, Unavailable(ref, err)
	}
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		g.invalidate()
		return 0, Unavailable(ref, err)
	}
	v, err := sample(ctx, p, key)
	if err != nil {
		return 0, Unavailable(ref, err)
	}
	return v, nil
}

// resolve maps an instance name such as "node#1" to a pid.
func (g *Gopsutil) resolve(ctx context.Context, instance string) (int32, error) {
	base, index, err := splitInstance(instance)
	if err != nil {
		return 0, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.instances == nil || g.now().Sub(g.listedAt) > instanceTTL {
		instances, err := listInstances(ctx)
		if err != nil {
			return 0, fmt.Errorf("listing processes: %w", err)
		}
		g.instances = instances
		g.listedAt = g.now()
	}

	pids := g.instances[base]
	if index >= len(pids) {
		return 0, fmt.Errorf("no running instance %q", instance)
	}
	return pids[index], nil
}

func (g *Gopsutil) invalidate() {
	g.mu.Lock()
	g.instances = nil
	g.mu.Unlock()
}

// splitInstance turns "java#1" into ("java", 1) and "java" into ("java", 0).
func splitInstance(instance string) (string, int, error) {
	base, suffix, found := strings.Cut(instance, "#")
	index := 0
	if found {
		n, err := strconv.Atoi(suffix)
		if err != nil || n < 0 {
			return "", 0, fmt.Errorf("invalid instance index in %q", instance)
		}
		index = n
	}
	return instanceBase(base), index, nil
}

func instanceBase(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimSuffix(name, ".exe")
}

// listInstances groups running pids by instance base name, each group ordered
// by pid. Entries whose name cannot be read are skipped.
func listInstances(ctx context.Context) (map[string][]int32, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]int32)
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}
		base := instanceBase(name)
		out[base] = append(out[base], p.Pid)
	}
	for _, pids := range out {
		sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })
	}
	return out, nil
}
