package profile

import (
	"fmt"
	"strings"
	"unicode"
)

// processObject is the only performance object the recorder samples.
const processObject = "process"

// CounterRef identifies one per-process counter by its raw path, e.g.
// `\Process(bgServer)\Private Bytes`.
type CounterRef struct {
	Raw string

	instance string
	metric   string
}

// ParseRef parses a `\Process(<instance>)\<metric>` counter path.
func ParseRef(raw string) (CounterRef, error) {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, `\`) {
		return CounterRef{}, fmt.Errorf("counter %q: missing leading backslash", raw)
	}
	open := strings.IndexByte(s, '(')
	closeIdx := strings.LastIndex(s, `)\`)
	if open < 0 || closeIdx < open {
		return CounterRef{}, fmt.Errorf("counter %q: expected \\Process(<instance>)\\<metric>", raw)
	}
	if object := strings.TrimSpace(s[1:open]); !strings.EqualFold(object, processObject) {
		return CounterRef{}, fmt.Errorf("counter %q: unsupported object %q", raw, object)
	}
	instance := strings.TrimSpace(s[open+1 : closeIdx])
	metric := strings.TrimSpace(s[closeIdx+2:])
	if instance == "" || metric == "" {
		return CounterRef{}, fmt.Errorf("counter %q: empty instance or metric", raw)
	}
	return CounterRef{Raw: s, instance: instance, metric: metric}, nil
}

// MustParseRef is ParseRef for static tables and tests.
func MustParseRef(raw string) CounterRef {
	ref, err := ParseRef(raw)
	if err != nil {
		panic(err)
	}
	return ref
}

// Instance returns the process instance name, including any "#N" suffix.
func (r CounterRef) Instance() string { return r.instance }

// Metric returns the counter name within the process object.
func (r CounterRef) Metric() string { return r.metric }

// Key returns the normalized (process, metric) pair. Two refs are equal iff
// their keys match.
func (r CounterRef) Key() string {
	return strings.ToLower(r.instance) + `\` + strings.ToLower(stripSpace(r.metric))
}

// Equal reports whether r and o name the same counter.
func (r CounterRef) Equal(o CounterRef) bool { return r.Key() == o.Key() }

func (r CounterRef) String() string { return r.Raw }

func stripSpace(s string) string {
	return strings.Map(func(c rune) rune {
		if unicode.IsSpace(c) {
			return -1
		}
		return c
	}, s)
}
