// Package profile holds the Counter Profile Registry: the static mapping from
// a world identifier to the process and counters sampled for it. Worlds are
// data; adding one never touches the sampling loop.
package profile

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrUnknownWorld is returned by Resolve for an unregistered world.
var ErrUnknownWorld = errors.New("unknown world")

//go:embed worlds.yaml
var builtinWorlds []byte

// Definition is the declarative form of a world, as found in worlds.yaml and
// in the "worlds" section of the config file.
type Definition struct {
	ID            string   `yaml:"id"`
	Target        string   `yaml:"target"`
	OutputFile    string   `yaml:"output_file"`
	Counters      []string `yaml:"counters"`
	OptionalGroup []string `yaml:"optional_group"`
}

// Profile is a resolved, immutable world.
type Profile struct {
	ID         string
	Target     string
	OutputFile string

	counters []CounterRef
	optional []CounterRef
}

// Counters returns the mandatory counters in declared order.
func (p Profile) Counters() []CounterRef {
	return append([]CounterRef(nil), p.counters...)
}

// OptionalGroup returns the supplementary (ESF) counters, possibly empty.
func (p Profile) OptionalGroup() []CounterRef {
	return append([]CounterRef(nil), p.optional...)
}

// HasOptionalGroup reports whether the world defines supplementary counters.
func (p Profile) HasOptionalGroup() bool { return len(p.optional) > 0 }

// Columns returns the counters sampled per tick, in column order.
func (p Profile) Columns(includeOptional bool) []CounterRef {
	cols := p.Counters()
	if includeOptional {
		cols = append(cols, p.optional...)
	}
	return cols
}

// Registry resolves world identifiers to profiles. It is read-only once built.
type Registry struct {
	profiles map[string]Profile
}

// Builtin returns the worlds shipped with the binary.
func Builtin() ([]Definition, error) {
	var doc struct {
		Worlds []Definition `yaml:"worlds"`
	}
	if err := yaml.Unmarshal(builtinWorlds, &doc); err != nil {
		return nil, fmt.Errorf("parsing built-in worlds: %w", err)
	}
	return doc.Worlds, nil
}

// NewRegistry validates defs and builds a registry. A later definition with
// the same ID replaces an earlier one, so configured worlds override the
// built-in ones.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{profiles: make(map[string]Profile, len(defs))}
	for _, d := range defs {
		p, err := compile(d)
		if err != nil {
			return nil, err
		}
		r.profiles[p.ID] = p
	}
	return r, nil
}

// DefaultRegistry builds a registry from the built-in worlds followed by extra.
func DefaultRegistry(extra ...Definition) (*Registry, error) {
	defs, err := Builtin()
	if err != nil {
		return nil, err
	}
	return NewRegistry(append(defs, extra...)...)
}

// Resolve returns the profile registered under id.
func (r *Registry) Resolve(id string) (Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q (known: %v)", ErrUnknownWorld, id, r.IDs())
	}
	return p, nil
}

// IDs returns the registered world identifiers, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func compile(d Definition) (Profile, error) {
	if d.ID == "" {
		return Profile{}, errors.New("world definition without id")
	}
	if d.Target == "" {
		return Profile{}, fmt.Errorf("world %q: target process is required", d.ID)
	}
	if len(d.Counters) == 0 {
		return Profile{}, fmt.Errorf("world %q: at least one counter is required", d.ID)
	}
	outputFile := d.OutputFile
	if outputFile == "" {
		outputFile = d.ID + ".csv"
	}

	seen := make(map[string]string)
	parse := func(raws []string) ([]CounterRef, error) {
		refs := make([]CounterRef, 0, len(raws))
		for _, raw := range raws {
			ref, err := ParseRef(raw)
			if err != nil {
				return nil, fmt.Errorf("world %q: %w", d.ID, err)
			}
			if prev, dup := seen[ref.Key()]; dup {
				return nil, fmt.Errorf("world %q: counter %q duplicates %q", d.ID, raw, prev)
			}
			seen[ref.Key()] = raw
			refs = append(refs, ref)
		}
		return refs, nil
	}

	counters, err := parse(d.Counters)
	if err != nil {
		return Profile{}, err
	}
	optional, err := parse(d.OptionalGroup)
	if err != nil {
		return Profile{}, err
	}
	return Profile{
		ID:         d.ID,
		Target:     d.Target,
		OutputFile: outputFile,
		counters:   counters,
		optional:   optional,
	}, nil
}
