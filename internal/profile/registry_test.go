package profile

import (
	"errors"
	"testing"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		raw      string
		instance string
		metric   string
		wantErr  bool
	}{
		{`\Process(bgServer)\Private Bytes`, "bgServer", "Private Bytes", false},
		{`\Process(node#1)\Working Set - Private`, "node#1", "Working Set - Private", false},
		{`  \process(IDEMIA.DocAuth.Document.App)\Virtual Bytes `, "IDEMIA.DocAuth.Document.App", "Virtual Bytes", false},
		{`Process(bgServer)\Private Bytes`, "", "", true},
		{`\Memory\Available Bytes`, "", "", true},
		{`\Thread(x)\Context Switches/sec`, "", "", true},
		{`\Process()\Private Bytes`, "", "", true},
		{`\Process(x)\`, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			ref, err := ParseRef(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRef(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if ref.Instance() != tt.instance || ref.Metric() != tt.metric {
				t.Errorf("ParseRef(%q) = (%q, %q), want (%q, %q)",
					tt.raw, ref.Instance(), ref.Metric(), tt.instance, tt.metric)
			}
		})
	}
}

func TestCounterRefEqual(t *testing.T) {
	a := MustParseRef(`\Process(bgServer)\Private Bytes`)
	b := MustParseRef(`\Process(BGSERVER)\PrivateBytes`)
	c := MustParseRef(`\Process(bgServer)\Virtual Bytes`)

	if !a.Equal(b) {
		t.Errorf("%v and %v should be equal", a, b)
	}
	if a.Equal(c) {
		t.Errorf("%v and %v should differ", a, c)
	}
}

func TestBuiltinWorlds(t *testing.T) {
	r, err := DefaultRegistry()
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"audiodgworld", "catcworld", "newworld", "oldworld"}
	ids := r.IDs()
	if len(ids) != len(want) {
		t.Fatalf("IDs() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("IDs()[%d] = %q, want %q", i, ids[i], want[i])
		}
	}

	tests := []struct {
		id       string
		target   string
		counters int
		optional int
	}{
		{"newworld", "IDEMIA.DocAuth.Document.App.exe", 12, 3},
		{"oldworld", "DocAuth.Applications.Authenticate.exe", 15, 3},
		{"catcworld", "IS.exe", 33, 0},
		{"audiodgworld", "audiodg.exe", 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			p, err := r.Resolve(tt.id)
			if err != nil {
				t.Fatal(err)
			}
			if p.Target != tt.target {
				t.Errorf("Target = %q, want %q", p.Target, tt.target)
			}
			if got := len(p.Counters()); got != tt.counters {
				t.Errorf("len(Counters) = %d, want %d", got, tt.counters)
			}
			if got := len(p.OptionalGroup()); got != tt.optional {
				t.Errorf("len(OptionalGroup) = %d, want %d", got, tt.optional)
			}
			if got := len(p.Columns(true)); got != tt.counters+tt.optional {
				t.Errorf("len(Columns(true)) = %d, want %d", got, tt.counters+tt.optional)
			}
			if got := len(p.Columns(false)); got != tt.counters {
				t.Errorf("len(Columns(false)) = %d, want %d", got, tt.counters)
			}
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	r, err := DefaultRegistry()
	if err != nil {
		t.Fatal(err)
	}
	first, _ := r.Resolve("catcworld")
	for i := 0; i < 5; i++ {
		again, _ := r.Resolve("catcworld")
		a, b := first.Columns(false), again.Columns(false)
		for j := range a {
			if a[j].Raw != b[j].Raw {
				t.Fatalf("call %d: column %d = %q, want %q", i, j, b[j].Raw, a[j].Raw)
			}
		}
	}

	// Mutating a returned slice must not leak into the registry.
	cols := first.Counters()
	cols[0] = MustParseRef(`\Process(other)\Private Bytes`)
	again, _ := r.Resolve("catcworld")
	if again.Counters()[0].Instance() != "BGExaminer" {
		t.Errorf("registry was mutated through a returned slice")
	}
}

func TestResolveUnknownWorld(t *testing.T) {
	r, err := DefaultRegistry()
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.Resolve("moonworld")
	if !errors.Is(err, ErrUnknownWorld) {
		t.Errorf("Resolve(moonworld) error = %v, want ErrUnknownWorld", err)
	}
}

func TestNewRegistryValidation(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
	}{
		{"missing id", Definition{Target: "a.exe", Counters: []string{`\Process(a)\Private Bytes`}}},
		{"missing target", Definition{ID: "w", Counters: []string{`\Process(a)\Private Bytes`}}},
		{"no counters", Definition{ID: "w", Target: "a.exe"}},
		{"bad counter", Definition{ID: "w", Target: "a.exe", Counters: []string{"nope"}}},
		{"duplicate counter", Definition{ID: "w", Target: "a.exe", Counters: []string{
			`\Process(a)\Private Bytes`, `\Process(A)\PrivateBytes`,
		}}},
		{"optional duplicates counter", Definition{ID: "w", Target: "a.exe",
			Counters:      []string{`\Process(a)\Private Bytes`},
			OptionalGroup: []string{`\Process(a)\Private Bytes`},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRegistry(tt.def); err == nil {
				t.Errorf("NewRegistry(%+v) succeeded, want error", tt.def)
			}
		})
	}
}

func TestConfiguredWorldOverridesBuiltin(t *testing.T) {
	r, err := DefaultRegistry(
		Definition{ID: "audiodgworld", Target: "audiodg.exe", Counters: []string{`\Process(audiodg)\Working Set`}},
		Definition{ID: "labworld", Target: "lab", Counters: []string{`\Process(lab)\Private Bytes`}},
	)
	if err != nil {
		t.Fatal(err)
	}
	p, err := r.Resolve("audiodgworld")
	if err != nil {
		t.Fatal(err)
	}
	if n := len(p.Counters()); n != 1 {
		t.Errorf("overridden audiodgworld has %d counters, want 1", n)
	}
	lab, err := r.Resolve("labworld")
	if err != nil {
		t.Fatal(err)
	}
	if lab.OutputFile != "labworld.csv" {
		t.Errorf("OutputFile = %q, want default labworld.csv", lab.OutputFile)
	}
}
