package report

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bobolobo/perfmonitor/internal/replay"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *selector, keys ...string) (quit bool) {
	for _, k := range keys {
		_, cmd := m.Update(key(k))
		if cmd != nil {
			if _, ok := cmd().(tea.QuitMsg); ok {
				return true
			}
		}
	}
	return false
}

var names = []string{`(a)\PrivateBytes`, `(a)\VirtualBytes`, `(b)\PrivateBytes`}

func TestSelectorToggleAndConfirm(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want []string
	}{
		{"enter takes cursor row", []string{"down", "enter"}, []string{`(a)\VirtualBytes`}},
		{"space toggles", []string{"space", "down", "down", "space", "enter"}, []string{`(a)\PrivateBytes`, `(b)\PrivateBytes`}},
		{"toggle twice clears", []string{"space", "space", "down", "enter"}, []string{`(a)\VirtualBytes`}},
		{"cursor stays in bounds", []string{"up", "up", "enter"}, []string{`(a)\PrivateBytes`}},
		{"vim keys", []string{"j", "j", "j", "k", "x", "enter"}, []string{`(a)\VirtualBytes`}},
		{"select all", []string{"a", "enter"}, names},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newSelector(names)
			if !press(m, tt.keys...) {
				t.Fatal("enter did not quit")
			}
			if !m.done || m.aborted {
				t.Fatalf("done = %v, aborted = %v", m.done, m.aborted)
			}
			got := m.selected()
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("selected = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectorAbort(t *testing.T) {
	for _, k := range []string{"q", "ctrl+c"} {
		m := newSelector(names)
		if !press(m, "space", k) {
			t.Fatalf("%s did not quit", k)
		}
		if !m.aborted {
			t.Errorf("%s: aborted = false", k)
		}
	}
}

func TestSelectorView(t *testing.T) {
	m := newSelector(names)
	press(m, "down", "space")
	view := m.View()
	for _, name := range names {
		if !strings.Contains(view, name) {
			t.Errorf("view is missing %q", name)
		}
	}
	if !strings.Contains(view, "[x]") || strings.Count(view, "[ ]") != 2 {
		t.Errorf("checkbox state wrong:\n%s", view)
	}
}

func TestSelectProgram(t *testing.T) {
	in := strings.NewReader("\r")
	var out bytes.Buffer
	got, err := Select(names, in, &out)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != `(a)\PrivateBytes` {
		t.Errorf("Select = %v", got)
	}
}

func TestSelectProgramAborted(t *testing.T) {
	_, err := Select(names, strings.NewReader("q"), &bytes.Buffer{})
	if !errors.Is(err, ErrAborted) {
		t.Errorf("Select = %v, want ErrAborted", err)
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		rows     int
		interval time.Duration
		want     string
	}{
		{60, time.Minute, "Memory utilization ran for 1 hour(s)"},
		{90, time.Minute, "Memory utilization ran for 1.5 hour(s)"},
		{0, time.Minute, "Memory utilization ran for 0 hour(s)"},
		{240, 30 * time.Second, "Memory utilization ran for 2 hour(s)"},
	}
	for _, tt := range tests {
		if got := Title(tt.rows, tt.interval); got != tt.want {
			t.Errorf("Title(%d, %v) = %q, want %q", tt.rows, tt.interval, got, tt.want)
		}
	}
}

func TestChart(t *testing.T) {
	series := []replay.Series{
		{Name: `(a)\PrivateBytes`, Points: []float64{100 << 20, 150 << 20, math.NaN(), 200 << 20}},
		{Name: `(b)\PrivateBytes`, Points: []float64{50 << 20, 60 << 20, 70 << 20, 80 << 20}},
	}
	var out bytes.Buffer
	if err := Chart(&out, Title(4, time.Minute), series, Options{Height: 8}); err != nil {
		t.Fatal(err)
	}
	s := out.String()
	if !strings.HasPrefix(s, "Memory utilization ran for ") {
		t.Errorf("chart does not start with title:\n%s", s)
	}
	for _, want := range []string{"200", "MB", `(a)\PrivateBytes`, `(b)\PrivateBytes`} {
		if !strings.Contains(s, want) {
			t.Errorf("chart is missing %q:\n%s", want, s)
		}
	}
}

func TestChartNoData(t *testing.T) {
	series := []replay.Series{{Name: "x", Points: []float64{math.NaN()}}}
	if err := Chart(&bytes.Buffer{}, "t", series, Options{}); !errors.Is(err, ErrNoData) {
		t.Errorf("Chart = %v, want ErrNoData", err)
	}
}
