package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrAborted is returned by Select when the user quits without confirming.
var ErrAborted = errors.New("selection aborted")

type selector struct {
	names   []string
	cursor  int
	checked map[int]bool
	done    bool
	aborted bool
}

func newSelector(names []string) *selector {
	return &selector{names: names, checked: make(map[int]bool)}
}

func (m *selector) Init() tea.Cmd { return nil }

func (m *selector) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "q", "esc":
		m.aborted = true
		return m, tea.Quit
	case "up", "k":
		m.cursor = bound(m.cursor-1, 0, len(m.names)-1)
	case "down", "j":
		m.cursor = bound(m.cursor+1, 0, len(m.names)-1)
	case " ", "space", "x":
		m.checked[m.cursor] = !m.checked[m.cursor]
	case "a":
		all := len(m.selected()) == len(m.names)
		for i := range m.names {
			m.checked[i] = !all
		}
	case "enter":
		// Enter with nothing checked takes the row under the cursor.
		if len(m.selected()) == 0 && len(m.names) > 0 {
			m.checked[m.cursor] = true
		}
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *selector) View() string {
	if m.done || m.aborted {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Select the counters to plot:"))
	b.WriteRune('\n')
	for i, name := range m.names {
		mark := "[ ]"
		if m.checked[i] {
			mark = checkedStyle.Render("[x]")
		}
		line := fmt.Sprintf("%2d %s", i+1, name)
		if i == m.cursor {
			line = cursorStyle.Render(line)
		} else {
			line = normalStyle.Render(line)
		}
		b.WriteString(mark + " " + line + "\n")
	}
	b.WriteString(helpStyle.Render("(↑/↓ or j/k to move, space to toggle, a for all, enter to plot, q to quit)"))
	b.WriteRune('\n')
	return b.String()
}

// selected returns the checked names in column order.
func (m *selector) selected() []string {
	var out []string
	for i, name := range m.names {
		if m.checked[i] {
			out = append(out, name)
		}
	}
	return out
}

// Select lets the user pick any number of names. The result keeps the order
// of names.
func Select(names []string, in io.Reader, out io.Writer) ([]string, error) {
	if len(names) == 0 {
		return nil, errors.New("nothing to select from")
	}
	p := tea.NewProgram(newSelector(names), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("running selector: %w", err)
	}
	m := final.(*selector)
	if m.aborted || !m.done {
		return nil, ErrAborted
	}
	return m.selected(), nil
}

func bound(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
