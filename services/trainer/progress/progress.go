// Package progress shows a running training session in the terminal.
package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zarux/qtictactoe/services/trainer"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#4204b5ff", Dark: "#4204b5ff"}).Render
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#414141ff", Dark: "#8f8f8fff"}).Render
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#138a0fff", Dark: "#1ddd37ff"}).Render
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#b55404ff", Dark: "#b55404ff"}).Render
)

const barWidth = 30

// WindowMsg carries a finished stats window into the program.
type WindowMsg trainer.WindowStats

// DoneMsg ends the program once training returns.
type DoneMsg struct {
	Err error
}

type Model struct {
	names   [2]string
	total   int
	started time.Time
	spinner spinner.Model

	last    *trainer.WindowStats
	played  int
	done    bool
	err     error
	aborted bool
}

func New(names [2]string, total int) *Model {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &Model{
		names:   names,
		total:   total,
		started: time.Now(),
		spinner: s,
	}
}

// Aborted reports whether the user quit before training finished.
func (m *Model) Aborted() bool {
	return m.aborted
}

func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case WindowMsg:
		w := trainer.WindowStats(msg)
		m.last = &w
		m.played = w.End
		return m, nil

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.aborted = true
			return m, tea.Quit
		}

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) View() string {
	var s strings.Builder
	s.WriteString(titleStyle("Training") + " ")
	if !m.done {
		s.WriteString(m.spinner.View())
	}
	s.WriteString("\n\n")

	filled := 0
	if m.total > 0 {
		filled = min(barWidth, m.played*barWidth/m.total)
	}
	fmt.Fprintf(&s, "%s%s %s\n",
		barStyle(strings.Repeat("█", filled)),
		labelStyle(strings.Repeat("░", barWidth-filled)),
		valueStyle(fmt.Sprintf("%d/%d", m.played, m.total)),
	)
	fmt.Fprintf(&s, "%s %s\n", labelStyle("elapsed"), valueStyle(time.Since(m.started).Round(time.Second).String()))

	if m.last != nil {
		s.WriteString("\n")
		for i, name := range m.names {
			fmt.Fprintf(&s, "%s %s  %s %s\n",
				labelStyle(name+" wins"),
				valueStyle(fmt.Sprintf("%5.1f%%", 100*m.last.WinRate(i))),
				labelStyle("entries"),
				valueStyle(fmt.Sprint(m.last.TableSize[i])),
			)
		}
		fmt.Fprintf(&s, "%s %s\n", labelStyle("draws"), valueStyle(fmt.Sprintf("%5.1f%%", 100*m.last.DrawRate())))
	}

	if m.err != nil {
		fmt.Fprintf(&s, "\n%s\n", m.err)
	}

	if !m.done {
		s.WriteString("\n" + labelStyle("q: stop and save") + "\n")
	}

	return s.String()
}
