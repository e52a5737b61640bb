package settings

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zarux/qtictactoe/pkg/tictactoe"
)

var (
	listSelectorStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}).Render
)

type Opponent int

const (
	Computer Opponent = iota
	Human
)

type Settings struct {
	Opponent Opponent
	// P is the human's stone when playing the computer.
	P tictactoe.Player
	// Cancelled is set when the screen was left without choosing.
	Cancelled bool
}

type choiceLevel int

const (
	choiceLevelOpponent choiceLevel = iota
	choiceLevelP
	choiceLevelDone
)

var choiceLabels = map[choiceLevel][]string{
	choiceLevelOpponent: {"Computer", "Human (hot seat)"},
	choiceLevelP:        {"X", "O"},
}

var choiceTitles = map[choiceLevel]string{
	choiceLevelOpponent: "Choose opponent:\n",
	choiceLevelP:        "Choose stone:\n",
}

type model struct {
	cursor      int
	choiceLevel choiceLevel
	header      string

	settings Settings

	clear bool
}

func (m model) GetSettings() Settings {
	return m.settings
}

func InitialModel(header string) *model {
	return &model{
		header: header,
		settings: Settings{
			P: tictactoe.P1,
		},
	}
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	choices := choiceLabels[m.choiceLevel]

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.clear = true
			m.settings.Cancelled = true
			return m, tea.Quit

		case "enter":
			switch m.choiceLevel {
			case choiceLevelOpponent:
				m.settings.Opponent = Opponent(m.cursor)
				if m.settings.Opponent == Human {
					m.choiceLevel = choiceLevelDone
				} else {
					m.choiceLevel++
				}
			case choiceLevelP:
				if m.cursor == 1 {
					m.settings.P = tictactoe.P2
				}
				m.choiceLevel++
			}

			if m.choiceLevel == choiceLevelDone {
				m.clear = true
				return m, tea.Quit
			}

			m.cursor = 0
			return m, nil

		case "down", "j":
			m.cursor++
			if m.cursor >= len(choices) {
				m.cursor = 0
			}

		case "up", "k":
			m.cursor--
			if m.cursor < 0 {
				m.cursor = len(choices) - 1
			}
		}
	}

	return m, nil
}

func (m *model) View() string {
	if m.clear {
		return ""
	}

	s := strings.Builder{}
	s.WriteString(m.header)
	s.WriteString(choiceTitles[m.choiceLevel])

	for i, label := range choiceLabels[m.choiceLevel] {
		if m.cursor == i {
			s.WriteString(listSelectorStyle("(•) "))
		} else {
			s.WriteString(listSelectorStyle("( ) "))
		}

		s.WriteString(label)
		s.WriteString("\n")
	}

	return s.String()
}
