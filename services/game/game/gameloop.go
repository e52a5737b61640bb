package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zarux/qtictactoe/pkg/tictactoe"
)

type MoveStats struct {
	BestMove   int
	Value      float64
	Considered int
	// Known is false when the move was chosen on the default value alone.
	Known bool
}

type Bot interface {
	GetNextMove(context.Context, *tictactoe.Board, tictactoe.Player) (int, error)
	Stats() *MoveStats
}

type model struct {
	game          *tictactoe.Game
	board         *tictactoe.Board
	cursor        int
	currentPlayer tictactoe.Player
	botPlayer     tictactoe.Player
	bot           Bot
	spinner       spinner.Model
	sub           chan botDoneMsg
	header        string

	gameOver bool
	winner   tictactoe.Player
	err      error
	Replay   bool
}

func (m model) Init() tea.Cmd {
	if m.bot != nil && m.botPlayer == m.currentPlayer {
		return tea.Batch(m.beginTick(), waitForBot(m.sub), m.botMove(context.Background(), m.sub))
	}

	return nil
}

var (
	p1Style              = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#007e50ff", Dark: "#6afd76ff"}).Render
	p2Style              = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#0003adff", Dark: "#5f61fcff"}).Render
	cursorStyle          = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#960000ff", Dark: "#fc7e7eff"}).Render
	winningRowStyle      = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#bb0000ff", Dark: "#df1010ff"}).Render
	lastWinningRowStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#f80000ff", Dark: "#f18787ff"}).Render
	bracketStyle         = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#414141ff", Dark: "#8f8f8fff"}).Render
	lastMoveBracketStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000ff", Dark: "#ffffffff"}).Render
	statStyle1           = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#8a880fff", Dark: "#ddda1dff"}).Render
	statStyle2           = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#138a0fff", Dark: "#1ddd37ff"}).Render
)

var thinkingColors = []func(strs ...string) string{
	bracketStyle,
	lastMoveBracketStyle,
}

// InitialModel continues g from whoever is on move. A nil bot means two
// humans share the keyboard.
func InitialModel(header string, g *tictactoe.Game, bot Bot, playerStone tictactoe.Player) *model {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := &model{
		game:          g,
		board:         g.Board,
		currentPlayer: g.Next,
		botPlayer:     -playerStone,
		bot:           bot,
		spinner:       s,
		sub:           make(chan botDoneMsg),
		Replay:        false,
		header:        header,
	}

	if bot == nil {
		m.botPlayer = tictactoe.Empty
	}

	legal := g.Board.LegalMoves()
	if len(legal) > 0 {
		m.cursor = legal[0]
	}

	return m
}

// Result reports the finished game: the winner, or Empty with draw set.
func (m model) Result() (winner tictactoe.Player, draw, over bool) {
	return m.winner, m.gameOver && m.winner == tictactoe.Empty, m.gameOver
}

func (m model) Err() error {
	return m.err
}

// Game returns the game with every move played so far.
func (m model) Game() *tictactoe.Game {
	return m.game
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case botDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}

		if msg.draw {
			m.gameOver = true
			m.winner = tictactoe.Empty
			return m, nil
		}

		if msg.winner != tictactoe.Empty {
			m.gameOver = true
			m.winner = msg.winner
			return m, nil
		}

		m.cursor = msg.cursor
		m.currentPlayer = -m.currentPlayer
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "right", "l":
			cursor, _ := m.moveRight()
			m.cursor = cursor
		case "left", "h":
			cursor, _ := m.moveLeft()
			m.cursor = cursor
		case "up", "k":
			m.cursor = m.moveVertical(-tictactoe.N)
		case "down", "j":
			m.cursor = m.moveVertical(tictactoe.N)
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			idx := int(msg.String()[0] - '1')
			if m.board.Cells[idx] == tictactoe.Empty {
				m.cursor = idx
			}
		case "enter", " ":
			if m.gameOver {
				m.Replay = true
				return m, tea.Quit
			}

			if m.bot != nil && m.currentPlayer == m.botPlayer {
				return m, nil
			}

			if m.cursor < 0 || m.board.Cells[m.cursor] != tictactoe.Empty {
				return m, nil
			}

			newCursor, winner := m.playerMove(m.cursor, m.currentPlayer)
			if winner == m.currentPlayer {
				m.gameOver = true
				m.winner = m.currentPlayer
				return m, nil
			}

			if !m.board.AnyLegalMoves() {
				m.gameOver = true
				m.winner = tictactoe.Empty
				return m, nil
			}

			m.cursor = newCursor
			m.currentPlayer = -m.currentPlayer

			if m.bot == nil {
				return m, nil
			}

			return m, tea.Batch(m.beginTick(), waitForBot(m.sub), m.botMove(context.Background(), m.sub))
		}

	default:
		if m.gameOver {
			m.cursor = -1
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// playerMove assumes move is legal. It returns where the cursor should go
// next and the winner, if any.
func (m model) playerMove(move int, p tictactoe.Player) (int, tictactoe.Player) {
	if err := m.game.Play(move, p); err != nil {
		return m.cursor, tictactoe.Empty
	}

	winner := m.board.CheckWinner()

	if m.cursor != move {
		return m.cursor, winner
	}

	cursor, rOk := m.moveRight()
	if rOk {
		return cursor, winner
	}

	cursor, lOk := m.moveLeft()
	if lOk {
		return cursor, winner
	}

	return -1, winner
}

type botDoneMsg struct {
	cursor int
	winner tictactoe.Player
	draw   bool
	err    error
}

func waitForBot(sub chan botDoneMsg) tea.Cmd {
	return func() tea.Msg {
		return botDoneMsg(<-sub)
	}
}

func (m model) beginTick() tea.Cmd {
	return func() tea.Msg {
		return m.spinner.Tick()
	}
}

func (m model) botMove(ctx context.Context, sub chan botDoneMsg) tea.Cmd {
	return func() tea.Msg {
		nextMove, err := m.bot.GetNextMove(ctx, m.board, m.botPlayer)
		if err != nil {
			sub <- botDoneMsg{err: err}
			return nil
		}

		if m.board.Cells[nextMove] != tictactoe.Empty {
			sub <- botDoneMsg{err: fmt.Errorf("bot picked taken cell %d", nextMove)}
			return nil
		}

		cursor, winner := m.playerMove(nextMove, m.botPlayer)
		sub <- botDoneMsg{
			cursor: cursor,
			winner: winner,
			draw:   !m.board.AnyLegalMoves() && winner == tictactoe.Empty,
		}

		return nil
	}
}

func (m model) moveRight() (int, bool) {
	oCursor := m.cursor

	if m.cursor >= 0 && m.cursor < len(m.board.Cells)-1 {
		m.cursor++
		for {
			if m.cursor > len(m.board.Cells)-1 {
				return oCursor, false
			}

			if m.board.Cells[m.cursor] == tictactoe.Empty {
				break
			}

			m.cursor++
		}
	}

	return m.cursor, m.cursor != oCursor
}

func (m model) moveLeft() (int, bool) {
	oCursor := m.cursor

	if m.cursor > 0 {
		m.cursor--
		for {
			if m.cursor < 0 {
				return oCursor, false
			}

			if m.board.Cells[m.cursor] == tictactoe.Empty {
				break
			}

			m.cursor--
		}
	}

	return m.cursor, m.cursor != oCursor
}

// moveVertical steps by a whole row until an empty cell, staying put when
// there is none in that direction.
func (m model) moveVertical(step int) int {
	if m.cursor < 0 {
		return m.cursor
	}

	for c := m.cursor + step; c >= 0 && c < len(m.board.Cells); c += step {
		if m.board.Cells[c] == tictactoe.Empty {
			return c
		}
	}

	return m.cursor
}

func styleMark(p tictactoe.Player) string {
	switch p {
	case tictactoe.P1:
		return p1Style(p.Mark())
	case tictactoe.P2:
		return p2Style(p.Mark())
	}

	return p.Mark()
}

func (m model) View() string {
	if m.gameOver && m.Replay {
		return ""
	}

	var highlights []int
	if m.gameOver && m.winner != tictactoe.Empty {
		highlights = m.board.WinningLine(m.winner)
	}

	s := m.header

	botTurn := m.bot != nil && m.currentPlayer == m.botPlayer && !m.gameOver

	s += "Current player: " + styleMark(m.currentPlayer)

	if botTurn {
		s += " (bot) " + m.spinner.View()
	}

	s += "\n"

	for i, p := range m.board.Cells {
		mark := p.Mark()
		if m.cursor == i {
			mark = cursorStyle("*")
		}

		if botTurn && p == tictactoe.Empty {
			mark = []string{"o", "x", " ", " "}[rand.N(4)]
			mark = thinkingColors[rand.IntN(len(thinkingColors))](mark)
		}

		if p != tictactoe.Empty {
			mark = styleMark(p)
		}

		bStyle := bracketStyle
		winningRow := slices.Contains(highlights, i)

		if winningRow {
			bStyle = winningRowStyle
		}

		if m.board.Turn > 0 && m.board.LastMove == i && p != tictactoe.Empty {
			bStyle = lastMoveBracketStyle
			if winningRow {
				bStyle = lastWinningRowStyle
			}
		}

		s += fmt.Sprintf("%s%s%s", bStyle("["), mark, bStyle("]"))
		if (i+1)%tictactoe.N == 0 {
			s += "\n"
		}
	}

	if m.bot != nil {
		if stats := m.bot.Stats(); stats != nil && m.currentPlayer != m.botPlayer {
			mv := m.board.GetMove(stats.BestMove)
			known := statStyle2("learned")
			if !stats.Known {
				known = cursorStyle("unseen")
			}
			s += fmt.Sprintf(
				"\nBot played: %s\nQ-value: %s (%s) over %s legal moves\n",
				statStyle1(fmt.Sprintf("(%d, %d)", mv.X+1, mv.Y+1)),
				statStyle2(fmt.Sprintf("%.4f", stats.Value)),
				known,
				statStyle1(fmt.Sprint(stats.Considered)),
			)
		}
	}

	if m.gameOver {
		s += "\n" + gameOverText

		s += "\nTHE WINNER IS: "
		if m.winner == tictactoe.Empty {
			s += cursorStyle("NO ONE\n")
			s += "\nenter: play again, q: quit\n"
			return s
		}

		s += styleMark(m.winner) + "\n"
		s += "\nenter: play again, q: quit\n"
		return s
	}

	return s
}

const gameOverText = `ＧＡＭＥ ＯＶＥＲ`
