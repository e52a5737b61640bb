package game

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/Zarux/qtictactoe/pkg/tictactoe"
)

type fixedBot struct {
	moves []int
	next  int
}

func (b *fixedBot) GetNextMove(context.Context, *tictactoe.Board, tictactoe.Player) (int, error) {
	m := b.moves[b.next]
	b.next++
	return m, nil
}

func (b *fixedBot) Stats() *MoveStats {
	if b.next == 0 {
		return nil
	}
	return &MoveStats{BestMove: b.moves[b.next-1], Value: 0.5, Considered: 3, Known: true}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestHotSeatWin(t *testing.T) {
	m := InitialModel("", tictactoe.NewGame(tictactoe.P1), nil, tictactoe.P1)

	// X: 1 2 3 top row, O: 4 5 middle row
	for _, k := range []string{"1", "enter", "4", "enter", "2", "enter", "5", "enter", "3", "enter"} {
		m.Update(key(k))
	}

	winner, draw, over := m.Result()
	require.True(t, over)
	require.False(t, draw)
	require.Equal(t, tictactoe.P1, winner)
	require.Contains(t, m.View(), "THE WINNER IS")

	require.Equal(t, []int{0, 3, 1, 4, 2}, m.Game().Moves)

	m.Update(key("enter"))
	require.True(t, m.Replay)
}

func TestTakenCellIsIgnored(t *testing.T) {
	m := InitialModel("", tictactoe.NewGame(tictactoe.P2), nil, tictactoe.P1)
	m.Update(key("5"))
	m.Update(key("enter"))
	require.Equal(t, tictactoe.P2, m.board.Cells[4])
	require.Equal(t, tictactoe.P1, m.currentPlayer)

	m.Update(key("5"))
	require.NotEqual(t, 4, m.cursor)
}

func TestCursorSkipsTakenCells(t *testing.T) {
	g := tictactoe.NewGame(tictactoe.P1)
	require.NoError(t, g.Play(1, tictactoe.P1))
	require.NoError(t, g.Play(3, tictactoe.P2))

	m := InitialModel("", g, nil, tictactoe.P1)
	require.Equal(t, 0, m.cursor)

	m.Update(key("right"))
	require.Equal(t, 2, m.cursor)

	m.cursor = 0
	m.Update(key("down"))
	require.Equal(t, 6, m.cursor)
}

func TestBotMove(t *testing.T) {
	bot := &fixedBot{moves: []int{4}}
	m := InitialModel("", tictactoe.NewGame(tictactoe.P2), bot, tictactoe.P1)

	sub := make(chan botDoneMsg, 1)
	m.botMove(context.Background(), sub)()
	m.Update(<-sub)

	require.Equal(t, tictactoe.P2, m.board.Cells[4])
	require.Equal(t, tictactoe.P1, m.currentPlayer)
	require.Contains(t, m.View(), "Bot played")
}

func TestBotCannotMoveOnHumanTurn(t *testing.T) {
	bot := &fixedBot{moves: []int{4}}
	m := InitialModel("", tictactoe.NewGame(tictactoe.P1), bot, tictactoe.P2)

	m.Update(key("enter"))
	require.Equal(t, tictactoe.Empty, m.board.Cells[0], "the bot is X and on move")
}
