package progress

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/Zarux/qtictactoe/services/trainer"
)

func TestModel(t *testing.T) {
	m := New([2]string{"first", "second"}, 1000)
	require.Contains(t, m.View(), "0/1000")

	m.Update(WindowMsg(trainer.WindowStats{End: 500, Games: 500, Wins: [2]int{250, 100}, Draws: 150, TableSize: [2]int{40, 30}}))
	v := m.View()
	require.Contains(t, v, "500/1000")
	require.Contains(t, v, "first wins")
	require.Contains(t, v, "50.0%")
	require.Contains(t, v, "30.0%")

	_, cmd := m.Update(DoneMsg{Err: errors.New("boom")})
	require.NotNil(t, cmd)
	require.Contains(t, m.View(), "boom")
	require.False(t, m.Aborted())
}

func TestQuit(t *testing.T) {
	m := New([2]string{"a", "b"}, 10)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.True(t, m.Aborted())
}
