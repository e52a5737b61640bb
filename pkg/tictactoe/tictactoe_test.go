package tictactoe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustState(t *testing.T, s string) State {
	t.Helper()
	st, err := ParseState(s)
	require.NoError(t, err)
	return st
}

func TestParseState(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		st := mustState(t, "X.O..X..O")
		require.Equal(t, "X.O..X..O", st.String())
		require.Equal(t, P1, st[0])
		require.Equal(t, P2, st[2])
		require.Equal(t, Empty, st[1])
	})

	t.Run("rejects bad length", func(t *testing.T) {
		_, err := ParseState("X.O")
		require.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("rejects bad cell", func(t *testing.T) {
		_, err := ParseState("X.O..Z..O")
		require.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestStateIsComparableKey(t *testing.T) {
	a := mustState(t, "X...O....")
	b := NewBoard()
	require.NoError(t, b.ApplyMove(0, P1))
	require.NoError(t, b.ApplyMove(4, P2))

	m := map[State]int{a: 7}
	require.Equal(t, 7, m[b.State()])
}

func TestApplyMove(t *testing.T) {
	b := NewBoard()
	require.NoError(t, b.ApplyMove(4, P1))
	require.Equal(t, 4, b.LastMove)
	require.Equal(t, 1, b.Turn)

	require.ErrorIs(t, b.ApplyMove(4, P2), ErrIllegalMove)
	require.ErrorIs(t, b.ApplyMove(9, P2), ErrIllegalMove)
	require.ErrorIs(t, b.ApplyMove(-1, P2), ErrIllegalMove)
	require.ErrorIs(t, b.ApplyMove(0, Empty), ErrIllegalMove)

	b.UndoMove(4)
	require.Equal(t, Empty, b.Cells[4])
	require.Equal(t, 0, b.Turn)
}

func TestLegalMoves(t *testing.T) {
	b := FromState(mustState(t, "XO.X.O..."))
	require.Equal(t, []int{2, 4, 6, 7, 8}, b.LegalMoves())
	require.Equal(t, 4, b.Turn)
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		state   string
		outcome Outcome
		winner  Player
	}{
		{"empty board", ".........", Ongoing, Empty},
		{"row", "XXXOO....", Win, P1},
		{"column", "OX.OX.O..", Win, P2},
		{"diagonal", "X.O.XO..X", Win, P1},
		{"anti diagonal", "X.O.OXO.X", Win, P2},
		{"draw", "XOXXOOOXX", Draw, Empty},
		{"ongoing", "XOXXOO.X.", Ongoing, Empty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := FromState(mustState(t, tt.state))
			require.Equal(t, tt.outcome, b.Evaluate())
			require.Equal(t, tt.winner, b.CheckWinner())
		})
	}
}

func TestOutcomeReward(t *testing.T) {
	require.Equal(t, 0.0, Ongoing.Reward())
	require.Equal(t, 1.0, Win.Reward())
	require.Equal(t, 0.5, Draw.Reward())
}

func TestWinningLine(t *testing.T) {
	b := FromState(mustState(t, "OX.OX..X."))
	require.Equal(t, []int{1, 4, 7}, b.WinningLine(P1))
	require.Nil(t, b.WinningLine(P2))
}

func TestCloneIsIndependent(t *testing.T) {
	b := NewBoard()
	c := b.Clone()
	require.NoError(t, c.ApplyMove(0, P1))
	require.Equal(t, Empty, b.Cells[0])
}

func TestGamePlay(t *testing.T) {
	g := NewGame(P2)
	require.NoError(t, g.Play(4, P2))
	require.ErrorIs(t, g.Play(0, P2), ErrIllegalMove, "O just moved")
	require.ErrorIs(t, g.Play(4, P1), ErrIllegalMove, "cell is taken")

	for _, m := range []struct {
		idx int
		p   Player
	}{{0, P1}, {3, P2}, {1, P1}, {5, P2}} {
		require.NoError(t, g.Play(m.idx, m.p))
	}
	require.Equal(t, Win, g.Board.Evaluate())
	require.ErrorIs(t, g.Play(2, P1), ErrIllegalMove, "game is over")
	require.Equal(t, []int{4, 0, 3, 1, 5}, g.Moves)
}

func TestGameSaveLoad(t *testing.T) {
	g := NewGame(P1)
	require.NoError(t, g.Play(0, P1))
	require.NoError(t, g.Play(4, P2))

	data, err := g.Save()
	require.NoError(t, err)

	loaded, err := LoadGame(data)
	require.NoError(t, err)
	require.Equal(t, g.Board.Cells, loaded.Board.Cells)
	require.Equal(t, []int{0, 4}, loaded.Moves)
	require.Equal(t, P1, loaded.Next)
	require.Equal(t, 2, loaded.Board.Turn)
	require.Equal(t, 4, loaded.Board.LastMove)
}

func TestLoadGameRejectsBadReplays(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no first mover", `{"moves":[0]}`},
		{"repeated cell", `{"first":1,"moves":[0,0]}`},
		{"out of range", `{"first":-1,"moves":[9]}`},
		{"board disagrees", `{"first":1,"moves":[0],"board":{"cells":[0,1,0,0,0,0,0,0,0]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadGame([]byte(tt.data))
			require.ErrorIs(t, err, ErrInvalidState)
		})
	}

	_, err := LoadGame([]byte("{"))
	require.Error(t, err)
}
