package mcts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Zarux/qtictactoe/pkg/tictactoe"
)

func board(t *testing.T, s string) *tictactoe.Board {
	t.Helper()
	st, err := tictactoe.ParseState(s)
	require.NoError(t, err)
	return tictactoe.FromState(st)
}

func TestTakesTheWin(t *testing.T) {
	c := New(2, 500, WithSeed(1))
	b := board(t, "XX.OO....")

	move, err := c.GetNextMove(context.Background(), b, tictactoe.P1)
	require.NoError(t, err)
	require.Equal(t, 2, move)
	require.True(t, c.Stats().Tactical)
	require.Equal(t, "XX.OO....", b.State().String(), "the board is left untouched")
}

func TestBlocks(t *testing.T) {
	c := New(2, 500, WithSeed(1))

	move, err := c.GetNextMove(context.Background(), board(t, "OO..X...."), tictactoe.P1)
	require.NoError(t, err)
	require.Equal(t, 2, move)
}

func TestSearchPicksALegalMove(t *testing.T) {
	c := New(4, 2000, WithSeed(7), WithThinkTime(5*time.Second))
	b := board(t, "X...O....")

	move, err := c.GetNextMove(context.Background(), b, tictactoe.P1)
	require.NoError(t, err)
	require.Contains(t, b.LegalMoves(), move)

	stats := c.Stats()
	require.False(t, stats.Tactical)
	require.Equal(t, 8000, stats.NumIterations)
	require.Equal(t, move, stats.BestMove)
	require.Positive(t, stats.MoveVisits)
}

func TestNoMoves(t *testing.T) {
	c := New(1, 10)
	_, err := c.GetNextMove(context.Background(), board(t, "XXXOO...."), tictactoe.P2)
	require.ErrorIs(t, err, ErrNoMoves)
}
