package trainer

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/Zarux/qtictactoe/pkg/tictactoe"
)

// Opponent is a fixed player the agent is measured against.
type Opponent interface {
	GetNextMove(context.Context, *tictactoe.Board, tictactoe.Player) (int, error)
}

type EvalStats struct {
	Games  int
	Wins   int
	Losses int
	Draws  int
}

func (e EvalStats) String() string {
	return fmt.Sprintf("%d games: %d won, %d lost, %d drawn", e.Games, e.Wins, e.Losses, e.Draws)
}

// Evaluate plays games between agent and opp without learning. The first
// mover is drawn at random for every game.
func Evaluate(ctx context.Context, agent *Agent, opp Opponent, games int, rng *rand.Rand) (EvalStats, error) {
	var stats EvalStats
	if games <= 0 {
		return stats, ErrNoGames
	}

	for range games {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		board := tictactoe.NewBoard()
		current := agent.Mark
		if rng.IntN(2) == 1 {
			current = -agent.Mark
		}

		for !board.Terminal() {
			var (
				move int
				err  error
			)
			if current == agent.Mark {
				move, err = agent.Learner.SelectMove(board.State(), board.LegalMoves())
				agent.Learner.ResetTrace()
			} else {
				move, err = opp.GetNextMove(ctx, board, current)
			}
			if err != nil {
				return stats, err
			}

			if err := board.ApplyMove(move, current); err != nil {
				return stats, err
			}
			current = -current
		}

		stats.Games++
		switch board.CheckWinner() {
		case agent.Mark:
			stats.Wins++
		case tictactoe.Empty:
			stats.Draws++
		default:
			stats.Losses++
		}
	}

	return stats, nil
}
