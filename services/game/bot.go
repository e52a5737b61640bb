package game

import (
	"context"
	"fmt"

	"github.com/Zarux/qtictactoe/pkg/qlearning"
	"github.com/Zarux/qtictactoe/pkg/tictactoe"
	"github.com/Zarux/qtictactoe/services/game/game"
)

// QBot plays greedily from a learned table without learning from the game.
type QBot struct {
	engine *qlearning.Engine
	stats  *game.MoveStats
}

// NewQBot wraps engine, forcing greedy play.
func NewQBot(opts ...qlearning.Option) (*QBot, error) {
	opts = append(opts, qlearning.WithExplorationRate(0))
	e, err := qlearning.New(opts...)
	if err != nil {
		return nil, err
	}

	return &QBot{engine: e}, nil
}

func (b *QBot) Engine() *qlearning.Engine {
	return b.engine
}

func (b *QBot) GetNextMove(ctx context.Context, board *tictactoe.Board, p tictactoe.Player) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}

	state := board.State()
	actions := board.LegalMoves()
	move, err := b.engine.SelectMove(state, actions)
	if err != nil {
		return -1, fmt.Errorf("bot %s: %w", p.Mark(), err)
	}
	b.engine.ResetTrace()

	_, known := b.engine.Table().Lookup(state, move)
	b.stats = &game.MoveStats{
		BestMove:   move,
		Value:      b.engine.Value(state, move),
		Considered: len(actions),
		Known:      known,
	}

	return move, nil
}

func (b *QBot) Stats() *game.MoveStats {
	return b.stats
}
