package agentapi

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Zarux/qtictactoe/pkg/qlearning"
	"github.com/Zarux/qtictactoe/pkg/tictactoe"
)

var (
	ErrGameOver   = errors.New("game is already over")
	ErrBadPlayer  = errors.New("player must be X or O")
	ErrNoLearner  = errors.New("no agent plays that mark")
	ErrImpossible = errors.New("board cannot occur in play")
)

type botPlayer interface {
	SelectMove(state tictactoe.State, actions []int) (int, error)
	Values(state tictactoe.State, actions []int) []float64
	ResetTrace()
}

// Service answers move and value queries from greedy agents, one per mark.
// Engines are not safe for concurrent use, so every query holds the lock.
type Service struct {
	mu   sync.Mutex
	bots map[tictactoe.Player]botPlayer
}

// New takes the agent playing X and the agent playing O. Either may be nil.
func New(x, o *qlearning.Engine) *Service {
	s := &Service{bots: map[tictactoe.Player]botPlayer{}}
	if x != nil {
		s.bots[tictactoe.P1] = x
	}
	if o != nil {
		s.bots[tictactoe.P2] = o
	}

	return s
}

type ActionValue struct {
	Action int     `json:"action"`
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Value  float64 `json:"value"`
}

type MoveResult struct {
	Move    ActionValue   `json:"move"`
	Values  []ActionValue `json:"values"`
	Board   string        `json:"board"`
	Outcome string        `json:"outcome"`
	Winner  string        `json:"winner,omitempty"`
}

func ParsePlayer(s string) (tictactoe.Player, error) {
	switch s {
	case "X", "x":
		return tictactoe.P1, nil
	case "O", "o":
		return tictactoe.P2, nil
	}

	return tictactoe.Empty, fmt.Errorf("%w: got %q", ErrBadPlayer, s)
}

func (s *Service) bot(p tictactoe.Player) (botPlayer, error) {
	b, ok := s.bots[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoLearner, p.Mark())
	}

	return b, nil
}

// checkBoard rejects boards that cannot occur in play or are not p's turn.
func checkBoard(board *tictactoe.Board, p tictactoe.Player) error {
	var x, o int
	for _, c := range board.Cells {
		switch c {
		case tictactoe.P1:
			x++
		case tictactoe.P2:
			o++
		}
	}

	// Either side may move first, so the counts differ by at most one.
	if x-o > 1 || o-x > 1 {
		return fmt.Errorf("%w: %d X against %d O", ErrImpossible, x, o)
	}

	mine, theirs := x, o
	if p == tictactoe.P2 {
		mine, theirs = o, x
	}
	if mine > theirs {
		return fmt.Errorf("%w: %s already has an extra mark", ErrImpossible, p.Mark())
	}

	if board.Terminal() {
		return ErrGameOver
	}

	return nil
}

func (s *Service) QValues(ctx context.Context, state tictactoe.State, p tictactoe.Player) ([]ActionValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	board := tictactoe.FromState(state)
	if err := checkBoard(board, p); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bot(p)
	if err != nil {
		return nil, err
	}

	return actionValues(board, b.Values(state, board.LegalMoves())), nil
}

// Move picks the greedy move for p on state and returns the board after it.
func (s *Service) Move(ctx context.Context, state tictactoe.State, p tictactoe.Player) (MoveResult, error) {
	if err := ctx.Err(); err != nil {
		return MoveResult{}, err
	}

	board := tictactoe.FromState(state)
	if err := checkBoard(board, p); err != nil {
		return MoveResult{}, err
	}

	s.mu.Lock()
	b, err := s.bot(p)
	if err != nil {
		s.mu.Unlock()
		return MoveResult{}, err
	}

	actions := board.LegalMoves()
	values := b.Values(state, actions)
	move, err := b.SelectMove(state, actions)
	b.ResetTrace()
	s.mu.Unlock()
	if err != nil {
		return MoveResult{}, err
	}

	all := actionValues(board, values)
	res := MoveResult{Values: all}
	for _, av := range all {
		if av.Action == move {
			res.Move = av
		}
	}

	if err := board.ApplyMove(move, p); err != nil {
		return MoveResult{}, err
	}

	outcome := board.Evaluate()
	res.Board = board.State().String()
	res.Outcome = outcome.String()
	if outcome == tictactoe.Win {
		res.Winner = p.Mark()
	}

	return res, nil
}

func actionValues(board *tictactoe.Board, values []float64) []ActionValue {
	actions := board.LegalMoves()
	out := make([]ActionValue, len(actions))
	for i, a := range actions {
		m := board.GetMove(a)
		out[i] = ActionValue{Action: a, X: m.X, Y: m.Y, Value: values[i]}
	}

	return out
}
