package trainer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/Zarux/qtictactoe/pkg/tictactoe"
)

const (
	RewardWin  = 1.0
	RewardLoss = -1.0
	RewardStep = 0.0
)

var ErrNoGames = errors.New("games must be positive")

type Learner interface {
	SelectMove(state tictactoe.State, actions []int) (int, error)
	Update(state tictactoe.State, actions []int, reward float64) error
	HasTrace() bool
	ResetTrace()
	TableSize() int
}

type Agent struct {
	Name string
	Mark tictactoe.Player
	// Knowledge names the stored table the learner loads from and saves to.
	Knowledge string
	Learner   Learner
}

type WindowStats struct {
	// End is the number of games played when the window closed.
	End       int
	Games     int
	Wins      [2]int
	Draws     int
	TableSize [2]int
}

func (w WindowStats) WinRate(i int) float64 {
	if w.Games == 0 {
		return 0
	}
	return float64(w.Wins[i]) / float64(w.Games)
}

func (w WindowStats) DrawRate() float64 {
	if w.Games == 0 {
		return 0
	}
	return float64(w.Draws) / float64(w.Games)
}

type Stats struct {
	Games   int
	Wins    [2]int
	Draws   int
	Windows []WindowStats
}

type Option func(*Trainer)

func WithRand(r *rand.Rand) Option {
	return func(t *Trainer) {
		t.rng = r
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(t *Trainer) {
		t.logger = l
	}
}

// WithWindow sets how many games make up one stats window.
func WithWindow(games int) Option {
	return func(t *Trainer) {
		t.window = games
	}
}

func WithOnWindow(fn func(WindowStats)) Option {
	return func(t *Trainer) {
		t.onWindow = fn
	}
}

func WithOnGame(fn func(tictactoe.Player, tictactoe.Outcome)) Option {
	return func(t *Trainer) {
		t.onGame = fn
	}
}

type Trainer struct {
	agents   [2]*Agent
	rng      *rand.Rand
	logger   *slog.Logger
	window   int
	onWindow func(WindowStats)
	onGame   func(tictactoe.Player, tictactoe.Outcome)
}

func New(a, b *Agent, opts ...Option) (*Trainer, error) {
	if a == nil || b == nil || a.Learner == nil || b.Learner == nil {
		return nil, errors.New("two agents with learners are required")
	}

	if a.Mark == b.Mark || a.Mark == tictactoe.Empty || b.Mark == tictactoe.Empty {
		return nil, fmt.Errorf("agents need distinct marks, got %s and %s", a.Mark.Mark(), b.Mark.Mark())
	}

	t := &Trainer{
		agents: [2]*Agent{a, b},
		window: 1000,
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.rng == nil {
		t.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	if t.logger == nil {
		t.logger = slog.Default()
	}

	if t.window <= 0 {
		t.window = 1000
	}

	return t, nil
}

// Run plays games of self-play. It stops early with the context's error if
// the context is cancelled, returning the stats gathered so far.
func (t *Trainer) Run(ctx context.Context, games int) (Stats, error) {
	var stats Stats
	if games <= 0 {
		return stats, ErrNoGames
	}

	cur := WindowStats{}
	for g := range games {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		first := t.rng.IntN(2)
		winner, outcome, err := t.playGame(first)
		if err != nil {
			return stats, fmt.Errorf("game %d: %w", g+1, err)
		}

		stats.Games++
		cur.Games++
		switch outcome {
		case tictactoe.Win:
			i := t.index(winner)
			stats.Wins[i]++
			cur.Wins[i]++
		case tictactoe.Draw:
			stats.Draws++
			cur.Draws++
		}

		if t.onGame != nil {
			t.onGame(winner, outcome)
		}

		if cur.Games == t.window || g == games-1 {
			cur.End = stats.Games
			cur.TableSize = [2]int{t.agents[0].Learner.TableSize(), t.agents[1].Learner.TableSize()}
			stats.Windows = append(stats.Windows, cur)

			t.logger.Debug("training window",
				slog.Int("games", stats.Games),
				slog.Float64(t.agents[0].Name+"_win_rate", cur.WinRate(0)),
				slog.Float64(t.agents[1].Name+"_win_rate", cur.WinRate(1)),
				slog.Float64("draw_rate", cur.DrawRate()),
			)

			if t.onWindow != nil {
				t.onWindow(cur)
			}
			cur = WindowStats{}
		}
	}

	return stats, nil
}

func (t *Trainer) index(p tictactoe.Player) int {
	if t.agents[0].Mark == p {
		return 0
	}
	return 1
}

// playGame plays one game from an empty board with agents[first] moving
// first. It returns the winning mark, or Empty for a draw.
func (t *Trainer) playGame(first int) (tictactoe.Player, tictactoe.Outcome, error) {
	for _, a := range t.agents {
		a.Learner.ResetTrace()
	}

	board := tictactoe.NewBoard()
	turn := first
	for {
		mover := t.agents[turn]
		other := t.agents[1-turn]

		state := board.State()
		move, err := mover.Learner.SelectMove(state, board.LegalMoves())
		if err != nil {
			return tictactoe.Empty, tictactoe.Ongoing, fmt.Errorf("%s select: %w", mover.Name, err)
		}

		if err := board.ApplyMove(move, mover.Mark); err != nil {
			return tictactoe.Empty, tictactoe.Ongoing, fmt.Errorf("%s move: %w", mover.Name, err)
		}

		next := board.State()
		outcome := board.Evaluate()
		switch outcome {
		case tictactoe.Win:
			if err := t.update(mover, next, nil, RewardWin); err != nil {
				return tictactoe.Empty, outcome, err
			}
			if err := t.update(other, next, nil, RewardLoss); err != nil {
				return tictactoe.Empty, outcome, err
			}
			return mover.Mark, outcome, nil

		case tictactoe.Draw:
			reward := outcome.Reward()
			if err := t.update(mover, next, nil, reward); err != nil {
				return tictactoe.Empty, outcome, err
			}
			if err := t.update(other, next, nil, reward); err != nil {
				return tictactoe.Empty, outcome, err
			}
			return tictactoe.Empty, outcome, nil
		}

		// The opponent's previous move is scored from the state it now
		// has to answer.
		if err := t.update(other, next, board.LegalMoves(), RewardStep); err != nil {
			return tictactoe.Empty, outcome, err
		}

		turn = 1 - turn
	}
}

func (t *Trainer) update(a *Agent, state tictactoe.State, actions []int, reward float64) error {
	if !a.Learner.HasTrace() {
		return nil
	}

	if err := a.Learner.Update(state, actions, reward); err != nil {
		return fmt.Errorf("%s update: %w", a.Name, err)
	}

	return nil
}
