// Package qlearning implements a tabular Q-learning engine for tic-tac-toe
// with a single-step TD(0) trace.
//
// An Engine is not safe for concurrent use. Each agent owns its own engine
// and table.
package qlearning

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/Zarux/qtictactoe/pkg/tictactoe"
)

var (
	ErrNoLegalActions = errors.New("no legal actions")
	ErrNoTrace        = errors.New("update without a selected move")
	ErrInvalidConfig  = errors.New("invalid config")
)

type Config struct {
	// ExplorationRate is the probability of picking a uniformly random
	// legal action instead of the greedy one.
	ExplorationRate float64 `yaml:"exploration_rate" json:"explorationRate"`
	LearningRate    float64 `yaml:"learning_rate" json:"learningRate"`
	DiscountFactor  float64 `yaml:"discount_factor" json:"discountFactor"`
	// DefaultValue is read for every pair that was never written.
	DefaultValue float64 `yaml:"default_value" json:"defaultValue"`
}

func DefaultConfig() Config {
	return Config{
		ExplorationRate: 0.1,
		LearningRate:    0.3,
		DiscountFactor:  0.3,
		DefaultValue:    1.0,
	}
}

func (c Config) Validate() error {
	if c.ExplorationRate < 0 || c.ExplorationRate > 1 {
		return fmt.Errorf("%w: exploration rate %v not in [0,1]", ErrInvalidConfig, c.ExplorationRate)
	}

	if c.LearningRate <= 0 || c.LearningRate > 1 {
		return fmt.Errorf("%w: learning rate %v not in (0,1]", ErrInvalidConfig, c.LearningRate)
	}

	if c.DiscountFactor < 0 || c.DiscountFactor > 1 {
		return fmt.Errorf("%w: discount factor %v not in [0,1]", ErrInvalidConfig, c.DiscountFactor)
	}

	return nil
}

// Trace is the most recently selected (state, action, value) awaiting an
// update.
type Trace struct {
	State  tictactoe.State
	Action int
	Value  float64
}

// Observer receives engine events, typically to feed metrics.
type Observer interface {
	MoveSelected(explored bool)
	Updated(tdError float64)
}

type Option func(*Engine)

func WithConfig(c Config) Option {
	return func(e *Engine) {
		e.config = c
	}
}

func WithExplorationRate(rate float64) Option {
	return func(e *Engine) {
		e.config.ExplorationRate = rate
	}
}

func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = r
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

type Engine struct {
	config   Config
	table    *Table
	trace    *Trace
	rng      *rand.Rand
	logger   *slog.Logger
	observer Observer
}

func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		config: DefaultConfig(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if err := e.config.Validate(); err != nil {
		return nil, err
	}

	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	e.table = NewTable(e.config.DefaultValue)

	return e, nil
}

func (e *Engine) Config() Config {
	return e.config
}

func (e *Engine) Table() *Table {
	return e.table
}

func (e *Engine) TableSize() int {
	return e.table.Len()
}

func (e *Engine) Value(state tictactoe.State, action int) float64 {
	return e.table.Get(state, action)
}

// Values returns the value of every action at state, in the order given.
func (e *Engine) Values(state tictactoe.State, actions []int) []float64 {
	values := make([]float64, len(actions))
	for i, a := range actions {
		values[i] = e.table.Get(state, a)
	}

	return values
}

// SelectMove picks an action epsilon-greedily and records it as the trace.
func (e *Engine) SelectMove(state tictactoe.State, actions []int) (int, error) {
	if len(actions) == 0 {
		return -1, ErrNoLegalActions
	}

	var move int
	explored := e.rng.Float64() < e.config.ExplorationRate
	if explored {
		move = actions[e.rng.IntN(len(actions))]
	} else {
		move = e.greedy(state, actions)
	}

	e.trace = &Trace{
		State:  state,
		Action: move,
		Value:  e.table.Get(state, move),
	}

	if e.observer != nil {
		e.observer.MoveSelected(explored)
	}

	return move, nil
}

// greedy returns a best-valued action, breaking ties uniformly at random.
func (e *Engine) greedy(state tictactoe.State, actions []int) int {
	best := make([]int, 0, len(actions))
	bestVal := 0.0
	for i, a := range actions {
		v := e.table.Get(state, a)
		switch {
		case i == 0 || v > bestVal:
			best = append(best[:0], a)
			bestVal = v
		case v == bestVal:
			best = append(best, a)
		}
	}

	return best[e.rng.IntN(len(best))]
}

// Update applies the TD(0) rule to the trace using the best value reachable
// from state, then clears the trace. Pass no actions for a terminal state.
func (e *Engine) Update(state tictactoe.State, actions []int, reward float64) error {
	if e.trace == nil {
		return ErrNoTrace
	}

	nextMax := e.table.MaxOver(state, actions)
	tdError := (reward + e.config.DiscountFactor*nextMax) - e.trace.Value
	e.table.Set(e.trace.State, e.trace.Action, e.trace.Value+e.config.LearningRate*tdError)
	e.trace = nil

	if e.observer != nil {
		e.observer.Updated(tdError)
	}

	return nil
}

func (e *Engine) HasTrace() bool {
	return e.trace != nil
}

// Trace returns a copy of the pending trace.
func (e *Engine) Trace() (Trace, bool) {
	if e.trace == nil {
		return Trace{}, false
	}

	return *e.trace, true
}

func (e *Engine) ResetTrace() {
	e.trace = nil
}
