// Package mcts is a Monte Carlo tree search player used as a fixed sparring
// opponent when evaluating learned agents.
package mcts

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/Zarux/qtictactoe/pkg/tictactoe"
)

var ErrNoMoves = errors.New("no legal moves")

type LastMoveStats struct {
	ThinkTime     time.Duration
	NumIterations int
	BestMove      int
	MoveVisits    int
	MoveWins      float64
	// Tactical is set when the move was an immediate win or block and no
	// search ran.
	Tactical bool
}

type Client struct {
	explorationParam float64
	workers          int
	iterations       int
	thinkTime        time.Duration
	seed             uint64

	mu            sync.Mutex
	calls         uint64
	lastMoveStats *LastMoveStats
}

type Option func(*Client)

func WithExplorationParam(c float64) Option {
	return func(cl *Client) {
		cl.explorationParam = c
	}
}

func WithThinkTime(t time.Duration) Option {
	return func(cl *Client) {
		cl.thinkTime = t
	}
}

// WithSeed makes searches repeatable.
func WithSeed(seed uint64) Option {
	return func(cl *Client) {
		cl.seed = seed
	}
}

func New(workers, iterationsPerWorker int, opts ...Option) *Client {
	c := &Client{
		explorationParam: 1.414,
		workers:          max(1, workers),
		iterations:       max(1, iterationsPerWorker),
		thinkTime:        time.Second,
		seed:             rand.Uint64(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Stats() *LastMoveStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastMoveStats
}

type workerResult struct {
	numIters int
	visits   map[int]*node
}

func (c *Client) GetNextMove(ctx context.Context, rootBoard *tictactoe.Board, player tictactoe.Player) (int, error) {
	legal := rootBoard.LegalMoves()
	if len(legal) == 0 || rootBoard.Terminal() {
		return -1, ErrNoMoves
	}

	c.mu.Lock()
	c.calls++
	call := c.calls
	c.mu.Unlock()

	start := time.Now()
	if move, ok := forcedMove(rootBoard, player); ok {
		c.setStats(&LastMoveStats{ThinkTime: time.Since(start), BestMove: move, Tactical: true})
		return move, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.thinkTime)
	defer cancel()

	results := make(chan workerResult, c.workers)
	var wg sync.WaitGroup
	wg.Add(c.workers)
	for w := range c.workers {
		go func() {
			defer wg.Done()

			rng := rand.New(rand.NewPCG(c.seed^call, uint64(w)))
			root := &node{UntriedMoves: rootBoard.LegalMoves(), Player: -player}
			numIters := c.search(ctx, rng, root, rootBoard, player)

			visits := make(map[int]*node, len(root.Children))
			for _, ch := range root.Children {
				visits[ch.Move] = ch
			}
			results <- workerResult{numIters: numIters, visits: visits}
		}()
	}

	wg.Wait()
	close(results)

	totalIters := 0
	totalVisits := map[int]int{}
	totalWins := map[int]float64{}
	for r := range results {
		totalIters += r.numIters
		for move, n := range r.visits {
			totalVisits[move] += n.Visits
			totalWins[move] += n.Wins
		}
	}

	// Ascending scan keeps ties deterministic.
	bestMove, bestVisits := legal[0], -1
	for _, move := range legal {
		if v := totalVisits[move]; v > bestVisits {
			bestMove, bestVisits = move, v
		}
	}

	c.setStats(&LastMoveStats{
		ThinkTime:     time.Since(start),
		NumIterations: totalIters,
		BestMove:      bestMove,
		MoveVisits:    bestVisits,
		MoveWins:      totalWins[bestMove],
	})

	return bestMove, nil
}

func (c *Client) setStats(s *LastMoveStats) {
	c.mu.Lock()
	c.lastMoveStats = s
	c.mu.Unlock()
}

func (c *Client) search(ctx context.Context, rng *rand.Rand, root *node, rootBoard *tictactoe.Board, player tictactoe.Player) int {
	iterationsDone := 0
	for range c.iterations {
		if ctx.Err() != nil {
			break
		}

		board := rootBoard.Clone()
		n := root
		current := player

		// Selection
		for len(n.UntriedMoves) == 0 && len(n.Children) > 0 {
			n = n.selectChild(c.explorationParam)
			_ = board.ApplyMove(n.Move, current)
			current = -current
		}

		// Expansion
		if len(n.UntriedMoves) > 0 && !board.Terminal() {
			n = n.expand(rng, board, current)
			current = -current
		}

		// Simulation
		winner := rollout(rng, board, current)

		// Backprop
		n.backpropagate(winner)

		iterationsDone++
	}

	return iterationsDone
}

func rollout(rng *rand.Rand, board *tictactoe.Board, player tictactoe.Player) tictactoe.Player {
	current := player

	for {
		if winner := board.CheckWinner(); winner != tictactoe.Empty {
			return winner
		}

		legal := board.LegalMoves()
		if len(legal) == 0 {
			return tictactoe.Empty
		}

		move, ok := forcedMove(board, current)
		if !ok {
			move = legal[rng.IntN(len(legal))]
		}
		_ = board.ApplyMove(move, current)
		current = -current
	}
}

// forcedMove returns a move that wins at once, or else one that blocks the
// opponent's immediate win.
func forcedMove(board *tictactoe.Board, player tictactoe.Player) (int, bool) {
	board = board.Clone()
	legal := board.LegalMoves()
	for _, p := range []tictactoe.Player{player, -player} {
		for _, m := range legal {
			_ = board.ApplyMove(m, p)
			won := board.CheckWinner() == p
			board.UndoMove(m)
			if won {
				return m, true
			}
		}
	}

	return -1, false
}
