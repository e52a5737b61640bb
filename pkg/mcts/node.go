package mcts

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/Zarux/qtictactoe/pkg/tictactoe"
)

type node struct {
	Parent   *node
	Children []*node

	Move int
	// Player made Move to reach this node.
	Player tictactoe.Player

	Wins   float64
	Visits int

	UntriedMoves []int
}

func (n *node) uctValue(explorationParam float64) float64 {
	if n.Visits == 0 {
		return math.Inf(1)
	}

	winRate := n.Wins / float64(n.Visits)
	logParentVisits := math.Log(float64(n.Parent.Visits))

	return winRate + explorationParam*math.Sqrt(logParentVisits/float64(n.Visits))
}

func (n *node) selectChild(explorationParam float64) *node {
	best := n.Children[0]
	bestVal := best.uctValue(explorationParam)

	for _, c := range n.Children[1:] {
		if v := c.uctValue(explorationParam); v > bestVal {
			best = c
			bestVal = v
		}
	}

	return best
}

func (n *node) expand(rng *rand.Rand, board *tictactoe.Board, player tictactoe.Player) *node {
	move := n.UntriedMoves[rng.IntN(len(n.UntriedMoves))]
	n.UntriedMoves = slices.DeleteFunc(n.UntriedMoves, func(m int) bool {
		return m == move
	})

	_ = board.ApplyMove(move, player)

	child := &node{
		Parent: n,
		Move:   move,
		Player: player,
	}
	if !board.Terminal() {
		child.UntriedMoves = board.LegalMoves()
	}

	n.Children = append(n.Children, child)
	return child
}

const (
	winValue  = 1
	drawValue = 0.5
)

func (n *node) backpropagate(winner tictactoe.Player) {
	for n != nil {
		n.Visits++
		switch winner {
		case tictactoe.Empty:
			n.Wins += drawValue
		case n.Player:
			n.Wins += winValue
		}

		n = n.Parent
	}
}
