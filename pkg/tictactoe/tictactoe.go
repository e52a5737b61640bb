package tictactoe

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	N     = 3
	Cells = N * N
)

var (
	ErrIllegalMove  = errors.New("illegal move")
	ErrInvalidState = errors.New("invalid state")
)

type Player int8

const (
	Empty Player = 0
	P1    Player = 1
	P2    Player = -1
)

func (p Player) Mark() string {
	s := " "
	if p == P1 {
		s = "X"
	}

	if p == P2 {
		s = "O"
	}

	return s
}

// State is a full board configuration. Being an array it is comparable and
// can be used directly as part of a map key.
type State [Cells]Player

func (s State) String() string {
	var b strings.Builder
	b.Grow(Cells)
	for _, p := range s {
		switch p {
		case P1:
			b.WriteByte('X')
		case P2:
			b.WriteByte('O')
		default:
			b.WriteByte('.')
		}
	}

	return b.String()
}

// ParseState is the inverse of State.String.
func ParseState(s string) (State, error) {
	var st State
	if len(s) != Cells {
		return st, fmt.Errorf("%w: want %d cells, got %d", ErrInvalidState, Cells, len(s))
	}

	for i := range Cells {
		switch s[i] {
		case 'X', 'x':
			st[i] = P1
		case 'O', 'o':
			st[i] = P2
		case '.', ' ', '_':
			st[i] = Empty
		default:
			return st, fmt.Errorf("%w: bad cell %q at %d", ErrInvalidState, s[i], i)
		}
	}

	return st, nil
}

// LegalMoves returns the empty cells of s in ascending order.
func (s State) LegalMoves() []int {
	moves := make([]int, 0, Cells)
	for m, p := range s {
		if p != Empty {
			continue
		}
		moves = append(moves, m)
	}

	return moves
}

type Outcome int

const (
	Ongoing Outcome = iota
	Win
	Draw
)

// Reward maps an outcome onto the conventional reward for the side whose
// move triggered the evaluation.
func (o Outcome) Reward() float64 {
	switch o {
	case Win:
		return 1.0
	case Draw:
		return 0.5
	}

	return 0.0
}

func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Draw:
		return "draw"
	}

	return "ongoing"
}

type Move struct {
	X int
	Y int
}

var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, // rows
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8}, // cols
	{0, 4, 8}, {2, 4, 6}, // diags
}

type Board struct {
	Cells    State `json:"cells"`
	LastMove int   `json:"lastMove"`
	Turn     int   `json:"turn"`
}

func NewBoard() *Board {
	return &Board{LastMove: -1}
}

func FromState(s State) *Board {
	b := &Board{Cells: s, LastMove: -1}
	b.Turn = Cells - len(s.LegalMoves())
	return b
}

func (b *Board) GetMove(idx int) Move {
	return Move{
		X: idx % N,
		Y: idx / N,
	}
}

func (b *Board) State() State {
	return b.Cells
}

func (b *Board) ApplyMove(idx int, p Player) error {
	if idx < 0 || idx >= Cells {
		return fmt.Errorf("%w: cell %d out of range", ErrIllegalMove, idx)
	}

	if p == Empty {
		return fmt.Errorf("%w: no player", ErrIllegalMove)
	}

	if b.Cells[idx] != Empty {
		return fmt.Errorf("%w: cell %d is taken", ErrIllegalMove, idx)
	}

	b.Cells[idx] = p
	b.LastMove = idx
	b.Turn++

	return nil
}

func (b *Board) UndoMove(idx int) {
	if b.Cells[idx] == Empty {
		panic("UndoMove on empty cell")
	}

	b.Cells[idx] = Empty
	b.Turn--
}

func (b *Board) AnyLegalMoves() bool {
	return slices.Contains(b.Cells[:], Empty)
}

func (b *Board) LegalMoves() []int {
	return b.Cells.LegalMoves()
}

func (b *Board) CheckWinner() Player {
	for _, l := range lines {
		p := b.Cells[l[0]]
		if p != Empty && b.Cells[l[1]] == p && b.Cells[l[2]] == p {
			return p
		}
	}

	return Empty
}

// WinningLine returns the cells of a completed line for p, or nil.
func (b *Board) WinningLine(p Player) []int {
	if p == Empty {
		return nil
	}

	for _, l := range lines {
		if b.Cells[l[0]] == p && b.Cells[l[1]] == p && b.Cells[l[2]] == p {
			return l[:]
		}
	}

	return nil
}

func (b *Board) Evaluate() Outcome {
	if b.CheckWinner() != Empty {
		return Win
	}

	if !b.AnyLegalMoves() {
		return Draw
	}

	return Ongoing
}

func (b *Board) Terminal() bool {
	return b.Evaluate() != Ongoing
}

func (b *Board) Clone() *Board {
	c := *b
	return &c
}

func (b *Board) String() string {
	var s strings.Builder
	for i, p := range b.Cells {
		fmt.Fprintf(&s, "[%s]", p.Mark())
		if (i+1)%N == 0 {
			s.WriteByte('\n')
		}
	}

	return s.String()
}

// Game is a played game as stored in a replay file. Moves are cell indexes
// in the order they were played, starting with First.
type Game struct {
	First Player `json:"first"`
	Moves []int  `json:"moves"`
	Board *Board `json:"board"`
	Next  Player `json:"next"`
}

func NewGame(first Player) *Game {
	return &Game{
		First: first,
		Moves: []int{},
		Board: NewBoard(),
		Next:  first,
	}
}

// Play makes move idx for p, who has to be on move in a running game.
func (g *Game) Play(idx int, p Player) error {
	if p != g.Next {
		return fmt.Errorf("%w: %s is not on move", ErrIllegalMove, p.Mark())
	}

	if g.Board.Terminal() {
		return fmt.Errorf("%w: game is over", ErrIllegalMove)
	}

	if err := g.Board.ApplyMove(idx, p); err != nil {
		return err
	}

	g.Moves = append(g.Moves, idx)
	g.Next = -p

	return nil
}

// LoadGame rebuilds a game by replaying its moves. A stored board that
// disagrees with the moves is rejected.
func LoadGame(data []byte) (*Game, error) {
	var stored Game
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}

	if stored.First != P1 && stored.First != P2 {
		return nil, fmt.Errorf("%w: first mover %d", ErrInvalidState, stored.First)
	}

	g := NewGame(stored.First)
	for i, m := range stored.Moves {
		if err := g.Play(m, g.Next); err != nil {
			return nil, fmt.Errorf("%w: move %d: %w", ErrInvalidState, i+1, err)
		}
	}

	if stored.Board != nil && stored.Board.Cells != g.Board.Cells {
		return nil, fmt.Errorf("%w: board does not match the moves", ErrInvalidState)
	}

	return g, nil
}

func (g *Game) Save() ([]byte, error) {
	return json.MarshalIndent(g, "", "\t")
}
