package qlearning

import (
	"cmp"
	"maps"
	"slices"

	"github.com/Zarux/qtictactoe/pkg/tictactoe"
)

// Key identifies one Q-table entry.
type Key struct {
	State  tictactoe.State
	Action int
}

// Entry is a materialized Q-table row, the unit stores persist.
type Entry struct {
	State  tictactoe.State
	Action int
	Value  float64
}

// Table maps (state, action) pairs to value estimates. Unwritten pairs read
// as the default value and reading never inserts.
type Table struct {
	values       map[Key]float64
	defaultValue float64
}

func NewTable(defaultValue float64) *Table {
	return &Table{
		values:       make(map[Key]float64),
		defaultValue: defaultValue,
	}
}

func (t *Table) Get(state tictactoe.State, action int) float64 {
	if v, ok := t.values[Key{State: state, Action: action}]; ok {
		return v
	}

	return t.defaultValue
}

// Lookup is Get that also reports whether the pair was ever written.
func (t *Table) Lookup(state tictactoe.State, action int) (float64, bool) {
	v, ok := t.values[Key{State: state, Action: action}]
	if !ok {
		return t.defaultValue, false
	}

	return v, true
}

func (t *Table) Set(state tictactoe.State, action int, v float64) {
	t.values[Key{State: state, Action: action}] = v
}

func (t *Table) Len() int {
	return len(t.values)
}

func (t *Table) Default() float64 {
	return t.defaultValue
}

// MaxOver returns the best value among actions at state, or 0 when there
// are no actions.
func (t *Table) MaxOver(state tictactoe.State, actions []int) float64 {
	if len(actions) == 0 {
		return 0.0
	}

	best := t.Get(state, actions[0])
	for _, a := range actions[1:] {
		best = max(best, t.Get(state, a))
	}

	return best
}

// Entries returns a snapshot sorted by state then action.
func (t *Table) Entries() []Entry {
	keys := slices.SortedFunc(maps.Keys(t.values), func(a, b Key) int {
		if c := cmp.Compare(a.State.String(), b.State.String()); c != 0 {
			return c
		}
		return cmp.Compare(a.Action, b.Action)
	})

	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, Entry{State: k.State, Action: k.Action, Value: t.values[k]})
	}

	return entries
}

// Replace drops every written value and loads entries in their place.
func (t *Table) Replace(entries []Entry) {
	t.values = make(map[Key]float64, len(entries))
	for _, e := range entries {
		t.values[Key{State: e.State, Action: e.Action}] = e.Value
	}
}
