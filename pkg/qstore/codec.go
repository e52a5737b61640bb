// Package qstore holds the persistence backends for Q-tables.
package qstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/Zarux/qtictactoe/pkg/qlearning"
	"github.com/Zarux/qtictactoe/pkg/tictactoe"
)

const blobVersion = 1

var (
	ErrBadIdentifier = errors.New("bad table identifier")
	ErrCorruptBlob   = errors.New("corrupt table blob")
)

var identifierRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

func checkIdentifier(id string) error {
	if !identifierRe.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrBadIdentifier, id)
	}

	return nil
}

type row struct {
	State  string  `json:"state"`
	Action int     `json:"action"`
	Value  float64 `json:"value"`
}

type blob struct {
	Version int   `json:"version"`
	Entries []row `json:"entries"`
}

func encodeBlob(entries []qlearning.Entry) ([]byte, error) {
	b := blob{
		Version: blobVersion,
		Entries: make([]row, len(entries)),
	}

	for i, e := range entries {
		b.Entries[i] = row{State: e.State.String(), Action: e.Action, Value: e.Value}
	}

	return json.Marshal(b)
}

func decodeBlob(data []byte) ([]qlearning.Entry, error) {
	var b blob
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptBlob, err)
	}

	if b.Version != blobVersion {
		return nil, fmt.Errorf("%w: unknown version %d", ErrCorruptBlob, b.Version)
	}

	entries := make([]qlearning.Entry, len(b.Entries))
	for i, r := range b.Entries {
		st, err := tictactoe.ParseState(r.State)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptBlob, err)
		}

		if r.Action < 0 || r.Action >= tictactoe.Cells {
			return nil, fmt.Errorf("%w: action %d out of range", ErrCorruptBlob, r.Action)
		}

		entries[i] = qlearning.Entry{State: st, Action: r.Action, Value: r.Value}
	}

	return entries, nil
}
