package qlearning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrEmptyStore is returned by stores that hold nothing for an identifier.
var ErrEmptyStore = errors.New("no table stored")

// Store persists whole tables under an identifier.
type Store interface {
	Save(ctx context.Context, id string, entries []Entry) error
	Load(ctx context.Context, id string) ([]Entry, error)
}

func (e *Engine) Save(ctx context.Context, store Store, id string) error {
	entries := e.table.Entries()
	if err := store.Save(ctx, id, entries); err != nil {
		return fmt.Errorf("save table %q: %w", id, err)
	}

	e.logger.Debug("saved table", slog.String("id", id), slog.Int("entries", len(entries)))
	return nil
}

// Load replaces the table with the stored one and returns the number of
// entries loaded. Any failure to read leaves an empty table behind, so
// training can go on from the default values. The returned error is only
// the reason the table started empty; the engine is usable either way.
func (e *Engine) Load(ctx context.Context, store Store, id string) (int, error) {
	entries, err := store.Load(ctx, id)
	if err != nil {
		e.table.Replace(nil)
		if errors.Is(err, ErrEmptyStore) {
			e.logger.Warn("table is empty, starting fresh", slog.String("id", id))
		} else {
			e.logger.Warn("failed to load table, starting fresh", slog.String("id", id), slog.String("error", err.Error()))
		}
		return 0, fmt.Errorf("load table %q: %w", id, err)
	}

	e.table.Replace(entries)
	e.logger.Debug("loaded table", slog.String("id", id), slog.Int("entries", len(entries)))
	return len(entries), nil
}
