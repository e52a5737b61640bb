package qstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/Zarux/qtictactoe/pkg/qlearning"
	"github.com/Zarux/qtictactoe/pkg/tictactoe"
)

// ParquetRow is one table entry in the columnar export.
type ParquetRow struct {
	State  string  `parquet:"state,dict"`
	Action int32   `parquet:"action"`
	Value  float64 `parquet:"value"`
}

// WriteParquet exports entries to outPath, replacing it atomically.
func WriteParquet(outPath, id string, entries []qlearning.Entry) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	rows := make([]ParquetRow, len(entries))
	for i, e := range entries {
		rows[i] = ParquetRow{State: e.State.String(), Action: int32(e.Action), Value: e.Value}
	}

	tmpPath := outPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "qtable_v1"),
		parquet.KeyValueMetadata("table_id", id),
	); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename parquet: %w", err)
	}

	return nil
}

func ReadParquet(path string) ([]qlearning.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := parquet.NewGenericReader[ParquetRow](f)
	defer reader.Close()

	var entries []qlearning.Entry
	buf := make([]ParquetRow, 256)
	for {
		n, err := reader.Read(buf)
		for _, r := range buf[:n] {
			st, perr := tictactoe.ParseState(r.State)
			if perr != nil {
				return nil, fmt.Errorf("%w: %w", ErrCorruptBlob, perr)
			}
			entries = append(entries, qlearning.Entry{State: st, Action: int(r.Action), Value: r.Value})
		}

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read parquet: %w", err)
		}
	}

	return entries, nil
}
