package qstore

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Zarux/qtictactoe/pkg/qlearning"
)

// maxBlobSize bounds one line of a table file. A full 3x3 table is well
// under this.
const maxBlobSize = 64 << 20

// FileStore keeps one JSON file per identifier, one table blob per line.
//
// Saves replace the file unless Append is set, in which case every save adds
// a new blob after the existing ones. Loads return the last blob that
// decodes, so appended files still load the most recent table.
type FileStore struct {
	Dir    string
	Append bool
}

func NewFileStore(dir string, appendBlobs bool) *FileStore {
	return &FileStore{Dir: dir, Append: appendBlobs}
}

func (s *FileStore) Path(id string) string {
	return filepath.Join(s.Dir, id+".json")
}

func (s *FileStore) Save(ctx context.Context, id string, entries []qlearning.Entry) error {
	if err := checkIdentifier(id); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeBlob(entries)
	if err != nil {
		return fmt.Errorf("encode table: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	if s.Append {
		return appendFile(s.Path(id), data)
	}

	return replaceFile(s.Path(id), data)
}

func appendFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open table file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("append table: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close table file: %w", err)
	}

	return nil
}

func replaceFile(path string, data []byte) error {
	tmpPath := path + ".tmp"
	_ = os.Remove(tmpPath)

	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write table: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename table: %w", err)
	}

	return nil
}

func (s *FileStore) Load(ctx context.Context, id string) ([]qlearning.Entry, error) {
	if err := checkIdentifier(id); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, qlearning.ErrEmptyStore
	}
	if err != nil {
		return nil, fmt.Errorf("read table file: %w", err)
	}

	var (
		latest  []qlearning.Entry
		found   bool
		lastErr error
	)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxBlobSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		entries, err := decodeBlob(line)
		if err != nil {
			// A torn final append must not hide the blobs before it.
			lastErr = err
			continue
		}

		latest = entries
		found = true
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan table file: %w", err)
	}

	if !found {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, qlearning.ErrEmptyStore
	}

	return latest, nil
}

// Blobs reports how many lines the identifier's file holds. Useful to see
// how far an append-mode file has grown.
func (s *FileStore) Blobs(id string) (int, error) {
	if err := checkIdentifier(id); err != nil {
		return 0, err
	}

	data, err := os.ReadFile(s.Path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	n := 0
	for line := range bytes.Lines(data) {
		if len(bytes.TrimSpace(line)) > 0 {
			n++
		}
	}

	return n, nil
}

// IDs lists the identifiers that have a table file in Dir.
func (s *FileStore) IDs() ([]string, error) {
	dirEntries, err := os.ReadDir(s.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list store dir: %w", err)
	}

	var ids []string
	for _, de := range dirEntries {
		id, ok := strings.CutSuffix(de.Name(), ".json")
		if !ok || de.IsDir() || checkIdentifier(id) != nil {
			continue
		}
		ids = append(ids, id)
	}

	return ids, nil
}
