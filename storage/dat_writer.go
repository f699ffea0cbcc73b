package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"ebay-normalizer/models"
)

// DatWriter appends finished lines to one .dat file per relation inside a
// directory. It is safe for concurrent use.
type DatWriter struct {
	mu  sync.Mutex
	dir string
}

// NewDatWriter creates the output directory if needed.
func NewDatWriter(dir string) (*DatWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("dat: create output dir: %w", err)
	}
	return &DatWriter{dir: dir}, nil
}

// Path returns the file a relation is written to.
func (w *DatWriter) Path(r models.Relation) string {
	return filepath.Join(w.dir, r.FileName())
}

// Reset removes the output files of a previous run.
func (w *DatWriter) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, r := range models.Relations {
		if err := os.Remove(w.Path(r)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("dat: remove %s: %w", r.FileName(), err)
		}
	}
	return nil
}

// Append writes every relation's lines of the batch to the end of its file,
// one line each, keeping the batch order.
func (w *DatWriter) Append(batch *models.Batch) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, r := range models.Relations {
		if err := w.appendLines(r, batch.Lines(r)); err != nil {
			return err
		}
	}
	return nil
}

func (w *DatWriter) appendLines(r models.Relation, lines []string) error {
	f, err := os.OpenFile(w.Path(r), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("dat: open %s: %w", r.FileName(), err)
	}

	bw := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			_ = f.Close()
			return fmt.Errorf("dat: write %s: %w", r.FileName(), err)
		}
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("dat: flush %s: %w", r.FileName(), err)
	}
	return f.Close()
}
