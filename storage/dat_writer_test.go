package storage

import (
	"os"
	"path/filepath"
	"testing"

	"ebay-normalizer/models"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestDatWriterAppendsAcrossBatches(t *testing.T) {
	w, err := NewDatWriter(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	first := &models.Batch{}
	first.Add(models.RelationUser, "alice|10||")
	first.Add(models.RelationCategory, "Books")
	if err := w.Append(first); err != nil {
		t.Fatalf("Append: %v", err)
	}

	second := &models.Batch{}
	second.Add(models.RelationUser, "bob99|5|USA|USA")
	if err := w.Append(second); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if got, want := readFile(t, w.Path(models.RelationUser)), "alice|10||\nbob99|5|USA|USA\n"; got != want {
		t.Errorf("User.dat = %q; want %q", got, want)
	}
	if got, want := readFile(t, w.Path(models.RelationCategory)), "Books\n"; got != want {
		t.Errorf("Category.dat = %q; want %q", got, want)
	}
	// Relations without lines still get an (empty) file.
	if got := readFile(t, w.Path(models.RelationBid)); got != "" {
		t.Errorf("Bid.dat = %q; want empty", got)
	}
}

func TestDatWriterReset(t *testing.T) {
	dir := t.TempDir()
	w, err := NewDatWriter(dir)
	if err != nil {
		t.Fatal(err)
	}

	b := &models.Batch{}
	b.Add(models.RelationItem, "1|old")
	if err := w.Append(b); err != nil {
		t.Fatal(err)
	}

	if err := w.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	for _, r := range models.Relations {
		if _, err := os.Stat(filepath.Join(dir, r.FileName())); !os.IsNotExist(err) {
			t.Errorf("%s should be removed after Reset, stat err = %v", r.FileName(), err)
		}
	}

	// Reset on a clean directory is a no-op.
	if err := w.Reset(); err != nil {
		t.Errorf("second Reset: %v", err)
	}
}

func TestDatWriterCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	if _, err := NewDatWriter(dir); err != nil {
		t.Fatalf("NewDatWriter: %v", err)
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		t.Errorf("output dir not created: %v", err)
	}
}
