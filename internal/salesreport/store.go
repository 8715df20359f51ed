package salesreport

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StoredFile describes a published report on disk.
type StoredFile struct {
	Name string
	Path string
	Size int64
}

// Store publishes finished reports under a directory. Files appear
// atomically: readers never observe a partially written PDF.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore returns a store rooted at dir, defaulting to a temp subdirectory.
func NewStore(dir string) *Store {
	if strings.TrimSpace(dir) == "" {
		dir = filepath.Join(os.TempDir(), "cineconnect-reports")
	}
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// FileName returns the published name of a report for period generated at t.
func FileName(period string, t time.Time) string {
	period = strings.ToLower(strings.TrimSpace(period))
	if period == "" {
		period = "custom"
	}
	return fmt.Sprintf("reporte-ventas-%s-%d.pdf", period, t.UnixMilli())
}

// Save writes pdf to a temp file in the storage dir and renames it into place.
func (s *Store) Save(period string, pdf []byte) (StoredFile, error) {
	if len(pdf) == 0 {
		return StoredFile{}, errors.New("salesreport: empty report")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return StoredFile{}, fmt.Errorf("salesreport: storage dir: %w", err)
	}
	name := FileName(period, s.now())
	tmp := filepath.Join(s.dir, "."+uuid.NewString()+".tmp")
	if err := writeFile(tmp, pdf); err != nil {
		_ = os.Remove(tmp)
		return StoredFile{}, fmt.Errorf("salesreport: write report: %w", err)
	}
	path := filepath.Join(s.dir, name)
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return StoredFile{}, fmt.Errorf("salesreport: publish report: %w", err)
	}
	return StoredFile{Name: name, Path: path, Size: int64(len(pdf))}, nil
}

// Open returns the published file at path when it lives inside the store.
func (s *Store) Open(path string) (*os.File, error) {
	if err := s.contains(path); err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Remove deletes a published file. A missing file is not an error.
func (s *Store) Remove(path string) error {
	if err := s.contains(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("salesreport: remove report: %w", err)
	}
	return nil
}

func (s *Store) contains(path string) error {
	rel, err := filepath.Rel(s.dir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("salesreport: %q outside storage dir", path)
	}
	return nil
}

func writeFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
