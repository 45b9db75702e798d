package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
)

// ErrEmptyImage is returned when asked to persist an image with no data
var ErrEmptyImage = errors.New("image is empty")

// PNGStore writes frames as PNG files below a base directory
type PNGStore struct {
	dir string
}

// NewPNGStore returns a store rooted at dir. The directory is created on
// first write.
func NewPNGStore(dir string) *PNGStore {
	return &PNGStore{dir: dir}
}

// Dir returns the base directory
func (s *PNGStore) Dir() string {
	return s.dir
}

// Write saves img to path, relative to the base directory. An existing file
// with the same name is replaced.
func (s *PNGStore) Write(path string, img gocv.Mat) error {
	if img.Ptr() == nil || img.Empty() {
		return ErrEmptyImage
	}

	full := path
	if !filepath.IsAbs(path) {
		full = filepath.Join(s.dir, path)
	}
	if !strings.EqualFold(filepath.Ext(full), ".png") {
		return fmt.Errorf("unsupported extension %q, want .png", filepath.Ext(full))
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create image directory: %w", err)
	}

	// Encode first so a failed encode never truncates an existing file
	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		return fmt.Errorf("encode %s: %w", full, err)
	}
	defer buf.Close()

	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, buf.GetBytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", full, err)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", full, err)
	}
	return nil
}
