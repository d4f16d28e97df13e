// Package prefs persists the directories used by the previous run.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Prefs are the remembered directories. Empty strings mean "not set".
type Prefs struct {
	LastSourceDir string `yaml:"last_source_dir"`
	LastTargetDir string `yaml:"last_target_dir"`
}

// Store reads and writes Prefs as YAML on Fs.
type Store struct {
	Fs   afero.Fs
	Path string
}

// DefaultPath returns <user config dir>/photosort/prefs.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "photosort", "prefs.yaml"), nil
}

// NewStore returns a Store on the OS filesystem at path, or at DefaultPath when
// path is empty.
func NewStore(path string) (*Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &Store{Fs: afero.NewOsFs(), Path: path}, nil
}

// Load returns the stored prefs. A missing file yields zero Prefs and no error.
// A corrupt file yields zero Prefs and an error the caller may log and ignore.
func (s *Store) Load() (Prefs, error) {
	data, err := afero.ReadFile(s.Fs, s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return Prefs{}, nil
	}
	if err != nil {
		return Prefs{}, fmt.Errorf("read prefs %s: %w", s.Path, err)
	}

	var p Prefs
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Prefs{}, fmt.Errorf("parse prefs %s: %w", s.Path, err)
	}
	return p, nil
}

// Save writes p, creating the parent directory if needed. The file is replaced
// through a temporary sibling so a crash never leaves half a file behind.
func (s *Store) Save(p Prefs) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}

	dir := filepath.Dir(s.Path)
	if err := s.Fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := afero.WriteFile(s.Fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := s.Fs.Rename(tmp, s.Path); err != nil {
		_ = s.Fs.Remove(tmp)
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

// Update loads the current prefs, applies fn and saves the result. A corrupt
// file is overwritten.
func (s *Store) Update(fn func(*Prefs)) error {
	p, _ := s.Load()
	fn(&p)
	return s.Save(p)
}
