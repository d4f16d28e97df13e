package organize

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/quidome/photosort/pkg/plan"
)

// ValidationError rejects a source/target pair before any work is done.
type ValidationError struct {
	Source string
	Target string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid directories (source %q, target %q): %s", e.Source, e.Target, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validate checks that source is an existing directory and that source and
// target are distinct and not nested in either direction. Symbolic links are
// resolved before comparing. The target does not need to exist yet.
func Validate(source, target string) error {
	invalid := func(reason string, err error) error {
		return &ValidationError{Source: source, Target: target, Reason: reason, Err: err}
	}

	if strings.TrimSpace(source) == "" || strings.TrimSpace(target) == "" {
		return invalid("source and target must both be set", nil)
	}

	info, err := os.Stat(source)
	if err != nil {
		return invalid("source directory does not exist", err)
	}
	if !info.IsDir() {
		return invalid("source is not a directory", nil)
	}
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		return invalid("target is not a directory", nil)
	}

	src, err := canonical(source)
	if err != nil {
		return invalid("cannot resolve source", err)
	}
	dst, err := canonical(target)
	if err != nil {
		return invalid("cannot resolve target", err)
	}

	switch {
	case src == dst:
		return invalid("source and target are the same directory", nil)
	case within(dst, src):
		return invalid("target is inside the source directory", nil)
	case within(src, dst):
		return invalid("source is inside the target directory", nil)
	}
	return nil
}

// CreateTargetStructure creates the Photos, Videos and Duplicates directories.
func CreateTargetStructure(target string) error {
	for _, dir := range plan.TopLevelDirs {
		p := filepath.Join(target, dir)
		if err := os.MkdirAll(p, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", p, err)
		}
	}
	return nil
}

// canonical returns the absolute, symlink-free form of path. Missing trailing
// components are kept verbatim on top of the deepest existing ancestor.
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	var missing []string
	cur := abs
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			parts := append([]string{resolved}, missing...)
			return filepath.Join(parts...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs, nil
		}
		missing = append([]string{filepath.Base(cur)}, missing...)
		cur = parent
	}
}

// within reports whether child is strictly below parent.
func within(child, parent string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}
