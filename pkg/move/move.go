// Package move relocates a single file, falling back from rename to copy+delete.
package move

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// ErrDestinationExists is returned when something already occupies the destination.
var ErrDestinationExists = errors.New("destination file already exists")

// Replaceable for tests, so cross-device and cleanup failures can be simulated.
var (
	renameFunc = os.Rename
	removeFunc = os.Remove
)

// State is the terminal state of one move attempt.
type State int

const (
	// Failed means neither rename nor copy succeeded. The source is untouched and
	// no partial destination is left behind.
	Failed State = iota
	// Renamed means the source was renamed into place.
	Renamed
	// Copied means the rename failed, the copy succeeded and the source was removed.
	Copied
	// CopiedSourceRetained means the copy succeeded but the source could not be
	// removed, so the data now exists in both places.
	CopiedSourceRetained
)

func (s State) String() string {
	switch s {
	case Failed:
		return "failed"
	case Renamed:
		return "renamed"
	case Copied:
		return "copied"
	case CopiedSourceRetained:
		return "copied_source_retained"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome describes how a move ended.
type Outcome struct {
	State State

	// RenameErr is why the fast path was abandoned, if it was.
	RenameErr error

	// Err is the copy failure for Failed or the cleanup failure for
	// CopiedSourceRetained.
	Err error
}

// OK reports whether the file now exists at the destination.
func (o Outcome) OK() bool {
	switch o.State {
	case Renamed, Copied, CopiedSourceRetained:
		return true
	default:
		return false
	}
}

// Move moves src to dst, which must not exist yet.
//
// It tries a rename first and falls back to copy followed by removing the source,
// which is what crossing a filesystem boundary requires.
func Move(src, dst string) Outcome {
	if _, err := os.Lstat(dst); err == nil {
		return Outcome{State: Failed, Err: fmt.Errorf("move %s: %w", dst, ErrDestinationExists)}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Outcome{State: Failed, Err: fmt.Errorf("stat destination: %w", err)}
	}

	renameErr := renameFunc(src, dst)
	if renameErr == nil {
		return Outcome{State: Renamed}
	}

	if err := copyFile(src, dst); err != nil {
		return Outcome{
			State:     Failed,
			RenameErr: renameErr,
			Err:       fmt.Errorf("rename failed (%v), copy failed: %w", renameErr, err),
		}
	}

	if err := removeFunc(src); err != nil {
		return Outcome{State: CopiedSourceRetained, RenameErr: renameErr, Err: fmt.Errorf("remove source: %w", err)}
	}
	return Outcome{State: Copied, RenameErr: renameErr}
}

// copyFile copies src to dst without ever overwriting dst. On failure any partial
// destination is removed. The source modification time is carried over.
func copyFile(src, dst string) (err error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, srcInfo.Mode().Perm())
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrDestinationExists
		}
		return fmt.Errorf("create destination: %w", err)
	}
	defer func() {
		if err != nil {
			_ = dstFile.Close()
			_ = os.Remove(dst)
		}
	}()

	if _, err = io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("copy content: %w", err)
	}
	if err = dstFile.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err = dstFile.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}

	// Best effort; a later scan of the archive falls back to mtime for videos.
	_ = os.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime())
	return nil
}
