// Package plan computes archive destinations.
package plan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/quidome/photosort/pkg/media"
)

// Top-level archive directories.
const (
	PhotosDir     = "Photos"
	VideosDir     = "Videos"
	DuplicatesDir = "Duplicates"
)

// TopLevelDirs lists the directories CreateTargetStructure must produce.
var TopLevelDirs = []string{PhotosDir, VideosDir, DuplicatesDir}

// Taken reports whether a candidate path is unavailable.
type Taken func(path string) bool

// OnDisk reports whether something exists at path. Stat errors other than
// not-exist count as taken so a path is never handed out blindly.
func OnDisk(path string) bool {
	_, err := os.Lstat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

// CategoryDir returns <target>/Photos or <target>/Videos.
func CategoryDir(target string, c media.Category) string {
	return filepath.Join(target, c.Dir())
}

// YearDir returns <target>/<category>/<year>.
func YearDir(target string, c media.Category, year string) string {
	return filepath.Join(CategoryDir(target, c), year)
}

// DuplicatesPath returns <target>/Duplicates.
func DuplicatesPath(target string) string {
	return filepath.Join(target, DuplicatesDir)
}

// Unique returns dir/<name of originalPath>, or the first free
// dir/<stem>_copy_<n><ext> with n counting up from 1.
//
// When taken is nil OnDisk is used. Nothing is created, so two callers racing on
// the same directory can receive the same answer.
func Unique(dir, originalPath string, taken Taken) string {
	if taken == nil {
		taken = OnDisk
	}

	filename := filepath.Base(originalPath)
	basePath := filepath.Join(dir, filename)
	if !taken(basePath) {
		return basePath
	}

	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	for i := 1; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_copy_%d%s", stem, i, ext))
		if !taken(candidate) {
			return candidate
		}
	}
}
