// Package scan walks a source tree and produces the dated media inventory.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quidome/photosort/pkg/createdat"
	"github.com/quidome/photosort/pkg/media"
)

// ResolveFunc resolves the capture time of a single file.
type ResolveFunc func(path string, category media.Category) (createdat.Result, error)

type Options struct {
	// MaxDepth limits recursion: -1 is unlimited, 0 only scans the root itself.
	MaxDepth int

	Logger logrus.FieldLogger

	// Resolve defaults to createdat.Resolve with the EXIF extractor.
	Resolve ResolveFunc
}

func DefaultOptions() Options {
	return Options{MaxDepth: -1}
}

// Record is one discovered media file.
type Record struct {
	Path        string           `json:"path"`
	Category    media.Category   `json:"category"`
	CaptureTime time.Time        `json:"capture_time"`
	Approximate bool             `json:"approximate"`
	Source      createdat.Source `json:"source"`
	Size        int64            `json:"size_bytes"`
}

// Name returns the file name of the record.
func (r Record) Name() string {
	return filepath.Base(r.Path)
}

// Year returns the four-digit UTC year of the capture time.
func (r Record) Year() string {
	return fmt.Sprintf("%04d", r.CaptureTime.UTC().Year())
}

// Scan recursively walks root, following symbolic links, and returns every photo
// and video it finds, sorted by path.
//
// Files whose capture time cannot be resolved and directories that cannot be read
// are logged and skipped. Only an unreadable root is an error.
func Scan(root string, opts Options) ([]Record, error) {
	if opts.MaxDepth < -1 {
		return nil, fs.ErrInvalid
	}

	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	resolve := opts.Resolve
	if resolve == nil {
		resolve = func(path string, category media.Category) (createdat.Result, error) {
			return createdat.Resolve(path, category, createdat.Options{Logger: log})
		}
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan %s: not a directory", root)
	}

	w := &walker{
		maxDepth: opts.MaxDepth,
		log:      log,
		resolve:  resolve,
		visited:  make(map[string]bool),
	}
	if err := w.walk(abs, 0); err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	sort.Slice(w.records, func(i, j int) bool {
		return w.records[i].Path < w.records[j].Path
	})
	return w.records, nil
}

type walker struct {
	maxDepth int
	log      logrus.FieldLogger
	resolve  ResolveFunc

	// visited holds resolved directory paths so symlink loops are entered once.
	visited map[string]bool
	records []Record
}

func (w *walker) walk(dir string, depth int) error {
	if real, err := filepath.EvalSymlinks(dir); err == nil {
		if w.visited[real] {
			w.log.WithField("path", dir).Debug("directory already visited, skipping")
			return nil
		}
		w.visited[real] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		path := filepath.Join(dir, e.Name())

		// os.Stat follows links, so a linked directory or file is treated as its target.
		info, err := os.Stat(path)
		if err != nil {
			w.log.WithError(err).WithField("path", path).Error("cannot stat entry, skipping")
			continue
		}

		if info.IsDir() {
			if w.maxDepth >= 0 && depth+1 > w.maxDepth {
				continue
			}
			if err := w.walk(path, depth+1); err != nil {
				w.log.WithError(err).WithField("path", path).Error("cannot read directory, skipping")
			}
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		category, ok := media.Classify(filepath.Ext(path))
		if !ok {
			continue
		}

		res, err := w.resolve(path, category)
		if err != nil {
			w.log.WithError(err).WithField("path", path).Error("cannot resolve capture time, skipping")
			continue
		}

		w.records = append(w.records, Record{
			Path:        path,
			Category:    category,
			CaptureTime: res.CaptureTime.UTC(),
			Approximate: res.Approximate,
			Source:      res.Source,
			Size:        info.Size(),
		})
	}
	return nil
}
