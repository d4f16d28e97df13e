package createdat

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quidome/photosort/pkg/media"
)

// Source describes where a capture time was derived from.
//
// The priority order for photos is:
//  1. exif_original
//  2. exif_datetime
//  3. exif_digitized
//  4. mtime
type Source string

const (
	SourceExifOriginal  Source = "exif_original"
	SourceExifDateTime  Source = "exif_datetime"
	SourceExifDigitized Source = "exif_digitized"
	SourceMtime         Source = "mtime"
)

// Approximate reports whether a time from this source is less trustworthy than an
// original-capture field.
func (s Source) Approximate() bool {
	return s != SourceExifOriginal
}

// Result is a resolved capture time.
type Result struct {
	CaptureTime time.Time
	Source      Source
	Approximate bool
}

// MetadataExtractor extracts an embedded capture timestamp from a media stream.
//
// Implementations should return (t, source, true, nil) when a timestamp is found.
// If no timestamp exists, return (time.Time{}, "", false, nil).
// Errors are treated as best-effort failures by Resolve.
type MetadataExtractor interface {
	CaptureTime(path string, r io.Reader) (time.Time, Source, bool, error)
}

// Options configures Resolve.
type Options struct {
	// Metadata optionally extracts embedded timestamps.
	//
	// If nil, the EXIF extractor is used.
	Metadata MetadataExtractor

	// Logger receives fallback diagnostics. If nil, the logrus standard logger is used.
	Logger logrus.FieldLogger
}

// Resolve returns the capture time for the file at path.
//
// It only fails when the modification time itself cannot be read, which is the
// last link of the fallback chain.
func Resolve(path string, category media.Category, opts Options) (Result, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("path", path)

	switch category {
	case media.Photo:
		metadata := opts.Metadata
		if metadata == nil {
			metadata = exifExtractor{}
		}

		f, err := os.Open(path)
		if err != nil {
			log.WithError(err).Debug("open for metadata failed")
			break
		}
		tm, src, ok, metaErr := metadata.CaptureTime(path, f)
		_ = f.Close()
		if metaErr != nil {
			log.WithError(metaErr).Debug("metadata extraction failed")
		}
		if metaErr == nil && ok {
			return Result{CaptureTime: tm.UTC(), Source: src, Approximate: src.Approximate()}, nil
		}

		mtime, err := ModTime(path)
		if err != nil {
			return Result{}, err
		}
		log.WithField("mtime", mtime).Warn("no EXIF capture time, using file modification time")
		return Result{CaptureTime: mtime, Source: SourceMtime, Approximate: true}, nil

	case media.Video:
		// Videos carry no embedded-metadata parsing; mtime is the only source.
	default:
		return Result{}, fmt.Errorf("resolve %s: unsupported category %v", path, category)
	}

	mtime, err := ModTime(path)
	if err != nil {
		return Result{}, err
	}
	log.WithField("mtime", mtime).Debug("capture time taken from file modification time")
	return Result{CaptureTime: mtime, Source: SourceMtime, Approximate: true}, nil
}

// ModTime returns the file's modification time in UTC.
func ModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.ModTime().UTC(), nil
}
