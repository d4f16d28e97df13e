package createdat

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// exifLayout is the EXIF DateTime format. It carries no timezone; we read it as UTC.
const exifLayout = "2006:01:02 15:04:05"

var exifFields = []struct {
	name   exif.FieldName
	source Source
}{
	{exif.DateTimeOriginal, SourceExifOriginal},
	{exif.DateTime, SourceExifDateTime},
	{exif.DateTimeDigitized, SourceExifDigitized},
}

type exifExtractor struct{}

func (e exifExtractor) CaptureTime(path string, r io.Reader) (time.Time, Source, bool, error) {
	block, err := exifBlock(r)
	if err != nil {
		return time.Time{}, "", false, err
	}
	if block == nil {
		return time.Time{}, "", false, nil
	}
	// goexif trusts tag counts, and a forged one makes it allocate gigabytes.
	if err := checkTIFF(block); err != nil {
		return time.Time{}, "", false, err
	}

	x, err := exif.Decode(bytes.NewReader(block))
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		// Not an error for our purposes: the file simply has no usable EXIF block.
		return time.Time{}, "", false, nil
	}

	for _, f := range exifFields {
		if tm, ok := exifTimeFromTag(x, f.name); ok {
			return tm, f.source, true, nil
		}
	}

	return time.Time{}, "", false, nil
}

func exifTimeFromTag(x *exif.Exif, name exif.FieldName) (time.Time, bool) {
	tag, err := x.Get(name)
	if err != nil {
		return time.Time{}, false
	}

	s, err := tag.StringVal()
	if err != nil {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	tm, err := time.ParseInLocation(exifLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return tm, true
}
