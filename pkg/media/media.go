// Package media classifies files into the archive's media categories.
package media

import (
	"fmt"
	"strings"
)

// Category is the archive partition a file belongs to.
type Category int

const (
	Photo Category = iota + 1
	Video
)

func (c Category) String() string {
	switch c {
	case Photo:
		return "photo"
	case Video:
		return "video"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Dir returns the top-level archive directory for the category.
func (c Category) Dir() string {
	switch c {
	case Photo:
		return "Photos"
	case Video:
		return "Videos"
	default:
		return ""
	}
}

// MarshalText lets categories appear by name in JSON output.
func (c Category) MarshalText() ([]byte, error) {
	switch c {
	case Photo, Video:
		return []byte(c.String()), nil
	default:
		return nil, fmt.Errorf("unknown category %d", int(c))
	}
}

var (
	photoExts = map[string]bool{"jpg": true, "jpeg": true, "png": true, "heic": true}
	videoExts = map[string]bool{"mp4": true, "mov": true, "avi": true}
)

// Classify maps a file extension to a category. The leading dot is optional and
// matching is case-insensitive. ok is false for anything that is not a photo or video.
func Classify(ext string) (c Category, ok bool) {
	e := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	switch {
	case photoExts[e]:
		return Photo, true
	case videoExts[e]:
		return Video, true
	default:
		return 0, false
	}
}
