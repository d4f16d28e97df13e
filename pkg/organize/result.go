package organize

import (
	"fmt"
	"sort"

	"github.com/quidome/photosort/pkg/media"
)

// Outcome is the per-record decision.
type Outcome int

const (
	// Failed records contribute an entry to Result.Errors and are left in place.
	Failed Outcome = iota
	// Standard placements land under their own name in the year directory.
	Standard
	// Duplicate placements are byte-identical to the file already holding their
	// name and go to the Duplicates directory.
	Duplicate
	// Collision placements share a name with a different file and receive a
	// numbered variant in the year directory.
	Collision
)

func (o Outcome) String() string {
	switch o {
	case Failed:
		return "failed"
	case Standard:
		return "standard"
	case Duplicate:
		return "duplicate"
	case Collision:
		return "collision"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Placement is what happened to one record.
type Placement struct {
	Source      string         `json:"source"`
	Destination string         `json:"destination,omitempty"`
	Category    media.Category `json:"category"`
	Year        string         `json:"year"`
	Outcome     Outcome        `json:"outcome"`
	Approximate bool           `json:"approximate"`
	Size        int64          `json:"size_bytes"`
	Hash        string         `json:"hash,omitempty"`

	// Method is the move state ("renamed", "copied", ...). Empty in dry runs.
	Method string `json:"method,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Result summarises an organize run.
type Result struct {
	RunID  string `json:"run_id"`
	DryRun bool   `json:"dry_run"`

	Processed   int `json:"processed"`
	Moved       int `json:"moved"`
	Duplicates  int `json:"duplicates"`
	PhotosMoved int `json:"photos_moved"`
	VideosMoved int `json:"videos_moved"`

	PhotosPerYear map[string]int `json:"photos_per_year"`
	VideosPerYear map[string]int `json:"videos_per_year"`

	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`

	BytesMoved int64       `json:"bytes_moved"`
	Placements []Placement `json:"placements"`

	// Canceled is set when the context ended before every record was handled.
	Canceled bool `json:"canceled"`
}

func newResult(runID string, dryRun bool) Result {
	return Result{
		RunID:         runID,
		DryRun:        dryRun,
		PhotosPerYear: make(map[string]int),
		VideosPerYear: make(map[string]int),
		Errors:        []string{},
		Warnings:      []string{},
		Placements:    []Placement{},
	}
}

// entry is the outcome of processing one record, before it is folded in.
type entry struct {
	placement Placement
	warnings  []string
}

// apply folds one entry into the result. Every entry lands in exactly one of
// Moved, Duplicates or Errors.
func (r Result) apply(e entry) Result {
	p := e.placement

	r.Processed++
	r.Warnings = append(r.Warnings, e.warnings...)
	r.Placements = append(r.Placements, p)

	switch p.Outcome {
	case Failed:
		r.Errors = append(r.Errors, p.Error)
		return r
	case Duplicate:
		r.Duplicates++
	case Standard, Collision:
		r.Moved++
		switch p.Category {
		case media.Photo:
			r.PhotosMoved++
			r.PhotosPerYear[p.Year]++
		case media.Video:
			r.VideosMoved++
			r.VideosPerYear[p.Year]++
		}
	}
	r.BytesMoved += p.Size
	return r
}

// SortedYears returns the keys of a per-year map in ascending order.
func SortedYears(perYear map[string]int) []string {
	years := make([]string, 0, len(perYear))
	for y := range perYear {
		years = append(years, y)
	}
	sort.Strings(years)
	return years
}
