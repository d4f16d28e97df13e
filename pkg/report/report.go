// Package report renders scan inventories and organize results for people and
// for machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/quidome/photosort/pkg/media"
	"github.com/quidome/photosort/pkg/organize"
	"github.com/quidome/photosort/pkg/scan"
)

type styles struct {
	heading lipgloss.Style
	label   lipgloss.Style
	bad     lipgloss.Style
	warn    lipgloss.Style
}

// newStyles picks colours for w; a non-terminal writer gets plain text.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		heading: r.NewStyle().Bold(true).Underline(true),
		label:   r.NewStyle().Width(14),
		bad:     r.NewStyle().Foreground(lipgloss.Color("9")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

// Text writes a human-readable summary of res.
func Text(w io.Writer, res organize.Result) error {
	st := newStyles(w)
	p := &printer{w: w}

	title := "Organize summary"
	if res.DryRun {
		title += " (dry run)"
	}
	p.line(st.heading.Render(title))
	p.field(st, "Run", res.RunID)
	p.field(st, "Processed", fmt.Sprint(res.Processed))
	p.field(st, "Moved", fmt.Sprintf("%d (photos %d, videos %d)", res.Moved, res.PhotosMoved, res.VideosMoved))
	p.field(st, "Duplicates", fmt.Sprint(res.Duplicates))
	p.field(st, "Errors", fmt.Sprint(len(res.Errors)))
	p.field(st, "Warnings", fmt.Sprint(len(res.Warnings)))
	p.field(st, "Data", humanize.Bytes(uint64(max(res.BytesMoved, 0))))
	if res.Canceled {
		p.line(st.warn.Render("Run was canceled before every file was handled."))
	}

	p.years(st, "Photos per year", res.PhotosPerYear)
	p.years(st, "Videos per year", res.VideosPerYear)
	p.list("Errors", res.Errors, st.bad)
	p.list("Warnings", res.Warnings, st.warn)
	return p.err
}

// JSON writes res as indented JSON.
func JSON(w io.Writer, res organize.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// Inventory summarises a scan.
type Inventory struct {
	Files         int            `json:"files"`
	Photos        int            `json:"photos"`
	Videos        int            `json:"videos"`
	Approximate   int            `json:"approximate"`
	Bytes         int64          `json:"bytes"`
	PhotosPerYear map[string]int `json:"photos_per_year"`
	VideosPerYear map[string]int `json:"videos_per_year"`
	Records       []scan.Record  `json:"records"`
}

// Summarize counts records per category and year.
func Summarize(records []scan.Record) Inventory {
	inv := Inventory{
		PhotosPerYear: make(map[string]int),
		VideosPerYear: make(map[string]int),
		Records:       records,
	}
	if inv.Records == nil {
		inv.Records = []scan.Record{}
	}
	for _, r := range records {
		inv.Files++
		inv.Bytes += r.Size
		if r.Approximate {
			inv.Approximate++
		}
		switch r.Category {
		case media.Photo:
			inv.Photos++
			inv.PhotosPerYear[r.Year()]++
		case media.Video:
			inv.Videos++
			inv.VideosPerYear[r.Year()]++
		}
	}
	return inv
}

// InventoryText writes a human-readable scan summary. With verbose every file is
// listed as well.
func InventoryText(w io.Writer, inv Inventory, verbose bool) error {
	st := newStyles(w)
	p := &printer{w: w}

	p.line(st.heading.Render("Scan summary"))
	p.field(st, "Files", fmt.Sprint(inv.Files))
	p.field(st, "Photos", fmt.Sprint(inv.Photos))
	p.field(st, "Videos", fmt.Sprint(inv.Videos))
	p.field(st, "Approximate", fmt.Sprint(inv.Approximate))
	p.field(st, "Size", humanize.Bytes(uint64(max(inv.Bytes, 0))))
	p.years(st, "Photos per year", inv.PhotosPerYear)
	p.years(st, "Videos per year", inv.VideosPerYear)

	if verbose && len(inv.Records) > 0 {
		p.line("")
		p.line(st.heading.Render("Files"))
		for _, r := range inv.Records {
			marker := " "
			if r.Approximate {
				marker = "~"
			}
			p.line(fmt.Sprintf("  %s %s  %s  %s", marker, r.CaptureTime.Format("2006-01-02"), r.Category, r.Path))
		}
	}
	return p.err
}

// InventoryJSON writes inv as indented JSON.
func InventoryJSON(w io.Writer, inv Inventory) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(inv)
}

// printer remembers the first write error so callers can check once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(s string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, s)
}

func (p *printer) field(st styles, label, value string) {
	p.line("  " + st.label.Render(label+":") + value)
}

func (p *printer) years(st styles, title string, perYear map[string]int) {
	if len(perYear) == 0 {
		return
	}
	p.line("")
	p.line(st.heading.Render(title))
	for _, y := range organize.SortedYears(perYear) {
		p.line(fmt.Sprintf("  %s  %d", y, perYear[y]))
	}
}

func (p *printer) list(title string, items []string, style lipgloss.Style) {
	if len(items) == 0 {
		return
	}
	p.line("")
	p.line(style.Render(title))
	for _, it := range items {
		p.line("  - " + it)
	}
}
