package report

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/quidome/photosort/pkg/media"
	"github.com/quidome/photosort/pkg/organize"
	"github.com/quidome/photosort/pkg/scan"
)

func sampleResult() organize.Result {
	return organize.Result{
		RunID:         "run-42",
		Processed:     5,
		Moved:         3,
		Duplicates:    1,
		PhotosMoved:   2,
		VideosMoved:   1,
		PhotosPerYear: map[string]int{"2021": 1, "2020": 1},
		VideosPerYear: map[string]int{"2019": 1},
		Errors:        []string{"move /a.jpg: boom"},
		Warnings:      []string{},
		BytesMoved:    1500000,
		Placements:    []organize.Placement{{Source: "/a.jpg", Category: media.Photo, Year: "2020", Outcome: organize.Failed}},
	}
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	if err := Text(&buf, sampleResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	for _, pattern := range []string{
		`Organize summary`,
		`Run:\s+run-42`,
		`Processed:\s+5`,
		`Moved:\s+3 \(photos 2, videos 1\)`,
		`Duplicates:\s+1`,
		`Data:\s+1\.5 MB`,
		`(?s)Photos per year\n\s+2020\s+1\n\s+2021\s+1`,
		`(?s)Videos per year\n\s+2019\s+1`,
		`- move /a\.jpg: boom`,
	} {
		if !regexp.MustCompile(pattern).MatchString(out) {
			t.Errorf("output does not match %q:\n%s", pattern, out)
		}
	}
	if strings.Contains(out, "dry run") || strings.Contains(out, "Warnings\n") {
		t.Errorf("unexpected sections:\n%s", out)
	}
}

func TestText_DryRunAndCanceled(t *testing.T) {
	res := sampleResult()
	res.DryRun = true
	res.Canceled = true

	var buf bytes.Buffer
	if err := Text(&buf, res); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "(dry run)") || !strings.Contains(buf.String(), "canceled") {
		t.Fatalf("missing dry run or canceled marker:\n%s", buf.String())
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["run_id"] != "run-42" || decoded["processed"] != float64(5) {
		t.Fatalf("unexpected JSON: %v", decoded)
	}
	placements := decoded["placements"].([]any)
	first := placements[0].(map[string]any)
	if first["category"] != "photo" || first["outcome"] != "failed" {
		t.Fatalf("expected enums by name, got %v", first)
	}
}

func TestSummarizeAndInventory(t *testing.T) {
	records := []scan.Record{
		{Path: "/s/a.jpg", Category: media.Photo, CaptureTime: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Size: 1000},
		{Path: "/s/b.jpg", Category: media.Photo, CaptureTime: time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC), Approximate: true, Size: 1000},
		{Path: "/s/c.mov", Category: media.Video, CaptureTime: time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), Approximate: true, Size: 3000},
	}

	inv := Summarize(records)
	if inv.Files != 3 || inv.Photos != 2 || inv.Videos != 1 || inv.Approximate != 2 || inv.Bytes != 5000 {
		t.Fatalf("unexpected inventory: %+v", inv)
	}
	if inv.PhotosPerYear["2020"] != 2 || inv.VideosPerYear["2018"] != 1 {
		t.Fatalf("unexpected per-year counts: %+v %+v", inv.PhotosPerYear, inv.VideosPerYear)
	}

	var buf bytes.Buffer
	if err := InventoryText(&buf, inv, true); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Scan summary", "5.0 kB", "~ 2020-02-01  photo  /s/b.jpg", "2018-01-01  video  /s/c.mov"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := InventoryJSON(&buf, Summarize(nil)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"records": []`) {
		t.Fatalf("expected empty records array, got %s", buf.String())
	}
}
