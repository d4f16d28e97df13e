package plan

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"

	"github.com/quidome/photosort/pkg/media"
)

func TestUnique(t *testing.T) {
	dir := filepath.Join("/dest", "Photos", "2023")

	tests := []struct {
		name     string
		original string
		taken    map[string]bool
		want     string
	}{
		{
			name:     "no collision",
			original: "/src/photo.jpg",
			taken:    map[string]bool{},
			want:     filepath.Join(dir, "photo.jpg"),
		},
		{
			name:     "first collision gets _copy_1",
			original: "/src/photo.jpg",
			taken: map[string]bool{
				filepath.Join(dir, "photo.jpg"): true,
			},
			want: filepath.Join(dir, "photo_copy_1.jpg"),
		},
		{
			name:     "second collision gets _copy_2",
			original: "/src/photo.jpg",
			taken: map[string]bool{
				filepath.Join(dir, "photo.jpg"):        true,
				filepath.Join(dir, "photo_copy_1.jpg"): true,
			},
			want: filepath.Join(dir, "photo_copy_2.jpg"),
		},
		{
			name:     "gaps are filled first",
			original: "/src/photo.jpg",
			taken: map[string]bool{
				filepath.Join(dir, "photo.jpg"):        true,
				filepath.Join(dir, "photo_copy_2.jpg"): true,
			},
			want: filepath.Join(dir, "photo_copy_1.jpg"),
		},
		{
			name:     "only the last extension is split",
			original: "/src/archive.tar.gz",
			taken: map[string]bool{
				filepath.Join(dir, "archive.tar.gz"): true,
			},
			want: filepath.Join(dir, "archive.tar_copy_1.gz"),
		},
		{
			name:     "file without extension with collision",
			original: "/src/README",
			taken: map[string]bool{
				filepath.Join(dir, "README"): true,
			},
			want: filepath.Join(dir, "README_copy_1"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			taken := func(p string) bool { return tt.taken[p] }
			got := Unique(dir, tt.original, taken)
			if got != tt.want {
				t.Errorf("Unique() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnique_IncreasingCounter(t *testing.T) {
	dir := "/dest"
	taken := map[string]bool{}
	re := regexp.MustCompile(`photo_copy_(\d+)\.jpg$`)

	last := 0
	for i := 0; i < 6; i++ {
		got := Unique(dir, "photo.jpg", func(p string) bool { return taken[p] })
		if taken[got] {
			t.Fatalf("iteration %d: returned taken path %s", i, got)
		}
		taken[got] = true

		if i == 0 {
			if got != filepath.Join(dir, "photo.jpg") {
				t.Fatalf("first call = %s, want the original name", got)
			}
			continue
		}

		m := re.FindStringSubmatch(got)
		if m == nil {
			t.Fatalf("iteration %d: unexpected path %s", i, got)
		}
		n, _ := strconv.Atoi(m[1])
		if n <= last {
			t.Fatalf("iteration %d: counter %d did not increase past %d", i, n, last)
		}
		last = n
	}
}

func TestUnique_OnDisk(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	if got, want := Unique(dir, "/elsewhere/a.jpg", nil), filepath.Join(dir, "a_copy_1.jpg"); got != want {
		t.Fatalf("Unique() = %v, want %v", got, want)
	}
	if got, want := Unique(dir, "/elsewhere/b.jpg", nil), filepath.Join(dir, "b.jpg"); got != want {
		t.Fatalf("Unique() = %v, want %v", got, want)
	}
}

func TestLayout(t *testing.T) {
	target := "/archive"

	if got, want := YearDir(target, media.Photo, "2020"), filepath.Join(target, "Photos", "2020"); got != want {
		t.Errorf("YearDir(photo) = %v, want %v", got, want)
	}
	if got, want := YearDir(target, media.Video, "1999"), filepath.Join(target, "Videos", "1999"); got != want {
		t.Errorf("YearDir(video) = %v, want %v", got, want)
	}
	if got, want := DuplicatesPath(target), filepath.Join(target, "Duplicates"); got != want {
		t.Errorf("DuplicatesPath() = %v, want %v", got, want)
	}
}
