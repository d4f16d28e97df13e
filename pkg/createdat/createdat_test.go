package createdat

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/quidome/photosort/internal/exiftest"
	"github.com/quidome/photosort/pkg/media"
)

func quietLogger() (*logrus.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

func writeFileWithMTime(t *testing.T, path string, data []byte, mtime time.Time) {
	t.Helper()

	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func TestResolve_Photo(t *testing.T) {
	mtime := time.Date(2021, 3, 3, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name        string
		data        []byte
		wantTime    time.Time
		wantSource  Source
		wantApprox  bool
		wantWarning bool
	}{
		{
			name:       "original capture is exact",
			data:       exiftest.TIFF(exiftest.Original(time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC))),
			wantTime:   time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC),
			wantSource: SourceExifOriginal,
		},
		{
			name:       "datetime is approximate",
			data:       exiftest.TIFF(exiftest.Fields{exiftest.TagDateTime: "2015:07:08 09:10:11"}),
			wantTime:   time.Date(2015, 7, 8, 9, 10, 11, 0, time.UTC),
			wantSource: SourceExifDateTime,
			wantApprox: true,
		},
		{
			name:       "digitized is approximate",
			data:       exiftest.TIFF(exiftest.Fields{exiftest.TagDateTimeDigitized: "2016:07:08 09:10:11"}),
			wantTime:   time.Date(2016, 7, 8, 9, 10, 11, 0, time.UTC),
			wantSource: SourceExifDigitized,
			wantApprox: true,
		},
		{
			name: "forged tag count falls back to mtime",
			data: exiftest.RawTIFF([]exiftest.Entry{
				{Tag: exiftest.TagDateTime, Type: exiftest.TypeLong, Count: wrappedCount},
			}, 0, nil),
			wantTime:    mtime,
			wantSource:  SourceMtime,
			wantApprox:  true,
			wantWarning: true,
		},
		{
			name:        "truncated IFD in a JPEG falls back to mtime",
			data:        exiftest.JPEG([]byte{'I', 'I', 42, 0, 8, 0, 0, 0, 5, 0}),
			wantTime:    mtime,
			wantSource:  SourceMtime,
			wantApprox:  true,
			wantWarning: true,
		},
		{
			name: "out-of-range value offset falls back to mtime",
			data: exiftest.RawTIFF([]exiftest.Entry{
				{Tag: exiftest.TagDateTime, Type: exiftest.TypeASCII, Count: 20, Value: 4096},
			}, 0, nil),
			wantTime:    mtime,
			wantSource:  SourceMtime,
			wantApprox:  true,
			wantWarning: true,
		},
		{
			name:        "no metadata falls back to mtime",
			data:        []byte("plain bytes"),
			wantTime:    mtime,
			wantSource:  SourceMtime,
			wantApprox:  true,
			wantWarning: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "a.jpg")
			writeFileWithMTime(t, path, tc.data, mtime)

			logger, hook := quietLogger()
			res, err := Resolve(path, media.Photo, Options{Logger: logger})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !res.CaptureTime.Equal(tc.wantTime) {
				t.Fatalf("unexpected CaptureTime\n got: %v\nwant: %v", res.CaptureTime, tc.wantTime)
			}
			if res.Source != tc.wantSource {
				t.Fatalf("source = %q, want %q", res.Source, tc.wantSource)
			}
			if res.Approximate != tc.wantApprox {
				t.Fatalf("approximate = %v, want %v", res.Approximate, tc.wantApprox)
			}

			warned := false
			for _, e := range hook.AllEntries() {
				if e.Level == logrus.WarnLevel {
					warned = true
				}
			}
			if warned != tc.wantWarning {
				t.Fatalf("warning logged = %v, want %v", warned, tc.wantWarning)
			}
		})
	}
}

func TestResolve_VideoAlwaysUsesMtime(t *testing.T) {
	mtime := time.Date(2019, 9, 9, 9, 9, 9, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "clip.mp4")
	// Even a valid EXIF blob is ignored for videos.
	writeFileWithMTime(t, path, exiftest.TIFF(exiftest.Original(time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC))), mtime)

	logger, _ := quietLogger()
	res, err := Resolve(path, media.Video, Options{Logger: logger})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.CaptureTime.Equal(mtime) || res.Source != SourceMtime || !res.Approximate {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestResolve_ExtractorErrorFallsBackToMtime(t *testing.T) {
	mtime := time.Date(2022, 2, 2, 0, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "a.jpg")
	writeFileWithMTime(t, path, []byte("x"), mtime)

	logger, _ := quietLogger()
	metadata := &fakeMetadataExtractor{
		createdAt: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		source:    SourceExifOriginal,
		found:     true,
		err:       errors.New("boom"),
	}
	res, err := Resolve(path, media.Photo, Options{Logger: logger, Metadata: metadata})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if metadata.calls != 1 {
		t.Fatalf("expected extractor to be called once, got %d", metadata.calls)
	}
	if !res.CaptureTime.Equal(mtime) || res.Source != SourceMtime || !res.Approximate {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestResolve_MissingFileReturnsError(t *testing.T) {
	logger, _ := quietLogger()
	path := filepath.Join(t.TempDir(), "missing.jpg")

	for _, c := range []media.Category{media.Photo, media.Video} {
		_, err := Resolve(path, c, Options{Logger: logger})
		if err == nil {
			t.Fatalf("%v: expected error, got nil", c)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			t.Fatalf("%v: expected fs.ErrNotExist, got %v", c, err)
		}
	}
}

func TestResolve_UnknownCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.jpg")
	writeFileWithMTime(t, path, []byte("x"), time.Now())

	if _, err := Resolve(path, media.Category(0), Options{}); err == nil {
		t.Fatalf("expected error for unknown category")
	}
}

type fakeMetadataExtractor struct {
	createdAt time.Time
	source    Source
	found     bool
	err       error

	calls int
}

func (f *fakeMetadataExtractor) CaptureTime(path string, r io.Reader) (time.Time, Source, bool, error) {
	f.calls++
	_, _ = io.ReadAll(r)
	return f.createdAt, f.source, f.found, f.err
}
