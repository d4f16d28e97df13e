package reconcile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()

	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestHashFile_KnownDigests(t *testing.T) {
	tmp := t.TempDir()

	testCases := []struct {
		name string
		data []byte
		want string
	}{
		{
			name: "empty file",
			data: nil,
			want: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name: "short content",
			data: []byte("abc"),
			want: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := filepath.Join(tmp, tc.name)
			writeFile(t, p, tc.data)

			got, err := HashFile(p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("unexpected digest\n got: %s\nwant: %s", got, tc.want)
			}
		})
	}
}

func TestHashFile_SpansChunks(t *testing.T) {
	tmp := t.TempDir()
	big := bytes.Repeat([]byte("0123456789abcdef"), ChunkSize/4) // four chunks

	a := filepath.Join(tmp, "a")
	b := filepath.Join(tmp, "b")
	writeFile(t, a, big)
	changed := append([]byte(nil), big...)
	changed[len(changed)-1] ^= 0xff
	writeFile(t, b, changed)

	ha, err := HashFile(a)
	if err != nil {
		t.Fatal(err)
	}
	hb, err := HashFile(b)
	if err != nil {
		t.Fatal(err)
	}
	if ha == hb {
		t.Fatalf("expected a change in the last chunk to alter the digest")
	}
}

func TestHashFile_Missing(t *testing.T) {
	if _, err := HashFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestCompare(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src.jpg")
	same := filepath.Join(tmp, "same.jpg")
	other := filepath.Join(tmp, "other.jpg")
	writeFile(t, src, []byte("same"))
	writeFile(t, same, []byte("same"))
	writeFile(t, other, []byte("different"))

	srcHash, err := HashFile(src)
	if err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		name     string
		existing string
		want     Verdict
	}{
		{name: "identical content", existing: same, want: Identical},
		{name: "differing content", existing: other, want: Different},
		{name: "unreadable existing", existing: filepath.Join(tmp, "gone.jpg"), want: Unknown},
		{name: "same path", existing: src, want: Identical},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Compare(src, tc.existing)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Verdict != tc.want {
				t.Fatalf("verdict = %v, want %v", got.Verdict, tc.want)
			}
			if got.SourceHash != srcHash {
				t.Fatalf("unexpected source hash %q", got.SourceHash)
			}
			if (got.ExistingErr != nil) != (tc.want == Unknown) {
				t.Fatalf("unexpected ExistingErr: %v", got.ExistingErr)
			}
		})
	}
}

func TestCompare_SourceFailureIsError(t *testing.T) {
	tmp := t.TempDir()
	existing := filepath.Join(tmp, "existing.jpg")
	writeFile(t, existing, []byte("x"))

	if _, err := Compare(filepath.Join(tmp, "missing.jpg"), existing); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
