// Package reconcile decides whether a source file matches a file that already
// occupies its destination name.
package reconcile

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// ChunkSize is the read size used while hashing, which bounds memory per file.
const ChunkSize = 8 * 1024

// Verdict is the outcome of comparing a source against an existing destination.
type Verdict int

const (
	// Different means both files hashed and the digests differ.
	Different Verdict = iota
	// Identical means the byte streams hash to the same digest.
	Identical
	// Unknown means the existing file could not be hashed. Callers treat it as
	// a name collision rather than a duplicate.
	Unknown
)

func (v Verdict) String() string {
	switch v {
	case Different:
		return "different"
	case Identical:
		return "identical"
	case Unknown:
		return "unknown"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// Comparison carries the verdict plus what was learned along the way.
type Comparison struct {
	Verdict    Verdict
	SourceHash string

	// ExistingErr is set when Verdict is Unknown.
	ExistingErr error
}

// HashFile returns the hex-encoded SHA-256 digest of the file's full contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, ChunkSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Compare hashes src and existing.
//
// A source that cannot be hashed is an error. An existing file that cannot be
// hashed yields Unknown with ExistingErr set.
func Compare(src, existing string) (Comparison, error) {
	srcHash, err := HashFile(src)
	if err != nil {
		return Comparison{}, err
	}

	dstHash, err := HashFile(existing)
	if err != nil {
		return Comparison{Verdict: Unknown, SourceHash: srcHash, ExistingErr: err}, nil
	}

	if srcHash == dstHash {
		return Comparison{Verdict: Identical, SourceHash: srcHash}, nil
	}
	return Comparison{Verdict: Different, SourceHash: srcHash}, nil
}
