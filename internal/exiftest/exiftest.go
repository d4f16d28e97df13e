// Package exiftest builds minimal EXIF blobs for tests.
//
// The output is a little-endian TIFF stream, which goexif decodes the same way it
// decodes the APP1 segment of a JPEG, so it can be written to a file named *.jpg.
package exiftest

import (
	"bytes"
	"encoding/binary"
	"os"
	"sort"
	"testing"
	"time"
)

// Tag IDs of the capture-time fields.
const (
	TagDateTime          uint16 = 0x0132
	TagDateTimeOriginal  uint16 = 0x9003
	TagDateTimeDigitized uint16 = 0x9004

	TagExifIFDPointer uint16 = 0x8769

	TypeASCII uint16 = 2
	TypeLong  uint16 = 4
)

// Layout is the EXIF timestamp layout.
const Layout = "2006:01:02 15:04:05"

// Fields maps tag IDs to their ASCII values. A tag missing from the map is omitted;
// a tag mapped to "" is written with an empty value.
type Fields map[uint16]string

// Original is a shorthand for a blob that only carries DateTimeOriginal.
func Original(t time.Time) Fields {
	return Fields{TagDateTimeOriginal: t.Format(Layout)}
}

type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	value []byte // ASCII payload incl. NUL, or a 4-byte LONG
}

// TIFF encodes fields into a TIFF stream. DateTime lives in IFD0; the other two in
// the Exif sub-IFD.
func TIFF(fields Fields) []byte {
	var ifd0, sub []entry
	for tag, v := range fields {
		e := entry{tag: tag, typ: TypeASCII, value: append([]byte(v), 0)}
		e.count = uint32(len(e.value))
		if tag == TagDateTime {
			ifd0 = append(ifd0, e)
		} else {
			sub = append(sub, e)
		}
	}

	const header = 8
	ifdSize := func(n int) int { return 2 + 12*n + 4 }

	n0 := len(ifd0)
	if len(sub) > 0 {
		n0++
	}
	subOffset := header + ifdSize(n0)
	dataOffset := subOffset
	if len(sub) > 0 {
		dataOffset += ifdSize(len(sub))
		ptr := make([]byte, 4)
		binary.LittleEndian.PutUint32(ptr, uint32(subOffset))
		ifd0 = append(ifd0, entry{tag: TagExifIFDPointer, typ: TypeLong, count: 1, value: ptr})
	}

	var data bytes.Buffer
	encode := func(buf *bytes.Buffer, entries []entry) {
		sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })
		_ = binary.Write(buf, binary.LittleEndian, uint16(len(entries)))
		for _, e := range entries {
			_ = binary.Write(buf, binary.LittleEndian, e.tag)
			_ = binary.Write(buf, binary.LittleEndian, e.typ)
			_ = binary.Write(buf, binary.LittleEndian, e.count)
			if len(e.value) <= 4 {
				inline := make([]byte, 4)
				copy(inline, e.value)
				buf.Write(inline)
				continue
			}
			_ = binary.Write(buf, binary.LittleEndian, uint32(dataOffset+data.Len()))
			data.Write(e.value)
		}
		_ = binary.Write(buf, binary.LittleEndian, uint32(0))
	}

	var out bytes.Buffer
	out.WriteString("II")
	_ = binary.Write(&out, binary.LittleEndian, uint16(42))
	_ = binary.Write(&out, binary.LittleEndian, uint32(header))
	encode(&out, ifd0)
	if len(sub) > 0 {
		encode(&out, sub)
	}
	out.Write(data.Bytes())
	return out.Bytes()
}

// Entry is an IFD entry written as is. Value is the raw value-or-offset field.
type Entry struct {
	Tag   uint16
	Type  uint16
	Count uint32
	Value uint32
}

// IFD encodes entries followed by the offset of the next IFD, without checking
// that counts or offsets make sense.
func IFD(entries []Entry, next uint32) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, uint16(len(entries)))
	for _, e := range entries {
		_ = binary.Write(&buf, binary.LittleEndian, e)
	}
	_ = binary.Write(&buf, binary.LittleEndian, next)
	return buf.Bytes()
}

// RawTIFF is a little-endian TIFF header with IFD0 at offset 8, followed by tail.
func RawTIFF(entries []Entry, next uint32, tail []byte) []byte {
	var out bytes.Buffer
	out.WriteString("II")
	_ = binary.Write(&out, binary.LittleEndian, uint16(42))
	_ = binary.Write(&out, binary.LittleEndian, uint32(8))
	out.Write(IFD(entries, next))
	out.Write(tail)
	return out.Bytes()
}

// JPEG wraps a TIFF blob in the APP1 segment of a minimal JPEG stream.
func JPEG(tiff []byte) []byte {
	var out bytes.Buffer
	out.Write([]byte{0xFF, 0xD8})
	// An unrelated APP0 segment first, as cameras write one.
	out.Write([]byte{0xFF, 0xE0, 0x00, 0x07, 'J', 'F', 'I', 'F', 0x00})
	out.Write([]byte{0xFF, 0xE1})
	_ = binary.Write(&out, binary.BigEndian, uint16(2+6+len(tiff)))
	out.WriteString("Exif\x00\x00")
	out.Write(tiff)
	out.Write([]byte{0xFF, 0xDA, 0x00, 0x02, 0xFF, 0xD9})
	return out.Bytes()
}

// WriteFile writes a TIFF blob for fields to path and sets its mtime.
func WriteFile(t testing.TB, path string, fields Fields, mtime time.Time) {
	t.Helper()

	if err := os.WriteFile(path, TIFF(fields), 0o644); err != nil {
		t.Fatalf("write exif fixture: %v", err)
	}
	if !mtime.IsZero() {
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}
}
