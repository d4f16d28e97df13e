package createdat

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// maxExifBlock caps how much of a bare TIFF or raw EXIF stream is read.
const maxExifBlock = 64 << 20

const (
	jpegSOI  = 0xD8
	jpegEOI  = 0xD9
	jpegSOS  = 0xDA
	jpegAPP1 = 0xE1
)

var exifHeader = []byte("Exif\x00\x00")

// ErrCorruptExif is returned for an EXIF block whose structure cannot be trusted.
var ErrCorruptExif = errors.New("corrupt EXIF block")

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptExif, fmt.Sprintf(format, args...))
}

// exifBlock returns the TIFF-structured EXIF payload of r, or nil when r carries
// none. JPEG streams are walked segment by segment up to the first scan.
func exifBlock(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4)
	if err != nil {
		return nil, nil
	}

	switch {
	case string(head) == "II*\x00" || string(head) == "MM\x00*":
		return readBlock(br)
	case string(head) == "Exif":
		b, err := readBlock(br)
		if err != nil {
			return nil, err
		}
		if !bytes.HasPrefix(b, exifHeader) {
			return nil, corruptf("bad raw EXIF header")
		}
		return b[len(exifHeader):], nil
	case head[0] == 0xFF && head[1] == jpegSOI:
		_, _ = br.Discard(2)
		return jpegExif(br)
	default:
		return nil, nil
	}
}

func readBlock(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, maxExifBlock))
	if err != nil {
		return nil, fmt.Errorf("read EXIF block: %w", err)
	}
	return b, nil
}

func jpegExif(br *bufio.Reader) ([]byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return nil, eofIsAbsence(err)
		}
		if b != 0xFF {
			return nil, corruptf("expected JPEG marker, got 0x%02x", b)
		}

		marker := byte(0xFF)
		for marker == 0xFF {
			if marker, err = br.ReadByte(); err != nil {
				return nil, eofIsAbsence(err)
			}
		}
		switch {
		case marker == jpegSOS || marker == jpegEOI:
			return nil, nil
		case marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7):
			continue
		}

		var size uint16
		if err := binary.Read(br, binary.BigEndian, &size); err != nil {
			return nil, eofIsAbsence(err)
		}
		if size < 2 {
			return nil, corruptf("JPEG segment 0x%02x has length %d", marker, size)
		}

		if marker != jpegAPP1 {
			if _, err := br.Discard(int(size) - 2); err != nil {
				return nil, eofIsAbsence(err)
			}
			continue
		}

		seg := make([]byte, int(size)-2)
		if _, err := io.ReadFull(br, seg); err != nil {
			return nil, eofIsAbsence(err)
		}
		if bytes.HasPrefix(seg, exifHeader) {
			return seg[len(exifHeader):], nil
		}
	}
}

// eofIsAbsence treats a stream that ends before any EXIF segment as having none.
func eofIsAbsence(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nil
	}
	return fmt.Errorf("read JPEG segments: %w", err)
}

// TIFF field types and their element sizes.
var tiffTypeSize = map[uint16]uint64{
	1: 1, 2: 1, 3: 2, 4: 4, 5: 8, 6: 1,
	7: 1, 8: 2, 9: 4, 10: 8, 11: 4, 12: 8,
}

// Pointers to the Exif, GPS and Interoperability sub-IFDs.
var subIFDTags = map[uint16]bool{0x8769: true, 0x8825: true, 0xA005: true}

// checkTIFF verifies that every IFD the EXIF decoder will visit stays inside b:
// entry tables, value ranges and element counts. The top-level IFD chain must
// not loop.
func checkTIFF(b []byte) error {
	if len(b) < 8 {
		return corruptf("TIFF header truncated")
	}

	c := &tiffChecker{b: b, chain: make(map[uint32]bool), subs: make(map[uint32]bool)}
	switch string(b[:2]) {
	case "II":
		c.order = binary.LittleEndian
	case "MM":
		c.order = binary.BigEndian
	default:
		return corruptf("unknown byte order %q", b[:2])
	}
	if c.order.Uint16(b[2:4]) != 42 {
		return corruptf("missing TIFF marker")
	}

	for next := c.order.Uint32(b[4:8]); next != 0; {
		if c.chain[next] {
			return corruptf("IFD chain loops back to offset %d", next)
		}
		c.chain[next] = true

		var err error
		if next, err = c.dir(next); err != nil {
			return err
		}
	}
	return nil
}

type tiffChecker struct {
	b     []byte
	order binary.ByteOrder

	chain map[uint32]bool
	subs  map[uint32]bool
}

// dir checks the IFD at off and the sub-IFDs it points to, and returns the
// offset of the next IFD in the chain.
func (c *tiffChecker) dir(off uint32) (uint32, error) {
	end := uint64(len(c.b))
	start := uint64(off)
	if start+2 > end {
		return 0, corruptf("IFD offset %d past end of %d bytes", off, end)
	}

	n := uint64(c.order.Uint16(c.b[start:]))
	tableEnd := start + 2 + 12*n + 4
	if tableEnd > end {
		return 0, corruptf("IFD at %d with %d entries runs past end of %d bytes", off, n, end)
	}

	for i := uint64(0); i < n; i++ {
		e := c.b[start+2+12*i : start+14+12*i]
		tag := c.order.Uint16(e[0:2])
		typ := c.order.Uint16(e[2:4])
		count := uint64(c.order.Uint32(e[4:8]))

		size := tiffTypeSize[typ] * count
		if size > end {
			return 0, corruptf("tag 0x%04x: %d values of type %d exceed %d bytes", tag, count, typ, end)
		}
		val := e[8:12]
		if size > 4 {
			at := uint64(c.order.Uint32(e[8:12]))
			if at+size > end {
				return 0, corruptf("tag 0x%04x: value at %d+%d past end of %d bytes", tag, at, size, end)
			}
			val = c.b[at : at+size]
		}

		if !subIFDTags[tag] || size == 0 {
			continue
		}
		ptr, ok := c.firstUint(typ, val)
		// Pointers that lead nowhere are skipped by the decoder, so only reachable
		// sub-IFDs need to hold up.
		if !ok || uint64(ptr)+2 > end || c.subs[ptr] {
			continue
		}
		c.subs[ptr] = true
		if _, err := c.dir(ptr); err != nil {
			return 0, err
		}
	}

	return c.order.Uint32(c.b[tableEnd-4 : tableEnd]), nil
}

func (c *tiffChecker) firstUint(typ uint16, val []byte) (uint32, bool) {
	switch typ {
	case 1, 6:
		return uint32(val[0]), true
	case 3, 8:
		return uint32(c.order.Uint16(val)), true
	case 4, 9:
		return c.order.Uint32(val), true
	default:
		return 0, false
	}
}
