package worker

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
)

var (
	jpegExifHeader = []byte("Exif\x00\x00")
	jpegXmpHeader  = []byte("http://ns.adobe.com/xap/1.0/\x00")
	jpegPhotoshop  = []byte("Photoshop 3.0\x00")
	jpegICCHeader  = []byte("ICC_PROFILE\x00")
	jpegDucky      = []byte("Ducky")
)

type jpegStrip struct {
	preserveICC bool
	keepRotated bool
}

func newJPEGStrip(opts Options, _ Env) (Worker, error) {
	return &jpegStrip{
		preserveICC: opts.Bool("preserve_icc"),
		keepRotated: opts.Bool("keep_rotated"),
	}, nil
}

func (w *jpegStrip) Bin() string { return "jpegstrip" }

func (w *jpegStrip) Optimize(ctx context.Context, src, dst string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	in, err := os.Open(src)
	if err != nil {
		return false, err
	}
	defer in.Close()

	if w.keepRotated {
		orientation, err := exifOrientation(in)
		if err != nil {
			return false, err
		}
		// Dropping EXIF would lose the rotation viewers rely on.
		if orientation > 1 {
			return false, nil
		}
		if _, err := in.Seek(0, io.SeekStart); err != nil {
			return false, err
		}
	}

	out, err := os.Create(dst)
	if err != nil {
		return false, err
	}
	if err := stripJPEG(in, out, w.preserveICC); err != nil {
		_ = out.Close()
		return false, err
	}
	return true, out.Close()
}

// exifOrientation returns the EXIF Orientation value, or 0 when absent.
func exifOrientation(rs io.ReadSeeker) (int, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	tags, _, err := exif.GetFlatExifDataUniversalSearchWithReadSeeker(rs, nil, true)
	if err != nil {
		if errorsIsNoExif(err) {
			return 0, nil
		}
		return 0, err
	}

	for _, tag := range tags {
		if tag.TagName != "Orientation" {
			continue
		}
		if values, ok := tag.Value.([]uint16); ok && len(values) > 0 {
			return int(values[0]), nil
		}
	}
	return 0, nil
}

func errorsIsNoExif(err error) bool {
	return errors.Is(err, exif.ErrNoExif) || strings.Contains(err.Error(), exif.ErrNoExif.Error())
}

const (
	markerTEM  = 0x01
	markerRST0 = 0xd0
	markerRST7 = 0xd7
	markerSOI  = 0xd8
	markerEOI  = 0xd9
	markerSOS  = 0xda
	markerAPP1 = 0xe1
	markerAPP2 = 0xe2
	markerAPPC = 0xec
	markerAPPD = 0xed
	markerCOM  = 0xfe
)

var errCorruptJPEG = errors.New("corrupt JPEG stream")

// stripJPEG rewrites a JPEG stream without comments, EXIF, XMP, IPTC and
// (unless preserved) ICC segments. Scan data is copied untouched.
func stripJPEG(r io.Reader, w io.Writer, preserveICC bool) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	var soi [2]byte
	if _, err := io.ReadFull(br, soi[:]); err != nil {
		return err
	}
	if soi != [2]byte{0xff, markerSOI} {
		return fmt.Errorf("%w: missing SOI", errCorruptJPEG)
	}
	if _, err := bw.Write(soi[:]); err != nil {
		return err
	}

	for {
		marker, err := nextMarker(br)
		if err != nil {
			return err
		}

		switch {
		case marker == markerEOI:
			if _, err := bw.Write([]byte{0xff, marker}); err != nil {
				return err
			}
			return bw.Flush()
		case marker == markerSOS:
			// Entropy-coded data runs to the end of the stream.
			if _, err := bw.Write([]byte{0xff, marker}); err != nil {
				return err
			}
			if _, err := io.Copy(bw, br); err != nil {
				return err
			}
			return bw.Flush()
		case marker == markerTEM || (marker >= markerRST0 && marker <= markerRST7):
			if _, err := bw.Write([]byte{0xff, marker}); err != nil {
				return err
			}
			continue
		}

		payload, err := readSegment(br)
		if err != nil {
			return err
		}
		if dropJPEGSegment(marker, payload, preserveICC) {
			continue
		}
		if err := writeSegment(bw, marker, payload); err != nil {
			return err
		}
	}
}

// nextMarker reads a marker, skipping 0xff fill bytes.
func nextMarker(br *bufio.Reader) (byte, error) {
	b, err := br.ReadByte()
	if err != nil {
		return 0, err
	}
	if b != 0xff {
		return 0, fmt.Errorf("%w: expected marker, got 0x%02x", errCorruptJPEG, b)
	}
	for b == 0xff {
		if b, err = br.ReadByte(); err != nil {
			return 0, err
		}
	}
	return b, nil
}

// readSegment returns the payload of a length-prefixed segment.
func readSegment(br *bufio.Reader) ([]byte, error) {
	var size [2]byte
	if _, err := io.ReadFull(br, size[:]); err != nil {
		return nil, err
	}
	n := int(binary.BigEndian.Uint16(size[:]))
	if n < 2 {
		return nil, fmt.Errorf("%w: segment length %d", errCorruptJPEG, n)
	}
	payload := make([]byte, n-2)
	if _, err := io.ReadFull(br, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func writeSegment(w io.Writer, marker byte, payload []byte) error {
	header := []byte{0xff, marker, 0, 0}
	binary.BigEndian.PutUint16(header[2:], uint16(len(payload)+2))
	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func dropJPEGSegment(marker byte, payload []byte, preserveICC bool) bool {
	switch marker {
	case markerCOM:
		return true
	case markerAPP1:
		return bytes.HasPrefix(payload, jpegExifHeader) || bytes.HasPrefix(payload, jpegXmpHeader)
	case markerAPP2:
		return !preserveICC && bytes.HasPrefix(payload, jpegICCHeader)
	case markerAPPC:
		return bytes.HasPrefix(payload, jpegDucky)
	case markerAPPD:
		return bytes.HasPrefix(payload, jpegPhotoshop)
	}
	return false
}
