package imgutil

import (
	"bytes"
	"errors"
	"io"
	"os"
)

// Kind identifies a supported image type.
type Kind int

const (
	KindUnknown Kind = iota
	KindJPEG
	KindPNG
	KindGIF
	KindSVG
)

func (k Kind) String() string {
	switch k {
	case KindJPEG:
		return "jpeg"
	case KindPNG:
		return "png"
	case KindGIF:
		return "gif"
	case KindSVG:
		return "svg"
	default:
		return "unknown"
	}
}

// Ext returns the conventional file extension for k, including the dot.
func (k Kind) Ext() string {
	switch k {
	case KindJPEG:
		return ".jpg"
	case KindPNG:
		return ".png"
	case KindGIF:
		return ".gif"
	case KindSVG:
		return ".svg"
	default:
		return ""
	}
}

// SniffLen is the number of leading bytes inspected by SniffReader.
const SniffLen = 512

var (
	pngSig    = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	jpegSig   = []byte{0xff, 0xd8, 0xff}
	gif87Sig  = []byte("GIF87a")
	gif89Sig  = []byte("GIF89a")
	svgTag    = []byte("<svg")
	xmlPrefix = []byte("<?xml")
	utf8BOM   = []byte{0xef, 0xbb, 0xbf}
)

// DetectHeader inspects the leading bytes of a file for known signatures.
func DetectHeader(header []byte) Kind {
	if hasPrefix(header, jpegSig) {
		return KindJPEG
	}
	if hasPrefix(header, pngSig) {
		return KindPNG
	}
	if hasPrefix(header, gif87Sig) || hasPrefix(header, gif89Sig) {
		return KindGIF
	}

	text := bytes.TrimLeft(bytes.TrimPrefix(header, utf8BOM), " \t\r\n")
	if hasPrefix(text, svgTag) {
		return KindSVG
	}
	if hasPrefix(text, xmlPrefix) && bytes.Contains(text, svgTag) {
		return KindSVG
	}

	return KindUnknown
}

// SniffFile reads the head of a file to determine its type.
func SniffFile(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, err
	}
	defer f.Close()

	return SniffReader(f)
}

// SniffReader reads up to SniffLen bytes from r and determines its type.
// Inputs shorter than that are inspected as far as they go.
func SniffReader(r io.Reader) (Kind, error) {
	header := make([]byte, SniffLen)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return KindUnknown, err
	}

	return DetectHeader(header[:n]), nil
}

func hasPrefix(buf, prefix []byte) bool {
	return bytes.HasPrefix(buf, prefix)
}
