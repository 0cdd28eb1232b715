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
)

var pngSignature = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

var (
	errNotPNG       = errors.New("not a PNG stream")
	errTruncatedPNG = errors.New("truncated PNG stream")
)

type pngStrip struct {
	preserveICC bool
}

func newPNGStrip(opts Options, _ Env) (Worker, error) {
	return &pngStrip{preserveICC: opts.Bool("preserve_icc")}, nil
}

func (w *pngStrip) Bin() string { return "pngstrip" }

func (w *pngStrip) Optimize(ctx context.Context, src, dst string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	in, err := os.Open(src)
	if err != nil {
		return false, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return false, err
	}
	if err := stripPNG(in, out, w.preserveICC); err != nil {
		_ = out.Close()
		return false, err
	}
	return true, out.Close()
}

// stripPNG copies a PNG stream keeping critical chunks and the ancillary
// chunks that affect rendering. Everything after IEND is dropped.
func stripPNG(r io.Reader, w io.Writer, preserveICC bool) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	var sig [8]byte
	if _, err := io.ReadFull(br, sig[:]); err != nil {
		return err
	}
	if !bytes.Equal(sig[:], pngSignature) {
		return errNotPNG
	}
	if _, err := bw.Write(sig[:]); err != nil {
		return err
	}

	// header holds the big-endian data length followed by the chunk type.
	var header [8]byte
	for {
		if _, err := io.ReadFull(br, header[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: missing IEND", errTruncatedPNG)
			}
			return err
		}
		chunkType := string(header[4:])
		// data plus trailing CRC
		rest := int64(binary.BigEndian.Uint32(header[:4])) + 4

		if !keepPNGChunk(chunkType, preserveICC) {
			if _, err := io.CopyN(io.Discard, br, rest); err != nil {
				return err
			}
			continue
		}

		if _, err := bw.Write(header[:]); err != nil {
			return err
		}
		if _, err := io.CopyN(bw, br, rest); err != nil {
			return err
		}
		if chunkType == "IEND" {
			return bw.Flush()
		}
	}
}

// renderingChunks are ancillary chunks that change how pixels are shown.
var renderingChunks = map[string]bool{
	"tRNS": true,
	"gAMA": true,
	"cHRM": true,
	"sRGB": true,
	"sBIT": true,
	// APNG animation control
	"acTL": true,
	"fcTL": true,
	"fdAT": true,
}

func keepPNGChunk(chunkType string, preserveICC bool) bool {
	// Critical chunks start with an upper-case letter.
	if chunkType[0] >= 'A' && chunkType[0] <= 'Z' {
		return true
	}
	if chunkType == "iCCP" {
		return preserveICC
	}
	return renderingChunks[chunkType]
}
