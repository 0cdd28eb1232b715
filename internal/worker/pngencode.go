package worker

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"image/png"
	"os"
)

var pngLevels = []png.CompressionLevel{
	png.NoCompression,
	png.BestSpeed,
	png.DefaultCompression,
	png.BestCompression,
}

// ihdrEnd is the offset just past the IHDR chunk the encoder always writes
// first: signature, length and type, 13 bytes of data and the CRC.
const ihdrEnd = 8 + 8 + 13 + 4

// colourChunks are carried over from the source since the encoder never
// writes them. They must precede PLTE and IDAT.
var colourChunks = map[string]bool{
	"gAMA": true,
	"cHRM": true,
	"sRGB": true,
	"iCCP": true,
}

type pngEncode struct {
	level png.CompressionLevel
}

func newPNGEncode(opts Options, _ Env) (Worker, error) {
	level := opts.Int("level")
	if err := intInRange("pngencode", "level", level, 0, len(pngLevels)-1); err != nil {
		return nil, err
	}
	return &pngEncode{level: pngLevels[level]}, nil
}

func (w *pngEncode) Bin() string { return "pngencode" }

// Optimize decodes and re-encodes the image, keeping colour space chunks.
// Animated PNGs are left alone because the decoder only sees the default
// frame.
func (w *pngEncode) Optimize(ctx context.Context, src, dst string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return false, err
	}

	carried, animated := scanPNGHeader(data)
	if animated {
		return false, nil
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return false, fmt.Errorf("decode %s: %w", src, err)
	}

	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: w.level}
	if err := encoder.Encode(&buf, img); err != nil {
		return false, err
	}
	encoded := buf.Bytes()

	out := make([]byte, 0, len(encoded)+len(carried))
	out = append(out, encoded[:ihdrEnd]...)
	out = append(out, carried...)
	out = append(out, encoded[ihdrEnd:]...)
	return true, os.WriteFile(dst, out, 0o644)
}

// scanPNGHeader walks the chunks before the first IDAT, returning the raw
// colour chunks and whether an acTL chunk marks the stream as animated.
// Malformed streams stop the walk; the decoder reports them.
func scanPNGHeader(data []byte) (carried []byte, animated bool) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, false
	}
	for pos := len(pngSignature); pos+8 <= len(data); {
		length := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		chunkType := string(data[pos+4 : pos+8])
		end := pos + 8 + length + 4
		if length < 0 || end > len(data) {
			break
		}
		switch {
		case chunkType == "acTL":
			return nil, true
		case chunkType == "IDAT" || chunkType == "IEND":
			return carried, false
		case colourChunks[chunkType]:
			carried = append(carried, data[pos:end]...)
		}
		pos = end
	}
	return carried, false
}
