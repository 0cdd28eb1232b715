package worker

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPNGStripDropsMetadata(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "sample.png")
	dst := filepath.Join(dir, "out.png")
	require.NoError(t, buildPNGWithMetadata(src))

	w, err := newPNGStrip(Options{"preserve_icc": false}, Env{})
	require.NoError(t, err)

	ok, err := w.Optimize(context.Background(), src, dst)
	require.NoError(t, err)
	require.True(t, ok)

	out, err := os.ReadFile(dst)
	require.NoError(t, err)
	for _, chunk := range []string{"tEXt", "tIME", "eXIf"} {
		assert.NotContains(t, string(out), chunk)
	}
	assert.Less(t, len(out), fileSize(t, src))

	_, err = png.Decode(bytes.NewReader(out))
	assert.NoError(t, err)
}

func TestJPEGStripDropsExif(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "sample.jpg")
	dst := filepath.Join(dir, "out.jpg")
	require.NoError(t, buildJPEGWithExif(src, buildExifTIFF()))

	w, err := newJPEGStrip(Options{"keep_rotated": true}, Env{})
	require.NoError(t, err)

	ok, err := w.Optimize(context.Background(), src, dst)
	require.NoError(t, err)
	require.True(t, ok)

	out, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff, 0xd9}, out)
}

func TestJPEGStripKeepsRotated(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "rotated.jpg")
	dst := filepath.Join(dir, "out.jpg")
	require.NoError(t, buildJPEGWithExif(src, buildOrientationTIFF(6)))

	w, err := newJPEGStrip(Options{"keep_rotated": true}, Env{})
	require.NoError(t, err)
	ok, err := w.Optimize(context.Background(), src, dst)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoFileExists(t, dst)

	w, err = newJPEGStrip(Options{"keep_rotated": false}, Env{})
	require.NoError(t, err)
	ok, err = w.Optimize(context.Background(), src, dst)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPNGEncodeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.png")
	dst := filepath.Join(dir, "out.png")
	require.NoError(t, writePNG(src, png.NoCompression))

	w, err := newPNGEncode(Options{"level": 3}, Env{})
	require.NoError(t, err)
	ok, err := w.Optimize(context.Background(), src, dst)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Less(t, fileSize(t, dst), fileSize(t, src))

	_, err = newPNGEncode(Options{"level": 9}, Env{})
	var optErr *OptionError
	require.ErrorAs(t, err, &optErr)
	assert.Equal(t, "level", optErr.Option)
}

func TestPNGEncodeLeavesAnimationAlone(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "anim.png")
	dst := filepath.Join(dir, "out.png")
	require.NoError(t, writePNG(src, png.NoCompression))

	frame := make([]byte, 26)
	binary.BigEndian.PutUint32(frame[4:], 64)
	binary.BigEndian.PutUint32(frame[8:], 64)
	require.NoError(t, insertPNGChunks(src, ihdrEnd,
		buildPNGChunk("acTL", []byte{0, 0, 0, 2, 0, 0, 0, 0}),
		buildPNGChunk("gAMA", []byte{0, 0, 0xb1, 0x8f}),
		buildPNGChunk("fcTL", frame),
	))

	w, err := newPNGEncode(Options{"level": 3}, Env{})
	require.NoError(t, err)
	ok, err := w.Optimize(context.Background(), src, dst)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoFileExists(t, dst)
}

func TestPNGEncodeKeepsColourChunks(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "gamma.png")
	dst := filepath.Join(dir, "out.png")
	require.NoError(t, writePNG(src, png.NoCompression))
	require.NoError(t, insertPNGChunks(src, ihdrEnd,
		buildPNGChunk("gAMA", []byte{0, 0, 0xb1, 0x8f}),
		buildPNGChunk("tEXt", []byte("Model\x00TestCam")),
	))

	w, err := newPNGEncode(Options{"level": 3}, Env{})
	require.NoError(t, err)
	ok, err := w.Optimize(context.Background(), src, dst)
	require.NoError(t, err)
	require.True(t, ok)

	out, err := os.ReadFile(dst)
	require.NoError(t, err)
	gama := buildPNGChunk("gAMA", []byte{0, 0, 0xb1, 0x8f})
	assert.Equal(t, gama, out[ihdrEnd:ihdrEnd+len(gama)])
	assert.NotContains(t, string(out), "tEXt")
	assert.Less(t, len(out), fileSize(t, src))

	_, err = png.Decode(bytes.NewReader(out))
	assert.NoError(t, err)
}

func TestJPEGRecompressDownscales(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "wide.jpg")
	dst := filepath.Join(dir, "out.jpg")

	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: uint8(y * 12), A: 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}))
	require.NoError(t, os.WriteFile(src, buf.Bytes(), 0o644))

	w, err := newJPEGRecompress(Options{"max_quality": 70, "max_size": 10}, Env{})
	require.NoError(t, err)
	ok, err := w.Optimize(context.Background(), src, dst)
	require.NoError(t, err)
	require.True(t, ok)

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Width)
	assert.Equal(t, 5, cfg.Height)
}

func TestExternalWorkerMissingBinary(t *testing.T) {
	env := Env{LookPath: func(string) (string, error) { return "", errors.New("not found") }}

	d, ok := Lookup(Catalog(), "optipng")
	require.True(t, ok)

	_, err := d.New(d.Defaults(), env)
	assert.ErrorIs(t, err, ErrBinaryNotFound)
}

func TestExternalCommandLine(t *testing.T) {
	env := Env{
		Nice:     10,
		LookPath: func(name string) (string, error) { return "/usr/bin/" + name, nil },
	}
	d, ok := Lookup(Catalog(), "optipng")
	require.True(t, ok)

	opts := d.Defaults()
	opts["interlace"] = false
	w, err := d.New(opts, env)
	require.NoError(t, err)

	name, args := w.(*command).commandLine("in.png", "out.png")
	assert.Equal(t, "/usr/bin/nice", name)
	assert.Equal(t, []string{"-n", "10", "/usr/bin/optipng", "-o6", "-quiet", "-i0", "-strip", "all", "--", "out.png"}, args)
}

func TestJPEGOptimRejectsUnknownStrip(t *testing.T) {
	env := Env{LookPath: func(name string) (string, error) { return "/bin/" + name, nil }}
	opts := Options{"strip": []string{"all", "gps"}, "max_quality": 100}

	_, err := newJPEGOptim(opts, env)
	var optErr *OptionError
	require.ErrorAs(t, err, &optErr)
	assert.Equal(t, "strip", optErr.Option)
}

func TestDefaultDescription(t *testing.T) {
	tests := []struct {
		def  OptionDefinition
		want string
	}{
		{OptionDefinition{Kind: KindBool, Default: true}, "true"},
		{OptionDefinition{Kind: KindOptionalBool}, "unset"},
		{OptionDefinition{Kind: KindInt, Default: 6}, "6"},
		{OptionDefinition{Kind: KindList, Default: []string{"all"}}, "all"},
		{OptionDefinition{Kind: KindList, Default: []string{}}, "none"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.def.DefaultDescription())
	}
}

func TestKeepPNGChunk(t *testing.T) {
	for _, chunk := range []string{"IHDR", "PLTE", "IDAT", "IEND", "tRNS", "gAMA", "acTL"} {
		assert.True(t, keepPNGChunk(chunk, false), chunk)
	}
	for _, chunk := range []string{"tEXt", "zTXt", "iTXt", "eXIf", "tIME", "pHYs", "bKGD"} {
		assert.False(t, keepPNGChunk(chunk, false), chunk)
	}
	assert.False(t, keepPNGChunk("iCCP", false))
	assert.True(t, keepPNGChunk("iCCP", true))
}

func TestStripPNGRequiresIEND(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(pngSignature)
	buf.Write(buildPNGChunk("tEXt", []byte("a\x00b")))

	err := stripPNG(&buf, &bytes.Buffer{}, false)
	assert.ErrorIs(t, err, errTruncatedPNG)
}

func TestStripJPEGDropsComments(t *testing.T) {
	var in bytes.Buffer
	in.Write([]byte{0xff, 0xd8})
	in.Write([]byte{0xff, 0xfe, 0x00, 0x07})
	in.WriteString("hello")
	in.Write([]byte{0xff, 0xe0, 0x00, 0x04, 0x4a, 0x46})
	in.Write([]byte{0xff, 0xd9})

	var out bytes.Buffer
	require.NoError(t, stripJPEG(&in, &out, false))
	assert.Equal(t, []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x04, 0x4a, 0x46, 0xff, 0xd9}, out.Bytes())
}

func TestStripJPEGRejectsGarbage(t *testing.T) {
	err := stripJPEG(bytes.NewReader([]byte{0xff, 0xd8, 0x00, 0x01}), &bytes.Buffer{}, false)
	assert.ErrorIs(t, err, errCorruptJPEG)
}

func fileSize(t *testing.T, path string) int {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return int(info.Size())
}

func writePNG(path string, level png.CompressionLevel) error {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for x := 0; x < 64; x++ {
		for y := 0; y < 64; y++ {
			img.Set(x, y, color.RGBA{R: 0x20, G: 0x40, B: 0x80, A: 0xff})
		}
	}
	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: level}
	if err := encoder.Encode(&buf, img); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func buildJPEGWithExif(path string, tiff []byte) error {
	exif := append([]byte("Exif\x00\x00"), tiff...)

	var buf bytes.Buffer
	buf.Write([]byte{0xff, 0xd8})
	buf.Write([]byte{0xff, 0xe1})
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(exif)+2))
	buf.Write(exif)
	buf.Write([]byte{0xff, 0xd9})

	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func buildExifTIFF() []byte {
	var tiff bytes.Buffer
	tiff.Write([]byte{0x49, 0x49, 0x2a, 0x00})
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0110))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(38))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0132))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(20))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(46))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(0))
	tiff.Write([]byte("TestCam\x00"))
	tiff.Write([]byte("2024:01:02 03:04:05\x00"))
	return tiff.Bytes()
}

func buildOrientationTIFF(orientation uint16) []byte {
	var tiff bytes.Buffer
	tiff.Write([]byte{0x49, 0x49, 0x2a, 0x00})
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(1))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0112))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(3))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(1))
	_ = binary.Write(&tiff, binary.LittleEndian, orientation)
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(0))
	return tiff.Bytes()
}

func buildPNGWithMetadata(path string) error {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 0xff, A: 0xff})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	data := buf.Bytes()
	if len(data) < 12 || string(data[len(data)-8:len(data)-4]) != "IEND" {
		return os.ErrInvalid
	}

	textChunk := buildPNGChunk("tEXt", []byte("Model\x00TestCam"))
	timeChunk := buildPNGChunk("tIME", []byte{0x07, 0xE8, 0x01, 0x02, 0x03, 0x04, 0x05})
	exifChunk := buildPNGChunk("eXIf", buildExifTIFF())

	insertAt := len(data) - 12
	out := append([]byte{}, data[:insertAt]...)
	out = append(out, textChunk...)
	out = append(out, timeChunk...)
	out = append(out, exifChunk...)
	out = append(out, data[insertAt:]...)

	return os.WriteFile(path, out, 0o644)
}

func insertPNGChunks(path string, at int, chunks ...[]byte) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out := append([]byte{}, data[:at]...)
	for _, chunk := range chunks {
		out = append(out, chunk...)
	}
	out = append(out, data[at:]...)
	return os.WriteFile(path, out, 0o644)
}

func buildPNGChunk(chunkType string, data []byte) []byte {
	chunkTypeBytes := []byte(chunkType)
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(data)))
	crc := crc32.ChecksumIEEE(append(chunkTypeBytes, data...))
	crcBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(crcBuf, crc)

	chunk := make([]byte, 0, 12+len(data))
	chunk = append(chunk, lenBuf...)
	chunk = append(chunk, chunkTypeBytes...)
	chunk = append(chunk, data...)
	chunk = append(chunk, crcBuf...)
	return chunk
}
