package worker

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"

	"github.com/disintegration/imageorient"
	"github.com/nfnt/resize"
)

type jpegRecompress struct {
	quality int
	maxSize int
}

func newJPEGRecompress(opts Options, _ Env) (Worker, error) {
	w := &jpegRecompress{quality: opts.Int("max_quality"), maxSize: opts.Int("max_size")}
	if err := intInRange("jpegrecompress", "max_quality", w.quality, 1, 100); err != nil {
		return nil, err
	}
	if w.maxSize < 0 {
		return nil, &OptionError{Worker: "jpegrecompress", Option: "max_size", Reason: "must not be negative"}
	}
	return w, nil
}

func (w *jpegRecompress) Bin() string { return "jpegrecompress" }

// Optimize re-encodes the image upright, optionally downscaled so that its
// longest side does not exceed maxSize.
func (w *jpegRecompress) Optimize(ctx context.Context, src, dst string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	in, err := os.Open(src)
	if err != nil {
		return false, err
	}
	defer in.Close()

	img, _, err := imageorient.Decode(in)
	if err != nil {
		return false, fmt.Errorf("decode %s: %w", src, err)
	}
	img = w.fit(img)

	out, err := os.Create(dst)
	if err != nil {
		return false, err
	}
	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: w.quality}); err != nil {
		_ = out.Close()
		return false, err
	}
	return true, out.Close()
}

func (w *jpegRecompress) fit(img image.Image) image.Image {
	if w.maxSize == 0 {
		return img
	}
	size := img.Bounds().Size()
	switch {
	case size.X >= size.Y && size.X > w.maxSize:
		return resize.Resize(uint(w.maxSize), 0, img, resize.Lanczos3)
	case size.Y > size.X && size.Y > w.maxSize:
		return resize.Resize(0, uint(w.maxSize), img, resize.Lanczos3)
	}
	return img
}
