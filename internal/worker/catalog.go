package worker

import "imgoptim/pkg/imgutil"

// Catalog returns every known worker. Workers handling the same format run
// in catalog order.
func Catalog() []Descriptor {
	return []Descriptor{
		{
			Bin:     "pngstrip",
			Formats: []imgutil.Kind{imgutil.KindPNG},
			Options: []OptionDefinition{
				{Name: "preserve_icc", Kind: KindBool, Default: false, Description: "Keep the embedded iCCP color profile chunk"},
			},
			New: newPNGStrip,
		},
		{
			Bin:     "pngencode",
			Formats: []imgutil.Kind{imgutil.KindPNG},
			Options: []OptionDefinition{
				{Name: "level", Kind: KindInt, Default: 3, Description: "Deflate effort: 0 - store only, 1 - fastest, 2 - default, 3 - best"},
			},
			New: newPNGEncode,
		},
		{
			Bin:      "optipng",
			Formats:  []imgutil.Kind{imgutil.KindPNG},
			External: true,
			Options: []OptionDefinition{
				{Name: "level", Kind: KindInt, Default: 6, Description: "Optimization level preset: 0 is least, 7 is best"},
				{Name: "interlace", Kind: KindOptionalBool, Default: nil, Description: "Interlace: true - interlace, false - remove interlace, unset - keep as is"},
				{Name: "strip", Kind: KindBool, Default: true, Description: "Remove all auxiliary chunks"},
			},
			New: newOptiPNG,
		},
		{
			Bin:     "jpegrecompress",
			Formats: []imgutil.Kind{imgutil.KindJPEG},
			Lossy:   true,
			Options: []OptionDefinition{
				{Name: "max_quality", Kind: KindInt, Default: 85, Description: "JPEG quality used when re-encoding, 1 to 100"},
				{Name: "max_size", Kind: KindInt, Default: 0, Description: "Downscale so the longest side is at most this many pixels, 0 keeps the size"},
			},
			New: newJPEGRecompress,
		},
		{
			Bin:     "jpegstrip",
			Formats: []imgutil.Kind{imgutil.KindJPEG},
			Options: []OptionDefinition{
				{Name: "preserve_icc", Kind: KindBool, Default: false, Description: "Keep the embedded ICC color profile segment"},
				{Name: "keep_rotated", Kind: KindBool, Default: true, Description: "Leave files untouched when their EXIF Orientation is not the default, since stripping would lose the rotation"},
			},
			New: newJPEGStrip,
		},
		{
			Bin:      "jpegoptim",
			Formats:  []imgutil.Kind{imgutil.KindJPEG},
			External: true,
			Options: []OptionDefinition{
				{Name: "strip", Kind: KindList, Default: []string{"all"}, Description: "List of markers to strip: `all`, `com`, `exif`, `iptc`, `icc` or `xmp`"},
				{Name: "max_quality", Kind: KindInt, Default: 100, Description: "Maximum image quality factor 0..100, ignored unless allow_lossy is set"},
				{Name: "allow_lossy", Kind: KindBool, Default: false, Description: "Allow lossy recompression with max_quality"},
			},
			New: newJPEGOptim,
		},
		{
			Bin:      "gifsicle",
			Formats:  []imgutil.Kind{imgutil.KindGIF},
			External: true,
			Options: []OptionDefinition{
				{Name: "interlace", Kind: KindBool, Default: false, Description: "Interlace: true - interlace, false - remove interlace"},
				{Name: "level", Kind: KindInt, Default: 3, Description: "Compression level: 1 - light and fast, 2 - normal, 3 - heavy (slower)"},
				{Name: "careful", Kind: KindBool, Default: false, Description: "Avoid bugs with some software"},
			},
			New: newGifsicle,
		},
		{
			Bin:      "svgo",
			Formats:  []imgutil.Kind{imgutil.KindSVG},
			External: true,
			Options: []OptionDefinition{
				{Name: "disable_plugins", Kind: KindList, Default: []string{}, Description: "List of plugins to disable"},
				{Name: "enable_plugins", Kind: KindList, Default: []string{}, Description: "List of plugins to enable"},
			},
			New: newSVGO,
		},
	}
}

// Lookup returns the descriptor for bin from descriptors.
func Lookup(descriptors []Descriptor, bin string) (Descriptor, bool) {
	for _, d := range descriptors {
		if d.Bin == bin {
			return d, true
		}
	}
	return Descriptor{}, false
}
