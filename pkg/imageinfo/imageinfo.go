// Package imageinfo reads image dimensions from encoded bytes without
// decoding the pixel data.
package imageinfo

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode returns the width, height and format name of data. ok is false when
// data is empty or not in a registered format.
func Decode(data []byte) (width, height int, format string, ok bool) {
	if len(data) == 0 {
		return 0, 0, "", false
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", false
	}
	return cfg.Width, cfg.Height, format, true
}
