package publisher

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/nfnt/resize"

	"github.com/desertthunder/cancionero/internal/media"
)

// Downscale shrinks png and jpeg images wider than maxWidth, keeping the aspect ratio.
//
// Anything else (gif animations, undecodable data, images above [media.DefaultMaxPixels],
// maxWidth 0, images already narrow enough) is returned unchanged.
func Downscale(data []byte, ext string, maxWidth uint) []byte {
	if maxWidth == 0 {
		return data
	}

	var encode func(*bytes.Buffer, image.Image) error
	switch ext {
	case ".png":
		encode = func(b *bytes.Buffer, img image.Image) error { return png.Encode(b, img) }
	case ".jpg", ".jpeg":
		encode = func(b *bytes.Buffer, img image.Image) error {
			return jpeg.Encode(b, img, &jpeg.Options{Quality: 90})
		}
	default:
		return data
	}

	img, _, err := media.Decode(bytes.NewReader(data), media.DefaultMaxPixels)
	if err != nil || uint(img.Bounds().Dx()) <= maxWidth {
		return data
	}

	var buf bytes.Buffer
	if err := encode(&buf, resize.Resize(maxWidth, 0, img, resize.Lanczos3)); err != nil {
		return data
	}
	return buf.Bytes()
}
