// Package imaging turns an uploaded leaf photograph into the float tensor the
// disease classifier was trained on.
package imaging

import (
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DefaultSize is the square edge, in pixels, of the classifier input.
const DefaultSize = 224

// Channels is fixed: every input is converted to RGB.
const Channels = 3

var ErrInvalidImage = errors.New("invalid image")

// Layout is the memory order of the produced tensor.
type Layout string

const (
	NHWC Layout = "NHWC"
	NCHW Layout = "NCHW"
)

// ParseLayout accepts NHWC or NCHW in any case; empty means NHWC.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(NHWC):
		return NHWC, nil
	case string(NCHW):
		return NCHW, nil
	}
	return "", errors.Errorf("unknown tensor layout %q", s)
}

// Decode reads any registered encoding (JPEG, PNG, GIF, BMP, WebP). Undecodable
// or empty images are reported as ErrInvalidImage.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", errors.Wrap(ErrInvalidImage, err.Error())
	}
	if img.Bounds().Empty() {
		return nil, format, errors.Wrap(ErrInvalidImage, "image has no pixels")
	}
	return img, format, nil
}

// ToRGB drops any alpha channel and expands grayscale or paletted input to
// three channels. The result has its origin at (0, 0).
func ToRGB(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			c.A = 0xff
			out.SetNRGBA(x-b.Min.X, y-b.Min.Y, c)
		}
	}
	return out
}

// Normalize converts img to RGB, resizes it to size x size with bicubic
// interpolation and scales 8-bit intensities to [0,1]. The returned slice has
// size*size*3 elements; the caller owns the leading batch dimension of 1.
func Normalize(img image.Image, size int, layout Layout) ([]float32, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errors.Wrap(ErrInvalidImage, "image has no pixels")
	}
	if size <= 0 {
		return nil, errors.Errorf("invalid target size %d", size)
	}

	resized := resize.Resize(uint(size), uint(size), ToRGB(img), resize.Bicubic)
	b := resized.Bounds()
	if b.Dx() != size || b.Dy() != size {
		return nil, errors.Errorf("resize produced %dx%d, want %dx%d", b.Dx(), b.Dy(), size, size)
	}

	plane := size * size
	data := make([]float32, Channels*plane)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, bl, _ := resized.At(b.Min.X+x, b.Min.Y+y).RGBA()
			rgb := [Channels]float32{
				float32(r>>8) / 255.0,
				float32(g>>8) / 255.0,
				float32(bl>>8) / 255.0,
			}

			pixel := y*size + x
			for c, v := range rgb {
				if layout == NCHW {
					data[c*plane+pixel] = v
				} else {
					data[pixel*Channels+c] = v
				}
			}
		}
	}
	return data, nil
}
