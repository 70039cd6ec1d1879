package service

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"palette-agent/internal/kmeans"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// ErrBadImage marks uploads that could not be decoded.
var ErrBadImage = errors.New("invalid image")

// SamplePoints decodes an image, downsamples it to width x height and returns
// one point per pixel in row-major order with channels normalized to [0,1].
// The clustering engine never sees the original resolution; the fixed sample
// size bounds its cost regardless of the upload.
func SamplePoints(imageBytes []byte, width, height int) ([]kmeans.Point, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New("sample dimensions must be > 0")
	}
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImage, err)
	}
	resized := imaging.Resize(img, width, height, imaging.Lanczos)

	points := make([]kmeans.Point, 0, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			points = append(points, kmeans.Point{
				float64(r>>8) / 255.0,
				float64(g>>8) / 255.0,
				float64(b>>8) / 255.0,
			})
		}
	}
	return points, nil
}
