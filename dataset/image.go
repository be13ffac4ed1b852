package dataset

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/chai2010/tiff"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/mat"
)

// readImage reads image from file.
func readImage(filename string) (image.Image, error) {
	ext := filepath.Ext(filename)
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch ext {
	case ".png", ".PNG":
		return png.Decode(f)
	case ".jpg", ".jpeg", ".JPG", ".JPEG":
		return jpeg.Decode(f)
	case ".tiff", ".tif", ".TIFF", ".TIF":
		return tiff.Decode(f)
	default:
		err = fmt.Errorf("Unsupported image format: %v\n", ext)
		return nil, err
	}
}

// toGray converts any image into an 8-bit grayscale image with origin (0, 0).
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(gray, image.Point{}, img, b, draw.Src, nil)
	return gray
}

// ToMatrix converts a grayscale image into a matrix of intensities in [0,1].
func ToMatrix(gray *image.Gray) *mat.Dense {
	b := gray.Bounds()
	m := mat.NewDense(b.Dy(), b.Dx(), nil)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			m.Set(y, x, float64(gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y)/255)
		}
	}
	return m
}

// ToImage converts a matrix of intensities into a grayscale image. Values are
// clamped to [0,1].
func ToImage(m *mat.Dense) *image.Gray {
	r, c := m.Dims()
	gray := image.NewGray(image.Rect(0, 0, c, r))
	for y := 0; y < r; y++ {
		for x := 0; x < c; x++ {
			v := m.At(y, x)
			if v < 0 {
				v = 0
			}
			if v > 1 {
				v = 1
			}
			gray.SetGray(x, y, color.Gray{Y: uint8(v*255 + 0.5)})
		}
	}
	return gray
}

// LoadImage reads an image file, converts it to grayscale, resizes it to
// size x size and normalizes it to [0,1].
func LoadImage(filename string, size int) (*mat.Dense, error) {
	img, err := readImage(filename)
	if err != nil {
		return nil, err
	}

	gray := toGray(img)
	b := gray.Bounds()
	if b.Dx() != size || b.Dy() != size {
		gray = toGray(resize.Resize(uint(size), uint(size), gray, resize.Bilinear))
	}

	return ToMatrix(gray), nil
}

// SaveImage writes m as a grayscale image. The format follows the file
// extension.
func SaveImage(m *mat.Dense, filename string) error {
	return imaging.Save(ToImage(m), filename)
}
