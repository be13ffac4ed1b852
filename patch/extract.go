// Package patch cuts square images into unit-stride patches and puts patch
// predictions back together by overlap averaging.
//
// Patches of one image are always laid out in raster order: the patch at
// offset (i, j) is row i*k+j of the patch matrix, where k = size-patchSize+1.
// Reconstruct relies on that order to know where each row belongs.
package patch

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrShape is returned when a matrix does not have the dimensions an
	// operation expects.
	ErrShape = errors.New("patch: shape mismatch")
	// ErrImageTooSmall is returned when the image side is smaller than the
	// patch side, which leaves pixels with no contributing patch.
	ErrImageTooSmall = errors.New("patch: image smaller than patch")
)

// PerSide returns the number of patches per row (and per column) of a
// size x size image cut with unit stride.
func PerSide(size, patchSize int) int {
	return size - patchSize + 1
}

// PerImage returns the number of patches of a size x size image.
func PerImage(size, patchSize int) int {
	k := PerSide(size, patchSize)
	return k * k
}

// Extract slides a patchSize x patchSize window over img with unit stride and
// returns one flattened patch per row, in raster order.
func Extract(img *mat.Dense, patchSize int) (*mat.Dense, error) {
	r, c := img.Dims()
	if r != c {
		return nil, fmt.Errorf("%w: image must be square, got %dx%d", ErrShape, r, c)
	}
	if patchSize < 1 {
		return nil, fmt.Errorf("%w: invalid patch size %d", ErrShape, patchSize)
	}
	if patchSize > r {
		return nil, fmt.Errorf("%w: image %d, patch %d", ErrImageTooSmall, r, patchSize)
	}

	k := PerSide(r, patchSize)
	out := mat.NewDense(k*k, patchSize*patchSize, nil)
	idx := 0
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			dst := out.RawRowView(idx)
			for y := 0; y < patchSize; y++ {
				for x := 0; x < patchSize; x++ {
					dst[y*patchSize+x] = img.At(i+y, j+x)
				}
			}
			idx++
		}
	}

	return out, nil
}

// Rot90 returns img rotated by 90 degrees counter-clockwise.
func Rot90(img *mat.Dense) *mat.Dense {
	r, c := img.Dims()
	out := mat.NewDense(c, r, nil)
	for i := 0; i < c; i++ {
		for j := 0; j < r; j++ {
			out.Set(i, j, img.At(j, c-1-i))
		}
	}
	return out
}

// Stack concatenates the rows of all sets into a single matrix. All sets must
// have the same column count.
func Stack(sets []*mat.Dense) (*mat.Dense, error) {
	if len(sets) == 0 {
		return nil, fmt.Errorf("%w: nothing to stack", ErrShape)
	}

	_, cols := sets[0].Dims()
	rows := 0
	for i, s := range sets {
		r, c := s.Dims()
		if c != cols {
			return nil, fmt.Errorf("%w: set %d has %d columns, want %d", ErrShape, i, c, cols)
		}
		rows += r
	}

	out := mat.NewDense(rows, cols, nil)
	at := 0
	for _, s := range sets {
		r, _ := s.Dims()
		for i := 0; i < r; i++ {
			copy(out.RawRowView(at+i), s.RawRowView(i))
		}
		at += r
	}

	return out, nil
}

// Rows returns a copy of rows [from, to) of m.
func Rows(m *mat.Dense, from, to int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(to-from, c, nil)
	for i := from; i < to; i++ {
		copy(out.RawRowView(i-from), m.RawRowView(i))
	}
	return out
}
