package patch

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Width returns the side of the square patches stored in the rows of
// patches.
func Width(patches *mat.Dense) (int, error) {
	_, c := patches.Dims()
	p := int(math.Sqrt(float64(c)) + 0.5)
	if p < 1 || p*p != c {
		return 0, fmt.Errorf("%w: %d columns is not a square patch", ErrShape, c)
	}
	return p, nil
}

// OverlapCounts returns, for every pixel of a size x size image, how many
// unit-stride patchSize patches cover it.
func OverlapCounts(size, patchSize int) (*mat.Dense, error) {
	if patchSize < 1 {
		return nil, fmt.Errorf("%w: invalid patch size %d", ErrShape, patchSize)
	}
	if size < patchSize {
		return nil, fmt.Errorf("%w: image %d, patch %d", ErrImageTooSmall, size, patchSize)
	}

	k := PerSide(size, patchSize)
	n := mat.NewDense(size, size, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			addConst(n.Slice(i, i+patchSize, j, j+patchSize).(*mat.Dense), 1)
		}
	}
	return n, nil
}

// Reconstruct rebuilds a size x size image from its patches. Pixels covered
// by several patches get the mean of all their contributions.
//
// patches must hold exactly PerImage(size, p) rows in raster order, where p
// is the patch width derived from the column count.
func Reconstruct(patches *mat.Dense, size int) (*mat.Dense, error) {
	p, err := Width(patches)
	if err != nil {
		return nil, err
	}
	if size < p {
		return nil, fmt.Errorf("%w: image %d, patch %d", ErrImageTooSmall, size, p)
	}

	k := PerSide(size, p)
	rows, _ := patches.Dims()
	if rows != k*k {
		return nil, fmt.Errorf("%w: got %d patches, want %d for image %d and patch %d", ErrShape, rows, k*k, size, p)
	}

	acc := mat.NewDense(size, size, nil)
	n := mat.NewDense(size, size, nil)
	idx := 0
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			block := mat.NewDense(p, p, patches.RawRowView(idx))
			view := acc.Slice(i, i+p, j, j+p).(*mat.Dense)
			view.Add(view, block)
			addConst(n.Slice(i, i+p, j, j+p).(*mat.Dense), 1)
			idx++
		}
	}
	acc.DivElem(acc, n)

	return acc, nil
}

func addConst(m *mat.Dense, v float64) {
	m.Apply(func(_, _ int, x float64) float64 { return x + v }, m)
}
