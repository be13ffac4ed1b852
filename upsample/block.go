// Package upsample expands coarse per-block predictions to full resolution.
package upsample

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrBlockSize is returned when the output size is not a multiple of the
	// block size.
	ErrBlockSize = errors.New("upsample: output size not divisible by block size")
	// ErrGrid is returned when the coarse grid does not have one cell per block.
	ErrGrid = errors.New("upsample: coarse grid does not match block layout")
)

// Steps returns the number of blocks per side.
func Steps(outSize, blockSize int) (int, error) {
	if blockSize < 1 || outSize < 1 || outSize%blockSize != 0 {
		return 0, fmt.Errorf("%w: output %d, block %d", ErrBlockSize, outSize, blockSize)
	}
	return outSize / blockSize, nil
}

// Blocks replicates every cell (j, i) of coarse across the blockSize x blockSize
// region at rows [j*blockSize, (j+1)*blockSize) and columns
// [i*blockSize, (i+1)*blockSize) of an outSize x outSize image.
func Blocks(coarse *mat.Dense, outSize, blockSize int) (*mat.Dense, error) {
	steps, err := Steps(outSize, blockSize)
	if err != nil {
		return nil, err
	}
	r, c := coarse.Dims()
	if r != steps || c != steps {
		return nil, fmt.Errorf("%w: got %dx%d, want %dx%d", ErrGrid, r, c, steps, steps)
	}

	out := mat.NewDense(outSize, outSize, nil)
	for i := 0; i < steps; i++ {
		for j := 0; j < steps; j++ {
			v := coarse.At(j, i)
			block := out.Slice(j*blockSize, (j+1)*blockSize, i*blockSize, (i+1)*blockSize).(*mat.Dense)
			block.Apply(func(_, _ int, _ float64) float64 { return v }, block)
		}
	}

	return out, nil
}
