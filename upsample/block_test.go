package upsample_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/sugarme/cae/upsample"
)

// blockMean averages every blockSize x blockSize block of img.
func blockMean(img *mat.Dense, blockSize int) *mat.Dense {
	size, _ := img.Dims()
	steps := size / blockSize
	out := mat.NewDense(steps, steps, nil)
	for j := 0; j < steps; j++ {
		for i := 0; i < steps; i++ {
			b := img.Slice(j*blockSize, (j+1)*blockSize, i*blockSize, (i+1)*blockSize)
			out.Set(j, i, mat.Sum(b)/float64(blockSize*blockSize))
		}
	}
	return out
}

func TestBlocks(t *testing.T) {
	coarse := mat.NewDense(2, 2, []float64{
		1, 2,
		3, 4,
	})
	got, err := upsample.Blocks(coarse, 4, 2)
	require.NoError(t, err)

	want := mat.NewDense(4, 4, []float64{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	})
	require.True(t, mat.Equal(want, got))
}

func TestBlockConstantRoundTrip(t *testing.T) {
	for _, tc := range []struct{ out, block int }{{400, 8}, {608, 16}} {
		steps := tc.out / tc.block
		rng := rand.New(rand.NewSource(uint64(tc.out)))
		coarse := mat.NewDense(steps, steps, nil)
		coarse.Apply(func(_, _ int, _ float64) float64 { return float64(rng.Intn(2)) }, coarse)

		full, err := upsample.Blocks(coarse, tc.out, tc.block)
		require.NoError(t, err)

		again, err := upsample.Blocks(blockMean(full, tc.block), tc.out, tc.block)
		require.NoError(t, err)
		require.True(t, mat.Equal(full, again))
	}
}

func TestBlocksErrors(t *testing.T) {
	_, err := upsample.Blocks(mat.NewDense(3, 3, nil), 10, 3)
	require.True(t, errors.Is(err, upsample.ErrBlockSize))

	_, err = upsample.Blocks(mat.NewDense(3, 3, nil), 8, 2)
	require.True(t, errors.Is(err, upsample.ErrGrid))

	_, err = upsample.Steps(8, 0)
	require.True(t, errors.Is(err, upsample.ErrBlockSize))
}
