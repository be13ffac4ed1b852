package patch_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/sugarme/cae/patch"
)

func TestReconstructInvertsExtract(t *testing.T) {
	for _, tc := range []struct {
		size, patchSize int
	}{
		{1, 1}, {5, 1}, {5, 3}, {5, 5}, {12, 4}, {38, 24},
	} {
		img := randomImage(tc.size, uint64(tc.size*100+tc.patchSize))
		patches, err := patch.Extract(img, tc.patchSize)
		require.NoError(t, err)

		got, err := patch.Reconstruct(patches, tc.size)
		require.NoError(t, err)
		require.True(t, mat.EqualApprox(img, got, 1e-12), "size %d patch %d", tc.size, tc.patchSize)
	}
}

func TestReconstruct50x50Patch24(t *testing.T) {
	img := randomImage(50, 7)
	patches, err := patch.Extract(img, 24)
	require.NoError(t, err)

	rows, cols := patches.Dims()
	require.Equal(t, 729, rows)
	require.Equal(t, 576, cols)

	got, err := patch.Reconstruct(patches, 50)
	require.NoError(t, err)
	require.True(t, mat.EqualApprox(img, got, 1e-12))
}

func TestReconstructAverages(t *testing.T) {
	// 3x3 image from four 2x2 patches; the centre pixel is covered by all four.
	patches := mat.NewDense(4, 4, []float64{
		1, 1, 1, 1,
		2, 2, 2, 2,
		3, 3, 3, 3,
		4, 4, 4, 4,
	})
	got, err := patch.Reconstruct(patches, 3)
	require.NoError(t, err)

	want := mat.NewDense(3, 3, []float64{
		1, 1.5, 2,
		2, 2.5, 3,
		3, 3.5, 4,
	})
	require.True(t, mat.EqualApprox(want, got, 1e-12))
}

func TestReconstructErrors(t *testing.T) {
	_, err := patch.Reconstruct(mat.NewDense(3, 4, nil), 3)
	require.True(t, errors.Is(err, patch.ErrShape))

	_, err = patch.Reconstruct(mat.NewDense(4, 3, nil), 3)
	require.True(t, errors.Is(err, patch.ErrShape))

	_, err = patch.Reconstruct(mat.NewDense(1, 9, nil), 2)
	require.True(t, errors.Is(err, patch.ErrImageTooSmall))
}

func TestOverlapCounts(t *testing.T) {
	size, p := 7, 3
	n, err := patch.OverlapCounts(size, p)
	require.NoError(t, err)

	falloff := func(i int) int {
		v := p
		if i+1 < v {
			v = i + 1
		}
		if size-i < v {
			v = size - i
		}
		return v
	}
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			require.Equal(t, float64(falloff(i)*falloff(j)), n.At(i, j), "pixel %d,%d", i, j)
		}
	}
	require.Equal(t, 1.0, n.At(0, 0))
	require.Equal(t, float64(p*p), n.At(size/2, size/2))

	_, err = patch.OverlapCounts(2, 3)
	require.True(t, errors.Is(err, patch.ErrImageTooSmall))
}
