package main

import (
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSaveMontage(t *testing.T) {
	black := mat.NewDense(4, 4, nil)
	white := mat.NewDense(4, 4, nil)
	white.Apply(func(_, _ int, _ float64) float64 { return 1 }, white)

	filename := filepath.Join(t.TempDir(), "montage.png")
	err := saveMontage([][]*mat.Dense{{black, white, black}, {white}}, 10, filename)
	require.NoError(t, err)

	img, err := imaging.Open(filename)
	require.NoError(t, err)
	require.Equal(t, 30, img.Bounds().Dx())
	require.Equal(t, 20, img.Bounds().Dy())

	r, _, _, _ := img.At(5, 5).RGBA()
	require.Equal(t, uint32(0), r)
	r, _, _, _ = img.At(15, 5).RGBA()
	require.Equal(t, uint32(0xffff), r)
	// missing cell stays white
	r, _, _, _ = img.At(25, 15).RGBA()
	require.Equal(t, uint32(0xffff), r)

	require.Error(t, saveMontage(nil, 10, filename))
}
