// Package noise corrupts patch sets for denoising autoencoder training.
package noise

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrCorruptionRate is returned for a corruption rate outside [0, 1].
var ErrCorruptionRate = errors.New("noise: corruption rate must be in [0, 1]")

// Threshold splits pixels into "high" (> Threshold) and "low" classes.
const Threshold = 0.5

// SaltAndPepper returns a corrupted copy of patches. Every pixel is selected
// independently with probability rate; a selected high pixel is set to 0 and
// a selected low pixel is set to 1. patches is left untouched.
func SaltAndPepper(patches *mat.Dense, rate float64, src rand.Source) (*mat.Dense, error) {
	if !(rate >= 0 && rate <= 1) {
		return nil, fmt.Errorf("%w: got %v", ErrCorruptionRate, rate)
	}

	mask := distuv.Bernoulli{P: rate, Src: src}
	out := mat.DenseCopyOf(patches)
	out.Apply(func(_, _ int, v float64) float64 {
		if mask.Rand() == 0 {
			return v
		}
		if v > Threshold {
			return 0
		}
		return 1
	}, out)

	return out, nil
}
