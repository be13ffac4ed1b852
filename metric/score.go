// Package metric scores reconstructed images and keeps the training metrics
// log of a run.
package metric

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Threshold separates foreground from background pixels.
const Threshold = 0.5

func binarize(m *mat.Dense) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if m.At(i, j) > Threshold {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
	}
	return out
}

func overlap(pred, target *mat.Dense) (inter, p, t float64) {
	ps := binarize(pred)
	ts := binarize(target)
	prod := make([]float64, len(ps))
	floats.MulTo(prod, ps, ts)
	return floats.Sum(prod), floats.Sum(ps), floats.Sum(ts)
}

// DiceCoeff is 2|P∩T| / (|P|+|T|) of the foreground masks of pred and target.
// Two empty masks score 1.
func DiceCoeff(pred, target *mat.Dense) float64 {
	inter, p, t := overlap(pred, target)
	if p+t == 0 {
		return 1
	}
	return 2 * inter / (p + t)
}

// IoU is |P∩T| / |P∪T| of the foreground masks. Two empty masks score 1.
func IoU(pred, target *mat.Dense) float64 {
	inter, p, t := overlap(pred, target)
	union := p + t - inter
	if union == 0 {
		return 1
	}
	return inter / union
}

// JaccardIndex is the IoU averaged over the foreground and background classes.
func JaccardIndex(pred, target *mat.Dense) float64 {
	return (IoU(pred, target) + IoU(invert(pred), invert(target))) / 2
}

// invert swaps foreground and background.
func invert(m *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 {
		if v > Threshold {
			return 0
		}
		return 1
	}, m)
	return &out
}

// Accuracy is the fraction of pixels whose class agrees.
func Accuracy(pred, target *mat.Dense) float64 {
	ps := binarize(pred)
	ts := binarize(target)
	same := 0.0
	for i := range ps {
		if ps[i] == ts[i] {
			same++
		}
	}
	return same / float64(len(ps))
}

// MSE is the mean squared error between two images.
func MSE(pred, target *mat.Dense) float64 {
	var d mat.Dense
	d.Sub(pred, target)
	d.MulElem(&d, &d)
	r, c := d.Dims()
	return mat.Sum(&d) / float64(r*c)
}

// PSNR is the peak signal-to-noise ratio in dB for intensities in [0,1].
func PSNR(pred, target *mat.Dense) float64 {
	mse := MSE(pred, target)
	if mse == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(1/mse)
}

// Score collects all scores of one reconstruction.
type Score struct {
	Dice, IoU, Accuracy, MSE float64
}

// Evaluate scores pred against target.
func Evaluate(pred, target *mat.Dense) Score {
	return Score{
		Dice:     DiceCoeff(pred, target),
		IoU:      IoU(pred, target),
		Accuracy: Accuracy(pred, target),
		MSE:      MSE(pred, target),
	}
}
