// Package model defines what the training loop needs from a trainable
// denoising model.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Feed is a batch bound to the inputs of a model. A feed is consumed by the
// call it is passed to.
type Feed interface {
	// Len is the number of patches in the batch.
	Len() int
}

// Summary holds the scalar metrics reported by one training step.
type Summary map[string]float64

// Model is a trainable patch denoiser. Patch matrices hold one flattened
// patch per row.
type Model interface {
	// MakeInputs binds a training batch of corrupted inputs and clean targets.
	MakeInputs(corrupted, clean *mat.Dense) (Feed, error)
	// MakeInputsPredict binds an inference batch.
	MakeInputsPredict(batch *mat.Dense) (Feed, error)
	// TrainStep runs one optimizer step on a training feed and reports its
	// metrics.
	TrainStep(feed Feed) (Summary, error)
	// Predict returns the denoised patches of an inference feed, one row per
	// input row.
	Predict(feed Feed) (*mat.Dense, error)
	// Save writes the trainable parameters to path.
	Save(path string) error
}
