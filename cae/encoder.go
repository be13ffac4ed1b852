package cae

import (
	"fmt"

	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/sugarme/cae/base"
)

// Encoder compresses a batch of patches into a coarse feature map.
type Encoder interface {
	ForwardAll(x *ts.Tensor, train bool) []*ts.Tensor
}

// ConvEncoder is a stack of conv-bn-relu stages, each followed by a 2x2
// max-pool.
type ConvEncoder struct {
	stages []*nn.SequentialT
}

// NewConvEncoder creates one stage per entry of filters, starting from a
// single input channel.
func NewConvEncoder(p *nn.Path, filters []int64) *ConvEncoder {
	var stages []*nn.SequentialT
	cIn := int64(1)
	for i, cOut := range filters {
		stage := base.Conv2dRelu(p.Sub(fmt.Sprintf("stage%d", i)), cIn, cOut, 3, 1, 1)
		stage.AddFn(base.MaxPool2d())
		stages = append(stages, stage)
		cIn = cOut
	}

	return &ConvEncoder{stages: stages}
}

// ForwardAll implements Encoder interface for ConvEncoder. It returns the
// input followed by the output of every stage; the last tensor is the code.
// Only the returned stage outputs are owned by the caller.
func (e *ConvEncoder) ForwardAll(x *ts.Tensor, train bool) []*ts.Tensor {
	features := []*ts.Tensor{x}
	for _, s := range e.stages {
		x = s.ForwardT(x, train)
		features = append(features, x)
	}

	return features
}
