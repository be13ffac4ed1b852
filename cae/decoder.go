package cae

import (
	"fmt"
	"log"

	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/sugarme/cae/base"
)

// interpolation using `nearest` algorithm
func upsample(x, ref *ts.Tensor) *ts.Tensor {
	refSize := ref.MustSize()
	return x.MustUpsampleNearest2d(refSize[2:], nil, nil, false)
}

// ConvDecoder mirrors ConvEncoder: every stage upsamples to the spatial size
// of the matching encoder feature and applies conv-bn-relu. There are no skip
// connections, so noise in the input cannot bypass the code.
type ConvDecoder struct {
	stages []*nn.SequentialT
}

// NewConvDecoder creates a decoder for an encoder built with the same
// filters.
func NewConvDecoder(p *nn.Path, filters []int64) *ConvDecoder {
	n := len(filters)
	stages := make([]*nn.SequentialT, n)
	for i := n - 1; i >= 0; i-- {
		cIn := filters[i]
		cOut := filters[0]
		if i > 0 {
			cOut = filters[i-1]
		}
		stages[n-1-i] = base.Conv2dRelu(p.Sub(fmt.Sprintf("stage%d", n-1-i)), cIn, cOut, 3, 1, 1)
	}

	return &ConvDecoder{stages: stages}
}

// ForwardFeatures decodes the last feature back to the size of the first.
func (d *ConvDecoder) ForwardFeatures(features []*ts.Tensor, train bool) *ts.Tensor {
	if len(features) != len(d.stages)+1 {
		log.Fatalf("Expected features of %v tensors. Got %v\n", len(d.stages)+1, len(features))
	}

	x := features[len(features)-1]
	for i, s := range d.stages {
		ref := features[len(features)-2-i]
		up := upsample(x, ref)
		if i > 0 {
			x.MustDrop()
		}
		x = s.ForwardT(up, train)
		up.MustDrop()
	}

	return x
}
