package model

import (
	"errors"
	"fmt"
	"io/ioutil"

	"gonum.org/v1/gonum/mat"
)

// ErrFeed is returned when a feed was not built by the model it is passed to,
// or was built for the other kind of call.
var ErrFeed = errors.New("model: unexpected feed")

// Echo is a Model with no parameters: it predicts its input. It is useful to
// exercise the pipeline without libtorch.
type Echo struct {
	Steps int // training steps taken
}

type echoFeed struct {
	inputs  *mat.Dense
	targets *mat.Dense
}

func (f *echoFeed) Len() int {
	r, _ := f.inputs.Dims()
	return r
}

// MakeInputs implements Model.
func (e *Echo) MakeInputs(corrupted, clean *mat.Dense) (Feed, error) {
	ir, ic := corrupted.Dims()
	tr, tc := clean.Dims()
	if ir != tr || ic != tc {
		return nil, fmt.Errorf("%w: inputs %dx%d, targets %dx%d", ErrFeed, ir, ic, tr, tc)
	}
	return &echoFeed{inputs: corrupted, targets: clean}, nil
}

// MakeInputsPredict implements Model.
func (e *Echo) MakeInputsPredict(batch *mat.Dense) (Feed, error) {
	return &echoFeed{inputs: batch}, nil
}

// TrainStep implements Model. The reported loss is the mean squared error
// between inputs and targets.
func (e *Echo) TrainStep(feed Feed) (Summary, error) {
	f, ok := feed.(*echoFeed)
	if !ok || f.targets == nil {
		return nil, ErrFeed
	}

	var d mat.Dense
	d.Sub(f.inputs, f.targets)
	d.MulElem(&d, &d)
	r, c := d.Dims()
	e.Steps++

	return Summary{"loss": mat.Sum(&d) / float64(r*c)}, nil
}

// Predict implements Model.
func (e *Echo) Predict(feed Feed) (*mat.Dense, error) {
	f, ok := feed.(*echoFeed)
	if !ok {
		return nil, ErrFeed
	}
	return mat.DenseCopyOf(f.inputs), nil
}

// Save implements Model. It records the number of steps taken.
func (e *Echo) Save(path string) error {
	return ioutil.WriteFile(path, []byte(fmt.Sprintf("echo steps=%d\n", e.Steps)), 0644)
}
