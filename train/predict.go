package train

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/sugarme/cae/model"
	"github.com/sugarme/cae/patch"
)

// ErrPrediction is returned when a model returns a prediction that does not
// match its batch.
var ErrPrediction = errors.New("train: prediction does not match batch")

// Predict runs m over data in chunks of batchSize rows, followed by one
// smaller chunk for the remainder, and returns the predictions in row order.
func Predict(m model.Model, data *mat.Dense, batchSize int) (*mat.Dense, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("%w: batch size %d", ErrConfig, batchSize)
	}
	n, _ := data.Dims()
	runs := n / batchSize
	rem := n % batchSize

	var predictions []*mat.Dense
	for i := 0; i < runs; i++ {
		p, err := predictBatch(m, patch.Rows(data, i*batchSize, (i+1)*batchSize))
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, p)
	}
	if rem > 0 {
		p, err := predictBatch(m, patch.Rows(data, runs*batchSize, runs*batchSize+rem))
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, p)
	}

	return patch.Stack(predictions)
}

func predictBatch(m model.Model, batch *mat.Dense) (*mat.Dense, error) {
	feed, err := m.MakeInputsPredict(batch)
	if err != nil {
		return nil, err
	}
	p, err := m.Predict(feed)
	if err != nil {
		return nil, err
	}

	br, bc := batch.Dims()
	pr, pc := p.Dims()
	if br != pr || bc != pc {
		return nil, fmt.Errorf("%w: batch %dx%d, prediction %dx%d", ErrPrediction, br, bc, pr, pc)
	}
	return p, nil
}
