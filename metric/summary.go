package metric

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// Aggregate is the mean and sample standard deviation of a set of scores.
type Aggregate struct {
	Mean, Std Score
}

// Summarize aggregates the scores of several images. A single score has a
// zero standard deviation.
func Summarize(scores []Score) (Aggregate, error) {
	if len(scores) == 0 {
		return Aggregate{}, fmt.Errorf("metric: no scores to summarize")
	}

	cols := make([][]float64, 4)
	for _, s := range scores {
		cols[0] = append(cols[0], s.Dice)
		cols[1] = append(cols[1], s.IoU)
		cols[2] = append(cols[2], s.Accuracy)
		cols[3] = append(cols[3], s.MSE)
	}

	means := make([]float64, len(cols))
	stds := make([]float64, len(cols))
	for i, c := range cols {
		m, err := stats.Mean(c)
		if err != nil {
			return Aggregate{}, fmt.Errorf("metric: mean: %w", err)
		}
		means[i] = m
		if len(c) < 2 {
			continue
		}
		s, err := stats.StandardDeviationSample(c)
		if err != nil {
			return Aggregate{}, fmt.Errorf("metric: standard deviation: %w", err)
		}
		stds[i] = s
	}

	return Aggregate{
		Mean: Score{Dice: means[0], IoU: means[1], Accuracy: means[2], MSE: means[3]},
		Std:  Score{Dice: stds[0], IoU: stds[1], Accuracy: stds[2], MSE: stds[3]},
	}, nil
}
