package metric_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/sugarme/cae/metric"
	"github.com/sugarme/cae/model"
	"github.com/sugarme/cae/train"
)

func masks() (pred, target *mat.Dense) {
	pslice := []float64{1, 0, 0, 1, 0, 0, 1, 0, 0}
	tslice := []float64{1, 0, 0, 1, 1, 0, 1, 0, 0}
	return mat.NewDense(3, 3, pslice), mat.NewDense(3, 3, tslice)
}

func TestDiceCoeff(t *testing.T) {
	pred, target := masks()
	require.InDelta(t, 0.8571, metric.DiceCoeff(pred, target), 1e-4)

	empty := mat.NewDense(3, 3, nil)
	require.Equal(t, 1.0, metric.DiceCoeff(empty, empty))
}

func TestIoU(t *testing.T) {
	pred, target := masks()
	require.InDelta(t, 0.75, metric.IoU(pred, target), 1e-12)
}

func TestJaccardIndex(t *testing.T) {
	pred, target := masks()
	// foreground 3/4, background 5/6
	require.InDelta(t, (0.75+5.0/6)/2, metric.JaccardIndex(pred, target), 1e-12)
}

func TestAccuracyAndMSE(t *testing.T) {
	pred, target := masks()
	require.InDelta(t, 8.0/9, metric.Accuracy(pred, target), 1e-12)
	require.InDelta(t, 1.0/9, metric.MSE(pred, target), 1e-12)
	require.InDelta(t, 10*math.Log10(9), metric.PSNR(pred, target), 1e-9)
	require.True(t, math.IsInf(metric.PSNR(pred, pred), 1))

	s := metric.Evaluate(pred, target)
	require.InDelta(t, 0.75, s.IoU, 1e-12)
}

func TestLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metrics.csv")
	l, err := metric.NewLog(path)
	require.NoError(t, err)

	for step := 1; step <= 3; step++ {
		require.NoError(t, l.AddSummary(step, model.Summary{"loss": 1 / float64(step), "psnr": float64(step)}))
	}
	require.Equal(t, 3, l.Len())
	require.True(t, errors.Is(l.AddSummary(4, model.Summary{"loss": 1}), metric.ErrColumns))
	require.True(t, errors.Is(l.AddSummary(4, model.Summary{"loss": 1, "acc": 2}), metric.ErrColumns))
	require.NoError(t, l.Close())

	steps, loss, err := metric.ReadColumn(path, "loss")
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3}, steps)
	require.InDeltaSlice(t, []float64{1, 0.5, 1.0 / 3}, loss, 1e-12)

	_, _, err = metric.ReadColumn(path, "missing")
	require.Error(t, err)

	out := filepath.Join(dir, "loss.png")
	require.NoError(t, metric.PlotColumn(path, "loss", out))
	fi, err := os.Stat(out)
	require.NoError(t, err)
	require.True(t, fi.Size() > 0)
}

func TestLogWrittenByTrainerWithoutClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.csv")
	l, err := metric.NewLog(path)
	require.NoError(t, err)

	data := mat.NewDense(10, 4, nil)
	tr, err := train.New(&model.Echo{}, rand.NewSource(1), l, train.Config{Epochs: 2, BatchSize: 3, Checkpoint: filepath.Join(t.TempDir(), "echo.ckpt")})
	require.NoError(t, err)
	require.NoError(t, tr.Fit(data, data))

	// rows are on disk once the epochs end, Close was never called
	steps, _, err := metric.ReadColumn(path, "loss")
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3, 4, 5, 6}, steps)
}

func TestNewLogBadDir(t *testing.T) {
	_, err := metric.NewLog(filepath.Join(t.TempDir(), "missing", "metrics.csv"))
	require.Error(t, err)
}

func TestSummarize(t *testing.T) {
	scores := []metric.Score{
		{Dice: 1, IoU: 1, Accuracy: 1, MSE: 0},
		{Dice: 0.5, IoU: 0.25, Accuracy: 0.75, MSE: 0.5},
	}
	agg, err := metric.Summarize(scores)
	require.NoError(t, err)
	require.InDelta(t, 0.75, agg.Mean.Dice, 1e-9)
	require.InDelta(t, 0.625, agg.Mean.IoU, 1e-9)
	require.InDelta(t, 0.25, agg.Mean.MSE, 1e-9)
	require.InDelta(t, math.Sqrt(0.125), agg.Std.Dice, 1e-9)

	agg, err = metric.Summarize(scores[:1])
	require.NoError(t, err)
	require.Equal(t, 0.0, agg.Std.Dice)

	_, err = metric.Summarize(nil)
	require.Error(t, err)
}
