// Package config holds the hyperparameters and directory layout of a
// denoising autoencoder run.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sugarme/cae/dataset"
	"github.com/sugarme/cae/upsample"
)

// ErrConfig is returned by Validate for an inconsistent configuration.
var ErrConfig = errors.New("config: invalid configuration")

// TimestampLayout formats the run timestamp used in log and checkpoint names.
const TimestampLayout = "2006-01-02_15-04-05"

// Config is the full set of knobs of a run.
type Config struct {
	PatchSize    int     // side of the square patches
	TrainSize    int     // number of ground-truth image ids to try
	ValSize      int     // number of leading training entries held out for validation
	TestSize     int     // number of test image ids to try
	Corruption   float64 // salt-and-pepper corruption rate
	BatchSize    int
	NumEpochs    int
	LearningRate float64
	Optimizer    string // "Adam" or "SGD"
	Seed         uint64

	TrainImageSize int // output side of train reconstructions
	GTRes          int // pixels per ground-truth class block
	TestImageSize  int // output side of test reconstructions
	CNNRes         int // pixels per class block of the upstream CNN output

	ExamplesToShow      int
	RunOnTrainSet       bool
	RunOnTestSet        bool
	VisualiseValidation bool

	TrainDataDir      string // ground-truth images
	TestPredictionDir string // upstream CNN test predictions
	TrainOutputDir    string
	TestOutputDir     string
	LogDirectory      string
}

// Default returns the configuration of the reference run.
func Default() Config {
	return Config{
		PatchSize:    24,
		TrainSize:    100,
		ValSize:      5,
		TestSize:     50,
		Corruption:   0.05,
		BatchSize:    128,
		NumEpochs:    20,
		LearningRate: 0.001,
		Optimizer:    "Adam",
		Seed:         123,

		TrainImageSize: 400,
		GTRes:          8,
		TestImageSize:  608,
		CNNRes:         16,

		ExamplesToShow:      5,
		RunOnTrainSet:       true,
		RunOnTestSet:        true,
		VisualiseValidation: true,

		TrainDataDir:      "../data/training/groundtruth/",
		TestPredictionDir: "../results/CNN_Output/test/high_res_raw/",
		TrainOutputDir:    "../results/CNN_Autoencoder_Output/train/",
		TestOutputDir:     "../results/CNN_Autoencoder_Output/test/",
		LogDirectory:      "./logs/",
	}
}

// OutputGrid returns the output side and block size used to upsample the
// reconstructions of a phase.
func (c Config) OutputGrid(phase dataset.Phase) (size, block int, err error) {
	switch phase {
	case dataset.Train:
		return c.TrainImageSize, c.GTRes, nil
	case dataset.Test:
		return c.TestImageSize, c.CNNRes, nil
	}
	return 0, 0, phase.Validate()
}

// Validate checks the configuration for values that would make the run fail
// half way.
func (c Config) Validate() error {
	switch {
	case c.PatchSize < 1:
		return fmt.Errorf("%w: patch size %d", ErrConfig, c.PatchSize)
	case c.BatchSize < 1:
		return fmt.Errorf("%w: batch size %d", ErrConfig, c.BatchSize)
	case c.NumEpochs < 1:
		return fmt.Errorf("%w: epochs %d", ErrConfig, c.NumEpochs)
	case c.TrainSize < 1 || c.ValSize < 0 || c.TestSize < 0:
		return fmt.Errorf("%w: train %d, validation %d, test %d images", ErrConfig, c.TrainSize, c.ValSize, c.TestSize)
	case !(c.Corruption >= 0 && c.Corruption <= 1):
		return fmt.Errorf("%w: corruption %v not in [0, 1]", ErrConfig, c.Corruption)
	case c.LearningRate <= 0:
		return fmt.Errorf("%w: learning rate %v", ErrConfig, c.LearningRate)
	case c.Optimizer != "Adam" && c.Optimizer != "SGD":
		return fmt.Errorf("%w: optimizer %q", ErrConfig, c.Optimizer)
	}

	for _, phase := range []dataset.Phase{dataset.Train, dataset.Test} {
		if c.PatchSize > phase.Resolution() {
			return fmt.Errorf("%w: patch %d larger than %v resolution %d", ErrConfig, c.PatchSize, phase, phase.Resolution())
		}
		size, block, _ := c.OutputGrid(phase)
		steps, err := upsample.Steps(size, block)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConfig, err)
		}
		if steps != phase.Resolution() {
			return fmt.Errorf("%w: %v output %d / block %d = %d, want %d", ErrConfig, phase, size, block, steps, phase.Resolution())
		}
	}

	return nil
}

// Run names the log folder and checkpoint of one run.
type Run struct {
	Tag       string
	Timestamp string
}

// NewRun stamps a run started at t.
func NewRun(tag string, t time.Time) Run {
	return Run{Tag: tag, Timestamp: t.Format(TimestampLayout)}
}

// LogDir is the folder holding the metrics log and checkpoint of the run.
func (r Run) LogDir(root string) string {
	return filepath.Join(root, fmt.Sprintf("cnn-ae-%v-training-%v", r.Tag, r.Timestamp))
}

// CheckpointName is the base name of the final checkpoint.
func (r Run) CheckpointName(epochs int) string {
	return fmt.Sprintf("cnn-ae-%v-%v-ep%v-final.ckpt", r.Tag, r.Timestamp, epochs)
}
