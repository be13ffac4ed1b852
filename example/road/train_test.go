package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sugarme/gotch"

	"github.com/sugarme/cae/config"
)

func writeGray(t *testing.T, filename string, size int) {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x/8+y/8)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	f, err := os.Create(filename)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// setupRun points the program at fresh directories holding three train
// images and one test image, with the echo model and one epoch.
func setupRun(t *testing.T) {
	root := t.TempDir()
	for name, v := range map[string]*string{
		"gt":        &TrainDataDir,
		"cnn":       &TestPredictionDir,
		"out/train": &TrainOutputDir,
		"out/test":  &TestOutputDir,
		"logs":      &LogDirectory,
	} {
		*v = filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(*v, 0755))
	}
	for _, id := range []int{1, 2, 4} {
		writeGray(t, filepath.Join(TrainDataDir, fmt.Sprintf("satImage_%03d.png", id)), 50)
	}
	writeGray(t, filepath.Join(TestPredictionDir, "raw_test_3_pixels.png"), 38)

	def := config.Default()
	Tag = "echo"
	ModelName = "echo"
	Device = gotch.CPU
	PatchSize = 24
	BatchSize = 128
	NumEpochs = 1
	LR = 0.001
	OptStr = "Adam"
	Corruption = 0.05
	Seed = 1
	TrainSize = def.TrainSize
	ValSize = def.ValSize
	TestSize = def.TestSize
	ExamplesToShow = def.ExamplesToShow
	RunOnTrainSet = true
	RunOnTestSet = true
	VisualiseValidation = true
}

func runLogDir(t *testing.T, tag string) string {
	logDirs, err := filepath.Glob(filepath.Join(LogDirectory, fmt.Sprintf("cnn-ae-%v-training-*", tag)))
	require.NoError(t, err)
	require.Len(t, logDirs, 1)
	return logDirs[0]
}

func TestRunTrainEcho(t *testing.T) {
	setupRun(t)
	runTrain()

	for _, id := range []int{1, 2, 4} {
		require.FileExists(t, filepath.Join(TrainOutputDir, fmt.Sprintf("cnn_ae_train_%d.png", id)))
	}
	require.FileExists(t, filepath.Join(TestOutputDir, "cnn_ae_test_3.png"))

	logDir := runLogDir(t, "echo")
	for _, name := range []string{"metrics.csv", "loss.png", "cnn_autoencoder_eval_echo.png", "cnn_autoencoder_prediction_echo.png"} {
		require.FileExists(t, filepath.Join(logDir, name))
	}
	ckpts, err := filepath.Glob(filepath.Join(logDir, "cnn-ae-echo-*-ep1-final.ckpt"))
	require.NoError(t, err)
	require.Len(t, ckpts, 1)
}

func TestRunTrainWithoutValidation(t *testing.T) {
	setupRun(t)
	Tag = ""
	ValSize = 0
	RunOnTestSet = false
	require.NoError(t, runConfig().Validate())

	runTrain()

	require.FileExists(t, filepath.Join(TrainOutputDir, "cnn_ae_train_1.png"))
	logDir := runLogDir(t, "")
	require.FileExists(t, filepath.Join(logDir, "metrics.csv"))
	require.NoFileExists(t, filepath.Join(logDir, "cnn_autoencoder_eval_.png"))
	require.NoFileExists(t, filepath.Join(TestOutputDir, "cnn_ae_test_3.png"))
}

func TestRunConfigFlags(t *testing.T) {
	setupRun(t)
	TrainSize, ValSize, TestSize, ExamplesToShow = 7, 2, 3, 1
	RunOnTrainSet, RunOnTestSet, VisualiseValidation = false, false, false

	cfg := runConfig()
	require.Equal(t, 7, cfg.TrainSize)
	require.Equal(t, 2, cfg.ValSize)
	require.Equal(t, 3, cfg.TestSize)
	require.Equal(t, 1, cfg.ExamplesToShow)
	require.False(t, cfg.RunOnTrainSet)
	require.False(t, cfg.RunOnTestSet)
	require.False(t, cfg.VisualiseValidation)
}

func TestTagFlagDefaultsEmpty(t *testing.T) {
	require.Equal(t, "", flag.Lookup("tag").DefValue)
}
