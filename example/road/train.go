package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/sugarme/cae/cae"
	"github.com/sugarme/cae/config"
	"github.com/sugarme/cae/dataset"
	"github.com/sugarme/cae/metric"
	"github.com/sugarme/cae/model"
	"github.com/sugarme/cae/noise"
	"github.com/sugarme/cae/patch"
	"github.com/sugarme/cae/train"
	"github.com/sugarme/cae/upsample"
)

// runConfig applies the flags to the default configuration.
func runConfig() config.Config {
	cfg := config.Default()
	cfg.PatchSize = PatchSize
	cfg.BatchSize = BatchSize
	cfg.NumEpochs = NumEpochs
	cfg.LearningRate = LR
	cfg.Optimizer = OptStr
	cfg.Corruption = Corruption
	cfg.Seed = Seed

	cfg.TrainSize = TrainSize
	cfg.ValSize = ValSize
	cfg.TestSize = TestSize
	cfg.ExamplesToShow = ExamplesToShow
	cfg.RunOnTrainSet = RunOnTrainSet
	cfg.RunOnTestSet = RunOnTestSet
	cfg.VisualiseValidation = VisualiseValidation

	cfg.TrainDataDir = TrainDataDir
	cfg.TestPredictionDir = TestPredictionDir
	cfg.TrainOutputDir = TrainOutputDir
	cfg.TestOutputDir = TestOutputDir
	cfg.LogDirectory = LogDirectory

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	return cfg
}

func newModel(cfg config.Config) (model.Model, error) {
	switch ModelName {
	case "cae":
		mcfg := cae.DefaultConfig(int64(cfg.PatchSize))
		mcfg.LearningRate = cfg.LearningRate
		mcfg.Optimizer = cfg.Optimizer
		mcfg.Device = Device
		return cae.New(mcfg)
	case "echo":
		return &model.Echo{}, nil
	}
	return nil, fmt.Errorf("Unspecified/Invalid model option: '%v'", ModelName)
}

func printRAM(label string) {
	si := CPUInfo()
	fmt.Printf("%v - Used RAM (MB):\t %8.2f\n", label, float64(si.TotalRam-si.FreeRam)/1024)
}

func runTrain() {
	cfg := runConfig()
	run := config.NewRun(Tag, time.Now())
	logDir := run.LogDir(cfg.LogDirectory)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Fatal(err)
	}

	si := CPUInfo()
	fmt.Printf("Total RAM (MB):\t %8.2f\n", float64(si.TotalRam)/1024)
	printRAM("Start")

	entries, err := dataset.Extract(cfg.TrainDataDir, cfg.TrainSize, cfg.PatchSize, dataset.Train)
	if err != nil {
		log.Fatal(err)
	}
	pool, err := dataset.Pool(entries)
	if err != nil {
		log.Fatal(err)
	}
	n, _ := pool.Dims()
	ppi := patch.PerImage(dataset.Train.Resolution(), cfg.PatchSize)
	nVal := cfg.ValSize * ppi
	if nVal >= n {
		log.Fatalf("Validation set of %v patches leaves no training data (%v patches loaded)\n", nVal, n)
	}
	fmt.Printf("Loaded %v images: %v patches, %v held out for validation\n", len(entries), n, nVal)

	// no validation rows when ValSize is 0
	var valClean, valCorrupt *mat.Dense
	trainClean := pool
	if nVal > 0 {
		valClean = patch.Rows(pool, 0, nVal)
		trainClean = patch.Rows(pool, nVal, n)
	}
	pool = nil

	src := rand.NewSource(cfg.Seed)
	trainCorrupt, err := noise.SaltAndPepper(trainClean, cfg.Corruption, src)
	if err != nil {
		log.Fatal(err)
	}
	if valClean != nil {
		valCorrupt, err = noise.SaltAndPepper(valClean, cfg.Corruption, src)
		if err != nil {
			log.Fatal(err)
		}
	}

	m, err := newModel(cfg)
	if err != nil {
		log.Fatal(err)
	}

	mlog, err := metric.NewLog(filepath.Join(logDir, "metrics.csv"))
	if err != nil {
		log.Fatal(err)
	}
	trainer, err := train.New(m, src, mlog, train.Config{
		Epochs:     cfg.NumEpochs,
		BatchSize:  cfg.BatchSize,
		Checkpoint: filepath.Join(logDir, run.CheckpointName(cfg.NumEpochs)),
	})
	if err != nil {
		log.Fatal(err)
	}
	if err := trainer.Fit(trainCorrupt, trainClean); err != nil {
		log.Fatal(err)
	}
	if err := mlog.Close(); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Trained %v epochs, %v steps. Logs and checkpoint in %v\n", cfg.NumEpochs, trainer.GlobalStep(), logDir)

	if err := metric.PlotColumn(mlog.Path(), "loss", filepath.Join(logDir, "loss.png")); err != nil {
		log.Fatal(err)
	}

	printRAM("Before release")
	trainCorrupt, trainClean = nil, nil
	debug.FreeOSMemory()
	printRAM("After release")

	var valPred *mat.Dense
	if valCorrupt != nil {
		valPred, err = train.Predict(m, valCorrupt, cfg.BatchSize)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Validation MSE: %6.4f\n", metric.MSE(valPred, valClean))
	}

	if cfg.RunOnTrainSet {
		runOnTrainSet(m, cfg, entries)
	}
	if cfg.VisualiseValidation && valPred != nil {
		visualiseValidation(cfg, valCorrupt, valPred, filepath.Join(logDir, fmt.Sprintf("cnn_autoencoder_eval_%v.png", run.Tag)))
	}
	if cfg.RunOnTestSet {
		runOnTestSet(m, cfg, filepath.Join(logDir, fmt.Sprintf("cnn_autoencoder_prediction_%v.png", run.Tag)))
	}
}

// denoise predicts the patches of one image and rebuilds it at the phase
// resolution.
func denoise(m model.Model, patches *mat.Dense, size, batchSize int) (*mat.Dense, error) {
	pred, err := train.Predict(m, patches, batchSize)
	if err != nil {
		return nil, err
	}
	return patch.Reconstruct(pred, size)
}

// writeOutput upsamples a reconstruction onto the output grid and saves it.
func writeOutput(img *mat.Dense, size, block int, filename string) error {
	up, err := upsample.Blocks(img, size, block)
	if err != nil {
		return err
	}
	return dataset.SaveImage(up, filename)
}

func printScore(id int, s metric.Score) {
	fmt.Printf("Image %3d\t dice: %6.4f\t iou: %6.4f\t acc: %6.4f\t mse: %6.4f\n", id, s.Dice, s.IoU, s.Accuracy, s.MSE)
}

func printAggregate(phase dataset.Phase, scores []metric.Score) {
	if len(scores) == 0 {
		return
	}
	agg, err := metric.Summarize(scores)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%v (%v images)\t dice: %6.4f +/- %6.4f\t iou: %6.4f +/- %6.4f\t mse: %6.4f +/- %6.4f\n",
		phase, len(scores), agg.Mean.Dice, agg.Std.Dice, agg.Mean.IoU, agg.Std.IoU, agg.Mean.MSE, agg.Std.MSE)
}

func runOnTrainSet(m model.Model, cfg config.Config, entries []dataset.Entry) {
	if err := dataset.RequireDir(cfg.TrainOutputDir); err != nil {
		log.Fatal(err)
	}
	size, block, err := cfg.OutputGrid(dataset.Train)
	if err != nil {
		log.Fatal(err)
	}
	res := dataset.Train.Resolution()

	var scores []metric.Score
	for _, e := range entries {
		if e.Rotated {
			continue
		}
		img, err := denoise(m, e.Patches, res, cfg.BatchSize)
		if err != nil {
			log.Fatal(err)
		}
		input, err := patch.Reconstruct(e.Patches, res)
		if err != nil {
			log.Fatal(err)
		}
		s := metric.Evaluate(img, input)
		printScore(e.ID, s)
		scores = append(scores, s)

		filename := filepath.Join(cfg.TrainOutputDir, fmt.Sprintf("cnn_ae_train_%d.png", e.ID))
		if err := writeOutput(img, size, block, filename); err != nil {
			log.Fatal(err)
		}
	}
	printAggregate(dataset.Train, scores)
}

func visualiseValidation(cfg config.Config, corrupted, pred *mat.Dense, filename string) {
	res := dataset.Train.Resolution()
	ppi := patch.PerImage(res, cfg.PatchSize)
	n := cfg.ExamplesToShow
	if cfg.ValSize < n {
		n = cfg.ValSize
	}
	if n == 0 {
		return
	}

	var inputs, outputs []*mat.Dense
	for i := 0; i < n; i++ {
		in, err := patch.Reconstruct(patch.Rows(corrupted, i*ppi, (i+1)*ppi), res)
		if err != nil {
			log.Fatal(err)
		}
		out, err := patch.Reconstruct(patch.Rows(pred, i*ppi, (i+1)*ppi), res)
		if err != nil {
			log.Fatal(err)
		}
		inputs = append(inputs, in)
		outputs = append(outputs, out)
	}

	if err := saveMontage([][]*mat.Dense{inputs, outputs}, cellSize, filename); err != nil {
		log.Fatal(err)
	}
}

func runOnTestSet(m model.Model, cfg config.Config, montage string) {
	if err := dataset.RequireDir(cfg.TestPredictionDir); err != nil {
		log.Fatal(err)
	}
	if err := dataset.RequireDir(cfg.TestOutputDir); err != nil {
		log.Fatal(err)
	}
	entries, err := dataset.Extract(cfg.TestPredictionDir, cfg.TestSize, cfg.PatchSize, dataset.Test)
	if err != nil {
		log.Fatal(err)
	}
	size, block, err := cfg.OutputGrid(dataset.Test)
	if err != nil {
		log.Fatal(err)
	}
	res := dataset.Test.Resolution()

	var (
		inputs, outputs []*mat.Dense
		scores          []metric.Score
	)
	for _, e := range entries {
		img, err := denoise(m, e.Patches, res, cfg.BatchSize)
		if err != nil {
			log.Fatal(err)
		}
		input, err := patch.Reconstruct(e.Patches, res)
		if err != nil {
			log.Fatal(err)
		}
		s := metric.Evaluate(img, input)
		printScore(e.ID, s)
		scores = append(scores, s)

		filename := filepath.Join(cfg.TestOutputDir, fmt.Sprintf("cnn_ae_test_%d.png", e.ID))
		if err := writeOutput(img, size, block, filename); err != nil {
			log.Fatal(err)
		}

		if len(inputs) < cfg.ExamplesToShow {
			inputs = append(inputs, input)
			outputs = append(outputs, img)
		}
	}
	fmt.Printf("Wrote %v test reconstructions to %v\n", len(entries), cfg.TestOutputDir)
	printAggregate(dataset.Test, scores)

	if len(inputs) == 0 {
		return
	}
	if err := saveMontage([][]*mat.Dense{inputs, outputs}, cellSize, montage); err != nil {
		log.Fatal(err)
	}
}
