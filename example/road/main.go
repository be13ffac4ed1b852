package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"runtime"

	"github.com/sugarme/gotch"

	"github.com/sugarme/cae/config"
)

// flag variables
var (
	task      string
	Tag       string
	ModelName string
	Cuda      bool
	Cores     int
	Device    gotch.Device

	TrainDataDir      string
	TestPredictionDir string
	TrainOutputDir    string
	TestOutputDir     string
	LogDirectory      string
)

// hyperparameters
var (
	PatchSize  int     // side of the square patches
	BatchSize  int     // batch size
	NumEpochs  int     // number of epochs
	LR         float64 // learning rate
	OptStr     string  // optimizer type
	Corruption float64 // salt-and-pepper corruption rate
	Seed       uint64  // random seed of corruption and shuffling

	TrainSize      int // number of ground-truth image ids to try
	ValSize        int // number of leading training images held out for validation
	TestSize       int // number of test image ids to try
	ExamplesToShow int // images per montage
)

// run switches
var (
	RunOnTrainSet       bool
	RunOnTestSet        bool
	VisualiseValidation bool
)

func init() {
	flag.StringVar(&task, "task", "train", "specify task to run: 'train' or 'model'")
	flag.StringVar(&Tag, "tag", "", "specify optional run tag used in output names")
	flag.StringVar(&ModelName, "model", "cae", "specify model: 'cae' or 'echo'")
	flag.BoolVar(&Cuda, "cuda", false, "specify whether using CUDA or not.")
	flag.IntVar(&Cores, "cores", -1, "specify max number of CPU cores to use (-1 = all)")

	flag.StringVar(&TrainDataDir, "train-dir", "../data/training/groundtruth/", "specify ground-truth image directory")
	flag.StringVar(&TestPredictionDir, "test-dir", "../results/CNN_Output/test/high_res_raw/", "specify upstream CNN test prediction directory")
	flag.StringVar(&TrainOutputDir, "train-out", "../results/CNN_Autoencoder_Output/train/", "specify train reconstruction output directory")
	flag.StringVar(&TestOutputDir, "test-out", "../results/CNN_Autoencoder_Output/test/", "specify test reconstruction output directory")
	flag.StringVar(&LogDirectory, "logdir", "./logs/", "specify log directory")

	flag.IntVar(&PatchSize, "patch", 24, "specify patch size")
	flag.IntVar(&BatchSize, "batch", 128, "specify batch size")
	flag.IntVar(&NumEpochs, "epochs", 20, "specify number of epochs")
	flag.Float64Var(&LR, "lr", 0.001, "specify learning rate")
	flag.StringVar(&OptStr, "opt", "Adam", "specify optimizer type")
	flag.Float64Var(&Corruption, "corruption", 0.05, "specify salt-and-pepper corruption rate")
	flag.Uint64Var(&Seed, "seed", 123, "specify random seed")

	def := config.Default()
	flag.IntVar(&TrainSize, "train-size", def.TrainSize, "specify number of ground-truth images to load")
	flag.IntVar(&ValSize, "val-size", def.ValSize, "specify number of training images held out for validation (0 = none)")
	flag.IntVar(&TestSize, "test-size", def.TestSize, "specify number of test images to load")
	flag.IntVar(&ExamplesToShow, "show", def.ExamplesToShow, "specify number of images per montage")
	flag.BoolVar(&RunOnTrainSet, "run-train", def.RunOnTrainSet, "specify whether to write train set reconstructions")
	flag.BoolVar(&RunOnTestSet, "run-test", def.RunOnTestSet, "specify whether to write test set reconstructions")
	flag.BoolVar(&VisualiseValidation, "visualise", def.VisualiseValidation, "specify whether to write the validation montage")
}

func main() {
	flag.Parse()

	TrainDataDir = absPath(TrainDataDir)
	TestPredictionDir = absPath(TestPredictionDir)
	TrainOutputDir = absPath(TrainOutputDir)
	TestOutputDir = absPath(TestOutputDir)
	LogDirectory = absPath(LogDirectory)

	if Cores > 0 {
		runtime.GOMAXPROCS(Cores)
	}

	Device = gotch.CPU
	if Cuda {
		Device = gotch.NewCuda().CudaIfAvailable()
	}

	switch task {
	case "model":
		runCheckModel()
	case "train":
		runTrain()
	default:
		err := fmt.Errorf("Unknown 'task' name. Please specify valid 'task' flag to run.\n")
		panic(err)
	}
}

// helper to get absolute file path
func absPath(p string) string {
	fullpath, err := filepath.Abs(p)
	if err != nil {
		log.Fatal(err)
	}
	return fullpath
}
