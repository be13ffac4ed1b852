// Package train runs the epoch/batch loop of a denoising autoencoder and
// batched inference over patch sets.
package train

import (
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/sugarme/cae/model"
)

var (
	// ErrBatchSize is returned when the sample count does not exceed the
	// batch size.
	ErrBatchSize = errors.New("train: not enough samples for batch size")
	// ErrState is returned when Fit is called on a trainer that already ran.
	ErrState = errors.New("train: trainer already used")
	// ErrConfig is returned by New for invalid arguments.
	ErrConfig = errors.New("train: invalid trainer configuration")
)

// State of a Trainer.
type State int

const (
	Idle State = iota
	Running
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Finished:
		return "finished"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// SummaryWriter records the summary of every training step.
type SummaryWriter interface {
	AddSummary(step int, s model.Summary) error
}

// Flusher is implemented by writers that buffer summaries. Flush is called at
// the end of every epoch.
type Flusher interface {
	Flush() error
}

// Config of a Trainer.
type Config struct {
	Epochs     int
	BatchSize  int
	Checkpoint string // path the final parameters are saved to
}

// Trainer owns the training state of one run.
type Trainer struct {
	model  model.Model
	rng    *rand.Rand
	writer SummaryWriter
	cfg    Config

	state      State
	epoch      int
	globalStep int
	perm       []int
}

// New creates a Trainer. src seeds the per-epoch permutations; w may be nil.
func New(m model.Model, src rand.Source, w SummaryWriter, cfg Config) (*Trainer, error) {
	switch {
	case m == nil:
		return nil, fmt.Errorf("%w: no model", ErrConfig)
	case src == nil:
		return nil, fmt.Errorf("%w: no random source", ErrConfig)
	case cfg.Epochs < 1:
		return nil, fmt.Errorf("%w: epochs %d", ErrConfig, cfg.Epochs)
	case cfg.BatchSize < 1:
		return nil, fmt.Errorf("%w: batch size %d", ErrConfig, cfg.BatchSize)
	case cfg.Checkpoint == "":
		return nil, fmt.Errorf("%w: no checkpoint path", ErrConfig)
	}

	return &Trainer{
		model:      m,
		rng:        rand.New(src),
		writer:     w,
		cfg:        cfg,
		globalStep: 1,
	}, nil
}

// State returns the current state.
func (t *Trainer) State() State { return t.state }

// Epoch returns the index of the current (or last) epoch.
func (t *Trainer) Epoch() int { return t.epoch }

// GlobalStep returns the step number the next batch will be recorded with.
func (t *Trainer) GlobalStep() int { return t.globalStep }

// BatchOffset is the start of batch batchIndex within the epoch permutation
// of n samples. Offsets wrap around modulo n-batchSize, so windows of one
// epoch may overlap and some samples may be skipped.
func BatchOffset(batchIndex, batchSize, n int) int {
	return (batchIndex * batchSize) % (n - batchSize)
}

// Fit trains the model on corrupted inputs against clean targets for the
// configured number of epochs, then saves the parameters once.
func (t *Trainer) Fit(inputs, targets *mat.Dense) error {
	if t.state != Idle {
		return fmt.Errorf("%w: state %v", ErrState, t.state)
	}
	n, c := inputs.Dims()
	tn, tc := targets.Dims()
	if n != tn || c != tc {
		return fmt.Errorf("%w: inputs %dx%d, targets %dx%d", model.ErrFeed, n, c, tn, tc)
	}
	bs := t.cfg.BatchSize
	if n <= bs {
		return fmt.Errorf("%w: %d samples, batch size %d", ErrBatchSize, n, bs)
	}

	t.state = Running
	start := time.Now()
	steps := n / bs
	for t.epoch = 0; t.epoch < t.cfg.Epochs; t.epoch++ {
		log.Printf("Training epoch %d\n", t.epoch)
		log.Printf("Time elapsed:    %.3fs\n", time.Since(start).Seconds())

		t.perm = t.rng.Perm(n)
		var lossSum float64
		for batchIndex := 1; batchIndex <= steps; batchIndex++ {
			offset := BatchOffset(batchIndex, bs, n)
			idx := t.perm[offset : offset+bs]

			s, err := t.step(inputs, targets, idx)
			if err != nil {
				t.state = Finished
				return fmt.Errorf("train: epoch %d step %d: %w", t.epoch, t.globalStep, err)
			}
			lossSum += s["loss"]
			t.globalStep++
		}
		log.Printf("Epoch %02d\t train loss: %6.4f\n", t.epoch, lossSum/float64(steps))

		if f, ok := t.writer.(Flusher); ok {
			if err := f.Flush(); err != nil {
				t.state = Finished
				return fmt.Errorf("train: epoch %d: flushing summaries: %w", t.epoch, err)
			}
		}
	}
	t.epoch--

	t.state = Finished
	if err := t.model.Save(t.cfg.Checkpoint); err != nil {
		return fmt.Errorf("train: saving checkpoint: %w", err)
	}

	return nil
}

func (t *Trainer) step(inputs, targets *mat.Dense, idx []int) (model.Summary, error) {
	in := gather(inputs, idx)
	target := gather(targets, idx)
	feed, err := t.model.MakeInputs(in, target)
	if err != nil {
		return nil, err
	}

	s, err := t.model.TrainStep(feed)
	if err != nil {
		return nil, err
	}
	if t.writer != nil {
		if err := t.writer.AddSummary(t.globalStep, s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// gather copies the rows idx of m into a new matrix.
func gather(m *mat.Dense, idx []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for i, r := range idx {
		copy(out.RawRowView(i), m.RawRowView(r))
	}
	return out
}
