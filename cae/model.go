// Package cae is a convolutional denoising autoencoder on libtorch that
// implements model.Model.
package cae

import (
	"errors"
	"fmt"

	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"
	"gonum.org/v1/gonum/mat"

	"github.com/sugarme/cae/base"
	"github.com/sugarme/cae/model"
)

// ErrConfig is returned by New for an unusable configuration.
var ErrConfig = errors.New("cae: invalid configuration")

// Net is the autoencoder graph.
type Net struct {
	encoder Encoder
	decoder *ConvDecoder
	head    *nn.SequentialT
}

// ForwardT implements ts.ModuleT for Net. Input and output are [bz 1 p p].
func (n *Net) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	features := n.encoder.ForwardAll(x, train)
	out := n.decoder.ForwardFeatures(features, train)
	recon := n.head.ForwardT(out, train)

	// features[0] is x
	for _, f := range features[1:] {
		f.MustDrop()
	}
	out.MustDrop()

	return recon
}

// NewNet creates the autoencoder graph for the given encoder filters.
func NewNet(p *nn.Path, filters []int64) *Net {
	return &Net{
		encoder: NewConvEncoder(p.Sub("encoder"), filters),
		decoder: NewConvDecoder(p.Sub("decoder"), filters),
		head:    base.NewReconstructionHead(p.Sub("head"), filters[0], 3),
	}
}

// Config of a Model.
type Config struct {
	PatchSize    int64
	Filters      []int64
	LearningRate float64
	Optimizer    string // "Adam" or "SGD"
	Device       gotch.Device
}

// DefaultConfig returns a two stage autoencoder trained with Adam on CPU.
func DefaultConfig(patchSize int64) Config {
	return Config{
		PatchSize:    patchSize,
		Filters:      []int64{16, 32},
		LearningRate: 0.001,
		Optimizer:    "Adam",
		Device:       gotch.CPU,
	}
}

func (c Config) validate() error {
	if len(c.Filters) == 0 {
		return fmt.Errorf("%w: no filters", ErrConfig)
	}
	for _, f := range c.Filters {
		if f < 1 {
			return fmt.Errorf("%w: filters %v", ErrConfig, c.Filters)
		}
	}
	scale := int64(1) << uint(len(c.Filters))
	if c.PatchSize < 1 || c.PatchSize%scale != 0 {
		return fmt.Errorf("%w: patch size %v not divisible by %v", ErrConfig, c.PatchSize, scale)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("%w: learning rate %v", ErrConfig, c.LearningRate)
	}
	return nil
}

// Model trains a Net with mean squared error against the clean patches.
type Model struct {
	cfg Config
	vs  *nn.VarStore
	net *Net
	opt *nn.Optimizer
}

var _ model.Model = (*Model)(nil)

// New builds the network and its optimizer.
func New(cfg Config) (*Model, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	vs := nn.NewVarStore(cfg.Device)
	net := NewNet(vs.Root(), cfg.Filters)

	var (
		opt *nn.Optimizer
		err error
	)
	switch cfg.Optimizer {
	case "SGD":
		opt, err = nn.DefaultSGDConfig().Build(vs, cfg.LearningRate)
	case "Adam":
		opt, err = nn.DefaultAdamConfig().Build(vs, cfg.LearningRate)
	default:
		err = fmt.Errorf("%w: Unspecified/Invalid Optimizer option: '%v'", ErrConfig, cfg.Optimizer)
	}
	if err != nil {
		return nil, err
	}

	return &Model{cfg: cfg, vs: vs, net: net, opt: opt}, nil
}

// VarStore exposes the trainable variables.
func (m *Model) VarStore() *nn.VarStore { return m.vs }

// Net returns the autoencoder graph.
func (m *Model) Net() *Net { return m.net }

type feed struct {
	inputs  *ts.Tensor
	targets *ts.Tensor
	n       int
}

func (f *feed) Len() int { return f.n }

func (f *feed) drop() {
	f.inputs.MustDrop()
	if f.targets != nil {
		f.targets.MustDrop()
	}
}

// toTensor converts flattened patches into a [n 1 p p] float tensor on device.
func (m *Model) toTensor(patches *mat.Dense) (*ts.Tensor, int, error) {
	r, c := patches.Dims()
	p := m.cfg.PatchSize
	if int64(c) != p*p {
		return nil, 0, fmt.Errorf("%w: %d columns, want %d", model.ErrFeed, c, p*p)
	}

	data := make([]float32, 0, r*c)
	for i := 0; i < r; i++ {
		for _, v := range patches.RawRowView(i) {
			data = append(data, float32(v))
		}
	}
	x := ts.MustOfSlice(data).MustView([]int64{int64(r), 1, p, p}, true).MustTo(m.cfg.Device, true)

	return x, r, nil
}

// MakeInputs implements model.Model.
func (m *Model) MakeInputs(corrupted, clean *mat.Dense) (model.Feed, error) {
	ir, ic := corrupted.Dims()
	tr, tc := clean.Dims()
	if ir != tr || ic != tc {
		return nil, fmt.Errorf("%w: inputs %dx%d, targets %dx%d", model.ErrFeed, ir, ic, tr, tc)
	}
	x, n, err := m.toTensor(corrupted)
	if err != nil {
		return nil, err
	}
	y, _, err := m.toTensor(clean)
	if err != nil {
		x.MustDrop()
		return nil, err
	}

	return &feed{inputs: x, targets: y, n: n}, nil
}

// MakeInputsPredict implements model.Model.
func (m *Model) MakeInputsPredict(batch *mat.Dense) (model.Feed, error) {
	x, n, err := m.toTensor(batch)
	if err != nil {
		return nil, err
	}
	return &feed{inputs: x, n: n}, nil
}

// TrainStep implements model.Model.
func (m *Model) TrainStep(f model.Feed) (model.Summary, error) {
	fd, ok := f.(*feed)
	if !ok || fd.targets == nil {
		return nil, model.ErrFeed
	}
	defer fd.drop()

	recon := m.net.ForwardT(fd.inputs, true)
	loss := recon.MustMseLoss(fd.targets, 1, true)
	m.opt.BackwardStep(loss)
	lossVal := loss.Float64Values()[0]
	loss.MustDrop()

	return model.Summary{"loss": lossVal}, nil
}

// Predict implements model.Model.
func (m *Model) Predict(f model.Feed) (*mat.Dense, error) {
	fd, ok := f.(*feed)
	if !ok {
		return nil, model.ErrFeed
	}
	defer fd.drop()

	var recon *ts.Tensor
	ts.NoGrad(func() {
		recon = m.net.ForwardT(fd.inputs, false)
	})
	values := recon.Float64Values()
	recon.MustDrop()

	p := int(m.cfg.PatchSize)
	return mat.NewDense(fd.n, p*p, values), nil
}

// Save implements model.Model.
func (m *Model) Save(path string) error {
	return m.vs.Save(path)
}

// Load restores parameters written by Save.
func (m *Model) Load(path string) error {
	return m.vs.Load(path)
}
