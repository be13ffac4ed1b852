// Package dataset loads the ground-truth and test images of a run and cuts
// them into patch sets.
package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/sugarme/cae/patch"
)

var (
	// ErrPhase is returned for a phase other than train or test.
	ErrPhase = errors.New("dataset: invalid phase")
	// ErrNoDir is returned when a directory the run reads from or writes to
	// does not exist.
	ErrNoDir = errors.New("dataset: directory does not exist")
)

// Phase selects file naming, canonical resolution and augmentation.
type Phase string

const (
	Train Phase = "train"
	Test  Phase = "test"
)

// ParsePhase validates a phase name.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}

// Validate returns ErrPhase for unknown phases.
func (p Phase) Validate() error {
	switch p {
	case Train, Test:
		return nil
	default:
		return fmt.Errorf("%w: %q (expected %q or %q)", ErrPhase, string(p), Train, Test)
	}
}

// Resolution is the side length every image of the phase is resized to.
func (p Phase) Resolution() int {
	switch p {
	case Train:
		return 50
	case Test:
		return 38
	}
	return 0
}

// FileName returns the base name of image id for the phase.
func (p Phase) FileName(id int) string {
	switch p {
	case Train:
		return fmt.Sprintf("satImage_%03d.png", id)
	case Test:
		return fmt.Sprintf("raw_test_%d_pixels.png", id)
	}
	return ""
}

// Entry is the patch set of one loaded image.
type Entry struct {
	ID      int
	Rotated bool
	Patches *mat.Dense
}

// Extract loads images 1..count of the phase from dir and cuts each into
// unit-stride patches. Train images additionally contribute the patches of
// their 90 degree rotation, as a separate entry right after the original.
// Ids without a file are skipped.
func Extract(dir string, count, patchSize int, phase Phase) ([]Entry, error) {
	if err := phase.Validate(); err != nil {
		return nil, err
	}
	size := phase.Resolution()
	if patchSize < 1 || patchSize > size {
		return nil, fmt.Errorf("%w: image %d, patch %d", patch.ErrImageTooSmall, size, patchSize)
	}

	var entries []Entry
	for id := 1; id <= count; id++ {
		filename := filepath.Join(dir, phase.FileName(id))
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			continue
		}

		img, err := LoadImage(filename, size)
		if err != nil {
			return nil, fmt.Errorf("dataset: loading %v: %w", filename, err)
		}

		p, err := patch.Extract(img, patchSize)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{ID: id, Patches: p})

		if phase == Train {
			r, err := patch.Extract(patch.Rot90(img), patchSize)
			if err != nil {
				return nil, err
			}
			entries = append(entries, Entry{ID: id, Rotated: true, Patches: r})
		}
	}

	return entries, nil
}

// Pool concatenates the patch sets of entries into one matrix.
func Pool(entries []Entry) (*mat.Dense, error) {
	sets := make([]*mat.Dense, len(entries))
	for i, e := range entries {
		sets[i] = e.Patches
	}
	return patch.Stack(sets)
}

// RequireDir returns ErrNoDir unless dir exists and is a directory.
func RequireDir(dir string) error {
	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return fmt.Errorf("%w: %v", ErrNoDir, dir)
	}
	return nil
}
