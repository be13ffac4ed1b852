package main

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/mat"

	"github.com/sugarme/cae/dataset"
)

// side of one montage cell in pixels
const cellSize = 200

// saveMontage lays out rows of gray images on a white canvas, every image
// scaled to a cell x cell square with nearest neighbour so class blocks stay
// sharp.
func saveMontage(rows [][]*mat.Dense, cell int, filename string) error {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return fmt.Errorf("Empty montage: %v\n", filename)
	}
	cols := 0
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}

	canvas := imaging.New(cols*cell, len(rows)*cell, color.White)
	for y, r := range rows {
		for x, m := range r {
			tile := imaging.Resize(dataset.ToImage(m), cell, cell, imaging.NearestNeighbor)
			canvas = imaging.Paste(canvas, tile, image.Pt(x*cell, y*cell))
		}
	}

	return imaging.Save(canvas, filename)
}
