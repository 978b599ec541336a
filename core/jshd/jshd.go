// Package jshd implements the binary data grid format (§6): the output
// of `preprocess` and the input `run` and `inspectJshd` read from, storing
// one variable's values across (timestep, grid-x, grid-y). The format is
// implementation-defined by spec; this package uses encoding/gob because
// the grid is an internal artifact never read by another language or
// toolchain, so a hand-framed byte layout or a schema-driven wire format
// (protobuf, flatbuffers) would add ceremony without a consumer to serve.
package jshd

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/schmidtdse/joshsim/core/units"
	"github.com/schmidtdse/joshsim/internal/errs"
)

// Grid is one preprocessed variable: a dense array indexed by
// [timestep][x][y], plus enough metadata to interpret cell values.
type Grid struct {
	Variable     string
	UnitsText    string
	CRS          string
	DefaultValue float64
	Width        int
	Height       int
	Timesteps    int
	Cells        [][][]float64 // [timestep][x][y]
}

// Units parses the grid's stored unit text.
func (g *Grid) Units() (*units.Units, error) { return units.Parse(g.UnitsText) }

// At returns the cell value at (timestep, x, y), or an error if the
// coordinate is out of bounds.
func (g *Grid) At(timestep, x, y int) (float64, error) {
	if timestep < 0 || timestep >= g.Timesteps || x < 0 || x >= g.Width || y < 0 || y >= g.Height {
		return 0, errs.New(errs.IoError, "coordinate (t=%d, x=%d, y=%d) out of bounds for grid %dx%dx%d",
			timestep, x, y, g.Timesteps, g.Width, g.Height)
	}
	return g.Cells[timestep][x][y], nil
}

// NewGrid allocates an empty grid ready to be filled in timestep/x/y
// order by a preprocessing pass.
func NewGrid(variable, unitsText, crs string, defaultValue float64, width, height, timesteps int) *Grid {
	cells := make([][][]float64, timesteps)
	for t := range cells {
		cells[t] = make([][]float64, width)
		for x := range cells[t] {
			cells[t][x] = make([]float64, height)
			for y := range cells[t][x] {
				cells[t][x][y] = defaultValue
			}
		}
	}
	return &Grid{
		Variable: variable, UnitsText: unitsText, CRS: crs, DefaultValue: defaultValue,
		Width: width, Height: height, Timesteps: timesteps, Cells: cells,
	}
}

// Write serializes g to path.
func Write(path string, g *Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("jshd: create %s: %w", path, err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(g); err != nil {
		return fmt.Errorf("jshd: encode %s: %w", path, err)
	}
	return nil
}

// Read deserializes a Grid from path.
func Read(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("jshd: open %s: %w", path, err)
	}
	defer f.Close()
	var g Grid
	if err := gob.NewDecoder(f).Decode(&g); err != nil {
		return nil, fmt.Errorf("jshd: decode %s: %w", path, err)
	}
	return &g, nil
}
