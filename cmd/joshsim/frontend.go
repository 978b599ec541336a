package main

import (
	"github.com/schmidtdse/joshsim/config"
	"github.com/schmidtdse/joshsim/core/external"
	"github.com/schmidtdse/joshsim/core/program"
	"github.com/schmidtdse/joshsim/internal/errs"
)

// LoadProgram turns DSL source text into a built Program. The DSL grammar
// and parser are an external collaborator (out of scope here, per the
// engine's own design boundary); this var is the seam a real frontend
// plugs into. The default implementation fails clearly rather than
// pretending to parse anything.
var LoadProgram = func(source []byte) (*program.Program, error) {
	return nil, errs.New(errs.ParseError, "no DSL frontend is wired into this binary; LoadProgram must be replaced")
}

// DiscoverConfigVars walks DSL source for config variable references
// (e.g. config.someVar template uses), another DSL-frontend concern; the
// default implementation reports none found rather than guessing.
var DiscoverConfigVars = func(source []byte) ([]config.DiscoveredConfigVar, error) {
	return nil, nil
}

// NewExternalReader opens source (a GeoTIFF/NetCDF/CSV-point file, per
// §4.6) for reading by the external data layer. Concrete raster/point
// format support is an external collaborator exactly like the DSL
// frontend above; the default implementation fails clearly rather than
// pretending to read anything, so `preprocess` cannot silently emit a
// uniform-value grid mislabeled as converted data.
var NewExternalReader = func(source string) (external.Reader, error) {
	return nil, errs.New(errs.IoError, "no external data reader is wired into this binary; NewExternalReader must be replaced")
}
