package output

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-pdf/fpdf"
)

// RunSummary is the data behind the supplemental one-page PDF report
// produced by the `report` CLI verb: not one of the §6 export formats,
// purely a human-readable artifact summarizing a completed run.
type RunSummary struct {
	SimulationName string
	Replicates     int
	Timesteps      int
	EntityCounts   map[string]int // final-timestep live-entity count per type
}

// WritePDF renders summary as a single-page PDF to w.
func WritePDF(summary RunSummary, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("joshsim run report: %s", summary.SimulationName), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.Ln(4)
	pdf.CellFormat(0, 8, fmt.Sprintf("Replicates: %d", summary.Replicates), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Timesteps: %d", summary.Timesteps), "", 1, "L", false, 0, "")

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Final live entity counts", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	typeNames := make([]string, 0, len(summary.EntityCounts))
	for typeName := range summary.EntityCounts {
		typeNames = append(typeNames, typeName)
	}
	sort.Strings(typeNames)
	for _, typeName := range typeNames {
		pdf.CellFormat(0, 7, fmt.Sprintf("%s: %d", typeName, summary.EntityCounts[typeName]), "", 1, "L", false, 0, "")
	}

	return pdf.Output(w)
}
