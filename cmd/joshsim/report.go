package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schmidtdse/joshsim/output"
)

func newReportCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "report <export.csv>",
		Short: "Render a one-page PDF summary of a completed run's CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := summarizeCSV(args[0])
			if err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			return output.WritePDF(summary, f)
		},
	}

	cmd.Flags().StringVar(&out, "out", "summary.pdf", "PDF report output path")
	return cmd
}

// summarizeCSV reads one replicate's §4.7 CSV export (header "step, type,
// key, ...attrs", one file per replicate since CSVWriter keys its streams
// by replicate number) and counts live entities per type at the final
// timestep present in the file, per output.RunSummary's documented
// semantics. The replicate number itself isn't a column in this layout; a
// human-readable label is taken from the file's basename instead.
func summarizeCSV(path string) (output.RunSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return output.RunSummary{}, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return output.RunSummary{}, err
	}
	stepCol, typeCol := -1, -1
	for i, col := range header {
		switch col {
		case "step":
			stepCol = i
		case "type":
			typeCol = i
		}
	}

	var rows [][]string
	minStep, maxStep := -1, -1
	for {
		row, err := reader.Read()
		if err != nil {
			break
		}
		rows = append(rows, row)
		if stepCol >= 0 && stepCol < len(row) {
			if step, err := strconv.Atoi(row[stepCol]); err == nil {
				if minStep == -1 || step < minStep {
					minStep = step
				}
				if step > maxStep {
					maxStep = step
				}
			}
		}
	}
	if minStep == -1 {
		minStep, maxStep = 0, -1
	}

	// EntityCounts is a final-timestep live-entity snapshot (per
	// output.RunSummary), not a sum across every timestep in the file.
	counts := map[string]int{}
	for _, row := range rows {
		if stepCol >= 0 && stepCol < len(row) {
			step, err := strconv.Atoi(row[stepCol])
			if err != nil || step != maxStep {
				continue
			}
		}
		typeName := "unknown"
		if typeCol >= 0 && typeCol < len(row) {
			typeName = row[typeCol]
		}
		counts[typeName]++
	}

	return output.RunSummary{
		SimulationName: inferReplicateLabel(path),
		Replicates:     1,
		Timesteps:      maxStep - minStep + 1,
		EntityCounts:   counts,
	}, nil
}

func inferReplicateLabel(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
