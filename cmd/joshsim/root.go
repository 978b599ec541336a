// Command joshsim is the CLI front door to the simulation engine: it
// wires DSL programs (loaded via the LoadProgram seam), job configs,
// external data layers, and output sinks together and drives the
// stepper (§4.13).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/schmidtdse/joshsim/compat"
	"github.com/schmidtdse/joshsim/core/units"
	"github.com/schmidtdse/joshsim/log"
)

func newRootCommand() *cobra.Command {
	var singleThreaded bool
	var numericMode string

	root := &cobra.Command{
		Use:           "joshsim",
		Short:         "Run and inspect joshsim agent-based ecological simulations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			env := compat.Threaded
			if singleThreaded {
				env = compat.SingleThreaded
			}
			mode := units.Double
			if numericMode == "arbitrary-precision" {
				mode = units.ArbitraryPrecision
			} else if numericMode != "" && numericMode != "double" {
				return fmt.Errorf("--numeric-mode must be %q or %q, got %q", "double", "arbitrary-precision", numericMode)
			}
			compat.Configure(env, mode)
			return nil
		},
	}

	root.PersistentFlags().BoolVar(&singleThreaded, "single-threaded", false,
		"run the §4.10 compatibility layer in its single-goroutine fallback mode, for embedded/single-threaded environments")
	root.PersistentFlags().StringVar(&numericMode, "numeric-mode", "double",
		`numeric precision mode: "double" or "arbitrary-precision"`)

	root.AddCommand(newRunCommand())
	root.AddCommand(newValidateCommand())
	root.AddCommand(newPreprocessCommand())
	root.AddCommand(newInspectJshdCommand())
	root.AddCommand(newDiscoverConfigCommand())
	root.AddCommand(newReportCommand())

	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Default.Errorf("joshsim: %+v", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func applyLogLevel(suppressInfo bool) {
	if suppressInfo {
		log.SetLevel(log.LevelWarn)
	}
}
