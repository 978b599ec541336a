package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/schmidtdse/joshsim/log"
)

func newValidateCommand() *cobra.Command {
	var shared *sharedFlags

	cmd := &cobra.Command{
		Use:   "validate <program>",
		Short: "Parse and build a program without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyLogLevel(shared.suppressInfo)

			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			prog, err := LoadProgram(src)
			if err != nil {
				return err
			}
			log.Default.Infof("program valid: %d prototype(s), %d simulation(s)",
				len(prog.Prototypes), len(prog.Simulation))
			return nil
		},
	}

	shared = registerSharedFlags(cmd)
	return cmd
}
