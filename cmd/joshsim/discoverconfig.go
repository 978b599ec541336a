package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/schmidtdse/joshsim/config"
	"github.com/schmidtdse/joshsim/debugserver"
)

func newDiscoverConfigCommand() *cobra.Command {
	var shared *sharedFlags

	cmd := &cobra.Command{
		Use:   "discoverConfig <program>",
		Short: "Emit a sorted list of config variables referenced by a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyLogLevel(shared.suppressInfo)

			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			vars, err := DiscoverConfigVars(src)
			if err != nil {
				return err
			}
			lines := config.Discover(vars)

			if shared.debugAddr != "" {
				tracker := &debugserver.Tracker{}
				srv := debugserver.New(shared.debugAddr, tracker, lines)
				go func() { _ = srv.Start(cmd.Context()) }()
			}

			for _, line := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	shared = registerSharedFlags(cmd)
	return cmd
}
