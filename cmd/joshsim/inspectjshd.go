package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/schmidtdse/joshsim/core/jshd"
)

func newInspectJshdCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspectJshd <file> <variable> <timestep> <x> <y>",
		Short: "Print the value at one grid coordinate of a .jshd file",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			grid, err := jshd.Read(args[0])
			if err != nil {
				return err
			}
			if grid.Variable != args[1] {
				return fmt.Errorf("inspectJshd: file holds variable %q, not %q", grid.Variable, args[1])
			}
			t, err := strconv.Atoi(args[2])
			if err != nil {
				return err
			}
			x, err := strconv.Atoi(args[3])
			if err != nil {
				return err
			}
			y, err := strconv.Atoi(args[4])
			if err != nil {
				return err
			}
			v, err := grid.At(t, x, y)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%g %s\n", v, grid.UnitsText)
			return nil
		},
	}
	return cmd
}
