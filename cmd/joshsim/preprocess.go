package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/schmidtdse/joshsim/core/external"
	"github.com/schmidtdse/joshsim/core/jshd"
	"github.com/schmidtdse/joshsim/core/values"
	"github.com/schmidtdse/joshsim/log"
	"github.com/schmidtdse/joshsim/output"
)

func newPreprocessCommand() *cobra.Command {
	var shared *sharedFlags
	var variable, unitsText, crs, out string
	var defaultValue float64
	var width, height, timesteps, cacheSize int
	var minLat, minLon, maxLat, maxLon float64

	cmd := &cobra.Command{
		Use:   "preprocess <source>",
		Short: "Convert external raster/point data to an internal binary data grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyLogLevel(shared.suppressInfo)
			source := args[0]

			reader, err := NewExternalReader(source)
			if err != nil {
				return err
			}
			var layer external.Layer = external.Base{Reader: reader}
			extent := external.Geometry{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon}
			layer = external.NewPrimingLayer(layer, external.PrimingStatic, extent)
			if cacheSize > 0 {
				layer = external.NewCacheLayer(layer, cacheSize)
			}

			grid := jshd.NewGrid(variable, unitsText, crs, defaultValue, width, height, timesteps)
			dflt := values.Decimal{V: defaultValue}
			rng := values.NewRNG(0)
			cellLat := (maxLat - minLat) / float64(width)
			cellLon := (maxLon - minLon) / float64(height)

			for x := 0; x < width; x++ {
				for y := 0; y < height; y++ {
					cell := external.Geometry{
						MinLat: minLat + float64(x)*cellLat,
						MaxLat: minLat + float64(x+1)*cellLat,
						MinLon: minLon + float64(y)*cellLon,
						MaxLon: minLon + float64(y+1)*cellLon,
					}
					dist, err := layer.Fulfill(external.Request{
						Source: source, Variable: variable, Target: cell, DefaultValue: dflt,
					})
					if err != nil {
						return err
					}
					samples := dist.Elements(rng)
					v, _ := samples[0].(values.Decimal)
					for t := 0; t < timesteps; t++ {
						grid.Cells[t][x][y] = v.V
					}
				}
			}

			if err := jshd.Write(out, grid); err != nil {
				return err
			}
			log.Default.Infof("preprocess: wrote %s (%dx%dx%d) from %s", out, width, height, timesteps, source)

			if shared.bundle {
				manifest := output.BundleManifest{
					Source:        source,
					Variable:      variable,
					Units:         unitsText,
					CRS:           crs,
					DefaultValue:  defaultValue,
					TimestepStart: 0,
					TimestepEnd:   timesteps - 1,
					GeneratedAt:   time.Now(),
				}
				if err := output.Bundle(out, manifest, out+".tar"); err != nil {
					return err
				}
				log.Default.Infof("preprocess: wrote bundle %s.tar", out)
			}
			return nil
		},
	}

	shared = registerSharedFlags(cmd)
	cmd.Flags().StringVar(&variable, "variable", "", "variable name stored in the grid")
	cmd.Flags().StringVar(&unitsText, "units", "", "unit text for the stored values")
	cmd.Flags().StringVar(&crs, "crs", "EPSG:4326", "coordinate reference system")
	cmd.Flags().StringVar(&out, "out", "", "output .jshd path")
	cmd.Flags().Float64Var(&defaultValue, "default-value", 0, "value for cells outside the source extent")
	cmd.Flags().IntVar(&width, "width", 1, "grid width in cells")
	cmd.Flags().IntVar(&height, "height", 1, "grid height in cells")
	cmd.Flags().IntVar(&timesteps, "timestep", 1, "number of timesteps to preprocess")
	cmd.Flags().IntVar(&cacheSize, "cache-size", 256, "priming-geometry LRU cache entries (0 disables caching)")
	cmd.Flags().Float64Var(&minLat, "min-lat", 0, "grid extent minimum latitude")
	cmd.Flags().Float64Var(&minLon, "min-lon", 0, "grid extent minimum longitude")
	cmd.Flags().Float64Var(&maxLat, "max-lat", 1, "grid extent maximum latitude")
	cmd.Flags().Float64Var(&maxLon, "max-lon", 1, "grid extent maximum longitude")
	_ = cmd.MarkFlagRequired("variable")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}
