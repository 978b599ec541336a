package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/schmidtdse/joshsim/core/entity"
	"github.com/schmidtdse/joshsim/debugserver"
	"github.com/schmidtdse/joshsim/internal/errs"
	"github.com/schmidtdse/joshsim/log"
	"github.com/schmidtdse/joshsim/output"
	"github.com/schmidtdse/joshsim/stepper"
	"github.com/schmidtdse/joshsim/telemetry"
)

func newRunCommand() *cobra.Command {
	var shared *sharedFlags
	var timesteps int
	var seed int64
	var out string

	cmd := &cobra.Command{
		Use:   "run <program> <simulation-name>",
		Short: "Execute N replicates of a simulation, writing to configured sinks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyLogLevel(shared.suppressInfo)

			programPath, simulationName := args[0], args[1]
			src, err := os.ReadFile(programPath)
			if err != nil {
				return err
			}
			prog, err := LoadProgram(src)
			if err != nil {
				return err
			}

			if _, ok := prog.Simulation[simulationName]; !ok {
				return errs.New(errs.UnknownEntity, "unknown simulation %q", simulationName)
			}

			bindings, err := parseDataBindings(shared.data)
			if err != nil {
				return err
			}
			tags, err := parseCustomTags(shared.customTags)
			if err != nil {
				return err
			}
			for _, b := range bindings {
				log.Default.Infof("run: external data binding %s -> %d file(s)", b.Name, len(b.Files))
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			instruments, err := telemetry.Init(ctx, shared.otelEndpoint)
			if err != nil {
				return err
			}
			defer instruments.Shutdown(ctx)

			if shared.debugAddr != "" {
				tracker := &debugserver.Tracker{}
				srv := debugserver.New(shared.debugAddr, tracker, nil)
				go func() { _ = srv.Start(ctx) }()
			}

			exporter, closeExporter, err := buildExporter(out, shared, tags)
			if err != nil {
				return err
			}
			defer closeExporter()

			cfg := stepper.Config{
				Program:    prog,
				Simulation: simulationName,
				Timesteps:  timesteps,
				Replicates: shared.replicates,
				Seed:       seed,
				Grid: func() stepper.Grid {
					return stepper.Grid{Patches: []*entity.Entity{}}
				},
				Exporter:    exporter,
				Instruments: instruments,
			}
			return stepper.Run(ctx, cfg)
		},
	}

	shared = registerSharedFlags(cmd)
	cmd.Flags().IntVar(&timesteps, "timesteps", 10, "number of timesteps per replicate")
	cmd.Flags().Int64Var(&seed, "seed", 0, "base RNG seed")
	cmd.Flags().StringVar(&out, "out", "file://./output-{replicate}.csv", "output target template")

	return cmd
}

func buildExporter(target string, shared *sharedFlags, tags map[string]string) (stepper.Exporter, func(), error) {
	parsed, err := output.ParseTarget(target)
	if err != nil {
		return nil, func() {}, err
	}

	var strategy output.StreamStrategy
	switch parsed.Scheme {
	case "stdout":
		strategy = output.StdoutStrategy{}
	case "minio":
		bucketURL := strings.TrimSuffix(shared.minioEndpoint, "/") + "/" + shared.minioBucket
		m, err := output.NewMinioStrategy(bucketURL,
			output.WithAccessKey(shared.minioAccessKey),
			output.WithSecretKey(shared.minioSecret))
		if err != nil {
			return nil, func() {}, err
		}
		strategy = m
	default:
		strategy = output.FileStrategy{}
	}

	writer := output.NewCSVWriter(parsed, strategy,
		output.WithUser(shared.user),
		output.WithEditor(shared.editor),
		output.WithTags(tags))
	exporter := output.AsExporter(writer)

	async, err := output.NewAsyncExporter(exporter, 8)
	if err != nil {
		return nil, func() {}, err
	}
	return async, func() { _ = async.Close() }, nil
}
