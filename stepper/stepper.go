// Package stepper implements the simulation stepper: per-timestep phase
// execution (init once, then start/step/end per timestep), organism
// collection re-discovery after the step substep, freezing current into
// prior at timestep end, export dispatch, and the replicate loop.
package stepper

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/schmidtdse/joshsim/core/entity"
	"github.com/schmidtdse/joshsim/core/program"
	"github.com/schmidtdse/joshsim/core/shadow"
	"github.com/schmidtdse/joshsim/core/values"
	"github.com/schmidtdse/joshsim/log"
	"github.com/schmidtdse/joshsim/telemetry"
)

// ExportRow is one entity's snapshot at the end of a timestep, handed to
// the output pipeline.
type ExportRow struct {
	Replicate int
	Step      int
	TypeName  string
	Key       values.GeoKey
	Attrs     map[string]values.EngineValue
}

// Exporter receives one ExportRow per live entity per timestep. The
// output package's combined writer implements this.
type Exporter interface {
	Export(row ExportRow) error
}

// Grid seeds the initial patch set for a run; a real run builds this from
// the simulation's declared grid geometry and the external data layer.
// Organisms are never seeded directly here — they come into existence via
// patch collection attributes during init/start.
type Grid struct {
	Patches []*entity.Entity
}

// Config bundles everything one replicate needs to run.
type Config struct {
	Program     *program.Program
	Simulation  string // name of the simulation prototype to run
	Timesteps   int
	Replicates  int
	Seed        int64
	Grid        func() Grid // constructs a fresh grid per replicate
	Exporter    Exporter
	Instruments *telemetry.Instruments
}

// Run executes every replicate of Config, sequentially. Replicates are
// independent (spec §4.5) and safe to parallelize; Run keeps them
// sequential so a single Exporter can be shared without synchronization -
// parallel replicate execution is the caller's responsibility (give each
// replicate its own Stepper and Exporter, then fan the goroutines out).
func Run(ctx context.Context, cfg Config) error {
	for r := 0; r < cfg.Replicates; r++ {
		s := New(cfg, r)
		if err := s.RunReplicate(ctx); err != nil {
			return fmt.Errorf("replicate %d: %w", r, err)
		}
		cfg.Instruments.RecordReplicate(ctx)
	}
	return nil
}

// Stepper runs a single replicate.
type Stepper struct {
	cfg       Config
	replicate int
	resolver  *shadow.Resolver
}

// New constructs a Stepper for one replicate, with a seed derived from the
// base seed and the replicate index so replicates are independent but
// reproducible.
func New(cfg Config, replicate int) *Stepper {
	rng := values.NewRNG(cfg.Seed + int64(replicate))
	return &Stepper{
		cfg:       cfg,
		replicate: replicate,
		resolver:  shadow.NewResolver(cfg.Program.Arithmetic(), rng),
	}
}

// RunReplicate executes init once, then the timestep loop, for this
// replicate's grid.
func (s *Stepper) RunReplicate(ctx context.Context) error {
	grid := s.cfg.Grid()
	patches := grid.Patches
	organisms := []*entity.Entity{}

	meta := shadow.MetaScope{StepCount: 0, Replicate: s.replicate}
	live := append(append([]*entity.Entity{}, patches...), organisms...)
	if err := s.runSubstep(ctx, entity.SubstepInit, meta, live, patches); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	organisms = s.discoverOrganisms(patches)

	for t := 0; t < s.cfg.Timesteps; t++ {
		start := time.Now()
		meta = shadow.MetaScope{StepCount: t, Year: t, Replicate: s.replicate}
		live = append(append([]*entity.Entity{}, patches...), organisms...)

		for _, substep := range entity.Order {
			if err := s.runSubstep(ctx, substep, meta, live, patches); err != nil {
				return fmt.Errorf("timestep %d substep %s: %w", t, substep, err)
			}
			if substep == entity.SubstepStep {
				organisms = s.discoverOrganisms(patches)
				live = append(append([]*entity.Entity{}, patches...), organisms...)
			}
		}

		for _, e := range live {
			e.Freeze()
		}
		if err := s.export(t, live); err != nil {
			return fmt.Errorf("timestep %d export: %w", t, err)
		}

		s.cfg.Instruments.RecordTimestep(ctx, time.Since(start), s.replicate)
		s.cfg.Instruments.RecordEntitiesResolved(ctx, int64(len(live)))
		log.DebugContext(ctx, "timestep complete replicate=%d step=%d entities=%d elapsed=%s",
			s.replicate, t, len(live), time.Since(start))
	}
	log.InfoContext(ctx, "replicate complete replicate=%d timesteps=%d", s.replicate, s.cfg.Timesteps)
	return nil
}

// runSubstep resolves every declared attribute on every live entity for
// substep. Patches are resolved first (they may be done in parallel;
// sequential here keeps the reference stepper simple and deterministic),
// then organisms, which may read their patch's attributes via "here".
func (s *Stepper) runSubstep(ctx context.Context, substep string, meta shadow.MetaScope, live, patches []*entity.Entity) error {
	s.resolver.BeginSubstep(substep, meta, live)

	patchByKey := map[values.GeoKey]*entity.Entity{}
	for _, p := range patches {
		patchByKey[p.Key] = p
	}

	for _, p := range patches {
		if err := s.resolveAll(p, nil); err != nil {
			return err
		}
	}
	for _, e := range live {
		if e.Proto.Kind != entity.KindOrganism {
			continue
		}
		here := patchByKey[e.Key]
		if err := s.resolveAll(e, here); err != nil {
			return err
		}
	}
	return nil
}

// resolveAll resolves every attribute the entity's prototype declares a
// default or handler for, demand-driven (resolving one attribute may
// recursively resolve its dependencies via the View).
func (s *Stepper) resolveAll(e *entity.Entity, here *entity.Entity) error {
	e.Lock()
	defer e.Unlock()
	v := s.resolver.ViewFor(e, here)
	for attr := range e.Proto.Defaults {
		if _, err := v.Resolve(attr); err != nil {
			return fmt.Errorf("%s@%s.%s: %w", e.Proto.TypeName, e.Key, attr, err)
		}
	}
	for _, attr := range e.Proto.CollectionAttrs {
		if _, err := v.Resolve(attr); err != nil {
			return fmt.Errorf("%s@%s.%s: %w", e.Proto.TypeName, e.Key, attr, err)
		}
	}
	return nil
}

// discoverOrganisms reads every patch's collection attributes (e.g.
// "Trees") and returns the union of referenced organism entities, per
// spec §4.4's discovery rule: this is re-run after every step substep so
// organisms created by a step-phase handler are picked up for the
// remainder of the timestep and for t+1, closing the known bug in §4.4.
func (s *Stepper) discoverOrganisms(patches []*entity.Entity) []*entity.Entity {
	seen := map[*entity.Entity]bool{}
	out := []*entity.Entity{}
	for _, p := range patches {
		for _, attr := range p.Proto.CollectionAttrs {
			val, err := p.CurrentValue(attr)
			if err != nil {
				continue
			}
			coll, ok := val.(values.Collection)
			if !ok {
				continue
			}
			for _, ref := range coll.Refs {
				handle, ok := ref.Handle.(*entity.Entity)
				if !ok || handle == nil || seen[handle] {
					continue
				}
				seen[handle] = true
				out = append(out, handle)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out
}

func (s *Stepper) export(step int, live []*entity.Entity) error {
	if s.cfg.Exporter == nil {
		return nil
	}
	for _, e := range live {
		row := ExportRow{
			Replicate: s.replicate,
			Step:      step,
			TypeName:  e.Proto.TypeName,
			Key:       e.Key,
			Attrs:     e.Snapshot(),
		}
		if err := s.cfg.Exporter.Export(row); err != nil {
			return err
		}
	}
	return nil
}
