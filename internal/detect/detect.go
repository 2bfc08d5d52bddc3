// Package detect finds VLAN islands in per-VLAN graphs and classifies them.
package detect

import (
	"context"
	"log/slog"
	"sort"

	"vlanislands/internal/domain"
	"vlanislands/internal/graph"

	"golang.org/x/sync/errgroup"
)

// Result is the detection outcome for one VLAN.
// Components lists every connected component, main segment first.
type Result struct {
	Vlan          domain.VLAN
	TotalDevices  int
	Components    []domain.Island
	Fragmentation domain.Severity
}

// ComponentCount returns the number of connected components
func (r Result) ComponentCount() int {
	return len(r.Components)
}

// Healthy reports whether the VLAN has at most one component
func (r Result) Healthy() bool {
	return len(r.Components) <= 1
}

// Islands returns the components cut off from the main segment
func (r Result) Islands() []domain.Island {
	if len(r.Components) <= 1 {
		return nil
	}
	return r.Components[1:]
}

// Options configures a Detector
type Options struct {
	// Workers bounds concurrent per-VLAN detection; 0 or 1 runs sequentially
	Workers int
	Logger  *slog.Logger
}

// Detector classifies connected components of VLAN graphs
type Detector struct {
	policy  Policy
	workers int
	logger  *slog.Logger
}

// New creates a detector for a policy
func New(policy Policy, opts Options) *Detector {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		policy:  policy,
		workers: opts.Workers,
		logger:  logger,
	}
}

// Policy returns the detector's policy
func (d *Detector) Policy() Policy {
	return d.policy
}

// DetectAll runs detection for every VLAN graph. Results keep the input
// order regardless of worker count. The only error is ctx cancellation.
func (d *Detector) DetectAll(ctx context.Context, vlans []*graph.VlanGraph) ([]Result, error) {
	results := make([]Result, len(vlans))

	if d.workers <= 1 {
		for i, vg := range vlans {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = d.Detect(vg)
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i, vg := range vlans {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = d.Detect(vg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// Detect computes and classifies the components of one VLAN graph
func (d *Detector) Detect(vg *graph.VlanGraph) Result {
	res := Result{
		Vlan:         vg.Vlan,
		TotalDevices: vg.Len(),
	}

	comps := vg.Components()
	if len(comps) == 0 {
		res.Fragmentation = domain.SeverityNone
		return res
	}

	// Components arrive ordered by lowest index and index order is id
	// order, so a stable sort by size keeps the lowest-id tie-break.
	sort.SliceStable(comps, func(i, j int) bool {
		return len(comps[i]) > len(comps[j])
	})

	res.Components = make([]domain.Island, 0, len(comps))
	for i, comp := range comps {
		members := make([]string, 0, len(comp))
		for _, n := range comp {
			members = append(members, vg.ID(n))
		}

		island := domain.Island{
			Members: members,
			Size:    len(members),
		}
		switch {
		case i == 0:
			island.Classification = domain.ClassMainSegment
			island.Severity = domain.SeverityNone
		case island.Size == 1:
			island.Classification = domain.ClassIsolatedSingleton
			island.Severity = d.policy.IslandSeverity(island.Size, res.TotalDevices)
		default:
			island.Classification = domain.ClassPartitionedSegment
			island.Severity = d.policy.IslandSeverity(island.Size, res.TotalDevices)
		}
		res.Components = append(res.Components, island)
	}
	res.Fragmentation = d.policy.Fragmentation(len(comps))

	if len(comps) > 1 {
		d.logger.Debug("vlan fragmented",
			"vlan", vg.Vlan.ID,
			"components", len(comps),
			"main_segment", res.Components[0].Size,
			"fragmentation", res.Fragmentation)
	}

	return res
}
