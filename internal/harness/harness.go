// Package harness drives code units the way a concurrent evaluator would and
// checks that every call site keeps resolving to one template object.
package harness

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"bennypowers.dev/tplcache/internal/cache"
	"bennypowers.dev/tplcache/internal/codeunit"
	"bennypowers.dev/tplcache/internal/log"
	"bennypowers.dev/tplcache/internal/template"
	"golang.org/x/sync/errgroup"
)

// Options controls a run
type Options struct {
	// Iterations is how many times each worker evaluates each slot
	Iterations int
	// Concurrency is the number of workers
	Concurrency int
}

// SlotReport is the outcome for one call site
type SlotReport struct {
	Site           codeunit.Site   `json:"site" yaml:"site"`
	Handle         template.Handle `json:"handle" yaml:"handle"`
	Evaluations    uint64          `json:"evaluations" yaml:"evaluations"`
	IdentityStable bool            `json:"identityStable" yaml:"identityStable"`
	ContentMatches bool            `json:"contentMatches" yaml:"contentMatches"`
	Frozen         bool            `json:"frozen" yaml:"frozen"`
}

// OK reports whether the slot passed every check
func (r SlotReport) OK() bool {
	return r.IdentityStable && r.ContentMatches && r.Frozen
}

// UnitReport is the outcome for one code unit
type UnitReport struct {
	Name  string          `json:"name" yaml:"name"`
	Unit  template.UnitID `json:"unit" yaml:"unit"`
	Slots []SlotReport    `json:"slots" yaml:"slots"`
	Stats cache.Stats     `json:"stats" yaml:"stats"`
}

// OK reports whether every slot passed and no slot was materialized twice
func (r *UnitReport) OK() bool {
	for _, s := range r.Slots {
		if !s.OK() {
			return false
		}
	}
	return r.Stats.Allocations <= uint64(len(r.Slots))
}

type slotState struct {
	first       atomic.Pointer[template.Object]
	evaluations atomic.Uint64
	mismatches  atomic.Uint64
}

// Run evaluates every slot of u Iterations times on each of Concurrency
// workers. A resolve error stops the run and is returned; identity violations
// are reported, not returned.
func Run(ctx context.Context, u *codeunit.Unit, opts Options) (*UnitReport, error) {
	if opts.Iterations < 1 || opts.Concurrency < 1 {
		return nil, fmt.Errorf("iterations and concurrency must be positive, got %d and %d", opts.Iterations, opts.Concurrency)
	}

	sites := u.Sites()
	if len(sites) == 0 {
		for _, slot := range u.Descriptions().Slots() {
			sites = append(sites, codeunit.Site{Slot: slot})
		}
	}
	states := make([]slotState, len(sites))

	g, ctx := errgroup.WithContext(ctx)
	for w := range opts.Concurrency {
		g.Go(func() error {
			for i := range opts.Iterations {
				if err := ctx.Err(); err != nil {
					return err
				}
				// Workers start on different slots so first evaluations race.
				for k := range sites {
					idx := (k + w + i) % len(sites)
					obj, err := u.TemplateObject(sites[idx].Slot)
					if err != nil {
						return err
					}
					st := &states[idx]
					st.evaluations.Add(1)
					if !st.first.CompareAndSwap(nil, obj) && !template.Same(st.first.Load(), obj) {
						st.mismatches.Add(1)
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &UnitReport{
		Name:  u.Name(),
		Unit:  u.ID(),
		Stats: u.Stats(),
	}
	descriptions := u.Descriptions()
	for i, site := range sites {
		st := &states[i]
		sr := SlotReport{
			Site:           site,
			Evaluations:    st.evaluations.Load(),
			IdentityStable: st.mismatches.Load() == 0,
		}
		if obj := st.first.Load(); obj != nil {
			sr.Handle = obj.Handle()
			sr.Frozen = errors.Is(obj.Set(0, template.Undefined), template.ErrFrozen) && obj.IsFrozen()
			if desc, err := descriptions.Get(site.Slot); err == nil {
				sr.ContentMatches = obj.Matches(desc)
			}
		}
		if !sr.OK() {
			log.Warn("%s: slot %d failed checks (identity=%t content=%t frozen=%t)",
				u.Name(), site.Slot, sr.IdentityStable, sr.ContentMatches, sr.Frozen)
		}
		report.Slots = append(report.Slots, sr)
	}
	return report, nil
}
