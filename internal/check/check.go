// Package check compiles source files into code units and runs the harness
// over each of them.
package check

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"bennypowers.dev/tplcache/internal/codeunit"
	"bennypowers.dev/tplcache/internal/config"
	"bennypowers.dev/tplcache/internal/frontend"
	"bennypowers.dev/tplcache/internal/harness"
	"bennypowers.dev/tplcache/internal/log"
	"bennypowers.dev/tplcache/internal/report"
	"bennypowers.dev/tplcache/internal/version"
	"golang.org/x/sync/errgroup"
)

// Checker runs check passes. Units stay registered only while their file is
// being checked.
type Checker struct {
	cfg      config.Config
	registry *codeunit.Registry
}

// New creates a checker for cfg
func New(cfg config.Config) *Checker {
	return &Checker{
		cfg:      cfg,
		registry: codeunit.NewRegistry(),
	}
}

// Registry returns the registry units are tracked in while they are checked
func (c *Checker) Registry() *codeunit.Registry {
	return c.registry
}

// Files checks each file. Files that fail to read or compile are listed in
// the report; only context cancellation is returned as an error.
func (c *Checker) Files(ctx context.Context, files []string) (*report.Report, error) {
	r := &report.Report{Version: version.GetVersion()}

	var mu sync.Mutex
	units := make([]*harness.UnitReport, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ur, err := c.file(ctx, file)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Error("%s: %v", file, err)
				mu.Lock()
				r.Failed = append(r.Failed, report.Failure{File: file, Error: err.Error()})
				mu.Unlock()
				return nil
			}
			units[i] = ur
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(r.Failed, func(a, b report.Failure) int {
		return strings.Compare(a.File, b.File)
	})
	for _, ur := range units {
		if ur != nil {
			r.Units = append(r.Units, ur)
		}
	}
	log.Info("Checked %d files (%d failed)", len(files), len(r.Failed))
	return r, nil
}

// Source checks one in-memory source file
func (c *Checker) Source(ctx context.Context, name, source string) (*harness.UnitReport, error) {
	compiled, err := frontend.Compile(name, source, frontend.WithTags(c.cfg.Tags...))
	if err != nil {
		return nil, err
	}

	u := compiled.Unit()
	c.registry.Register(u)
	defer func() {
		if err := c.registry.Release(u.ID()); err != nil {
			log.Debug("release %s: %v", name, err)
		}
	}()

	log.Debug("%s: compiled unit %d with %d call sites", name, u.ID(), len(compiled.Sites))
	return harness.Run(ctx, u, harness.Options{
		Iterations:  c.cfg.Iterations,
		Concurrency: c.cfg.Concurrency,
	})
}

func (c *Checker) file(ctx context.Context, file string) (*harness.UnitReport, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read: %w", err)
	}
	return c.Source(ctx, file, string(data))
}
