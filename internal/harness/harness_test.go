package harness_test

import (
	"context"
	"errors"
	"testing"

	"bennypowers.dev/tplcache/internal/codeunit"
	"bennypowers.dev/tplcache/internal/frontend"
	"bennypowers.dev/tplcache/internal/harness"
	"bennypowers.dev/tplcache/internal/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const source = "for (const x of xs) {\n  html`<li>${x}</li>`;\n  css`:host { color: red }`;\n}\n"

func TestRun(t *testing.T) {
	t.Run("every slot stays identity-stable", func(t *testing.T) {
		compiled, err := frontend.Compile("list.js", source)
		require.NoError(t, err)
		u := compiled.Unit()

		report, err := harness.Run(context.Background(), u, harness.Options{Iterations: 20, Concurrency: 8})
		require.NoError(t, err)

		assert.True(t, report.OK())
		assert.Equal(t, "list.js", report.Name)
		assert.Equal(t, u.ID(), report.Unit)
		require.Len(t, report.Slots, 2)
		for _, s := range report.Slots {
			assert.True(t, s.IdentityStable)
			assert.True(t, s.ContentMatches)
			assert.True(t, s.Frozen)
			assert.Equal(t, uint64(160), s.Evaluations)
			assert.Equal(t, u.ID(), s.Handle.Unit)
		}
		assert.Equal(t, uint64(2), report.Stats.Allocations)
		assert.Equal(t, uint64(320), report.Stats.Hits+report.Stats.Misses)
	})

	t.Run("handles match later evaluations", func(t *testing.T) {
		compiled, err := frontend.Compile("list.js", source)
		require.NoError(t, err)
		u := compiled.Unit()

		report, err := harness.Run(context.Background(), u, harness.Options{Iterations: 1, Concurrency: 2})
		require.NoError(t, err)
		assert.Equal(t, report.Slots[0].Handle, u.MustTemplateObject(0).Handle())
	})

	t.Run("units without sites use the store", func(t *testing.T) {
		d, err := template.NewDescription(4, []string{"x"}, []template.Cooked{template.CookedString("x")})
		require.NoError(t, err)
		store, err := template.NewStore(d)
		require.NoError(t, err)

		report, err := harness.Run(context.Background(), codeunit.New("bare", store), harness.Options{Iterations: 2, Concurrency: 2})
		require.NoError(t, err)
		require.Len(t, report.Slots, 1)
		assert.Equal(t, template.SlotID(4), report.Slots[0].Site.Slot)
		assert.True(t, report.OK())
	})

	t.Run("empty unit reports nothing", func(t *testing.T) {
		report, err := harness.Run(context.Background(), codeunit.New("empty", nil), harness.Options{Iterations: 1, Concurrency: 1})
		require.NoError(t, err)
		assert.Empty(t, report.Slots)
		assert.True(t, report.OK())
	})

	t.Run("destroyed unit fails the run", func(t *testing.T) {
		compiled, err := frontend.Compile("list.js", source)
		require.NoError(t, err)
		u := compiled.Unit()
		u.Destroy()

		_, err = harness.Run(context.Background(), u, harness.Options{Iterations: 1, Concurrency: 1})
		assert.True(t, errors.Is(err, codeunit.ErrDestroyed))
	})

	t.Run("cancelled context stops the run", func(t *testing.T) {
		compiled, err := frontend.Compile("list.js", source)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = harness.Run(ctx, compiled.Unit(), harness.Options{Iterations: 1, Concurrency: 1})
		assert.True(t, errors.Is(err, context.Canceled))
	})

	t.Run("options must be positive", func(t *testing.T) {
		_, err := harness.Run(context.Background(), codeunit.New("x", nil), harness.Options{})
		assert.Error(t, err)
	})
}
