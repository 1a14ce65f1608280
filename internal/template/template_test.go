package template_test

import (
	"errors"
	"testing"

	"bennypowers.dev/tplcache/internal/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cooked(parts ...string) []template.Cooked {
	out := make([]template.Cooked, len(parts))
	for i, p := range parts {
		out[i] = template.CookedString(p)
	}
	return out
}

func TestNewDescription(t *testing.T) {
	t.Run("copies its inputs", func(t *testing.T) {
		raw := []string{"a", "b"}
		ck := cooked("a", "b")

		d, err := template.NewDescription(3, raw, ck)
		require.NoError(t, err)

		raw[0] = "mutated"
		ck[1] = template.Undefined

		assert.Equal(t, template.SlotID(3), d.Slot())
		assert.Equal(t, 2, d.Len())
		assert.Equal(t, []string{"a", "b"}, d.RawStrings())
		assert.Equal(t, cooked("a", "b"), d.CookedStrings())
	})

	t.Run("accessor copies do not leak", func(t *testing.T) {
		d, err := template.NewDescription(0, []string{"x"}, cooked("x"))
		require.NoError(t, err)

		d.RawStrings()[0] = "y"
		d.CookedStrings()[0] = template.Undefined

		assert.Equal(t, "x", d.Raw(0))
		assert.Equal(t, template.CookedString("x"), d.Cooked(0))
	})

	t.Run("undefined cooked parts are allowed", func(t *testing.T) {
		d, err := template.NewDescription(1, []string{`\unicode`}, []template.Cooked{template.Undefined})
		require.NoError(t, err)
		assert.False(t, d.Cooked(0).Valid)
	})

	t.Run("length mismatch is malformed", func(t *testing.T) {
		_, err := template.NewDescription(7, []string{"a", "b"}, cooked("a"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, template.ErrMalformedDescription))

		var malformed *template.MalformedDescriptionError
		require.True(t, errors.As(err, &malformed))
		assert.Equal(t, template.SlotID(7), malformed.Slot)
		assert.Equal(t, 2, malformed.RawLen)
		assert.Equal(t, 1, malformed.CookedLen)
		assert.Contains(t, err.Error(), "2 raw parts but 1 cooked parts")
	})

	t.Run("no parts is malformed", func(t *testing.T) {
		_, err := template.NewDescription(0, nil, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, template.ErrMalformedDescription))
		assert.Contains(t, err.Error(), "no string parts")
	})
}

func TestStore(t *testing.T) {
	d0, err := template.NewDescription(0, []string{"hello ", "!"}, cooked("hello ", "!"))
	require.NoError(t, err)
	d5, err := template.NewDescription(5, []string{"x"}, cooked("x"))
	require.NoError(t, err)

	t.Run("get returns registered descriptions", func(t *testing.T) {
		s, err := template.NewStore(d5, d0)
		require.NoError(t, err)

		got, err := s.Get(0)
		require.NoError(t, err)
		assert.Same(t, d0, got)

		got, err = s.Get(5)
		require.NoError(t, err)
		assert.Same(t, d5, got)

		assert.Equal(t, 2, s.Len())
		assert.Equal(t, []template.SlotID{0, 5}, s.Slots())
	})

	t.Run("unknown slot", func(t *testing.T) {
		s, err := template.NewStore(d0)
		require.NoError(t, err)

		_, err = s.Get(1)
		require.Error(t, err)
		assert.True(t, template.IsUnknownSlot(err))

		var unknown *template.UnknownSlotError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, template.SlotID(1), unknown.Slot)
	})

	t.Run("nil store knows no slots", func(t *testing.T) {
		var s *template.Store
		_, err := s.Get(0)
		assert.True(t, template.IsUnknownSlot(err))
		assert.Equal(t, 0, s.Len())
		assert.Nil(t, s.Slots())
	})

	t.Run("duplicate slot is rejected", func(t *testing.T) {
		dup, err := template.NewDescription(0, []string{"other"}, cooked("other"))
		require.NoError(t, err)

		_, err = template.NewStore(d0, dup)
		assert.True(t, errors.Is(err, template.ErrDuplicateSlot))
	})

	t.Run("nil description is rejected", func(t *testing.T) {
		_, err := template.NewStore(d0, nil)
		assert.True(t, errors.Is(err, template.ErrMalformedDescription))
	})
}

func TestConstruct(t *testing.T) {
	d, err := template.NewDescription(3, []string{"a", `\n`}, []template.Cooked{
		template.CookedString("a"),
		template.CookedString("\n"),
	})
	require.NoError(t, err)

	t.Run("content matches the description", func(t *testing.T) {
		obj, err := template.Construct(9, d)
		require.NoError(t, err)

		require.Equal(t, 2, obj.Len())
		assert.Equal(t, template.CookedString("a"), obj.At(0))
		assert.Equal(t, template.CookedString("\n"), obj.At(1))
		assert.Equal(t, []string{"a", `\n`}, obj.Raw().Strings())
		assert.Equal(t, `\n`, obj.Raw().At(1))
		assert.Equal(t, 2, obj.Raw().Len())
		assert.True(t, obj.Matches(d))

		assert.Equal(t, template.UnitID(9), obj.Handle().Unit)
		assert.Equal(t, template.SlotID(3), obj.Handle().Slot)
	})

	t.Run("every construction has a distinct identity", func(t *testing.T) {
		a, err := template.Construct(1, d)
		require.NoError(t, err)
		b, err := template.Construct(1, d)
		require.NoError(t, err)

		assert.True(t, a.Equal(b), "same content")
		assert.False(t, template.Same(a, b), "distinct identity")
		assert.NotEqual(t, a.Handle(), b.Handle())
		assert.True(t, template.Same(a, a))
	})

	t.Run("zero description is malformed", func(t *testing.T) {
		_, err := template.Construct(1, &template.Description{})
		assert.True(t, errors.Is(err, template.ErrMalformedDescription))

		_, err = template.Construct(1, nil)
		assert.True(t, errors.Is(err, template.ErrMalformedDescription))
	})

	t.Run("description is not affected by construction", func(t *testing.T) {
		_, err := template.Construct(2, d)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", `\n`}, d.RawStrings())
	})
}

func TestObjectIsFrozen(t *testing.T) {
	d, err := template.NewDescription(0, []string{"a", "b"}, cooked("a", "b"))
	require.NoError(t, err)
	obj, err := template.Construct(1, d)
	require.NoError(t, err)

	assert.True(t, obj.IsFrozen())

	err = obj.Set(0, template.CookedString("z"))
	assert.True(t, errors.Is(err, template.ErrFrozen))
	assert.Equal(t, template.CookedString("a"), obj.At(0))

	err = obj.Raw().Set(1, "z")
	assert.True(t, errors.Is(err, template.ErrFrozen))
	assert.Equal(t, "b", obj.Raw().At(1))

	elems := obj.Elements()
	elems[0] = template.Undefined
	raws := obj.Raw().Strings()
	raws[0] = "z"
	assert.Equal(t, template.CookedString("a"), obj.At(0))
	assert.Equal(t, "a", obj.Raw().At(0))
}

func TestSameWithNil(t *testing.T) {
	d, err := template.NewDescription(0, []string{""}, cooked(""))
	require.NoError(t, err)
	obj, err := template.Construct(1, d)
	require.NoError(t, err)

	assert.True(t, template.Same(nil, nil))
	assert.False(t, template.Same(obj, nil))
	assert.False(t, template.Same(nil, obj))
}

func TestObjectString(t *testing.T) {
	d, err := template.NewDescription(0, []string{"a", `\u{`}, []template.Cooked{
		template.CookedString("a"),
		template.Undefined,
	})
	require.NoError(t, err)
	obj, err := template.Construct(1, d)
	require.NoError(t, err)

	assert.Equal(t, `["a", undefined]`, obj.String())
}
