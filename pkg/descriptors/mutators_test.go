package descriptors

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/holons/pkg/types"
)

func ptr[T any](v T) *T { return &v }

func TestNewTypeHeader(t *testing.T) {
	_, err := NewTypeHeader("", types.BaseTypeString, "d", "l", false)
	require.ErrorIs(t, err, types.ErrEmptyField)
	assert.Contains(t, err.Error(), "type_name")

	h, err := NewTypeHeader("X", types.BaseTypeHolon, "desc", "label", true)
	require.NoError(t, err)
	assert.Equal(t, "X", h.TypeName)
	assert.Equal(t, types.BaseTypeHolon, h.BaseType)
	assert.Equal(t, types.DefaultVersion(), h.Version)
	assert.True(t, h.IsDependent)
}

func TestScalarMutatorsRoundTrip(t *testing.T) {
	build := map[string]func() (types.PropertyDescriptor, error){
		"boolean": func() (types.PropertyDescriptor, error) {
			return NewBooleanDescriptor("simple_Boolean_Type", "a bool", "Bool", false, true)
		},
		"string": func() (types.PropertyDescriptor, error) {
			return NewStringDescriptor("simple_String_Type", "a string", "Str", false, 0, 2048)
		},
		"integer": func() (types.PropertyDescriptor, error) {
			return NewIntegerDescriptor("simple_I64_Integer_Type", "an int", "Int", false, types.IntegerFormatI64, math.MinInt64, math.MaxInt64)
		},
		"collection": func() (types.PropertyDescriptor, error) {
			return NewValueCollectionDescriptor("Tags", "tags", "Tags", true, "Tag", 0, 20, true, false)
		},
	}
	for name, fn := range build {
		t.Run(name, func(t *testing.T) {
			first, err := fn()
			require.NoError(t, err)
			second, err := fn()
			require.NoError(t, err)

			b, err := json.Marshal(first)
			require.NoError(t, err)
			var decoded types.PropertyDescriptor
			require.NoError(t, json.Unmarshal(b, &decoded))
			assert.Equal(t, second, decoded)
		})
	}
}

func TestNewDescriptorsSetBaseType(t *testing.T) {
	b, err := NewBooleanDescriptor("B", "", "", false, false)
	require.NoError(t, err)
	assert.Equal(t, types.BaseTypeBoolean, b.Header.BaseType)

	s, err := NewStringDescriptor("S", "", "", false, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, types.BaseTypeString, s.Header.BaseType)

	i, err := NewIntegerDescriptor("I", "", "", false, types.IntegerFormatU16, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, types.BaseTypeInteger, i.Header.BaseType)

	c, err := NewCompositeDescriptor("C", "", "", false, NewPropertyDescriptorMap())
	require.NoError(t, err)
	assert.Equal(t, types.BaseTypeComposite, c.Header.BaseType)

	v, err := NewValueCollectionDescriptor("V", "", "", false, "I", 0, 1, false, false)
	require.NoError(t, err)
	assert.Equal(t, types.BaseTypeCollection, v.Header.BaseType)
}

func TestConstructionValidatesConstraints(t *testing.T) {
	tests := []struct {
		name string
		fn   func() (types.PropertyDescriptor, error)
		want error
	}{
		{"empty name", func() (types.PropertyDescriptor, error) { return NewBooleanDescriptor("", "", "", false, false) }, types.ErrEmptyField},
		{"string bounds", func() (types.PropertyDescriptor, error) { return NewStringDescriptor("S", "", "", false, 5, 4) }, types.ErrInvalidConstraint},
		{"integer bounds", func() (types.PropertyDescriptor, error) {
			return NewIntegerDescriptor("I", "", "", false, types.IntegerFormatI8, 10, -10)
		}, types.ErrInvalidConstraint},
		{"integer exceeds format", func() (types.PropertyDescriptor, error) {
			return NewIntegerDescriptor("I", "", "", false, types.IntegerFormatI8, -128, 128)
		}, types.ErrInvalidConstraint},
		{"collection bounds", func() (types.PropertyDescriptor, error) {
			return NewValueCollectionDescriptor("V", "", "", false, "I", 2, 1, false, false)
		}, types.ErrInvalidConstraint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fn()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUpdateStringDescriptorUnsetFieldsPreserve(t *testing.T) {
	original, err := NewStringDescriptor("Title", "the title", "Title", false, 1, 255)
	require.NoError(t, err)

	updated, err := UpdateStringDescriptor(original, StringUpdate{})
	require.NoError(t, err)
	assert.Equal(t, original, updated)
}

func TestUpdateScalarOverrides(t *testing.T) {
	b, err := NewBooleanDescriptor("B", "old", "Old", false, false)
	require.NoError(t, err)
	b2, err := UpdateBooleanDescriptor(b, BooleanUpdate{Description: ptr("new"), IsFuzzy: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, "new", b2.Header.Description)
	assert.Equal(t, "Old", b2.Header.Label)
	assert.Equal(t, types.BooleanDescriptor{IsFuzzy: true}, b2.Details)
	assert.Equal(t, types.BooleanDescriptor{IsFuzzy: false}, b.Details, "original must not change")

	s, err := NewStringDescriptor("S", "", "", false, 0, 10)
	require.NoError(t, err)
	s2, err := UpdateStringDescriptor(s, StringUpdate{Label: ptr("Short"), MaxLength: ptr(uint32(5))})
	require.NoError(t, err)
	assert.Equal(t, "Short", s2.Header.Label)
	assert.Equal(t, types.StringDescriptor{MinLength: 0, MaxLength: 5}, s2.Details)

	i, err := NewIntegerDescriptor("I", "", "", false, types.IntegerFormatI32, -5, 5)
	require.NoError(t, err)
	i2, err := UpdateIntegerDescriptor(i, IntegerUpdate{Format: ptr(types.IntegerFormatU8), MinValue: ptr(int64(0)), MaxValue: ptr(int64(200))})
	require.NoError(t, err)
	assert.Equal(t, types.IntegerDescriptor{Format: types.IntegerFormatU8, MinValue: 0, MaxValue: 200}, i2.Details)

	_, err = UpdateIntegerDescriptor(i, IntegerUpdate{Format: ptr(types.IntegerFormatU8)})
	assert.ErrorIs(t, err, types.ErrInvalidConstraint, "-5 does not fit U8")

	v, err := NewValueCollectionDescriptor("V", "", "", false, "Item", 0, 3, false, false)
	require.NoError(t, err)
	v2, err := UpdateValueCollectionDescriptor(v, ValueCollectionUpdate{MaxItems: ptr(uint32(9)), IsOrdered: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, types.ValueCollectionDescriptor{ContainsItemsOfType: "Item", MaxItems: 9, IsOrdered: true}, v2.Details)
}

func TestUpdateVariantMismatch(t *testing.T) {
	str, err := NewStringDescriptor("S", "", "", false, 0, 1)
	require.NoError(t, err)
	boolean, err := NewBooleanDescriptor("B", "", "", false, false)
	require.NoError(t, err)

	tests := []struct {
		name     string
		fn       func() error
		expected types.BaseType
		actual   types.BaseType
	}{
		{"boolean on string", func() error { _, err := UpdateBooleanDescriptor(str, BooleanUpdate{}); return err }, types.BaseTypeBoolean, types.BaseTypeString},
		{"string on boolean", func() error { _, err := UpdateStringDescriptor(boolean, StringUpdate{}); return err }, types.BaseTypeString, types.BaseTypeBoolean},
		{"integer on string", func() error { _, err := UpdateIntegerDescriptor(str, IntegerUpdate{}); return err }, types.BaseTypeInteger, types.BaseTypeString},
		{"composite on boolean", func() error { _, err := UpdateCompositeDescriptor(boolean, CompositeUpdate{}); return err }, types.BaseTypeComposite, types.BaseTypeBoolean},
		{"collection on string", func() error {
			_, err := UpdateValueCollectionDescriptor(str, ValueCollectionUpdate{})
			return err
		}, types.BaseTypeCollection, types.BaseTypeString},
		{"boolean on empty", func() error { _, err := UpdateBooleanDescriptor(types.PropertyDescriptor{}, BooleanUpdate{}); return err }, types.BaseTypeBoolean, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			require.ErrorIs(t, err, types.ErrUnexpectedVariant)
			var uve *types.UnexpectedVariantError
			require.ErrorAs(t, err, &uve)
			assert.Equal(t, tt.expected, uve.Expected)
			assert.Equal(t, tt.actual, uve.Actual)
		})
	}
}

func TestNewCompositeDescriptorOwnsItsMap(t *testing.T) {
	m := NewPropertyDescriptorMap()
	b, err := NewBooleanDescriptor("B", "", "", false, false)
	require.NoError(t, err)
	require.NoError(t, UpsertPropertyDescriptor(&m, "flag", NewPropertyUsage("", "", b, types.Dedicated())))

	c, err := NewCompositeDescriptor("C", "", "", false, m)
	require.NoError(t, err)
	RemovePropertyDescriptor(&m, "flag")

	details, err := c.Composite()
	require.NoError(t, err)
	assert.Equal(t, []string{"flag"}, details.PropertyMap.Names())
}

func TestNewCompositeDescriptorNests(t *testing.T) {
	leaf, err := NewStringDescriptor("Leaf", "", "", false, 0, 8)
	require.NoError(t, err)
	inner := NewPropertyDescriptorMap()
	require.NoError(t, UpsertPropertyDescriptor(&inner, "leaf", NewPropertyUsage("", "", leaf, types.Dedicated())))
	mid, err := NewCompositeDescriptor("Mid", "", "", false, inner)
	require.NoError(t, err)
	outer := NewPropertyDescriptorMap()
	require.NoError(t, UpsertPropertyDescriptor(&outer, "mid", NewPropertyUsage("", "", mid, types.Dedicated())))
	top, err := NewCompositeDescriptor("Top", "", "", false, outer)
	require.NoError(t, err)

	b, err := json.Marshal(top)
	require.NoError(t, err)
	var decoded types.PropertyDescriptor
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, top, decoded)

	// A nested constraint violation fails the outer construction.
	bad := types.PropertyDescriptor{Header: leaf.Header, Details: types.StringDescriptor{MinLength: 9, MaxLength: 1}}
	inner.Properties["leaf"] = NewPropertyUsage("", "", bad, types.Dedicated())
	_, err = NewCompositeDescriptor("Mid", "", "", false, inner)
	assert.ErrorIs(t, err, types.ErrInvalidConstraint)
}

func TestUpdateCompositeDescriptor(t *testing.T) {
	c, err := NewCompositeDescriptor("C", "d", "l", false, NewPropertyDescriptorMap())
	require.NoError(t, err)

	same, err := UpdateCompositeDescriptor(c, CompositeUpdate{})
	require.NoError(t, err)
	assert.Equal(t, c, same)

	b, err := NewBooleanDescriptor("B", "", "", false, false)
	require.NoError(t, err)
	m := NewPropertyDescriptorMap()
	require.NoError(t, UpsertPropertyDescriptor(&m, "b", NewPropertyUsage("", "", b, types.Dedicated())))
	changed, err := UpdateCompositeDescriptor(c, CompositeUpdate{Label: ptr("L2"), PropertyMap: &m})
	require.NoError(t, err)
	assert.Equal(t, "L2", changed.Header.Label)
	details, err := changed.Composite()
	require.NoError(t, err)
	assert.Equal(t, 1, details.PropertyMap.Len())
}

func TestHolonMutators(t *testing.T) {
	h, err := NewHolonDescriptor("Holon_Type_with_no_properties", "no props", "Empty", false)
	require.NoError(t, err)
	assert.Equal(t, types.BaseTypeHolon, h.Header.BaseType)
	require.NotNil(t, h.PropertyMap.Properties)
	assert.Zero(t, h.PropertyMap.Len())

	_, err = NewHolonDescriptor("", "", "", false)
	assert.ErrorIs(t, err, types.ErrEmptyField)

	same, err := UpdateHolonDescriptor(h, HolonUpdate{})
	require.NoError(t, err)
	assert.Equal(t, h, same)

	updated, err := UpdateHolonDescriptor(h, HolonUpdate{Description: ptr("changed")})
	require.NoError(t, err)
	assert.Equal(t, "changed", updated.Header.Description)
	assert.Equal(t, "no props", h.Header.Description)
}

func TestPropertyMapLaws(t *testing.T) {
	u1Desc, err := NewBooleanDescriptor("B1", "", "", false, false)
	require.NoError(t, err)
	u2Desc, err := NewStringDescriptor("S2", "", "", false, 0, 3)
	require.NoError(t, err)
	u1 := NewPropertyUsage("first", "", u1Desc, types.Dedicated())
	u2 := NewPropertyUsage("second", "", u2Desc, types.Shared(types.HolonReference{Name: "S2"}))

	t.Run("upsert then remove leaves no key", func(t *testing.T) {
		m := NewPropertyDescriptorMap()
		require.NoError(t, UpsertPropertyDescriptor(&m, "k", u1))
		RemovePropertyDescriptor(&m, "k")
		_, ok := m.Get("k")
		assert.False(t, ok)
	})

	t.Run("last write wins", func(t *testing.T) {
		m := NewPropertyDescriptorMap()
		require.NoError(t, UpsertPropertyDescriptor(&m, "k", u1))
		require.NoError(t, UpsertPropertyDescriptor(&m, "k", u2))
		got, ok := m.Get("k")
		require.True(t, ok)
		assert.Equal(t, u2, got)
		assert.Equal(t, 1, m.Len())
	})

	t.Run("remove absent is a no-op", func(t *testing.T) {
		m := NewPropertyDescriptorMap()
		require.NoError(t, UpsertPropertyDescriptor(&m, "k", u1))
		RemovePropertyDescriptor(&m, "missing")
		assert.Equal(t, 1, m.Len())

		var zero types.PropertyDescriptorMap
		RemovePropertyDescriptor(&zero, "missing")
	})

	t.Run("upsert into zero map", func(t *testing.T) {
		var m types.PropertyDescriptorMap
		require.NoError(t, UpsertPropertyDescriptor(&m, "k", u1))
		assert.Equal(t, 1, m.Len())
	})

	t.Run("empty name rejected", func(t *testing.T) {
		m := NewPropertyDescriptorMap()
		err := UpsertPropertyDescriptor(&m, "", u1)
		assert.ErrorIs(t, err, types.ErrEmptyField)
		assert.Zero(t, m.Len())
	})
}

func TestDeriveTypeName(t *testing.T) {
	tests := []struct {
		prefix, suffix string
		base           types.BaseType
		want           string
	}{
		{"", "", types.BaseTypeHolon, "Holon_Type"},
		{"", "with_no_properties", types.BaseTypeHolon, "Holon_Type_with_no_properties"},
		{"", "_with_no_properties", types.BaseTypeHolon, "Holon_Type__with_no_properties"},
		{"simple", "", types.BaseTypeBoolean, "simple_Boolean_Type"},
		{"simple_", "", types.BaseTypeString, "simple__String_Type"},
		{"simple_I8", "", types.BaseTypeInteger, "simple_I8_Integer_Type"},
		{"Simple", "with_scalar_properties", types.BaseTypeComposite, "Simple_Composite_Type_with_scalar_properties"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveTypeName(tt.prefix, tt.base, tt.suffix))
		})
	}
}
