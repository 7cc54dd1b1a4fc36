package descriptors

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/holons/pkg/types"
)

type sharedFixture struct {
	s1, s2    types.PropertyDescriptor
	composite types.PropertyDescriptor
}

// newSharedFixture builds two shared scalars and a composite that refers to
// both by name, once at the top level and once from a nested composite.
func newSharedFixture(t *testing.T) sharedFixture {
	t.Helper()
	s1, err := NewStringDescriptor("shared_String_Type", "shared string", "Shared String", false, 0, 512)
	require.NoError(t, err)
	s2, err := NewIntegerDescriptor("shared_U8_Integer_Type", "shared u8", "Shared U8", false, types.IntegerFormatU8, 0, 255)
	require.NoError(t, err)
	dedicated, err := NewBooleanDescriptor("dedicated_Boolean_Type", "", "", false, true)
	require.NoError(t, err)

	nested := NewPropertyDescriptorMap()
	require.NoError(t, UpsertPropertyDescriptor(&nested, "nested_string", NewPropertyUsage("", "", s1, types.Shared(types.HolonReference{Name: s1.Header.TypeName}))))
	inner, err := NewCompositeDescriptor("inner_Composite_Type", "", "", false, nested)
	require.NoError(t, err)

	m := NewPropertyDescriptorMap()
	require.NoError(t, UpsertPropertyDescriptor(&m, "title", NewPropertyUsage("", "", s1, types.Shared(types.HolonReference{Name: s1.Header.TypeName}))))
	require.NoError(t, UpsertPropertyDescriptor(&m, "rating", NewPropertyUsage("", "", s2, types.Shared(types.HolonReference{Name: s2.Header.TypeName}))))
	require.NoError(t, UpsertPropertyDescriptor(&m, "flag", NewPropertyUsage("", "", dedicated, types.Dedicated())))
	require.NoError(t, UpsertPropertyDescriptor(&m, "inner", NewPropertyUsage("", "", inner, types.Dedicated())))
	c, err := NewCompositeDescriptor("referencing_Composite_Type", "", "", false, m)
	require.NoError(t, err)
	return sharedFixture{s1: s1, s2: s2, composite: c}
}

func TestResolveSharedTypes(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	z := NewZome(store, nil)
	fx := newSharedFixture(t)

	res, err := NewResolver(z, nil).Resolve(ctx, SharedTypesSet{
		SharedTypes:      []types.PropertyDescriptor{fx.s1, fx.s2},
		ReferencingTypes: []types.PropertyDescriptor{fx.composite},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, store.createCount())
	require.Len(t, res.SharedHashes, 2)
	require.Len(t, res.Referencing, 1)

	fetched, err := z.GetPropertyDescriptor(ctx, res.Referencing[0].ActionHash)
	require.NoError(t, err)

	want := map[string]types.PropertyDescriptor{
		fx.s1.Header.TypeName: fx.s1,
		fx.s2.Header.TypeName: fx.s2,
	}
	refs := sharedReferences(fetched.Descriptor)
	require.Len(t, refs, 3)
	for _, ref := range refs {
		assert.Equal(t, res.SharedHashes[ref.Name], ref.ID, "reference %s", ref.Name)
		target, err := z.GetPropertyDescriptor(ctx, ref.ID)
		require.NoError(t, err)
		assert.Equal(t, want[ref.Name], target.Descriptor)
	}

	c, err := fetched.Descriptor.Composite()
	require.NoError(t, err)
	flag, _ := c.PropertyMap.Get("flag")
	assert.Equal(t, types.Dedicated(), flag.Sharing)
}

func TestResolveUnresolvedReferenceCreatesNothing(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	fx := newSharedFixture(t)

	_, err := NewResolver(NewZome(store, nil), nil).Resolve(ctx, SharedTypesSet{
		SharedTypes:      []types.PropertyDescriptor{fx.s1},
		ReferencingTypes: []types.PropertyDescriptor{fx.composite},
	})
	require.ErrorIs(t, err, types.ErrUnresolvedReference)
	var ure *types.UnresolvedReferenceError
	require.ErrorAs(t, err, &ure)
	assert.Equal(t, "referencing_Composite_Type", ure.TypeName)
	assert.Equal(t, "rating", ure.PropertyName)
	assert.Equal(t, fx.s2.Header.TypeName, ure.ReferencedName)
	assert.Zero(t, store.createCount())
}

func TestResolveRejectsBadInput(t *testing.T) {
	fx := newSharedFixture(t)
	tests := []struct {
		name string
		set  SharedTypesSet
		want error
	}{
		{
			name: "duplicate shared names",
			set:  SharedTypesSet{SharedTypes: []types.PropertyDescriptor{fx.s1, fx.s1}},
			want: types.ErrDuplicateName,
		},
		{
			name: "referencing type is not a composite",
			set:  SharedTypesSet{SharedTypes: []types.PropertyDescriptor{fx.s1}, ReferencingTypes: []types.PropertyDescriptor{fx.s2}},
			want: types.ErrUnexpectedVariant,
		},
		{
			name: "invalid shared type",
			set: SharedTypesSet{SharedTypes: []types.PropertyDescriptor{{
				Header:  types.TypeHeader{TypeName: "bad", BaseType: types.BaseTypeString},
				Details: types.StringDescriptor{MinLength: 2, MaxLength: 1},
			}}},
			want: types.ErrInvalidConstraint,
		},
		{
			name: "invalid nested constraint in referencing type",
			set: SharedTypesSet{
				SharedTypes:      []types.PropertyDescriptor{fx.s1, fx.s2},
				ReferencingTypes: []types.PropertyDescriptor{{
					Header:  types.TypeHeader{TypeName: "bad_Composite_Type", BaseType: types.BaseTypeComposite},
					Details: types.CompositeDescriptor{PropertyMap: types.PropertyDescriptorMap{
						Properties: map[string]types.PropertyDescriptorUsage{
							"flag": {Descriptor: types.PropertyDescriptor{
								Header:  types.TypeHeader{TypeName: "bad_String_Type", BaseType: types.BaseTypeString},
								Details: types.StringDescriptor{MinLength: 10, MaxLength: 1},
							}},
						},
					}},
				}},
			},
			want: types.ErrInvalidConstraint,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			_, err := NewResolver(NewZome(store, nil), nil).Resolve(context.Background(), tt.set)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, store.createCount())
		})
	}
}

// sharedComposite builds a composite whose single usage refers to target
// by name.
func sharedComposite(t *testing.T, typeName, property string, target types.PropertyDescriptor, refName string) types.PropertyDescriptor {
	t.Helper()
	m := NewPropertyDescriptorMap()
	require.NoError(t, UpsertPropertyDescriptor(&m, property, NewPropertyUsage("", "", target, types.Shared(types.HolonReference{Name: refName}))))
	c, err := NewCompositeDescriptor(typeName, "", "", false, m)
	require.NoError(t, err)
	return c
}

func TestResolveSharedCompositeWithUndeclaredReference(t *testing.T) {
	store := newFakeStore()
	fx := newSharedFixture(t)
	dangling := sharedComposite(t, "address_Composite_Type", "street", fx.s1, "never_declared")

	_, err := NewResolver(NewZome(store, nil), nil).Resolve(context.Background(), SharedTypesSet{
		SharedTypes: []types.PropertyDescriptor{fx.s1, dangling},
	})
	require.ErrorIs(t, err, types.ErrUnresolvedReference)
	var ure *types.UnresolvedReferenceError
	require.ErrorAs(t, err, &ure)
	assert.Equal(t, "address_Composite_Type", ure.TypeName)
	assert.Equal(t, "street", ure.PropertyName)
	assert.Equal(t, "never_declared", ure.ReferencedName)
	assert.Zero(t, store.createCount())
}

func TestResolveSharedCompositeCreatedAfterItsReferences(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	z := NewZome(store, nil)
	fx := newSharedFixture(t)
	address := sharedComposite(t, "address_Composite_Type", "street", fx.s1, fx.s1.Header.TypeName)

	// The composite is listed before the type it names.
	res, err := NewResolver(z, nil).Resolve(ctx, SharedTypesSet{
		SharedTypes: []types.PropertyDescriptor{address, fx.s1},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, store.createCount())
	require.Len(t, res.Shared, 2)
	assert.Equal(t, fx.s1.Header.TypeName, res.Shared[0].TypeName)
	assert.Equal(t, "address_Composite_Type", res.Shared[1].TypeName)

	fetched, err := z.GetPropertyDescriptor(ctx, res.SharedHashes["address_Composite_Type"])
	require.NoError(t, err)
	refs := sharedReferences(fetched.Descriptor)
	require.Len(t, refs, 1)
	assert.Equal(t, res.SharedHashes[fx.s1.Header.TypeName], refs[0].ID)
}

func TestResolveSharedReferenceCycle(t *testing.T) {
	store := newFakeStore()
	fx := newSharedFixture(t)
	a := sharedComposite(t, "a_Composite_Type", "b", fx.s1, "b_Composite_Type")
	b := sharedComposite(t, "b_Composite_Type", "a", fx.s1, "a_Composite_Type")

	_, err := NewResolver(NewZome(store, nil), nil).Resolve(context.Background(), SharedTypesSet{
		SharedTypes: []types.PropertyDescriptor{a, b},
	})
	require.ErrorIs(t, err, types.ErrUnresolvedReference)
	var ure *types.UnresolvedReferenceError
	require.ErrorAs(t, err, &ure)
	assert.Equal(t, "a_Composite_Type", ure.TypeName)
	assert.Equal(t, "b_Composite_Type", ure.ReferencedName)
	assert.Zero(t, store.createCount())
}

func TestResolveDetectsCorruptedFetch(t *testing.T) {
	store := newFakeStore()
	store.tamper = func(rec types.Record) types.Record {
		var d types.PropertyDescriptor
		if err := json.Unmarshal(rec.Entry, &d); err != nil {
			return rec
		}
		d.Header.Description += " (corrupted)"
		rec.Entry, _ = json.Marshal(d)
		return rec
	}
	fx := newSharedFixture(t)

	_, err := NewResolver(NewZome(store, nil), nil).Resolve(context.Background(), SharedTypesSet{
		SharedTypes: []types.PropertyDescriptor{fx.s1},
	})
	assert.ErrorIs(t, err, types.ErrVerificationFailed)
}

func TestResolvePropagatesStoreErrors(t *testing.T) {
	store := newFakeStore()
	boom := errors.New("conductor unavailable")
	calls := 0
	store.createFn = func(string) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	}
	fx := newSharedFixture(t)

	_, err := NewResolver(NewZome(store, nil), nil).Resolve(context.Background(), SharedTypesSet{
		SharedTypes:      []types.PropertyDescriptor{fx.s1, fx.s2},
		ReferencingTypes: []types.PropertyDescriptor{fx.composite},
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, store.createCount(), "no referencing create after a failed shared create")
}

func TestResolveReferences(t *testing.T) {
	fx := newSharedFixture(t)
	h1 := types.ComputeActionHash("x", []byte("1"), types.ActionHash{}, 1, testEpoch)
	h2 := types.ComputeActionHash("x", []byte("2"), types.ActionHash{}, 2, testEpoch)
	table := map[string]types.ActionHash{fx.s1.Header.TypeName: h1, fx.s2.Header.TypeName: h2}

	t.Run("rewrites every level without touching the input", func(t *testing.T) {
		out, err := ResolveReferences(fx.composite, table)
		require.NoError(t, err)
		for _, ref := range sharedReferences(out) {
			assert.Equal(t, table[ref.Name], ref.ID)
		}
		for _, ref := range sharedReferences(fx.composite) {
			assert.True(t, ref.ID.IsEmpty(), "input reference %s was modified", ref.Name)
		}
	})

	t.Run("id-only reference is kept", func(t *testing.T) {
		m := NewPropertyDescriptorMap()
		require.NoError(t, UpsertPropertyDescriptor(&m, "p", NewPropertyUsage("", "", fx.s1, types.Shared(types.HolonReference{ID: h2}))))
		c, err := NewCompositeDescriptor("C", "", "", false, m)
		require.NoError(t, err)
		out, err := ResolveReferences(c, table)
		require.NoError(t, err)
		assert.Equal(t, c, out)
	})

	t.Run("malformed reference fails", func(t *testing.T) {
		c := types.PropertyDescriptor{
			Header: types.TypeHeader{TypeName: "C", BaseType: types.BaseTypeComposite},
			Details: types.CompositeDescriptor{PropertyMap: types.PropertyDescriptorMap{Properties: map[string]types.PropertyDescriptorUsage{
				"p": {Descriptor: fx.s1, Sharing: types.Shared(types.HolonReference{})},
			}}},
		}
		_, err := ResolveReferences(c, table)
		assert.ErrorIs(t, err, types.ErrMalformedReference)
	})

	t.Run("nested unresolved names the path", func(t *testing.T) {
		_, err := ResolveReferences(fx.composite, map[string]types.ActionHash{fx.s2.Header.TypeName: h2})
		var ure *types.UnresolvedReferenceError
		require.ErrorAs(t, err, &ure)
		assert.Equal(t, "inner.nested_string", ure.PropertyName)
	})
}
