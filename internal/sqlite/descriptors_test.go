// End-to-end tests running the descriptor facade and resolver on SQLite.
package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/holons/pkg/descriptors"
	"github.com/mesh-intelligence/holons/pkg/types"
)

func TestZomeOnSQLite(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()
	config := types.Config{Backend: types.BackendSQLite, DataDir: dataDir}

	b := NewBackend()
	require.NoError(t, b.Attach(config))
	z := descriptors.NewZome(b, nil)

	title, err := descriptors.NewStringDescriptor("Title_String_Type", "book title", "Title", false, 1, 256)
	require.NoError(t, err)
	pages, err := descriptors.NewIntegerDescriptor("Pages_U16_Integer_Type", "", "Pages", false, types.IntegerFormatU16, 1, 65535)
	require.NoError(t, err)

	book, err := descriptors.NewHolonDescriptor("Book_Type", "a book", "Book", false)
	require.NoError(t, err)
	require.NoError(t, descriptors.UpsertPropertyDescriptor(&book.PropertyMap, "title",
		descriptors.NewPropertyUsage("the title", "Title", title, types.Dedicated())))
	require.NoError(t, descriptors.UpsertPropertyDescriptor(&book.PropertyMap, "pages",
		descriptors.NewPropertyUsage("", "", pages, types.Dedicated())))

	created, err := z.CreateHolonDescriptor(ctx, book)
	require.NoError(t, err)
	assert.Equal(t, []string{"pages", "title"}, created.Descriptor.PropertyMap.Names())

	chain := descriptors.NewRevisionChain(created.ActionHash)
	updated, err := descriptors.UpdateHolonDescriptor(book, descriptors.HolonUpdate{Label: ptr("Novel")})
	require.NoError(t, err)
	rev, err := chain.UpdateHolon(ctx, z, updated)
	require.NoError(t, err)
	assert.Equal(t, created.ActionHash, rev.PreviousHash)

	require.NoError(t, b.Detach())

	// Reattach: the revision chain is rebuilt from JSONL.
	b2 := NewBackend()
	require.NoError(t, b2.Attach(config))
	defer b2.Detach()
	z2 := descriptors.NewZome(b2, nil)

	got, err := z2.GetHolonDescriptor(ctx, created.ActionHash)
	require.NoError(t, err)
	assert.Equal(t, rev.ActionHash, got.ActionHash)
	assert.Equal(t, "Novel", got.Descriptor.Header.Label)

	titleUsage, ok := got.Descriptor.PropertyMap.Get("title")
	require.True(t, ok)
	assert.Equal(t, types.BaseTypeString, titleUsage.Descriptor.Header.BaseType)

	all, err := z2.GetAllHolonTypes(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	_, err = z2.DeleteHolonDescriptor(ctx, created.ActionHash)
	require.NoError(t, err)
	_, err = z2.GetHolonDescriptor(ctx, rev.ActionHash)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestResolverOnSQLite(t *testing.T) {
	ctx := context.Background()

	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	defer b.Detach()
	z := descriptors.NewZome(b, nil)

	shared, err := descriptors.NewStringDescriptor("shared_String_Type", "", "", false, 0, 512)
	require.NoError(t, err)

	m := descriptors.NewPropertyDescriptorMap()
	require.NoError(t, descriptors.UpsertPropertyDescriptor(&m, "name",
		descriptors.NewPropertyUsage("", "", shared, types.Shared(types.HolonReference{Name: shared.Header.TypeName}))))
	composite, err := descriptors.NewCompositeDescriptor("person_Composite_Type", "", "", false, m)
	require.NoError(t, err)

	res, err := descriptors.NewResolver(z, nil).Resolve(ctx, descriptors.SharedTypesSet{
		SharedTypes:      []types.PropertyDescriptor{shared},
		ReferencingTypes: []types.PropertyDescriptor{composite},
	})
	require.NoError(t, err)

	sharedHash := res.SharedHashes[shared.Header.TypeName]
	require.False(t, sharedHash.IsEmpty())
	require.Len(t, res.Referencing, 1)

	stored, err := z.GetPropertyDescriptor(ctx, res.Referencing[0].ActionHash)
	require.NoError(t, err)
	cd, err := stored.Descriptor.Composite()
	require.NoError(t, err)
	usage, ok := cd.PropertyMap.Get("name")
	require.True(t, ok)
	assert.True(t, usage.Sharing.IsShared())
	assert.Equal(t, sharedHash, usage.Sharing.Reference.ID)

	props, err := z.GetAllPropertyDescriptors(ctx)
	require.NoError(t, err)
	assert.Len(t, props, 2)
}

func ptr[T any](v T) *T { return &v }
