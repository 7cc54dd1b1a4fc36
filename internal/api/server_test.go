package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/holons/internal/sqlite"
	"github.com/mesh-intelligence/holons/pkg/descriptors"
	"github.com/mesh-intelligence/holons/pkg/types"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })

	zome := descriptors.NewZome(b, nil)
	srv := httptest.NewServer(NewServer(zome, descriptors.NewResolver(zome, nil), nil))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func bookDescriptor(t *testing.T) types.HolonDescriptor {
	t.Helper()
	title, err := descriptors.NewStringDescriptor("Title_String_Type", "", "Title", false, 1, 256)
	require.NoError(t, err)
	book, err := descriptors.NewHolonDescriptor("Book_Type", "a book", "Book", false)
	require.NoError(t, err)
	require.NoError(t, descriptors.UpsertPropertyDescriptor(&book.PropertyMap, "title",
		descriptors.NewPropertyUsage("", "", title, types.Dedicated())))
	return book
}

func TestHolonDescriptorLifecycle(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/holon-descriptors"
	book := bookDescriptor(t)

	resp, body := do(t, http.MethodPost, base, book)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created descriptors.HolonDescriptorRecord
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "Book_Type", created.Descriptor.Header.TypeName)
	hash := created.ActionHash.String()

	resp, body = do(t, http.MethodGet, base+"/"+hash, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	updated, err := descriptors.UpdateHolonDescriptor(book, descriptors.HolonUpdate{Label: ptr("Novel")})
	require.NoError(t, err)
	resp, body = do(t, http.MethodPut, base+"/"+hash, map[string]any{
		"previous_hash": created.ActionHash,
		"updated":       updated,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var rev descriptors.HolonDescriptorRecord
	require.NoError(t, json.Unmarshal(body, &rev))
	assert.Equal(t, "Novel", rev.Descriptor.Header.Label)
	assert.Equal(t, created.ActionHash, rev.PreviousHash)

	// Replaying the same previous hash is a conflict.
	resp, _ = do(t, http.MethodPut, base+"/"+hash, map[string]any{
		"previous_hash": created.ActionHash,
		"updated":       updated,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all []descriptors.HolonDescriptorRecord
	require.NoError(t, json.Unmarshal(body, &all))
	require.Len(t, all, 1)
	assert.Equal(t, rev.ActionHash, all[0].ActionHash)

	resp, body = do(t, http.MethodDelete, base+"/"+hash, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var del deleteResponse
	require.NoError(t, json.Unmarshal(body, &del))
	assert.False(t, del.DeleteHash.IsEmpty())

	resp, _ = do(t, http.MethodGet, base+"/"+hash, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func TestPropertyDescriptorRoutes(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/property-descriptors"

	flag, err := descriptors.NewBooleanDescriptor("Flag_Boolean_Type", "", "", false, true)
	require.NoError(t, err)

	resp, body := do(t, http.MethodPost, base, flag)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created descriptors.PropertyDescriptorRecord
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, types.BaseTypeBoolean, created.Descriptor.Header.BaseType)

	resp, body = do(t, http.MethodGet, base+"/"+created.ActionHash.String(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got descriptors.PropertyDescriptorRecord
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, created.Descriptor, got.Descriptor)
}

func TestErrorStatuses(t *testing.T) {
	srv := newTestServer(t)
	missing := types.ActionHash{9}.String()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"malformed hash", http.MethodGet, "/holon-descriptors/not-a-hash", nil, http.StatusBadRequest},
		{"unknown hash", http.MethodGet, "/holon-descriptors/" + missing, nil, http.StatusNotFound},
		{"delete unknown hash", http.MethodDelete, "/property-descriptors/" + missing, nil, http.StatusNotFound},
		{"body not JSON", http.MethodPost, "/holon-descriptors", "{oops", http.StatusBadRequest},
		{"missing type name", http.MethodPost, "/holon-descriptors",
			`{"header":{"type_name":"","base_type":{"type":"Holon"}},"property_map":{"properties":{}}}`, http.StatusBadRequest},
		{"holon under property route", http.MethodPost, "/property-descriptors",
			`{"header":{"type_name":"Book_Type","base_type":{"type":"Boolean"}},"details":{"String":{"min_length":0,"max_length":1}}}`, http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/widgets", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, tt.method, srv.URL+tt.path, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode, string(body))
		})
	}
}

func TestResolveRoute(t *testing.T) {
	srv := newTestServer(t)

	shared, err := descriptors.NewStringDescriptor("shared_String_Type", "", "", false, 0, 64)
	require.NoError(t, err)
	m := descriptors.NewPropertyDescriptorMap()
	require.NoError(t, descriptors.UpsertPropertyDescriptor(&m, "name",
		descriptors.NewPropertyUsage("", "", shared, types.Shared(types.HolonReference{Name: shared.Header.TypeName}))))
	composite, err := descriptors.NewCompositeDescriptor("person_Composite_Type", "", "", false, m)
	require.NoError(t, err)

	resp, body := do(t, http.MethodPost, srv.URL+"/shared-types/resolve", descriptors.SharedTypesSet{
		SharedTypes:      []types.PropertyDescriptor{shared},
		ReferencingTypes: []types.PropertyDescriptor{composite},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var res descriptors.Resolution
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Contains(t, res.SharedHashes, "shared_String_Type")
	assert.Len(t, res.Referencing, 1)

	// A reference to an undeclared name is rejected before anything is stored.
	resp, body = do(t, http.MethodPost, srv.URL+"/shared-types/resolve", descriptors.SharedTypesSet{
		ReferencingTypes: []types.PropertyDescriptor{composite},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", types.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", types.ErrConflict), http.StatusConflict},
		{types.EmptyField("type_name"), http.StatusBadRequest},
		{&types.UnexpectedVariantError{Expected: types.BaseTypeString, Actual: types.BaseTypeBoolean}, http.StatusBadRequest},
		{types.ErrVerificationFailed, http.StatusInternalServerError},
		{errors.New("disk on fire"), http.StatusInternalServerError},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, body := do(t, http.MethodGet, srv.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func ptr[T any](v T) *T { return &v }
