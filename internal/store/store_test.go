package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_PutGet_WithinOneScope(t *testing.T) {
	st := New()
	h := NewHandle()
	st.Create(h)

	require.NoError(t, st.Put(h, NamespaceTemplate, "base", "compiled"))

	got, err := st.Get(h, NamespaceTemplate, "base")
	require.NoError(t, err)
	require.Equal(t, "compiled", got)
}

func TestStore_DistinctHandles_NeverShareData(t *testing.T) {
	st := New()
	a, b := NewHandle(), NewHandle()
	st.Create(a)
	st.Create(b)

	require.NoError(t, st.Put(a, NamespaceNavStub, KeyNavStub, "<nav/>"))

	_, err := st.Get(b, NamespaceNavStub, KeyNavStub)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestStore_PutWithoutCreate_Fails(t *testing.T) {
	st := New()
	h := NewHandle()

	err := st.Put(h, NamespaceTemplate, "base", "x")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestStore_Destroy_DiscardsWholeScope(t *testing.T) {
	st := New()
	h := NewHandle()
	st.Create(h)
	require.NoError(t, st.Put(h, NamespacePages, KeyPages, []string{"a"}))

	st.Destroy(h)

	_, err := st.Get(h, NamespacePages, KeyPages)
	require.Error(t, err)

	// Destroying again is a no-op.
	st.Destroy(h)
}

func TestStore_Create_IsIdempotent(t *testing.T) {
	st := New()
	h := NewHandle()
	st.Create(h)
	require.NoError(t, st.Put(h, NamespaceTemplate, "base", "x"))

	st.Create(h)

	got, err := st.Get(h, NamespaceTemplate, "base")
	require.NoError(t, err)
	require.Equal(t, "x", got)
}

func TestNewHandle_IsUnique(t *testing.T) {
	seen := make(map[Handle]bool)
	for range 100 {
		h := NewHandle()
		require.False(t, seen[h])
		seen[h] = true
	}
}
