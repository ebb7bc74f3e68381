package pipeline

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	stderrors "errors"

	"github.com/stretchr/testify/require"

	"siteforge/internal/errors"
	"siteforge/internal/header"
	"siteforge/internal/store"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newScope(t *testing.T) (*store.Store, store.Handle) {
	t.Helper()
	st := store.New()
	h := store.NewHandle()
	st.Create(h)
	return st, h
}

func TestLoadTemplates_AllValid_CommitsEveryTemplate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "base.html"), "<html>{{.contents}}</html>")
	writeFile(t, filepath.Join(dir, "nav.html"), "<nav>{{.navigation}}</nav>")

	st, h := newScope(t)
	err := LoadTemplates(context.Background(), st, h, dir, []string{"base", "nav"})
	require.NoError(t, err)

	for _, name := range []string{"base", "nav"} {
		_, err := st.Get(h, store.NamespaceTemplate, name)
		require.NoError(t, err)
	}
}

func TestLoadTemplates_PartialFailure_ReturnsEveryErrorAndCommitsNothing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "base.html"), "<html>{{.contents}}</html>")
	writeFile(t, filepath.Join(dir, "broken.html"), "{{.unclosed")
	// missing.html intentionally absent.

	st, h := newScope(t)
	err := LoadTemplates(context.Background(), st, h, dir, []string{"base", "broken", "missing"})

	var agg *errors.Aggregate
	require.ErrorAs(t, err, &agg)
	require.Equal(t, StageLoadTemplates, agg.Stage)
	require.Len(t, agg.Errors, 2)

	// Task order: broken before missing.
	var first, second *errors.Error
	require.ErrorAs(t, agg.Errors[0], &first)
	require.ErrorAs(t, agg.Errors[1], &second)
	require.Equal(t, errors.KindInvalidTemplate, first.Kind)
	require.Equal(t, errors.KindFile, second.Kind)

	// Even the template that compiled fine is not committed.
	_, getErr := st.Get(h, store.NamespaceTemplate, "base")
	require.Error(t, getErr)
}

func TestScan_MissingContentDir_FailsImmediatelyNonAggregated(t *testing.T) {
	st, h := newScope(t)
	missing := filepath.Join(t.TempDir(), "nope")

	err := Scan(context.Background(), st, h, KindPages, missing, "", header.Options{})

	var structured *errors.Error
	require.ErrorAs(t, err, &structured)
	require.Equal(t, errors.KindFile, structured.Kind)
	require.True(t, stderrors.Is(err, fs.ErrNotExist))

	var agg *errors.Aggregate
	require.False(t, stderrors.As(err, &agg))
}

func TestScan_AllFilesParse_CommitsOrderedDescriptorList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "about.md"), "---\ntitle: About\n---\nhi\n")
	writeFile(t, filepath.Join(dir, "index.md"), "---\ntitle: Home\n---\nhi\n")

	st, h := newScope(t)
	require.NoError(t, Scan(context.Background(), st, h, KindPages, dir, "", header.Options{}))

	value, err := st.Get(h, store.NamespacePages, store.KeyPages)
	require.NoError(t, err)
	descs := value.([]PageDescriptor)
	require.Len(t, descs, 2)
	require.Equal(t, "about.html", descs[0].Dest)
	require.Equal(t, "index.html", descs[1].Dest)
	require.Equal(t, "About", descs[0].Header["title"])
}

func TestScan_Posts_DestinationsLandUnderPosts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "first.md"), "---\ntitle: First\n---\nhi\n")

	st, h := newScope(t)
	require.NoError(t, Scan(context.Background(), st, h, KindPosts, dir, "", header.Options{}))

	value, err := st.Get(h, store.NamespacePages, store.KeyPosts)
	require.NoError(t, err)
	descs := value.([]PageDescriptor)
	require.Equal(t, "posts/first.html", descs[0].Dest)
}

func TestScan_ParseFailures_AggregateAllAndCommitNothing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.md"), "---\ntitle: A\n---\nok\n")
	writeFile(t, filepath.Join(dir, "b.md"), "---\nauthor: nobody\n---\nno title\n")
	writeFile(t, filepath.Join(dir, "c.md"), "no header at all\n")

	st, h := newScope(t)
	err := Scan(context.Background(), st, h, KindPages, dir, "", header.Options{})

	var agg *errors.Aggregate
	require.ErrorAs(t, err, &agg)
	require.Equal(t, "scan_pages", agg.Stage)
	require.Len(t, agg.Errors, 2)

	_, getErr := st.Get(h, store.NamespacePages, store.KeyPages)
	require.Error(t, getErr)
}

func TestScan_StagesStaticFilesAside(t *testing.T) {
	dir := t.TempDir()
	staging := t.TempDir()
	writeFile(t, filepath.Join(dir, "index.md"), "---\ntitle: Home\n---\nhi\n")
	writeFile(t, filepath.Join(dir, "css", "style.css"), "body{}")

	st, h := newScope(t)
	require.NoError(t, Scan(context.Background(), st, h, KindPages, dir, staging, header.Options{}))

	staged, err := os.ReadFile(filepath.Join(staging, "css", "style.css"))
	require.NoError(t, err)
	require.Equal(t, "body{}", string(staged))
}

func TestScan_CallerOptionsExtendTheRequiredTitle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "post.md"), "---\ntitle: T\ndate: 2021-03-04\n---\nhi\n")

	opts := header.Options{Fields: []header.Field{{Key: "date", Type: header.DateTime}}}

	st, h := newScope(t)
	require.NoError(t, Scan(context.Background(), st, h, KindPages, dir, "", opts))

	value, err := st.Get(h, store.NamespacePages, store.KeyPages)
	require.NoError(t, err)
	descs := value.([]PageDescriptor)
	require.Contains(t, descs[0].Header, "date")
}
