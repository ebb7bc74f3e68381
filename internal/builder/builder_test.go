package builder

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"siteforge/internal/config"
	"siteforge/internal/errors"
	"siteforge/internal/eventstore"
	"siteforge/internal/pipeline"
	"siteforge/internal/store"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newProject(t *testing.T) *config.Config {
	t.Helper()
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "templates", "base.html"),
		"<html><head><title>{{.title}} - {{.site_title}}</title></head>"+
			"<body>{{.navigation}}<main>{{.contents}}</main></body></html>")
	writeFile(t, filepath.Join(src, "pages", "index.md"),
		"---\ntitle: Home\n---\n# Welcome\n\nSee <a href=\"%pages:about\">about</a>.\n")
	writeFile(t, filepath.Join(src, "pages", "about.md"),
		"---\ntitle: About & More\n---\nabout body\n")

	return &config.Config{
		Title:   "My Site",
		Author:  "jane",
		BaseURL: "/",
		Source: config.SourceConfig{
			Directory:    src,
			TemplatesDir: filepath.Join(src, "templates"),
			PagesDir:     filepath.Join(src, "pages"),
			PostsDir:     filepath.Join(src, "posts"),
		},
		Output:    config.OutputConfig{Directory: filepath.Join(t.TempDir(), "site")},
		Templates: []string{"base"},
	}
}

func TestBuilder_Build_RendersPagesWithNavAndResolvedLinks(t *testing.T) {
	cfg := newProject(t)
	b := New(cfg, store.New())

	require.NoError(t, b.Build(context.Background()))

	out, err := os.ReadFile(filepath.Join(cfg.Output.Directory, "index.html"))
	require.NoError(t, err)
	html := string(out)

	require.Contains(t, html, "<title>Home - My Site</title>")
	require.Contains(t, html, "<h1>Welcome</h1>")
	// The page marker resolved against the base URL.
	require.Contains(t, html, `href="/about.html"`)
	require.NotContains(t, html, "%pages:")
	// Navigation lists every page with a slugged anchor id.
	require.Contains(t, html, `<li id="nav-home">`)
	require.Contains(t, html, `<li id="nav-about-more">`)
	require.Contains(t, html, "About &amp; More")
}

func TestBuilder_Build_PostsLandUnderPostsDir(t *testing.T) {
	cfg := newProject(t)
	writeFile(t, filepath.Join(cfg.Source.PostsDir, "first.md"),
		"---\ntitle: First Post\ndate: 2021-05-01\n---\npost body\n")

	b := New(cfg, store.New())
	require.NoError(t, b.Build(context.Background()))

	_, err := os.Stat(filepath.Join(cfg.Output.Directory, "posts", "first.html"))
	require.NoError(t, err)
}

func TestBuilder_Build_MissingPostsTree_IsNotAnError(t *testing.T) {
	cfg := newProject(t)
	b := New(cfg, store.New())

	require.NoError(t, b.Build(context.Background()))
}

func TestBuilder_Build_MissingPagesTree_Fails(t *testing.T) {
	cfg := newProject(t)
	require.NoError(t, os.RemoveAll(cfg.Source.PagesDir))

	b := New(cfg, store.New())
	err := b.Build(context.Background())

	var structured *errors.Error
	require.ErrorAs(t, err, &structured)
	require.Equal(t, errors.KindFile, structured.Kind)
}

func TestBuilder_Build_BadHeader_SurfacesAggregate(t *testing.T) {
	cfg := newProject(t)
	writeFile(t, filepath.Join(cfg.Source.PagesDir, "broken.md"), "no header\n")

	b := New(cfg, store.New())
	err := b.Build(context.Background())

	var agg *errors.Aggregate
	require.ErrorAs(t, err, &agg)
	require.Equal(t, "scan_pages", agg.Stage)
}

func TestBuilder_Build_ScopeIsDestroyedAfterwards(t *testing.T) {
	cfg := newProject(t)
	st := store.New()
	b := New(cfg, st)

	require.NoError(t, b.Build(context.Background()))

	// A later build gets a fresh handle; nothing from the finished build
	// remains reachable through well-known keys on a new handle.
	h := store.NewHandle()
	st.Create(h)
	_, err := st.Get(h, store.NamespacePages, store.KeyPages)
	require.Error(t, err)
}

func TestBuilder_Build_RecordsLifecycleEvents(t *testing.T) {
	cfg := newProject(t)
	es, err := eventstore.Open(":memory:")
	require.NoError(t, err)
	defer func() { require.NoError(t, es.Close()) }()

	b := New(cfg, store.New(), WithEventStore(es))
	require.NoError(t, b.Build(context.Background()))

	events, err := es.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	// Recent is newest first.
	require.Equal(t, eventstore.EventBuildSucceeded, events[0].Type)
	require.Equal(t, eventstore.EventBuildStarted, events[1].Type)
	require.Equal(t, events[0].BuildID, events[1].BuildID)
}

func TestBuilder_FailedBuild_RecordsFailureEventWithDetail(t *testing.T) {
	cfg := newProject(t)
	writeFile(t, filepath.Join(cfg.Source.TemplatesDir, "base.html"), "{{.unclosed")

	es, err := eventstore.Open(":memory:")
	require.NoError(t, err)
	defer func() { require.NoError(t, es.Close()) }()

	b := New(cfg, store.New(), WithEventStore(es))
	require.Error(t, b.Build(context.Background()))

	events, err := es.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, eventstore.EventBuildFailed, events[0].Type)
	require.NotEmpty(t, events[0].Detail)
}

func TestNavFragment_EmptyPages_StillWellFormed(t *testing.T) {
	require.Equal(t, "<nav><ul></ul></nav>", navFragment("/", nil))
}

func TestNavFragment_LinksFollowDescriptorOrder(t *testing.T) {
	pages := []pipeline.PageDescriptor{
		{Dest: "index.html", Header: map[string]any{"title": "Home"}},
		{Dest: "about.html", Header: map[string]any{"title": "About"}},
	}

	nav := navFragment("/base/", pages)
	require.Contains(t, nav, `<a href="/base/index.html">Home</a>`)
	require.Contains(t, nav, `<a href="/base/about.html">About</a>`)
	require.Less(t, strings.Index(nav, "Home"), strings.Index(nav, "About"))
}
