// Package builder drives one full build end to end: scope lifecycle,
// preparation pipeline, navigation fragment, page render-out.
package builder

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"siteforge/internal/config"
	"siteforge/internal/errors"
	"siteforge/internal/eventstore"
	"siteforge/internal/header"
	"siteforge/internal/markdown"
	"siteforge/internal/metrics"
	"siteforge/internal/pipeline"
	"siteforge/internal/render"
	"siteforge/internal/store"
)

// Builder runs full builds against one project configuration.
type Builder struct {
	cfg      *config.Config
	store    *store.Store
	md       *markdown.Converter
	events   *eventstore.Store
	recorder *metrics.Recorder
}

// Option configures optional collaborators.
type Option func(*Builder)

// WithEventStore records build lifecycle events into es.
func WithEventStore(es *eventstore.Store) Option {
	return func(b *Builder) { b.events = es }
}

// WithRecorder records build metrics into r.
func WithRecorder(r *metrics.Recorder) Option {
	return func(b *Builder) { b.recorder = r }
}

// New creates a Builder over st.
func New(cfg *config.Config, st *store.Store, opts ...Option) *Builder {
	b := &Builder{cfg: cfg, store: st, md: markdown.NewConverter()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetConfig swaps the project configuration before the next build. The
// orchestrator re-loads project metadata on every rebuild.
func (b *Builder) SetConfig(cfg *config.Config) { b.cfg = cfg }

// Build runs one full build under a fresh handle. The scope is created
// before first use and destroyed when the build finishes, successful or
// not. The returned error is always a structured value, never a panic.
func (b *Builder) Build(ctx context.Context) error {
	h := store.NewHandle()
	b.store.Create(h)
	defer b.store.Destroy(h)

	b.recordEvent(ctx, h, eventstore.EventBuildStarted, "")
	start := time.Now()

	err := b.run(ctx, h)

	if b.recorder != nil {
		b.recorder.ObserveBuild(time.Since(start), err == nil)
	}
	if err != nil {
		b.recordEvent(ctx, h, eventstore.EventBuildFailed, err.Error())
		return err
	}
	b.recordEvent(ctx, h, eventstore.EventBuildSucceeded, "")
	return nil
}

func (b *Builder) run(ctx context.Context, h store.Handle) error {
	cfg := b.cfg
	outDir := cfg.Output.Directory

	if err := pipeline.LoadTemplates(ctx, b.store, h, cfg.Source.TemplatesDir, cfg.Templates); err != nil {
		return err
	}

	opts := contentOptions()
	if err := pipeline.Scan(ctx, b.store, h, pipeline.KindPages, cfg.Source.PagesDir, outDir, opts); err != nil {
		return err
	}
	// A project without a posts tree is still a valid project; the pages
	// tree is the one whose absence is a hard failure.
	if _, err := os.Stat(cfg.Source.PostsDir); err == nil {
		if err := pipeline.Scan(ctx, b.store, h, pipeline.KindPosts, cfg.Source.PostsDir, outDir, opts); err != nil {
			return err
		}
	}

	pages := b.descriptors(h, store.KeyPages)
	posts := b.descriptors(h, store.KeyPosts)

	if err := b.store.Put(h, store.NamespaceNavStub, store.KeyNavStub, navFragment(cfg.BaseURL, pages)); err != nil {
		return err
	}

	for _, desc := range append(pages, posts...) {
		if err := b.renderPage(ctx, h, desc, outDir); err != nil {
			return err
		}
	}

	slog.InfoContext(ctx, "build complete",
		slog.String("build", h.String()),
		slog.Int("pages", len(pages)),
		slog.Int("posts", len(posts)))
	return nil
}

func (b *Builder) renderPage(ctx context.Context, h store.Handle, desc pipeline.PageDescriptor, outDir string) error {
	f, err := os.Open(desc.Source)
	if err != nil {
		return errors.File(err, desc.Source)
	}
	br := bufio.NewReader(f)
	if err := header.SkipHeader(br); err != nil {
		_ = f.Close()
		return errors.File(err, desc.Source)
	}
	body, err := io.ReadAll(br)
	_ = f.Close()
	if err != nil {
		return errors.File(err, desc.Source)
	}

	contents, err := b.md.Convert(body)
	if err != nil {
		return errors.File(err, desc.Source)
	}

	bindings := map[string]any{
		"title":      desc.Header["title"],
		"site_title": b.cfg.Title,
		"author":     b.cfg.Author,
	}
	page, err := render.Page(b.store, h, bindings, contents, b.cfg.BaseURL)
	if err != nil {
		return err
	}

	for _, marker := range render.UnresolvedMarkers(page) {
		slog.WarnContext(ctx, "unresolved link marker",
			slog.String("path", desc.Source), slog.String("marker", marker))
	}

	dst := filepath.Join(outDir, filepath.FromSlash(desc.Dest))
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return errors.File(err, dst)
	}
	if err := os.WriteFile(dst, page, 0o644); err != nil {
		return errors.File(err, dst)
	}
	return nil
}

// descriptors reads a committed descriptor list; an absent list (posts in
// a project without a posts tree) is just empty.
func (b *Builder) descriptors(h store.Handle, key string) []pipeline.PageDescriptor {
	value, err := b.store.Get(h, store.NamespacePages, key)
	if err != nil {
		return nil
	}
	descs, _ := value.([]pipeline.PageDescriptor)
	return descs
}

func (b *Builder) recordEvent(ctx context.Context, h store.Handle, typ eventstore.EventType, detail string) {
	if b.events == nil {
		return
	}
	if err := b.events.Append(ctx, h.String(), typ, detail); err != nil {
		slog.WarnContext(ctx, "failed to record build event", slog.Any("error", err))
	}
}

// contentOptions declares the header keys every content file may carry.
func contentOptions() header.Options {
	return header.Options{
		Fields: []header.Field{
			{Key: "title", Type: header.String},
			{Key: "author", Type: header.String},
			{Key: "date", Type: header.DateTime},
			{Key: "tags", Type: header.List(header.String)},
		},
		Required: []string{"title"},
	}
}
