// Package devserver runs the live-development rebuild orchestrator.
//
// The orchestrator is a single-goroutine actor: explicit requests and
// asynchronous change notifications merge into one mailbox and are
// processed strictly in arrival order, so no two state transitions ever
// execute concurrently. It owns the dirty flag exclusively and never
// terminates because of a broken source tree.
package devserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"

	"siteforge/internal/builder"
	"siteforge/internal/config"
	"siteforge/internal/metrics"
	"siteforge/internal/watcher"
)

// subscription is the slice of the watcher the actor consumes.
type subscription interface {
	Events() <-chan watcher.Event
	Close()
}

type message interface{ devMessage() }

type changeMsg struct{ path string }
type queryDirtyMsg struct{ reply chan bool }
type rebuildMsg struct {
	trigger string
	reply   chan error
}
type watcherStoppedMsg struct{}
type stopMsg struct{ reply chan struct{} }

func (changeMsg) devMessage()         {}
func (queryDirtyMsg) devMessage()     {}
func (rebuildMsg) devMessage()        {}
func (watcherStoppedMsg) devMessage() {}
func (stopMsg) devMessage()           {}

// Server is the rebuild orchestrator. Zero value is not usable; construct
// with New. A Server is Idle until Start and Running afterwards.
type Server struct {
	cfg        *config.Config
	configPath string
	builder    *builder.Builder
	recorder   *metrics.Recorder

	sourceDir string
	dirty     bool // owned by the actor goroutine

	mailbox chan message
	done    chan struct{}
	stopped chan struct{}

	sub       subscription
	subscribe func(dir string) (subscription, error)
	sched     gocron.Scheduler
	httpAddr  string
	httpSrv   *http.Server

	// running is read by the poll scheduler's goroutine and by callers
	// while Stop writes it, so it must be atomic.
	running atomic.Bool
}

// Option configures a Server.
type Option func(*Server)

// WithRecorder wires dev-server metrics.
func WithRecorder(r *metrics.Recorder) Option {
	return func(s *Server) { s.recorder = r }
}

// WithHTTPAddr enables the preview file server on addr.
func WithHTTPAddr(addr string) Option {
	return func(s *Server) { s.httpAddr = addr }
}

// WithSubscribe overrides how the source tree is watched. Tests inject a
// fake subscription here.
func WithSubscribe(fn func(dir string) (subscription, error)) Option {
	return func(s *Server) { s.subscribe = fn }
}

// New creates an orchestrator for a loaded project. configPath may be
// empty; when set, project metadata is re-loaded before every rebuild.
func New(cfg *config.Config, configPath string, b *builder.Builder, opts ...Option) *Server {
	s := &Server{
		cfg:        cfg,
		configPath: configPath,
		builder:    b,
		mailbox:    make(chan message, 32),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		subscribe: func(dir string) (subscription, error) {
			return watcher.Subscribe(dir)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start subscribes to source-tree changes, runs one synchronous full
// build, and transitions to Running{dirty:false}. A failing initial build
// is logged as a warning, never fatal: the developer always gets a live
// preview server, even with a broken project.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return fmt.Errorf("devserver: already running")
	}

	absSource, err := filepath.Abs(s.cfg.Source.Directory)
	if err != nil {
		return fmt.Errorf("devserver: resolve source dir: %w", err)
	}
	s.sourceDir = absSource

	sub, err := s.subscribe(absSource)
	if err != nil {
		return fmt.Errorf("devserver: watch source dir: %w", err)
	}
	s.sub = sub

	if err := s.doRebuild(ctx); err != nil {
		slog.WarnContext(ctx, "initial build failed; serving last good output",
			slog.Any("error", err))
	}

	s.dirty = false
	s.running.Store(true)
	go s.forward(sub)
	go s.loop(ctx)

	s.startPoll(ctx)
	s.startHTTP()

	slog.InfoContext(ctx, "dev server running",
		slog.String("source", absSource),
		slog.String("site", s.cfg.Output.Directory))
	return nil
}

// QueryDirty returns the dirty flag and atomically resets it as part of
// the same transition. Callers that want change-driven rebuilds poll and
// clear, then issue Rebuild when true.
func (s *Server) QueryDirty() bool {
	if !s.running.Load() {
		return false
	}
	reply := make(chan bool, 1)
	select {
	case s.mailbox <- queryDirtyMsg{reply: reply}:
		return <-reply
	case <-s.done:
		return false
	}
}

// Rebuild re-loads project metadata and re-runs the full preparation
// pipeline, synchronously from the caller's point of view. Failures are
// logged as warnings and returned as values; they never terminate the
// orchestrator, and previously built output remains servable.
func (s *Server) Rebuild() error {
	return s.rebuildWith("explicit")
}

func (s *Server) rebuildWith(trigger string) error {
	if !s.running.Load() {
		return fmt.Errorf("devserver: not running")
	}
	reply := make(chan error, 1)
	select {
	case s.mailbox <- rebuildMsg{trigger: trigger, reply: reply}:
		return <-reply
	case <-s.done:
		return fmt.Errorf("devserver: stopped")
	}
}

// Running reports whether the orchestrator has started and not stopped.
func (s *Server) Running() bool { return s.running.Load() }

// Stop shuts the orchestrator down: poll job, watcher, HTTP server, actor.
// Only the first call does the teardown.
func (s *Server) Stop(ctx context.Context) {
	if !s.running.CompareAndSwap(true, false) {
		return
	}

	if s.sched != nil {
		_ = s.sched.Shutdown()
	}
	s.sub.Close()
	if s.httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
	}

	reply := make(chan struct{})
	select {
	case s.mailbox <- stopMsg{reply: reply}:
		<-reply
	case <-s.done:
	}
	<-s.stopped
}

// loop is the actor: one message at a time, transitions fully serialized.
func (s *Server) loop(ctx context.Context) {
	defer close(s.stopped)
	for msg := range s.mailbox {
		switch m := msg.(type) {
		case changeMsg:
			s.handleChange(ctx, m.path)
		case queryDirtyMsg:
			m.reply <- s.dirty
			s.dirty = false
		case rebuildMsg:
			if s.recorder != nil {
				s.recorder.IncRebuild(m.trigger)
			}
			m.reply <- s.handleRebuild(ctx)
		case watcherStoppedMsg:
			// Accepted and ignored; shutdown is driven by Stop.
		case stopMsg:
			close(s.done)
			close(m.reply)
			return
		}
	}
}

// forward merges watcher events into the mailbox so they share the actor's
// serialized processing order.
func (s *Server) forward(sub subscription) {
	for ev := range sub.Events() {
		select {
		case s.mailbox <- changeMsg{path: ev.Path}:
		case <-s.done:
			return
		}
	}
	select {
	case s.mailbox <- watcherStoppedMsg{}:
	case <-s.done:
	}
}

// handleChange sets the dirty flag unless the changed path is hidden.
// Multiple changes before the next query simply coalesce.
func (s *Server) handleChange(ctx context.Context, path string) {
	rel, err := filepath.Rel(s.sourceDir, path)
	if err != nil {
		return
	}
	for _, segment := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(segment, ".") {
			return
		}
	}
	if !s.dirty {
		slog.DebugContext(ctx, "source tree dirty", slog.String("path", rel))
	}
	s.dirty = true
	if s.recorder != nil {
		s.recorder.IncDirty()
	}
}

func (s *Server) handleRebuild(ctx context.Context) error {
	err := s.doRebuild(ctx)
	if err != nil {
		slog.WarnContext(ctx, "rebuild failed; previous output remains servable",
			slog.Any("error", err))
	}
	return err
}

// doRebuild loads project metadata and runs the full build.
func (s *Server) doRebuild(ctx context.Context) error {
	if s.configPath != "" {
		cfg, err := config.Load(s.configPath)
		if err != nil {
			return err
		}
		s.cfg = cfg
		s.builder.SetConfig(cfg)
	}
	return s.builder.Build(ctx)
}

// startPoll drives the poll-and-clear-then-rebuild loop. An interval of
// zero disables polling; callers then query and rebuild themselves.
func (s *Server) startPoll(ctx context.Context) {
	interval := s.cfg.Dev.PollInterval
	if interval <= 0 {
		return
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		slog.WarnContext(ctx, "poll scheduler unavailable", slog.Any("error", err))
		return
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if s.QueryDirty() {
				_ = s.rebuildWith("poll")
			}
		}),
		gocron.WithName("rebuild-poll"),
	)
	if err != nil {
		slog.WarnContext(ctx, "poll job setup failed", slog.Any("error", err))
		return
	}
	sched.Start()
	s.sched = sched
}

// startHTTP serves the generated site plus the metrics endpoint.
func (s *Server) startHTTP() {
	if s.httpAddr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(s.cfg.Output.Directory)))
	if s.recorder != nil {
		mux.Handle("/metrics", s.recorder.Handler())
	}
	s.httpSrv = &http.Server{
		Addr:              s.httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Warn("preview server stopped", slog.Any("error", err))
		}
	}()
}
