package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"siteforge/internal/errors"
	"siteforge/internal/render"
	"siteforge/internal/store"
)

// StageLoadTemplates tags aggregated template-loading failures.
const StageLoadTemplates = "load_templates"

// LoadTemplates reads and compiles every required template, one concurrent
// unit per name. All units run to completion regardless of earlier
// failures. If any unit failed, the stage returns an Aggregate with all
// failures in task order and commits nothing; otherwise every compiled
// template is committed under (handle, "template", name).
func LoadTemplates(ctx context.Context, st *store.Store, h store.Handle, dir string, names []string) error {
	slog.DebugContext(ctx, "loading templates", slog.Int("count", len(names)), slog.String("dir", dir))

	tasks := make([]func() Result, len(names))
	for i, name := range names {
		path := filepath.Join(dir, name+".html")
		tasks[i] = func() Result {
			src, err := os.ReadFile(path)
			if err != nil {
				return Result{Key: name, Err: errors.File(err, path)}
			}
			tpl, err := render.Compile(name, string(src))
			if err != nil {
				return Result{Key: name, Err: err}
			}
			return Result{Key: name, Value: tpl}
		}
	}

	results := joinAll(tasks)
	if errs := failures(results); len(errs) > 0 {
		return errors.NewAggregate(StageLoadTemplates, errs)
	}

	for _, r := range results {
		if err := st.Put(h, store.NamespaceTemplate, r.Key, r.Value); err != nil {
			return err
		}
	}
	return nil
}
