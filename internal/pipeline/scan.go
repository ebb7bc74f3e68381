package pipeline

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"siteforge/internal/errors"
	"siteforge/internal/header"
	"siteforge/internal/store"
)

// Kind selects which content set a scan covers.
type Kind string

const (
	KindPages Kind = "pages"
	KindPosts Kind = "posts"
)

func (k Kind) stage() string { return "scan_" + string(k) }

func (k Kind) storeKey() string {
	if k == KindPosts {
		return store.KeyPosts
	}
	return store.KeyPages
}

// PageDescriptor records one scanned content file: its source path, the
// destination path relative to the output root, and its parsed header. The
// descriptor list is owned by the build scope until the build finishes.
type PageDescriptor struct {
	Source string
	Dest   string
	Header header.Header
}

// Scan enumerates the content files under dir and parses each header in
// its own concurrent unit (required key: title, plus the caller's declared
// keys).
//
// If dir does not exist, Scan fails immediately and non-aggregated with a
// file error: there is nothing to aggregate over when the root is absent.
// Non-Markdown files found during the walk are staged into stagingDir as a
// side effect. If every file parses, the ordered descriptor list is
// committed under (handle, "pages_file", kind); if any fails, all parse
// failures are aggregated and nothing is committed.
func Scan(ctx context.Context, st *store.Store, h store.Handle, kind Kind, dir, stagingDir string, opts header.Options) error {
	if _, err := os.Stat(dir); err != nil {
		return errors.File(err, dir)
	}

	opts = withTitle(opts)

	var contentFiles []string
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".md") {
			contentFiles = append(contentFiles, path)
			return nil
		}
		if stagingDir != "" {
			if err := stageStatic(dir, stagingDir, path); err != nil {
				slog.WarnContext(ctx, "failed to stage static file", slog.String("path", path), slog.Any("error", err))
			}
		}
		return nil
	})
	if walkErr != nil {
		return errors.File(walkErr, dir)
	}

	slog.DebugContext(ctx, "scanning content", slog.String("kind", string(kind)), slog.Int("files", len(contentFiles)))

	tasks := make([]func() Result, len(contentFiles))
	for i, path := range contentFiles {
		tasks[i] = func() Result {
			desc, err := scanFile(path, kind, dir, opts)
			if err != nil {
				return Result{Key: path, Err: err}
			}
			return Result{Key: path, Value: desc}
		}
	}

	results := joinAll(tasks)
	if errs := failures(results); len(errs) > 0 {
		return errors.NewAggregate(kind.stage(), errs)
	}

	descriptors := make([]PageDescriptor, len(results))
	for i, r := range results {
		descriptors[i] = r.Value.(PageDescriptor)
	}
	return st.Put(h, store.NamespacePages, kind.storeKey(), descriptors)
}

func scanFile(path string, kind Kind, dir string, opts header.Options) (PageDescriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return PageDescriptor{}, errors.File(err, path)
	}
	defer func() { _ = f.Close() }()

	hdr, err := header.Parse(f, path, opts)
	if err != nil {
		return PageDescriptor{}, err
	}
	return PageDescriptor{Source: path, Dest: destPath(kind, dir, path), Header: hdr}, nil
}

// destPath computes the output-relative destination for a content file.
// Posts land under posts/; pages keep their position relative to dir.
func destPath(kind Kind, dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + ".html"
	if kind == KindPosts {
		rel = filepath.Join("posts", rel)
	}
	return filepath.ToSlash(rel)
}

// withTitle ensures the title key is declared and required.
func withTitle(opts header.Options) header.Options {
	declared := false
	for _, f := range opts.Fields {
		if f.Key == "title" {
			declared = true
			break
		}
	}
	fields := opts.Fields
	if !declared {
		fields = append([]header.Field{{Key: "title", Type: header.String}}, fields...)
	}
	required := opts.Required
	for _, k := range required {
		if k == "title" {
			return header.Options{Fields: fields, Required: required}
		}
	}
	return header.Options{Fields: fields, Required: append([]string{"title"}, required...)}
}

func stageStatic(dir, stagingDir, path string) error {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return err
	}
	dst := filepath.Join(stagingDir, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
