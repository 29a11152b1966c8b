// Package loader walks configured content roots and feeds documents into the
// document store and the index.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/config"
	"github.com/hyperjump/shiori/internal/docstore"
	"github.com/hyperjump/shiori/internal/extract"
	"github.com/hyperjump/shiori/internal/index"
	"github.com/hyperjump/shiori/internal/models"
)

// Loader loads content files into the document store and schedules indexing.
// Document IDs are slash-separated paths relative to their content root, so
// they stay stable across machines and reloads. The topic is the first path
// segment under the root; files sitting directly in a root fall under the
// root directory's own name.
type Loader struct {
	store     *docstore.Store
	index     *index.Index
	builder   *index.Builder
	extractor *extract.Extractor
	cfg       *config.ContentConfig
	logger    *zap.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(ld *Loader) { ld.logger = l }
}

// New creates a loader over the given store, index, and builder.
func New(store *docstore.Store, ix *index.Index, builder *index.Builder, extractor *extract.Extractor, cfg *config.ContentConfig, opts ...Option) *Loader {
	ld := &Loader{
		store:     store,
		index:     ix,
		builder:   builder,
		extractor: extractor,
		cfg:       cfg,
	}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// LoadAll walks every configured root and loads each file with an allowed
// extension. Returns the number of documents loaded. Individual file failures
// are logged and skipped; the walk continues.
func (ld *Loader) LoadAll(ctx context.Context) (int, error) {
	total := 0
	for _, root := range ld.cfg.Roots {
		n, err := ld.LoadRoot(ctx, root)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// LoadRoot walks a single content root.
func (ld *Loader) LoadRoot(ctx context.Context, root string) (int, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return 0, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absRoot)
	}

	n := 0
	err = filepath.WalkDir(absRoot, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != absRoot {
				return filepath.SkipDir
			}
			return nil
		}
		if !ld.extensionAllowed(path) {
			return nil
		}
		if _, _, err := ld.loadFile(absRoot, path); err != nil {
			if ld.logger != nil {
				ld.logger.Warn("load failed", zap.String("path", path), zap.Error(err))
			}
			return nil
		}
		n++
		return nil
	})
	return n, err
}

// ReloadPath loads or reloads the single file at path. The containing root is
// located from configuration; paths outside every root are an error. Returns
// the document and whether its content actually changed.
func (ld *Loader) ReloadPath(path string) (*models.ContentDocument, bool, error) {
	root, err := ld.rootFor(path)
	if err != nil {
		return nil, false, err
	}
	return ld.loadFile(root, path)
}

// ReloadDocument re-reads the file behind a document ID, trying each
// configured root. It restores evicted document bodies on demand.
func (ld *Loader) ReloadDocument(id string) (*models.ContentDocument, error) {
	for _, root := range ld.cfg.Roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		path := filepath.Join(absRoot, filepath.FromSlash(id))
		if _, err := os.Stat(path); err != nil {
			continue
		}
		doc, _, err := ld.loadFile(absRoot, path)
		return doc, err
	}
	return nil, fmt.Errorf("no content root holds document %s", id)
}

// RemovePath drops the document for path from the store and the index.
// Returns the removed document ID, or "" when the path maps to no root.
func (ld *Loader) RemovePath(path string) string {
	root, err := ld.rootFor(path)
	if err != nil {
		return ""
	}
	id, _, err := ld.identify(root, path)
	if err != nil {
		return ""
	}
	ld.store.Remove(id)
	ld.index.Remove(id)
	if ld.logger != nil {
		ld.logger.Debug("document removed", zap.String("id", id))
	}
	return id
}

func (ld *Loader) loadFile(root, path string) (*models.ContentDocument, bool, error) {
	id, topic, err := ld.identify(root, path)
	if err != nil {
		return nil, false, err
	}
	text, err := ld.extractor.Extract(path)
	if err != nil {
		return nil, false, fmt.Errorf("extract content: %w", err)
	}
	doc, changed := ld.store.Put(&models.DocumentInput{
		ID:      id,
		Topic:   topic,
		Title:   DocumentTitle(path, []byte(text)),
		RawText: text,
	})
	if changed {
		if err := ld.builder.IndexDocument(doc); err != nil {
			// Document stays browsable; search just will not find it.
			return doc, true, nil
		}
		if ld.logger != nil {
			ld.logger.Debug("document loaded",
				zap.String("id", id), zap.String("topic", topic), zap.Int64("version", doc.Version))
		}
	}
	return doc, changed, nil
}

// identify derives the document ID and topic for a file under root.
func (ld *Loader) identify(root, path string) (id, topic string, err error) {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", "", fmt.Errorf("path %s outside root %s", path, root)
	}
	id = filepath.ToSlash(rel)
	if i := strings.IndexByte(id, '/'); i > 0 {
		topic = id[:i]
	} else {
		topic = filepath.Base(root)
	}
	return id, topic, nil
}

func (ld *Loader) rootFor(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	for _, root := range ld.cfg.Roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		if rel, err := filepath.Rel(absRoot, abs); err == nil && !strings.HasPrefix(rel, "..") {
			return absRoot, nil
		}
	}
	return "", fmt.Errorf("no content root contains %s", path)
}

func (ld *Loader) extensionAllowed(path string) bool {
	if len(ld.cfg.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range ld.cfg.Extensions {
		if strings.ToLower(allowed) == ext {
			return true
		}
	}
	return false
}
