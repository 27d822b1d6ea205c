// Package dagbag holds the process-local collection of compiled DAG
// definitions, parsed from YAML files under a base directory and cached by
// file modification time.
package dagbag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dagr-org/dagr/internal/common/fileutil"
	"github.com/dagr-org/dagr/internal/digraph"
)

// Option is a functional option for configuring the bag.
type Option func(*Options)

// Options contains configuration options for the bag.
type Options struct {
	FileCache *fileutil.Cache[*digraph.DAG] // Optional cache for parsed DAGs
}

// WithFileCache sets the file cache for parsed DAG objects.
func WithFileCache(cache *fileutil.Cache[*digraph.DAG]) Option {
	return func(o *Options) {
		o.FileCache = cache
	}
}

// New creates a bag over the given base directory.
func New(baseDir string, opts ...Option) *Bag {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	if options.FileCache == nil {
		options.FileCache = fileutil.NewCache[*digraph.DAG]("dagbag", 512, time.Hour)
	}
	return &Bag{
		baseDir:   baseDir,
		fileCache: options.FileCache,
	}
}

// Bag resolves DAG names to their compiled definitions. A definition may
// exist here while its metadata record is missing from the store, and vice
// versa; callers pick the source appropriate for their use case.
type Bag struct {
	baseDir   string
	fileCache *fileutil.Cache[*digraph.DAG]
}

// GetDAG returns the compiled definition for the given name. Absence is
// reported as ok=false, not as an error.
func (b *Bag) GetDAG(ctx context.Context, name string) (*digraph.DAG, bool) {
	filePath := b.locate(name)
	if filePath == "" {
		return nil, false
	}
	dag, err := b.fileCache.LoadLatest(filePath, func() (*digraph.DAG, error) {
		return digraph.Load(ctx, filePath, digraph.WithName(name))
	})
	if err != nil {
		return nil, false
	}
	return dag, true
}

// GetMetadata loads only the metadata portion of the definition. Absence is
// reported as ok=false.
func (b *Bag) GetMetadata(ctx context.Context, name string) (*digraph.DAG, bool) {
	filePath := b.locate(name)
	if filePath == "" {
		return nil, false
	}
	dag, err := digraph.Load(ctx, filePath, digraph.WithName(name), digraph.OnlyMetadata())
	if err != nil {
		return nil, false
	}
	return dag, true
}

// ListAll parses every definition under the base directory. Files that fail
// to parse are reported in the error list without aborting the walk.
func (b *Bag) ListAll(ctx context.Context) ([]*digraph.DAG, []string, error) {
	entries, err := os.ReadDir(b.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to read DAG directory %s: %w", b.baseDir, err)
	}

	var (
		dags    []*digraph.DAG
		errList []string
	)
	for _, entry := range entries {
		if entry.IsDir() || !fileutil.IsYAMLFile(entry.Name()) {
			continue
		}
		name := fileutil.TrimYAMLFileExtension(entry.Name())
		dag, ok := b.GetDAG(ctx, name)
		if !ok {
			// Re-load without the cache to surface the parse error.
			_, err := digraph.Load(ctx, filepath.Join(b.baseDir, entry.Name()), digraph.WithName(name))
			if err != nil {
				errList = append(errList, fmt.Sprintf("reading %s failed: %s", name, err))
			}
			continue
		}
		dags = append(dags, dag)
	}
	return dags, errList, nil
}

// locate returns the file path for a DAG name, or empty when no YAML file
// with that name exists under the base directory.
func (b *Bag) locate(name string) string {
	for _, ext := range fileutil.ValidYAMLExtensions {
		filePath := filepath.Join(b.baseDir, name+ext)
		if fileutil.FileExists(filePath) {
			return filePath
		}
	}
	return ""
}
