package declsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/specialistvlad/buildgrid/internal/ctxlog"
	"github.com/specialistvlad/buildgrid/internal/fsutil"
)

// DefaultCacheSize is the number of parsed files FileSource keeps.
const DefaultCacheSize = 1024

type decodeFunc func(namespace, path string, src []byte) ([]Record, error)

var decoders = map[string]decodeFunc{
	".hcl":  decodeHCL,
	".yaml": decodeYAML,
	".yml":  decodeYAML,
}

// FileSource reads declarations from BUILD files under a root directory. A
// namespace maps to the directory of the same relative path.
type FileSource struct {
	root  string
	cache *lru.Cache[string, []Record]
}

// NewFileSource creates a file-backed source. cacheSize <= 0 selects
// DefaultCacheSize.
func NewFileSource(root string, cacheSize int) (*FileSource, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, []Record](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create parse cache: %w", err)
	}
	return &FileSource{root: root, cache: cache}, nil
}

// Root returns the directory namespaces are resolved against.
func (s *FileSource) Root() string { return s.root }

// Dir returns the directory of a namespace.
func (s *FileSource) Dir(namespace string) string {
	return filepath.Join(s.root, filepath.FromSlash(namespace))
}

// LoadNamespace implements Source.
func (s *FileSource) LoadNamespace(ctx context.Context, namespace string) ([]Record, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindDeclarationFiles(s.Dir(namespace), ".hcl", ".yaml", ".yml")
	if err != nil {
		return nil, &ParseError{Namespace: namespace, Err: err}
	}
	logger.Debug("Discovered declaration files.", "namespace", namespace, "count", len(files))

	var records []Record
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recs, err := s.loadFile(ctx, namespace, path)
		if err != nil {
			return nil, &ParseError{Namespace: namespace, Path: path, Err: err}
		}
		records = append(records, recs...)
	}
	return records, nil
}

// loadFile decodes a file, reusing a cached result while its size and
// modification time are unchanged.
func (s *FileSource) loadFile(ctx context.Context, namespace, path string) ([]Record, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%s|%s|%d|%d", namespace, path, info.Size(), info.ModTime().UnixNano())
	if recs, ok := s.cache.Get(key); ok {
		ctxlog.FromContext(ctx).Debug("Parsed file cache hit.", "path", path)
		return append([]Record(nil), recs...), nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	recs, err := decoders[filepath.Ext(path)](namespace, path, src)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, recs)
	return append([]Record(nil), recs...), nil
}
