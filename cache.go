package sparcjit

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	goruntime "runtime"

	"github.com/sparcjit/sparcjit/internal/compilationcache"
	"github.com/sparcjit/sparcjit/internal/version"
)

// CompilationCache reduces time spent translating the same block twice. Blocks are keyed by their IR and the
// translator configuration, so a cache can be shared by translators with different configurations.
//
// A CompilationCache is safe for concurrent use by multiple translators.
type CompilationCache interface {
	cache() compilationcache.Cache
}

// NewCompilationCache returns a CompilationCache which keeps the translated blocks in memory.
func NewCompilationCache() CompilationCache {
	return &compilationCache{c: compilationcache.NewMemoryCache()}
}

// NewCompilationCacheWithDir returns a CompilationCache which persists the translated blocks in dir, so they can be
// reused by later processes.
//
// If dir doesn't exist, this creates the directory. Entries are kept in a subdirectory specific to the version
// of sparcjit and the platform, as the encoding of a cached block is not stable across versions.
//
// Note: The embedder must safeguard this directory from external changes.
func NewCompilationCacheWithDir(dir string) (CompilationCache, error) {
	return newCompilationCacheWithDir(dir, version.GetVersion())
}

func newCompilationCacheWithDir(dir string, v string) (CompilationCache, error) {
	// Resolve a potentially relative directory into an absolute one.
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err = mkdir(dir); err != nil {
		return nil, err
	}

	// Create a version-specific directory to avoid conflicts.
	dirname := path.Join(dir, "sparcjit-"+v+"-"+goruntime.GOARCH+"-"+goruntime.GOOS)
	if err = mkdir(dirname); err != nil {
		return nil, err
	}
	return &compilationCache{c: compilationcache.NewFileCache(dirname), dir: dirname}, nil
}

// compilationCache implements CompilationCache interface.
type compilationCache struct {
	c compilationcache.Cache
	// dir is where entries are persisted, empty when they are kept in memory.
	dir string
}

func (c *compilationCache) cache() compilationcache.Cache {
	return c.c
}

func mkdir(dirname string) error {
	if st, err := os.Stat(dirname); errors.Is(err, os.ErrNotExist) {
		// If the directory not found, create the cache dir.
		if err = os.MkdirAll(dirname, 0o700); err != nil {
			return fmt.Errorf("create directory %s: %v", dirname, err)
		}
	} else if err != nil {
		return err
	} else if !st.IsDir() {
		return fmt.Errorf("%s is not dir", dirname)
	}
	return nil
}
