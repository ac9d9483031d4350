// Package pack reads game assets from a package: a directory or a zip archive with one root
// directory per asset category.
package pack

import (
	"errors"
	"fmt"
	"os"
	"path"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a package file does not exist.
var ErrNotFound = errors.New("package file not found")

// ErrClosed is returned by reads on a closed package.
var ErrClosed = errors.New("package closed")

// Category selects the root directory a file name is resolved against.
type Category int

const (
	CategoryShaders Category = iota
	CategoryTextures
	CategoryModels
	CategoryMaps
	CategorySounds
	CategoryScripts
	categoryCount
)

var categoryRoots = [categoryCount]string{
	CategoryShaders:  "shaders/",
	CategoryTextures: "textures/",
	CategoryModels:   "models/",
	CategoryMaps:     "maps/",
	CategorySounds:   "sounds/",
	CategoryScripts:  "scripts/",
}

// Root returns the package directory of the category, with a trailing slash.
func (c Category) Root() string {
	if c < 0 || c >= categoryCount {
		return ""
	}
	return categoryRoots[c]
}

// String returns the category name used in logs.
func (c Category) String() string {
	return strings.TrimSuffix(c.Root(), "/")
}

// handler is the storage behind a package.
type handler interface {
	readFile(name string) ([]byte, error)
	allFiles(dir string) ([]string, error)
	close() error
}

type gamePackage struct {
	path    string
	handler handler
	workers int

	poolOnce sync.Once
	pool     worker.DynamicWorkerPool
	taskID   atomic.Int64
	pending  sync.Map

	// submitMu orders submissions before Close stops the pool.
	submitMu sync.RWMutex
	closed   atomic.Bool
}

// Package is an opened game package. Paths are slash-separated and relative to the package root.
// Safe for concurrent use.
type Package interface {
	shader.FileReader

	// Path returns the file system path the package was opened from.
	Path() string

	// ReadFile reads a file of a category.
	//
	// Parameters:
	//   - c: the category whose root name is resolved against
	//   - name: the file name inside the category root
	//
	// Returns:
	//   - []byte: the file contents
	//   - error: a wrapped ErrNotFound if the file does not exist
	ReadFile(c Category, name string) ([]byte, error)

	// PathOf returns the package path of a category file.
	//
	// Parameters:
	//   - c: the category
	//   - name: the file name inside the category root
	//
	// Returns:
	//   - string: the slash-separated package path
	PathOf(c Category, name string) string

	// AllFiles lists every file below dir, recursively, sorted.
	//
	// Parameters:
	//   - dir: a package directory, "" for the root
	//
	// Returns:
	//   - []string: package paths of the files
	//   - error: an error if the listing failed
	AllFiles(dir string) ([]string, error)

	// BeginReadFile reads a category file on the package's worker pool.
	//
	// Parameters:
	//   - c: the category
	//   - name: the file name inside the category root
	//
	// Returns:
	//   - *AsyncResult: the pending read
	BeginReadFile(c Category, name string) *AsyncResult

	// Close stops the worker pool and releases the archive. Reads after Close fail with ErrClosed.
	//
	// Returns:
	//   - error: an error if the archive could not be closed
	Close() error
}

var _ Package = &gamePackage{}

// Open opens the package at p. A directory is read through the file system; any other file is
// opened as a zip archive.
//
// Parameters:
//   - p: the package path
//   - options: functional options to configure the package
//
// Returns:
//   - Package: the opened package
//   - error: an error if p does not exist or is not a valid archive
func Open(p string, options ...PackageBuilderOption) (Package, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open package %q: %w", p, err)
	}

	var h handler
	if info.IsDir() {
		h = newDirHandler(p)
	} else {
		h, err = newZipHandler(p)
		if err != nil {
			return nil, fmt.Errorf("failed to open package %q: %w", p, err)
		}
	}

	pkg := &gamePackage{
		path:    p,
		handler: h,
		workers: 2,
	}
	for _, opt := range options {
		opt(pkg)
	}
	common.Log().Info("package opened", zap.String("path", p), zap.Bool("archive", !info.IsDir()))
	return pkg, nil
}

func (g *gamePackage) Path() string {
	return g.path
}

// clean normalizes a package path and rejects paths escaping the root.
func clean(p string) (string, bool) {
	p = path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	p = strings.TrimPrefix(p, "/")
	if p == "" || p == "." {
		return "", false
	}
	return p, true
}

func (g *gamePackage) ReadFileFromPath(p string) ([]byte, error) {
	if g.closed.Load() {
		return nil, fmt.Errorf("read %q: %w", p, ErrClosed)
	}
	name, ok := clean(p)
	if !ok {
		return nil, fmt.Errorf("read %q: %w", p, ErrNotFound)
	}
	data, err := g.handler.readFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", name, err)
	}
	return data, nil
}

func (g *gamePackage) ReadFile(c Category, name string) ([]byte, error) {
	return g.ReadFileFromPath(g.PathOf(c, name))
}

func (g *gamePackage) PathOf(c Category, name string) string {
	return c.Root() + name
}

func (g *gamePackage) AllFiles(dir string) ([]string, error) {
	if g.closed.Load() {
		return nil, ErrClosed
	}
	d, _ := clean(dir)
	files, err := g.handler.allFiles(d)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", dir, err)
	}
	slices.Sort(files)
	return files, nil
}

func (g *gamePackage) BeginReadFile(c Category, name string) *AsyncResult {
	r := newAsyncResult(g.PathOf(c, name))
	g.submitMu.RLock()
	defer g.submitMu.RUnlock()
	if g.closed.Load() {
		r.complete(nil, fmt.Errorf("read %q: %w", r.path, ErrClosed))
		return r
	}

	g.poolOnce.Do(func() {
		g.pool = worker.NewDynamicWorkerPool(g.workers, 256, time.Second)
	})
	if g.pool == nil {
		r.complete(nil, fmt.Errorf("read %q: %w", r.path, ErrClosed))
		return r
	}
	id := int(g.taskID.Add(1))
	g.pending.Store(id, r)
	g.pool.SubmitTask(worker.Task{
		ID:      id,
		Payload: r.path,
		Do: func() (any, error) {
			defer g.pending.Delete(id)
			data, err := g.ReadFileFromPath(r.path)
			r.complete(data, err)
			return data, err
		},
	})
	return r
}

func (g *gamePackage) Close() error {
	g.submitMu.Lock()
	closed := g.closed.Swap(true)
	g.submitMu.Unlock()
	if closed {
		return nil
	}
	// Synchronizes with a concurrent first BeginReadFile and keeps later ones from starting a pool.
	g.poolOnce.Do(func() {})
	if g.pool != nil {
		g.pool.Stop()
	}
	// Reads still queued never run once the pool stopped.
	g.pending.Range(func(key, value any) bool {
		r := value.(*AsyncResult)
		r.complete(nil, fmt.Errorf("read %q: %w", r.path, ErrClosed))
		g.pending.Delete(key)
		return true
	})
	return g.handler.close()
}
