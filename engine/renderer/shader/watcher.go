package shader

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/message"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchedExtensions are the file extensions treated as shader sources.
var watchedExtensions = []string{".glsl", ".vert", ".frag", ".geom"}

// watcher is the implementation of the Watcher interface.
type watcher struct {
	fs     *fsnotify.Watcher
	poster message.Poster
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// Watcher observes shader directories on disk and posts a ShaderChanged message whenever a shader
// source is written or created, so the engine can rebuild its programs.
type Watcher interface {
	// Close stops watching and waits for the event goroutine to exit.
	//
	// Returns:
	//   - error: an error if the underlying watcher failed to close
	Close() error
}

var _ Watcher = &watcher{}

// NewWatcher starts watching dirs (not recursively).
//
// Parameters:
//   - poster: the sink receiving ShaderChanged messages
//   - dirs: the directories to watch
//
// Returns:
//   - Watcher: the running watcher
//   - error: an error if the watcher could not be created or a directory could not be added
func NewWatcher(poster message.Poster, dirs ...string) (Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create shader watcher: %w", err)
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch shader directory %q: %w", dir, err)
		}
	}

	w := &watcher{
		fs:     fw,
		poster: poster,
		done:   make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

func (w *watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !isShaderFile(event.Name) {
				continue
			}
			common.Log().Debug("shader source changed", zap.String("file", event.Name))
			w.poster.Post(message.ShaderChanged(event.Name))
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			common.Log().Warn("shader watcher error", zap.Error(err))
		}
	}
}

func (w *watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
		w.wg.Wait()
	})
	return err
}

func isShaderFile(name string) bool {
	return slices.Contains(watchedExtensions, strings.ToLower(filepath.Ext(name)))
}
