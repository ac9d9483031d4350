package pack

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// dirHandler serves a package laid out as a plain directory.
type dirHandler struct {
	root string
}

func newDirHandler(root string) *dirHandler {
	return &dirHandler{root: root}
}

func (h *dirHandler) readFile(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(h.root, filepath.FromSlash(name)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func (h *dirHandler) allFiles(dir string) ([]string, error) {
	var out []string
	base := filepath.Join(h.root, filepath.FromSlash(dir))
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(h.root, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return out, err
}

func (h *dirHandler) close() error {
	return nil
}

// zipHandler serves a package stored as a zip archive.
type zipHandler struct {
	archive *zip.ReadCloser
	files   map[string]*zip.File
}

func newZipHandler(p string) (*zipHandler, error) {
	r, err := zip.OpenReader(p)
	if err != nil {
		return nil, err
	}
	h := &zipHandler{archive: r, files: make(map[string]*zip.File, len(r.File))}
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		h.files[strings.TrimPrefix(f.Name, "./")] = f
	}
	return h, nil
}

func (h *zipHandler) readFile(name string) ([]byte, error) {
	f, ok := h.files[name]
	if !ok {
		return nil, ErrNotFound
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open archive entry: %w", err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (h *zipHandler) allFiles(dir string) ([]string, error) {
	prefix := dir
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	var out []string
	for name := range h.files {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out, nil
}

func (h *zipHandler) close() error {
	return h.archive.Close()
}
