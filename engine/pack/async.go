package pack

import "sync"

// AsyncResult is a file read running on the package's worker pool.
type AsyncResult struct {
	path string
	done chan struct{}
	once sync.Once

	data []byte
	err  error
}

func newAsyncResult(path string) *AsyncResult {
	return &AsyncResult{path: path, done: make(chan struct{})}
}

func (r *AsyncResult) complete(data []byte, err error) {
	r.once.Do(func() {
		r.data, r.err = data, err
		close(r.done)
	})
}

// Path returns the package path being read.
func (r *AsyncResult) Path() string {
	return r.path
}

// Done returns a channel closed once the read finished.
func (r *AsyncResult) Done() <-chan struct{} {
	return r.done
}

// IsDone reports whether the read finished, without blocking.
func (r *AsyncResult) IsDone() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the read finished.
//
// Returns:
//   - []byte: the file contents
//   - error: the read error
func (r *AsyncResult) Wait() ([]byte, error) {
	<-r.done
	return r.data, r.err
}

// Buffer returns the file contents, nil until the read finished or if it failed.
func (r *AsyncResult) Buffer() []byte {
	if !r.IsDone() {
		return nil
	}
	return r.data
}

// Err returns the read error, nil until the read finished.
func (r *AsyncResult) Err() error {
	if !r.IsDone() {
		return nil
	}
	return r.err
}
