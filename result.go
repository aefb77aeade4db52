package docfetch

import (
	"io"
	"os"
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

// Result is a fetched document held in a scratch directory.
//
// A Result owns its scratch directory: call [Result.Close] once the file
// has been consumed. Close is idempotent.
type Result struct {
	// Path is the file on disk.
	Path string
	// Filename is the suggested name for the client.
	Filename string
	// Site is the profile that handled the URL.
	Site SiteHint
	// Technique names the step that produced the file.
	Technique string
	// DocumentID is the ID extracted from the URL, if any.
	DocumentID string
	// Size is the file length in bytes.
	Size int64

	dir     string
	release func(dir string) error
	once    sync.Once
	err     error
}

// Open opens the file for reading.
func (r *Result) Open() (*os.File, error) {
	f, err := os.Open(r.Path)
	if err != nil {
		return nil, goerr.Wrap(err, "opening result", goerr.V("path", r.Path))
	}
	return f, nil
}

// Bytes reads the whole file.
func (r *Result) Bytes() ([]byte, error) {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return nil, goerr.Wrap(err, "reading result", goerr.V("path", r.Path))
	}
	return data, nil
}

// WriteTo copies the file to w. It implements [io.WriterTo].
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	f, err := r.Open()
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(w, f)
}

// SaveAs copies the file to path, creating or truncating it.
func (r *Result) SaveAs(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return goerr.Wrap(err, "creating output file", goerr.V("path", path))
	}
	if _, err := r.WriteTo(out); err != nil {
		out.Close()
		return goerr.Wrap(err, "copying result", goerr.V("path", path))
	}
	if err := out.Close(); err != nil {
		return goerr.Wrap(err, "closing output file", goerr.V("path", path))
	}
	return nil
}

// Close removes the scratch directory holding the file.
func (r *Result) Close() error {
	r.once.Do(func() {
		if r.release != nil {
			r.err = r.release(r.dir)
		}
	})
	return r.err
}
