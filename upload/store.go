package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/segmentio/ksuid"
)

const spoolExt = ".upload"

var ErrTooLarge = errors.New("upload exceeds size limit")

// Store receives an upload and hands back a Handle scoped to one request.
type Store interface {
	Put(ctx context.Context, filename string, r io.Reader) (*Handle, error)
}

// Handle is the received upload. Release must be called once the request is
// done with it; it is safe to call more than once.
type Handle struct {
	Name string
	Size int64

	path string
	data []byte

	once       sync.Once
	releaseErr error
}

func (h *Handle) Open() (io.ReadCloser, error) {
	if h.path == "" {
		return io.NopCloser(bytes.NewReader(h.data)), nil
	}
	return os.Open(h.path)
}

func (h *Handle) Bytes() ([]byte, error) {
	if h.path == "" {
		return h.data, nil
	}
	return os.ReadFile(h.path)
}

// Path is the spool file, empty for in-memory handles.
func (h *Handle) Path() string {
	return h.path
}

func (h *Handle) Release() error {
	h.once.Do(func() {
		h.data = nil
		if h.path == "" {
			return
		}
		if err := os.Remove(h.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			h.releaseErr = err
		}
	})
	return h.releaseErr
}

type Memory struct {
	maxBytes int64
}

func NewMemory(maxBytes int64) *Memory {
	return &Memory{maxBytes: maxBytes}
}

func (m *Memory) Put(ctx context.Context, filename string, r io.Reader) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(limit(r, m.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if m.maxBytes > 0 && int64(len(data)) > m.maxBytes {
		return nil, ErrTooLarge
	}
	return &Handle{Name: filename, Size: int64(len(data)), data: data}, nil
}

// Disk spools uploads into dir, one ksuid-named file per upload.
type Disk struct {
	dir      string
	maxBytes int64
}

func NewDisk(dir string, maxBytes int64) (*Disk, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "photoframe")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}
	return &Disk{dir: dir, maxBytes: maxBytes}, nil
}

func (d *Disk) Dir() string {
	return d.dir
}

func (d *Disk) Put(ctx context.Context, filename string, r io.Reader) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(d.dir, ksuid.New().String()+spoolExt)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create spool file: %w", err)
	}

	n, err := io.Copy(f, limit(r, d.maxBytes))
	closeErr := f.Close()
	switch {
	case err != nil:
		err = fmt.Errorf("write spool file: %w", err)
	case closeErr != nil:
		err = fmt.Errorf("close spool file: %w", closeErr)
	case d.maxBytes > 0 && n > d.maxBytes:
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	return &Handle{Name: filename, Size: n, path: path}, nil
}

// limit reads one byte past max so oversize input is detectable.
func limit(r io.Reader, max int64) io.Reader {
	if max <= 0 {
		return r
	}
	return io.LimitReader(r, max+1)
}
