package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Sink receives rendered export files.
type Sink interface {
	Save(ctx context.Context, name, contentType string, data []byte) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ctx context.Context, name, contentType string, data []byte) error

// Save calls f.
func (f SinkFunc) Save(ctx context.Context, name, contentType string, data []byte) error {
	return f(ctx, name, contentType, data)
}

// MemorySink keeps the latest payload per file name.
type MemorySink struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{files: make(map[string][]byte)}
}

// Save stores a copy of data under name.
func (s *MemorySink) Save(_ context.Context, name, _ string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	s.mu.Lock()
	s.files[name] = cp
	s.mu.Unlock()
	return nil
}

// Get returns the payload stored under name.
func (s *MemorySink) Get(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.files[name]
	return b, ok
}

// Names returns the stored file names in sorted order.
func (s *MemorySink) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.files))
	for n := range s.files {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// DirSink writes files into a local directory.
type DirSink struct {
	dir string
}

// NewDirSink returns a sink rooted at dir. The directory is created on the
// first save.
func NewDirSink(dir string) *DirSink {
	return &DirSink{dir: dir}
}

// Save writes data to dir/name, replacing any previous file atomically.
func (s *DirSink) Save(_ context.Context, name, _ string, data []byte) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	if err := os.MkdirAll(s.dir, os.ModePerm); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	dst := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // best effort after rename
	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec // write error wins
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// NopSink discards every file.
type NopSink struct{}

// Save does nothing.
func (NopSink) Save(context.Context, string, string, []byte) error { return nil }
