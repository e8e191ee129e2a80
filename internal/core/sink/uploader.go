package sink

import (
	"context"
	"io"
	"sort"
	"sync"
)

// Uploader stores one finished object in the destination bucket.
type Uploader interface {
	Upload(ctx context.Context, object string, data io.Reader) error
}

// MemoryUploader collects uploaded objects in memory. Used by tests and
// by the CLI dry-run mode.
type MemoryUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryUploader() *MemoryUploader {
	return &MemoryUploader{
		objects: make(map[string][]byte),
	}
}

func (u *MemoryUploader) Upload(_ context.Context, object string, data io.Reader) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[object] = buf

	return nil
}

// Object returns the stored content for an object name.
func (u *MemoryUploader) Object(name string) ([]byte, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	data, ok := u.objects[name]
	return data, ok
}

// Objects returns the stored object names in lexical order.
func (u *MemoryUploader) Objects() []string {
	u.mu.Lock()
	defer u.mu.Unlock()

	names := make([]string, 0, len(u.objects))
	for name := range u.objects {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
