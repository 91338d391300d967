package imagestore

import (
	"context"
	"sync"

	"github.com/yanqian/appliance-assistant/internal/domain/flow"
	apperrors "github.com/yanqian/appliance-assistant/pkg/errors"
)

// MemoryStorage keeps uploads in memory. Useful for tests and local dev.
type MemoryStorage struct {
	mu     sync.RWMutex
	images map[string]flow.Image
}

// NewMemoryStorage constructs storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{images: make(map[string]flow.Image)}
}

// Put stores a copy of the image.
func (s *MemoryStorage) Put(_ context.Context, key string, img flow.Image) error {
	data := make([]byte, len(img.Data))
	copy(data, img.Data)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[key] = flow.Image{ContentType: img.ContentType, Data: data}
	return nil
}

func (s *MemoryStorage) Get(_ context.Context, key string) (flow.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[key]
	if !ok {
		return flow.Image{}, errImageNotFound
	}
	return img, nil
}

var errImageNotFound = apperrors.Wrap(apperrors.CodeNotFound, "image not found", nil)

var _ flow.ImageStore = (*MemoryStorage)(nil)
