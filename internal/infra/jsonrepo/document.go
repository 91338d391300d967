package jsonrepo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	apperrors "github.com/yanqian/appliance-assistant/pkg/errors"
)

// document lazily decodes one JSON file and keeps the result until reset.
type document[T any] struct {
	path  string
	label string

	mu     sync.Mutex
	loaded bool
	value  T
}

func newDocument[T any](path, label string) *document[T] {
	return &document[T]{path: path, label: label}
}

func (d *document[T]) get() (T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loaded {
		return d.value, nil
	}
	var zero T
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return zero, apperrors.Wrap(apperrors.CodeRepositoryNotFound, fmt.Sprintf("%s file not found: %s", d.label, d.path), err)
		}
		return zero, apperrors.Wrap(apperrors.CodeRepositoryNotFound, fmt.Sprintf("read %s file", d.label), err)
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return zero, apperrors.Wrap(apperrors.CodeRepositoryDecode, fmt.Sprintf("invalid JSON in %s file", d.label), err)
	}
	d.value = value
	d.loaded = true
	return value, nil
}

func (d *document[T]) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	var zero T
	d.value = zero
	d.loaded = false
}
