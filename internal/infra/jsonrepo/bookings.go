package jsonrepo

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
	apperrors "github.com/yanqian/appliance-assistant/pkg/errors"
)

// BookingRepository stores bookings as a JSON array rewritten on every save.
type BookingRepository struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewBookingRepository makes sure the file exists, creating it as [].
func NewBookingRepository(path string, logger *slog.Logger) (*BookingRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &BookingRepository{path: path, logger: logger.With("component", "jsonrepo.bookings")}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, apperrors.Wrap(apperrors.CodeStorage, "create bookings directory", err)
			}
		}
		if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeStorage, "create bookings file", err)
		}
	}
	return r, nil
}

// Save appends booking and rewrites the whole file.
func (r *BookingRepository) Save(_ context.Context, booking appliance.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bookings := append(r.load(), booking)
	data, err := json.MarshalIndent(bookings, "", "  ")
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "encode bookings", err)
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "write bookings file", err)
	}
	return nil
}

// All never fails: an unreadable file yields no bookings.
func (r *BookingRepository) All(context.Context) ([]appliance.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(), nil
}

func (r *BookingRepository) ByID(_ context.Context, id string) (appliance.Booking, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.load() {
		if b.BookingID == id {
			return b, true, nil
		}
	}
	return appliance.Booking{}, false, nil
}

func (r *BookingRepository) load() []appliance.Booking {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn("read bookings failed", "path", r.path, "error", err)
		}
		return []appliance.Booking{}
	}
	var bookings []appliance.Booking
	if err := json.Unmarshal(data, &bookings); err != nil {
		r.logger.Warn("decode bookings failed", "path", r.path, "error", err)
		return []appliance.Booking{}
	}
	if bookings == nil {
		bookings = []appliance.Booking{}
	}
	return bookings
}

var _ appliance.BookingRepository = (*BookingRepository)(nil)
