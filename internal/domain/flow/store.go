package flow

import "context"

// SessionStore persists sessions between requests. Get returns a not_found
// AppError for unknown or expired sessions.
type SessionStore interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// Image is an archived nameplate upload.
type Image struct {
	ContentType string
	Data        []byte
}

// ImageStore archives uploaded nameplate photos keyed by content hash.
type ImageStore interface {
	Put(ctx context.Context, key string, img Image) error
	Get(ctx context.Context, key string) (Image, error)
}
