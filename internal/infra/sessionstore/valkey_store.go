package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/appliance-assistant/internal/domain/flow"
	apperrors "github.com/yanqian/appliance-assistant/pkg/errors"
)

// ValkeyStore persists sessions in a Valkey-compatible database so several
// API replicas can serve the same conversation.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string, ttl time.Duration) *ValkeyStore {
	if prefix == "" {
		prefix = "appliance"
	}
	return &ValkeyStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *ValkeyStore) Get(ctx context.Context, id string) (*flow.Session, error) {
	cmd := s.client.B().Get().Key(s.sessionKey(id)).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, errSessionNotFound
		}
		return nil, apperrors.Wrap(apperrors.CodeStorage, "load session", err)
	}
	return decode([]byte(payload))
}

// Save writes the session and refreshes its TTL.
func (s *ValkeyStore) Save(ctx context.Context, session *flow.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "encode session", err)
	}
	if err := s.setString(ctx, s.sessionKey(session.ID), string(payload)); err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "save session", err)
	}
	return nil
}

func (s *ValkeyStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Do(ctx, s.client.B().Del().Key(s.sessionKey(id)).Build()).Error(); err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "delete session", err)
	}
	return nil
}

func (s *ValkeyStore) setString(ctx context.Context, key, value string) error {
	builder := s.client.B().Set().Key(key).Value(value)
	var cmd valkey.Completed
	if s.ttl > 0 {
		ttl := s.ttl
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) sessionKey(id string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, id)
}

var _ flow.SessionStore = (*ValkeyStore)(nil)
