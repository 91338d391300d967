package sessionstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/yanqian/appliance-assistant/internal/domain/flow"
	apperrors "github.com/yanqian/appliance-assistant/pkg/errors"
)

const defaultMaxSessions = 10000

// MemoryStore keeps sessions in process memory. Entries are stored encoded
// so callers never share a *flow.Session with the cache.
type MemoryStore struct {
	cache *expirable.LRU[string, []byte]
}

// NewMemoryStore constructs a store that evicts idle sessions after ttl and
// the least recently used ones beyond maxSessions.
func NewMemoryStore(maxSessions int, ttl time.Duration) *MemoryStore {
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}
	return &MemoryStore{cache: expirable.NewLRU[string, []byte](maxSessions, nil, ttl)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*flow.Session, error) {
	payload, ok := s.cache.Get(id)
	if !ok {
		return nil, errSessionNotFound
	}
	return decode(payload)
}

func (s *MemoryStore) Save(_ context.Context, session *flow.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "encode session", err)
	}
	s.cache.Add(session.ID, payload)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.cache.Remove(id)
	return nil
}

// Len reports the number of live sessions.
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}

var errSessionNotFound = apperrors.Wrap(apperrors.CodeNotFound, "session not found", nil)

func decode(payload []byte) (*flow.Session, error) {
	var session flow.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "decode session", err)
	}
	return &session, nil
}

var _ flow.SessionStore = (*MemoryStore)(nil)
