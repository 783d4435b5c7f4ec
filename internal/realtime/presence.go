package realtime

import (
	"context"
	"fmt"
	"time"

	"socialnet/backend/internal/cache"

	"github.com/google/uuid"
)

// PresenceStore tracks who is online through short-lived keys: the mere
// existence of a profile's key means "online". Keys are renewed at
// connect and on every heartbeat; a connection that stops heartbeating
// just lets its key expire.
type PresenceStore struct {
	backend cache.Cache
	ttl     time.Duration
}

func NewPresenceStore(backend cache.Cache, ttl time.Duration) *PresenceStore {
	return &PresenceStore{backend: backend, ttl: ttl}
}

func presenceKey(profileID uuid.UUID) string {
	return fmt.Sprintf("websockets:%s", profileID)
}

// Renew refreshes the profile's presence key for another TTL.
func (p *PresenceStore) Renew(ctx context.Context, profileID uuid.UUID) error {
	return p.backend.Set(ctx, presenceKey(profileID),
		time.Now().UTC().Format(time.RFC3339), p.ttl)
}

// OnlineSubset returns the ids among profileIDs whose presence key
// currently exists.
func (p *PresenceStore) OnlineSubset(ctx context.Context, profileIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(profileIDs) == 0 {
		return nil, nil
	}
	keys := make([]string, len(profileIDs))
	for i, profileID := range profileIDs {
		keys[i] = presenceKey(profileID)
	}
	values, err := p.backend.MGet(ctx, keys...)
	if err != nil {
		return nil, err
	}
	online := make([]uuid.UUID, 0, len(profileIDs))
	for i, value := range values {
		if value != nil {
			online = append(online, profileIDs[i])
		}
	}
	return online, nil
}
