package relationship

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"socialnet/backend/internal/cache"
	"socialnet/backend/internal/models"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// Cache accelerates relationship lookups and materialized friend lists.
// Entries are canonicalized by the sorted id pair so exactly one entry
// represents an unordered pair; directional values are stored from the
// low id's perspective and re-derived for the asking profile on read.
//
// In production every backend failure degrades to a miss (the store
// stays correct); outside production failures propagate to aid
// debugging.
type Cache struct {
	backend cache.Cache
	ttl     time.Duration
	strict  bool
	log     logr.Logger
}

func NewCache(backend cache.Cache, ttl time.Duration, strict bool, log logr.Logger) *Cache {
	return &Cache{backend: backend, ttl: ttl, strict: strict, log: log}
}

// pairKey returns the canonical cache key for an unordered pair and
// whether profileID is the low end of it. Ordering is lexicographic
// over the string form: stable and total, as canonicalization requires.
func pairKey(profileID, otherProfileID uuid.UUID) (key string, isLow bool) {
	low, high := profileID, otherProfileID
	isLow = true
	if strings.Compare(low.String(), high.String()) > 0 {
		low, high = high, low
		isLow = false
	}
	return fmt.Sprintf("profiles:%s:relationships:%s", low, high), isLow
}

func friendsKey(profileID uuid.UUID) string {
	return fmt.Sprintf("profiles:%s:friends", profileID)
}

// GetRelationship returns the cached relationship from profileID's
// perspective, or a miss.
func (c *Cache) GetRelationship(ctx context.Context, profileID, otherProfileID uuid.UUID) (models.Relationship, bool, error) {
	key, isLow := pairKey(profileID, otherProfileID)
	value, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		return "", false, c.fail("get relationship", err)
	}
	if !ok {
		return "", false, nil
	}
	relationship := models.Relationship(value)
	if !isLow {
		relationship = relationship.Inverse()
	}
	return relationship, true, nil
}

// SetRelationship stores the relationship observed from profileID's
// perspective under the canonical pair key.
func (c *Cache) SetRelationship(ctx context.Context, profileID, otherProfileID uuid.UUID, relationship models.Relationship) error {
	key, isLow := pairKey(profileID, otherProfileID)
	if !isLow {
		relationship = relationship.Inverse()
	}
	return c.fail("set relationship",
		c.backend.Set(ctx, key, string(relationship), c.ttl))
}

// UnsetRelationship drops the pair's entry; with dropFriends it also
// drops both profiles' materialized friend lists, which is required
// whenever friendship membership changed.
func (c *Cache) UnsetRelationship(ctx context.Context, profileID, otherProfileID uuid.UUID, dropFriends bool) error {
	key, _ := pairKey(profileID, otherProfileID)
	keys := []string{key}
	if dropFriends {
		keys = append(keys, friendsKey(profileID), friendsKey(otherProfileID))
	}
	return c.fail("unset relationship", c.backend.Delete(ctx, keys...))
}

// GetFriends returns the materialized friend list for a profile, or a
// miss.
func (c *Cache) GetFriends(ctx context.Context, profileID uuid.UUID) ([]models.ProfileShort, bool, error) {
	value, ok, err := c.backend.Get(ctx, friendsKey(profileID))
	if err != nil {
		return nil, false, c.fail("get friends", err)
	}
	if !ok {
		return nil, false, nil
	}
	var friends []models.ProfileShort
	if err := json.Unmarshal([]byte(value), &friends); err != nil {
		return nil, false, c.fail("decode friends", err)
	}
	return friends, true, nil
}

func (c *Cache) SetFriends(ctx context.Context, profileID uuid.UUID, friends []models.ProfileShort) error {
	encoded, err := json.Marshal(friends)
	if err != nil {
		return c.fail("encode friends", err)
	}
	return c.fail("set friends",
		c.backend.Set(ctx, friendsKey(profileID), string(encoded), c.ttl))
}

func (c *Cache) fail(op string, err error) error {
	if err == nil {
		return nil
	}
	if c.strict {
		return err
	}
	c.log.Error(err, "cache access failed", "op", op)
	return nil
}
