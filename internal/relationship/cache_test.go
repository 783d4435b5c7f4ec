package relationship

import (
	"context"
	"errors"
	"testing"
	"time"

	"socialnet/backend/internal/models"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is an in-memory cache.Cache. TTLs are recorded but never
// enforced; err, when set, fails every call.
type fakeBackend struct {
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeBackend) Get(_ context.Context, key string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	value, ok := f.data[key]
	return value, ok, nil
}

func (f *fakeBackend) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.data[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeBackend) Delete(_ context.Context, keys ...string) error {
	if f.err != nil {
		return f.err
	}
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeBackend) MGet(_ context.Context, keys ...string) ([]*string, error) {
	if f.err != nil {
		return nil, f.err
	}
	values := make([]*string, len(keys))
	for i, key := range keys {
		if value, ok := f.data[key]; ok {
			v := value
			values[i] = &v
		}
	}
	return values, nil
}

func TestPairKeyCanonicalization(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	keyAB, aIsLow := pairKey(a, b)
	keyBA, bIsLow := pairKey(b, a)

	assert.Equal(t, keyAB, keyBA)
	assert.True(t, aIsLow)
	assert.False(t, bIsLow)
	assert.Equal(t, "profiles:"+a.String()+":relationships:"+b.String(), keyAB)
}

func TestRelationshipPerspectiveSwap(t *testing.T) {
	backend := newFakeBackend()
	c := NewCache(backend, time.Minute, true, logr.Discard())
	ctx := context.Background()

	low := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	high := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	// Stored from the high id's perspective: high has an outgoing
	// request towards low.
	require.NoError(t, c.SetRelationship(ctx, high, low, models.RelationshipOutgoingFriendRequest))

	got, ok, err := c.GetRelationship(ctx, high, low)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.RelationshipOutgoingFriendRequest, got)

	got, ok, err = c.GetRelationship(ctx, low, high)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.RelationshipIncomingFriendRequest, got)

	// The canonical entry itself holds the low perspective.
	key, _ := pairKey(low, high)
	assert.Equal(t, string(models.RelationshipIncomingFriendRequest), backend.data[key])
}

func TestUnsetRelationshipDropsFriendLists(t *testing.T) {
	backend := newFakeBackend()
	c := NewCache(backend, time.Minute, true, logr.Discard())
	ctx := context.Background()

	a := uuid.New()
	b := uuid.New()
	require.NoError(t, c.SetRelationship(ctx, a, b, models.RelationshipFriend))
	require.NoError(t, c.SetFriends(ctx, a, []models.ProfileShort{{ID: b, Username: "b"}}))
	require.NoError(t, c.SetFriends(ctx, b, []models.ProfileShort{{ID: a, Username: "a"}}))

	require.NoError(t, c.UnsetRelationship(ctx, a, b, true))

	_, ok, err := c.GetRelationship(ctx, a, b)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = c.GetFriends(ctx, a)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = c.GetFriends(ctx, b)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheFailureSemantics(t *testing.T) {
	boom := errors.New("backend down")
	a := uuid.New()
	b := uuid.New()
	ctx := context.Background()

	t.Run("strict propagates", func(t *testing.T) {
		backend := newFakeBackend()
		backend.err = boom
		c := NewCache(backend, time.Minute, true, logr.Discard())

		_, _, err := c.GetRelationship(ctx, a, b)
		assert.ErrorIs(t, err, boom)
		assert.ErrorIs(t, c.SetRelationship(ctx, a, b, models.RelationshipFriend), boom)
	})

	t.Run("production degrades to miss", func(t *testing.T) {
		backend := newFakeBackend()
		backend.err = boom
		c := NewCache(backend, time.Minute, false, logr.Discard())

		_, ok, err := c.GetRelationship(ctx, a, b)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, c.SetRelationship(ctx, a, b, models.RelationshipFriend))
		assert.NoError(t, c.UnsetRelationship(ctx, a, b, true))
	})
}

func TestFriendListRoundTrip(t *testing.T) {
	backend := newFakeBackend()
	c := NewCache(backend, time.Minute, true, logr.Discard())
	ctx := context.Background()

	profileID := uuid.New()
	friends := []models.ProfileShort{
		{ID: uuid.New(), Username: "alice"},
		{ID: uuid.New(), Username: "bob"},
	}
	require.NoError(t, c.SetFriends(ctx, profileID, friends))

	got, ok, err := c.GetFriends(ctx, profileID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, friends, got)
	assert.Equal(t, time.Minute, backend.ttls[friendsKey(profileID)])
}
