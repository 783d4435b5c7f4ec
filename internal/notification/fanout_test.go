package notification

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

type fakeStore struct {
	saved   []models.Notification
	failFor map[uuid.UUID]error
	unread  map[uuid.UUID]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{failFor: map[uuid.UUID]error{}, unread: map[uuid.UUID]int64{}}
}

func (s *fakeStore) Save(_ context.Context, notification *models.Notification) error {
	if err := s.failFor[notification.ProfileID]; err != nil {
		return err
	}
	s.saved = append(s.saved, *notification)
	return nil
}

func (s *fakeStore) CountUnread(_ context.Context, profileID uuid.UUID) (int64, error) {
	return s.unread[profileID], nil
}

type emitted struct {
	room    uuid.UUID
	event   string
	payload any
}

type fakeEmitter struct {
	events chan emitted
}

func newFakeEmitter() *fakeEmitter {
	return &fakeEmitter{events: make(chan emitted, 64)}
}

func (f *fakeEmitter) Emit(room uuid.UUID, event string, payload any) {
	f.events <- emitted{room: room, event: event, payload: payload}
}

func (f *fakeEmitter) drain() []emitted {
	var all []emitted
	for {
		select {
		case e := <-f.events:
			all = append(all, e)
		default:
			return all
		}
	}
}

func TestNotifyDropsWhenQueueFull(t *testing.T) {
	fanout := NewFanout(1, newFakeStore(), newFakeEmitter(), logr.Discard())

	recipient := []uuid.UUID{uuid.New()}
	fanout.Notify("FIRST", nil, recipient)
	fanout.Notify("SECOND", nil, recipient)

	// The worker is not running, so the first item still occupies the
	// single slot and the second must have been dropped.
	require.Len(t, fanout.queue, 1)
	assert.Equal(t, "FIRST", (<-fanout.queue).event)
}

func TestNotifyIgnoresEmptyRecipients(t *testing.T) {
	fanout := NewFanout(1, newFakeStore(), newFakeEmitter(), logr.Discard())

	fanout.Notify("EVENT", nil, nil)

	assert.Len(t, fanout.queue, 0)
}

func TestDispatchFansOutPerRecipient(t *testing.T) {
	store := newFakeStore()
	emitter := newFakeEmitter()
	fanout := NewFanout(8, store, emitter, logr.Discard())

	recipients := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	payload := map[string]any{"byUsername": "alice"}
	fanout.dispatch(context.Background(), item{
		event:      "NEW_FRIENDSHIP_REQUEST",
		payload:    payload,
		recipients: recipients,
	})

	require.Len(t, store.saved, len(recipients))
	for i, notification := range store.saved {
		assert.Equal(t, recipients[i], notification.ProfileID)
		assert.Equal(t, "NEW_FRIENDSHIP_REQUEST", notification.Data.Event)
		assert.Equal(t, payload, notification.Data.Payload)
	}

	events := emitter.drain()
	require.Len(t, events, len(recipients))
	for i, event := range events {
		assert.Equal(t, recipients[i], event.room)
		assert.Equal(t, "new_unread_notification", event.event)
	}
}

func TestDispatchIsolatesRecipientFailures(t *testing.T) {
	store := newFakeStore()
	emitter := newFakeEmitter()
	fanout := NewFanout(8, store, emitter, logr.Discard())

	healthy := uuid.New()
	broken := uuid.New()
	other := uuid.New()
	store.failFor[broken] = errors.New("constraint violation")

	fanout.dispatch(context.Background(), item{
		event:      "NEW_FRIEND",
		recipients: []uuid.UUID{healthy, broken, other},
	})

	require.Len(t, store.saved, 2)
	assert.Equal(t, healthy, store.saved[0].ProfileID)
	assert.Equal(t, other, store.saved[1].ProfileID)

	// No nudge for the recipient whose row was never written.
	events := emitter.drain()
	require.Len(t, events, 2)
	assert.Equal(t, healthy, events[0].room)
	assert.Equal(t, other, events[1].room)
}

func TestWorkerDrainsQueue(t *testing.T) {
	store := newFakeStore()
	emitter := newFakeEmitter()
	fanout := NewFanout(8, store, emitter, logr.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fanout.Start(ctx)

	recipient := uuid.New()
	fanout.Notify("NEW_FRIEND", map[string]any{"profileUsername": "bob"}, []uuid.UUID{recipient})

	select {
	case event := <-emitter.events:
		assert.Equal(t, recipient, event.room)
		assert.Equal(t, "new_unread_notification", event.event)
	case <-time.After(time.Second):
		t.Fatal("worker never dispatched the queued event")
	}
}
