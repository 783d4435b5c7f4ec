package notification

import (
	"context"

	"socialnet/backend/internal/models"
	"socialnet/backend/internal/realtime"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// Store is the slice of the notification repo the fan-out needs.
type Store interface {
	Save(ctx context.Context, notification *models.Notification) error
	CountUnread(ctx context.Context, profileID uuid.UUID) (int64, error)
}

// Emitter pushes a realtime event to a profile's room, fire-and-forget.
type Emitter interface {
	Emit(room uuid.UUID, event string, payload any)
}

type item struct {
	event      string
	payload    map[string]any
	recipients []uuid.UUID
}

// Fanout turns single domain events into per-recipient persisted
// notifications plus best-effort realtime nudges.
//
// The queue is bounded and producers never block: when the queue is
// full the item is dropped and logged, and the triggering operation
// still succeeds. One background worker drains the queue sequentially;
// a recipient that fails (persistence or push) never affects the rest
// of the batch.
type Fanout struct {
	queue    chan item
	store    Store
	realtime Emitter
	log      logr.Logger
}

func NewFanout(capacity int, store Store, emitter Emitter, log logr.Logger) *Fanout {
	return &Fanout{
		queue:    make(chan item, capacity),
		store:    store,
		realtime: emitter,
		log:      log,
	}
}

// Notify enqueues an event for fan-out to the given recipients.
func (f *Fanout) Notify(event string, payload map[string]any, recipients []uuid.UUID) {
	if len(recipients) == 0 {
		return
	}
	select {
	case f.queue <- item{event: event, payload: payload, recipients: recipients}:
	default:
		f.log.Error(nil, "notification queue is full, dropping event",
			"event", event, "recipients", len(recipients))
	}
}

// Start launches the worker. It drains the queue until ctx is done,
// which in practice means process shutdown.
func (f *Fanout) Start(ctx context.Context) {
	go f.run(ctx)
}

func (f *Fanout) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case next := <-f.queue:
			f.dispatch(ctx, next)
		}
	}
}

func (f *Fanout) dispatch(ctx context.Context, next item) {
	for _, recipient := range next.recipients {
		err := f.store.Save(ctx, &models.Notification{
			ProfileID: recipient,
			Data: models.NotificationData{
				Event:   next.event,
				Payload: next.payload,
			},
		})
		if err != nil {
			f.log.Error(err, "notification creation failed",
				"event", next.event, "recipient", recipient)
			continue
		}
		// Best effort: an offline recipient keeps the row but gets no
		// nudge.
		f.realtime.Emit(recipient, realtime.EventNewUnreadNotification, 1)
	}
}

// HandleConnect pushes the recipient's current unread count to a newly
// admitted connection.
func (f *Fanout) HandleConnect(ctx context.Context, client *realtime.Client) {
	count, err := f.store.CountUnread(ctx, client.ProfileID())
	if err != nil {
		f.log.Error(err, "unread notifications count failed",
			"profile", client.ProfileID())
		return
	}
	client.Send(realtime.EventUnreadNotificationsCount, count)
}
