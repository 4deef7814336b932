package post

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/devblog/postsapi"
	"github.com/devblog/postsapi/message"
)

const (
	TopicPostCreated = "post.created"
	TopicPostUpdated = "post.updated"
	TopicPostDeleted = "post.deleted"
)

// Topics lists every topic post events are published to.
var Topics = []string{TopicPostCreated, TopicPostUpdated, TopicPostDeleted}

// Event is the payload of every post event.
// For deletions Post is the removed post.
type Event struct {
	Post       Post      `json:"post"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEventMessage marshals e into a message.
// The correlation id found in ctx is copied to the message metadata.
func NewEventMessage(ctx context.Context, e Event) (*message.Message, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, "cannot marshal post event")
	}

	msg := message.NewMessage(postsapi.NewUUID(), payload)
	if correlationID := message.CorrelationIDFromCtx(ctx); correlationID != "" {
		message.SetCorrelationID(correlationID, msg)
	}
	msg.SetContext(ctx)

	return msg, nil
}

// UnmarshalEvent decodes the Event carried by msg.
func UnmarshalEvent(msg *message.Message) (Event, error) {
	var e Event
	if err := json.Unmarshal(msg.Payload, &e); err != nil {
		return Event{}, errors.Wrapf(err, "cannot unmarshal post event %s", msg.UUID)
	}

	return e, nil
}

// EventsPublisher decorates a Store: after every successful mutation it publishes an Event.
//
// Publishing failures are logged and never returned, the mutation already happened.
type EventsPublisher struct {
	Store

	publisher message.Publisher
	logger    postsapi.LoggerAdapter
	now       func() time.Time
}

func NewEventsPublisher(store Store, publisher message.Publisher, logger postsapi.LoggerAdapter) *EventsPublisher {
	if logger == nil {
		logger = postsapi.NopLogger{}
	}

	return &EventsPublisher{
		Store:     store,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (e *EventsPublisher) Create(ctx context.Context, p Post) (Post, error) {
	created, err := e.Store.Create(ctx, p)
	if err != nil {
		return Post{}, err
	}

	e.publish(ctx, TopicPostCreated, created)
	return created, nil
}

func (e *EventsPublisher) Update(ctx context.Context, id ID, p Post) (Post, error) {
	updated, err := e.Store.Update(ctx, id, p)
	if err != nil {
		return Post{}, err
	}

	e.publish(ctx, TopicPostUpdated, updated)
	return updated, nil
}

func (e *EventsPublisher) Delete(ctx context.Context, id ID) (Post, error) {
	removed, err := e.Store.Delete(ctx, id)
	if err != nil {
		return Post{}, err
	}

	e.publish(ctx, TopicPostDeleted, removed)
	return removed, nil
}

func (e *EventsPublisher) publish(ctx context.Context, topic string, p Post) {
	logFields := postsapi.LogFields{"topic": topic, "post_id": p.ID}

	msg, err := NewEventMessage(ctx, Event{Post: p, OccurredAt: e.now().UTC()})
	if err != nil {
		e.logger.Error("Cannot create post event", err, logFields)
		return
	}

	if err := e.publisher.Publish(topic, msg); err != nil {
		e.logger.Error("Cannot publish post event", err, logFields.Add(postsapi.LogFields{"message_uuid": msg.UUID}))
		return
	}

	e.logger.Trace("Post event published", logFields.Add(postsapi.LogFields{"message_uuid": msg.UUID}))
}
