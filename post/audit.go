package post

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/devblog/postsapi"
	"github.com/devblog/postsapi/message"
)

// AuditLog logs every post event it receives.
type AuditLog struct {
	subscriber message.Subscriber
	logger     postsapi.LoggerAdapter

	running     chan struct{}
	runningOnce sync.Once
}

func NewAuditLog(subscriber message.Subscriber, logger postsapi.LoggerAdapter) *AuditLog {
	if logger == nil {
		logger = postsapi.NopLogger{}
	}

	return &AuditLog{
		subscriber: subscriber,
		logger:     logger.With(postsapi.LogFields{"component": "audit_log"}),
		running:    make(chan struct{}),
	}
}

// Running is closed once Run subscribed to all topics.
func (a *AuditLog) Running() <-chan struct{} {
	return a.running
}

// Run subscribes to all post topics and blocks until every subscription is closed,
// that is, until ctx is cancelled or the subscriber is closed.
func (a *AuditLog) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg := sync.WaitGroup{}

	for _, topic := range Topics {
		messages, err := a.subscriber.Subscribe(ctx, topic)
		if err != nil {
			cancel()
			wg.Wait()
			return errors.Wrapf(err, "cannot subscribe to %s", topic)
		}

		wg.Add(1)
		go func(topic string, messages <-chan *message.Message) {
			defer wg.Done()

			for msg := range messages {
				a.handle(topic, msg)
			}
		}(topic, messages)
	}

	a.logger.Debug("Audit log running", postsapi.LogFields{"topics": Topics})
	a.runningOnce.Do(func() {
		close(a.running)
	})

	wg.Wait()
	a.logger.Debug("Audit log stopped", nil)

	return nil
}

func (a *AuditLog) handle(topic string, msg *message.Message) {
	logFields := postsapi.LogFields{
		"topic":          topic,
		"message_uuid":   msg.UUID,
		"correlation_id": message.MessageCorrelationID(msg),
	}

	event, err := UnmarshalEvent(msg)
	if err != nil {
		a.logger.Error("Cannot decode post event", err, logFields)
		return
	}

	a.logger.Info("Post changed", logFields.Add(postsapi.LogFields{
		"post_id":     event.Post.ID,
		"author":      event.Post.Author,
		"title":       event.Post.Title,
		"occurred_at": event.OccurredAt,
	}))
}
