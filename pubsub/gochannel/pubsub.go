package gochannel

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/devblog/postsapi"
	"github.com/devblog/postsapi/internal"
	syncInternal "github.com/devblog/postsapi/internal/sync"
	"github.com/devblog/postsapi/message"
)

var (
	// ErrClosed is returned when publishing to or subscribing on a closed Pub/Sub.
	ErrClosed = errors.New("Pub/Sub closed")

	// ErrCloseTimeout is returned when subscribers did not finish within Config.CloseTimeout.
	ErrCloseTimeout = errors.New("Pub/Sub close timeout")
)

type Config struct {
	// Output channel buffer size.
	OutputChannelBuffer int64

	// If persistent is set to true, when subscriber subscribes to the topic,
	// it will receive all previously produced messages first.
	//
	// All messages are persisted to the memory (simple slice),
	// so be aware that with large amount of messages you can go out of the memory.
	Persistent bool

	// How long Close waits for subscribers to finish. Defaults to 30s.
	CloseTimeout time.Duration
}

func (c *Config) setDefaults() {
	if c.CloseTimeout == 0 {
		c.CloseTimeout = 30 * time.Second
	}
}

// GoChannel is the simplest Pub/Sub implementation.
// It is based on Golang's channels which are sent within the process.
//
// GoChannel has no global state,
// that means that you need to use the same instance for Publishing and Subscribing!
//
// Messages published to one topic are delivered to every subscriber of that topic in publishing order.
// Publish blocks while a subscriber's output buffer is full.
type GoChannel struct {
	config Config
	logger postsapi.LoggerAdapter

	subscribersWg   sync.WaitGroup
	subscribers     map[string][]*subscriber
	subscribersLock sync.RWMutex

	closedLock sync.Mutex
	closing    chan struct{}

	persistedMessages     map[string][]*message.Message
	persistedMessagesLock sync.RWMutex
}

// NewGoChannel creates new GoChannel Pub/Sub.
//
// Unless Config.Persistent is set, a message published to a topic without subscribers is discarded.
func NewGoChannel(config Config, logger postsapi.LoggerAdapter) *GoChannel {
	config.setDefaults()

	if logger == nil {
		logger = postsapi.NopLogger{}
	}

	return &GoChannel{
		config: config,

		subscribers: make(map[string][]*subscriber),
		logger: logger.With(postsapi.LogFields{
			"pubsub_uuid": postsapi.NewShortUUID(),
		}),

		closing: make(chan struct{}),

		persistedMessages: map[string][]*message.Message{},
	}
}

// Publish sends copies of messages to all current subscribers of the topic.
func (g *GoChannel) Publish(topic string, messages ...*message.Message) error {
	if g.isClosed() {
		return ErrClosed
	}

	copies := make([]*message.Message, 0, len(messages))
	for _, msg := range messages {
		copies = append(copies, msg.Copy())
	}

	g.subscribersLock.RLock()
	defer g.subscribersLock.RUnlock()

	if g.config.Persistent {
		g.persistedMessagesLock.Lock()
		// Close clears persistedMessages after the closed check above
		if g.persistedMessages == nil {
			g.persistedMessagesLock.Unlock()
			return ErrClosed
		}
		g.persistedMessages[topic] = append(g.persistedMessages[topic], copies...)
		g.persistedMessagesLock.Unlock()
	}

	for _, msg := range copies {
		g.sendMessage(topic, msg)
	}

	return nil
}

func (g *GoChannel) sendMessage(topic string, msg *message.Message) {
	subscribers := g.subscribers[topic]
	logFields := postsapi.LogFields{"message_uuid": msg.UUID, "topic": topic}

	if len(subscribers) == 0 {
		g.logger.Debug("No subscribers to send message", logFields)
		return
	}

	for _, s := range subscribers {
		s.sendMessageToSubscriber(topic, msg, logFields)
	}
}

// Subscribe returns channel to which all published messages are sent.
// The channel is closed when ctx is cancelled or the Pub/Sub is closed.
//
// There are no consumer groups support etc. Every consumer will receive every produced message.
func (g *GoChannel) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	g.closedLock.Lock()
	if g.isClosed() {
		g.closedLock.Unlock()
		return nil, ErrClosed
	}
	g.subscribersWg.Add(1)
	g.closedLock.Unlock()

	s := &subscriber{
		ctx:           ctx,
		uuid:          postsapi.NewUUID(),
		outputChannel: make(chan *message.Message, g.config.OutputChannelBuffer),
		closing:       make(chan struct{}),
	}
	s.logger = g.logger.With(postsapi.LogFields{"subscriber_uuid": s.uuid, "topic": topic})

	g.subscribersLock.Lock()

	var replay []*message.Message
	if g.config.Persistent {
		g.persistedMessagesLock.RLock()
		replay = append(replay, g.persistedMessages[topic]...)
		g.persistedMessagesLock.RUnlock()
	}

	// new messages wait for the replay, so the subscriber sees the topic in order
	s.sending.Lock()
	g.subscribers[topic] = append(g.subscribers[topic], s)

	g.subscribersLock.Unlock()

	go func() {
		defer s.sending.Unlock()

		for _, msg := range replay {
			s.send(topic, msg, postsapi.LogFields{"message_uuid": msg.UUID, "topic": topic})
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
			// unblock
		case <-g.closing:
			// unblock
		}

		s.Close()

		g.subscribersLock.Lock()
		g.removeSubscriber(topic, s)
		g.subscribersLock.Unlock()

		g.subscribersWg.Done()
	}()

	return s.outputChannel, nil
}

func (g *GoChannel) removeSubscriber(topic string, toRemove *subscriber) {
	for i, sub := range g.subscribers[topic] {
		if sub == toRemove {
			g.subscribers[topic] = append(g.subscribers[topic][:i], g.subscribers[topic][i+1:]...)
			return
		}
	}

	panic("cannot remove subscriber, not found " + toRemove.uuid)
}

func (g *GoChannel) isClosed() bool {
	return internal.IsChannelClosed(g.closing)
}

// Close closes all subscriptions and waits for them to finish, bounded by Config.CloseTimeout.
// Close is idempotent.
func (g *GoChannel) Close() error {
	g.closedLock.Lock()
	defer g.closedLock.Unlock()

	if g.isClosed() {
		return nil
	}

	close(g.closing)

	g.logger.Debug("Closing Pub/Sub, waiting for subscribers", nil)
	if timedOut := syncInternal.WaitGroupTimeout(&g.subscribersWg, g.config.CloseTimeout); timedOut {
		return ErrCloseTimeout
	}

	g.persistedMessagesLock.Lock()
	g.persistedMessages = nil
	g.persistedMessagesLock.Unlock()

	g.logger.Info("Pub/Sub closed", nil)

	return nil
}

type subscriber struct {
	ctx context.Context

	uuid string

	sending       sync.Mutex
	outputChannel chan *message.Message

	logger  postsapi.LoggerAdapter
	closed  bool
	closing chan struct{}
}

func (s *subscriber) Close() {
	close(s.closing)

	s.logger.Debug("Closing subscriber, waiting for sending lock", nil)

	// ensuring that we are not sending to closed channel
	s.sending.Lock()
	defer s.sending.Unlock()

	s.closed = true
	close(s.outputChannel)

	s.logger.Debug("GoChannel Pub/Sub Subscriber closed", nil)
}

func (s *subscriber) sendMessageToSubscriber(topic string, msg *message.Message, logFields postsapi.LogFields) {
	s.sending.Lock()
	defer s.sending.Unlock()

	s.send(topic, msg, logFields)
}

// send must be called with the sending lock held.
func (s *subscriber) send(topic string, msg *message.Message, logFields postsapi.LogFields) {
	if s.closed {
		s.logger.Info("Subscriber closed, discarding msg", logFields)
		return
	}

	// every subscriber gets its own copy, so metadata changes don't leak between consumers
	msgToSend := msg.Copy()
	msgToSend.SetContext(message.WithPublishTopic(s.ctx, topic))

	s.logger.Trace("Sending msg to subscriber", logFields)

	select {
	case s.outputChannel <- msgToSend:
		s.logger.Trace("Sent message to subscriber", logFields)
	case <-s.closing:
		s.logger.Trace("Closing, message discarded", logFields)
	}
}
