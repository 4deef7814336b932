package message

import (
	"context"
)

// Publisher is the emitting part of a Pub/Sub.
type Publisher interface {
	// Publish publishes provided messages to given topic.
	//
	// Publish can be synchronous or asynchronous - it depends on the implementation.
	// When publishing one of the messages fails, the next messages are not published.
	//
	// Publish must be thread safe.
	Publish(topic string, messages ...*Message) error

	// Close should flush unsent messages, if publisher is async.
	Close() error
}

// Subscriber is the consuming part of the Pub/Sub.
type Subscriber interface {
	// Subscribe returns output channel with messages from provided topic.
	// Channel is closed, when Close() was called on the subscriber.
	//
	// When provided ctx is cancelled, subscriber will close subscribe and close output channel.
	// Provided ctx is set to all produced messages.
	Subscribe(ctx context.Context, topic string) (<-chan *Message, error)

	// Close closes all subscriptions with their output channels.
	Close() error
}

// PubSub is a Publisher and a Subscriber sharing the same topics.
type PubSub interface {
	Publisher
	Subscriber
}
