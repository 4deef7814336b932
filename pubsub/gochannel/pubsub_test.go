package gochannel_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devblog/postsapi"
	"github.com/devblog/postsapi/message"
	"github.com/devblog/postsapi/pubsub/gochannel"
)

func newPubSub(t *testing.T, config gochannel.Config) *gochannel.GoChannel {
	t.Helper()

	pubSub := gochannel.NewGoChannel(config, postsapi.NewStdLogger(true, true))
	t.Cleanup(func() {
		_ = pubSub.Close()
	})

	return pubSub
}

func publishSimpleMessages(t *testing.T, count int, publisher message.Publisher, topic string) []*message.Message {
	t.Helper()

	var published []*message.Message
	for i := 0; i < count; i++ {
		msg := message.NewMessage(postsapi.NewUUID(), []byte(strconv.Itoa(i)))
		require.NoError(t, publisher.Publish(topic, msg))
		published = append(published, msg)
	}

	return published
}

func bulkRead(messages <-chan *message.Message, limit int, timeout time.Duration) (received []*message.Message, all bool) {
	deadline := time.After(timeout)

	for len(received) < limit {
		select {
		case msg, ok := <-messages:
			if !ok {
				return received, false
			}
			received = append(received, msg)
		case <-deadline:
			return received, false
		}
	}

	return received, true
}

func assertSameMessages(t *testing.T, expected, received []*message.Message) {
	t.Helper()

	require.Len(t, received, len(expected))
	for i := range expected {
		assert.True(t, expected[i].Equals(received[i]), "message %d differs", i)
	}
}

func TestPublishSubscribe_not_persistent(t *testing.T) {
	messagesCount := 100
	pubSub := newPubSub(t, gochannel.Config{OutputChannelBuffer: int64(messagesCount)})
	topicName := "test_topic_" + postsapi.NewUUID()

	msgs, err := pubSub.Subscribe(context.Background(), topicName)
	require.NoError(t, err)

	sent := publishSimpleMessages(t, messagesCount, pubSub, topicName)
	received, all := bulkRead(msgs, messagesCount, time.Second)
	assert.True(t, all)

	assertSameMessages(t, sent, received)
}

func TestPublishSubscribe_unbuffered_keeps_order(t *testing.T) {
	messagesCount := 20
	pubSub := newPubSub(t, gochannel.Config{})
	topicName := "test_topic_" + postsapi.NewUUID()

	msgs, err := pubSub.Subscribe(context.Background(), topicName)
	require.NoError(t, err)

	sentCh := make(chan []*message.Message, 1)
	go func() {
		sentCh <- publishSimpleMessages(t, messagesCount, pubSub, topicName)
	}()

	received, all := bulkRead(msgs, messagesCount, time.Second)
	assert.True(t, all)

	assertSameMessages(t, <-sentCh, received)
}

func TestPublishSubscribe_every_subscriber_receives(t *testing.T) {
	pubSub := newPubSub(t, gochannel.Config{OutputChannelBuffer: 10})
	topicName := "test_topic_" + postsapi.NewUUID()

	first, err := pubSub.Subscribe(context.Background(), topicName)
	require.NoError(t, err)
	second, err := pubSub.Subscribe(context.Background(), topicName)
	require.NoError(t, err)

	sent := publishSimpleMessages(t, 5, pubSub, topicName)

	for _, msgs := range []<-chan *message.Message{first, second} {
		received, all := bulkRead(msgs, len(sent), time.Second)
		assert.True(t, all)
		assertSameMessages(t, sent, received)
	}
}

func TestPublishSubscribe_persistent_replays_history(t *testing.T) {
	pubSub := newPubSub(t, gochannel.Config{Persistent: true})
	topicName := "test_topic_" + postsapi.NewUUID()

	before := publishSimpleMessages(t, 10, pubSub, topicName)

	msgs, err := pubSub.Subscribe(context.Background(), topicName)
	require.NoError(t, err)

	afterCh := make(chan []*message.Message, 1)
	go func() {
		afterCh <- publishSimpleMessages(t, 10, pubSub, topicName)
	}()

	received, all := bulkRead(msgs, 20, time.Second)
	assert.True(t, all)

	assertSameMessages(t, append(before, <-afterCh...), received)
}

func TestPublish_without_subscribers(t *testing.T) {
	pubSub := newPubSub(t, gochannel.Config{})

	err := pubSub.Publish("nobody_listens", message.NewMessage("1", nil))
	assert.NoError(t, err)
}

func TestPublish_does_not_share_messages(t *testing.T) {
	pubSub := newPubSub(t, gochannel.Config{OutputChannelBuffer: 1})
	topicName := "test_topic_" + postsapi.NewUUID()

	msgs, err := pubSub.Subscribe(context.Background(), topicName)
	require.NoError(t, err)

	sent := message.NewMessage("1", []byte("payload"))
	require.NoError(t, pubSub.Publish(topicName, sent))

	received := <-msgs
	received.Metadata.Set("changed", "yes")

	assert.Empty(t, sent.Metadata.Get("changed"))
	assert.Equal(t, topicName, message.PublishTopicFromCtx(received.Context()))
}

func TestSubscribe_context_propagated(t *testing.T) {
	pubSub := newPubSub(t, gochannel.Config{OutputChannelBuffer: 1})
	topicName := "test_topic_" + postsapi.NewUUID()

	ctx := message.WithCorrelationID(context.Background(), "subscriber-ctx")

	msgs, err := pubSub.Subscribe(ctx, topicName)
	require.NoError(t, err)
	require.NoError(t, pubSub.Publish(topicName, message.NewMessage("1", nil)))

	received := <-msgs
	assert.Equal(t, "subscriber-ctx", message.CorrelationIDFromCtx(received.Context()))
}

func TestSubscribe_context_cancel_closes_channel(t *testing.T) {
	pubSub := newPubSub(t, gochannel.Config{})
	topicName := "test_topic_" + postsapi.NewUUID()

	ctx, cancel := context.WithCancel(context.Background())

	msgs, err := pubSub.Subscribe(ctx, topicName)
	require.NoError(t, err)

	cancel()

	select {
	case _, open := <-msgs:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("subscriber channel not closed after context cancel")
	}

	// nobody is subscribed anymore, so this must not block
	assert.NoError(t, pubSub.Publish(topicName, message.NewMessage("1", nil)))
}

func TestClose(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, nil)
	topicName := "test_topic_" + postsapi.NewUUID()

	msgs, err := pubSub.Subscribe(context.Background(), topicName)
	require.NoError(t, err)

	require.NoError(t, pubSub.Close())
	require.NoError(t, pubSub.Close(), "Close must be idempotent")

	_, open := <-msgs
	assert.False(t, open)

	err = pubSub.Publish(topicName, message.NewMessage("1", nil))
	assert.ErrorIs(t, err, gochannel.ErrClosed)

	_, err = pubSub.Subscribe(context.Background(), topicName)
	assert.ErrorIs(t, err, gochannel.ErrClosed)
}

func TestClose_unblocks_publisher(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, nil)
	topicName := "test_topic_" + postsapi.NewUUID()

	_, err := pubSub.Subscribe(context.Background(), topicName)
	require.NoError(t, err)

	published := make(chan error, 1)
	go func() {
		// nobody reads the unbuffered channel, so this blocks until Close
		published <- pubSub.Publish(topicName, message.NewMessage("1", nil))
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, pubSub.Close())

	select {
	case err := <-published:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("publish was not unblocked by Close")
	}
}
