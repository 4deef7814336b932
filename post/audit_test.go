package post_test

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devblog/postsapi"
	"github.com/devblog/postsapi/message"
	"github.com/devblog/postsapi/post"
	"github.com/devblog/postsapi/pubsub/gochannel"
)

type syncBuffer struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.String()
}

func TestAuditLog(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 10}, nil)
	defer pubSub.Close()

	out := &syncBuffer{}
	audit := post.NewAuditLog(pubSub, postsapi.NewStdLoggerWithOut(out, false, false))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		runErr <- audit.Run(ctx)
	}()

	select {
	case <-audit.Running():
	case <-time.After(time.Second):
		t.Fatal("audit log not running")
	}

	store := post.NewEventsPublisher(post.NewRepository(nil, post.Seed()...), pubSub, nil)
	reqCtx := message.WithCorrelationID(context.Background(), "req-42")

	created, err := store.Create(reqCtx, post.Post{Author: "X", Title: "Y", Content: "Z"})
	require.NoError(t, err)
	_, err = store.Delete(reqCtx, created.ID)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return strings.Count(out.String(), `msg="Post changed"`) == 2
	}, time.Second, 10*time.Millisecond)

	logs := out.String()
	assert.Contains(t, logs, "topic=post.created")
	assert.Contains(t, logs, "topic=post.deleted")
	assert.Contains(t, logs, "correlation_id=req-42")
	assert.Contains(t, logs, "post_id=3")

	cancel()

	select {
	case err := <-runErr:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("audit log did not stop after context cancel")
	}
}

func TestAuditLog_stops_when_pubsub_closes(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, nil)
	audit := post.NewAuditLog(pubSub, nil)

	runErr := make(chan error, 1)
	go func() {
		runErr <- audit.Run(context.Background())
	}()
	<-audit.Running()

	require.NoError(t, pubSub.Close())

	select {
	case err := <-runErr:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("audit log did not stop after Pub/Sub close")
	}
}

func TestAuditLog_subscribe_error(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, nil)
	require.NoError(t, pubSub.Close())

	err := post.NewAuditLog(pubSub, nil).Run(context.Background())
	assert.ErrorIs(t, err, gochannel.ErrClosed)
}

func TestAuditLog_undecodable_event(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 1}, nil)
	defer pubSub.Close()

	out := &syncBuffer{}
	audit := post.NewAuditLog(pubSub, postsapi.NewStdLoggerWithOut(out, false, false))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = audit.Run(ctx)
	}()
	<-audit.Running()

	require.NoError(t, pubSub.Publish(post.TopicPostUpdated, message.NewMessage("broken", []byte("not json"))))

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), `msg="Cannot decode post event"`)
	}, time.Second, 10*time.Millisecond)
}
