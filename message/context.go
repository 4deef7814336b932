package message

import (
	"context"
)

type ctxKey string

const (
	correlationIDKey ctxKey = "correlation_id"
	publishTopicKey  ctxKey = "publish_topic"
)

// CorrelationIDMetadataKey is the metadata key under which the correlation id is stored.
const CorrelationIDMetadataKey = "correlation_id"

func valFromCtx(ctx context.Context, key ctxKey) string {
	val, ok := ctx.Value(key).(string)
	if !ok {
		return ""
	}
	return val
}

// WithCorrelationID stores the correlation id (for HTTP calls: the request id) in ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromCtx returns the correlation id stored in ctx, or an empty string.
func CorrelationIDFromCtx(ctx context.Context) string {
	return valFromCtx(ctx, correlationIDKey)
}

// SetCorrelationID sets the correlation id on msg, unless it already has one.
func SetCorrelationID(id string, msg *Message) {
	if MessageCorrelationID(msg) != "" {
		return
	}

	msg.Metadata.Set(CorrelationIDMetadataKey, id)
}

// MessageCorrelationID returns the correlation id of msg.
func MessageCorrelationID(msg *Message) string {
	return msg.Metadata.Get(CorrelationIDMetadataKey)
}

// WithPublishTopic stores the topic the message was published to in ctx.
func WithPublishTopic(ctx context.Context, topic string) context.Context {
	return context.WithValue(ctx, publishTopicKey, topic)
}

// PublishTopicFromCtx returns the topic the message was published to.
func PublishTopicFromCtx(ctx context.Context) string {
	return valFromCtx(ctx, publishTopicKey)
}
