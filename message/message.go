package message

import (
	"context"
)

// Payload is the message's payload.
type Payload []byte

// Message is the basic transfer unit between the parts of the service.
// Post events travel as Messages from the repository to their subscribers.
type Message struct {
	// UUID is a unique identifier of the message.
	UUID string

	// Metadata contains the message metadata.
	//
	// Can be used to store data which doesn't require unmarshaling the entire payload.
	// The correlation id of the HTTP request that caused the message is stored here.
	Metadata Metadata

	// Payload is the message's payload.
	Payload Payload

	ctx context.Context
}

// NewMessage creates a new Message with given uuid and payload.
func NewMessage(uuid string, payload Payload) *Message {
	return &Message{
		UUID:     uuid,
		Metadata: make(map[string]string),
		Payload:  payload,
	}
}

// Equals compares that two messages are equal. Context is not compared.
func (m *Message) Equals(toCompare *Message) bool {
	if m.UUID != toCompare.UUID {
		return false
	}
	if len(m.Metadata) != len(toCompare.Metadata) {
		return false
	}
	for key, value := range m.Metadata {
		if value != toCompare.Metadata[key] {
			return false
		}
	}

	return string(m.Payload) == string(toCompare.Payload)
}

// Context returns the message's context. To change the context, use SetContext.
//
// The returned context is always non-nil; it defaults to the background context.
func (m *Message) Context() context.Context {
	if m.ctx != nil {
		return m.ctx
	}
	return context.Background()
}

// SetContext sets provided context to the message.
func (m *Message) SetContext(ctx context.Context) {
	m.ctx = ctx
}

// Copy copies the message, including metadata and payload.
// The context is not propagated to the copy.
func (m *Message) Copy() *Message {
	msg := NewMessage(m.UUID, append(Payload(nil), m.Payload...))
	for k, v := range m.Metadata {
		msg.Metadata.Set(k, v)
	}

	return msg
}
