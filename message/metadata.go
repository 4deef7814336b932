package message

// Metadata is sent with every message to provide extra context without unmarshaling the message payload.
type Metadata map[string]string

// Get returns the metadata value for the key, or an empty string when the key is missing.
func (m Metadata) Get(key string) string {
	return m[key]
}

// Set sets the metadata key to value.
func (m Metadata) Set(key, value string) {
	m[key] = value
}
