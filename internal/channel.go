package internal

// IsChannelClosed reports whether a signal-only channel, like a "closing" channel, has been closed.
// It never blocks. Such channels must never carry values: IsChannelClosed panics if it receives one.
func IsChannelClosed(channel <-chan struct{}) bool {
	select {
	case _, ok := <-channel:
		if ok {
			panic("signal channel received a value, it should only ever be closed")
		}
		return true
	default:
		return false
	}
}
