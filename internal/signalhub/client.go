package signalhub

// Client is the interface for one signaling connection.
// It abstracts the underlying transport so the Manager can relay to
// websocket connections and test doubles uniformly.
type Client interface {
	// RemoteAddr identifies the peer in logs.
	RemoteAddr() string

	// Enqueue queues an encoded message for delivery. It never blocks; when
	// the outbound queue is full the oldest queued message is dropped. It
	// returns false if the client is already closed.
	Enqueue(msg []byte) bool

	// Close stops delivery to the client. Calling it more than once is safe.
	Close()
}
