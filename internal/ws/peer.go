package ws

// Peer is the writable side of a live connection. *Conn satisfies it;
// tests substitute recorders.
type Peer interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}
