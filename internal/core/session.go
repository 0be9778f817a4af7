package core

// Session is one client's live connection as seen by the core layer.
// The transport owns the connection lifecycle; the registry and dispatcher
// hold non-owning references only.
type Session interface {
	// ID is the stable per-connection identifier.
	ID() string
	// Username is the name registered at handshake.
	Username() string
	// RemoteAddr is the peer address, host:port.
	RemoteAddr() string
	// WriteLine sends one text line, appending the newline.
	WriteLine(line string) error
	// WriteBytes sends raw bytes as a single atomic write.
	WriteBytes(b []byte) error
	// Close releases the transport.
	Close() error
}
