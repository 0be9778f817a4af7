package store

import (
	"context"
	"time"
)

// Connection is the persisted record of a user and their last connection.
type Connection struct {
	ID             int64
	Username       string
	IPAddress      string
	Port           int
	ConnectedAt    time.Time
	DisconnectedAt *time.Time
	IsOnline       bool
}

// Message is a persisted chat message. ReceiverIDs keeps the set of users
// that were online at receipt, stored as an opaque association.
type Message struct {
	ID          int64
	SenderID    int64
	Content     string
	Timestamp   time.Time
	ReceiverIDs []int64
}

// Row is one rendered result row of a named query.
type Row []string

// ConnectionStore handles user connection persistence.
type ConnectionStore interface {
	// RecordConnect upserts the user, marks them online, updates the address
	// and clears any prior disconnect time. Returns the user id.
	RecordConnect(ctx context.Context, username, addr string) (int64, error)

	// RecordDisconnect marks the user offline and stamps the disconnect time.
	RecordDisconnect(ctx context.Context, username string) error
}

// MessageStore handles message persistence.
type MessageStore interface {
	// RecordMessage stores a message from sender to the given recipient
	// usernames. Unknown recipients are silently dropped; an unknown sender
	// makes the whole call a no-op.
	RecordMessage(ctx context.Context, sender, content string, recipients []string) error
}

// QueryStore executes entries of the fixed read-only query catalog.
type QueryStore interface {
	// RunNamedQuery runs catalog entry id with the given args. Args length
	// and meaning are per-id; see CatalogEntry. Never mutates stored state.
	RunNamedQuery(ctx context.Context, id int, args []string) ([]Row, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	ConnectionStore
	MessageStore
	QueryStore

	// Close closes the underlying database connection.
	Close() error
}
