package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const timeLayout = "2006-01-02 15:04:05"

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS connections (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			username           TEXT UNIQUE NOT NULL,
			ip_address         TEXT,
			port               INTEGER,
			connection_time    TEXT,
			disconnection_time TEXT,
			is_online          BOOLEAN
		);
		CREATE TABLE IF NOT EXISTS messages (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			sender_id    INTEGER NOT NULL,
			content      TEXT NOT NULL,
			timestamp    TEXT NOT NULL,
			receiver_ids TEXT NOT NULL,
			FOREIGN KEY(sender_id) REFERENCES connections(id)
		);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== ConnectionStore implementation ====

// RecordConnect upserts a user connection record and marks it online.
func (s *SQLiteStore) RecordConnect(ctx context.Context, username, addr string) (int64, error) {
	ip, port := splitAddr(addr)
	now := time.Now().Format(timeLayout)

	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM connections WHERE username = ?`, username).Scan(&id)
	switch {
	case err == nil:
		query := `
			UPDATE connections
			SET ip_address = ?, port = ?, connection_time = ?, is_online = 1, disconnection_time = NULL
			WHERE id = ?
		`
		if _, err := s.db.ExecContext(ctx, query, ip, port, now, id); err != nil {
			return 0, fmt.Errorf("update connection: %w", err)
		}
		return id, nil
	case errors.Is(err, sql.ErrNoRows):
		query := `
			INSERT INTO connections (username, ip_address, port, connection_time, is_online)
			VALUES (?, ?, ?, ?, 1)
		`
		result, err := s.db.ExecContext(ctx, query, username, ip, port, now)
		if err != nil {
			return 0, fmt.Errorf("insert connection: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("get last insert id: %w", err)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("query connection: %w", err)
	}
}

// RecordDisconnect marks a user offline and stores the disconnection time.
func (s *SQLiteStore) RecordDisconnect(ctx context.Context, username string) error {
	now := time.Now().Format(timeLayout)
	query := `UPDATE connections SET is_online = 0, disconnection_time = ? WHERE username = ?`
	if _, err := s.db.ExecContext(ctx, query, now, username); err != nil {
		return fmt.Errorf("mark offline: %w", err)
	}
	return nil
}

// ==== MessageStore implementation ====

// RecordMessage stores a message with its sender and the set of recipients
// that were online at receipt. Unknown recipients are dropped; an unknown
// sender makes the call a no-op.
func (s *SQLiteStore) RecordMessage(ctx context.Context, sender, content string, recipients []string) error {
	var senderID int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM connections WHERE username = ?`, sender).Scan(&senderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve sender: %w", err)
	}

	receiverIDs := make([]string, 0, len(recipients))
	for _, name := range recipients {
		var id int64
		err := s.db.QueryRowContext(ctx, `SELECT id FROM connections WHERE username = ?`, name).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("resolve recipient %q: %w", name, err)
		}
		receiverIDs = append(receiverIDs, strconv.FormatInt(id, 10))
	}

	query := `
		INSERT INTO messages (sender_id, content, timestamp, receiver_ids)
		VALUES (?, ?, ?, ?)
	`
	now := time.Now().Format(timeLayout)
	if _, err := s.db.ExecContext(ctx, query, senderID, content, now, strings.Join(receiverIDs, ",")); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func splitAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 0
	}
	return host, port
}
