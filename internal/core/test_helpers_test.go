package core

import (
	"context"
	"errors"
	"sync"

	"github.com/relaychat/relaychat-server/internal/store"
)

// fakeSession records everything written to it and can be flipped into a
// broken state to simulate a dead transport.
type fakeSession struct {
	id   string
	name string

	mu     sync.Mutex
	lines  []string
	frames [][]byte
	broken bool
	closed bool
}

func newFakeSession(id, name string) *fakeSession {
	return &fakeSession{id: id, name: name}
}

func (f *fakeSession) ID() string         { return f.id }
func (f *fakeSession) Username() string   { return f.name }
func (f *fakeSession) RemoteAddr() string { return "127.0.0.1:9" }

func (f *fakeSession) WriteLine(line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broken {
		return errors.New("broken pipe")
	}
	f.lines = append(f.lines, line)
	return nil
}

func (f *fakeSession) WriteBytes(b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broken {
		return errors.New("broken pipe")
	}
	frame := make([]byte, len(b))
	copy(frame, b)
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSession) receivedLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.lines))
	copy(out, f.lines)
	return out
}

func (f *fakeSession) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeSession) breakTransport() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broken = true
}

type recordedMessage struct {
	Sender     string
	Content    string
	Recipients []string
}

// fakeStore is an in-memory store.Store for dispatcher tests.
type fakeStore struct {
	mu          sync.Mutex
	connects    []string
	disconnects []string
	messages    []recordedMessage
	queryRows   map[int][]store.Row
	queryErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{queryRows: make(map[int][]store.Row)}
}

func (f *fakeStore) RecordConnect(_ context.Context, username, _ string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects = append(f.connects, username)
	return int64(len(f.connects)), nil
}

func (f *fakeStore) RecordDisconnect(_ context.Context, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects = append(f.disconnects, username)
	return nil
}

func (f *fakeStore) RecordMessage(_ context.Context, sender, content string, recipients []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := make([]string, len(recipients))
	copy(rec, recipients)
	f.messages = append(f.messages, recordedMessage{Sender: sender, Content: content, Recipients: rec})
	return nil
}

func (f *fakeStore) RunNamedQuery(_ context.Context, id int, _ []string) ([]store.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.queryRows[id], nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) recordedMessages() []recordedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedMessage, len(f.messages))
	copy(out, f.messages)
	return out
}
