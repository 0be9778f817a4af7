package sqlite

import (
	"context"
	"reflect"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordConnectUpserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id1, err := s.RecordConnect(ctx, "alice", "127.0.0.1:40001")
	if err != nil {
		t.Fatalf("first connect: %v", err)
	}

	if err := s.RecordDisconnect(ctx, "alice"); err != nil {
		t.Fatalf("disconnect: %v", err)
	}

	// Reconnecting keeps the identity and clears the disconnect stamp.
	id2, err := s.RecordConnect(ctx, "alice", "10.0.0.5:40002")
	if err != nil {
		t.Fatalf("second connect: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("reconnect changed user id: %d != %d", id1, id2)
	}

	var ip string
	var port int
	var online bool
	var disconnected any
	row := s.db.QueryRow(`SELECT ip_address, port, is_online, disconnection_time FROM connections WHERE username = 'alice'`)
	if err := row.Scan(&ip, &port, &online, &disconnected); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if ip != "10.0.0.5" || port != 40002 || !online || disconnected != nil {
		t.Fatalf("unexpected record: ip=%s port=%d online=%v disconnected=%v", ip, port, online, disconnected)
	}
}

func TestRecordMessageResolvesRecipients(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	aliceID, err := s.RecordConnect(ctx, "alice", "127.0.0.1:1")
	if err != nil {
		t.Fatalf("connect alice: %v", err)
	}
	bobID, err := s.RecordConnect(ctx, "bob", "127.0.0.1:2")
	if err != nil {
		t.Fatalf("connect bob: %v", err)
	}

	// Unknown recipients are dropped silently.
	if err := s.RecordMessage(ctx, "alice", "hello", []string{"alice", "bob", "ghost"}); err != nil {
		t.Fatalf("record message: %v", err)
	}

	var senderID int64
	var receiverIDs string
	row := s.db.QueryRow(`SELECT sender_id, receiver_ids FROM messages`)
	if err := row.Scan(&senderID, &receiverIDs); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if senderID != aliceID {
		t.Fatalf("unexpected sender id %d", senderID)
	}
	want := "1,2"
	if aliceID != 1 || bobID != 2 {
		t.Fatalf("unexpected ids alice=%d bob=%d", aliceID, bobID)
	}
	if receiverIDs != want {
		t.Fatalf("receiver ids = %q, want %q", receiverIDs, want)
	}
}

func TestRecordMessageUnknownSenderIsNoop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.RecordMessage(ctx, "ghost", "boo", nil); err != nil {
		t.Fatalf("record message: %v", err)
	}

	rows, err := s.RunNamedQuery(ctx, 5, nil)
	if err != nil {
		t.Fatalf("query 5: %v", err)
	}
	if len(rows) != 1 || rows[0][0] != "0" {
		t.Fatalf("expected zero stored messages, got %v", rows)
	}
}

func TestNamedQueries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.RecordConnect(ctx, "alice", "127.0.0.1:1"); err != nil {
		t.Fatalf("connect alice: %v", err)
	}
	if _, err := s.RecordConnect(ctx, "bob", "127.0.0.1:2"); err != nil {
		t.Fatalf("connect bob: %v", err)
	}
	if err := s.RecordDisconnect(ctx, "bob"); err != nil {
		t.Fatalf("disconnect bob: %v", err)
	}
	if err := s.RecordMessage(ctx, "alice", "hi bob", []string{"bob"}); err != nil {
		t.Fatalf("message 1: %v", err)
	}
	if err := s.RecordMessage(ctx, "bob", "hi alice", []string{"alice"}); err != nil {
		t.Fatalf("message 2: %v", err)
	}

	t.Run("online users", func(t *testing.T) {
		rows, err := s.RunNamedQuery(ctx, 1, nil)
		if err != nil {
			t.Fatalf("query 1: %v", err)
		}
		if len(rows) != 1 || rows[0][0] != "alice" {
			t.Fatalf("unexpected rows: %v", rows)
		}
	})

	t.Run("total users", func(t *testing.T) {
		rows, err := s.RunNamedQuery(ctx, 2, nil)
		if err != nil {
			t.Fatalf("query 2: %v", err)
		}
		if len(rows) != 1 || rows[0][0] != "2" {
			t.Fatalf("unexpected rows: %v", rows)
		}
	})

	t.Run("messages sent by user", func(t *testing.T) {
		rows, err := s.RunNamedQuery(ctx, 3, []string{"alice"})
		if err != nil {
			t.Fatalf("query 3: %v", err)
		}
		if len(rows) != 1 || rows[0][1] != "hi bob" {
			t.Fatalf("unexpected rows: %v", rows)
		}
	})

	t.Run("messages received by user", func(t *testing.T) {
		rows, err := s.RunNamedQuery(ctx, 4, []string{"bob"})
		if err != nil {
			t.Fatalf("query 4: %v", err)
		}
		if len(rows) != 1 || rows[0][2] != "hi bob" {
			t.Fatalf("unexpected rows: %v", rows)
		}
	})

	t.Run("pair counts", func(t *testing.T) {
		rows, err := s.RunNamedQuery(ctx, 6, nil)
		if err != nil {
			t.Fatalf("query 6: %v", err)
		}
		want := [][]string{{"alice", "bob", "1"}, {"bob", "alice", "1"}}
		if len(rows) != len(want) {
			t.Fatalf("unexpected rows: %v", rows)
		}
		for i, w := range want {
			if !reflect.DeepEqual([]string(rows[i]), w) {
				t.Fatalf("row %d = %v, want %v", i, rows[i], w)
			}
		}
	})

	t.Run("sent or received binds parameter twice", func(t *testing.T) {
		rows, err := s.RunNamedQuery(ctx, 7, []string{"alice"})
		if err != nil {
			t.Fatalf("query 7: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("expected both messages, got %v", rows)
		}
	})

	t.Run("read-only idempotence", func(t *testing.T) {
		first, err := s.RunNamedQuery(ctx, 6, nil)
		if err != nil {
			t.Fatalf("first run: %v", err)
		}
		second, err := s.RunNamedQuery(ctx, 6, nil)
		if err != nil {
			t.Fatalf("second run: %v", err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("result sets differ:\n%v\n%v", first, second)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if _, err := s.RunNamedQuery(ctx, 42, nil); err == nil {
			t.Fatal("expected error for unknown id")
		}
	})

	t.Run("missing parameter", func(t *testing.T) {
		if _, err := s.RunNamedQuery(ctx, 3, nil); err == nil {
			t.Fatal("expected error for missing parameter")
		}
	})
}
