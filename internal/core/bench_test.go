package core

import (
	"fmt"
	"testing"
)

// discardSession accepts writes without retaining them so benchmarks
// measure broadcast cost, not test bookkeeping.
type discardSession struct {
	id   string
	name string
}

func (d *discardSession) ID() string              { return d.id }
func (d *discardSession) Username() string        { return d.name }
func (d *discardSession) RemoteAddr() string      { return "127.0.0.1:9" }
func (d *discardSession) WriteLine(string) error  { return nil }
func (d *discardSession) WriteBytes([]byte) error { return nil }
func (d *discardSession) Close() error            { return nil }

func benchmarkBroadcast(b *testing.B, peers int) {
	r := NewRegistry(nil)

	sender := &discardSession{id: "s", name: "sender"}
	if err := r.Add(sender); err != nil {
		b.Fatalf("add sender: %v", err)
	}
	for i := 0; i < peers; i++ {
		s := &discardSession{id: fmt.Sprintf("p%d", i), name: fmt.Sprintf("peer-%d", i)}
		if err := r.Add(s); err != nil {
			b.Fatalf("add peer %d: %v", i, err)
		}
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		r.Broadcast("sender: payload", sender)
	}
}

func BenchmarkBroadcast_10(b *testing.B)  { benchmarkBroadcast(b, 10) }
func BenchmarkBroadcast_100(b *testing.B) { benchmarkBroadcast(b, 100) }
func BenchmarkBroadcast_500(b *testing.B) { benchmarkBroadcast(b, 500) }
