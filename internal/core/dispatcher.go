package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/relaychat/relaychat-server/internal/store"
)

// systemSender names the server itself in announcements and the message log.
const systemSender = "Server"

// Dispatcher maps parsed commands to routing and persistence actions.
// Protocol errors are reported back to the offending session as one-line
// notices; only storage failures propagate to the caller.
type Dispatcher struct {
	registry *Registry
	store    store.Store
	inboxDir string
	logger   *zerolog.Logger
}

// NewDispatcher constructs a dispatcher. inboxDir is where audit copies of
// relayed files are written.
func NewDispatcher(registry *Registry, st store.Store, inboxDir string, logger *zerolog.Logger) *Dispatcher {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Dispatcher{
		registry: registry,
		store:    st,
		inboxDir: inboxDir,
		logger:   logger,
	}
}

// Join registers the session, persists the connect, and announces the
// arrival to everyone including the newcomer.
func (d *Dispatcher) Join(ctx context.Context, s Session) error {
	if err := d.registry.Add(s); err != nil {
		return err
	}
	if _, err := d.store.RecordConnect(ctx, s.Username(), s.RemoteAddr()); err != nil {
		d.registry.Remove(s)
		return fmt.Errorf("record connect: %w", err)
	}

	online := d.registry.SnapshotUsernames()
	if err := d.store.RecordMessage(ctx, systemSender, s.Username()+" joined", online); err != nil {
		d.logger.Warn().Err(err).Msg("failed to persist join message")
	}
	d.registry.Broadcast("Server: "+s.Username()+" joined!", nil)

	d.logger.Info().Str("username", s.Username()).Str("addr", s.RemoteAddr()).Msg("user joined")
	return nil
}

// Leave deregisters the session, persists the disconnect, and announces the
// departure to the remaining sessions.
func (d *Dispatcher) Leave(ctx context.Context, s Session) {
	removed := d.registry.Remove(s)
	if err := d.store.RecordDisconnect(ctx, s.Username()); err != nil {
		d.logger.Warn().Err(err).Str("username", s.Username()).Msg("failed to record disconnect")
	}
	d.registry.Broadcast("Server: "+s.Username()+" left.", s)

	online := d.registry.SnapshotUsernames()
	if err := d.store.RecordMessage(ctx, systemSender, s.Username()+" left", online); err != nil {
		d.logger.Warn().Err(err).Msg("failed to persist leave message")
	}

	d.logger.Info().Str("username", s.Username()).Bool("evicted", !removed).Msg("user left")
}

// RecordInbound logs one received line to the message store with the
// current online snapshot, sender included, as recipients.
func (d *Dispatcher) RecordInbound(ctx context.Context, sender, text string) error {
	online := d.registry.SnapshotUsernames()
	if err := d.store.RecordMessage(ctx, sender, text, online); err != nil {
		return fmt.Errorf("record message: %w", err)
	}
	return nil
}

// Dispatch performs the routing action for one parsed command. payload is
// only set for file transfers. A non-nil error means storage is unreachable
// and the session should terminate.
func (d *Dispatcher) Dispatch(ctx context.Context, s Session, cmd Command, payload []byte) error {
	label := cmd.Kind.String()
	start := time.Now()
	defer func() {
		DispatchDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	}()
	CommandsTotal.WithLabelValues(label).Inc()

	switch cmd.Kind {
	case CommandChat:
		d.registry.Broadcast(s.Username()+": "+cmd.Text, s)
		return nil
	case CommandPrivateMessage:
		d.privateMessage(s, cmd)
		return nil
	case CommandFileTransfer:
		d.fileTransfer(s, cmd, payload)
		return nil
	case CommandQuery:
		return d.query(ctx, s, cmd)
	case CommandExit:
		// Teardown runs through Leave.
		return nil
	default:
		_ = s.WriteLine("Server: invalid command.")
		return nil
	}
}

func (d *Dispatcher) privateMessage(s Session, cmd Command) {
	target, ok := d.registry.FindByUsername(cmd.Target)
	if !ok {
		_ = s.WriteLine("Server: User '" + cmd.Target + "' not found.")
		return
	}
	if err := target.WriteLine("[PM] " + s.Username() + ": " + cmd.Text); err != nil {
		d.evict(target)
	}
}

func (d *Dispatcher) fileTransfer(s Session, cmd Command, payload []byte) {
	if err := d.saveAuditCopy(cmd.Filename, payload); err != nil {
		d.logger.Error().Err(err).Str("filename", cmd.Filename).Msg("failed to save file audit copy")
	}

	target, ok := d.registry.FindByUsername(cmd.Target)
	if !ok {
		_ = s.WriteLine("Server: User '" + cmd.Target + "' not found.")
		return
	}

	header := "/file " + s.Username() + " " + cmd.Filename + "\n"
	frame := make([]byte, 0, len(header)+len(payload))
	frame = append(frame, header...)
	frame = append(frame, payload...)
	if err := target.WriteBytes(frame); err != nil {
		d.evict(target)
		return
	}

	d.logger.Info().
		Str("from", s.Username()).
		Str("to", cmd.Target).
		Str("filename", cmd.Filename).
		Int("bytes", len(payload)).
		Msg("forwarded file")
}

func (d *Dispatcher) query(ctx context.Context, s Session, cmd Command) error {
	entry, ok := store.CatalogEntry(cmd.QueryID)
	if !ok {
		_ = s.WriteLine(fmt.Sprintf("Server: unknown query id %d", cmd.QueryID))
		return nil
	}
	if entry.ParamCount > 0 && !cmd.HasArg {
		_ = s.WriteLine("Server: missing username parameter.")
		return nil
	}

	var args []string
	if cmd.HasArg {
		args = []string{cmd.QueryArg}
	}
	rows, err := d.store.RunNamedQuery(ctx, cmd.QueryID, args)
	if err != nil {
		return fmt.Errorf("run named query %d: %w", cmd.QueryID, err)
	}

	if len(rows) == 0 {
		_ = s.WriteLine("<no rows>")
		return nil
	}
	for _, row := range rows {
		_ = s.WriteLine(strings.Join(row, " | "))
	}
	return nil
}

// evict removes a peer whose transport failed mid-delivery and closes it.
func (d *Dispatcher) evict(s Session) {
	d.registry.Remove(s)
	_ = s.Close()
	PeersEvicted.Inc()
	d.logger.Warn().Str("username", s.Username()).Msg("evicted dead peer")
}

func (d *Dispatcher) saveAuditCopy(filename string, payload []byte) error {
	if err := os.MkdirAll(d.inboxDir, 0o755); err != nil {
		return fmt.Errorf("create inbox dir: %w", err)
	}
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) {
		return fmt.Errorf("unusable filename %q", filename)
	}
	path := filepath.Join(d.inboxDir, name)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write audit copy: %w", err)
	}
	d.logger.Debug().Str("path", path).Int("bytes", len(payload)).Msg("saved file audit copy")
	return nil
}
