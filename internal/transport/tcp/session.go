package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/relaychat/relaychat-server/internal/core"
)

const writeTimeout = 10 * time.Second

var errFileTooLarge = errors.New("declared file size exceeds limit")

// session implements core.Session for one TCP connection. It is owned by
// its handler goroutine; the registry and dispatcher hold non-owning
// references and may write to it concurrently, so writes are serialized by
// a mutex.
type session struct {
	id     string
	conn   net.Conn
	reader *bufio.Reader

	// username is assigned exactly once, during the handshake, before the
	// session is visible to any other goroutine.
	username string

	writeMu sync.Mutex
}

func newSession(conn net.Conn) *session {
	return &session{
		id:     uuid.NewString(),
		conn:   conn,
		reader: bufio.NewReader(conn),
	}
}

func (s *session) ID() string         { return s.id }
func (s *session) Username() string   { return s.username }
func (s *session) RemoteAddr() string { return s.conn.RemoteAddr().String() }

func (s *session) WriteLine(line string) error {
	return s.WriteBytes(append([]byte(line), '\n'))
}

func (s *session) WriteBytes(b []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	_, err := s.conn.Write(b)
	return err
}

func (s *session) Close() error {
	return s.conn.Close()
}

// writeString sends text without a trailing newline, e.g. the username
// prompt and the file ready marker.
func (s *session) writeString(text string) error {
	return s.WriteBytes([]byte(text))
}

// readLine blocks for one newline-terminated line. A final line without a
// newline is still returned before EOF surfaces on the next call.
func (s *session) readLine() (string, error) {
	line, err := s.reader.ReadString('\n')
	if err == nil {
		return strings.TrimRight(line, "\r\n"), nil
	}
	if errors.Is(err, io.EOF) && line != "" {
		return strings.TrimRight(line, "\r\n"), nil
	}
	return "", err
}

// receiveFile performs the payload leg of a file transfer: the declared
// size was already parsed from the command line, the ready marker tells
// the client to start sending, and exactly size bytes are consumed.
func (s *session) receiveFile(cmd core.Command, maxBytes int64) ([]byte, error) {
	if cmd.Size > maxBytes {
		_ = s.WriteLine("Server: file exceeds size limit.")
		return nil, errFileTooLarge
	}
	if err := s.writeString("READYFILE"); err != nil {
		return nil, err
	}
	payload := make([]byte, cmd.Size)
	if _, err := io.ReadFull(s.reader, payload); err != nil {
		return nil, fmt.Errorf("read file payload: %w", err)
	}
	return payload, nil
}

// handle owns the full session lifecycle: handshake, command loop, teardown.
func (srv *Server) handle(ctx context.Context, conn net.Conn) {
	s := newSession(conn)
	defer func() {
		_ = s.Close()
	}()

	// Handshake: prompt until a username is accepted. Whitespace-only input
	// gets an anonymous placeholder instead of a rejection.
	for {
		if err := s.writeString("Enter username: "); err != nil {
			return
		}
		line, err := s.readLine()
		if err != nil {
			return
		}
		name := strings.TrimSpace(line)
		if name == "" {
			name = "guest-" + s.id[:8]
		}
		s.username = name

		if err := srv.dispatcher.Join(ctx, s); err != nil {
			if errors.Is(err, core.ErrUsernameTaken) {
				_ = s.WriteLine("Server: username already taken.")
				s.username = ""
				continue
			}
			srv.logger.Error().Err(err).Str("username", name).Msg("handshake failed")
			return
		}
		break
	}

	// Teardown must finish even when the process context is already
	// canceled, so the store calls get a non-cancelable context.
	defer srv.dispatcher.Leave(context.WithoutCancel(ctx), s)

	for {
		line, err := s.readLine()
		if err != nil {
			return
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		cmd, perr := core.Parse(line)
		if perr != nil {
			if errors.Is(perr, core.ErrInvalidQuery) {
				_ = s.WriteLine("Server: invalid query command.")
			} else {
				_ = s.WriteLine("Server: invalid command.")
			}
			continue
		}
		if cmd.Kind == core.CommandExit {
			return
		}

		if err := srv.dispatcher.RecordInbound(ctx, s.username, strings.TrimSpace(line)); err != nil {
			srv.logger.Error().Err(err).Str("username", s.username).Msg("storage unreachable, closing session")
			return
		}

		var payload []byte
		if cmd.Kind == core.CommandFileTransfer {
			payload, err = s.receiveFile(cmd, srv.maxFileBytes)
			if errors.Is(err, errFileTooLarge) {
				continue
			}
			if err != nil {
				srv.logger.Warn().Err(err).Str("username", s.username).Msg("file transfer aborted")
				return
			}
		}

		if err := srv.dispatcher.Dispatch(ctx, s, cmd, payload); err != nil {
			srv.logger.Error().Err(err).Str("username", s.username).Msg("storage unreachable, closing session")
			return
		}
	}
}
