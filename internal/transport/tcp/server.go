package tcp

import (
	"context"
	"errors"
	"net"

	"github.com/rs/zerolog"

	"github.com/relaychat/relaychat-server/internal/core"
)

// Server accepts chat connections and spawns one handler goroutine per
// connection. The accept loop touches no shared state beyond handing the
// connection off.
type Server struct {
	addr         string
	registry     *core.Registry
	dispatcher   *core.Dispatcher
	maxFileBytes int64
	logger       *zerolog.Logger

	listener net.Listener
}

// NewServer constructs the TCP chat server.
func NewServer(addr string, registry *core.Registry, dispatcher *core.Dispatcher, maxFileBytes int64, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Server{
		addr:         addr,
		registry:     registry,
		dispatcher:   dispatcher,
		maxFileBytes: maxFileBytes,
		logger:       logger,
	}
}

// Listen binds the chat listener.
func (srv *Server) Listen() error {
	ln, err := net.Listen("tcp", srv.addr)
	if err != nil {
		return err
	}
	srv.listener = ln
	srv.logger.Info().Str("addr", ln.Addr().String()).Msg("chat server listening")
	return nil
}

// ListenAndServe binds the listener and blocks accepting connections until
// it is closed by Shutdown.
func (srv *Server) ListenAndServe(ctx context.Context) error {
	if err := srv.Listen(); err != nil {
		return err
	}
	return srv.Serve(ctx)
}

// Serve accepts connections on the bound listener.
func (srv *Server) Serve(ctx context.Context) error {
	ln := srv.listener
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		srv.logger.Debug().Str("addr", conn.RemoteAddr().String()).Msg("client connected")
		go srv.handle(ctx, conn)
	}
}

// Addr returns the bound listener address, useful when listening on :0.
func (srv *Server) Addr() string {
	if srv.listener == nil {
		return srv.addr
	}
	return srv.listener.Addr().String()
}

// Shutdown sends a best-effort closing notice to every session and closes
// the listener. Sessions are not forcibly joined; delivery of the notice is
// not guaranteed.
func (srv *Server) Shutdown() {
	srv.registry.Broadcast("Server: Chat closed.", nil)
	if srv.listener != nil {
		_ = srv.listener.Close()
	}
}
