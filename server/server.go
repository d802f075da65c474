// Package server implements the accept loop for both transports (spec.md
// §6 "Transports"): it owns the TCP and local-socket listeners, spawns a
// Session per accepted connection, and wires a Router as each session's
// server-side request handler.
package server

import (
	"context"
	"net"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/bithorde/bithorded/internal/nlog"
	"github.com/bithorde/bithorded/session"
	"github.com/bithorde/bithorded/transport"
)

// Config is what a Server needs to bind both listeners and spin up
// sessions (§6 "CLI surface of the server").
type Config struct {
	// Name is this node's name. Server itself does not read it; each
	// session's handshake name is SessionConfig.OwnName.
	Name string
	// TCPAddr is a "host:port" address, or empty to skip the TCP listener.
	TCPAddr string
	// LocalSockPath is a filesystem path for the local stream-socket
	// listener, or empty to skip it (§6 default `/tmp/bithorde`).
	LocalSockPath string

	SessionConfig session.Config
}

// Server accepts connections on up to two listeners and hands each off to
// a freshly constructed Session.
type Server struct {
	cfg Config

	tcpLn   net.Listener
	localLn net.Listener
}

// New binds both configured listeners. A listener bind failure is fatal
// per §6 ("exits non-zero on bind failure of either listener") — the
// caller is expected to log and os.Exit on a non-nil error.
func New(cfg Config) (*Server, error) {
	s := &Server{cfg: cfg}

	if cfg.TCPAddr != "" {
		ln, err := net.Listen("tcp", cfg.TCPAddr)
		if err != nil {
			return nil, errors.Wrapf(err, "server: listen tcp %s", cfg.TCPAddr)
		}
		s.tcpLn = ln
	}

	if cfg.LocalSockPath != "" {
		os.Remove(cfg.LocalSockPath) // stale socket from a prior, uncleanly-stopped run
		ln, err := net.Listen("unix", cfg.LocalSockPath)
		if err != nil {
			return nil, errors.Wrapf(err, "server: listen unix %s", cfg.LocalSockPath)
		}
		s.localLn = ln
	}

	return s, nil
}

// Serve runs both accept loops until ctx is cancelled or one of them
// returns a fatal error, then closes both listeners (§6 "Server ...
// accepts TCP and local-socket connections"). Each accepted connection
// gets its own Session, constructed from cfg.SessionConfig and started
// immediately — wiring Router as the request handler is the caller's job,
// done once by setting SessionConfig.Router before calling New.
func (s *Server) Serve(ctx context.Context) error {
	onAccept := func(conn net.Conn) {
		sess := session.New(transport.New(conn), s.cfg.SessionConfig)
		sess.Start()
	}

	g, ctx := errgroup.WithContext(ctx)

	if s.tcpLn != nil {
		g.Go(func() error { return acceptLoop(ctx, s.tcpLn, onAccept) })
	}
	if s.localLn != nil {
		g.Go(func() error { return acceptLoop(ctx, s.localLn, onAccept) })
	}

	g.Go(func() error {
		<-ctx.Done()
		s.Close()
		return ctx.Err()
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close shuts down both listeners; accepted connections already handed
// off are unaffected.
func (s *Server) Close() {
	if s.tcpLn != nil {
		s.tcpLn.Close()
	}
	if s.localLn != nil {
		s.localLn.Close()
	}
}

func acceptLoop(ctx context.Context, ln net.Listener, onAccept func(net.Conn)) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			nlog.Warningf("server: accept on %s failed: %v", ln.Addr(), err)
			return errors.Wrap(err, "server: accept")
		}
		go onAccept(conn)
	}
}
