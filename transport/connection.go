// Package transport owns the duplex byte stream for one peer: it drives
// the wire codec, maintains a bounded outbound queue with a priority lane,
// and emits message/writable/disconnected signals to a single subscriber
// (spec.md §4.2, §9 "Signal/slot event wiring").
package transport

import (
	"bufio"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/bithorde/bithorded/internal/nlog"
	"github.com/bithorde/bithorded/wire"
)

// defaultQueueCap is the soft cap on the outbound queue (§4.2
// "Backpressure"): Send returns false once it is reached, rather than
// blocking or dropping.
const defaultQueueCap = 256

const readBufSize = 32 * 1024

type outboundMsg struct {
	msgType wire.MessageType
	msg     wire.Message
}

// Connection is a duplex message transport over a net.Conn (TCP or a
// local stream socket; §6). The zero value is not usable — construct via
// New.
type Connection struct {
	conn net.Conn

	queueCap int
	prioCh   chan outboundMsg
	normCh   chan outboundMsg

	closeCh   chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	wasFull bool

	pingLimiter *rate.Limiter

	// Single-subscriber signal callbacks (§9): never reassigned once the
	// connection is running.
	OnMessage      func(wire.MessageType, wire.Message)
	OnWritable     func()
	OnDisconnected func()
}

// New wraps conn. Callers must set OnMessage/OnWritable/OnDisconnected
// before calling Start.
func New(conn net.Conn) *Connection {
	return &Connection{
		conn:        conn,
		queueCap:    defaultQueueCap,
		prioCh:      make(chan outboundMsg, defaultQueueCap),
		normCh:      make(chan outboundMsg, defaultQueueCap),
		closeCh:     make(chan struct{}),
		pingLimiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Start launches the reader and writer goroutines. It must be called
// exactly once, after the signal callbacks are assigned.
func (c *Connection) Start() {
	go c.readLoop()
	go c.writeLoop()
	if c.OnWritable != nil {
		c.OnWritable()
	}
}

// Send enqueues msg for transmission. It returns false without blocking if
// the outbound queue (the prioritized lane if prioritized is set,
// otherwise the bulk lane) is at its soft cap; the caller is expected to
// retry after OnWritable fires (§4.2).
func (c *Connection) Send(msgType wire.MessageType, msg wire.Message, prioritized bool) bool {
	ch := c.normCh
	if prioritized {
		ch = c.prioCh
	}
	select {
	case <-c.closeCh:
		return false
	default:
	}
	select {
	case ch <- outboundMsg{msgType, msg}:
		return true
	default:
		c.mu.Lock()
		c.wasFull = true
		c.mu.Unlock()
		return false
	}
}

// SendPing sends an unsolicited keepalive Ping, rate-limited to at most
// one per second so a caller driving this in a loop cannot flood the
// connection's priority lane (§5 "Connection-level keepalive is via Ping
// ... no minimum cadence is mandated" — but nothing stops a maximum
// either).
func (c *Connection) SendPing() bool {
	if !c.pingLimiter.Allow() {
		return false
	}
	return c.Send(wire.TypePing, &wire.Ping{}, true)
}

// Close is idempotent: it stops further writes, drops the inbound buffer,
// and fires OnDisconnected exactly once (§4.2).
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.closeCh)
		c.conn.Close()
		if c.OnDisconnected != nil {
			c.OnDisconnected()
		}
	})
}

func (c *Connection) readLoop() {
	defer c.Close()

	var dec wire.Decoder
	buf := make([]byte, readBufSize)
	r := bufio.NewReaderSize(c.conn, readBufSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			recs, decErr := dec.Feed(buf[:n])
			for _, rec := range recs {
				if c.OnMessage != nil {
					c.OnMessage(rec.Type, rec.Msg)
				}
			}
			if decErr != nil {
				nlog.Warningf("transport: framing error, closing: %v", decErr)
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				nlog.Warningf("transport: read error, closing: %v", err)
			}
			return
		}
	}
}

func (c *Connection) writeLoop() {
	w := bufio.NewWriterSize(c.conn, readBufSize)
	var encBuf []byte
	flushAndCheckWritable := func() bool {
		if err := w.Flush(); err != nil {
			return false
		}
		c.mu.Lock()
		wasFull := c.wasFull
		c.wasFull = false
		c.mu.Unlock()
		if wasFull && c.OnWritable != nil {
			c.OnWritable()
		}
		return true
	}

	for {
		var out outboundMsg
		var ok bool
		select {
		case out, ok = <-c.prioCh:
		default:
			select {
			case out, ok = <-c.prioCh:
			case out, ok = <-c.normCh:
			case <-c.closeCh:
				return
			}
		}
		if !ok {
			return
		}
		encBuf = wire.Encode(encBuf[:0], out.msg)
		if _, err := w.Write(encBuf); err != nil {
			nlog.Warningf("transport: write error, closing: %v", err)
			return
		}
		// Drain whatever is immediately available before flushing, so a
		// burst of sends doesn't do one syscall per message, but never
		// hold a flush past the point the queue goes empty.
		drained := true
		for drained {
			select {
			case out, ok = <-c.prioCh:
			default:
				select {
				case out, ok = <-c.normCh:
				default:
					drained = false
					continue
				}
			}
			if !ok {
				return
			}
			encBuf = wire.Encode(encBuf[:0], out.msg)
			if _, err := w.Write(encBuf); err != nil {
				nlog.Warningf("transport: write error, closing: %v", err)
				return
			}
		}
		if !flushAndCheckWritable() {
			return
		}
	}
}
