package session

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bithorde/bithorded/asset"
	"github.com/bithorde/bithorded/internal/debug"
	"github.com/bithorde/bithorded/internal/metrics"
	"github.com/bithorde/bithorded/internal/nlog"
	"github.com/bithorde/bithorded/transport"
	"github.com/bithorde/bithorded/wire"
)

// State is one of the four session states (§3).
type State int

const (
	StateConnecting State = iota
	StateConnected
	StateAwaitingAuth
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateAwaitingAuth:
		return "AwaitingAuth"
	case StateAuthenticated:
		return "Authenticated"
	default:
		return "Unknown"
	}
}

// ProtoVersion is the only protocol version this core speaks (§4.4).
const ProtoVersion = 2

// Router is the server-side resolver surface a Session needs to answer
// inbound BindRead (§4.5); *router.Router implements it. A nil Router
// means the session never has anything local or upstream to offer and
// every inbound bind misses.
type Router interface {
	FindAsset(ids []wire.Identifier) asset.IAsset
}

// Config controls per-session defaults (§9: "a reimplementation should
// expose them as configurable").
type Config struct {
	OwnName              string
	DefaultBindTimeoutMS uint32 // default 500 (§4.4)
	DefaultReadTimeoutMS uint32 // default 5000
	RefreshMultiplier    uint32 // default 2 (§4.4 "Arm ... for 2*t_ms")
	Router               Router

	// KeepaliveInterval paces this session's own unsolicited Ping sends
	// (§5: "sent by whichever side chooses to; no minimum cadence is
	// mandated"). Default 30s. Set to a negative value to disable.
	KeepaliveInterval time.Duration

	// Metrics is optional; a nil Metrics disables instrumentation
	// without changing any protocol behavior.
	Metrics *metrics.Registry
}

func (s *Session) observeBind(status wire.Status) {
	if s.cfg.Metrics == nil {
		return
	}
	s.cfg.Metrics.Binds.WithLabelValues(status.String()).Inc()
}

// bindingAdded/bindingRemoved track §4.3's binding-table population for the
// BindingsOutstanding gauge; callers hold s.mu when they insert/delete a row
// in s.bindings, so the Inc/Dec here is always paired 1:1 with a map entry.
func (s *Session) bindingAdded() {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.BindingsOutstanding.Inc()
	}
}

func (s *Session) bindingRemoved() {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.BindingsOutstanding.Dec()
	}
}

func (c *Config) setDefaults() {
	if c.DefaultBindTimeoutMS == 0 {
		c.DefaultBindTimeoutMS = 500
	}
	if c.DefaultReadTimeoutMS == 0 {
		c.DefaultReadTimeoutMS = 5000
	}
	if c.RefreshMultiplier == 0 {
		c.RefreshMultiplier = 2
	}
	if c.KeepaliveInterval == 0 {
		c.KeepaliveInterval = 30 * time.Second
	}
}

type serverSlot struct {
	handle uint32
	ids    []wire.Identifier
	ia     asset.IAsset
}

// Session is the per-peer state machine (§4.4): it owns one Connection,
// the asset-binding table, the request-id table, and the two allocators.
// Session is safe for concurrent use; all table mutations happen under mu,
// which plays the role of the single-writer-per-connection invariant from
// §5 (a goroutine-and-mutex design rather than a single-threaded loop).
type Session struct {
	cfg  Config
	conn *transport.Connection

	mu           sync.Mutex
	state        State
	connUp       bool
	peerName     string
	peerProtoVer uint32

	handleAlloc *HandleAllocator
	reqidAlloc  *HandleAllocator
	bindings    map[uint32]*binding
	requests    map[uint32]uint32
	serverSlots map[uint32]*serverSlot

	pendingRebind []*asset.ReadAsset

	keepaliveStop chan struct{}

	// OnAuthenticated/OnDisconnected are the session's two outward
	// signals (§9); assign before Start.
	OnAuthenticated func(peerName string)
	OnDisconnected  func()
}

// New constructs a Session around conn. Call Start to begin the
// handshake.
func New(conn *transport.Connection, cfg Config) *Session {
	cfg.setDefaults()
	s := &Session{
		cfg:         cfg,
		conn:        conn,
		handleAlloc: NewHandleAllocator(1),
		reqidAlloc:  NewHandleAllocator(1),
		bindings:    make(map[uint32]*binding),
		requests:    make(map[uint32]uint32),
		serverSlots: make(map[uint32]*serverSlot),
	}
	return s
}

// Start wires the connection's signals and begins the handshake (§4.4).
func (s *Session) Start() {
	s.mu.Lock()
	s.state = StateConnected
	s.mu.Unlock()
	s.wireConnection(s.conn)
	s.conn.Start()
	s.sendHandshake()
	s.startKeepalive(s.conn)
}

// Reconnect rewires the session onto a freshly-dialed Connection, carrying
// over whatever ReadAsset bindings were live at the previous disconnect
// (§4.4 Handshake, §8 S6): they are rebound once the new handshake
// succeeds, using freshly (re-)allocated handles.
func (s *Session) Reconnect(conn *transport.Connection) {
	s.mu.Lock()
	s.conn = conn
	s.state = StateConnected
	s.mu.Unlock()
	s.wireConnection(conn)
	conn.Start()
	s.sendHandshake()
	s.startKeepalive(conn)
}

// startKeepalive drives Ping sends for conn at cfg.KeepaliveInterval,
// exercising transport.Connection's rate-limited SendPing (§5 keepalive).
// Stopped by handleDisconnected when conn goes down.
func (s *Session) startKeepalive(conn *transport.Connection) {
	if s.cfg.KeepaliveInterval <= 0 {
		return
	}
	stop := make(chan struct{})
	s.mu.Lock()
	s.keepaliveStop = stop
	s.mu.Unlock()

	go func() {
		t := time.NewTicker(s.cfg.KeepaliveInterval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				conn.SendPing()
			case <-stop:
				return
			}
		}
	}()
}

func (s *Session) wireConnection(conn *transport.Connection) {
	conn.OnMessage = s.dispatch
	conn.OnDisconnected = s.handleDisconnected
}

func (s *Session) sendHandshake() {
	hs := &wire.HandShake{ProtoVersion: ProtoVersion, Name: s.cfg.OwnName}
	s.conn.Send(wire.TypeHandShake, hs, false)
	s.mu.Lock()
	s.state = StateAwaitingAuth
	s.connUp = true
	s.mu.Unlock()
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PeerName returns the name learned from the peer's handshake, once
// Authenticated.
func (s *Session) PeerName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerName
}

// Authenticated reports whether the handshake has completed.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateAuthenticated
}

func freshUUID64() uint64 {
	u := uuid.New()
	return binary.BigEndian.Uint64(u[:8])
}

// ---------------------------------------------------------------------
// dispatch: inbound message routing (wire order, per-handle/reqid
// ordering preserved because dispatch runs synchronously off the
// Connection's single reader goroutine; §5 "Ordering guarantees").
// ---------------------------------------------------------------------

func (s *Session) dispatch(t wire.MessageType, msg wire.Message) {
	switch t {
	case wire.TypeHandShake:
		s.handleHandShake(msg.(*wire.HandShake))
	case wire.TypeBindRead:
		s.handleBindRead(msg.(*wire.BindRead))
	case wire.TypeAssetStatus:
		s.handleAssetStatus(msg.(*wire.AssetStatus))
	case wire.TypeReadRequest:
		s.handleReadRequest(msg.(*wire.ReadRequest))
	case wire.TypeReadResponse:
		s.handleReadResponse(msg.(*wire.ReadResponse))
	case wire.TypeBindWrite:
		s.handleBindWrite(msg.(*wire.BindWrite))
	case wire.TypeDataSegment:
		s.handleDataSegment()
	case wire.TypeHandShakeConfirmed:
		s.handleHandShakeConfirmed()
	case wire.TypePing:
		s.handlePing()
	}
}

func (s *Session) handleHandShake(msg *wire.HandShake) {
	s.mu.Lock()
	if s.state != StateAwaitingAuth && s.state != StateConnected {
		s.mu.Unlock()
		nlog.Warningf("session: HandShake in state %s, closing", s.state)
		s.conn.Close()
		return
	}
	if msg.ProtoVersion < 2 {
		s.mu.Unlock()
		nlog.Warningf("session: peer protoVersion %d < 2, closing", msg.ProtoVersion)
		s.conn.Close()
		return
	}
	if len(msg.Challenge) > 0 {
		s.mu.Unlock()
		nlog.Warningf("session: peer requested challenge-response, closing (unsupported)")
		s.conn.Close()
		return
	}

	s.peerName = msg.Name
	s.peerProtoVer = msg.ProtoVersion
	s.state = StateAuthenticated
	rebind := s.pendingRebind
	s.pendingRebind = nil
	onAuth := s.OnAuthenticated
	peerName := s.peerName
	s.mu.Unlock()

	for _, ra := range rebind {
		if err := s.BindRead(ra, s.cfg.DefaultBindTimeoutMS); err != nil {
			nlog.Warningf("session: rebind of %v failed: %v", ra.Identifiers(), err)
		}
	}
	if onAuth != nil {
		onAuth(peerName)
	}
}

func (s *Session) handlePing() {
	s.conn.Send(wire.TypePing, &wire.Ping{}, true)
}

func (s *Session) handleHandShakeConfirmed() {
	nlog.Warningf("session: unsupported HandShakeConfirmed received, closing")
	s.conn.Close()
}

func (s *Session) handleDataSegment() {
	nlog.Warningf("session: unsolicited DataSegment received, closing (stream-upload ingestion is out of scope)")
	s.conn.Close()
}

func (s *Session) handleBindWrite(msg *wire.BindWrite) {
	nlog.Warningf("session: unsupported inbound BindWrite for handle %d", msg.Handle)
	s.conn.Send(wire.TypeAssetStatus, &wire.AssetStatus{Handle: msg.Handle, Status: wire.StatusError}, true)
}

// handleBindRead is the server-side ingress path (§4.4 "Server-side
// ingress"): release-ack when ids is empty, otherwise a Router lookup.
func (s *Session) handleBindRead(msg *wire.BindRead) {
	s.mu.Lock()
	if s.state != StateAuthenticated {
		s.mu.Unlock()
		nlog.Warningf("session: BindRead in state %s, closing", s.state)
		s.conn.Close()
		return
	}

	if len(msg.IDs) == 0 {
		if slot, ok := s.serverSlots[msg.Handle]; ok {
			slot.ia.Close()
			delete(s.serverSlots, msg.Handle)
		}
		s.mu.Unlock()
		s.observeBind(wire.StatusNotFound)
		s.conn.Send(wire.TypeAssetStatus, &wire.AssetStatus{Handle: msg.Handle, Status: wire.StatusNotFound}, true)
		return
	}

	if old, ok := s.serverSlots[msg.Handle]; ok {
		old.ia.Close()
		delete(s.serverSlots, msg.Handle)
	}
	router := s.cfg.Router
	s.mu.Unlock()

	var ia asset.IAsset
	if router != nil {
		ia = router.FindAsset(msg.IDs)
	}
	if ia == nil {
		s.observeBind(wire.StatusNotFound)
		s.conn.Send(wire.TypeAssetStatus, &wire.AssetStatus{Handle: msg.Handle, Status: wire.StatusNotFound}, true)
		return
	}

	s.mu.Lock()
	debug.Assert(s.serverSlots[msg.Handle] == nil, "session: server slot still occupied at bind time")
	s.serverSlots[msg.Handle] = &serverSlot{handle: msg.Handle, ids: msg.IDs, ia: ia}
	s.mu.Unlock()

	if aw, ok := ia.(AwaitableAsset); ok {
		go s.awaitAndReplyBindRead(msg.Handle, aw, msg.Timeout)
		return
	}
	s.replyBindSuccess(msg.Handle, ia)
}

// AwaitableAsset lets a Router-returned asset (the upstream-proxy variant
// in particular, §4.5) defer the AssetStatus reply to an inbound BindRead
// until the forwarded bind resolves or a short internal deadline elapses.
type AwaitableAsset interface {
	asset.IAsset
	Ready() <-chan struct{}
	Status() wire.Status
}

func (s *Session) awaitAndReplyBindRead(handle uint32, aw AwaitableAsset, timeoutMS uint32) {
	timer := time.NewTimer(time.Duration(timeoutMS) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-aw.Ready():
	case <-timer.C:
	}

	s.mu.Lock()
	slot, ok := s.serverSlots[handle]
	stillOurs := ok && slot.ia == aw
	s.mu.Unlock()
	if !stillOurs {
		return // rebound or released while we were waiting
	}

	if aw.Status() != wire.StatusSuccess {
		s.mu.Lock()
		delete(s.serverSlots, handle)
		s.mu.Unlock()
		aw.Close()
		s.observeBind(wire.StatusNotFound)
		s.conn.Send(wire.TypeAssetStatus, &wire.AssetStatus{Handle: handle, Status: wire.StatusNotFound}, true)
		return
	}
	s.replyBindSuccess(handle, aw)
}

func (s *Session) replyBindSuccess(handle uint32, ia asset.IAsset) {
	ids := ia.Identifiers()
	s.observeBind(wire.StatusSuccess)
	s.conn.Send(wire.TypeAssetStatus, &wire.AssetStatus{
		Handle: handle, Status: wire.StatusSuccess,
		HasSize: true, Size: ia.Size(),
		HasIDs: true, IDs: ids,
	}, true)
}

// handleReadRequest is the server-side read path (§4.4).
func (s *Session) handleReadRequest(msg *wire.ReadRequest) {
	s.mu.Lock()
	slot, ok := s.serverSlots[msg.Handle]
	s.mu.Unlock()
	if !ok {
		s.conn.Send(wire.TypeReadResponse, &wire.ReadResponse{ReqID: msg.ReqID, Status: wire.StatusInvalidHandle}, false)
		return
	}
	go s.serveRead(slot, msg)
}

func (s *Session) serveRead(slot *serverSlot, msg *wire.ReadRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(msg.Timeout)*time.Millisecond)
	defer cancel()

	type result struct {
		status wire.Status
		data   []byte
	}
	resCh := make(chan result, 1)
	go func() {
		st, data := slot.ia.ReadAt(ctx, msg.Offset, uint64(msg.Size))
		resCh <- result{st, data}
	}()

	resp := wire.ReadResponse{ReqID: msg.ReqID, HasOffset: true, Offset: msg.Offset}
	select {
	case r := <-resCh:
		resp.Status = r.status
		resp.Content = r.data
		if s.cfg.Metrics != nil && len(r.data) > 0 {
			s.cfg.Metrics.BytesRead.Add(float64(len(r.data)))
		}
	case <-ctx.Done():
		resp.Status = wire.StatusTimeout
	}
	s.conn.Send(wire.TypeReadResponse, &resp, false)
}

func (s *Session) handleAssetStatus(msg *wire.AssetStatus) {
	s.mu.Lock()
	b, ok := s.bindings[msg.Handle]
	if !ok {
		s.mu.Unlock()
		nlog.Warningf("session: AssetStatus %s for unmapped handle %d", msg.Status, msg.Handle)
		return
	}
	b.stopTimer()

	if b.live() {
		ra, ua := b.read, b.upload
		terminal := msg.Status.Terminal()
		s.mu.Unlock()

		if ra != nil {
			ra.DeliverStatus(*msg)
		} else if ua != nil {
			ua.DeliverStatus(*msg)
		}
		if terminal {
			s.mu.Lock()
			if cur, ok := s.bindings[msg.Handle]; ok && cur == b {
				delete(s.bindings, msg.Handle)
				s.bindingRemoved()
				s.handleAlloc.Free(msg.Handle)
			}
			s.mu.Unlock()
			if ra != nil {
				ra.Detach()
			}
			if ua != nil {
				ua.Detach()
			}
		}
		return
	}

	// Tombstone.
	if msg.Status != wire.StatusSuccess {
		delete(s.bindings, msg.Handle)
		s.bindingRemoved()
		s.handleAlloc.Free(msg.Handle)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	nlog.Warningf("session: SUCCESS for handle %d already released; peer raced our release", msg.Handle)
}

func (s *Session) handleReadResponse(msg *wire.ReadResponse) {
	s.mu.Lock()
	handle, ok := s.requests[msg.ReqID]
	if ok {
		delete(s.requests, msg.ReqID)
		s.reqidAlloc.Free(msg.ReqID)
	}
	var b *binding
	if ok {
		b = s.bindings[handle]
	}
	s.mu.Unlock()

	if !ok {
		nlog.Warningf("session: Read.Response for unknown reqid %d", msg.ReqID)
		return
	}
	if b == nil || b.read == nil {
		nlog.Warningf("session: Read.Response %d for unmapped handle", msg.ReqID)
		return
	}
	if !b.read.DeliverReadResponse(msg.ReqID, *msg) {
		nlog.Warningf("session: Read.Response %d has no pending read, dropped", msg.ReqID)
	}
}

// ---------------------------------------------------------------------
// Client-side operations, also satisfying asset.Session.
// ---------------------------------------------------------------------

// BindRead binds a (possibly already-bound, in which case this rebinds in
// place) ReadAsset, per §4.4 "BindRead (outgoing)".
func (s *Session) BindRead(a *asset.ReadAsset, timeoutMS uint32) error {
	if timeoutMS == 0 {
		timeoutMS = s.cfg.DefaultBindTimeoutMS
	}

	s.mu.Lock()
	if !s.connUp {
		s.mu.Unlock()
		return ErrDisconnected
	}
	var h uint32
	var b *binding
	if a.IsBound() {
		h = uint32(a.Handle())
		b = s.bindings[h]
	} else {
		h = s.handleAlloc.Allocate()
		debug.Assert(s.bindings[h] == nil, "session: freshly allocated handle already bound")
		b = newReadBinding(h, a)
		s.bindings[h] = b
		s.bindingAdded()
		a.Attach(s, int32(h))
	}
	b.timeoutMS = timeoutMS
	s.mu.Unlock()

	msg := &wire.BindRead{Handle: h, IDs: a.Identifiers(), Timeout: timeoutMS, UUID: freshUUID64()}
	if !s.conn.Send(wire.TypeBindRead, msg, false) {
		return ErrQueueFull
	}
	s.armRefresh(b)
	return nil
}

// BindWrite allocates a handle for an UploadAsset and sends BindWrite
// (§4.4 "BindWrite (upload)").
func (s *Session) BindWrite(a *asset.UploadAsset) error {
	s.mu.Lock()
	if !s.connUp {
		s.mu.Unlock()
		return ErrDisconnected
	}
	h := s.handleAlloc.Allocate()
	debug.Assert(s.bindings[h] == nil, "session: freshly allocated handle already bound")
	b := newUploadBinding(h, a)
	s.bindings[h] = b
	s.bindingAdded()
	a.Attach(s, int32(h))
	s.mu.Unlock()

	msg := &wire.BindWrite{Handle: h, Size: a.Size(), LinkPath: a.LinkPath()}
	if !s.conn.Send(wire.TypeBindWrite, msg, false) {
		return ErrQueueFull
	}
	return nil
}

// WriteSegment implements asset.Session for UploadAsset.
func (s *Session) WriteSegment(a *asset.UploadAsset, offset uint64, data []byte) error {
	h := uint32(a.Handle())
	msg := &wire.DataSegment{Handle: h, Offset: offset, Content: data}
	if !s.conn.Send(wire.TypeDataSegment, msg, false) {
		return ErrQueueFull
	}
	return nil
}

// Release moves a ReadAsset's binding to tombstone and sends the
// empty-ids BindRead that starts the release handshake (§4.4 "Release").
// Implements asset.Session.
func (s *Session) Release(a *asset.ReadAsset) {
	s.mu.Lock()
	h := uint32(a.Handle())
	b, ok := s.bindings[h]
	if !ok {
		s.mu.Unlock()
		return
	}
	b.release()
	connUp := s.connUp
	timeoutMS := b.timeoutMS
	if timeoutMS == 0 {
		timeoutMS = s.cfg.DefaultBindTimeoutMS
	}
	s.mu.Unlock()

	a.Detach()

	if !connUp {
		// No connection: the peer is assumed to have lost all state, so
		// release is local-only.
		s.mu.Lock()
		delete(s.bindings, h)
		s.bindingRemoved()
		s.handleAlloc.Free(h)
		s.mu.Unlock()
		return
	}

	msg := &wire.BindRead{Handle: h, IDs: nil, Timeout: timeoutMS, UUID: freshUUID64()}
	s.conn.Send(wire.TypeBindRead, msg, false)
	s.armRefresh(b)
}

// Read implements asset.Session: issues a Read.Request and returns the
// reqid the caller should key its pending completion on.
func (s *Session) Read(a *asset.ReadAsset, offset, size uint64, timeoutMS uint32) (uint32, error) {
	if timeoutMS == 0 {
		timeoutMS = s.cfg.DefaultReadTimeoutMS
	}
	s.mu.Lock()
	if !s.connUp {
		s.mu.Unlock()
		return 0, ErrDisconnected
	}
	h := uint32(a.Handle())
	reqID := s.reqidAlloc.Allocate()
	s.requests[reqID] = h
	s.mu.Unlock()

	msg := &wire.ReadRequest{ReqID: reqID, Handle: h, Offset: offset, Size: uint32(size), Timeout: timeoutMS}
	if !s.conn.Send(wire.TypeReadRequest, msg, false) {
		s.mu.Lock()
		delete(s.requests, reqID)
		s.reqidAlloc.Free(reqID)
		s.mu.Unlock()
		return 0, ErrQueueFull
	}
	return reqID, nil
}

// ---------------------------------------------------------------------
// Timers
// ---------------------------------------------------------------------

func (s *Session) armRefresh(b *binding) {
	b.stopTimer()
	d := time.Duration(b.timeoutMS*s.cfg.RefreshMultiplier) * time.Millisecond
	b.timer = time.AfterFunc(d, func() { s.onBindingTimeout(b) })
}

// onBindingTimeout implements §4.4 "On timeout": a live binding's asset
// gets a synthesized TIMEOUT status (§3: "the asset decides whether to
// retry"); a tombstoned binding resends the empty BindRead to reconfirm
// release.
func (s *Session) onBindingTimeout(b *binding) {
	s.mu.Lock()
	cur, ok := s.bindings[b.handle]
	if !ok || cur != b {
		s.mu.Unlock()
		return
	}

	if b.live() {
		ra, ua := b.read, b.upload
		s.mu.Unlock()
		status := wire.AssetStatus{Handle: b.handle, Status: wire.StatusTimeout}
		if ra != nil {
			ra.DeliverStatus(status)
		} else if ua != nil {
			ua.DeliverStatus(status)
		}
		return
	}

	timeoutMS := b.timeoutMS
	connUp := s.connUp
	s.mu.Unlock()
	if !connUp {
		return
	}
	msg := &wire.BindRead{Handle: b.handle, IDs: nil, Timeout: timeoutMS, UUID: freshUUID64()}
	s.conn.Send(wire.TypeBindRead, msg, false)
	s.armRefresh(b)
}

// ---------------------------------------------------------------------
// Disconnect sweep (§4.4 "Disconnect", §8 S6)
// ---------------------------------------------------------------------

func (s *Session) handleDisconnected() {
	s.mu.Lock()
	if s.keepaliveStop != nil {
		close(s.keepaliveStop)
		s.keepaliveStop = nil
	}
	var rebind []*asset.ReadAsset
	for h, b := range s.bindings {
		b.stopTimer()
		if b.read != nil {
			rebind = append(rebind, b.read)
		}
		delete(s.bindings, h)
		s.bindingRemoved()
	}
	for h, slot := range s.serverSlots {
		delete(s.serverSlots, h)
		slot.ia.Close()
	}
	s.requests = make(map[uint32]uint32)
	s.reqidAlloc.Reset()
	s.handleAlloc.Reset()
	s.pendingRebind = rebind
	s.connUp = false
	cb := s.OnDisconnected
	s.mu.Unlock()

	for _, ra := range rebind {
		ra.DeliverStatus(wire.AssetStatus{Status: wire.StatusDisconnected})
		ra.Close()
	}
	if cb != nil {
		cb()
	}
}
