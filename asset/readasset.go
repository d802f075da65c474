package asset

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/bithorde/bithorded/wire"
)

// ErrUnbound is returned by Read when the asset has no live binding.
var ErrUnbound = errors.New("asset: not bound to a session")

// ErrClosed is returned by pending reads when the owning session
// disconnects (§4.4 "Disconnect").
var ErrClosed = errors.New("asset: session disconnected")

type readCompletion struct {
	status  wire.Status
	offset  uint64
	content []byte
}

// ReadAsset is a client-side handle into a remote asset (§3). Identifiers
// are immutable after construction; Size is populated on the first SUCCESS
// status; Handle is HandleUnbound until the owning session binds it.
type ReadAsset struct {
	ids []wire.Identifier

	mu      sync.Mutex
	size    uint64
	hasSize bool
	handle  int32
	sess    Session
	pending map[uint32]chan readCompletion
	status  chan wire.AssetStatus
	closed  bool
}

// NewReadAsset constructs an unbound ReadAsset for the given identifier
// set. Bind it via the owning Session (session.Session.BindRead).
func NewReadAsset(ids []wire.Identifier) *ReadAsset {
	return &ReadAsset{
		ids:     ids,
		handle:  HandleUnbound,
		pending: make(map[uint32]chan readCompletion),
		status:  make(chan wire.AssetStatus, 8),
	}
}

// Identifiers returns the asset's immutable identifier set.
func (a *ReadAsset) Identifiers() []wire.Identifier { return a.ids }

// IsBound reports whether the asset currently has a live handle.
func (a *ReadAsset) IsBound() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.handle >= 0
}

// Handle returns the current handle, or HandleUnbound.
func (a *ReadAsset) Handle() int32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.handle
}

// Size returns the asset's size and whether it has been learned yet (a
// SUCCESS AssetStatus must have arrived first).
func (a *ReadAsset) Size() (uint64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.size, a.hasSize
}

// Statuses returns the channel on which the asset delivers the AssetStatus
// updates the owning session feeds it (one per call to DeliverStatus),
// including the synthesized DISCONNECTED/TIMEOUT cases. The channel holds
// 8 updates; an update arriving while it is full is dropped.
func (a *ReadAsset) Statuses() <-chan wire.AssetStatus { return a.status }

// Attach is called by the owning Session once a handle has been allocated
// for this asset (session.Session.BindRead); it is not part of the public
// user-facing API.
func (a *ReadAsset) Attach(s Session, handle int32) {
	a.mu.Lock()
	a.sess = s
	a.handle = handle
	a.mu.Unlock()
}

// Detach clears the handle, as happens when a binding is torn down
// (terminal status, release confirmation, or disconnect).
func (a *ReadAsset) Detach() {
	a.mu.Lock()
	a.handle = HandleUnbound
	a.sess = nil
	a.mu.Unlock()
}

// DeliverStatus is called by the owning Session for every AssetStatus
// addressed to this asset's handle (§4.4). It records size/ids on SUCCESS
// and forwards the status to Statuses().
func (a *ReadAsset) DeliverStatus(s wire.AssetStatus) {
	a.mu.Lock()
	if s.Status == wire.StatusSuccess && s.HasSize {
		a.size = s.Size
		a.hasSize = true
	}
	a.mu.Unlock()

	select {
	case a.status <- s:
	default:
		// Slow consumer: drop rather than block the session's single
		// goroutine (§5: suspensions never hold the session hostage).
	}
}

// Read issues a Read.Request through the owning session and blocks for
// the matching Read.Response (or ctx cancellation / session teardown).
func (a *ReadAsset) Read(ctx context.Context, offset, size uint64, timeoutMS uint32) (wire.Status, []byte, error) {
	a.mu.Lock()
	if a.sess == nil {
		a.mu.Unlock()
		return wire.StatusNone, nil, ErrUnbound
	}
	sess := a.sess
	a.mu.Unlock()

	reqID, err := sess.Read(a, offset, size, timeoutMS)
	if err != nil {
		return wire.StatusNone, nil, err
	}

	ch := make(chan readCompletion, 1)
	a.mu.Lock()
	a.pending[reqID] = ch
	a.mu.Unlock()

	select {
	case res, ok := <-ch:
		if !ok {
			return wire.StatusDisconnected, nil, ErrClosed
		}
		return res.status, res.content, nil
	case <-ctx.Done():
		a.mu.Lock()
		delete(a.pending, reqID)
		a.mu.Unlock()
		return wire.StatusNone, nil, ctx.Err()
	}
}

// DeliverReadResponse completes the pending read for reqID, if any. An
// unmapped reqid is reported back to the caller so the session can log and
// drop it (§4.4 "Read RPC").
func (a *ReadAsset) DeliverReadResponse(reqID uint32, r wire.ReadResponse) (delivered bool) {
	a.mu.Lock()
	ch, ok := a.pending[reqID]
	if ok {
		delete(a.pending, reqID)
	}
	a.mu.Unlock()
	if !ok {
		return false
	}
	ch <- readCompletion{status: r.Status, offset: r.Offset, content: r.Content}
	return true
}

// Close cancels every pending read with ErrClosed and marks the asset
// closed; called once by the owning session on disconnect.
func (a *ReadAsset) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	pending := a.pending
	a.pending = make(map[uint32]chan readCompletion)
	a.handle = HandleUnbound
	a.sess = nil
	a.mu.Unlock()

	for _, ch := range pending {
		close(ch)
	}
}
