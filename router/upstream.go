package router

import (
	"context"
	"sync"

	"github.com/bithorde/bithorded/asset"
	"github.com/bithorde/bithorded/wire"
)

// upstreamAsset is the proxy IAsset described in §4.5: it wraps a
// ReadAsset bound against one upstream session and forwards reads
// through that binding's existing Read RPC machinery. It implements
// session.AwaitableAsset so the server-side BindRead handler can delay
// its reply to the original requester until the upstream resolves.
type upstreamAsset struct {
	up upstream
	ra *asset.ReadAsset

	ready     chan struct{}
	readyOnce sync.Once

	mu     sync.Mutex
	status wire.Status
}

func newUpstreamAsset(up upstream, ids []wire.Identifier, timeoutMS uint32) *upstreamAsset {
	ua := &upstreamAsset{
		up:     up,
		ra:     asset.NewReadAsset(ids),
		ready:  make(chan struct{}),
		status: wire.StatusNone,
	}
	go ua.pump()
	if err := up.BindRead(ua.ra, timeoutMS); err != nil {
		ua.fail()
	}
	return ua
}

// pump watches the forwarded binding's status updates and unblocks Ready
// on the first status that settles the bind one way or the other (§4.5
// "its reads will pend until the upstream AssetStatus arrives").
func (ua *upstreamAsset) pump() {
	for st := range ua.ra.Statuses() {
		ua.mu.Lock()
		ua.status = st.Status
		ua.mu.Unlock()
		if st.Status == wire.StatusSuccess || st.Status.Terminal() || st.Status == wire.StatusDisconnected {
			ua.settle()
			return
		}
	}
}

func (ua *upstreamAsset) settle() {
	ua.readyOnce.Do(func() { close(ua.ready) })
}

func (ua *upstreamAsset) fail() {
	ua.mu.Lock()
	ua.status = wire.StatusNotFound
	ua.mu.Unlock()
	ua.settle()
}

// Ready implements session.AwaitableAsset.
func (ua *upstreamAsset) Ready() <-chan struct{} { return ua.ready }

// Status implements session.AwaitableAsset.
func (ua *upstreamAsset) Status() wire.Status {
	ua.mu.Lock()
	defer ua.mu.Unlock()
	return ua.status
}

// Size implements asset.IAsset, delegating to the forwarded ReadAsset's
// size once learned.
func (ua *upstreamAsset) Size() uint64 {
	sz, _ := ua.ra.Size()
	return sz
}

// Identifiers implements asset.IAsset.
func (ua *upstreamAsset) Identifiers() []wire.Identifier { return ua.ra.Identifiers() }

// ReadAt implements asset.IAsset: forwards as a Read.Request over the
// upstream binding and returns the Read.Response verbatim (§4.5 "upstream
// Read.Response is returned verbatim").
func (ua *upstreamAsset) ReadAt(ctx context.Context, offset, length uint64) (wire.Status, []byte) {
	status, data, err := ua.ra.Read(ctx, offset, length, 0)
	if err != nil {
		return wire.StatusDisconnected, nil
	}
	return status, data
}

// Close implements asset.IAsset: releases the forwarded binding (§4.5
// "close: releases the upstream binding").
func (ua *upstreamAsset) Close() {
	ua.up.Release(ua.ra)
}
