package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/bithorde/bithorded/asset"
)

// binding is a row in the session's client-side binding table (§3): the
// association between a handle we allocated and either a live ReadAsset,
// a live UploadAsset, or a tombstone awaiting the peer's release
// confirmation (§9 design note: a single enum beats a nullable pointer,
// modeled here as two nilable fields plus an explicit tombstone flag so
// the zero value of both is distinguishable from "released").
type binding struct {
	handle    uint32
	nonce     uuid.UUID
	read      *asset.ReadAsset
	upload    *asset.UploadAsset
	tombstone bool
	timer     *time.Timer

	// timeoutMS is the bind timeout last sent to the peer for this
	// handle, remembered so a refresh-timer firing (live or tombstoned)
	// can resend without needing the original caller's value again.
	timeoutMS uint32
}

func newReadBinding(handle uint32, a *asset.ReadAsset) *binding {
	return &binding{handle: handle, nonce: uuid.New(), read: a}
}

func newUploadBinding(handle uint32, a *asset.UploadAsset) *binding {
	return &binding{handle: handle, nonce: uuid.New(), upload: a}
}

// live reports whether the binding still owns an asset (as opposed to
// being a tombstone awaiting release confirmation).
func (b *binding) live() bool { return !b.tombstone }

// release moves a live read binding to tombstone state. Upload bindings
// are dropped outright by the caller (§4.4 "Disconnect"; uploads have no
// release handshake in this revision).
func (b *binding) release() {
	b.tombstone = true
	b.read = nil
	b.upload = nil
}

func (b *binding) stopTimer() {
	if b.timer != nil {
		b.timer.Stop()
	}
}
