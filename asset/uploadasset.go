package asset

import (
	"sync"

	"github.com/bithorde/bithorded/wire"
)

// UploadAsset is a client-side producer-side handle (§3): size is
// declared at bind time, identifiers are learned from the server's
// AssetStatus reply, and LinkPath selects link-mode upload (the server
// ingests an existing local file instead of receiving a byte stream).
type UploadAsset struct {
	size     uint64
	linkPath string

	mu      sync.Mutex
	handle  int32
	sess    Session
	ids     []wire.Identifier
	hasIDs  bool
	status  chan wire.AssetStatus
	started bool
}

// NewUploadAsset declares an upload of the given size. If linkPath is
// non-empty, the server is asked to link that local path instead of
// receiving DataSegment pushes.
func NewUploadAsset(size uint64, linkPath string) *UploadAsset {
	return &UploadAsset{
		size:     size,
		linkPath: linkPath,
		handle:   HandleUnbound,
		status:   make(chan wire.AssetStatus, 8),
	}
}

func (a *UploadAsset) Size() uint64      { return a.size }
func (a *UploadAsset) LinkPath() string  { return a.linkPath }
func (a *UploadAsset) Handle() int32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.handle
}

func (a *UploadAsset) IsBound() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.handle >= 0
}

// Identifiers returns the identifiers the server assigned this upload,
// once known.
func (a *UploadAsset) Identifiers() ([]wire.Identifier, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ids, a.hasIDs
}

func (a *UploadAsset) Statuses() <-chan wire.AssetStatus { return a.status }

// Attach is called by the owning Session once BindWrite has been sent.
func (a *UploadAsset) Attach(s Session, handle int32) {
	a.mu.Lock()
	a.sess, a.handle = s, handle
	a.mu.Unlock()
}

func (a *UploadAsset) Detach() {
	a.mu.Lock()
	a.sess, a.handle = nil, HandleUnbound
	a.mu.Unlock()
}

// DeliverStatus records the server-assigned identifiers (on a SUCCESS
// reply to a non-link upload) and forwards the status (§4.4 "BindWrite").
func (a *UploadAsset) DeliverStatus(s wire.AssetStatus) {
	a.mu.Lock()
	if s.Status == wire.StatusSuccess && s.HasIDs {
		a.ids, a.hasIDs = s.IDs, true
	}
	a.mu.Unlock()

	select {
	case a.status <- s:
	default:
	}
}

// WriteSegment streams a DataSegment for this upload through the owning
// session; only meaningful for a non-link-mode upload once SUCCESS has
// been observed without ids.
func (a *UploadAsset) WriteSegment(offset uint64, data []byte) error {
	a.mu.Lock()
	sess := a.sess
	a.mu.Unlock()
	if sess == nil {
		return ErrUnbound
	}
	return sess.WriteSegment(a, offset, data)
}
