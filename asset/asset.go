// Package asset implements the client- and server-side asset abstractions
// (spec.md §3, §4.5): ReadAsset and UploadAsset on the consumer side, and
// the IAsset capability the server-side Router hands out for both locally
// stored and upstream-forwarded content.
package asset

import (
	"context"

	"github.com/bithorde/bithorded/wire"
)

// IAsset is the server-side passive read capability (§3): a given logical
// asset may be represented concurrently by more than one IAsset instance
// (a local source and an upstream proxy); the Router picks one per bind.
type IAsset interface {
	Size() uint64
	ReadAt(ctx context.Context, offset, length uint64) (wire.Status, []byte)
	Close()

	// Identifiers returns the ids this asset is known by, for the
	// SUCCESS AssetStatus reply to an inbound BindRead (§4.5).
	Identifiers() []wire.Identifier
}

// Session is the narrow capability a bound client-side asset needs from
// its owning session: issuing read RPCs and tearing the binding down.
// *session.Session implements this; asset does not import session to keep
// the dependency one-directional (design note, §9).
type Session interface {
	Read(a *ReadAsset, offset, size uint64, timeoutMS uint32) (reqID uint32, err error)
	Release(a *ReadAsset)
	WriteSegment(a *UploadAsset, offset uint64, data []byte) error
}

// HandleUnbound is the sentinel value of an asset's handle before it has
// been bound in a session (§3: "bound-handle (negative ⇒ unbound)").
const HandleUnbound int32 = -1
