// Package store implements the AssetStore boundary (spec.md §4.6): a
// synchronous, concurrent-read-safe lookup by content identifier, and
// link-ingestion of an existing local file.
package store

import (
	"github.com/bithorde/bithorded/asset"
	"github.com/bithorde/bithorded/wire"
)

// AssetStore is the narrow interface Router consumes (§4.6). Lookup must
// be fast — an index lookup plus at most opening a file handle, never a
// hash computation. AddLink may be slow; it is never called from a
// session's read/dispatch goroutine.
type AssetStore interface {
	Lookup(ids []wire.Identifier) asset.IAsset
	AddLink(path string) (asset.IAsset, error)
}
