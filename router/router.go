// Package router implements the server-side resolver (spec.md §4.5): local
// store lookup first, then forwarding to the highest-priority Authenticated
// upstream session.
package router

import (
	"github.com/pkg/errors"

	"github.com/bithorde/bithorded/asset"
	"github.com/bithorde/bithorded/internal/metrics"
	"github.com/bithorde/bithorded/store"
	"github.com/bithorde/bithorded/wire"
)

// ErrNoStore is returned by LinkAsset when no local store is configured.
var ErrNoStore = errors.New("router: no local store configured")

// defaultDiscoveryTimeoutMS is the bind timeout used for the forwarded
// BindRead issued against an upstream when the caller hasn't set one
// (§4.5 "a short discovery timeout").
const defaultDiscoveryTimeoutMS = 500

// upstream is the narrow capability Router needs from an upstream peer
// connection; *session.Session implements it. Kept narrow (rather than
// importing *session.Session directly) so router depends on session only
// through this seam, matching the one-directional dependency graph
// (router -> session -> asset -> wire).
type upstream interface {
	Authenticated() bool
	BindRead(a *asset.ReadAsset, timeoutMS uint32) error
	Release(a *asset.ReadAsset)
}

// Router implements session.Router.
type Router struct {
	// Stores are probed in order; first hit wins (§4.5 step 1).
	Stores []store.AssetStore
	// Upstreams are tried in order; the first Authenticated one is used
	// (§4.5 step 2).
	Upstreams []upstream
	// DiscoveryTimeoutMS is the bind timeout for the forwarded BindRead;
	// zero means defaultDiscoveryTimeoutMS.
	DiscoveryTimeoutMS uint32

	// Metrics is optional instrumentation; nil disables it.
	Metrics *metrics.Registry
}

// AddUpstream registers an additional upstream candidate, tried in the
// order added (§4.5 step 2 "a configured order").
func (r *Router) AddUpstream(s upstream) {
	r.Upstreams = append(r.Upstreams, s)
}

// FindAsset implements §4.5's findAsset.
func (r *Router) FindAsset(ids []wire.Identifier) asset.IAsset {
	for _, st := range r.Stores {
		if ia := st.Lookup(ids); ia != nil {
			return ia
		}
	}

	timeout := r.DiscoveryTimeoutMS
	if timeout == 0 {
		timeout = defaultDiscoveryTimeoutMS
	}
	for _, up := range r.Upstreams {
		if !up.Authenticated() {
			continue
		}
		if r.Metrics != nil {
			r.Metrics.UpstreamForwards.Inc()
		}
		return newUpstreamAsset(up, ids, timeout)
	}
	return nil
}

// LinkAsset ingests a local file through the first configured store
// (§4.5 "linkAsset ... delegates to the primary local store").
func (r *Router) LinkAsset(path string) (asset.IAsset, error) {
	if len(r.Stores) == 0 {
		return nil, ErrNoStore
	}
	return r.Stores[0].AddLink(path)
}
