package router

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/bithorde/bithorded/asset"
	"github.com/bithorde/bithorded/store"
	"github.com/bithorde/bithorded/wire"
)

type fakeAsset struct {
	ids  []wire.Identifier
	size uint64
	data []byte
}

func (a *fakeAsset) Size() uint64                   { return a.size }
func (a *fakeAsset) Identifiers() []wire.Identifier { return a.ids }
func (a *fakeAsset) Close()                         {}
func (a *fakeAsset) ReadAt(context.Context, uint64, uint64) (wire.Status, []byte) {
	return wire.StatusSuccess, a.data
}

type fakeStore struct {
	hit *fakeAsset
}

func (s *fakeStore) Lookup(ids []wire.Identifier) asset.IAsset {
	if s.hit == nil || !wire.AnyMatch(ids, s.hit.ids) {
		return nil
	}
	return s.hit
}

func (s *fakeStore) AddLink(string) (asset.IAsset, error) { return s.hit, nil }

// fakeAssetSession is the minimal asset.Session a fakeUpstream attaches to
// bound ReadAssets so Read.Request calls have somewhere to go.
type fakeAssetSession struct {
	readStatus wire.Status
	readData   []byte
}

func (f *fakeAssetSession) Read(*asset.ReadAsset, uint64, uint64, uint32) (uint32, error) { return 1, nil }
func (f *fakeAssetSession) Release(*asset.ReadAsset)                                      {}
func (f *fakeAssetSession) WriteSegment(*asset.UploadAsset, uint64, []byte) error          { return nil }

// fakeUpstream simulates one upstream session: binding immediately
// delivers the configured status to the forwarded ReadAsset.
type fakeUpstream struct {
	authed bool
	status wire.AssetStatus
}

func (u *fakeUpstream) Authenticated() bool { return u.authed }

func (u *fakeUpstream) BindRead(a *asset.ReadAsset, _ uint32) error {
	a.Attach(&fakeAssetSession{}, 7)
	go a.DeliverStatus(u.status)
	return nil
}

func (u *fakeUpstream) Release(a *asset.ReadAsset) { a.Detach() }

var _ = Describe("Router", func() {
	var target wire.Identifier

	BeforeEach(func() {
		target = wire.Identifier{Type: wire.HashSHA1, ID: []byte("deadbeef")}
	})

	It("returns the local store's asset on a hit", func() {
		r := &Router{Stores: []store.AssetStore{&fakeStore{hit: &fakeAsset{ids: []wire.Identifier{target}, size: 42}}}}
		ia := r.FindAsset([]wire.Identifier{target})
		Expect(ia).NotTo(BeNil())
		Expect(ia.Size()).To(Equal(uint64(42)))
	})

	It("returns nil when no store matches and no upstream is configured", func() {
		r := &Router{}
		Expect(r.FindAsset([]wire.Identifier{target})).To(BeNil())
	})

	It("skips unauthenticated upstreams", func() {
		r := &Router{Upstreams: []upstream{&fakeUpstream{authed: false}}}
		Expect(r.FindAsset([]wire.Identifier{target})).To(BeNil())
	})

	It("forwards to the first authenticated upstream and resolves once its status arrives", func() {
		up := &fakeUpstream{authed: true, status: wire.AssetStatus{
			Handle: 7, Status: wire.StatusSuccess, HasSize: true, Size: 99,
		}}
		r := &Router{Upstreams: []upstream{up}}

		ia := r.FindAsset([]wire.Identifier{target})
		Expect(ia).NotTo(BeNil())

		aw, ok := ia.(interface {
			Ready() <-chan struct{}
			Status() wire.Status
		})
		Expect(ok).To(BeTrue())

		Eventually(aw.Ready(), time.Second).Should(BeClosed())
		Expect(aw.Status()).To(Equal(wire.StatusSuccess))
		Expect(ia.Size()).To(Equal(uint64(99)))
	})

	It("resolves NOTFOUND when the upstream bind misses", func() {
		up := &fakeUpstream{authed: true, status: wire.AssetStatus{Handle: 7, Status: wire.StatusNotFound}}
		r := &Router{Upstreams: []upstream{up}}

		ia := r.FindAsset([]wire.Identifier{target})
		aw := ia.(interface {
			Ready() <-chan struct{}
			Status() wire.Status
		})
		Eventually(aw.Ready(), time.Second).Should(BeClosed())
		Expect(aw.Status()).To(Equal(wire.StatusNotFound))
	})
})
