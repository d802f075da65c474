package session_test

import (
	"context"
	"net"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/bithorde/bithorded/asset"
	"github.com/bithorde/bithorded/session"
	"github.com/bithorde/bithorded/transport"
	"github.com/bithorde/bithorded/wire"
)

// fakeAsset is a trivial IAsset served back by fakeRouter.
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

// fakeRouter records every FindAsset call and answers from a static table.
type fakeRouter struct {
	assets [][]wire.Identifier
	ia     []*fakeAsset
	calls  []wire.Identifier
}

func (r *fakeRouter) FindAsset(ids []wire.Identifier) asset.IAsset {
	if len(ids) > 0 {
		r.calls = append(r.calls, ids[0])
	}
	for i, want := range r.assets {
		if wire.AnyMatch(ids, want) {
			return r.ia[i]
		}
	}
	return nil
}

func newPair(cfgA, cfgB session.Config) (sa, sb *session.Session, connA, connB *transport.Connection) {
	rawA, rawB := net.Pipe()
	connA = transport.New(rawA)
	connB = transport.New(rawB)
	sa = session.New(connA, cfgA)
	sb = session.New(connB, cfgB)
	return sa, sb, connA, connB
}

var _ = Describe("Session", func() {
	var cfgA, cfgB session.Config

	BeforeEach(func() {
		cfgA = session.Config{OwnName: "A"}
		cfgB = session.Config{OwnName: "B"}
	})

	It("completes the handshake with matching peer names (S1)", func() {
		sa, sb, _, _ := newPair(cfgA, cfgB)

		authedA := make(chan string, 1)
		authedB := make(chan string, 1)
		sa.OnAuthenticated = func(peer string) { authedA <- peer }
		sb.OnAuthenticated = func(peer string) { authedB <- peer }

		sa.Start()
		sb.Start()

		Eventually(authedA, time.Second).Should(Receive(Equal("B")))
		Eventually(authedB, time.Second).Should(Receive(Equal("A")))
		Expect(sa.Authenticated()).To(BeTrue())
		Expect(sb.Authenticated()).To(BeTrue())
	})

	It("reports NOTFOUND and frees the handle on a bind miss (S2)", func() {
		cfgB.Router = &fakeRouter{}
		sa, sb, _, _ := newPair(cfgA, cfgB)
		sa.Start()
		sb.Start()
		Eventually(func() bool { return sa.Authenticated() }, time.Second).Should(BeTrue())

		ra := asset.NewReadAsset([]wire.Identifier{{Type: wire.HashTreeTiger, ID: []byte{0xaa}}})
		Expect(sa.BindRead(ra, 200)).To(Succeed())
		missHandle := ra.Handle()

		var st wire.AssetStatus
		Eventually(ra.Statuses(), time.Second).Should(Receive(&st))
		Expect(st.Status).To(Equal(wire.StatusNotFound))

		// The handle is freed: a second bind should reuse the same slot.
		// ra is detached only after its handle has gone back to the
		// allocator, so wait for that before binding again.
		Eventually(ra.IsBound, time.Second).Should(BeFalse())
		ra2 := asset.NewReadAsset([]wire.Identifier{{Type: wire.HashTreeTiger, ID: []byte{0xbb}}})
		Expect(sa.BindRead(ra2, 200)).To(Succeed())
		Expect(ra2.Handle()).To(Equal(missHandle))
		Eventually(ra2.Statuses(), time.Second).Should(Receive(&st))
		Expect(st.Status).To(Equal(wire.StatusNotFound))
	})

	It("delivers SUCCESS with size and ids on a bind hit, then serves a read (S3)", func() {
		ids := []wire.Identifier{{Type: wire.HashTreeTiger, ID: []byte{0xaa}}, {Type: wire.HashSHA1, ID: []byte{0xbb}}}
		fa := &fakeAsset{ids: ids, size: 1024, data: make([]byte, 256)}
		cfgB.Router = &fakeRouter{assets: [][]wire.Identifier{ids}, ia: []*fakeAsset{fa}}

		sa, sb, _, _ := newPair(cfgA, cfgB)
		sa.Start()
		sb.Start()
		Eventually(func() bool { return sa.Authenticated() }, time.Second).Should(BeTrue())

		ra := asset.NewReadAsset([]wire.Identifier{ids[0]})
		Expect(sa.BindRead(ra, 200)).To(Succeed())

		var st wire.AssetStatus
		Eventually(ra.Statuses(), time.Second).Should(Receive(&st))
		Expect(st.Status).To(Equal(wire.StatusSuccess))
		Expect(st.Size).To(Equal(uint64(1024)))

		status, content, err := ra.Read(context.Background(), 0, 256, 1000)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(wire.StatusSuccess))
		Expect(content).To(HaveLen(256))
	})

	It("keeps the handle reserved until the release AssetStatus arrives (S5)", func() {
		ids := []wire.Identifier{{Type: wire.HashSHA1, ID: []byte{0xcc}}}
		fa := &fakeAsset{ids: ids, size: 10}
		cfgB.Router = &fakeRouter{assets: [][]wire.Identifier{ids}, ia: []*fakeAsset{fa}}

		sa, sb, _, _ := newPair(cfgA, cfgB)
		sa.Start()
		sb.Start()
		Eventually(func() bool { return sa.Authenticated() }, time.Second).Should(BeTrue())

		ra := asset.NewReadAsset(ids)
		Expect(sa.BindRead(ra, 200)).To(Succeed())
		var st wire.AssetStatus
		Eventually(ra.Statuses(), time.Second).Should(Receive(&st))
		Expect(st.Status).To(Equal(wire.StatusSuccess))
		releasedHandle := ra.Handle()

		sa.Release(ra)
		// The released asset is detached at once and gets no further
		// status: the peer's NOTFOUND reply goes to the tombstoned binding,
		// which is what frees the handle.
		Expect(ra.IsBound()).To(BeFalse())
		Consistently(ra.Statuses(), 200*time.Millisecond).ShouldNot(Receive())

		ra2 := asset.NewReadAsset(ids)
		Expect(sa.BindRead(ra2, 200)).To(Succeed())
		Eventually(ra2.Statuses(), time.Second).Should(Receive(&st))
		Expect(ra2.Handle()).To(Equal(releasedHandle))
	})

	It("sends BindWrite and delivers the peer's reply to the UploadAsset (§4.4 BindWrite)", func() {
		sa, sb, _, _ := newPair(cfgA, cfgB)
		sa.Start()
		sb.Start()
		Eventually(func() bool { return sa.Authenticated() }, time.Second).Should(BeTrue())

		ua := asset.NewUploadAsset(4096, "")
		Expect(sa.BindWrite(ua)).To(Succeed())

		// sb has no upload support (§4.4 "unsupported inbound BindWrite"),
		// so it replies ERROR; that reply must still reach ua via
		// DeliverStatus on sa's side.
		var st wire.AssetStatus
		Eventually(ua.Statuses(), time.Second).Should(Receive(&st))
		Expect(st.Status).To(Equal(wire.StatusError))
	})

	It("delivers DISCONNECTED to each live binding when the transport drops (S6)", func() {
		ids1 := []wire.Identifier{{Type: wire.HashSHA1, ID: []byte{1}}}
		ids2 := []wire.Identifier{{Type: wire.HashSHA1, ID: []byte{2}}}
		fa1 := &fakeAsset{ids: ids1, size: 1}
		fa2 := &fakeAsset{ids: ids2, size: 2}
		cfgB.Router = &fakeRouter{assets: [][]wire.Identifier{ids1, ids2}, ia: []*fakeAsset{fa1, fa2}}

		sa, sb, connA, _ := newPair(cfgA, cfgB)
		disconnected := make(chan struct{}, 1)
		sa.OnDisconnected = func() { disconnected <- struct{}{} }
		sa.Start()
		sb.Start()
		Eventually(func() bool { return sa.Authenticated() }, time.Second).Should(BeTrue())

		ra1 := asset.NewReadAsset(ids1)
		ra2 := asset.NewReadAsset(ids2)
		Expect(sa.BindRead(ra1, 200)).To(Succeed())
		Expect(sa.BindRead(ra2, 200)).To(Succeed())
		var st wire.AssetStatus
		Eventually(ra1.Statuses(), time.Second).Should(Receive(&st))
		Eventually(ra2.Statuses(), time.Second).Should(Receive(&st))

		connA.Close()

		Eventually(disconnected, time.Second).Should(Receive())
		Eventually(ra1.Statuses(), time.Second).Should(Receive(&st))
		Expect(st.Status).To(Equal(wire.StatusDisconnected))
		Eventually(ra2.Statuses(), time.Second).Should(Receive(&st))
		Expect(st.Status).To(Equal(wire.StatusDisconnected))
	})
})
