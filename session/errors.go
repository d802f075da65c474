package session

import "github.com/pkg/errors"

var (
	// ErrQueueFull is returned when the connection's outbound queue has
	// hit its soft cap (§4.2 "Backpressure").
	ErrQueueFull = errors.New("session: outbound queue full")

	// ErrDisconnected is returned by operations attempted while the
	// session has no live transport.
	ErrDisconnected = errors.New("session: not connected")

	// ErrWrongState is the protocol error for a message received outside
	// the state it is valid in (§3 "Session state").
	ErrWrongState = errors.New("session: message received in wrong state")

	// ErrVersionMismatch closes the connection per §4.4 Handshake Policy.
	ErrVersionMismatch = errors.New("session: peer protocol version < 2")

	// ErrChallengeUnsupported closes the connection per §4.4 Handshake
	// Policy: challenge-response is reserved but not implemented.
	ErrChallengeUnsupported = errors.New("session: challenge-response not implemented")

	// ErrHandShakeConfirmedUnsupported closes the connection on receipt
	// of tag 9 (§9 open question).
	ErrHandShakeConfirmedUnsupported = errors.New("session: HandShakeConfirmed not supported")

	// ErrDataSegmentUnsupported closes the connection on receipt of an
	// unsolicited DataSegment: this core does not implement server-side
	// streamed-upload ingestion (§1 Non-goals boundary around AssetStore;
	// see DESIGN.md).
	ErrDataSegmentUnsupported = errors.New("session: unsolicited DataSegment")
)
