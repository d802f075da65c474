package wire

import "github.com/pkg/errors"

// MessageType is the one-byte tag prefixing every message payload (§6).
type MessageType byte

const (
	TypeHandShake          MessageType = 1
	TypeBindRead           MessageType = 2
	TypeAssetStatus        MessageType = 3
	TypeReadRequest        MessageType = 5
	TypeReadResponse       MessageType = 6
	TypeBindWrite          MessageType = 7
	TypeDataSegment        MessageType = 8
	TypeHandShakeConfirmed MessageType = 9
	TypePing               MessageType = 10
)

func (t MessageType) String() string {
	switch t {
	case TypeHandShake:
		return "HandShake"
	case TypeBindRead:
		return "BindRead"
	case TypeAssetStatus:
		return "AssetStatus"
	case TypeReadRequest:
		return "Read.Request"
	case TypeReadResponse:
		return "Read.Response"
	case TypeBindWrite:
		return "BindWrite"
	case TypeDataSegment:
		return "DataSegment"
	case TypeHandShakeConfirmed:
		return "HandShakeConfirmed"
	case TypePing:
		return "Ping"
	default:
		return "Unknown"
	}
}

// Status is the outcome enumeration carried by AssetStatus and
// Read.Response (§6).
type Status byte

const (
	StatusNone Status = iota
	StatusSuccess
	StatusNotFound
	StatusInvalidHandle
	StatusWouldLoop
	StatusDisconnected
	StatusTimeout
	StatusNoResources
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "NONE"
	case StatusSuccess:
		return "SUCCESS"
	case StatusNotFound:
		return "NOTFOUND"
	case StatusInvalidHandle:
		return "INVALID_HANDLE"
	case StatusWouldLoop:
		return "WOULD_LOOP"
	case StatusDisconnected:
		return "DISCONNECTED"
	case StatusTimeout:
		return "TIMEOUT"
	case StatusNoResources:
		return "NORESOURCES"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether s is a terminal non-SUCCESS status for a
// binding (§3, §6): the binding must be torn down on receipt.
func (s Status) Terminal() bool {
	switch s {
	case StatusNotFound, StatusInvalidHandle, StatusWouldLoop, StatusError:
		return true
	default:
		return false
	}
}

// Hash algorithm identifiers (§6); unknown values must round-trip.
const (
	HashTreeTiger uint32 = 1
	HashSHA1      uint32 = 2
)

// Identifier is a (hash-algorithm, digest) pair (§3 GLOSSARY).
type Identifier struct {
	Type uint32
	ID   []byte
}

// Equal reports whether id and other are the same (type, id) pair. AnyMatch
// builds the "any pair matches" identity rule from §3 on top of it.
func (id Identifier) Equal(other Identifier) bool {
	if id.Type != other.Type || len(id.ID) != len(other.ID) {
		return false
	}
	for i := range id.ID {
		if id.ID[i] != other.ID[i] {
			return false
		}
	}
	return true
}

// AnyMatch reports whether a and b share at least one identifier.
func AnyMatch(a, b []Identifier) bool {
	for _, x := range a {
		for _, y := range b {
			if x.Equal(y) {
				return true
			}
		}
	}
	return false
}

// Message is implemented by every payload type in the tag table.
type Message interface {
	Type() MessageType
	marshal(buf []byte) []byte
	unmarshal(buf []byte) error
}

var ErrUnknownTag = errors.New("wire: unknown message tag")

// NewMessage allocates a zero-value Message for the given tag, or
// ErrUnknownTag if t is not one of the nine wire types.
func NewMessage(t MessageType) (Message, error) {
	switch t {
	case TypeHandShake:
		return &HandShake{}, nil
	case TypeBindRead:
		return &BindRead{}, nil
	case TypeAssetStatus:
		return &AssetStatus{}, nil
	case TypeReadRequest:
		return &ReadRequest{}, nil
	case TypeReadResponse:
		return &ReadResponse{}, nil
	case TypeBindWrite:
		return &BindWrite{}, nil
	case TypeDataSegment:
		return &DataSegment{}, nil
	case TypeHandShakeConfirmed:
		return &HandShakeConfirmed{}, nil
	case TypePing:
		return &Ping{}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownTag, "tag %d", t)
	}
}

type (
	HandShake struct {
		ProtoVersion uint32
		Name         string
		Challenge    []byte // nil => absent
	}

	BindRead struct {
		Handle  uint32
		IDs     []Identifier
		Timeout uint32
		UUID    uint64
	}

	AssetStatus struct {
		Handle  uint32
		Status  Status
		HasSize bool
		Size    uint64
		HasIDs  bool
		IDs     []Identifier
	}

	ReadRequest struct {
		ReqID   uint32
		Handle  uint32
		Offset  uint64
		Size    uint32
		Timeout uint32
	}

	ReadResponse struct {
		ReqID     uint32
		Status    Status
		HasOffset bool
		Offset    uint64
		Content   []byte // nil => absent
	}

	BindWrite struct {
		Handle   uint32
		Size     uint64
		LinkPath string // "" => absent
	}

	DataSegment struct {
		Handle  uint32
		Offset  uint64
		Content []byte
	}

	HandShakeConfirmed struct{}

	Ping struct{}
)

func (*HandShake) Type() MessageType          { return TypeHandShake }
func (*BindRead) Type() MessageType           { return TypeBindRead }
func (*AssetStatus) Type() MessageType        { return TypeAssetStatus }
func (*ReadRequest) Type() MessageType        { return TypeReadRequest }
func (*ReadResponse) Type() MessageType       { return TypeReadResponse }
func (*BindWrite) Type() MessageType          { return TypeBindWrite }
func (*DataSegment) Type() MessageType        { return TypeDataSegment }
func (*HandShakeConfirmed) Type() MessageType { return TypeHandShakeConfirmed }
func (*Ping) Type() MessageType               { return TypePing }
