package wire

import "github.com/pkg/errors"

// ErrTruncated is returned by unmarshal when buf ends mid-field. The
// decoder only unmarshals records already complete by their length prefix,
// so it reports this as a fatal framing error; partial reads are handled
// before unmarshal is reached.
var ErrTruncated = errors.New("wire: truncated message")

func marshalIdentifiers(buf []byte, ids []Identifier) []byte {
	buf = putUvarint(buf, uint64(len(ids)))
	for _, id := range ids {
		buf = putUvarint(buf, uint64(id.Type))
		buf = putUvarint(buf, uint64(len(id.ID)))
		buf = append(buf, id.ID...)
	}
	return buf
}

func unmarshalIdentifiers(buf []byte) (ids []Identifier, rest []byte, err error) {
	count, n, ok, err := takeUvarint(buf)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrTruncated
	}
	buf = buf[n:]
	ids = make([]Identifier, 0, count)
	for i := uint64(0); i < count; i++ {
		typ, n, ok, err := takeUvarint(buf)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, ErrTruncated
		}
		buf = buf[n:]
		ln, n, ok, err := takeUvarint(buf)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, ErrTruncated
		}
		buf = buf[n:]
		if uint64(len(buf)) < ln {
			return nil, nil, ErrTruncated
		}
		id := make([]byte, ln)
		copy(id, buf[:ln])
		buf = buf[ln:]
		ids = append(ids, Identifier{Type: uint32(typ), ID: id})
	}
	return ids, buf, nil
}

func takeBool(buf []byte) (v bool, rest []byte, err error) {
	if len(buf) < 1 {
		return false, nil, ErrTruncated
	}
	return buf[0] != 0, buf[1:], nil
}

func takeVarint(buf []byte) (v uint64, rest []byte, err error) {
	val, n, ok, err := takeUvarint(buf)
	if err != nil {
		return 0, nil, err
	}
	if !ok {
		return 0, nil, ErrTruncated
	}
	return val, buf[n:], nil
}

func takeBytes(buf []byte) (v []byte, rest []byte, err error) {
	ln, buf, err := takeVarint(buf)
	if err != nil {
		return nil, nil, err
	}
	if uint64(len(buf)) < ln {
		return nil, nil, ErrTruncated
	}
	out := make([]byte, ln)
	copy(out, buf[:ln])
	return out, buf[ln:], nil
}

func takeString(buf []byte) (string, []byte, error) {
	b, rest, err := takeBytes(buf)
	if err != nil {
		return "", nil, err
	}
	return string(b), rest, nil
}

// HandShake

func (m *HandShake) marshal(buf []byte) []byte {
	buf = putUvarint(buf, uint64(m.ProtoVersion))
	buf = putUvarint(buf, uint64(len(m.Name)))
	buf = append(buf, m.Name...)
	if m.Challenge != nil {
		buf = append(buf, 1)
		buf = putUvarint(buf, uint64(len(m.Challenge)))
		buf = append(buf, m.Challenge...)
	} else {
		buf = append(buf, 0)
	}
	return buf
}

func (m *HandShake) unmarshal(buf []byte) error {
	v, buf, err := takeVarint(buf)
	if err != nil {
		return err
	}
	m.ProtoVersion = uint32(v)
	m.Name, buf, err = takeString(buf)
	if err != nil {
		return err
	}
	has, buf, err := takeBool(buf)
	if err != nil {
		return err
	}
	if has {
		m.Challenge, _, err = takeBytes(buf)
		return err
	}
	m.Challenge = nil
	return nil
}

// BindRead

func (m *BindRead) marshal(buf []byte) []byte {
	buf = putUvarint(buf, uint64(m.Handle))
	buf = marshalIdentifiers(buf, m.IDs)
	buf = putUvarint(buf, uint64(m.Timeout))
	buf = putUvarint(buf, m.UUID)
	return buf
}

func (m *BindRead) unmarshal(buf []byte) error {
	v, buf, err := takeVarint(buf)
	if err != nil {
		return err
	}
	m.Handle = uint32(v)
	m.IDs, buf, err = unmarshalIdentifiers(buf)
	if err != nil {
		return err
	}
	v, buf, err = takeVarint(buf)
	if err != nil {
		return err
	}
	m.Timeout = uint32(v)
	m.UUID, _, err = takeVarint(buf)
	return err
}

// AssetStatus

func (m *AssetStatus) marshal(buf []byte) []byte {
	buf = putUvarint(buf, uint64(m.Handle))
	buf = append(buf, byte(m.Status))
	if m.HasSize {
		buf = append(buf, 1)
		buf = putUvarint(buf, m.Size)
	} else {
		buf = append(buf, 0)
	}
	if m.HasIDs {
		buf = append(buf, 1)
		buf = marshalIdentifiers(buf, m.IDs)
	} else {
		buf = append(buf, 0)
	}
	return buf
}

func (m *AssetStatus) unmarshal(buf []byte) error {
	v, buf, err := takeVarint(buf)
	if err != nil {
		return err
	}
	m.Handle = uint32(v)
	if len(buf) < 1 {
		return ErrTruncated
	}
	m.Status, buf = Status(buf[0]), buf[1:]
	m.HasSize, buf, err = takeBool(buf)
	if err != nil {
		return err
	}
	if m.HasSize {
		m.Size, buf, err = takeVarint(buf)
		if err != nil {
			return err
		}
	}
	m.HasIDs, buf, err = takeBool(buf)
	if err != nil {
		return err
	}
	if m.HasIDs {
		m.IDs, _, err = unmarshalIdentifiers(buf)
		return err
	}
	return nil
}

// ReadRequest

func (m *ReadRequest) marshal(buf []byte) []byte {
	buf = putUvarint(buf, uint64(m.ReqID))
	buf = putUvarint(buf, uint64(m.Handle))
	buf = putUvarint(buf, m.Offset)
	buf = putUvarint(buf, uint64(m.Size))
	buf = putUvarint(buf, uint64(m.Timeout))
	return buf
}

func (m *ReadRequest) unmarshal(buf []byte) (err error) {
	var v uint64
	if v, buf, err = takeVarint(buf); err != nil {
		return err
	}
	m.ReqID = uint32(v)
	if v, buf, err = takeVarint(buf); err != nil {
		return err
	}
	m.Handle = uint32(v)
	if m.Offset, buf, err = takeVarint(buf); err != nil {
		return err
	}
	if v, buf, err = takeVarint(buf); err != nil {
		return err
	}
	m.Size = uint32(v)
	v, _, err = takeVarint(buf)
	m.Timeout = uint32(v)
	return err
}

// ReadResponse

func (m *ReadResponse) marshal(buf []byte) []byte {
	buf = putUvarint(buf, uint64(m.ReqID))
	buf = append(buf, byte(m.Status))
	if m.HasOffset {
		buf = append(buf, 1)
		buf = putUvarint(buf, m.Offset)
	} else {
		buf = append(buf, 0)
	}
	if m.Content != nil {
		buf = append(buf, 1)
		buf = putUvarint(buf, uint64(len(m.Content)))
		buf = append(buf, m.Content...)
	} else {
		buf = append(buf, 0)
	}
	return buf
}

func (m *ReadResponse) unmarshal(buf []byte) (err error) {
	var v uint64
	if v, buf, err = takeVarint(buf); err != nil {
		return err
	}
	m.ReqID = uint32(v)
	if len(buf) < 1 {
		return ErrTruncated
	}
	m.Status, buf = Status(buf[0]), buf[1:]
	if m.HasOffset, buf, err = takeBool(buf); err != nil {
		return err
	}
	if m.HasOffset {
		if m.Offset, buf, err = takeVarint(buf); err != nil {
			return err
		}
	}
	hasContent, buf, err := takeBool(buf)
	if err != nil {
		return err
	}
	if hasContent {
		m.Content, _, err = takeBytes(buf)
		return err
	}
	m.Content = nil
	return nil
}

// BindWrite

func (m *BindWrite) marshal(buf []byte) []byte {
	buf = putUvarint(buf, uint64(m.Handle))
	buf = putUvarint(buf, m.Size)
	if m.LinkPath != "" {
		buf = append(buf, 1)
		buf = putUvarint(buf, uint64(len(m.LinkPath)))
		buf = append(buf, m.LinkPath...)
	} else {
		buf = append(buf, 0)
	}
	return buf
}

func (m *BindWrite) unmarshal(buf []byte) (err error) {
	var v uint64
	if v, buf, err = takeVarint(buf); err != nil {
		return err
	}
	m.Handle = uint32(v)
	if m.Size, buf, err = takeVarint(buf); err != nil {
		return err
	}
	has, buf, err := takeBool(buf)
	if err != nil {
		return err
	}
	if has {
		m.LinkPath, _, err = takeString(buf)
		return err
	}
	m.LinkPath = ""
	return nil
}

// DataSegment

func (m *DataSegment) marshal(buf []byte) []byte {
	buf = putUvarint(buf, uint64(m.Handle))
	buf = putUvarint(buf, m.Offset)
	buf = putUvarint(buf, uint64(len(m.Content)))
	buf = append(buf, m.Content...)
	return buf
}

func (m *DataSegment) unmarshal(buf []byte) (err error) {
	var v uint64
	if v, buf, err = takeVarint(buf); err != nil {
		return err
	}
	m.Handle = uint32(v)
	if m.Offset, buf, err = takeVarint(buf); err != nil {
		return err
	}
	m.Content, _, err = takeBytes(buf)
	return err
}

// HandShakeConfirmed, Ping: empty payloads.

func (*HandShakeConfirmed) marshal(buf []byte) []byte { return buf }
func (*HandShakeConfirmed) unmarshal(_ []byte) error  { return nil }
func (*Ping) marshal(buf []byte) []byte               { return buf }
func (*Ping) unmarshal(_ []byte) error                { return nil }
