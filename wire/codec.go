package wire

import (
	"github.com/pkg/errors"
)

// MaxRecordLen is the largest payload (tag byte + body) the codec will
// accept; a length prefix claiming more is a fatal framing error (§4.1).
const MaxRecordLen = 16 * 1024 * 1024

var (
	// ErrRecordTooLarge is fatal to the connection per §4.1.
	ErrRecordTooLarge = errors.New("wire: record exceeds 16MiB limit")
)

// Encode appends the framed record for msg (varint length, tag byte, body)
// to buf and returns the extended slice.
func Encode(buf []byte, msg Message) []byte {
	body := msg.marshal(nil)
	body = append([]byte{byte(msg.Type())}, body...)
	buf = putUvarint(buf, uint64(len(body)))
	buf = append(buf, body...)
	return buf
}

// Decoder incrementally reassembles records out of a byte stream. Feed
// appends newly-read bytes and decodes as many complete records as are
// available, in stream order, never partially consuming a record (§4.1,
// §8: "Length framing round-trips").
type Decoder struct {
	buf []byte
}

// Record is one decoded (tag, message) pair.
type Record struct {
	Type MessageType
	Msg  Message
}

// Feed appends data to the receive buffer and decodes every complete
// record now available. It returns ErrRecordTooLarge or ErrUnknownTag as a
// fatal error — the caller must close the connection on any error.
func (d *Decoder) Feed(data []byte) ([]Record, error) {
	d.buf = append(d.buf, data...)

	var recs []Record
	for {
		rec, n, ok, err := d.decodeOne()
		if err != nil {
			return recs, err
		}
		if !ok {
			break
		}
		d.buf = d.buf[n:]
		recs = append(recs, rec)
	}
	return recs, nil
}

// decodeOne attempts to decode a single record from the front of d.buf
// without mutating it; it reports how many bytes the record occupied.
func (d *Decoder) decodeOne() (rec Record, consumed int, ok bool, err error) {
	ln, n, ok, err := takeUvarint(d.buf)
	if err != nil {
		return Record{}, 0, false, err
	}
	if !ok {
		return Record{}, 0, false, nil
	}
	if ln > MaxRecordLen {
		return Record{}, 0, false, ErrRecordTooLarge
	}
	if ln == 0 {
		return Record{}, 0, false, errors.New("wire: zero-length record")
	}
	total := n + int(ln)
	if len(d.buf) < total {
		return Record{}, 0, false, nil
	}
	body := d.buf[n:total]
	tag := MessageType(body[0])
	msg, err := NewMessage(tag)
	if err != nil {
		return Record{}, 0, false, err
	}
	if err := msg.unmarshal(body[1:]); err != nil {
		return Record{}, 0, false, errors.Wrapf(err, "decoding %s", tag)
	}
	return Record{Type: tag, Msg: msg}, total, true, nil
}

// Reset discards any buffered partial record.
func (d *Decoder) Reset() {
	d.buf = nil
}
