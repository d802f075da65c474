// Package wire implements the bithorde length-delimited message framing:
// a stream of varint-prefixed records, each beginning with a one-byte
// MessageType tag followed by a type-specific payload.
package wire

import (
	"github.com/pkg/errors"
)

// ErrVarintOverflow is returned when a varint would need more than 10 bytes
// (the maximum for a 64-bit value under the 7-bits-per-byte encoding).
var ErrVarintOverflow = errors.New("wire: varint overflow")

const maxVarintBytes = 10

// putUvarint appends the standard 7-bits-per-byte little-endian
// continuation encoding of v to buf, returning the extended slice.
func putUvarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

// takeUvarint decodes a varint from the front of buf. It returns the
// decoded value, the number of bytes consumed, and ok=false if buf does not
// yet hold a complete varint (the caller should wait for more bytes).
func takeUvarint(buf []byte) (v uint64, n int, ok bool, err error) {
	var shift uint
	for i := 0; i < len(buf); i++ {
		if i >= maxVarintBytes {
			return 0, 0, false, ErrVarintOverflow
		}
		b := buf[i]
		v |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return v, i + 1, true, nil
		}
		shift += 7
	}
	return 0, 0, false, nil
}
