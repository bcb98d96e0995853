// Package wire frames encoded payloads before they are handed to a provider.
//
// A frame carries the write sequence the store index expects to find, so a
// payload that was overwritten, truncated or written by someone else is
// detected on read instead of being decoded.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

const (
	version byte = 1
	hdrLen       = 4 + 1 + 8 + 8 + 4
)

var (
	ErrCorrupt = errors.New("pagecache: corrupt payload frame")
	magic4     = [...]byte{'P', 'G', 'C', 'F'}
)

// Frame is a decoded payload frame. Payload aliases the input buffer.
type Frame struct {
	Seq      uint64
	StoredAt time.Time
	Payload  []byte
}

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Encode layout: magic(4) | ver(1) | seq(u64 be) | storedAt(unix nanos, i64 be) | vlen(u32 be) | payload(vlen)
func Encode(seq uint64, storedAt time.Time, payload []byte) []byte {
	out := make([]byte, hdrLen+len(payload))
	copy(out, magic4[:])
	out[4] = version
	binary.BigEndian.PutUint64(out[5:13], seq)
	binary.BigEndian.PutUint64(out[13:21], uint64(storedAt.UnixNano()))
	binary.BigEndian.PutUint32(out[21:25], uint32(len(payload)))
	copy(out[hdrLen:], payload)
	return out
}

// Decode parses a frame produced by Encode. Trailing bytes are rejected.
func Decode(b []byte) (Frame, error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version {
		return Frame{}, ErrCorrupt
	}
	seq := binary.BigEndian.Uint64(b[5:13])
	nanos := int64(binary.BigEndian.Uint64(b[13:21]))
	vlen := int(binary.BigEndian.Uint32(b[21:25]))
	if vlen != len(b)-hdrLen {
		return Frame{}, ErrCorrupt
	}
	return Frame{
		Seq:      seq,
		StoredAt: time.Unix(0, nanos),
		Payload:  b[hdrLen:],
	}, nil
}
