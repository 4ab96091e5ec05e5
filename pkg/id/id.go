package id

import (
	"encoding/binary"
	"errors"
	"strconv"
	"strings"
	"time"
)

// ID is a packed 64-bit identifier. Its numeric order follows issuance time
// at millisecond granularity.
type ID uint64

// Int64 returns the value for signed bigint columns. It is negative only once
// the timestamp field has reached the top bit.
func (i ID) Int64() int64 { return int64(i) }

// Uint64 returns the raw value.
func (i ID) Uint64() uint64 { return uint64(i) }

// String returns the decimal representation.
func (i ID) String() string { return strconv.FormatUint(uint64(i), 10) }

// Hex returns the zero-padded, 16 character hex representation.
func (i ID) Hex() string {
	const hexdigits = "0123456789abcdef"
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(i))
	out := make([]byte, 16)
	for n, v := range b {
		out[n*2] = hexdigits[v>>4]
		out[n*2+1] = hexdigits[v&0x0f]
	}
	return string(out)
}

// Bytes returns the 8-byte big-endian representation, which sorts the same
// way as the integer.
func (i ID) Bytes() []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(i))
	return b
}

// Compare returns -1, 0, 1.
func (i ID) Compare(other ID) int {
	switch {
	case i < other:
		return -1
	case i > other:
		return 1
	default:
		return 0
	}
}

var errEmptyID = errors.New("id: empty")

// Parse accepts a decimal ID or a 0x-prefixed hex ID.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmptyID
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}
	v, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return 0, err
	}
	return ID(v), nil
}

// Parts is a decoded ID.
type Parts struct {
	// Millis is the issuance time in Unix milliseconds.
	Millis   int64  `json:"millis"`
	Delta    uint64 `json:"delta"`
	Shard    uint64 `json:"shard"`
	Sequence uint64 `json:"sequence"`
}

// Time returns the issuance time in UTC.
func (p Parts) Time() time.Time { return time.UnixMilli(p.Millis).UTC() }

// DecodeParts splits v with the given layout and epoch.
func DecodeParts(v ID, layout Layout, epochMillis int64) Parts {
	delta, shard, seq := layout.Decode(v)
	return Parts{
		Millis:   epochMillis + int64(delta),
		Delta:    delta,
		Shard:    shard,
		Sequence: seq,
	}
}
