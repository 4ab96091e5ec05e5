package journal

import (
	"encoding/binary"
	"hash/crc32"
)

// Record encoding: varint headerLen | header | payload | crc32c(header|payload)
//
// The header is kind byte | atMs be8; the payload is the free-form detail.

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func encodeRecord(header, payload []byte) []byte {
	out := make([]byte, 0, 10+len(header)+len(payload)+4)
	var tmp [10]byte
	n := binary.PutUvarint(tmp[:], uint64(len(header)))
	out = append(out, tmp[:n]...)
	out = append(out, header...)
	out = append(out, payload...)

	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	var crcb [4]byte
	binary.BigEndian.PutUint32(crcb[:], crc)
	return append(out, crcb[:]...)
}

func decodeRecord(b []byte) (header, payload []byte, ok bool) {
	if len(b) < 1+4 {
		return nil, nil, false
	}
	hlen, n := binary.Uvarint(b)
	if n <= 0 || int(n)+int(hlen)+4 > len(b) {
		return nil, nil, false
	}
	header = b[n : n+int(hlen)]
	payload = b[n+int(hlen) : len(b)-4]
	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	if crc != expect {
		return nil, nil, false
	}
	return append([]byte(nil), header...), append([]byte(nil), payload...), true
}

// EncodeEvent renders e without its Seq, which lives in the key.
func EncodeEvent(e Event) []byte {
	header := make([]byte, 0, 9)
	header = append(header, byte(e.Kind))
	header = appendBE8(header, uint64(e.AtMs))
	return encodeRecord(header, []byte(e.Detail))
}

// DecodeEvent parses a stored record. ok is false for truncated or corrupt
// records.
func DecodeEvent(b []byte) (e Event, ok bool) {
	header, payload, ok := decodeRecord(b)
	if !ok || len(header) != 9 {
		return Event{}, false
	}
	return Event{
		Kind:   Kind(header[0]),
		AtMs:   int64(binary.BigEndian.Uint64(header[1:])),
		Detail: string(payload),
	}, true
}
