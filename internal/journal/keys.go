package journal

import (
	"encoding/binary"
)

// Keyspace helpers for Pebble keys.
//
// Layout (byte-wise, lexicographically sortable):
// - ns/{ns}/journal/m             (last assigned seq)
// - ns/{ns}/journal/e/{seq_be8}   (entries)

var (
	nsPrefix   = []byte("ns/")
	journalSeg = []byte("/journal")
	metaSuffix = []byte("/m")
	entrySeg   = []byte("/e/")
)

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

func keyJournal(namespace string) []byte {
	k := make([]byte, 0, len(namespace)+len(nsPrefix)+len(journalSeg)+16)
	k = append(k, nsPrefix...)
	k = append(k, namespace...)
	k = append(k, journalSeg...)
	return k
}

// KeyMeta builds the journal metadata key for a namespace.
func KeyMeta(namespace string) []byte {
	return append(keyJournal(namespace), metaSuffix...)
}

// KeyEntryPrefix is the common prefix of every entry key in a namespace.
func KeyEntryPrefix(namespace string) []byte {
	return append(keyJournal(namespace), entrySeg...)
}

// KeyEntry builds the entry key with a big-endian sequence for proper ordering.
func KeyEntry(namespace string, seq uint64) []byte {
	return appendBE8(KeyEntryPrefix(namespace), seq)
}

// seqFromKey reads the trailing sequence of an entry key.
func seqFromKey(k []byte) uint64 {
	if len(k) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(k[len(k)-8:])
}
