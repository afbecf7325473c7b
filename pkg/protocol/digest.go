package protocol

import (
	"hash"

	"lukechampine.com/blake3"
)

// DigestSize is the width of the checksum field.
const DigestSize = 32

// Digest is a BLAKE3-256 content digest.
type Digest [DigestSize]byte

// Sum returns the digest of payload.
func Sum(payload []byte) Digest {
	return Digest(blake3.Sum256(payload))
}

// NewHasher returns a streaming hasher producing the same digest as Sum.
func NewHasher() hash.Hash {
	return blake3.New(DigestSize, nil)
}

// DigestOf reads the final digest out of a hasher created by NewHasher.
func DigestOf(h hash.Hash) Digest {
	var d Digest
	h.Sum(d[:0])
	return d
}
