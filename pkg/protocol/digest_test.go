package protocol

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestSum_Empty(t *testing.T) {
	// BLAKE3 of the empty input
	const want = "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"
	got := Sum(nil)
	if hex.EncodeToString(got[:]) != want {
		t.Errorf("Sum(nil) = %x, want %s", got, want)
	}
}

func TestHasher_MatchesSum(t *testing.T) {
	payload := bytes.Repeat([]byte("fileship"), 300_000)

	h := NewHasher()
	for off := 0; off < len(payload); off += 1 << 20 {
		end := off + 1<<20
		if end > len(payload) {
			end = len(payload)
		}
		h.Write(payload[off:end])
	}

	if got, want := DigestOf(h), Sum(payload); got != want {
		t.Errorf("streamed digest = %x, want %x", got, want)
	}
}

func TestSum_DetectsSingleByteChange(t *testing.T) {
	a := []byte("the quick brown fox")
	b := append([]byte(nil), a...)
	b[4] ^= 0x01

	if Sum(a) == Sum(b) {
		t.Error("digests equal after a one-byte change")
	}
}
