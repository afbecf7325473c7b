// Package protocol implements the fileship wire format.
//
// A connection carries a sequence of frames, each answered by one response
// byte before the next frame is sent:
//
//	+----------------+-------------+-----------+---------------+-----------------+
//	| name_len (u16) | name (UTF-8)| size (u64)| checksum (32B)| payload (size B)|
//	+----------------+-------------+-----------+---------------+-----------------+
//
// All integers are big-endian. There is no end-of-frame marker: the next
// header starts right after the payload. The checksum is the BLAKE3-256 digest
// of the payload. The receiver answers [Ack] when the file was published and
// [Nack] when it was rejected.
package protocol
