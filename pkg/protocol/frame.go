package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"unicode/utf8"
)

const (
	// MaxNameLen is the largest name the u16 prefix can describe.
	MaxNameLen = 1<<16 - 1

	// Ack confirms the frame was verified and published.
	Ack byte = 0x01
	// Nack reports the frame was rejected.
	Nack byte = 0x00
)

// Header is the decoded frame header.
type Header struct {
	Name     string
	Size     uint64
	Checksum Digest
}

// ValidateName checks that name can be encoded.
func ValidateName(name string) error {
	if len(name) > MaxNameLen {
		return fmt.Errorf("%w: %d bytes", ErrNameTooLong, len(name))
	}
	if name == "" || !utf8.ValidString(name) {
		return ErrInvalidName
	}
	return nil
}

// EncodeHeader serializes name, size and checksum.
func EncodeHeader(name string, size uint64, sum Digest) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	buf := make([]byte, 0, 2+len(name)+8+DigestSize)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(name)))
	buf = append(buf, name...)
	buf = binary.BigEndian.AppendUint64(buf, size)
	buf = append(buf, sum[:]...)
	return buf, nil
}

// ReadHeader decodes the next header from r.
//
// io.EOF is returned only when the stream ended before the first header byte.
// A stream that ends inside the header yields ErrIncompleteFrame.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header

	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return h, io.EOF
		}
		return h, incomplete("name length", err)
	}

	name := make([]byte, binary.BigEndian.Uint16(lenBuf[:]))
	if _, err := io.ReadFull(r, name); err != nil {
		return h, incomplete("name", err)
	}
	if len(name) == 0 || !utf8.Valid(name) {
		return h, ErrInvalidName
	}
	h.Name = string(name)

	var sizeBuf [8]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		return h, incomplete("size", err)
	}
	h.Size = binary.BigEndian.Uint64(sizeBuf[:])

	if _, err := io.ReadFull(r, h.Checksum[:]); err != nil {
		return h, incomplete("checksum", err)
	}
	return h, nil
}

// WriteFrame writes a complete frame for payload under name and returns the
// header that was sent.
func WriteFrame(w io.Writer, name string, payload []byte) (Header, error) {
	h := Header{Name: name, Size: uint64(len(payload)), Checksum: Sum(payload)}
	header, err := EncodeHeader(h.Name, h.Size, h.Checksum)
	if err != nil {
		return h, err
	}
	bufs := net.Buffers{header, payload}
	if _, err := bufs.WriteTo(w); err != nil {
		return h, err
	}
	return h, nil
}

// WriteAck sends the response byte for one frame.
func WriteAck(w io.Writer, ok bool) error {
	b := Nack
	if ok {
		b = Ack
	}
	_, err := w.Write([]byte{b})
	return err
}

// ReadAck reads the response byte for one frame. Anything but Ack is a rejection.
func ReadAck(r io.Reader) (bool, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return false, err
	}
	return b[0] == Ack, nil
}

func incomplete(field string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: reading %s: %w", ErrIncompleteFrame, field, io.ErrUnexpectedEOF)
	}
	return fmt.Errorf("reading %s: %w", field, err)
}
