package codec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// WriteLengthPrefixed writes a u32be-length-prefixed frame to w, used by the
// Stratum server's optional length-prefixed framing mode (§4.10, §6.3).
func WriteLengthPrefixed(w io.Writer, payload []byte) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadLengthPrefixed reads one u32be-length-prefixed frame from r. maxSize
// bounds the accepted payload length to guard against hostile peers.
func ReadLengthPrefixed(r *bufio.Reader, maxSize uint32) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > maxSize {
		return nil, fmt.Errorf("%w: frame of %d bytes exceeds max %d", ErrInvalidEncoding, n, maxSize)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
