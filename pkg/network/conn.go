package network

import (
	"errors"
	"fmt"
	"io"
	"net"
)

var (
	ErrConnectionClosed = errors.New("connection closed by peer")
	ErrReadFailed       = errors.New("read failed")
	ErrWriteFailed      = errors.New("write failed")
	ErrDialFailed       = errors.New("connect failed")
)

// Conn frames a stream connection into fixed PacketSize units.
//
// Receive never buffers: bytes of the last unit beyond the requested count
// are dropped. Callers must request exactly the sizes the peer wrote, the
// header first and then its declared payload, or data is lost.
type Conn struct {
	conn net.Conn
	unit [PacketSize]byte
}

// NewConn wraps an established connection
func NewConn(c net.Conn) *Conn {
	return &Conn{conn: c}
}

// Send writes buf as consecutive units, zero-padding the final one
func (c *Conn) Send(buf []byte) error {
	for i := range UnitCount(len(buf)) {
		n := copy(c.unit[:], buf[i*PacketSize:])
		clear(c.unit[n:])
		normalizeUnit(c.unit[:])

		if _, err := c.conn.Write(c.unit[:]); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteFailed, err)
		}
	}
	return nil
}

// Receive reads whole units until n bytes are available and returns the
// first n of them
func (c *Conn) Receive(n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for range UnitCount(n) {
		if err := c.readUnit(); err != nil {
			return nil, err
		}
		take := min(n-len(out), PacketSize)
		out = append(out, c.unit[:take]...)
	}
	return out, nil
}

// readUnit fills c.unit with the next unit. A short unit that ends the stream
// is zero-filled; peers are not required to pad their last unit.
func (c *Conn) readUnit() error {
	got, err := io.ReadFull(c.conn, c.unit[:])
	switch {
	case err == nil:
	case errors.Is(err, io.ErrUnexpectedEOF):
		clear(c.unit[got:])
	case got == 0 && errors.Is(err, io.EOF):
		return ErrConnectionClosed
	default:
		return fmt.Errorf("%w: %v", ErrReadFailed, err)
	}

	normalizeUnit(c.unit[:])
	return nil
}

// Close closes the underlying connection
func (c *Conn) Close() error {
	return c.conn.Close()
}
