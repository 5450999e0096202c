package network

import (
	"bytes"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipe(t *testing.T) (*Conn, *Conn) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return NewConn(a), NewConn(b)
}

func pattern(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i*7 + 3)
	}
	return buf
}

func TestSendPadsFinalUnit(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	msg := pattern(PacketSize + 10)
	go func() {
		_ = NewConn(a).Send(msg)
		a.Close()
	}()

	raw, err := io.ReadAll(b)
	require.NoError(t, err)
	require.Len(t, raw, 2*PacketSize)

	assert.Equal(t, msg, raw[:len(msg)])
	assert.Equal(t, make([]byte, PacketSize-10), raw[len(msg):])
}

func TestReassemblyAcrossUnits(t *testing.T) {
	sender, receiver := pipe(t)

	header := pattern(7)
	payload := pattern(3*PacketSize + 100)
	msg := append(append([]byte(nil), header...), payload...)

	errc := make(chan error, 1)
	go func() { errc <- sender.Send(msg) }()

	first, err := receiver.Receive(PacketSize)
	require.NoError(t, err)
	assert.Equal(t, header, first[:7])

	got := append([]byte(nil), first[7:]...)
	rest, err := receiver.Receive(len(payload) - len(got))
	require.NoError(t, err)
	got = append(got, rest...)

	assert.Equal(t, payload, got)
	require.NoError(t, <-errc)
}

func TestReceiveDiscardsOverrun(t *testing.T) {
	sender, receiver := pipe(t)

	first := bytes.Repeat([]byte{0xAA}, 10)
	second := bytes.Repeat([]byte{0xBB}, 10)

	go func() {
		_ = sender.Send(first)
		_ = sender.Send(second)
	}()

	got, err := receiver.Receive(5)
	require.NoError(t, err)
	assert.Equal(t, first[:5], got)

	// The rest of the first unit is gone; the next read starts a new unit
	got, err = receiver.Receive(10)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestReceiveShortFinalUnit(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()

	go func() {
		_, _ = a.Write([]byte{1, 2, 3})
		a.Close()
	}()

	got, err := NewConn(b).Receive(PacketSize)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got[:3])
	assert.Equal(t, make([]byte, PacketSize-3), got[3:])
}

func TestReceiveOnClosedStream(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()
	a.Close()

	_, err := NewConn(b).Receive(10)
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestReceiveZero(t *testing.T) {
	_, receiver := pipe(t)

	got, err := receiver.Receive(0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
