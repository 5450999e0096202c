package network

import "encoding/binary"

// PacketSize is the fixed transport unit. Every write is sent as whole units
// and every read consumes whole units.
const PacketSize = 1024

var hostLittleEndian = func() bool {
	var b [2]byte
	binary.NativeEndian.PutUint16(b[:], 1)
	return b[0] == 1
}()

// SwapWords reverses the byte order of every 4-byte word in buf, in place.
// Bytes past the last whole word are left untouched. Applying it twice
// restores the original buffer.
func SwapWords(buf []byte) {
	for i := 0; i+4 <= len(buf); i += 4 {
		buf[i], buf[i+1], buf[i+2], buf[i+3] = buf[i+3], buf[i+2], buf[i+1], buf[i]
	}
}

// normalizeUnit puts a unit into wire word order. It runs on every unit
// before send and after receive.
func normalizeUnit(unit []byte) {
	if !hostLittleEndian {
		SwapWords(unit)
	}
}

// UnitCount returns how many transport units carry n bytes
func UnitCount(n int) int {
	return (n + PacketSize - 1) / PacketSize
}
