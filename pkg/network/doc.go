// Package network carries encoded requests to the directory server.
//
// All traffic moves in fixed 1024-byte units. A write is split across as
// many units as it needs and the last unit is zero-padded. A read consumes
// whole units and returns only the bytes asked for, so the reader must ask
// for the response header first and then for exactly the payload the header
// declares.
//
// On big-endian hosts every 4-byte word of a unit is byte-reversed before it
// is sent and after it is received (see SwapWords).
//
// Client.Exchange runs one connect, write, read, close cycle and validates
// the response with protocol.ValidateResponse before returning it.
package network
