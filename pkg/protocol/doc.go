// Package protocol implements the ZenTalk directory wire protocol.
//
// The protocol package defines the request and response layouts exchanged
// with the directory server, their encoding and decoding, response
// validation, and the error kinds used across the client.
//
// # Header Format
//
// Every request starts with a 23-byte header:
//   - ClientID (16 bytes): Sender id, zero before registration
//   - Version (1 byte): Client protocol version (1)
//   - Code (2 bytes): Request code
//   - PayloadSize (4 bytes): Bytes following the header
//
// Every response starts with a 7-byte header:
//   - Version (1 byte): Server protocol version
//   - Code (2 bytes): Response code
//   - PayloadSize (4 bytes): Bytes following the header
//
// All multi-byte integers are little-endian.
//
// # Request Codes
//
//   - 1000 REGISTER: name[255] + public key[160]
//   - 1001 LIST_CLIENTS: no payload
//   - 1002 GET_PUBLIC_KEY: name[255]
//   - 1003 SEND_MESSAGE: recipient[16] + type[1] + length[4] + content
//   - 1004 GET_UNREAD: no payload
//
// A successful response carries the request code plus 1000. Code 9000 is a
// generic server-side rejection.
//
// # Response Payloads
//
//   - 2000: assigned client id[16]
//   - 2001: repeated (id[16], name[255]) records
//   - 2002: client id[16] + public key[160]
//   - 2003: recipient id[16] + message id[4]
//   - 2004: repeated (sender[16], message id[4], type[1], length[4], content)
//
// Fixed-size responses are checked against an exact payload length before
// anything is decoded; see ValidateResponse.
//
// # Usage Example
//
//	req := &protocol.RegisterRequest{Name: "alice", PublicKey: pub}
//	buf, err := protocol.EncodeRequest(protocol.ClientID{}, req)
//	if err != nil {
//	    return err
//	}
//
//	// Send buf through the transport, read the response header...
//	if err := protocol.ValidateResponse(header, protocol.CodeRegisterSuccess); err != nil {
//	    return err
//	}
//	payload, err := protocol.DecodePayload(header.Code, body)
package protocol
