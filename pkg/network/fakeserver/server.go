// Package fakeserver is a loopback directory server for tests. It speaks the
// unit framing of package network and answers each connection with a single
// response chosen by a Handler.
package fakeserver

import (
	"net"
	"sync"

	"github.com/ZentaChain/zentalk-client/pkg/network"
	"github.com/ZentaChain/zentalk-client/pkg/protocol"
)

// ServerVersion is the version byte the reference server sends
const ServerVersion = 2

// Request is one request as the server decoded it
type Request struct {
	Header  protocol.RequestHeader
	Payload []byte
}

// Response is the reply to one request
type Response struct {
	Code    uint16
	Payload []byte

	// Raw, when set, is sent as is in place of header and payload
	Raw []byte

	// UnpaddedTail sends the last unit without zero padding, as the
	// reference server does for multi-unit replies
	UnpaddedTail bool

	// Hangup closes the connection without replying
	Hangup bool
}

// Handler chooses the response to a request
type Handler func(req Request) Response

// Server is a sequential loopback server
type Server struct {
	ln      net.Listener
	handler Handler

	mu       sync.Mutex
	requests []Request

	done chan struct{}
}

// New starts a server on an ephemeral loopback port
func New(handler Handler) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	s := &Server{
		ln:      ln,
		handler: handler,
		done:    make(chan struct{}),
	}
	go s.serve()

	return s, nil
}

// Address returns the listening address
func (s *Server) Address() network.Address {
	tcp := s.ln.Addr().(*net.TCPAddr)
	return network.Address{Host: tcp.IP.String(), Port: uint16(tcp.Port)}
}

// Requests returns the requests received so far
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Close stops the listener and waits for the serve loop to exit
func (s *Server) Close() error {
	err := s.ln.Close()
	<-s.done
	return err
}

func (s *Server) serve() {
	defer close(s.done)

	for {
		c, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.handle(c)
	}
}

func (s *Server) handle(c net.Conn) {
	conn := network.NewConn(c)
	defer conn.Close()

	first, err := conn.Receive(network.PacketSize)
	if err != nil {
		return
	}

	var req Request
	if err := req.Header.Decode(first); err != nil {
		return
	}

	size := int(req.Header.PayloadSize)
	req.Payload = make([]byte, size)
	n := copy(req.Payload, first[protocol.RequestHeaderSize:])
	if n < size {
		rest, err := conn.Receive(size - n)
		if err != nil {
			return
		}
		copy(req.Payload[n:], rest)
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	resp := s.handler(req)
	if resp.Hangup {
		return
	}

	buf := resp.Raw
	if buf == nil {
		header := protocol.ResponseHeader{
			Version:     ServerVersion,
			Code:        resp.Code,
			PayloadSize: uint32(len(resp.Payload)),
		}
		buf = append(header.Encode(), resp.Payload...)
	}

	if resp.UnpaddedTail && len(buf) > network.PacketSize {
		full := (len(buf) / network.PacketSize) * network.PacketSize
		if conn.Send(buf[:full]) != nil {
			return
		}
		_, _ = c.Write(buf[full:])
		return
	}

	_ = conn.Send(buf)
}

// Success answers with the success code for the request
func Success(req Request, payload []byte) Response {
	return Response{Code: protocol.SuccessCode(req.Header.Code), Payload: payload}
}

// Reject answers with GENERIC_ERROR
func Reject() Response {
	return Response{Code: protocol.CodeGenericError}
}
