package network

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/ZentaChain/zentalk-client/pkg/protocol"
)

// Client performs one-shot exchanges against the directory server. Each
// exchange opens a fresh connection and closes it before returning.
type Client struct {
	addr        Address
	dialTimeout time.Duration
	log         *zap.Logger
}

// Options configures a Client
type Options struct {
	// DialTimeout bounds connection setup; zero blocks until the OS gives up
	DialTimeout time.Duration
	Logger      *zap.Logger
}

// NewClient creates a client for the server at addr
func NewClient(addr Address, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		addr:        addr,
		dialTimeout: opts.DialTimeout,
		log:         logger.Named("transport"),
	}
}

// Address returns the server address
func (c *Client) Address() Address {
	return c.addr
}

// Exchange sends an encoded request and returns the validated response
// header and its payload. The expected response code is derived from the
// request code. Nothing is retried; any failure closes the connection.
func (c *Client) Exchange(ctx context.Context, request []byte) (*protocol.ResponseHeader, []byte, error) {
	var reqHeader protocol.RequestHeader
	if err := reqHeader.Decode(request); err != nil {
		return nil, nil, protocol.NewError(protocol.KindValidation, "exchange", err)
	}

	op := protocol.OpName(reqHeader.Code)
	start := time.Now()

	header, payload, err := c.exchange(ctx, op, request, protocol.SuccessCode(reqHeader.Code))
	elapsed := time.Since(start)
	observeExchange(op, err, elapsed)

	if err != nil {
		c.log.Debug("exchange failed",
			zap.String("op", op),
			zap.String("server", c.addr.String()),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return nil, nil, err
	}

	c.log.Debug("exchange",
		zap.String("op", op),
		zap.Uint16("code", header.Code),
		zap.Uint32("payload", header.PayloadSize),
		zap.Duration("elapsed", elapsed))

	return header, payload, nil
}

func (c *Client) exchange(ctx context.Context, op string, request []byte, expected uint16) (*protocol.ResponseHeader, []byte, error) {
	dialer := net.Dialer{Timeout: c.dialTimeout}
	nc, err := dialer.DialContext(ctx, "tcp", c.addr.String())
	if err != nil {
		return nil, nil, protocol.NewError(protocol.KindTransport, op, fmt.Errorf("%w: %v", ErrDialFailed, err))
	}
	conn := NewConn(nc)
	defer conn.Close()

	if err := conn.Send(request); err != nil {
		return nil, nil, protocol.NewError(protocol.KindTransport, op, err)
	}
	bytesSent.Add(float64(len(request)))

	first, err := conn.Receive(PacketSize)
	if err != nil {
		return nil, nil, protocol.NewError(protocol.KindTransport, op, err)
	}

	header, err := protocol.DecodeResponseHeader(first)
	if err != nil {
		return nil, nil, protocol.NewError(protocol.KindProtocol, op, err)
	}
	if err := protocol.ValidateResponse(header, expected); err != nil {
		return nil, nil, protocol.NewError(protocol.KindProtocol, op, err)
	}

	size := int(header.PayloadSize)
	payload := make([]byte, size)
	n := copy(payload, first[protocol.ResponseHeaderSize:])

	if n < size {
		rest, err := conn.Receive(size - n)
		if err != nil {
			return nil, nil, protocol.NewError(protocol.KindTransport, op, err)
		}
		copy(payload[n:], rest)
	}
	bytesReceived.Add(float64(size))

	return header, payload, nil
}
