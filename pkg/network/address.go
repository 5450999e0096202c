package network

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	ma "github.com/multiformats/go-multiaddr"
)

var (
	ErrInvalidAddress = errors.New("invalid server address")
	ErrInvalidHost    = errors.New("host must be localhost or an IPv4 address")
	ErrInvalidPort    = errors.New("port must be between 1 and 65535")
	ErrNoAddress      = errors.New("server address file is missing or empty")
)

// Address is a validated server endpoint
type Address struct {
	Host string
	Port uint16
}

func (a Address) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(int(a.Port)))
}

// ParseAddress parses a server.info line: host:port, or a multiaddr such as
// /ip4/127.0.0.1/tcp/1357 or /dns4/localhost/tcp/1357
func ParseAddress(line string) (Address, error) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "/") {
		return parseMultiaddr(line)
	}

	host, port, err := net.SplitHostPort(line)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, line)
	}

	return validateAddress(host, port)
}

func parseMultiaddr(s string) (Address, error) {
	m, err := ma.NewMultiaddr(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	host, err := m.ValueForProtocol(ma.P_IP4)
	if err != nil {
		host, err = m.ValueForProtocol(ma.P_DNS4)
	}
	if err != nil {
		host, err = m.ValueForProtocol(ma.P_DNS)
	}
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q has no ip4 or dns component", ErrInvalidAddress, s)
	}

	port, err := m.ValueForProtocol(ma.P_TCP)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q has no tcp component", ErrInvalidAddress, s)
	}

	return validateAddress(host, port)
}

func validateAddress(host, port string) (Address, error) {
	switch {
	case strings.EqualFold(host, "localhost"):
		host = "localhost"
	case strings.Contains(host, ":"):
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidHost, host)
	default:
		ip := net.ParseIP(host)
		if ip == nil || ip.To4() == nil {
			return Address{}, fmt.Errorf("%w: %q", ErrInvalidHost, host)
		}
	}

	p, err := strconv.ParseUint(port, 10, 16)
	if err != nil || p == 0 {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidPort, port)
	}

	return Address{Host: host, Port: uint16(p)}, nil
}

// LineSource is the read side of a line-oriented file
type LineSource interface {
	Exists() bool
	ReadLines() ([]string, error)
}

// LoadAddress reads and validates the first line of a server.info source
func LoadAddress(src LineSource) (Address, error) {
	if !src.Exists() {
		return Address{}, ErrNoAddress
	}

	lines, err := src.ReadLines()
	if err != nil {
		return Address{}, err
	}
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return Address{}, ErrNoAddress
	}

	return ParseAddress(lines[0])
}
