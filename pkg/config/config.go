// Package config loads the client configuration file. Every section is
// optional; missing values take the defaults below.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultServerInfo   = "server.info"
	defaultIdentityFile = "me.info"
	defaultDownloadsDir = "downloads"
	defaultLogLevel     = "warn"
	defaultLogFormat    = "console"
	defaultAPIAddress   = "127.0.0.1:8090"
)

// Paths locates the files the client reads and writes
type Paths struct {
	// ServerInfo holds the server address on its first line
	ServerInfo string

	// IdentityFile is written once on registration
	IdentityFile string

	// DownloadsDir receives incoming files
	DownloadsDir string

	// HistoryDB is the message history database. History is disabled
	// when empty.
	HistoryDB string
}

// Network is the transport configuration
type Network struct {
	// DialTimeout is the number of seconds a connection attempt may take.
	// Zero leaves it to the operating system.
	DialTimeout int
}

// Session configures key handling
type Session struct {
	// WrapSymmetricKey attaches generated symmetric keys to SEND_SYM_KEY
	// messages, encrypted to the recipient's public key
	WrapSymmetricKey bool

	// HistoryPassphrase derives the key that encrypts history content
	HistoryPassphrase string
}

// Rotation configures log file rotation
type Rotation struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Logging is the logging configuration
type Logging struct {
	// Level is one of debug, info, warn or error
	Level string

	// Format is console or json
	Format string

	// Outputs lists stdout, stderr or file paths
	Outputs []string

	Development bool
	Rotation    Rotation
}

// API is the local HTTP API configuration
type API struct {
	// Address is the loopback host:port the API binds to
	Address string
}

// Config is the top level client configuration
type Config struct {
	Paths   Paths
	Network Network
	Session Session
	Logging Logging
	API     API
}

// DialTimeout returns the configured dial timeout
func (c *Config) DialTimeout() time.Duration {
	return time.Duration(c.Network.DialTimeout) * time.Second
}

func (p *Paths) fixup() {
	if p.ServerInfo == "" {
		p.ServerInfo = defaultServerInfo
	}
	if p.IdentityFile == "" {
		p.IdentityFile = defaultIdentityFile
	}
	if p.DownloadsDir == "" {
		p.DownloadsDir = defaultDownloadsDir
	}
}

func (l *Logging) validate() error {
	lvl := strings.ToLower(strings.TrimSpace(l.Level))
	switch lvl {
	case "debug", "info", "warn", "error":
	case "":
		lvl = defaultLogLevel
	default:
		return fmt.Errorf("config: Logging: Level '%v' is invalid", l.Level)
	}
	l.Level = lvl

	switch strings.ToLower(l.Format) {
	case "console", "json":
		l.Format = strings.ToLower(l.Format)
	case "":
		l.Format = defaultLogFormat
	default:
		return fmt.Errorf("config: Logging: Format '%v' is invalid", l.Format)
	}

	if len(l.Outputs) == 0 {
		l.Outputs = []string{"stderr"}
	}
	return nil
}

func (a *API) validate() error {
	if a.Address == "" {
		a.Address = defaultAPIAddress
	}

	host, _, err := net.SplitHostPort(a.Address)
	if err != nil {
		return fmt.Errorf("config: API: Address '%v' is invalid: %v", a.Address, err)
	}
	if host == "localhost" {
		return nil
	}
	if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
		return fmt.Errorf("config: API: Address '%v' is not a loopback address", a.Address)
	}
	return nil
}

// FixupAndValidate applies defaults to config entries and validates the
// configuration sections.
func (c *Config) FixupAndValidate() error {
	c.Paths.fixup()

	if c.Network.DialTimeout < 0 {
		return errors.New("config: Network: DialTimeout is negative")
	}
	if c.Paths.HistoryDB == "" && c.Session.HistoryPassphrase != "" {
		return errors.New("config: Session: HistoryPassphrase is set but Paths.HistoryDB is empty")
	}
	if err := c.Logging.validate(); err != nil {
		return err
	}
	if err := c.API.validate(); err != nil {
		return err
	}

	return nil
}

// Default returns the configuration used when no file is given
func Default() *Config {
	cfg := new(Config)
	if err := cfg.FixupAndValidate(); err != nil {
		panic(err)
	}
	return cfg
}

// Load parses and validates the provided buffer b as a config file body and
// returns the Config.
func Load(b []byte) (*Config, error) {
	cfg := new(Config)
	md, err := toml.Decode(string(b), cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return nil, fmt.Errorf("config: Undecoded keys in config file: %v", undecoded)
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile loads, parses and validates the provided file and returns the
// Config.
func LoadFile(f string) (*Config, error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return nil, err
	}
	return Load(b)
}
