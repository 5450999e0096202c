// Package client runs user actions against the directory server. Each
// action performs its protocol exchanges in order, one connection per
// exchange, and only touches session state after a validated response.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ZentaChain/zentalk-client/pkg/protocol"
	"github.com/ZentaChain/zentalk-client/pkg/session"
	"github.com/ZentaChain/zentalk-client/pkg/storage"
)

var (
	ErrNotRegistered        = errors.New("not registered, register first")
	ErrAlreadyRegistered    = errors.New("already registered")
	ErrUnknownPeer          = errors.New("no user by this name")
	ErrSelfSend             = errors.New("can not send messages to yourself")
	ErrNoSymmetricKey       = errors.New("no symmetric key for this user")
	ErrNoPublicKey          = errors.New("no public key for this user")
	ErrInvalidSymmetricKey  = errors.New("symmetric key must be 32 hex characters")
	ErrEmptyMessage         = errors.New("message is empty")
	ErrFileTooLarge         = errors.New("file too large")
	ErrUnknownMessageType   = errors.New("unknown message type")
	ErrHistoryDisabled      = errors.New("message history is not enabled")
	ErrUnexpectedRecipient  = errors.New("server acknowledged a different recipient")
	ErrSymmetricKeyTooShort = errors.New("received symmetric key has invalid length")
)

// Exchanger carries one encoded request to the server and returns the
// validated response
type Exchanger interface {
	Exchange(ctx context.Context, request []byte) (*protocol.ResponseHeader, []byte, error)
}

// History records sent and received messages
type History interface {
	SaveMessage(msg *storage.StoredMessage) error
	RecentMessages(limit int) ([]*storage.StoredMessage, error)
	PeerMessages(peerID string, limit, offset int) ([]*storage.StoredMessage, error)
}

// Options configures a Dispatcher
type Options struct {
	// DownloadsDir receives decrypted incoming files
	DownloadsDir string

	// WrapSymmetricKey attaches a generated symmetric key to the
	// SEND_SYM_KEY message, encrypted to the peer's public key. When
	// false the message carries no content.
	WrapSymmetricKey bool

	// History is optional
	History History

	Logger *zap.Logger
}

// Dispatcher holds the session state of one client process
type Dispatcher struct {
	exchanger Exchanger
	crypto    session.Crypto
	store     *session.IdentityStore
	directory *session.Directory
	identity  *session.Identity
	opts      Options
	log       *zap.Logger
	now       func() time.Time
}

// New creates a dispatcher in the unregistered state
func New(ex Exchanger, c session.Crypto, store *session.IdentityStore, opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DownloadsDir == "" {
		opts.DownloadsDir = "."
	}

	return &Dispatcher{
		exchanger: ex,
		crypto:    c,
		store:     store,
		directory: session.NewDirectory(),
		opts:      opts,
		log:       logger.Named("client"),
		now:       time.Now,
	}
}

// LoadIdentity moves to the registered state when a saved identity exists.
// It reports whether one was loaded. A file that exists but does not load is
// an error the caller should treat as fatal.
func (d *Dispatcher) LoadIdentity() (bool, error) {
	if !d.store.Exists() {
		return false, nil
	}

	identity, err := d.store.Load()
	if err != nil {
		return false, err
	}

	d.identity = identity
	d.log.Info("identity loaded", zap.String("name", identity.Name), zap.Stringer("id", identity.ID))
	return true, nil
}

// Registered reports whether the client has an identity
func (d *Dispatcher) Registered() bool {
	return d.identity != nil
}

// Identity returns the current identity, nil before registration
func (d *Dispatcher) Identity() *session.Identity {
	return d.identity
}

// Peers returns the cached directory without contacting the server
func (d *Dispatcher) Peers() []session.Peer {
	return d.directory.Peers()
}

func (d *Dispatcher) requireRegistered(op string) error {
	if d.identity == nil {
		return protocol.NewError(protocol.KindValidation, op, ErrNotRegistered)
	}
	return nil
}

// roundTrip encodes req from the current identity and runs one exchange
func (d *Dispatcher) roundTrip(ctx context.Context, op string, req protocol.Request) ([]byte, error) {
	var sender protocol.ClientID
	if d.identity != nil {
		sender = d.identity.ID
	}

	buf, err := protocol.EncodeRequest(sender, req)
	if err != nil {
		return nil, protocol.NewError(protocol.KindValidation, op, err)
	}

	_, payload, err := d.exchanger.Exchange(ctx, buf)
	if err != nil {
		return nil, err
	}

	return payload, nil
}

func (d *Dispatcher) record(msg *storage.StoredMessage) {
	if d.opts.History == nil {
		return
	}
	if err := d.opts.History.SaveMessage(msg); err != nil {
		d.log.Warn("failed to record message", zap.String("peer", msg.PeerID), zap.Error(err))
	}
}

// History returns the newest recorded messages
func (d *Dispatcher) History(limit int) ([]*storage.StoredMessage, error) {
	const op = "history"

	if err := d.requireRegistered(op); err != nil {
		return nil, err
	}
	if d.opts.History == nil {
		return nil, protocol.NewError(protocol.KindValidation, op, ErrHistoryDisabled)
	}
	if limit <= 0 {
		limit = 20
	}

	msgs, err := d.opts.History.RecentMessages(limit)
	if err != nil {
		return nil, protocol.NewError(protocol.KindStorage, op, err)
	}
	return msgs, nil
}

// PeerHistory returns the messages exchanged with one peer, newest first.
// peer is a cached name or a hex client id, so history stays reachable
// after a restart empties the directory.
func (d *Dispatcher) PeerHistory(peer string, limit, offset int) ([]*storage.StoredMessage, error) {
	const op = "peer history"

	if err := d.requireRegistered(op); err != nil {
		return nil, err
	}
	if d.opts.History == nil {
		return nil, protocol.NewError(protocol.KindValidation, op, ErrHistoryDisabled)
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var id protocol.ClientID
	if p, ok := d.directory.ByName(peer); ok {
		id = p.ID
	} else if parsed, err := protocol.ParseClientID(peer); err == nil {
		id = parsed
	} else {
		return nil, protocol.NewError(protocol.KindValidation, op, fmt.Errorf("%w: %q", ErrUnknownPeer, peer))
	}

	msgs, err := d.opts.History.PeerMessages(id.String(), limit, offset)
	if err != nil {
		return nil, protocol.NewError(protocol.KindStorage, op, err)
	}
	return msgs, nil
}
