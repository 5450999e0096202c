package client

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ZentaChain/zentalk-client/pkg/crypto"
	"github.com/ZentaChain/zentalk-client/pkg/protocol"
	"github.com/ZentaChain/zentalk-client/pkg/session"
)

// PublicKeyResult is the outcome of a public key lookup
type PublicKeyResult struct {
	ID          protocol.ClientID
	Name        string
	PublicKey   []byte
	Fingerprint string

	// Cached is false when no directory entry matched, in which case the
	// key is returned but not stored
	Cached bool
}

// Register generates a key pair, registers name with the server and saves
// the identity. A save failure is returned but the client stays registered
// for this session.
func (d *Dispatcher) Register(ctx context.Context, name string) (*session.Identity, error) {
	const op = "register"

	if d.identity != nil || d.store.Exists() {
		return nil, protocol.NewError(protocol.KindValidation, op, ErrAlreadyRegistered)
	}

	identity, err := session.NewIdentity(name, d.crypto)
	if err != nil {
		return nil, err
	}

	payload, err := d.roundTrip(ctx, op, &protocol.RegisterRequest{
		Name:      identity.Name,
		PublicKey: identity.PublicKey,
	})
	if err != nil {
		return nil, err
	}

	var resp protocol.RegisterResponse
	if err := resp.Decode(payload); err != nil {
		return nil, protocol.NewError(protocol.KindProtocol, op, err)
	}

	identity.ID = resp.ClientID
	d.identity = identity
	d.log.Info("registered", zap.String("name", identity.Name), zap.Stringer("id", identity.ID))

	if err := d.store.Save(identity); err != nil {
		d.log.Error("failed to save identity", zap.Error(err))
		return identity, err
	}

	return identity, nil
}

// ListPeers replaces the directory with the server's client list
func (d *Dispatcher) ListPeers(ctx context.Context) ([]session.Peer, error) {
	const op = "list clients"

	if err := d.requireRegistered(op); err != nil {
		return nil, err
	}

	if err := d.refresh(ctx, op); err != nil {
		return nil, err
	}

	return d.directory.Peers(), nil
}

func (d *Dispatcher) refresh(ctx context.Context, op string) error {
	payload, err := d.roundTrip(ctx, op, &protocol.ListClientsRequest{})
	if err != nil {
		return err
	}

	records, err := protocol.DecodeClientList(payload)
	if err != nil {
		return protocol.NewError(protocol.KindProtocol, op, err)
	}

	d.directory.Replace(records)
	d.log.Debug("directory refreshed", zap.Int("peers", len(records)))
	return nil
}

// GetPublicKey fetches the public key registered under name and caches it
// on the matching directory entry
func (d *Dispatcher) GetPublicKey(ctx context.Context, name string) (*PublicKeyResult, error) {
	const op = "get public key"

	if err := d.requireRegistered(op); err != nil {
		return nil, err
	}

	return d.fetchPublicKey(ctx, op, name)
}

func (d *Dispatcher) fetchPublicKey(ctx context.Context, op, name string) (*PublicKeyResult, error) {
	if err := protocol.ValidateName(name); err != nil {
		return nil, protocol.NewError(protocol.KindValidation, op, err)
	}

	payload, err := d.roundTrip(ctx, op, &protocol.PublicKeyRequest{Name: name})
	if err != nil {
		return nil, err
	}

	var resp protocol.PublicKeyResponse
	if err := resp.Decode(payload); err != nil {
		return nil, protocol.NewError(protocol.KindProtocol, op, err)
	}

	key := append([]byte(nil), resp.PublicKey[:]...)
	result := &PublicKeyResult{
		ID:          resp.ClientID,
		Name:        name,
		PublicKey:   key,
		Fingerprint: crypto.Fingerprint(key),
		Cached:      d.directory.SetPublicKey(resp.ClientID, name, key),
	}

	if !result.Cached {
		d.log.Debug("public key not cached, peer not in directory",
			zap.String("name", name), zap.Stringer("id", resp.ClientID))
	}

	return result, nil
}

// cachedPeer finds name in the directory without touching the network. A nil
// peer with a nil error means name is not cached.
func (d *Dispatcher) cachedPeer(op, name string) (*session.Peer, error) {
	if err := protocol.ValidateName(name); err != nil {
		return nil, protocol.NewError(protocol.KindValidation, op, err)
	}
	if name == d.identity.Name {
		return nil, protocol.NewError(protocol.KindValidation, op, ErrSelfSend)
	}

	if peer, ok := d.directory.ByName(name); ok {
		return d.checkNotSelf(op, peer)
	}
	return nil, nil
}

// resolvePeer finds name in the directory, refreshing it once on a miss
func (d *Dispatcher) resolvePeer(ctx context.Context, op, name string) (*session.Peer, error) {
	peer, err := d.cachedPeer(op, name)
	if err != nil || peer != nil {
		return peer, err
	}

	if err := d.refresh(ctx, op); err != nil {
		return nil, err
	}

	peer, ok := d.directory.ByName(name)
	if !ok {
		return nil, protocol.NewError(protocol.KindValidation, op, fmt.Errorf("%w: %q", ErrUnknownPeer, name))
	}
	return d.checkNotSelf(op, peer)
}

func (d *Dispatcher) checkNotSelf(op string, peer *session.Peer) (*session.Peer, error) {
	if peer.ID.Equal(d.identity.ID) {
		return nil, protocol.NewError(protocol.KindValidation, op, ErrSelfSend)
	}
	return peer, nil
}
