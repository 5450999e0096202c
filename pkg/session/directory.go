package session

import (
	"github.com/ZentaChain/zentalk-client/pkg/protocol"
)

// Peer is one known client. Keys are nil until learned.
type Peer struct {
	ID           protocol.ClientID
	Name         string
	PublicKey    []byte
	SymmetricKey []byte
}

// HasPublicKey reports whether the peer's public key is cached
func (p *Peer) HasPublicKey() bool {
	return len(p.PublicKey) == protocol.PublicKeySize
}

// HasSymmetricKey reports whether a symmetric key is cached for the peer
func (p *Peer) HasSymmetricKey() bool {
	return len(p.SymmetricKey) == protocol.SymmetricKeySize
}

// Directory caches the server's client list. A refresh replaces every
// entry, cached keys included.
type Directory struct {
	peers []*Peer
}

// NewDirectory returns an empty directory
func NewDirectory() *Directory {
	return &Directory{}
}

// Replace discards the cache and loads records in server order
func (d *Directory) Replace(records []protocol.ClientRecord) {
	peers := make([]*Peer, 0, len(records))
	for _, rec := range records {
		peers = append(peers, &Peer{ID: rec.ClientID, Name: rec.Name})
	}
	d.peers = peers
}

// Len returns the number of cached peers
func (d *Directory) Len() int {
	return len(d.peers)
}

// Peers returns a copy of the cached peers
func (d *Directory) Peers() []Peer {
	out := make([]Peer, len(d.peers))
	for i, p := range d.peers {
		out[i] = *p
	}
	return out
}

// ByName finds a peer by exact name
func (d *Directory) ByName(name string) (*Peer, bool) {
	for _, p := range d.peers {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// ByID finds a peer by id
func (d *Directory) ByID(id protocol.ClientID) (*Peer, bool) {
	for _, p := range d.peers {
		if p.ID.Equal(id) {
			return p, true
		}
	}
	return nil, false
}

// SetPublicKey caches key on the peer with the given id, falling back to a
// match by name. It reports whether a peer was updated; no peer is created.
func (d *Directory) SetPublicKey(id protocol.ClientID, name string, key []byte) bool {
	p, ok := d.ByID(id)
	if !ok {
		p, ok = d.ByName(name)
	}
	if !ok {
		return false
	}

	p.PublicKey = append([]byte(nil), key...)
	return true
}

// SetSymmetricKey caches key on the peer with the given id
func (d *Directory) SetSymmetricKey(id protocol.ClientID, key []byte) bool {
	p, ok := d.ByID(id)
	if !ok {
		return false
	}

	p.SymmetricKey = append([]byte(nil), key...)
	return true
}
