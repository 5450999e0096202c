package client

import (
	"bytes"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ZentaChain/zentalk-client/pkg/crypto"
	"github.com/ZentaChain/zentalk-client/pkg/network"
	"github.com/ZentaChain/zentalk-client/pkg/network/fakeserver"
	"github.com/ZentaChain/zentalk-client/pkg/protocol"
	"github.com/ZentaChain/zentalk-client/pkg/session"
	"github.com/ZentaChain/zentalk-client/pkg/storage"
)

type registeredClient struct {
	id        protocol.ClientID
	name      string
	publicKey []byte
}

// directoryServer behaves like the reference server: it excludes the
// requester from the client list and drains the inbox on GET_UNREAD
type directoryServer struct {
	mu      sync.Mutex
	clients []registeredClient
	inbox   map[protocol.ClientID][]protocol.MessageRecord
	nextID  uint32
}

func newDirectoryServer() *directoryServer {
	return &directoryServer{inbox: make(map[protocol.ClientID][]protocol.MessageRecord)}
}

func (s *directoryServer) find(name string) (registeredClient, bool) {
	for _, c := range s.clients {
		if c.name == name {
			return c, true
		}
	}
	return registeredClient{}, false
}

func (s *directoryServer) handle(req fakeserver.Request) fakeserver.Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch req.Header.Code {
	case protocol.OpRegister:
		var r protocol.RegisterRequest
		if r.Decode(req.Payload) != nil {
			return fakeserver.Reject()
		}
		if _, taken := s.find(r.Name); taken {
			return fakeserver.Reject()
		}
		id := protocol.ClientID{0xC0, byte(len(s.clients) + 1)}
		s.clients = append(s.clients, registeredClient{id: id, name: r.Name, publicKey: r.PublicKey})
		return fakeserver.Success(req, (&protocol.RegisterResponse{ClientID: id}).Encode())

	case protocol.OpListClients:
		var records []protocol.ClientRecord
		for _, c := range s.clients {
			if !c.id.Equal(req.Header.ClientID) {
				records = append(records, protocol.ClientRecord{ClientID: c.id, Name: c.name})
			}
		}
		return fakeserver.Success(req, protocol.EncodeClientList(records))

	case protocol.OpGetPublicKey:
		var r protocol.PublicKeyRequest
		if r.Decode(req.Payload) != nil {
			return fakeserver.Reject()
		}
		c, ok := s.find(r.Name)
		if !ok {
			return fakeserver.Reject()
		}
		resp := protocol.PublicKeyResponse{ClientID: c.id}
		copy(resp.PublicKey[:], c.publicKey)
		return fakeserver.Success(req, resp.Encode())

	case protocol.OpSendMessage:
		var r protocol.SendMessageRequest
		if r.Decode(req.Payload) != nil {
			return fakeserver.Reject()
		}
		s.nextID++
		s.inbox[r.Recipient] = append(s.inbox[r.Recipient], protocol.MessageRecord{
			From:      req.Header.ClientID,
			MessageID: s.nextID,
			Type:      r.Type,
			Content:   r.Content,
		})
		resp := protocol.MessageSentResponse{ClientID: r.Recipient, MessageID: s.nextID}
		return fakeserver.Success(req, resp.Encode())

	case protocol.OpGetUnread:
		records := s.inbox[req.Header.ClientID]
		delete(s.inbox, req.Header.ClientID)
		return fakeserver.Response{
			Code:         protocol.CodeGetUnreadSuccess,
			Payload:      protocol.EncodeMessageRecords(records),
			UnpaddedTail: true,
		}
	}

	return fakeserver.Reject()
}

type memHistory struct {
	mu       sync.Mutex
	messages []*storage.StoredMessage
}

func (h *memHistory) SaveMessage(msg *storage.StoredMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
	return nil
}

func (h *memHistory) RecentMessages(limit int) ([]*storage.StoredMessage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit > len(h.messages) {
		limit = len(h.messages)
	}
	return h.messages[len(h.messages)-limit:], nil
}

func (h *memHistory) PeerMessages(peerID string, limit, offset int) ([]*storage.StoredMessage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []*storage.StoredMessage
	for i := len(h.messages) - 1; i >= 0; i-- {
		if h.messages[i].PeerID == peerID {
			out = append(out, h.messages[i])
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func startServer(t *testing.T, handler fakeserver.Handler) *fakeserver.Server {
	t.Helper()

	srv, err := fakeserver.New(handler)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return srv
}

// newTestDispatcher returns a dispatcher with its identity file in a fresh
// temp dir
func newTestDispatcher(t *testing.T, srv *fakeserver.Server, opts Options) (*Dispatcher, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "me.info")
	store := session.NewIdentityStore(storage.NewLineFile(path), crypto.Provider{})
	if opts.DownloadsDir == "" {
		opts.DownloadsDir = filepath.Join(dir, "downloads")
	}

	ex := network.NewClient(srv.Address(), network.Options{DialTimeout: time.Second})
	return New(ex, crypto.Provider{}, store, opts), path
}

// withIdentity installs an identity without talking to the server
func withIdentity(t *testing.T, d *Dispatcher, name string, id protocol.ClientID) {
	t.Helper()

	identity, err := session.NewIdentity(name, crypto.Provider{})
	require.NoError(t, err)
	identity.ID = id
	d.identity = identity
}

func symmetricKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, protocol.SymmetricKeySize)
}
