package session

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZentaChain/zentalk-client/pkg/crypto"
	"github.com/ZentaChain/zentalk-client/pkg/protocol"
)

type memLines struct {
	lines   []string
	written bool
	failErr error
}

func (m *memLines) Exists() bool { return m.written }

func (m *memLines) ReadLines() ([]string, error) {
	return append([]string(nil), m.lines...), nil
}

func (m *memLines) WriteLines(lines []string) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.lines = append(m.lines, lines...)
	m.written = true
	return nil
}

func TestIdentityStoreRoundTrip(t *testing.T) {
	c := crypto.Provider{}
	identity, err := NewIdentity("alice", c)
	require.NoError(t, err)
	identity.ID = protocol.ClientID{0x01, 0x02, 0xAB}

	file := &memLines{}
	store := NewIdentityStore(file, c)
	require.NoError(t, store.Save(identity))

	require.GreaterOrEqual(t, len(file.lines), 3)
	assert.Equal(t, "alice", file.lines[0])
	assert.Equal(t, "0102AB00000000000000000000000000", file.lines[1])
	for _, line := range file.lines[2:] {
		assert.LessOrEqual(t, len(line), Base64LineWidth)
	}

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, identity.ID, loaded.ID)
	assert.Equal(t, identity.Name, loaded.Name)
	assert.Equal(t, identity.PrivateKey, loaded.PrivateKey)
	assert.Equal(t, identity.PublicKey, loaded.PublicKey)
}

func TestIdentityStoreKeepsNameWhitespace(t *testing.T) {
	c := crypto.Provider{}
	identity, err := NewIdentity(" bob\t", c)
	require.NoError(t, err)
	identity.ID = protocol.ClientID{0x0F}

	file := &memLines{}
	store := NewIdentityStore(file, c)
	require.NoError(t, store.Save(identity))
	assert.Equal(t, identity.ID.String(), file.lines[1])

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, " bob\t", loaded.Name)
}

func TestIdentityStoreRefusesOverwrite(t *testing.T) {
	file := &memLines{lines: []string{"bob"}, written: true}
	store := NewIdentityStore(file, crypto.Provider{})

	err := store.Save(&Identity{Name: "alice"})
	assert.ErrorIs(t, err, ErrIdentityExists)
	assert.True(t, protocol.IsKind(err, protocol.KindStorage))
	assert.Equal(t, []string{"bob"}, file.lines)
}

func TestIdentityStoreLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		wantKind protocol.ErrorKind
		wantErr  error
	}{
		{"too few lines", []string{"alice", "0101"}, protocol.KindStorage, ErrMalformedIdentity},
		{"bad id", []string{"alice", "zz", "AAAA"}, protocol.KindStorage, ErrMalformedIdentity},
		{"short id", []string{"alice", "0101", "AAAA"}, protocol.KindStorage, ErrMalformedIdentity},
		{"bad name", []string{"", strings.Repeat("01", 16), "AAAA"}, protocol.KindStorage, ErrMalformedIdentity},
		{"bad base64", []string{"alice", strings.Repeat("01", 16), "!!!"}, protocol.KindCrypto, ErrMalformedIdentity},
		{"not a key", []string{"alice", strings.Repeat("01", 16), "QUJDRA=="}, protocol.KindCrypto, crypto.ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewIdentityStore(&memLines{lines: tt.lines, written: true}, crypto.Provider{})
			_, err := store.Load()
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, protocol.KindOf(err))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := NewIdentityStore(&memLines{}, crypto.Provider{}).Load()
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestIdentityStoreSaveFailure(t *testing.T) {
	store := NewIdentityStore(&memLines{failErr: errors.New("disk full")}, crypto.Provider{})

	err := store.Save(&Identity{Name: "alice", PrivateKey: []byte{1}})
	assert.True(t, protocol.IsKind(err, protocol.KindStorage))
}

func TestNewIdentityRejectsBadName(t *testing.T) {
	_, err := NewIdentity("no-dashes", crypto.Provider{})
	assert.True(t, protocol.IsKind(err, protocol.KindValidation))
	assert.ErrorIs(t, err, protocol.ErrInvalidName)
}

func TestWrapLines(t *testing.T) {
	assert.Equal(t, []string{""}, wrapLines("", 4))
	assert.Equal(t, []string{"abcd"}, wrapLines("abcd", 4))
	assert.Equal(t, []string{"abcd", "ef"}, wrapLines("abcdef", 4))
}

func TestDirectory(t *testing.T) {
	d := NewDirectory()
	alice := protocol.ClientID{1}
	bob := protocol.ClientID{2}

	d.Replace([]protocol.ClientRecord{{ClientID: alice, Name: "alice"}, {ClientID: bob, Name: "bob"}})
	require.Equal(t, 2, d.Len())

	p, ok := d.ByName("bob")
	require.True(t, ok)
	assert.Equal(t, bob, p.ID)

	_, ok = d.ByName("Bob")
	assert.False(t, ok, "name lookup is exact")

	key := bytes.Repeat([]byte{7}, protocol.PublicKeySize)
	assert.True(t, d.SetPublicKey(bob, "", key))
	assert.True(t, d.SetPublicKey(protocol.ClientID{9}, "alice", key), "falls back to name")
	assert.False(t, d.SetPublicKey(protocol.ClientID{9}, "carol", key))
	assert.Equal(t, 2, d.Len(), "no record created on a miss")

	sym := bytes.Repeat([]byte{5}, protocol.SymmetricKeySize)
	assert.True(t, d.SetSymmetricKey(alice, sym))
	assert.False(t, d.SetSymmetricKey(protocol.ClientID{9}, sym))

	p, _ = d.ByID(alice)
	assert.True(t, p.HasPublicKey())
	assert.True(t, p.HasSymmetricKey())

	// A refresh drops cached keys
	d.Replace([]protocol.ClientRecord{{ClientID: alice, Name: "alice"}})
	p, _ = d.ByID(alice)
	assert.False(t, p.HasPublicKey())
	assert.False(t, p.HasSymmetricKey())
	assert.Equal(t, 1, d.Len())
}

func TestDirectoryPeersCopy(t *testing.T) {
	d := NewDirectory()
	d.Replace([]protocol.ClientRecord{{ClientID: protocol.ClientID{1}, Name: "alice"}})

	peers := d.Peers()
	peers[0].Name = "mallory"

	p, _ := d.ByID(protocol.ClientID{1})
	assert.Equal(t, "alice", p.Name)
}
