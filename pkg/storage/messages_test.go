package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T, password string) (*MessageDB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")

	db, err := NewMessageDB(path, password)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db, path
}

func TestSaveAndReadMessage(t *testing.T) {
	db, _ := openTestDB(t, "secret")

	msg := &StoredMessage{
		PeerID:      "0101",
		PeerName:    "bob",
		MessageID:   42,
		Content:     []byte("hello bob"),
		ContentType: 3,
		Timestamp:   1000,
		Status:      MessageStatusSent,
		IsOutgoing:  true,
	}
	require.NoError(t, db.SaveMessage(msg))
	assert.NotZero(t, msg.ID)

	got, err := db.RecentMessages(10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, msg, got[0])
}

func TestEmptyHistory(t *testing.T) {
	db, _ := openTestDB(t, "")

	recent, err := db.RecentMessages(10)
	require.NoError(t, err)
	assert.Empty(t, recent)

	peer, err := db.PeerMessages("aa", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, peer)
}

func TestRecentAndPeerMessages(t *testing.T) {
	db, _ := openTestDB(t, "")

	for i, peer := range []string{"aa", "bb", "aa", "cc", "aa"} {
		require.NoError(t, db.SaveMessage(&StoredMessage{
			PeerID:      peer,
			Content:     []byte{byte(i)},
			ContentType: 3,
			Timestamp:   int64(100 + i),
			Status:      MessageStatusReceived,
		}))
	}

	recent, err := db.RecentMessages(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(104), recent[0].Timestamp)
	assert.Equal(t, int64(103), recent[1].Timestamp)

	peer, err := db.PeerMessages("aa", 10, 0)
	require.NoError(t, err)
	require.Len(t, peer, 3)
	assert.Equal(t, []byte{4}, peer[0].Content)
	assert.Equal(t, []byte{0}, peer[2].Content)

	page, err := db.PeerMessages("aa", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, []byte{2}, page[0].Content)
}

func TestContentEncryptedAtRest(t *testing.T) {
	db, path := openTestDB(t, "right")
	require.NoError(t, db.SaveMessage(&StoredMessage{
		PeerID:    "aa",
		Content:   []byte("private words"),
		Timestamp: 1,
		Status:    MessageStatusReceived,
	}))

	var raw []byte
	require.NoError(t, db.db.QueryRow(`SELECT content FROM messages`).Scan(&raw))
	assert.NotContains(t, string(raw), "private words")

	other, err := NewMessageDB(path, "wrong")
	require.NoError(t, err)
	defer other.Close()

	// A wrong passphrase shows up as a decryption failure or as garbage
	msgs, err := other.RecentMessages(1)
	if err == nil {
		require.Len(t, msgs, 1)
		assert.NotEqual(t, "private words", string(msgs[0].Content))
	}
}
