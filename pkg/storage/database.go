package storage

import (
	"crypto/sha256"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// MessageStatus records what happened to a stored message
type MessageStatus string

const (
	MessageStatusSent        MessageStatus = "sent"
	MessageStatusReceived    MessageStatus = "received"
	MessageStatusUndecrypted MessageStatus = "undecrypted"
)

// MessageDB is the local message history, content encrypted at rest
type MessageDB struct {
	db            *sql.DB
	encryptionKey []byte // Derived from the history passphrase
}

// StoredMessage is one history entry
type StoredMessage struct {
	ID          int64
	PeerID      string // Hex client id of the other party
	PeerName    string
	MessageID   uint32 // Server-assigned id, zero when unknown
	Content     []byte
	ContentType uint8
	Timestamp   int64
	Status      MessageStatus
	IsOutgoing  bool
}

// NewMessageDB opens or creates the history database at dbPath
func NewMessageDB(dbPath string, password string) (*MessageDB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %v", err)
	}

	mdb := &MessageDB{
		db:            db,
		encryptionKey: deriveKey(password),
	}

	if err := mdb.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return mdb, nil
}

// deriveKey derives the at-rest key from the passphrase
func deriveKey(password string) []byte {
	hash := sha256.Sum256([]byte(password))
	return hash[:]
}

func (db *MessageDB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		peer_id TEXT NOT NULL,
		peer_name TEXT NOT NULL DEFAULT '',
		message_id INTEGER NOT NULL DEFAULT 0,
		content BLOB NOT NULL,
		content_type INTEGER NOT NULL,
		timestamp INTEGER NOT NULL,
		status TEXT NOT NULL,
		is_outgoing INTEGER NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_messages_peer ON messages(peer_id, timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp DESC);
	`

	_, err := db.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %v", err)
	}

	return nil
}

// Close closes the database connection
func (db *MessageDB) Close() error {
	return db.db.Close()
}
