package storage

import (
	"database/sql"
	"fmt"

	"github.com/ZentaChain/zentalk-client/pkg/crypto"
)

// ===== MESSAGE OPERATIONS =====

const selectMessage = `
	SELECT id, peer_id, peer_name, message_id, content, content_type,
	       timestamp, status, is_outgoing
	FROM messages
`

// SaveMessage stores a message in the database
func (db *MessageDB) SaveMessage(msg *StoredMessage) error {
	encryptedContent, err := crypto.AESEncrypt(msg.Content, db.encryptionKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt content: %v", err)
	}

	query := `
		INSERT INTO messages (
			peer_id, peer_name, message_id, content, content_type,
			timestamp, status, is_outgoing
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := db.db.Exec(
		query,
		msg.PeerID,
		msg.PeerName,
		msg.MessageID,
		encryptedContent,
		msg.ContentType,
		msg.Timestamp,
		msg.Status,
		boolToInt(msg.IsOutgoing),
	)
	if err != nil {
		return fmt.Errorf("failed to save message: %v", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	msg.ID = id
	return nil
}

// RecentMessages returns the newest messages across all peers, newest first
func (db *MessageDB) RecentMessages(limit int) ([]*StoredMessage, error) {
	rows, err := db.db.Query(selectMessage+` ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return db.scanMessages(rows)
}

// PeerMessages returns the messages exchanged with one peer, newest first
func (db *MessageDB) PeerMessages(peerID string, limit, offset int) ([]*StoredMessage, error) {
	query := selectMessage + `
		WHERE peer_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := db.db.Query(query, peerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return db.scanMessages(rows)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func (db *MessageDB) scanMessage(row rowScanner) (*StoredMessage, error) {
	var msg StoredMessage
	var encryptedContent []byte
	var isOutgoing int

	err := row.Scan(
		&msg.ID,
		&msg.PeerID,
		&msg.PeerName,
		&msg.MessageID,
		&encryptedContent,
		&msg.ContentType,
		&msg.Timestamp,
		&msg.Status,
		&isOutgoing,
	)
	if err != nil {
		return nil, err
	}

	msg.IsOutgoing = intToBool(isOutgoing)

	msg.Content, err = crypto.AESDecrypt(encryptedContent, db.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt content: %v", err)
	}

	return &msg, nil
}

func (db *MessageDB) scanMessages(rows *sql.Rows) ([]*StoredMessage, error) {
	var messages []*StoredMessage

	for rows.Next() {
		msg, err := db.scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}
