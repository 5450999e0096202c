package client

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ZentaChain/zentalk-client/pkg/protocol"
	"github.com/ZentaChain/zentalk-client/pkg/session"
	"github.com/ZentaChain/zentalk-client/pkg/storage"
)

// SendResult is the server's acknowledgement of a stored message
type SendResult struct {
	To        protocol.ClientID
	ToName    string
	MessageID uint32
	Type      uint8
}

// ReceivedMessage is one unread message after decryption. Err is set when
// the message could not be processed; other messages are unaffected.
type ReceivedMessage struct {
	From      protocol.ClientID
	FromName  string // Empty when the sender is not in the directory
	MessageID uint32
	Type      uint8
	Text      string
	FilePath  string
	Err       error
}

// Sender returns the sender's name, or the hex id when unknown
func (m *ReceivedMessage) Sender() string {
	if m.FromName != "" {
		return m.FromName
	}
	return m.From.String()
}

// SendText encrypts text with the peer's symmetric key and sends it
func (d *Dispatcher) SendText(ctx context.Context, name, text string) (*SendResult, error) {
	const op = "send text"

	if err := d.requireRegistered(op); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, protocol.NewError(protocol.KindValidation, op, ErrEmptyMessage)
	}

	return d.sendEncrypted(ctx, op, name, protocol.MsgTypeText, []byte(text))
}

// SendFile encrypts the contents of path with the peer's symmetric key and
// sends it
func (d *Dispatcher) SendFile(ctx context.Context, name, path string) (*SendResult, error) {
	const op = "send file"

	if err := d.requireRegistered(op); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, protocol.NewError(protocol.KindValidation, op, err)
	}
	// Leave room for padding and the record header on the receiving side
	if info.Size() > protocol.MaxPayloadSize-protocol.MessageRecordHeaderSize-16 {
		return nil, protocol.NewError(protocol.KindValidation, op, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, info.Size()))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, protocol.NewError(protocol.KindStorage, op, err)
	}

	return d.sendEncrypted(ctx, op, name, protocol.MsgTypeFile, data)
}

// sendEncrypted never refreshes the directory: a refresh drops every cached
// key, so a peer missing from the cache can not have one.
func (d *Dispatcher) sendEncrypted(ctx context.Context, op, name string, msgType uint8, plaintext []byte) (*SendResult, error) {
	peer, err := d.cachedPeer(op, name)
	if err != nil {
		return nil, err
	}
	if peer == nil || !peer.HasSymmetricKey() {
		return nil, protocol.NewError(protocol.KindValidation, op, fmt.Errorf("%w: %s", ErrNoSymmetricKey, name))
	}

	content, err := d.crypto.EncryptSymmetric(peer.SymmetricKey, plaintext)
	if err != nil {
		return nil, protocol.NewError(protocol.KindCrypto, op, err)
	}

	result, err := d.send(ctx, op, peer, msgType, content)
	if err != nil {
		return nil, err
	}

	d.record(&storage.StoredMessage{
		PeerID:      peer.ID.String(),
		PeerName:    peer.Name,
		MessageID:   result.MessageID,
		Content:     plaintext,
		ContentType: msgType,
		Timestamp:   d.now().Unix(),
		Status:      storage.MessageStatusSent,
		IsOutgoing:  true,
	})

	return result, nil
}

// RequestSymmetricKey asks a peer to send a symmetric key
func (d *Dispatcher) RequestSymmetricKey(ctx context.Context, name string) (*SendResult, error) {
	const op = "request symmetric key"

	if err := d.requireRegistered(op); err != nil {
		return nil, err
	}

	peer, err := d.resolvePeer(ctx, op, name)
	if err != nil {
		return nil, err
	}

	return d.send(ctx, op, peer, protocol.MsgTypeRequestSymKey, []byte(protocol.SymKeyRequestText))
}

// SendSymmetricKey generates a symmetric key for a peer and announces it.
// The peer's public key is fetched first when it is not cached. The key is
// attached, encrypted to the peer, only when WrapSymmetricKey is set. It is
// cached once the server accepts the message.
func (d *Dispatcher) SendSymmetricKey(ctx context.Context, name string) ([]byte, *SendResult, error) {
	const op = "send symmetric key"

	if err := d.requireRegistered(op); err != nil {
		return nil, nil, err
	}

	peer, err := d.resolvePeer(ctx, op, name)
	if err != nil {
		return nil, nil, err
	}

	if !peer.HasPublicKey() {
		if _, err := d.fetchPublicKey(ctx, op, name); err != nil {
			return nil, nil, err
		}
		if !peer.HasPublicKey() {
			return nil, nil, protocol.NewError(protocol.KindProtocol, op, ErrNoPublicKey)
		}
	}

	key, err := d.crypto.GenerateSymmetricKey()
	if err != nil {
		return nil, nil, protocol.NewError(protocol.KindCrypto, op, err)
	}

	var content []byte
	if d.opts.WrapSymmetricKey {
		content, err = d.crypto.EncryptAsymmetric(peer.PublicKey, key)
		if err != nil {
			return nil, nil, protocol.NewError(protocol.KindCrypto, op, err)
		}
	}

	result, err := d.send(ctx, op, peer, protocol.MsgTypeSendSymKey, content)
	if err != nil {
		return nil, nil, err
	}

	d.directory.SetSymmetricKey(peer.ID, key)
	return key, result, nil
}

// LoadSymmetricKey caches a key received out of band, given as hex
func (d *Dispatcher) LoadSymmetricKey(ctx context.Context, name, hexKey string) error {
	const op = "load symmetric key"

	if err := d.requireRegistered(op); err != nil {
		return err
	}

	key, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil || len(key) != protocol.SymmetricKeySize {
		return protocol.NewError(protocol.KindValidation, op, ErrInvalidSymmetricKey)
	}

	peer, err := d.resolvePeer(ctx, op, name)
	if err != nil {
		return err
	}

	d.directory.SetSymmetricKey(peer.ID, key)
	return nil
}

func (d *Dispatcher) send(ctx context.Context, op string, peer *session.Peer, msgType uint8, content []byte) (*SendResult, error) {
	payload, err := d.roundTrip(ctx, op, &protocol.SendMessageRequest{
		Recipient: peer.ID,
		Type:      msgType,
		Content:   content,
	})
	if err != nil {
		return nil, err
	}

	var resp protocol.MessageSentResponse
	if err := resp.Decode(payload); err != nil {
		return nil, protocol.NewError(protocol.KindProtocol, op, err)
	}
	if !resp.ClientID.Equal(peer.ID) {
		return nil, protocol.NewError(protocol.KindProtocol, op, ErrUnexpectedRecipient)
	}

	d.log.Debug("message sent",
		zap.String("to", peer.Name),
		zap.String("type", protocol.MessageTypeName(msgType)),
		zap.Uint32("message_id", resp.MessageID))

	return &SendResult{
		To:        peer.ID,
		ToName:    peer.Name,
		MessageID: resp.MessageID,
		Type:      msgType,
	}, nil
}

// GetUnread fetches and processes waiting messages. The payload is decoded
// in full before any message is processed, so a malformed payload reports
// nothing.
func (d *Dispatcher) GetUnread(ctx context.Context) ([]ReceivedMessage, error) {
	const op = "get unread"

	if err := d.requireRegistered(op); err != nil {
		return nil, err
	}

	payload, err := d.roundTrip(ctx, op, &protocol.UnreadMessagesRequest{})
	if err != nil {
		return nil, err
	}

	records, err := protocol.DecodeUnreadMessages(payload)
	if err != nil {
		return nil, protocol.NewError(protocol.KindProtocol, op, err)
	}

	messages := make([]ReceivedMessage, 0, len(records))
	for _, rec := range records {
		msg := d.receive(rec)
		if msg.Err != nil {
			d.log.Warn("failed to process message",
				zap.String("from", msg.Sender()),
				zap.Uint32("message_id", msg.MessageID),
				zap.Error(msg.Err))
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

func (d *Dispatcher) receive(rec protocol.MessageRecord) ReceivedMessage {
	const op = "get unread"

	msg := ReceivedMessage{
		From:      rec.From,
		MessageID: rec.MessageID,
		Type:      rec.Type,
	}

	peer, known := d.directory.ByID(rec.From)
	if known {
		msg.FromName = peer.Name
	}

	stored := &storage.StoredMessage{
		PeerID:      rec.From.String(),
		PeerName:    msg.FromName,
		MessageID:   rec.MessageID,
		ContentType: rec.Type,
		Timestamp:   d.now().Unix(),
		Status:      storage.MessageStatusReceived,
	}

	switch rec.Type {
	case protocol.MsgTypeRequestSymKey:
		msg.Text = string(rec.Content)
		stored.Content = rec.Content

	case protocol.MsgTypeSendSymKey:
		msg.Text = "symmetric key received"
		if !known {
			msg.Err = protocol.NewError(protocol.KindValidation, op, ErrUnknownPeer)
			break
		}
		key, err := d.crypto.DecryptAsymmetric(d.identity.PrivateKey, rec.Content)
		if err != nil {
			msg.Err = protocol.NewError(protocol.KindCrypto, op, err)
			break
		}
		if len(key) != protocol.SymmetricKeySize {
			msg.Err = protocol.NewError(protocol.KindCrypto, op, ErrSymmetricKeyTooShort)
			break
		}
		d.directory.SetSymmetricKey(peer.ID, key)

	case protocol.MsgTypeText, protocol.MsgTypeFile:
		if !known || !peer.HasSymmetricKey() {
			msg.Err = protocol.NewError(protocol.KindValidation, op, ErrNoSymmetricKey)
			stored.Status = storage.MessageStatusUndecrypted
			break
		}
		plaintext, err := d.crypto.DecryptSymmetric(peer.SymmetricKey, rec.Content)
		if err != nil {
			msg.Err = protocol.NewError(protocol.KindCrypto, op, err)
			stored.Status = storage.MessageStatusUndecrypted
			break
		}
		stored.Content = plaintext

		if rec.Type == protocol.MsgTypeText {
			msg.Text = string(plaintext)
			break
		}
		path, err := d.saveDownload(msg.Sender(), rec.MessageID, plaintext)
		if err != nil {
			msg.Err = protocol.NewError(protocol.KindStorage, op, err)
			break
		}
		msg.FilePath = path

	default:
		msg.Err = protocol.NewError(protocol.KindProtocol, op, fmt.Errorf("%w: %d", ErrUnknownMessageType, rec.Type))
		return msg
	}

	d.record(stored)
	return msg
}

func (d *Dispatcher) saveDownload(sender string, messageID uint32, data []byte) (string, error) {
	if err := os.MkdirAll(d.opts.DownloadsDir, 0700); err != nil {
		return "", err
	}

	label := strings.Join(strings.Fields(sender), "_")
	path := filepath.Join(d.opts.DownloadsDir, fmt.Sprintf("%s-%d", label, messageID))
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", err
	}

	return path, nil
}
