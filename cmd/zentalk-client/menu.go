package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ZentaChain/zentalk-client/pkg/api"
	"github.com/ZentaChain/zentalk-client/pkg/client"
	"github.com/ZentaChain/zentalk-client/pkg/protocol"
	"github.com/ZentaChain/zentalk-client/pkg/storage"
)

// Menu options
const (
	optExit          = 0
	optRegister      = 10
	optListClients   = 20
	optPublicKey     = 30
	optUnread        = 40
	optSendText      = 50
	optRequestSymKey = 51
	optSendSymKey    = 52
	optSendFile      = 53
	optLoadSymKey    = 54
	optHistory       = 60
	optPeerHistory   = 61
)

const mainMenu = `

Please select one of the options below:
	10) Register
	20) Request for clients list
	30) Request for public key
	40) Request for unread messages
	50) Send a text message
	51) Send a request for symmetric key
	52) Send your symmetric key
	53) Send a file
	54) Load a symmetric key
	60) Show message history
	61) Show conversation with a user
	0) Exit client
Please select one of the options above: `

var errInputClosed = errors.New("input closed")

type menu struct {
	d   api.Dispatcher
	in  *bufio.Scanner
	out io.Writer
}

func newMenu(d api.Dispatcher, in io.Reader, out io.Writer) *menu {
	return &menu{d: d, in: bufio.NewScanner(in), out: out}
}

// Run shows the menu until the user exits or input ends
func (m *menu) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		fmt.Fprint(m.out, mainMenu)
		if !m.in.Scan() {
			return m.in.Err()
		}

		choice, err := strconv.Atoi(strings.TrimSpace(m.in.Text()))
		if err != nil {
			fmt.Fprintln(m.out, "Invalid option, please choose again or press '0' to exit.")
			continue
		}
		if choice == optExit {
			fmt.Fprintln(m.out, "Thank you, hope to see you soon!")
			return nil
		}

		if err := m.dispatch(ctx, choice); err != nil {
			if errors.Is(err, errInputClosed) {
				return nil
			}
			m.report(err)
		}
	}
}

func (m *menu) dispatch(ctx context.Context, choice int) error {
	switch choice {
	case optRegister:
		return m.register(ctx)
	case optListClients:
		return m.listClients(ctx)
	case optPublicKey:
		return m.publicKey(ctx)
	case optUnread:
		return m.unread(ctx)
	case optSendText:
		return m.sendText(ctx)
	case optRequestSymKey:
		return m.requestSymKey(ctx)
	case optSendSymKey:
		return m.sendSymKey(ctx)
	case optSendFile:
		return m.sendFile(ctx)
	case optLoadSymKey:
		return m.loadSymKey(ctx)
	case optHistory:
		return m.history()
	case optPeerHistory:
		return m.peerHistory()
	default:
		fmt.Fprintln(m.out, "Invalid option, please choose again or press '0' to exit.")
		return nil
	}
}

func (m *menu) report(err error) {
	switch {
	case errors.Is(err, client.ErrNotRegistered):
		fmt.Fprintln(m.out, "You must register to perform this action, please choose 'REGISTER' or press '0' to exit.")
	case errors.Is(err, client.ErrAlreadyRegistered):
		fmt.Fprintln(m.out, "You are already registered!")
	case protocol.IsKind(err, protocol.KindProtocol):
		fmt.Fprintf(m.out, "Invalid response, can not complete action: %v\n", err)
	case protocol.IsKind(err, protocol.KindTransport):
		fmt.Fprintf(m.out, "Error while trying to connect with server: %v\n", err)
	default:
		fmt.Fprintf(m.out, "Error: %v\n", err)
	}
}

// prompt asks until a non-empty line is entered
func (m *menu) prompt(label string) (string, error) {
	for {
		fmt.Fprint(m.out, label)
		if !m.in.Scan() {
			return "", errInputClosed
		}
		if line := strings.TrimSpace(m.in.Text()); line != "" {
			return line, nil
		}
	}
}

func (m *menu) register(ctx context.Context) error {
	if m.d.Identity() != nil {
		return client.ErrAlreadyRegistered
	}

	name, err := m.prompt("Please enter your user name: ")
	if err != nil {
		return err
	}

	identity, err := m.d.Register(ctx, name)
	if identity != nil {
		fmt.Fprintf(m.out, "Registered as %s, id %s\n", identity.Name, identity.ID)
	}
	if err != nil && identity != nil {
		fmt.Fprintf(m.out, "Error while trying to save your details: %v\n", err)
		return nil
	}
	return err
}

func (m *menu) listClients(ctx context.Context) error {
	peers, err := m.d.ListPeers(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(m.out, "Clients:")
	for _, p := range peers {
		fmt.Fprintf(m.out, "\n\tname: %s\n\tID: %s\n", p.Name, p.ID)
	}
	return nil
}

func (m *menu) publicKey(ctx context.Context) error {
	if m.d.Identity() == nil {
		return client.ErrNotRegistered
	}

	name, err := m.prompt("Please enter user name: ")
	if err != nil {
		return err
	}

	result, err := m.d.GetPublicKey(ctx, name)
	if err != nil {
		return err
	}

	fmt.Fprintf(m.out, "User info:\n\tname: %s\n\tid: %s\n\tfingerprint: %s\n", result.Name, result.ID, result.Fingerprint)
	return nil
}

func (m *menu) unread(ctx context.Context) error {
	msgs, err := m.d.GetUnread(ctx)
	if err != nil {
		return err
	}

	if len(msgs) == 0 {
		fmt.Fprintln(m.out, "No new messages...")
		return nil
	}

	for _, msg := range msgs {
		if msg.FromName == "" {
			fmt.Fprintf(m.out, "FROM: Unknown {ID: %s}\n", msg.From)
		} else {
			fmt.Fprintf(m.out, "FROM: %s\n", msg.FromName)
		}
		fmt.Fprintf(m.out, "\ttype: %s\n", protocol.MessageTypeName(msg.Type))

		switch {
		case errors.Is(msg.Err, client.ErrNoSymmetricKey):
			fmt.Fprintln(m.out, "\tCan not get client symmetric key")
		case protocol.IsKind(msg.Err, protocol.KindCrypto):
			fmt.Fprintln(m.out, "\tCan not decrypt message content...")
		case msg.Err != nil:
			fmt.Fprintf(m.out, "\t%v\n", msg.Err)
		case msg.FilePath != "":
			fmt.Fprintf(m.out, "\tfile saved to %s\n", msg.FilePath)
		default:
			fmt.Fprintf(m.out, "\t%s\n", msg.Text)
		}
	}
	return nil
}

// recipient asks for a peer name, gated on registration
func (m *menu) recipient() (string, error) {
	if m.d.Identity() == nil {
		return "", client.ErrNotRegistered
	}
	return m.prompt("Please enter recipient name: ")
}

func (m *menu) printSent(result *client.SendResult) {
	fmt.Fprintf(m.out, "Message sent to %s {ID: %s}, message id %d\n", result.ToName, result.To, result.MessageID)
}

func (m *menu) sendText(ctx context.Context) error {
	name, err := m.recipient()
	if err != nil {
		return err
	}
	text, err := m.prompt("Please type your message: ")
	if err != nil {
		return err
	}

	result, err := m.d.SendText(ctx, name, text)
	if err != nil {
		return err
	}
	m.printSent(result)
	return nil
}

func (m *menu) sendFile(ctx context.Context) error {
	name, err := m.recipient()
	if err != nil {
		return err
	}
	path, err := m.prompt("Please enter file path: ")
	if err != nil {
		return err
	}

	result, err := m.d.SendFile(ctx, name, path)
	if err != nil {
		return err
	}
	m.printSent(result)
	return nil
}

func (m *menu) requestSymKey(ctx context.Context) error {
	name, err := m.recipient()
	if err != nil {
		return err
	}

	result, err := m.d.RequestSymmetricKey(ctx, name)
	if err != nil {
		return err
	}
	m.printSent(result)
	return nil
}

func (m *menu) sendSymKey(ctx context.Context) error {
	name, err := m.recipient()
	if err != nil {
		return err
	}

	key, result, err := m.d.SendSymmetricKey(ctx, name)
	if err != nil {
		return err
	}
	m.printSent(result)
	fmt.Fprintf(m.out, "Symmetric key for %s: %s\n", result.ToName, hex.EncodeToString(key))
	return nil
}

func (m *menu) loadSymKey(ctx context.Context) error {
	name, err := m.recipient()
	if err != nil {
		return err
	}
	key, err := m.prompt("Please enter the symmetric key (hex): ")
	if err != nil {
		return err
	}

	if err := m.d.LoadSymmetricKey(ctx, name, key); err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Symmetric key loaded for %s\n", name)
	return nil
}

func (m *menu) history() error {
	msgs, err := m.d.History(20)
	if err != nil {
		return err
	}
	m.printHistory(msgs)
	return nil
}

func (m *menu) peerHistory() error {
	if m.d.Identity() == nil {
		return client.ErrNotRegistered
	}
	peer, err := m.prompt("Please enter user name or ID: ")
	if err != nil {
		return err
	}

	msgs, err := m.d.PeerHistory(peer, 20, 0)
	if err != nil {
		return err
	}
	m.printHistory(msgs)
	return nil
}

func (m *menu) printHistory(msgs []*storage.StoredMessage) {
	if len(msgs) == 0 {
		fmt.Fprintln(m.out, "No messages recorded...")
		return
	}
	for _, msg := range msgs {
		direction := "FROM"
		if msg.IsOutgoing {
			direction = "TO"
		}
		peer := msg.PeerName
		if peer == "" {
			peer = msg.PeerID
		}
		fmt.Fprintf(m.out, "%s: %s [%s, %s]\n", direction, peer, protocol.MessageTypeName(msg.ContentType), msg.Status)
		if msg.ContentType == protocol.MsgTypeText {
			fmt.Fprintf(m.out, "\t%s\n", msg.Content)
		}
	}
}
