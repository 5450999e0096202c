package api

import (
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZentaChain/zentalk-client/pkg/client"
	"github.com/ZentaChain/zentalk-client/pkg/crypto"
	"github.com/ZentaChain/zentalk-client/pkg/protocol"
	"github.com/ZentaChain/zentalk-client/pkg/session"
	"github.com/ZentaChain/zentalk-client/pkg/storage"
)

// PeerInfo is one directory entry
type PeerInfo struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	HasPublicKey    bool   `json:"hasPublicKey"`
	HasSymmetricKey bool   `json:"hasSymmetricKey"`
	Fingerprint     string `json:"fingerprint,omitempty"`
}

// IdentityInfo describes the registered client
type IdentityInfo struct {
	Registered  bool   `json:"registered"`
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// MessageInfo is one received message
type MessageInfo struct {
	From      string `json:"from"`
	FromName  string `json:"fromName,omitempty"`
	MessageID uint32 `json:"messageId"`
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	FilePath  string `json:"filePath,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SendInfo acknowledges a sent message
type SendInfo struct {
	To           string `json:"to"`
	ToName       string `json:"toName"`
	MessageID    uint32 `json:"messageId"`
	Type         string `json:"type"`
	SymmetricKey string `json:"symmetricKey,omitempty"`
}

// HistoryEntry is one recorded message
type HistoryEntry struct {
	PeerID    string    `json:"peerId"`
	PeerName  string    `json:"peerName,omitempty"`
	MessageID uint32    `json:"messageId"`
	Type      string    `json:"type"`
	Content   string    `json:"content,omitempty"`
	Status    string    `json:"status"`
	Outgoing  bool      `json:"outgoing"`
	Time      time.Time `json:"time"`
}

// RegisterRequest is the body of POST /api/v1/register
type RegisterRequest struct {
	Name string `json:"name" binding:"required"`
}

// TextRequest is the body of POST /api/v1/messages/text
type TextRequest struct {
	To   string `json:"to" binding:"required"`
	Text string `json:"text" binding:"required"`
}

// FileRequest is the body of POST /api/v1/messages/file
type FileRequest struct {
	To   string `json:"to" binding:"required"`
	Path string `json:"path" binding:"required"`
}

// KeyRequest is the body of the /api/v1/keys endpoints
type KeyRequest struct {
	Peer string `json:"peer" binding:"required"`
	Key  string `json:"key,omitempty"`
}

// handleHealth handles GET /health
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"registered": s.currentIdentity().Registered,
	})
}

// handleIdentity handles GET /api/v1/identity
func (s *Server) handleIdentity(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: s.currentIdentity()})
}

func (s *Server) currentIdentity() IdentityInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity := s.dispatcher.Identity()
	if identity == nil {
		return IdentityInfo{}
	}
	return IdentityInfo{
		Registered:  true,
		ID:          identity.ID.String(),
		Name:        identity.Name,
		Fingerprint: crypto.Fingerprint(identity.PublicKey),
	}
}

// handleRegister handles POST /api/v1/register
func (s *Server) handleRegister(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	s.mu.Lock()
	identity, err := s.dispatcher.Register(c.Request.Context(), req.Name)
	s.mu.Unlock()

	// A storage failure still leaves the client registered
	if err != nil && identity == nil {
		writeError(c, err)
		return
	}

	resp := SuccessResponse{
		Success: true,
		Data: IdentityInfo{
			Registered:  true,
			ID:          identity.ID.String(),
			Name:        identity.Name,
			Fingerprint: crypto.Fingerprint(identity.PublicKey),
		},
	}
	if err != nil {
		resp.Message = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// handleListPeers handles GET /api/v1/peers
func (s *Server) handleListPeers(c *gin.Context) {
	s.mu.Lock()
	peers, err := s.dispatcher.ListPeers(c.Request.Context())
	s.mu.Unlock()

	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: peerInfos(peers)})
}

// handleCachedPeers handles GET /api/v1/peers/cached
func (s *Server) handleCachedPeers(c *gin.Context) {
	s.mu.Lock()
	peers := s.dispatcher.Peers()
	s.mu.Unlock()

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: peerInfos(peers)})
}

// handlePublicKey handles GET /api/v1/peers/:name/public-key
func (s *Server) handlePublicKey(c *gin.Context) {
	s.mu.Lock()
	result, err := s.dispatcher.GetPublicKey(c.Request.Context(), c.Param("name"))
	s.mu.Unlock()

	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: gin.H{
		"id":          result.ID.String(),
		"name":        result.Name,
		"fingerprint": result.Fingerprint,
		"cached":      result.Cached,
	}})
}

// handleUnread handles GET /api/v1/messages/unread
func (s *Server) handleUnread(c *gin.Context) {
	s.mu.Lock()
	msgs, err := s.dispatcher.GetUnread(c.Request.Context())
	s.mu.Unlock()

	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]MessageInfo, 0, len(msgs))
	for _, m := range msgs {
		info := MessageInfo{
			From:      m.From.String(),
			FromName:  m.FromName,
			MessageID: m.MessageID,
			Type:      protocol.MessageTypeName(m.Type),
			Text:      m.Text,
			FilePath:  m.FilePath,
		}
		if m.Err != nil {
			info.Error = m.Err.Error()
		}
		out = append(out, info)
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: out})
}

// handleSendText handles POST /api/v1/messages/text
func (s *Server) handleSendText(c *gin.Context) {
	var req TextRequest
	if !bindJSON(c, &req) {
		return
	}

	s.mu.Lock()
	result, err := s.dispatcher.SendText(c.Request.Context(), req.To, req.Text)
	s.mu.Unlock()

	writeSend(c, result, nil, err)
}

// handleSendFile handles POST /api/v1/messages/file
func (s *Server) handleSendFile(c *gin.Context) {
	var req FileRequest
	if !bindJSON(c, &req) {
		return
	}

	s.mu.Lock()
	result, err := s.dispatcher.SendFile(c.Request.Context(), req.To, req.Path)
	s.mu.Unlock()

	writeSend(c, result, nil, err)
}

// handleRequestKey handles POST /api/v1/keys/request
func (s *Server) handleRequestKey(c *gin.Context) {
	var req KeyRequest
	if !bindJSON(c, &req) {
		return
	}

	s.mu.Lock()
	result, err := s.dispatcher.RequestSymmetricKey(c.Request.Context(), req.Peer)
	s.mu.Unlock()

	writeSend(c, result, nil, err)
}

// handleSendKey handles POST /api/v1/keys/send
func (s *Server) handleSendKey(c *gin.Context) {
	var req KeyRequest
	if !bindJSON(c, &req) {
		return
	}

	s.mu.Lock()
	key, result, err := s.dispatcher.SendSymmetricKey(c.Request.Context(), req.Peer)
	s.mu.Unlock()

	writeSend(c, result, key, err)
}

// handleLoadKey handles POST /api/v1/keys/load
func (s *Server) handleLoadKey(c *gin.Context) {
	var req KeyRequest
	if !bindJSON(c, &req) {
		return
	}

	s.mu.Lock()
	err := s.dispatcher.LoadSymmetricKey(c.Request.Context(), req.Peer, req.Key)
	s.mu.Unlock()

	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "symmetric key loaded"})
}

// handleHistory handles GET /api/v1/messages/history?limit=N[&peer=P&offset=M]
func (s *Server) handleHistory(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid limit",
			Message: "limit must be a positive number",
		})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid offset",
			Message: "offset must be zero or a positive number",
		})
		return
	}

	var msgs []*storage.StoredMessage
	s.mu.Lock()
	if peer := c.Query("peer"); peer != "" {
		msgs, err = s.dispatcher.PeerHistory(peer, limit, offset)
	} else {
		msgs, err = s.dispatcher.History(limit)
	}
	s.mu.Unlock()

	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]HistoryEntry, 0, len(msgs))
	for _, m := range msgs {
		entry := HistoryEntry{
			PeerID:    m.PeerID,
			PeerName:  m.PeerName,
			MessageID: m.MessageID,
			Type:      protocol.MessageTypeName(m.ContentType),
			Status:    string(m.Status),
			Outgoing:  m.IsOutgoing,
			Time:      time.Unix(m.Timestamp, 0).UTC(),
		}
		if m.ContentType != protocol.MsgTypeFile {
			entry.Content = string(m.Content)
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: out})
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return false
	}
	return true
}

func writeSend(c *gin.Context, result *client.SendResult, key []byte, err error) {
	if err != nil {
		writeError(c, err)
		return
	}

	info := SendInfo{
		To:        result.To.String(),
		ToName:    result.ToName,
		MessageID: result.MessageID,
		Type:      protocol.MessageTypeName(result.Type),
	}
	if key != nil {
		info.SymmetricKey = hex.EncodeToString(key)
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: info})
}

func writeError(c *gin.Context, err error) {
	kind := protocol.KindOf(err)
	c.JSON(statusFor(err), ErrorResponse{
		Error: err.Error(),
		Code:  kind.String(),
	})
}

// statusFor maps an error kind to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, client.ErrNotRegistered), errors.Is(err, client.ErrAlreadyRegistered):
		return http.StatusConflict
	case errors.Is(err, client.ErrUnknownPeer):
		return http.StatusNotFound
	}

	switch protocol.KindOf(err) {
	case protocol.KindValidation:
		return http.StatusBadRequest
	case protocol.KindProtocol:
		return http.StatusBadGateway
	case protocol.KindTransport:
		return http.StatusServiceUnavailable
	case protocol.KindCrypto:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func peerInfos(peers []session.Peer) []PeerInfo {
	out := make([]PeerInfo, 0, len(peers))
	for i := range peers {
		p := &peers[i]
		info := PeerInfo{
			ID:              p.ID.String(),
			Name:            p.Name,
			HasPublicKey:    p.HasPublicKey(),
			HasSymmetricKey: p.HasSymmetricKey(),
		}
		if info.HasPublicKey {
			info.Fingerprint = crypto.Fingerprint(p.PublicKey)
		}
		out = append(out, info)
	}
	return out
}
