package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ZentaChain/zentalk-client/pkg/protocol"
)

// ClientVersion is the release of this client
const ClientVersion = "1.0.0"

// VersionInfo describes the client and the wire protocol it speaks
type VersionInfo struct {
	Version         string   `json:"version"`
	ProtocolVersion uint8    `json:"protocol_version"`
	Operations      []string `json:"operations"`
}

// GetVersionInfo returns version information for this client
func GetVersionInfo() VersionInfo {
	ops := []uint16{
		protocol.OpRegister,
		protocol.OpListClients,
		protocol.OpGetPublicKey,
		protocol.OpSendMessage,
		protocol.OpGetUnread,
	}

	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = protocol.OpName(op)
	}

	return VersionInfo{
		Version:         ClientVersion,
		ProtocolVersion: protocol.ClientVersion,
		Operations:      names,
	}
}

// handleVersion handles GET /api/v1/version
func (s *Server) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, GetVersionInfo())
}
