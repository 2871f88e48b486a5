package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/voicechat-server/internal/config"
	"github.com/vovakirdan/voicechat-server/internal/core"
)

// Directory exposes read-only views of the live server state.
type Directory interface {
	Users() []core.User
	Channels() []core.ChannelInfo
}

// APIHandlers provides the read-only REST endpoints.
type APIHandlers struct {
	dir        Directory
	iceServers []webrtc.ICEServer
	log        *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(dir Directory, iceServers []config.ICEServer, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		dir:        dir,
		iceServers: withSTUNFallback(iceServers),
		log:        logger,
	}
}

// ChannelResponse is one entry of GET /api/channels.
type ChannelResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MemberCount int    `json:"memberCount"`
}

// ListChannels returns the channels with their member counts.
// GET /api/channels
func (h *APIHandlers) ListChannels(c *gin.Context) {
	channels := h.dir.Channels()
	resp := make([]ChannelResponse, 0, len(channels))
	for _, ch := range channels {
		resp = append(resp, ChannelResponse{ID: ch.ID, Name: ch.Name, MemberCount: ch.MemberCount})
	}
	c.JSON(http.StatusOK, gin.H{"channels": resp})
}

// ListUsers returns the connected users.
// GET /api/users
func (h *APIHandlers) ListUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": usersToProto(h.dir.Users())})
}

// ICEServers returns the STUN/TURN servers browsers should use.
// GET /api/ice-servers
func (h *APIHandlers) ICEServers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"iceServers": h.iceServers})
}

// Health reports liveness.
// GET /health
func (h *APIHandlers) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func withSTUNFallback(servers []config.ICEServer) []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(servers)+1)
	hasSTUN := false
	for _, s := range servers {
		if len(s.URLs) == 0 {
			continue
		}
		for _, url := range s.URLs {
			if strings.HasPrefix(url, "stun:") || strings.HasPrefix(url, "stuns:") {
				hasSTUN = true
			}
		}
		srv := webrtc.ICEServer{URLs: s.URLs, Username: s.Username}
		if s.Credential != "" {
			srv.Credential = s.Credential
		}
		out = append(out, srv)
	}
	if !hasSTUN {
		out = append([]webrtc.ICEServer{{URLs: []string{config.DefaultSTUN}}}, out...)
	}
	return out
}
