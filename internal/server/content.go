package server

import (
	"io"
	"net/http"
	"time"

	"github.com/FullBlownAinz/dotcom/internal/content"
	"github.com/FullBlownAinz/dotcom/internal/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type contentPayload struct {
	Posts    []content.Post       `json:"posts"`
	Merch    []content.MerchItem  `json:"merch"`
	Apps     []content.AppItem    `json:"apps"`
	Info     content.SiteInfo     `json:"site_info"`
	Settings content.SiteSettings `json:"site_settings"`
}

// handleContent serves the published view. Hidden items never appear here:
// the cache only ever holds the public slice of each collection.
func (h *httpHandler) handleContent(c *gin.Context) {
	c.JSON(http.StatusOK, contentPayload{
		Posts:    h.cache.Posts(),
		Merch:    h.cache.Merch(),
		Apps:     h.cache.Apps(),
		Info:     h.cache.Info(),
		Settings: h.cache.Settings(),
	})
}

// handleEvents streams cache-change signals as server-sent events so the
// page can re-fetch content when something changes.
func (h *httpHandler) handleEvents(c *gin.Context) {
	stream, cancel := h.cache.Subscribe()
	defer cancel()

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-stream:
			c.SSEvent("content-change", "refresh")
			return true
		case <-heartbeat.C:
			c.SSEvent("heartbeat", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}

type loginRequestPayload struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

type loginResponsePayload struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   int64  `json:"expires_at"`
	Identifier  string `json:"identifier"`
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	if h.gw == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "gateway_unavailable"})
		return
	}
	var request loginRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || request.Identifier == "" || request.Secret == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	s, err := h.gw.Authenticate(c.Request.Context(), request.Identifier, request.Secret)
	if err != nil {
		h.logger.Warn("authentication failed", zap.String("identifier", request.Identifier), zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	h.gate.SetSession(s)

	response := loginResponsePayload{
		AccessToken: s.Token,
		TokenType:   "Bearer",
		Identifier:  s.Identifier,
	}
	if !s.ExpiresAt.IsZero() {
		response.ExpiresAt = s.ExpiresAt.Unix()
	}
	c.JSON(http.StatusOK, response)
}

func (h *httpHandler) handleLogout(c *gin.Context) {
	if h.gw != nil {
		if err := h.gw.SignOut(c.Request.Context()); err != nil {
			h.logger.Warn("sign-out failed", zap.Error(err))
		}
	}
	h.gate.ClearSession()
	c.JSON(http.StatusOK, gin.H{"authenticated": false})
}

func (h *httpHandler) handleSession(c *gin.Context) {
	h.gate.CheckExpiry()
	snapshot := h.gate.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"authenticated": snapshot.State == session.StateLoggedIn,
		"identifier":    snapshot.Session.Identifier,
		"edit_mode":     snapshot.EditMode,
	})
}
