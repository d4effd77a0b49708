package server

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/FullBlownAinz/dotcom/internal/cache"
	"github.com/FullBlownAinz/dotcom/internal/content"
	"github.com/FullBlownAinz/dotcom/internal/draft"
	"github.com/FullBlownAinz/dotcom/internal/gateway"
	"github.com/FullBlownAinz/dotcom/internal/session"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	errMissingCache         = errors.New("content cache dependency required")
	errMissingGate          = errors.New("session gate dependency required")
	errInvalidAuthorization = errors.New("authorization header missing or invalid")
)

// Dependencies wires the HTTP layer. Gateway may be nil: reads then serve
// the bundled sample content and writes are refused.
type Dependencies struct {
	Gateway    gateway.Gateway
	Cache      *cache.Cache
	Gate       *session.Gate
	IDProvider content.IDProvider
	Clock      func() time.Time
	MediaDir   string
	Logger     *zap.Logger
}

// NewHTTPHandler builds the site router: the public content API, the auth
// endpoints and the operator edit API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Cache == nil {
		return nil, errMissingCache
	}
	if deps.Gate == nil {
		return nil, errMissingGate
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	ids := deps.IDProvider
	if ids == nil {
		ids = content.NewUUIDProvider()
	}

	handler := &httpHandler{
		gw:     deps.Gateway,
		cache:  deps.Cache,
		gate:   deps.Gate,
		ids:    ids,
		clock:  clock,
		logger: logger,
	}

	// Session loss, however it happens, invalidates the draft store along
	// with edit mode.
	deps.Gate.Subscribe(func(snapshot session.Snapshot) {
		if snapshot.State == session.StateLoggedOut || !snapshot.EditMode {
			handler.dropDrafts()
		}
	})

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/api/content", handler.handleContent)
	router.GET("/api/events", handler.handleEvents)
	router.POST("/api/auth/login", handler.handleLogin)
	router.GET("/api/auth/session", handler.handleSession)

	if deps.MediaDir != "" {
		router.Static("/media", deps.MediaDir)
	}

	authorized := router.Group("/api")
	authorized.Use(handler.authorizeRequest)
	authorized.POST("/auth/logout", handler.handleLogout)
	authorized.POST("/admin/edit-mode", handler.handleEditMode)
	authorized.POST("/admin/upload", handler.handleUpload)
	authorized.PUT("/admin/settings", handler.handleUpdateSettings)

	editing := authorized.Group("/admin/draft")
	editing.Use(handler.requireEditMode)
	editing.GET("", handler.handleDraftSnapshot)
	editing.POST("/:collection/items", handler.handleDraftUpsert)
	editing.POST("/:collection/new", handler.handleDraftCreate)
	editing.DELETE("/:collection/items/:id", handler.handleDraftRemove)
	editing.POST("/:collection/move", handler.handleDraftMove)
	editing.POST("/:collection/reorder", handler.handleDraftReorder)
	editing.PUT("/info", handler.handleDraftInfo)

	authorized.POST("/admin/save", handler.requireEditMode, handler.handleSave)
	authorized.POST("/admin/toggle", handler.requireEditMode, handler.handleToggle)

	return router, nil
}

type httpHandler struct {
	gw     gateway.Gateway
	cache  *cache.Cache
	gate   *session.Gate
	ids    content.IDProvider
	clock  func() time.Time
	logger *zap.Logger

	draftMu sync.Mutex
	drafts  *draft.Store
}

func (h *httpHandler) currentDrafts() *draft.Store {
	h.draftMu.Lock()
	defer h.draftMu.Unlock()
	return h.drafts
}

func (h *httpHandler) setDrafts(store *draft.Store) {
	h.draftMu.Lock()
	h.drafts = store
	h.draftMu.Unlock()
}

func (h *httpHandler) dropDrafts() {
	h.setDrafts(nil)
}

// tokenValidator is implemented by gateways that can verify a session
// token cryptographically, not just by equality with the stored session.
type tokenValidator interface {
	ValidateToken(token string) (string, error)
}

// authorizeRequest admits only the operator holding the active session
// token. Expiry is re-checked on every request so a stale token observes
// the forced edit-mode exit rather than an authorized response.
func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}

	h.gate.CheckExpiry()
	current, ok := h.gate.Session()
	if !ok || current.Token != token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if validator, ok := h.gw.(tokenValidator); ok {
		if _, err := validator.ValidateToken(token); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
	}
	c.Next()
}

const draftStoreKey = "draftStore"

// requireEditMode stashes the store it checked so handlers keep working
// against it even if a concurrent logout drops the drafts mid-request.
func (h *httpHandler) requireEditMode(c *gin.Context) {
	store := h.currentDrafts()
	if !h.gate.EditMode() || store == nil {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "edit_mode_off"})
		return
	}
	c.Set(draftStoreKey, store)
	c.Next()
}

func draftStore(c *gin.Context) *draft.Store {
	store, _ := c.MustGet(draftStoreKey).(*draft.Store)
	return store
}

func collectionParam(c *gin.Context) (gateway.Collection, bool) {
	switch gateway.Collection(c.Param("collection")) {
	case gateway.CollectionPosts:
		return gateway.CollectionPosts, true
	case gateway.CollectionMerch:
		return gateway.CollectionMerch, true
	case gateway.CollectionApps:
		return gateway.CollectionApps, true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_collection"})
	return "", false
}
