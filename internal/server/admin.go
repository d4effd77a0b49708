package server

import (
	"io"
	"net/http"

	"github.com/FullBlownAinz/dotcom/internal/content"
	"github.com/FullBlownAinz/dotcom/internal/draft"
	"github.com/FullBlownAinz/dotcom/internal/gateway"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxUploadBytes = 25 << 20

type editModePayload struct {
	On bool `json:"on"`
}

func (h *httpHandler) handleEditMode(c *gin.Context) {
	var request editModePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	if !request.On {
		_ = h.gate.SetEditMode(false)
		h.dropDrafts()
		c.JSON(http.StatusOK, gin.H{"edit_mode": false})
		return
	}

	if h.gw == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "gateway_unavailable"})
		return
	}
	if err := h.gate.SetEditMode(true); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not_authenticated"})
		return
	}

	store, err := draft.LoadForEditing(c.Request.Context(), h.gw, draft.StoreConfig{Logger: h.logger})
	if err != nil {
		_ = h.gate.SetEditMode(false)
		h.logger.Error("draft load failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "draft_load_failed"})
		return
	}
	h.setDrafts(store)
	c.JSON(http.StatusOK, gin.H{"edit_mode": true})
}

type draftPayload struct {
	Posts []content.Post      `json:"posts"`
	Merch []content.MerchItem `json:"merch"`
	Apps  []content.AppItem   `json:"apps"`
	Info  *content.SiteInfo   `json:"site_info,omitempty"`
}

func (h *httpHandler) handleDraftSnapshot(c *gin.Context) {
	store := draftStore(c)
	payload := draftPayload{
		Posts: store.Posts(),
		Merch: store.MerchItems(),
		Apps:  store.AppItems(),
	}
	if info, ok := store.Info(); ok {
		payload.Info = &info
	}
	c.JSON(http.StatusOK, payload)
}

func (h *httpHandler) handleDraftUpsert(c *gin.Context) {
	collection, ok := collectionParam(c)
	if !ok {
		return
	}
	store := draftStore(c)

	var err error
	switch collection {
	case gateway.CollectionPosts:
		var post content.Post
		if bindErr := c.ShouldBindJSON(&post); bindErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}
		err = store.UpsertPost(post)
	case gateway.CollectionMerch:
		var item content.MerchItem
		if bindErr := c.ShouldBindJSON(&item); bindErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}
		err = store.UpsertMerchItem(item)
	case gateway.CollectionApps:
		var item content.AppItem
		if bindErr := c.ShouldBindJSON(&item); bindErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}
		err = store.UpsertAppItem(item)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_item"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// handleDraftCreate adds a stand-in item to the draft: client-generated
// identifier, hidden by default, append rank.
func (h *httpHandler) handleDraftCreate(c *gin.Context) {
	collection, ok := collectionParam(c)
	if !ok {
		return
	}
	id, err := h.ids.NewID()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "id_generation_failed"})
		return
	}
	store := draftStore(c)
	now := h.clock().UTC()

	switch collection {
	case gateway.CollectionPosts:
		post := content.NewPost(id, now)
		if err := store.UpsertPost(post); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
			return
		}
		c.JSON(http.StatusOK, post)
	case gateway.CollectionMerch:
		item := content.NewMerchItem(id, now)
		if err := store.UpsertMerchItem(item); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
			return
		}
		c.JSON(http.StatusOK, item)
	case gateway.CollectionApps:
		item := content.NewAppItem(id, now)
		if err := store.UpsertAppItem(item); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func (h *httpHandler) handleDraftRemove(c *gin.Context) {
	collection, ok := collectionParam(c)
	if !ok {
		return
	}
	store := draftStore(c)
	id := c.Param("id")
	switch collection {
	case gateway.CollectionPosts:
		store.RemovePost(id)
	case gateway.CollectionMerch:
		store.RemoveMerchItem(id)
	case gateway.CollectionApps:
		store.RemoveAppItem(id)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type movePayload struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (h *httpHandler) handleDraftMove(c *gin.Context) {
	collection, ok := collectionParam(c)
	if !ok {
		return
	}
	var request movePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	store := draftStore(c)

	var err error
	switch collection {
	case gateway.CollectionPosts:
		err = store.MovePost(request.From, request.To)
	case gateway.CollectionMerch:
		err = store.MoveMerchItem(request.From, request.To)
	case gateway.CollectionApps:
		err = store.MoveAppItem(request.From, request.To)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_move"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type reorderPayload struct {
	IDs []string `json:"ids"`
}

func (h *httpHandler) handleDraftReorder(c *gin.Context) {
	collection, ok := collectionParam(c)
	if !ok {
		return
	}
	var request reorderPayload
	if err := c.ShouldBindJSON(&request); err != nil || len(request.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	store := draftStore(c)

	var err error
	switch collection {
	case gateway.CollectionPosts:
		err = store.ReorderPosts(request.IDs)
	case gateway.CollectionMerch:
		err = store.ReorderMerchItems(request.IDs)
	case gateway.CollectionApps:
		err = store.ReorderAppItems(request.IDs)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_reorder"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *httpHandler) handleDraftInfo(c *gin.Context) {
	var info content.SiteInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	draftStore(c).SetInfo(info)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *httpHandler) handleSave(c *gin.Context) {
	if h.gw == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "gateway_unavailable"})
		return
	}
	store := draftStore(c)
	if err := store.Save(c.Request.Context(), h.gw); err != nil {
		h.logger.Error("save failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "save_failed", "detail": err.Error()})
		return
	}
	if err := h.cache.Refresh(c.Request.Context()); err != nil {
		h.logger.Warn("post-save refresh failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type togglePayload struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

func (h *httpHandler) handleToggle(c *gin.Context) {
	var request togglePayload
	if err := c.ShouldBindJSON(&request); err != nil || request.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	collection := gateway.Collection(request.Collection)
	switch collection {
	case gateway.CollectionPosts, gateway.CollectionMerch, gateway.CollectionApps:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_collection"})
		return
	}

	hidden, err := draftStore(c).ToggleHidden(c.Request.Context(), h.gw, collection, request.ID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "toggle_failed", "hidden": hidden})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hidden": hidden})
}

func (h *httpHandler) handleUpdateSettings(c *gin.Context) {
	if h.gw == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "gateway_unavailable"})
		return
	}
	var settings content.SiteSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := settings.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_settings"})
		return
	}

	// Optimistic: the rendered theme updates ahead of the remote write and
	// is not reverted on failure, the operator just sees the notice.
	h.cache.ApplySettings(settings)

	record, err := content.EncodeSettings(settings)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "settings_encode_failed"})
		return
	}
	if err := h.gw.UpdateSingleton(c.Request.Context(), gateway.SingletonSiteSettings, record); err != nil {
		h.logger.Error("settings save failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "settings_save_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *httpHandler) handleUpload(c *gin.Context) {
	bucket := c.DefaultPostForm("bucket", gateway.BucketMedia)
	if bucket != gateway.BucketMedia && bucket != gateway.BucketOverlays {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_bucket"})
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file_too_large"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	if h.gw == nil {
		c.JSON(http.StatusOK, gin.H{"url": gateway.InlineObjectURL(fileHeader.Filename, data)})
		return
	}
	url, err := h.gw.UploadObject(c.Request.Context(), bucket, fileHeader.Filename, data)
	if err != nil {
		h.logger.Error("upload failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
