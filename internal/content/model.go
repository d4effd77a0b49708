package content

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderRankAppend is the sentinel rank carried by newly created items until
// the next save stamps a dense rank from list position.
const OrderRankAppend = -1

var (
	// ErrMissingItemID indicates an item without an identifier reached a
	// path that requires one.
	ErrMissingItemID = errors.New("content: item id required")
	// ErrMissingImage indicates a merch item with no image reached save.
	ErrMissingImage = errors.New("content: merch item requires at least one image")
)

// IDProvider issues identifiers for newly created items.
type IDProvider interface {
	NewID() (string, error)
}

type uuidProvider struct{}

// NewUUIDProvider constructs an IDProvider that issues UUIDv7 identifiers.
func NewUUIDProvider() IDProvider {
	return &uuidProvider{}
}

func (p *uuidProvider) NewID() (string, error) {
	value, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return value.String(), nil
}

// MediaKind classifies header media by how it must be rendered.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaGIF   MediaKind = "gif"
	MediaVideo MediaKind = "video"
)

var videoExtension = regexp.MustCompile(`\.(mp4|webm|mov)(\?|$)`)

// InferMediaKind classifies a media URL by extension. Unknown extensions
// fall back to image.
func InferMediaKind(url string) MediaKind {
	lowered := strings.ToLower(url)
	if strings.HasSuffix(lowered, ".gif") {
		return MediaGIF
	}
	if videoExtension.MatchString(lowered) {
		return MediaVideo
	}
	return MediaImage
}

// ExternalLink is a labelled outbound URL attached to a post or app.
type ExternalLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Post is one entry in the feed section.
type Post struct {
	ID              string         `json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	Title           string         `json:"title"`
	HeaderMediaURL  string         `json:"header_media_url"`
	HeaderMediaKind MediaKind      `json:"header_media_type"`
	Body            RichText       `json:"body_richtext"`
	ExternalLinks   []ExternalLink `json:"external_links"`
	Hidden          bool           `json:"hidden"`
	OrderRank       int            `json:"order_index"`
}

// ItemID implements the ordered-item contract.
func (p Post) ItemID() string { return p.ID }

// IsHidden implements the ordered-item contract.
func (p Post) IsHidden() bool { return p.Hidden }

// NewPost returns a freshly created post draft: hidden until published and
// ranked with the append sentinel.
func NewPost(id string, createdAt time.Time) Post {
	return Post{
		ID:              id,
		CreatedAt:       createdAt,
		Title:           "New Post",
		HeaderMediaKind: MediaImage,
		Hidden:          true,
		OrderRank:       OrderRankAppend,
	}
}

// MerchItem is one entry in the merch section. ImageURL is the legacy
// single-image column and is kept equal to ImageURLs[0].
type MerchItem struct {
	ID          string      `json:"id"`
	CreatedAt   time.Time   `json:"created_at"`
	Name        string      `json:"name"`
	ImageURL    string      `json:"image_url"`
	ImageURLs   []string    `json:"image_urls,omitempty"`
	PriceCents  int64       `json:"price_cents"`
	Currency    string      `json:"currency"`
	Description Description `json:"description"`
	ExternalURL string      `json:"external_url"`
	ButtonLabel string      `json:"button_text,omitempty"`
	Hidden      bool        `json:"hidden"`
	OrderRank   int         `json:"order_index"`
}

// ItemID implements the ordered-item contract.
func (m MerchItem) ItemID() string { return m.ID }

// IsHidden implements the ordered-item contract.
func (m MerchItem) IsHidden() bool { return m.Hidden }

// NewMerchItem returns a freshly created merch draft.
func NewMerchItem(id string, createdAt time.Time) MerchItem {
	return MerchItem{
		ID:        id,
		CreatedAt: createdAt,
		Name:      "New Merch",
		Currency:  "USD",
		Hidden:    true,
		OrderRank: OrderRankAppend,
	}
}

// Images returns the item's image list. Rows written before the array column
// existed only carry the legacy single image.
func (m MerchItem) Images() []string {
	if len(m.ImageURLs) > 0 {
		return append([]string(nil), m.ImageURLs...)
	}
	if m.ImageURL != "" {
		return []string{m.ImageURL}
	}
	return nil
}

// SetImages replaces the image list and resynchronizes the legacy column.
func (m *MerchItem) SetImages(urls []string) {
	m.ImageURLs = append([]string(nil), urls...)
	m.SyncLegacyImage()
}

// AddImage appends an image and resynchronizes the legacy column.
func (m *MerchItem) AddImage(url string) {
	m.ImageURLs = append(m.Images(), url)
	m.SyncLegacyImage()
}

// RemoveImage drops the image at index; out-of-range indexes are ignored.
func (m *MerchItem) RemoveImage(index int) {
	images := m.Images()
	if index < 0 || index >= len(images) {
		return
	}
	m.ImageURLs = append(images[:index:index], images[index+1:]...)
	m.SyncLegacyImage()
}

// SyncLegacyImage enforces the invariant ImageURL == ImageURLs[0]. With an
// empty array a populated legacy column is promoted into it instead.
func (m *MerchItem) SyncLegacyImage() {
	if len(m.ImageURLs) == 0 {
		if m.ImageURL != "" {
			m.ImageURLs = []string{m.ImageURL}
		}
		return
	}
	m.ImageURL = m.ImageURLs[0]
}

// Validate checks the invariants required before the item may be persisted.
func (m MerchItem) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return ErrMissingItemID
	}
	if len(m.Images()) == 0 {
		return fmt.Errorf("%w: %s", ErrMissingImage, m.ID)
	}
	return nil
}

// AppItem is one entry in the apps section.
type AppItem struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Name      string         `json:"name"`
	IconURL   string         `json:"icon_url"`
	ShortDesc string         `json:"short_desc"`
	Body      RichText       `json:"body_richtext"`
	Links     []ExternalLink `json:"links"`
	Hidden    bool           `json:"hidden"`
	OrderRank int            `json:"order_index"`
}

// ItemID implements the ordered-item contract.
func (a AppItem) ItemID() string { return a.ID }

// IsHidden implements the ordered-item contract.
func (a AppItem) IsHidden() bool { return a.Hidden }

// NewAppItem returns a freshly created app draft.
func NewAppItem(id string, createdAt time.Time) AppItem {
	return AppItem{
		ID:        id,
		CreatedAt: createdAt,
		Name:      "New App",
		Hidden:    true,
		OrderRank: OrderRankAppend,
	}
}

// SiteInfo is the singleton info document.
type SiteInfo struct {
	Body RichText `json:"body_richtext"`
}
