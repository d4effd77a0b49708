package gateway

import (
	"context"
	"time"
)

// Collection names one of the orderable content collections held by the
// remote store.
type Collection string

const (
	CollectionPosts Collection = "posts"
	CollectionMerch Collection = "merch"
	CollectionApps  Collection = "apps"
)

// String returns the raw collection name.
func (c Collection) String() string {
	return string(c)
}

// Collections lists every orderable collection in a stable order.
func Collections() []Collection {
	return []Collection{CollectionPosts, CollectionMerch, CollectionApps}
}

// Singleton document names.
const (
	SingletonSiteInfo     = "site_info"
	SingletonSiteSettings = "site_settings"
)

// Object storage bucket names.
const (
	BucketMedia    = "media"
	BucketOverlays = "overlays"
)

// Record is an opaque stored row. Typed codecs live in the content package.
type Record map[string]any

// Query restricts a collection read. A nil Hidden pointer means no
// visibility filter (full collection, hidden rows included).
type Query struct {
	Hidden      *bool
	OrderByRank bool
}

// Bool returns a pointer for use as a Query filter value.
func Bool(value bool) *bool {
	return &value
}

// Session describes an authenticated operator session issued by the store.
type Session struct {
	Token      string
	Identifier string
	ExpiresAt  time.Time
}

// Expired reports whether the session has passed its expiry at the given time.
// Sessions without an expiry never expire.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Gateway is the narrow contract this application consumes from the hosted
// backend: collection queries and writes, singleton documents, credential
// authentication, a change-notification stream and object storage.
type Gateway interface {
	QueryCollection(ctx context.Context, collection Collection, query Query) ([]Record, error)
	GetSingleton(ctx context.Context, name string) (Record, bool, error)
	UpsertMany(ctx context.Context, collection Collection, records []Record) error
	DeleteMany(ctx context.Context, collection Collection, ids []string) error
	// UpdateOne patches the named fields of a single row without touching
	// the rest of the record.
	UpdateOne(ctx context.Context, collection Collection, id string, fields Record) error
	UpdateSingleton(ctx context.Context, name string, record Record) error

	Authenticate(ctx context.Context, identifier, secret string) (Session, error)
	CurrentSession(ctx context.Context) (Session, bool, error)
	SignOut(ctx context.Context) error

	// SubscribeChanges registers a callback invoked whenever anything in the
	// public schema changes. The payload carries no detail beyond "something
	// changed"; subscribers are expected to re-read. The returned function
	// removes the subscription.
	SubscribeChanges(ctx context.Context, notify func()) (func(), error)

	UploadObject(ctx context.Context, bucket string, pathHint string, data []byte) (string, error)
}
