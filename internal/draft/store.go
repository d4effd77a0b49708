// Package draft implements the operator-only editing model: an isolated
// working copy of the content collections, the save routine that converges
// remote state to it, list reordering, and the speculative visibility
// toggle. In-progress edits never touch the published cache.
package draft

import (
	"context"
	"fmt"
	"sync"

	"github.com/FullBlownAinz/dotcom/internal/content"
	"github.com/FullBlownAinz/dotcom/internal/gateway"
	"go.uber.org/zap"
)

// Store holds the editable working sequences for the three orderable
// collections plus the draft info document. The initial copies captured at
// load time are immutable until a successful save resynchronizes them; an
// identifier present initially but absent from the working copy is a
// pending deletion.
type Store struct {
	mu sync.Mutex

	workingPosts []content.Post
	initialPosts []content.Post
	workingMerch []content.MerchItem
	initialMerch []content.MerchItem
	workingApps  []content.AppItem
	initialApps  []content.AppItem
	info         *content.SiteInfo

	// suspect marks the initial copies as unreliable after a partially
	// failed save; the next save recomputes its deletion diff from a fresh
	// remote read instead.
	suspect bool

	logger *zap.Logger
}

// StoreConfig configures a Store load.
type StoreConfig struct {
	Logger *zap.Logger
}

// LoadForEditing fetches the full collections (hidden items included, rank
// order) and captures both the working and initial copies. Authentication
// is the session gate's concern and must be checked before calling this.
func LoadForEditing(ctx context.Context, gw gateway.Gateway, cfg StoreConfig) (*Store, error) {
	if gw == nil {
		return nil, newServiceError(opLoad, "missing_gateway", gateway.ErrUnavailable)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fullQuery := gateway.Query{OrderByRank: true}

	postRecords, err := gw.QueryCollection(ctx, gateway.CollectionPosts, fullQuery)
	if err != nil {
		return nil, newServiceError(opLoad, "posts_fetch_failed", err)
	}
	posts, err := content.DecodePosts(postRecords)
	if err != nil {
		return nil, newServiceError(opLoad, "posts_decode_failed", err)
	}

	merchRecords, err := gw.QueryCollection(ctx, gateway.CollectionMerch, fullQuery)
	if err != nil {
		return nil, newServiceError(opLoad, "merch_fetch_failed", err)
	}
	merch, err := content.DecodeMerchItems(merchRecords)
	if err != nil {
		return nil, newServiceError(opLoad, "merch_decode_failed", err)
	}

	appRecords, err := gw.QueryCollection(ctx, gateway.CollectionApps, fullQuery)
	if err != nil {
		return nil, newServiceError(opLoad, "apps_fetch_failed", err)
	}
	apps, err := content.DecodeAppItems(appRecords)
	if err != nil {
		return nil, newServiceError(opLoad, "apps_decode_failed", err)
	}

	store := &Store{
		workingPosts: posts,
		initialPosts: append([]content.Post(nil), posts...),
		workingMerch: merch,
		initialMerch: append([]content.MerchItem(nil), merch...),
		workingApps:  apps,
		initialApps:  append([]content.AppItem(nil), apps...),
		logger:       logger,
	}

	infoRecord, found, err := gw.GetSingleton(ctx, gateway.SingletonSiteInfo)
	if err != nil {
		return nil, newServiceError(opLoad, "info_fetch_failed", err)
	}
	if found {
		info, err := content.DecodeSiteInfo(infoRecord)
		if err != nil {
			return nil, newServiceError(opLoad, "info_decode_failed", err)
		}
		store.info = &info
	}

	logger.Info("draft loaded",
		zap.Int("posts", len(posts)),
		zap.Int("merch", len(merch)),
		zap.Int("apps", len(apps)))
	return store, nil
}

// Posts returns a copy of the working feed sequence.
func (s *Store) Posts() []content.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]content.Post(nil), s.workingPosts...)
}

// MerchItems returns a copy of the working merch sequence.
func (s *Store) MerchItems() []content.MerchItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]content.MerchItem(nil), s.workingMerch...)
}

// AppItems returns a copy of the working app sequence.
func (s *Store) AppItems() []content.AppItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]content.AppItem(nil), s.workingApps...)
}

// Info returns the draft info document, if one was loaded or set.
func (s *Store) Info() (content.SiteInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.info == nil {
		return content.SiteInfo{}, false
	}
	return *s.info, true
}

// SetInfo replaces the draft info document.
func (s *Store) SetInfo(info content.SiteInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = &info
}

// UpsertPost replaces an existing post in place or prepends a new one.
func (s *Store) UpsertPost(post content.Post) error {
	if post.ID == "" {
		return newServiceError(opMutate, "missing_id", content.ErrMissingItemID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workingPosts = upsertSequence(s.workingPosts, post)
	return nil
}

// UpsertMerchItem replaces an existing merch item in place or prepends a
// new one. The legacy image column is resynchronized on the way in.
func (s *Store) UpsertMerchItem(item content.MerchItem) error {
	if item.ID == "" {
		return newServiceError(opMutate, "missing_id", content.ErrMissingItemID)
	}
	item.SyncLegacyImage()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workingMerch = upsertSequence(s.workingMerch, item)
	return nil
}

// UpsertAppItem replaces an existing app item in place or prepends a new one.
func (s *Store) UpsertAppItem(item content.AppItem) error {
	if item.ID == "" {
		return newServiceError(opMutate, "missing_id", content.ErrMissingItemID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workingApps = upsertSequence(s.workingApps, item)
	return nil
}

// RemovePost deletes from the working copy only; the untouched initial copy
// is what makes the deletion visible to the next save.
func (s *Store) RemovePost(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workingPosts = removeSequence(s.workingPosts, id)
}

// RemoveMerchItem deletes from the working copy only.
func (s *Store) RemoveMerchItem(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workingMerch = removeSequence(s.workingMerch, id)
}

// RemoveAppItem deletes from the working copy only.
func (s *Store) RemoveAppItem(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workingApps = removeSequence(s.workingApps, id)
}

// MovePost removes the post at from and reinserts it at to. Position is the
// only thing that changes; ranks are stamped at save time.
func (s *Store) MovePost(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	moved, err := moveSequence(s.workingPosts, from, to)
	if err != nil {
		return newServiceError(opMutate, "move_failed", err)
	}
	s.workingPosts = moved
	return nil
}

// MoveMerchItem removes the merch item at from and reinserts it at to.
func (s *Store) MoveMerchItem(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	moved, err := moveSequence(s.workingMerch, from, to)
	if err != nil {
		return newServiceError(opMutate, "move_failed", err)
	}
	s.workingMerch = moved
	return nil
}

// MoveAppItem removes the app item at from and reinserts it at to.
func (s *Store) MoveAppItem(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	moved, err := moveSequence(s.workingApps, from, to)
	if err != nil {
		return newServiceError(opMutate, "move_failed", err)
	}
	s.workingApps = moved
	return nil
}

// ReorderPosts replaces the working sequence with the same items in the
// given identifier order. The order must be a permutation of the current
// working identifiers.
func (s *Store) ReorderPosts(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reordered, err := reorderByID(s.workingPosts, ids)
	if err != nil {
		return newServiceError(opMutate, "reorder_failed", err)
	}
	s.workingPosts = reordered
	return nil
}

// ReorderMerchItems replaces the working merch order.
func (s *Store) ReorderMerchItems(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reordered, err := reorderByID(s.workingMerch, ids)
	if err != nil {
		return newServiceError(opMutate, "reorder_failed", err)
	}
	s.workingMerch = reordered
	return nil
}

// ReorderAppItems replaces the working app order.
func (s *Store) ReorderAppItems(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reordered, err := reorderByID(s.workingApps, ids)
	if err != nil {
		return newServiceError(opMutate, "reorder_failed", err)
	}
	s.workingApps = reordered
	return nil
}

type orderedItem interface {
	ItemID() string
}

func upsertSequence[T orderedItem](seq []T, item T) []T {
	for i := range seq {
		if seq[i].ItemID() == item.ItemID() {
			replaced := append([]T(nil), seq...)
			replaced[i] = item
			return replaced
		}
	}
	return append([]T{item}, seq...)
}

func removeSequence[T orderedItem](seq []T, id string) []T {
	kept := make([]T, 0, len(seq))
	for _, item := range seq {
		if item.ItemID() != id {
			kept = append(kept, item)
		}
	}
	return kept
}

func moveSequence[T any](seq []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(seq) {
		return nil, fmt.Errorf("%w: from %d of %d", errIndexOutOfRange, from, len(seq))
	}
	if to < 0 || to >= len(seq) {
		return nil, fmt.Errorf("%w: to %d of %d", errIndexOutOfRange, to, len(seq))
	}
	moved := append([]T(nil), seq...)
	item := moved[from]
	moved = append(moved[:from], moved[from+1:]...)
	moved = append(moved[:to], append([]T{item}, moved[to:]...)...)
	return moved, nil
}

func reorderByID[T orderedItem](seq []T, ids []string) ([]T, error) {
	if len(ids) != len(seq) {
		return nil, fmt.Errorf("%w: %d ids for %d items", errNotPermutation, len(ids), len(seq))
	}
	byID := make(map[string]T, len(seq))
	for _, item := range seq {
		byID[item.ItemID()] = item
	}
	reordered := make([]T, 0, len(seq))
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: unknown id %s", errNotPermutation, id)
		}
		delete(byID, id)
		reordered = append(reordered, item)
	}
	return reordered, nil
}

func idSet[T orderedItem](seq []T) map[string]struct{} {
	ids := make(map[string]struct{}, len(seq))
	for _, item := range seq {
		ids[item.ItemID()] = struct{}{}
	}
	return ids
}

func missingIDs[T orderedItem](baseline []T, working map[string]struct{}) []string {
	var missing []string
	for _, item := range baseline {
		if _, ok := working[item.ItemID()]; !ok {
			missing = append(missing, item.ItemID())
		}
	}
	return missing
}
