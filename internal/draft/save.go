package draft

import (
	"context"
	"errors"
	"sync"

	"github.com/FullBlownAinz/dotcom/internal/content"
	"github.com/FullBlownAinz/dotcom/internal/gateway"
	"go.uber.org/zap"
)

// Save converges remote state to the working copy in one coordinated
// operation: ranks are stamped from list position, deletions are diffed by
// identifier, and the resulting upserts, singleton update and deletes are
// issued concurrently and joined. A failure of any operation is reported as
// one aggregated error; partially applied operations are not rolled back,
// the save is retried whole. On full success the initial copies are
// resynchronized so the next deletion diff runs against the just-saved
// state.
func (s *Store) Save(ctx context.Context, gw gateway.Gateway) error {
	if gw == nil {
		return newServiceError(opSave, "missing_gateway", gateway.ErrUnavailable)
	}

	s.mu.Lock()
	for i := range s.workingPosts {
		s.workingPosts[i].OrderRank = i
	}
	for i := range s.workingMerch {
		s.workingMerch[i].OrderRank = i
		s.workingMerch[i].SyncLegacyImage()
	}
	for i := range s.workingApps {
		s.workingApps[i].OrderRank = i
	}

	posts := append([]content.Post(nil), s.workingPosts...)
	merch := append([]content.MerchItem(nil), s.workingMerch...)
	apps := append([]content.AppItem(nil), s.workingApps...)
	var info *content.SiteInfo
	if s.info != nil {
		copied := *s.info
		info = &copied
	}
	initialPosts := append([]content.Post(nil), s.initialPosts...)
	initialMerch := append([]content.MerchItem(nil), s.initialMerch...)
	initialApps := append([]content.AppItem(nil), s.initialApps...)
	suspect := s.suspect
	s.mu.Unlock()

	for _, item := range merch {
		if err := item.Validate(); err != nil {
			return newServiceError(opSave, "invalid_merch_item", err)
		}
	}

	postDeletes, merchDeletes, appDeletes, err := s.deletionSets(
		ctx, gw, suspect,
		initialPosts, posts,
		initialMerch, merch,
		initialApps, apps,
	)
	if err != nil {
		return err
	}

	postRecords, err := encodePosts(posts)
	if err != nil {
		return newServiceError(opSave, "posts_encode_failed", err)
	}
	merchRecords, err := encodeMerch(merch)
	if err != nil {
		return newServiceError(opSave, "merch_encode_failed", err)
	}
	appRecords, err := encodeApps(apps)
	if err != nil {
		return newServiceError(opSave, "apps_encode_failed", err)
	}

	type saveOp struct {
		name string
		run  func(context.Context) error
	}
	ops := []saveOp{
		{name: "posts upsert", run: func(ctx context.Context) error {
			return gw.UpsertMany(ctx, gateway.CollectionPosts, postRecords)
		}},
		{name: "merch upsert", run: func(ctx context.Context) error {
			return gw.UpsertMany(ctx, gateway.CollectionMerch, merchRecords)
		}},
		{name: "apps upsert", run: func(ctx context.Context) error {
			return gw.UpsertMany(ctx, gateway.CollectionApps, appRecords)
		}},
	}
	if info != nil {
		record, err := content.EncodeSiteInfo(*info)
		if err != nil {
			return newServiceError(opSave, "info_encode_failed", err)
		}
		ops = append(ops, saveOp{name: "info update", run: func(ctx context.Context) error {
			return gw.UpdateSingleton(ctx, gateway.SingletonSiteInfo, record)
		}})
	}
	if len(postDeletes) > 0 {
		ops = append(ops, saveOp{name: "posts delete", run: func(ctx context.Context) error {
			return gw.DeleteMany(ctx, gateway.CollectionPosts, postDeletes)
		}})
	}
	if len(merchDeletes) > 0 {
		ops = append(ops, saveOp{name: "merch delete", run: func(ctx context.Context) error {
			return gw.DeleteMany(ctx, gateway.CollectionMerch, merchDeletes)
		}})
	}
	if len(appDeletes) > 0 {
		ops = append(ops, saveOp{name: "apps delete", run: func(ctx context.Context) error {
			return gw.DeleteMany(ctx, gateway.CollectionApps, appDeletes)
		}})
	}

	// Issue everything concurrently and join. Ordering between the
	// operations at the remote store is not guaranteed; no two concurrent
	// saves target overlapping identifiers under the single-operator
	// assumption.
	var wg sync.WaitGroup
	failures := make([]error, len(ops))
	for i, op := range ops {
		wg.Add(1)
		go func(i int, op saveOp) {
			defer wg.Done()
			if err := op.run(ctx); err != nil {
				failures[i] = gateway.NewRemoteError(op.name, err)
			}
		}(i, op)
	}
	wg.Wait()

	if joined := errors.Join(failures...); joined != nil {
		s.mu.Lock()
		s.suspect = true
		s.mu.Unlock()
		s.logger.Error("save failed", zap.Error(joined))
		return newServiceError(opSave, "remote_operation_failed", joined)
	}

	s.mu.Lock()
	s.initialPosts = append([]content.Post(nil), s.workingPosts...)
	s.initialMerch = append([]content.MerchItem(nil), s.workingMerch...)
	s.initialApps = append([]content.AppItem(nil), s.workingApps...)
	s.suspect = false
	s.mu.Unlock()

	s.logger.Info("draft saved",
		zap.Int("posts", len(posts)),
		zap.Int("merch", len(merch)),
		zap.Int("apps", len(apps)),
		zap.Int("deletions", len(postDeletes)+len(merchDeletes)+len(appDeletes)))
	return nil
}

// deletionSets computes the per-collection delete sets. The baseline is the
// initial copy captured at load; after a failed save that snapshot can
// disagree with remote state, so the diff is recomputed from a fresh remote
// read until a save succeeds again.
func (s *Store) deletionSets(
	ctx context.Context, gw gateway.Gateway, suspect bool,
	initialPosts, posts []content.Post,
	initialMerch, merch []content.MerchItem,
	initialApps, apps []content.AppItem,
) (postDeletes, merchDeletes, appDeletes []string, err error) {
	if !suspect {
		return missingIDs(initialPosts, idSet(posts)),
			missingIDs(initialMerch, idSet(merch)),
			missingIDs(initialApps, idSet(apps)),
			nil
	}

	s.logger.Warn("recomputing deletion diff from remote state after failed save")
	remotePosts, err := remoteIDs(ctx, gw, gateway.CollectionPosts)
	if err != nil {
		return nil, nil, nil, newServiceError(opSave, "remote_diff_failed", err)
	}
	remoteMerch, err := remoteIDs(ctx, gw, gateway.CollectionMerch)
	if err != nil {
		return nil, nil, nil, newServiceError(opSave, "remote_diff_failed", err)
	}
	remoteApps, err := remoteIDs(ctx, gw, gateway.CollectionApps)
	if err != nil {
		return nil, nil, nil, newServiceError(opSave, "remote_diff_failed", err)
	}
	return subtract(remotePosts, idSet(posts)),
		subtract(remoteMerch, idSet(merch)),
		subtract(remoteApps, idSet(apps)),
		nil
}

func remoteIDs(ctx context.Context, gw gateway.Gateway, collection gateway.Collection) ([]string, error) {
	records, err := gw.QueryCollection(ctx, collection, gateway.Query{})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(records))
	for _, record := range records {
		if id, ok := record["id"].(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func subtract(ids []string, working map[string]struct{}) []string {
	var missing []string
	for _, id := range ids {
		if _, ok := working[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func encodePosts(posts []content.Post) ([]gateway.Record, error) {
	records := make([]gateway.Record, 0, len(posts))
	for _, post := range posts {
		record, err := content.EncodePost(post)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func encodeMerch(items []content.MerchItem) ([]gateway.Record, error) {
	records := make([]gateway.Record, 0, len(items))
	for _, item := range items {
		record, err := content.EncodeMerchItem(item)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func encodeApps(items []content.AppItem) ([]gateway.Record, error) {
	records := make([]gateway.Record, 0, len(items))
	for _, item := range items {
		record, err := content.EncodeAppItem(item)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
