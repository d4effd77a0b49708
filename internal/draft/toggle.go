package draft

import (
	"context"

	"github.com/FullBlownAinz/dotcom/internal/gateway"
	"go.uber.org/zap"
)

// speculate applies a local change before its remote effect is confirmed and
// restores the snapshot if the effect fails. Any single-field optimistic
// mutation goes through here rather than hand-rolling the rollback.
func speculate(apply, revert func(), effect func() error) error {
	apply()
	if err := effect(); err != nil {
		revert()
		return err
	}
	return nil
}

// ToggleHidden flips an item's hidden flag in the working copy immediately
// and issues a single-field remote update. On remote failure the local flip
// is reverted. With a nil gateway the local flip stands and no remote call
// is made. Returns the value the flag holds after the call settles.
func (s *Store) ToggleHidden(ctx context.Context, gw gateway.Gateway, collection gateway.Collection, id string) (bool, error) {
	s.mu.Lock()
	previous, ok := s.hiddenLocked(collection, id)
	s.mu.Unlock()
	if !ok {
		return false, newServiceError(opToggle, "unknown_item", errUnknownItem)
	}
	newValue := !previous

	apply := func() {
		s.mu.Lock()
		s.setHiddenLocked(collection, id, newValue)
		s.mu.Unlock()
	}
	revert := func() {
		s.mu.Lock()
		s.setHiddenLocked(collection, id, previous)
		s.mu.Unlock()
	}

	if gw == nil {
		apply()
		return newValue, nil
	}

	err := speculate(apply, revert, func() error {
		return gw.UpdateOne(ctx, collection, id, gateway.Record{"hidden": newValue})
	})
	if err != nil {
		s.logger.Warn("visibility toggle failed",
			zap.String("collection", collection.String()),
			zap.String("id", id),
			zap.Error(err))
		return previous, newServiceError(opToggle, "remote_operation_failed", err)
	}
	return newValue, nil
}

func (s *Store) hiddenLocked(collection gateway.Collection, id string) (bool, bool) {
	switch collection {
	case gateway.CollectionPosts:
		for _, item := range s.workingPosts {
			if item.ID == id {
				return item.Hidden, true
			}
		}
	case gateway.CollectionMerch:
		for _, item := range s.workingMerch {
			if item.ID == id {
				return item.Hidden, true
			}
		}
	case gateway.CollectionApps:
		for _, item := range s.workingApps {
			if item.ID == id {
				return item.Hidden, true
			}
		}
	}
	return false, false
}

func (s *Store) setHiddenLocked(collection gateway.Collection, id string, hidden bool) {
	switch collection {
	case gateway.CollectionPosts:
		for i := range s.workingPosts {
			if s.workingPosts[i].ID == id {
				s.workingPosts[i].Hidden = hidden
			}
		}
	case gateway.CollectionMerch:
		for i := range s.workingMerch {
			if s.workingMerch[i].ID == id {
				s.workingMerch[i].Hidden = hidden
			}
		}
	case gateway.CollectionApps:
		for i := range s.workingApps {
			if s.workingApps[i].ID == id {
				s.workingApps[i].Hidden = hidden
			}
		}
	}
}
