package draft

import (
	"context"
	"errors"
	"testing"

	"github.com/FullBlownAinz/dotcom/internal/content"
	"github.com/FullBlownAinz/dotcom/internal/gateway"
)

func TestLoadForEditingFetchesHiddenItemsInRankOrder(t *testing.T) {
	gw := newFakeGateway()
	hidden := testPost("p2", 1)
	hidden.Hidden = true
	gw.seed(t, gateway.CollectionPosts,
		postRecord(t, testPost("p3", 2)),
		postRecord(t, testPost("p1", 0)),
		postRecord(t, hidden),
	)

	store := mustLoad(t, gw)

	posts := store.Posts()
	if len(posts) != 3 {
		t.Fatalf("expected hidden items in the draft, got %d posts", len(posts))
	}
	for i, want := range []string{"p1", "p2", "p3"} {
		if posts[i].ID != want {
			t.Fatalf("posts[%d] = %s, want %s", i, posts[i].ID, want)
		}
	}
}

func TestLoadForEditingRequiresGateway(t *testing.T) {
	_, err := LoadForEditing(context.Background(), nil, StoreConfig{})
	if !errors.Is(err, gateway.ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}

func TestLoadForEditingCapturesInfoSingleton(t *testing.T) {
	gw := newFakeGateway()
	record, err := content.EncodeSiteInfo(content.SiteInfo{Body: content.PlainText("about")})
	if err != nil {
		t.Fatalf("encode info: %v", err)
	}
	gw.singletons[gateway.SingletonSiteInfo] = record

	store := mustLoad(t, gw)

	info, ok := store.Info()
	if !ok {
		t.Fatalf("expected info document")
	}
	if info.Body.Plain() != "about" {
		t.Fatalf("info body = %q, want %q", info.Body.Plain(), "about")
	}
}

func TestUpsertReplacesInPlace(t *testing.T) {
	gw := newFakeGateway()
	gw.seed(t, gateway.CollectionPosts,
		postRecord(t, testPost("p1", 0)),
		postRecord(t, testPost("p2", 1)),
	)
	store := mustLoad(t, gw)

	edited := testPost("p2", 1)
	edited.Title = "Edited"
	if err := store.UpsertPost(edited); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	posts := store.Posts()
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[1].ID != "p2" || posts[1].Title != "Edited" {
		t.Fatalf("edit must replace in place, got %+v", posts[1])
	}
}

func TestUpsertPrependsNewItems(t *testing.T) {
	gw := newFakeGateway()
	gw.seed(t, gateway.CollectionPosts, postRecord(t, testPost("p1", 0)))
	store := mustLoad(t, gw)

	if err := store.UpsertPost(testPost("p0", content.OrderRankAppend)); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	posts := store.Posts()
	if posts[0].ID != "p0" {
		t.Fatalf("new item must be prepended, got order %v", []string{posts[0].ID, posts[1].ID})
	}
}

func TestUpsertRejectsMissingID(t *testing.T) {
	store := mustLoad(t, newFakeGateway())
	if err := store.UpsertPost(content.Post{}); !errors.Is(err, content.ErrMissingItemID) {
		t.Fatalf("error = %v, want ErrMissingItemID", err)
	}
}

func TestUpsertMerchItemSyncsLegacyImage(t *testing.T) {
	store := mustLoad(t, newFakeGateway())

	item := content.MerchItem{ID: "m1", ImageURLs: []string{"/media/a.png", "/media/b.png"}}
	if err := store.UpsertMerchItem(item); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	items := store.MerchItems()
	if items[0].ImageURL != "/media/a.png" {
		t.Fatalf("legacy image column not synced: %q", items[0].ImageURL)
	}
}

func TestRemoveOnlyTouchesWorkingCopy(t *testing.T) {
	gw := newFakeGateway()
	gw.seed(t, gateway.CollectionPosts,
		postRecord(t, testPost("p1", 0)),
		postRecord(t, testPost("p2", 1)),
	)
	store := mustLoad(t, gw)

	store.RemovePost("p1")

	if posts := store.Posts(); len(posts) != 1 || posts[0].ID != "p2" {
		t.Fatalf("unexpected working posts: %+v", posts)
	}
	// Remote state is untouched until save.
	if !gw.recordIDs(gateway.CollectionPosts)["p1"] {
		t.Fatalf("remove must not delete remotely before save")
	}
}

func TestMovePreservesMembership(t *testing.T) {
	gw := newFakeGateway()
	gw.seed(t, gateway.CollectionPosts,
		postRecord(t, testPost("p1", 0)),
		postRecord(t, testPost("p2", 1)),
		postRecord(t, testPost("p3", 2)),
	)
	store := mustLoad(t, gw)

	if err := store.MovePost(0, 2); err != nil {
		t.Fatalf("move: %v", err)
	}

	posts := store.Posts()
	got := []string{posts[0].ID, posts[1].ID, posts[2].ID}
	want := []string{"p2", "p3", "p1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order after move = %v, want %v", got, want)
		}
	}
}

func TestMoveRejectsOutOfRangeIndexes(t *testing.T) {
	gw := newFakeGateway()
	gw.seed(t, gateway.CollectionPosts, postRecord(t, testPost("p1", 0)))
	store := mustLoad(t, gw)

	if err := store.MovePost(0, 5); !errors.Is(err, errIndexOutOfRange) {
		t.Fatalf("error = %v, want errIndexOutOfRange", err)
	}
	if err := store.MovePost(-1, 0); !errors.Is(err, errIndexOutOfRange) {
		t.Fatalf("error = %v, want errIndexOutOfRange", err)
	}
}

func TestReorderAppliesPermutation(t *testing.T) {
	gw := newFakeGateway()
	gw.seed(t, gateway.CollectionMerch,
		merchRecord(t, testMerch("m1", 0)),
		merchRecord(t, testMerch("m2", 1)),
		merchRecord(t, testMerch("m3", 2)),
	)
	store := mustLoad(t, gw)

	if err := store.ReorderMerchItems([]string{"m3", "m1", "m2"}); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	items := store.MerchItems()
	for i, want := range []string{"m3", "m1", "m2"} {
		if items[i].ID != want {
			t.Fatalf("items[%d] = %s, want %s", i, items[i].ID, want)
		}
	}
}

func TestReorderRejectsNonPermutations(t *testing.T) {
	gw := newFakeGateway()
	gw.seed(t, gateway.CollectionMerch,
		merchRecord(t, testMerch("m1", 0)),
		merchRecord(t, testMerch("m2", 1)),
	)
	store := mustLoad(t, gw)

	cases := []struct {
		name string
		ids  []string
	}{
		{name: "short", ids: []string{"m1"}},
		{name: "unknown", ids: []string{"m1", "mX"}},
		{name: "duplicate", ids: []string{"m1", "m1"}},
	}
	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			if err := store.ReorderMerchItems(testCase.ids); !errors.Is(err, errNotPermutation) {
				t.Fatalf("error = %v, want errNotPermutation", err)
			}
		})
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	gw := newFakeGateway()
	gw.seed(t, gateway.CollectionPosts, postRecord(t, testPost("p1", 0)))
	store := mustLoad(t, gw)

	posts := store.Posts()
	posts[0].Title = "mutated"

	if store.Posts()[0].Title == "mutated" {
		t.Fatalf("accessor must return a copy")
	}
}
