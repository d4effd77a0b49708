package draft

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/FullBlownAinz/dotcom/internal/content"
	"github.com/FullBlownAinz/dotcom/internal/gateway"
)

// fakeGateway is an in-memory Gateway with per-operation failure injection.
type fakeGateway struct {
	mu          sync.Mutex
	collections map[gateway.Collection]map[string]gateway.Record
	singletons  map[string]gateway.Record

	failUpsert map[gateway.Collection]error
	failDelete map[gateway.Collection]error
	failUpdate error
	failQuery  error

	upsertCalls map[gateway.Collection]int
	deleteCalls map[gateway.Collection][]string
	updateCalls []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		collections: map[gateway.Collection]map[string]gateway.Record{
			gateway.CollectionPosts: {},
			gateway.CollectionMerch: {},
			gateway.CollectionApps:  {},
		},
		singletons:  map[string]gateway.Record{},
		failUpsert:  map[gateway.Collection]error{},
		failDelete:  map[gateway.Collection]error{},
		upsertCalls: map[gateway.Collection]int{},
		deleteCalls: map[gateway.Collection][]string{},
	}
}

func (g *fakeGateway) seed(t *testing.T, collection gateway.Collection, records ...gateway.Record) {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, record := range records {
		id, ok := record["id"].(string)
		if !ok || id == "" {
			t.Fatalf("seed record without id: %v", record)
		}
		g.collections[collection][id] = record
	}
}

func (g *fakeGateway) QueryCollection(ctx context.Context, collection gateway.Collection, query gateway.Query) ([]gateway.Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failQuery != nil {
		return nil, g.failQuery
	}
	var records []gateway.Record
	for _, record := range g.collections[collection] {
		if query.Hidden != nil {
			hidden, _ := record["hidden"].(bool)
			if hidden != *query.Hidden {
				continue
			}
		}
		records = append(records, record)
	}
	if query.OrderByRank {
		sort.Slice(records, func(i, j int) bool {
			return rankOf(records[i]) < rankOf(records[j])
		})
	}
	return records, nil
}

func rankOf(record gateway.Record) float64 {
	rank, _ := record["order_index"].(float64)
	return rank
}

func (g *fakeGateway) GetSingleton(ctx context.Context, name string) (gateway.Record, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	record, ok := g.singletons[name]
	return record, ok, nil
}

func (g *fakeGateway) UpsertMany(ctx context.Context, collection gateway.Collection, records []gateway.Record) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.upsertCalls[collection]++
	if err := g.failUpsert[collection]; err != nil {
		return err
	}
	for _, record := range records {
		id, ok := record["id"].(string)
		if !ok || id == "" {
			return fmt.Errorf("record without id")
		}
		g.collections[collection][id] = record
	}
	return nil
}

func (g *fakeGateway) DeleteMany(ctx context.Context, collection gateway.Collection, ids []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleteCalls[collection] = append(g.deleteCalls[collection], ids...)
	if err := g.failDelete[collection]; err != nil {
		return err
	}
	for _, id := range ids {
		delete(g.collections[collection], id)
	}
	return nil
}

func (g *fakeGateway) UpdateOne(ctx context.Context, collection gateway.Collection, id string, fields gateway.Record) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.updateCalls = append(g.updateCalls, fmt.Sprintf("%s/%s", collection, id))
	if g.failUpdate != nil {
		return g.failUpdate
	}
	record, ok := g.collections[collection][id]
	if !ok {
		return fmt.Errorf("row %s not found", id)
	}
	for key, value := range fields {
		record[key] = value
	}
	return nil
}

func (g *fakeGateway) UpdateSingleton(ctx context.Context, name string, record gateway.Record) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.singletons[name] = record
	return nil
}

func (g *fakeGateway) Authenticate(ctx context.Context, identifier, secret string) (gateway.Session, error) {
	return gateway.Session{}, errors.New("not supported")
}

func (g *fakeGateway) CurrentSession(ctx context.Context) (gateway.Session, bool, error) {
	return gateway.Session{}, false, nil
}

func (g *fakeGateway) SignOut(ctx context.Context) error { return nil }

func (g *fakeGateway) SubscribeChanges(ctx context.Context, notify func()) (func(), error) {
	return func() {}, nil
}

func (g *fakeGateway) UploadObject(ctx context.Context, bucket, pathHint string, data []byte) (string, error) {
	return "/media/" + bucket + "/" + pathHint, nil
}

func (g *fakeGateway) recordIDs(collection gateway.Collection) map[string]bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make(map[string]bool, len(g.collections[collection]))
	for id := range g.collections[collection] {
		ids[id] = true
	}
	return ids
}

func postRecord(t *testing.T, post content.Post) gateway.Record {
	t.Helper()
	record, err := content.EncodePost(post)
	if err != nil {
		t.Fatalf("encode post: %v", err)
	}
	return record
}

func merchRecord(t *testing.T, item content.MerchItem) gateway.Record {
	t.Helper()
	record, err := content.EncodeMerchItem(item)
	if err != nil {
		t.Fatalf("encode merch: %v", err)
	}
	return record
}

func mustLoad(t *testing.T, gw gateway.Gateway) *Store {
	t.Helper()
	store, err := LoadForEditing(context.Background(), gw, StoreConfig{})
	if err != nil {
		t.Fatalf("LoadForEditing: %v", err)
	}
	return store
}

func testPost(id string, rank int) content.Post {
	return content.Post{
		ID:        id,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Title:     "Post " + id,
		OrderRank: rank,
	}
}

func testMerch(id string, rank int) content.MerchItem {
	return content.MerchItem{
		ID:        id,
		Name:      "Merch " + id,
		ImageURL:  "/media/" + id + ".png",
		Currency:  "USD",
		OrderRank: rank,
	}
}
