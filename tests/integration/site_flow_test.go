package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/FullBlownAinz/dotcom/internal/cache"
	"github.com/FullBlownAinz/dotcom/internal/content"
	"github.com/FullBlownAinz/dotcom/internal/gateway/local"
	"github.com/FullBlownAinz/dotcom/internal/server"
	"github.com/FullBlownAinz/dotcom/internal/session"
	"github.com/gin-gonic/gin"
)

const (
	operatorEmail  = "operator@example.com"
	operatorSecret = "correct horse battery staple"
)

type site struct {
	server *httptest.Server
	gw     *local.Gateway
}

func startSite(t *testing.T) *site {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	gw, err := local.New(local.Config{
		DatabasePath:  filepath.Join(dir, "site.db"),
		MediaDir:      dir,
		SigningSecret: []byte("integration-secret"),
		Operators: map[string]string{
			operatorEmail: local.HashSecret(operatorSecret),
		},
	})
	if err != nil {
		t.Fatalf("open local gateway: %v", err)
	}
	t.Cleanup(func() { _ = gw.Close() })

	contentCache := cache.New(cache.Config{Gateway: gw})
	stop, err := contentCache.Start(context.Background())
	if err != nil {
		t.Fatalf("start cache watcher: %v", err)
	}
	t.Cleanup(stop)
	gate := session.NewGate(session.GateConfig{})

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Gateway: gw,
		Cache:   contentCache,
		Gate:    gate,
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}

	httpServer := httptest.NewServer(handler)
	t.Cleanup(httpServer.Close)
	return &site{server: httpServer, gw: gw}
}

func (s *site) request(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
	}
	request, err := http.NewRequest(method, s.server.URL+path, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	response, err := s.server.Client().Do(request)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer response.Body.Close()
	if out != nil {
		if err := json.NewDecoder(response.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return response.StatusCode
}

func TestOperatorPublishFlow(t *testing.T) {
	s := startSite(t)

	// Anonymous visitors see the bundled sample content before anything is
	// published.
	var published struct {
		Posts []content.Post `json:"posts"`
	}
	if status := s.request(t, http.MethodGet, "/api/content", "", nil, &published); status != http.StatusOK {
		t.Fatalf("content status %d", status)
	}

	var login struct {
		AccessToken string `json:"access_token"`
	}
	status := s.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": operatorEmail,
		"secret":     operatorSecret,
	}, &login)
	if status != http.StatusOK || login.AccessToken == "" {
		t.Fatalf("login failed, status %d", status)
	}
	token := login.AccessToken

	if status := s.request(t, http.MethodPost, "/api/admin/edit-mode", token, map[string]bool{"on": true}, nil); status != http.StatusOK {
		t.Fatalf("edit-mode status %d", status)
	}

	// Draft a post, publish it, flip it visible.
	var post content.Post
	if status := s.request(t, http.MethodPost, "/api/admin/draft/posts/new", token, nil, &post); status != http.StatusOK {
		t.Fatalf("create status %d", status)
	}
	post.Title = "Launch Day"
	post.Body = content.PlainText("We are live.")
	if status := s.request(t, http.MethodPost, "/api/admin/draft/posts/items", token, post, nil); status != http.StatusOK {
		t.Fatalf("upsert status %d", status)
	}
	if status := s.request(t, http.MethodPost, "/api/admin/save", token, nil, nil); status != http.StatusOK {
		t.Fatalf("save status %d", status)
	}

	// Saved but hidden: the public view must not carry it yet.
	if status := s.request(t, http.MethodGet, "/api/content", "", nil, &published); status != http.StatusOK {
		t.Fatalf("content status %d", status)
	}
	for _, p := range published.Posts {
		if p.ID == post.ID {
			t.Fatalf("hidden post leaked into public content")
		}
	}

	var toggled struct {
		Hidden bool `json:"hidden"`
	}
	status = s.request(t, http.MethodPost, "/api/admin/toggle", token, map[string]string{
		"collection": "posts",
		"id":         post.ID,
	}, &toggled)
	if status != http.StatusOK || toggled.Hidden {
		t.Fatalf("toggle status %d hidden %v", status, toggled.Hidden)
	}

	// The toggle reaches the public view through the change feed, which is
	// delivered asynchronously.
	deadline := time.Now().Add(3 * time.Second)
	for {
		if status := s.request(t, http.MethodGet, "/api/content", "", nil, &published); status != http.StatusOK {
			t.Fatalf("content status %d", status)
		}
		found := false
		for _, p := range published.Posts {
			if p.ID == post.ID && p.Title == "Launch Day" {
				found = true
			}
		}
		if found {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("published post missing from public content: %+v", published.Posts)
		}
		time.Sleep(25 * time.Millisecond)
	}
}

func TestDraftSurvivesOnlyWithinEditSession(t *testing.T) {
	s := startSite(t)

	var login struct {
		AccessToken string `json:"access_token"`
	}
	s.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": operatorEmail,
		"secret":     operatorSecret,
	}, &login)
	token := login.AccessToken

	if status := s.request(t, http.MethodPost, "/api/admin/edit-mode", token, map[string]bool{"on": true}, nil); status != http.StatusOK {
		t.Fatalf("edit-mode status %d", status)
	}
	var post content.Post
	if status := s.request(t, http.MethodPost, "/api/admin/draft/posts/new", token, nil, &post); status != http.StatusOK {
		t.Fatalf("create status %d", status)
	}

	// Leaving edit mode discards the unsaved draft.
	if status := s.request(t, http.MethodPost, "/api/admin/edit-mode", token, map[string]bool{"on": false}, nil); status != http.StatusOK {
		t.Fatalf("edit-mode off status %d", status)
	}
	if status := s.request(t, http.MethodPost, "/api/admin/edit-mode", token, map[string]bool{"on": true}, nil); status != http.StatusOK {
		t.Fatalf("edit-mode on status %d", status)
	}
	var snapshot struct {
		Posts []content.Post `json:"posts"`
	}
	if status := s.request(t, http.MethodGet, "/api/admin/draft", token, nil, &snapshot); status != http.StatusOK {
		t.Fatalf("snapshot status %d", status)
	}
	for _, p := range snapshot.Posts {
		if p.ID == post.ID {
			t.Fatalf("unsaved draft survived the edit session")
		}
	}
}

func TestReorderPersistsAcrossSave(t *testing.T) {
	s := startSite(t)

	var login struct {
		AccessToken string `json:"access_token"`
	}
	s.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": operatorEmail,
		"secret":     operatorSecret,
	}, &login)
	token := login.AccessToken
	s.request(t, http.MethodPost, "/api/admin/edit-mode", token, map[string]bool{"on": true}, nil)

	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		var post content.Post
		if status := s.request(t, http.MethodPost, "/api/admin/draft/posts/new", token, nil, &post); status != http.StatusOK {
			t.Fatalf("create status %d", status)
		}
		ids = append(ids, post.ID)
	}

	reversed := []string{ids[2], ids[1], ids[0]}
	if status := s.request(t, http.MethodPost, "/api/admin/draft/posts/reorder", token, map[string]any{"ids": reversed}, nil); status != http.StatusOK {
		t.Fatalf("reorder status %d", status)
	}
	if status := s.request(t, http.MethodPost, "/api/admin/save", token, nil, nil); status != http.StatusOK {
		t.Fatalf("save status %d", status)
	}

	// A fresh edit session reads the persisted order back.
	s.request(t, http.MethodPost, "/api/admin/edit-mode", token, map[string]bool{"on": false}, nil)
	s.request(t, http.MethodPost, "/api/admin/edit-mode", token, map[string]bool{"on": true}, nil)

	var snapshot struct {
		Posts []content.Post `json:"posts"`
	}
	if status := s.request(t, http.MethodGet, "/api/admin/draft", token, nil, &snapshot); status != http.StatusOK {
		t.Fatalf("snapshot status %d", status)
	}
	if len(snapshot.Posts) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(snapshot.Posts))
	}
	for index, want := range reversed {
		if snapshot.Posts[index].ID != want {
			t.Fatalf("position %d: got %s, want %s", index, snapshot.Posts[index].ID, want)
		}
	}
}
