// Package remote implements the gateway contract against the hosted
// backend: a PostgREST-style data API, password authentication, object
// storage over HTTP and change notifications over a websocket.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/FullBlownAinz/dotcom/internal/gateway"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	errMissingBaseURL = errors.New("remote gateway: base url required")
	errMissingAnonKey = errors.New("remote gateway: anon key required")
)

// Config configures the remote gateway client.
type Config struct {
	// BaseURL is the root of the hosted backend, e.g. https://x.example.co.
	BaseURL string
	// AnonKey is the public API key sent with every request.
	AnonKey    string
	HTTPClient *http.Client
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Gateway is the HTTP client for the hosted backend.
type Gateway struct {
	baseURL string
	anonKey string
	http    *http.Client
	clock   func() time.Time
	logger  *zap.Logger

	sessionMu sync.Mutex
	session   gateway.Session
	loggedIn  bool
}

// New constructs a remote gateway client.
func New(cfg Config) (*Gateway, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errMissingBaseURL
	}
	if strings.TrimSpace(cfg.AnonKey) == "" {
		return nil, errMissingAnonKey
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		baseURL: base,
		anonKey: cfg.AnonKey,
		http:    client,
		clock:   clock,
		logger:  logger,
	}, nil
}

// QueryCollection reads a collection through the data API.
func (g *Gateway) QueryCollection(ctx context.Context, collection gateway.Collection, query gateway.Query) ([]gateway.Record, error) {
	values := url.Values{}
	values.Set("select", "*")
	if query.Hidden != nil {
		values.Set("hidden", fmt.Sprintf("eq.%t", *query.Hidden))
	}
	if query.OrderByRank {
		values.Set("order", "order_index.asc")
	}
	endpoint := g.restURL(collection.String()) + "?" + values.Encode()

	body, err := g.do(ctx, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		return nil, gateway.NewRemoteError(fmt.Sprintf("%s query", collection), err)
	}
	var records []gateway.Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, gateway.NewRemoteError(fmt.Sprintf("%s decode", collection), err)
	}
	return records, nil
}

// GetSingleton reads a singleton document if present.
func (g *Gateway) GetSingleton(ctx context.Context, name string) (gateway.Record, bool, error) {
	endpoint := g.restURL(name) + "?select=*&id=eq.true"
	body, err := g.do(ctx, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		return nil, false, gateway.NewRemoteError(name+" read", err)
	}
	var records []gateway.Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, false, gateway.NewRemoteError(name+" decode", err)
	}
	if len(records) == 0 {
		return nil, false, nil
	}
	return records[0], true, nil
}

// UpsertMany inserts or updates records keyed by identifier in one call.
func (g *Gateway) UpsertMany(ctx context.Context, collection gateway.Collection, records []gateway.Record) error {
	if len(records) == 0 {
		return nil
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return gateway.NewRemoteError(fmt.Sprintf("%s upsert", collection), err)
	}
	headers := map[string]string{
		"Prefer": "resolution=merge-duplicates,return=minimal",
	}
	if _, err := g.do(ctx, http.MethodPost, g.restURL(collection.String()), payload, headers); err != nil {
		return gateway.NewRemoteError(fmt.Sprintf("%s upsert", collection), err)
	}
	return nil
}

// DeleteMany removes the identified rows in one call.
func (g *Gateway) DeleteMany(ctx context.Context, collection gateway.Collection, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	filter := url.Values{}
	filter.Set("id", "in.("+strings.Join(ids, ",")+")")
	endpoint := g.restURL(collection.String()) + "?" + filter.Encode()
	if _, err := g.do(ctx, http.MethodDelete, endpoint, nil, nil); err != nil {
		return gateway.NewRemoteError(fmt.Sprintf("%s delete", collection), err)
	}
	return nil
}

// UpdateOne patches the named fields of a single row.
func (g *Gateway) UpdateOne(ctx context.Context, collection gateway.Collection, id string, fields gateway.Record) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return gateway.NewRemoteError(fmt.Sprintf("%s update", collection), err)
	}
	filter := url.Values{}
	filter.Set("id", "eq."+id)
	endpoint := g.restURL(collection.String()) + "?" + filter.Encode()
	if _, err := g.do(ctx, http.MethodPatch, endpoint, payload, nil); err != nil {
		return gateway.NewRemoteError(fmt.Sprintf("%s update", collection), err)
	}
	return nil
}

// UpdateSingleton replaces a singleton document.
func (g *Gateway) UpdateSingleton(ctx context.Context, name string, record gateway.Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return gateway.NewRemoteError(name+" update", err)
	}
	endpoint := g.restURL(name) + "?id=eq.true"
	if _, err := g.do(ctx, http.MethodPatch, endpoint, payload, nil); err != nil {
		return gateway.NewRemoteError(name+" update", err)
	}
	return nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	ExpiresAt   int64  `json:"expires_at"`
}

// Authenticate exchanges operator credentials for a session.
func (g *Gateway) Authenticate(ctx context.Context, identifier, secret string) (gateway.Session, error) {
	payload, err := json.Marshal(map[string]string{"email": identifier, "password": secret})
	if err != nil {
		return gateway.Session{}, gateway.NewRemoteError("authenticate", err)
	}
	endpoint := g.baseURL + "/auth/v1/token?grant_type=password"
	body, err := g.do(ctx, http.MethodPost, endpoint, payload, nil)
	if err != nil {
		return gateway.Session{}, gateway.NewRemoteError("authenticate", err)
	}
	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return gateway.Session{}, gateway.NewRemoteError("authenticate", err)
	}
	if token.AccessToken == "" {
		return gateway.Session{}, gateway.NewRemoteError("authenticate", errors.New("no access token in response"))
	}

	s := gateway.Session{
		Token:      token.AccessToken,
		Identifier: identifier,
		ExpiresAt:  g.tokenExpiry(token),
	}
	g.sessionMu.Lock()
	g.session = s
	g.loggedIn = true
	g.sessionMu.Unlock()
	g.logger.Info("operator authenticated", zap.String("identifier", identifier))
	return s, nil
}

// tokenExpiry prefers the explicit expiry fields and falls back to the
// token's own exp claim. Signature verification is the backend's job; the
// claim is only read for scheduling passive expiry.
func (g *Gateway) tokenExpiry(token tokenResponse) time.Time {
	if token.ExpiresAt > 0 {
		return time.Unix(token.ExpiresAt, 0)
	}
	if token.ExpiresIn > 0 {
		return g.clock().Add(time.Duration(token.ExpiresIn) * time.Second)
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token.AccessToken, claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return time.Time{}
}

// CurrentSession returns the stored session, if one exists and has not
// expired.
func (g *Gateway) CurrentSession(_ context.Context) (gateway.Session, bool, error) {
	g.sessionMu.Lock()
	defer g.sessionMu.Unlock()
	if !g.loggedIn || g.session.Expired(g.clock()) {
		return gateway.Session{}, false, nil
	}
	return g.session, true, nil
}

// SignOut revokes the session remotely and discards it locally. The local
// discard happens regardless of the revocation outcome.
func (g *Gateway) SignOut(ctx context.Context) error {
	g.sessionMu.Lock()
	loggedIn := g.loggedIn
	g.session = gateway.Session{}
	g.loggedIn = false
	g.sessionMu.Unlock()
	if !loggedIn {
		return nil
	}
	if _, err := g.do(ctx, http.MethodPost, g.baseURL+"/auth/v1/logout", nil, nil); err != nil {
		g.logger.Warn("remote sign-out failed", zap.Error(err))
	}
	return nil
}

// UploadObject stores the file in the named bucket and returns its public
// URL.
func (g *Gateway) UploadObject(ctx context.Context, bucket, pathHint string, data []byte) (string, error) {
	key := gateway.ObjectPath(g.clock(), pathHint)
	endpoint := g.baseURL + "/storage/v1/object/" + bucket + "/" + key
	headers := map[string]string{"Content-Type": "application/octet-stream"}
	if _, err := g.do(ctx, http.MethodPost, endpoint, data, headers); err != nil {
		return "", gateway.NewRemoteError("upload", err)
	}
	return g.baseURL + "/storage/v1/object/public/" + bucket + "/" + key, nil
}

func (g *Gateway) restURL(table string) string {
	return g.baseURL + "/rest/v1/" + table
}

func (g *Gateway) do(ctx context.Context, method, endpoint string, payload []byte, headers map[string]string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	request, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	request.Header.Set("apikey", g.anonKey)
	request.Header.Set("Authorization", "Bearer "+g.bearerToken())
	if payload != nil && request.Header.Get("Content-Type") == "" {
		request.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		request.Header.Set(key, value)
	}

	response, err := g.http.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, fmt.Errorf("status %d: %s", response.StatusCode, strings.TrimSpace(string(responseBody)))
	}
	return responseBody, nil
}

func (g *Gateway) bearerToken() string {
	g.sessionMu.Lock()
	defer g.sessionMu.Unlock()
	if g.loggedIn && !g.session.Expired(g.clock()) {
		return g.session.Token
	}
	return g.anonKey
}
