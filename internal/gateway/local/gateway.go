// Package local provides an in-process implementation of the gateway
// contract backed by SQLite. It exists for development and tests: the same
// collections, singleton documents, credential authentication, change
// notifications and object storage as the hosted backend, without leaving
// the process.
package local

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/FullBlownAinz/dotcom/internal/gateway"
	sqlite "github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	tokenIssuer     = "fba-local"
	defaultTokenTTL = 12 * time.Hour
)

var (
	errMissingDatabasePath  = errors.New("local gateway: database path required")
	errMissingSigningSecret = errors.New("local gateway: signing secret required")
	errBadCredentials       = errors.New("local gateway: invalid credentials")
	errMissingRecordID      = errors.New("local gateway: record id required")
)

// Config configures the local gateway.
type Config struct {
	DatabasePath string
	MediaDir     string
	// SigningSecret signs session tokens.
	SigningSecret []byte
	// Operators maps credential identifiers to SHA-256 hex digests of
	// their secrets; rows are seeded at open.
	Operators map[string]string
	TokenTTL  time.Duration
	Clock     func() time.Time
	Logger    *zap.Logger
}

// Gateway is the SQLite-backed gateway implementation.
type Gateway struct {
	db            *gorm.DB
	mediaDir      string
	signingSecret []byte
	tokenTTL      time.Duration
	clock         func() time.Time
	logger        *zap.Logger
	changes       *dispatcher

	sessionMu sync.Mutex
	session   gateway.Session
	loggedIn  bool
}

// New opens the database, migrates the schema and seeds operator rows.
func New(cfg Config) (*Gateway, error) {
	if cfg.DatabasePath == "" {
		return nil, errMissingDatabasePath
	}
	if len(cfg.SigningSecret) == 0 {
		return nil, errMissingSigningSecret
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&itemRow{}, &singletonRow{}, &operatorRow{}); err != nil {
		return nil, err
	}

	for identifier, secretHash := range cfg.Operators {
		row := operatorRow{Identifier: identifier, SecretHash: strings.ToLower(secretHash)}
		if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
			return nil, err
		}
	}

	logger.Info("local gateway opened", zap.String("path", cfg.DatabasePath))
	return &Gateway{
		db:            db,
		mediaDir:      cfg.MediaDir,
		signingSecret: append([]byte(nil), cfg.SigningSecret...),
		tokenTTL:      ttl,
		clock:         clock,
		logger:        logger,
		changes:       newDispatcher(),
	}, nil
}

// Close releases the underlying database handle.
func (g *Gateway) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// QueryCollection reads a collection, optionally filtered on hidden and
// ordered by rank.
func (g *Gateway) QueryCollection(ctx context.Context, collection gateway.Collection, query gateway.Query) ([]gateway.Record, error) {
	tx := g.db.WithContext(ctx).Where("collection = ?", collection.String())
	if query.Hidden != nil {
		tx = tx.Where("hidden = ?", *query.Hidden)
	}
	if query.OrderByRank {
		tx = tx.Order("order_rank ASC")
	}
	var rows []itemRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, gateway.NewRemoteError(fmt.Sprintf("%s query", collection), err)
	}
	records := make([]gateway.Record, 0, len(rows))
	for _, row := range rows {
		var record gateway.Record
		if err := json.Unmarshal([]byte(row.PayloadJSON), &record); err != nil {
			return nil, gateway.NewRemoteError(fmt.Sprintf("%s decode", collection), err)
		}
		records = append(records, record)
	}
	return records, nil
}

// GetSingleton reads a singleton document if present.
func (g *Gateway) GetSingleton(ctx context.Context, name string) (gateway.Record, bool, error) {
	var row singletonRow
	err := g.db.WithContext(ctx).Where("name = ?", name).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, gateway.NewRemoteError(name+" read", err)
	}
	var record gateway.Record
	if err := json.Unmarshal([]byte(row.PayloadJSON), &record); err != nil {
		return nil, false, gateway.NewRemoteError(name+" decode", err)
	}
	return record, true, nil
}

// UpsertMany inserts or replaces records keyed by identifier.
func (g *Gateway) UpsertMany(ctx context.Context, collection gateway.Collection, records []gateway.Record) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]itemRow, 0, len(records))
	for _, record := range records {
		row, err := recordToRow(collection, record)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
	if err != nil {
		return gateway.NewRemoteError(fmt.Sprintf("%s upsert", collection), err)
	}
	g.changes.publish()
	return nil
}

// DeleteMany removes the identified rows.
func (g *Gateway) DeleteMany(ctx context.Context, collection gateway.Collection, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	err := g.db.WithContext(ctx).
		Where("collection = ? AND item_id IN ?", collection.String(), ids).
		Delete(&itemRow{}).Error
	if err != nil {
		return gateway.NewRemoteError(fmt.Sprintf("%s delete", collection), err)
	}
	g.changes.publish()
	return nil
}

// UpdateOne patches the named fields of a single row.
func (g *Gateway) UpdateOne(ctx context.Context, collection gateway.Collection, id string, fields gateway.Record) error {
	op := fmt.Sprintf("%s update", collection)
	var row itemRow
	err := g.db.WithContext(ctx).
		Where("collection = ? AND item_id = ?", collection.String(), id).
		Take(&row).Error
	if err != nil {
		return gateway.NewRemoteError(op, err)
	}
	var record gateway.Record
	if err := json.Unmarshal([]byte(row.PayloadJSON), &record); err != nil {
		return gateway.NewRemoteError(op, err)
	}
	for key, value := range fields {
		record[key] = value
	}
	updated, err := recordToRow(collection, record)
	if err != nil {
		return err
	}
	err = g.db.WithContext(ctx).
		Where("collection = ? AND item_id = ?", collection.String(), id).
		Updates(map[string]any{
			"hidden":       updated.Hidden,
			"order_rank":   updated.OrderRank,
			"payload_json": updated.PayloadJSON,
		}).Error
	if err != nil {
		return gateway.NewRemoteError(op, err)
	}
	g.changes.publish()
	return nil
}

// UpdateSingleton replaces a singleton document.
func (g *Gateway) UpdateSingleton(ctx context.Context, name string, record gateway.Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return gateway.NewRemoteError(name+" update", err)
	}
	row := singletonRow{Name: name, PayloadJSON: string(payload)}
	err = g.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	if err != nil {
		return gateway.NewRemoteError(name+" update", err)
	}
	g.changes.publish()
	return nil
}

// Authenticate exchanges operator credentials for a signed session token.
func (g *Gateway) Authenticate(ctx context.Context, identifier, secret string) (gateway.Session, error) {
	var row operatorRow
	err := g.db.WithContext(ctx).Where("identifier = ?", identifier).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return gateway.Session{}, errBadCredentials
	}
	if err != nil {
		return gateway.Session{}, gateway.NewRemoteError("authenticate", err)
	}

	digest := sha256.Sum256([]byte(secret))
	provided := hex.EncodeToString(digest[:])
	if subtle.ConstantTimeCompare([]byte(provided), []byte(row.SecretHash)) != 1 {
		return gateway.Session{}, errBadCredentials
	}

	now := g.clock().UTC()
	expiresAt := now.Add(g.tokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   identifier,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.signingSecret)
	if err != nil {
		return gateway.Session{}, gateway.NewRemoteError("authenticate", err)
	}

	s := gateway.Session{Token: signed, Identifier: identifier, ExpiresAt: expiresAt}
	g.sessionMu.Lock()
	g.session = s
	g.loggedIn = true
	g.sessionMu.Unlock()
	g.logger.Info("operator authenticated", zap.String("identifier", identifier))
	return s, nil
}

// CurrentSession returns the active session, if one exists and has not
// expired.
func (g *Gateway) CurrentSession(_ context.Context) (gateway.Session, bool, error) {
	g.sessionMu.Lock()
	defer g.sessionMu.Unlock()
	if !g.loggedIn || g.session.Expired(g.clock()) {
		return gateway.Session{}, false, nil
	}
	return g.session, true, nil
}

// ValidateToken checks a session token's signature and expiry and returns
// the operator identifier.
func (g *Gateway) ValidateToken(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
			}
			return g.signingSecret, nil
		},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(g.clock),
	)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errBadCredentials
	}
	return claims.Subject, nil
}

// SignOut discards the active session.
func (g *Gateway) SignOut(_ context.Context) error {
	g.sessionMu.Lock()
	g.session = gateway.Session{}
	g.loggedIn = false
	g.sessionMu.Unlock()
	return nil
}

// SubscribeChanges registers a change-notification callback.
func (g *Gateway) SubscribeChanges(ctx context.Context, notify func()) (func(), error) {
	return g.changes.subscribe(ctx, notify), nil
}

// UploadObject writes the file under the media directory and returns a
// site-relative URL.
func (g *Gateway) UploadObject(_ context.Context, bucket, pathHint string, data []byte) (string, error) {
	if g.mediaDir == "" {
		return "", gateway.NewRemoteError("upload", errors.New("media directory not configured"))
	}
	key := gateway.ObjectPath(g.clock(), filepath.Base(pathHint))
	target := filepath.Join(g.mediaDir, bucket, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", gateway.NewRemoteError("upload", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", gateway.NewRemoteError("upload", err)
	}
	return "/media/" + bucket + "/" + key, nil
}

// HashSecret returns the stored form of an operator secret.
func HashSecret(secret string) string {
	digest := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(digest[:])
}

func recordToRow(collection gateway.Collection, record gateway.Record) (itemRow, error) {
	id, _ := record["id"].(string)
	if id == "" {
		return itemRow{}, errMissingRecordID
	}
	hidden, _ := record["hidden"].(bool)
	rank := 0
	switch v := record["order_index"].(type) {
	case float64:
		rank = int(v)
	case int:
		rank = v
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return itemRow{}, gateway.NewRemoteError(fmt.Sprintf("%s encode", collection), err)
	}
	return itemRow{
		Collection:  collection.String(),
		ItemID:      id,
		Hidden:      hidden,
		OrderRank:   rank,
		PayloadJSON: string(payload),
	}, nil
}
