// Package apikey manages learner API keys stored in PostgreSQL. Raw keys
// are generated with crypto/rand and only their SHA-256 digest is stored;
// the key row's UUID doubles as the learner ID for practice history.
package apikey

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/postgres"
)

var (
	ErrInvalidKey = fmt.Errorf("%w: invalid api key", apperrors.ErrUnauthorized)
	ErrExpiredKey = fmt.Errorf("%w: api key expired", apperrors.ErrUnauthorized)
)

// DefaultRateLimit is the per-minute request allowance of a new key.
const DefaultRateLimit = 60

// KeyInfo describes a key without its secret.
type KeyInfo struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	RateLimit int        `json:"rate_limit"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the key has an expiry before now.
func (k *KeyInfo) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && k.ExpiresAt.Before(now)
}

// Validator validates and manages keys in the api_keys table.
type Validator struct {
	db     *postgres.Client
	logger *slog.Logger
}

func NewValidator(db *postgres.Client) *Validator {
	return &Validator{
		db:     db,
		logger: slog.Default().With("component", "apikey-validator"),
	}
}

// Validate resolves an active key by its raw value.
func (v *Validator) Validate(ctx context.Context, rawKey string) (*KeyInfo, error) {
	if strings.TrimSpace(rawKey) == "" {
		return nil, ErrInvalidKey
	}

	var info KeyInfo
	var expiresAt sql.NullTime
	err := v.db.DB.QueryRowContext(ctx,
		`SELECT id, name, rate_limit, is_active, created_at, expires_at
		 FROM api_keys
		 WHERE key_hash = $1 AND is_active = true`,
		HashKey(rawKey),
	).Scan(&info.ID, &info.Name, &info.RateLimit, &info.IsActive, &info.CreatedAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidKey
	}
	if err != nil {
		return nil, fmt.Errorf("querying api key: %w", err)
	}
	if expiresAt.Valid {
		info.ExpiresAt = &expiresAt.Time
	}
	if info.Expired(time.Now()) {
		return nil, ErrExpiredKey
	}
	return &info, nil
}

// CreateKey stores a new key and returns its raw value with its metadata.
// The raw value cannot be recovered later.
func (v *Validator) CreateKey(ctx context.Context, name string, rateLimit int, expiresAt *time.Time) (string, *KeyInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, apperrors.Invalid("key name is required")
	}
	if rateLimit <= 0 {
		rateLimit = DefaultRateLimit
	}
	rawKey, err := generateRawKey()
	if err != nil {
		return "", nil, err
	}

	var expiry sql.NullTime
	if expiresAt != nil {
		expiry = sql.NullTime{Time: *expiresAt, Valid: true}
	}
	info := KeyInfo{Name: name, RateLimit: rateLimit, IsActive: true, ExpiresAt: expiresAt}
	err = v.db.DB.QueryRowContext(ctx,
		`INSERT INTO api_keys (key_hash, name, rate_limit, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		HashKey(rawKey), name, rateLimit, expiry,
	).Scan(&info.ID, &info.CreatedAt)
	if err != nil {
		return "", nil, fmt.Errorf("creating api key: %w", err)
	}

	v.logger.Info("api key created", "key_id", info.ID, "name", name, "rate_limit", rateLimit)
	return rawKey, &info, nil
}

// RevokeKey deactivates the key with the given raw value.
func (v *Validator) RevokeKey(ctx context.Context, rawKey string) error {
	return v.revoke(ctx, `UPDATE api_keys SET is_active = false WHERE key_hash = $1 AND is_active = true`, HashKey(rawKey))
}

// RevokeByID deactivates the key with the given ID.
func (v *Validator) RevokeByID(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return apperrors.Invalid("key id %q is not a uuid", id)
	}
	return v.revoke(ctx, `UPDATE api_keys SET is_active = false WHERE id = $1 AND is_active = true`, parsed.String())
}

func (v *Validator) revoke(ctx context.Context, query, arg string) error {
	result, err := v.db.DB.ExecContext(ctx, query, arg)
	if err != nil {
		return fmt.Errorf("revoking api key: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: api key", apperrors.ErrNotFound)
	}
	v.logger.Info("api key revoked")
	return nil
}

// ListKeys returns active keys, newest first.
func (v *Validator) ListKeys(ctx context.Context) ([]KeyInfo, error) {
	rows, err := v.db.DB.QueryContext(ctx,
		`SELECT id, name, rate_limit, is_active, created_at, expires_at
		 FROM api_keys WHERE is_active = true ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing api keys: %w", err)
	}
	defer rows.Close()

	keys := []KeyInfo{}
	for rows.Next() {
		var k KeyInfo
		var expiresAt sql.NullTime
		if err := rows.Scan(&k.ID, &k.Name, &k.RateLimit, &k.IsActive, &k.CreatedAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("scanning api key row: %w", err)
		}
		if expiresAt.Valid {
			k.ExpiresAt = &expiresAt.Time
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// HashKey returns the SHA-256 hex digest of a raw key.
func HashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func generateRawKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating api key: %w", err)
	}
	return "pp_" + hex.EncodeToString(b), nil
}
