package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fernet/fernet-go"
)

// SettingFXProviderToken is the app_setting key for the FX provider's API
// token.
const SettingFXProviderToken = "fx_provider_token"

// SettingsRepository provides access to application settings. Values are
// encrypted at rest with a fernet key so that provider credentials never sit
// in the database as plaintext.
type SettingsRepository struct {
	db  *sql.DB
	key *fernet.Key
}

// NewSettingsRepository creates a SettingsRepository. The key must be a
// base64-encoded 32-byte fernet key.
func NewSettingsRepository(db *sql.DB, encodedKey string) (*SettingsRepository, error) {
	key, err := fernet.DecodeKey(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode settings encryption key: %w", err)
	}
	return &SettingsRepository{db: db, key: key}, nil
}

// Set encrypts and stores a setting value.
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	token, err := fernet.EncryptAndSign([]byte(value), r.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt setting %s: %w", key, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO app_setting (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, string(token),
	)
	if err != nil {
		return fmt.Errorf("failed to store setting %s: %w", key, err)
	}
	return nil
}

// Get decrypts and returns a setting value. Returns empty string without
// error when the setting has never been stored.
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, error) {
	var stored string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM app_setting WHERE key = ?`, key).Scan(&stored)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}

	// TTL 0: settings do not expire.
	plain := fernet.VerifyAndDecrypt([]byte(stored), 0, []*fernet.Key{r.key})
	if plain == nil {
		return "", fmt.Errorf("failed to decrypt setting %s: token invalid for configured key", key)
	}
	return string(plain), nil
}
