// Package store persists tokens and preferences in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/lyra-assist/lyra-go/internal/store/migrations"
)

// Setting keys. Values are stored as strings; typed accessors convert.
const (
	KeyAccessToken   = "access_token"
	KeyRefreshToken  = "refresh_token"
	KeyLanguage      = "language"
	KeyVoiceRate     = "voice.rate"
	KeyVoicePitch    = "voice.pitch"
	KeyVoiceVolume   = "voice.volume"
	KeyVoiceAutoplay = "voice.autoplay"
)

// Preferences are the user-tunable client settings with their defaults
// applied.
type Preferences struct {
	Language      string
	VoiceRate     float64
	VoicePitch    float64
	VoiceVolume   float64
	VoiceAutoplay bool
}

// DefaultPreferences returns the preferences used before the user changes
// anything.
func DefaultPreferences() Preferences {
	return Preferences{
		Language:      "en",
		VoiceRate:     1.0,
		VoicePitch:    1.0,
		VoiceVolume:   1.0,
		VoiceAutoplay: true,
	}
}

// Store is a key/value settings store backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dsn and applies pending
// migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open settings db: %w", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate settings db: %w", err)
	}
	return &Store{db: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value for key, or "" when unset.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get settings[%s]: %w", key, err)
	}
	return value, nil
}

// Set stores the value for key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set settings[%s]: %w", key, err)
	}
	return nil
}

// Delete removes the value for key. Deleting an unset key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete settings[%s]: %w", key, err)
	}
	return nil
}

// GetFloat returns the value for key as a float64, or fallback when the key
// is unset or not a number.
func (s *Store) GetFloat(ctx context.Context, key string, fallback float64) (float64, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback, nil
	}
	return v, nil
}

// SetFloat stores a float64 value for key.
func (s *Store) SetFloat(ctx context.Context, key string, value float64) error {
	return s.Set(ctx, key, strconv.FormatFloat(value, 'f', -1, 64))
}

// GetBool returns the value for key as a bool, or fallback when the key is
// unset or not a boolean.
func (s *Store) GetBool(ctx context.Context, key string, fallback bool) (bool, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback, nil
	}
	return v, nil
}

// SetBool stores a bool value for key.
func (s *Store) SetBool(ctx context.Context, key string, value bool) error {
	return s.Set(ctx, key, strconv.FormatBool(value))
}

// Preferences loads all user preferences, applying defaults for unset keys.
func (s *Store) Preferences(ctx context.Context) (Preferences, error) {
	prefs := DefaultPreferences()

	lang, err := s.Get(ctx, KeyLanguage)
	if err != nil {
		return Preferences{}, err
	}
	if lang != "" {
		prefs.Language = lang
	}
	if prefs.VoiceRate, err = s.GetFloat(ctx, KeyVoiceRate, prefs.VoiceRate); err != nil {
		return Preferences{}, err
	}
	if prefs.VoicePitch, err = s.GetFloat(ctx, KeyVoicePitch, prefs.VoicePitch); err != nil {
		return Preferences{}, err
	}
	if prefs.VoiceVolume, err = s.GetFloat(ctx, KeyVoiceVolume, prefs.VoiceVolume); err != nil {
		return Preferences{}, err
	}
	if prefs.VoiceAutoplay, err = s.GetBool(ctx, KeyVoiceAutoplay, prefs.VoiceAutoplay); err != nil {
		return Preferences{}, err
	}
	return prefs, nil
}

// SavePreferences persists all user preferences.
func (s *Store) SavePreferences(ctx context.Context, prefs Preferences) error {
	if err := s.Set(ctx, KeyLanguage, prefs.Language); err != nil {
		return err
	}
	if err := s.SetFloat(ctx, KeyVoiceRate, prefs.VoiceRate); err != nil {
		return err
	}
	if err := s.SetFloat(ctx, KeyVoicePitch, prefs.VoicePitch); err != nil {
		return err
	}
	if err := s.SetFloat(ctx, KeyVoiceVolume, prefs.VoiceVolume); err != nil {
		return err
	}
	return s.SetBool(ctx, KeyVoiceAutoplay, prefs.VoiceAutoplay)
}

// LoadTokens returns the persisted token pair; both are "" when no session
// is saved.
func (s *Store) LoadTokens() (access, refresh string, err error) {
	ctx := context.Background()
	if access, err = s.Get(ctx, KeyAccessToken); err != nil {
		return "", "", err
	}
	if refresh, err = s.Get(ctx, KeyRefreshToken); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// SaveTokens persists the token pair.
func (s *Store) SaveTokens(access, refresh string) error {
	ctx := context.Background()
	if err := s.Set(ctx, KeyAccessToken, access); err != nil {
		return err
	}
	return s.Set(ctx, KeyRefreshToken, refresh)
}

// ClearTokens removes any persisted token pair.
func (s *Store) ClearTokens() error {
	ctx := context.Background()
	if err := s.Delete(ctx, KeyAccessToken); err != nil {
		return err
	}
	return s.Delete(ctx, KeyRefreshToken)
}
