package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "lyra.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SetGetDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	got, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, "", got)

	require.NoError(t, s.Set(ctx, KeyLanguage, "de"))
	got, err = s.Get(ctx, KeyLanguage)
	require.NoError(t, err)
	assert.Equal(t, "de", got)

	// Upsert replaces.
	require.NoError(t, s.Set(ctx, KeyLanguage, "fr"))
	got, err = s.Get(ctx, KeyLanguage)
	require.NoError(t, err)
	assert.Equal(t, "fr", got)

	require.NoError(t, s.Delete(ctx, KeyLanguage))
	got, err = s.Get(ctx, KeyLanguage)
	require.NoError(t, err)
	assert.Equal(t, "", got)

	require.NoError(t, s.Delete(ctx, "never-set"))
}

func TestStore_TokenRoundTrip(t *testing.T) {
	s := openTestStore(t)

	access, refresh, err := s.LoadTokens()
	require.NoError(t, err)
	assert.Empty(t, access)
	assert.Empty(t, refresh)

	require.NoError(t, s.SaveTokens("a-token", "r-token"))
	access, refresh, err = s.LoadTokens()
	require.NoError(t, err)
	assert.Equal(t, "a-token", access)
	assert.Equal(t, "r-token", refresh)

	require.NoError(t, s.ClearTokens())
	access, refresh, err = s.LoadTokens()
	require.NoError(t, err)
	assert.Empty(t, access)
	assert.Empty(t, refresh)
}

func TestStore_PreferencesDefaults(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	prefs, err := s.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultPreferences(), prefs)

	prefs.Language = "de"
	prefs.VoiceRate = 1.5
	prefs.VoiceAutoplay = false
	require.NoError(t, s.SavePreferences(ctx, prefs))

	loaded, err := s.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, prefs, loaded)
}

func TestStore_MalformedValuesFallBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyVoiceRate, "not-a-number"))
	require.NoError(t, s.Set(ctx, KeyVoiceAutoplay, "not-a-bool"))

	rate, err := s.GetFloat(ctx, KeyVoiceRate, 1.0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)

	autoplay, err := s.GetBool(ctx, KeyVoiceAutoplay, true)
	require.NoError(t, err)
	assert.True(t, autoplay)
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "lyra.db")
	ctx := context.Background()

	s1, err := Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, s1.Set(ctx, KeyLanguage, "en"))
	require.NoError(t, s1.Close())

	s2, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get(ctx, KeyLanguage)
	require.NoError(t, err)
	assert.Equal(t, "en", got)
}
