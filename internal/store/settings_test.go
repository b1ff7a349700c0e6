package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	_, err := repo.Get("theme")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Set("theme", "dark"))
	require.NoError(t, repo.Set("theme", "light"))

	v, err := repo.Get("theme")
	require.NoError(t, err)
	assert.Equal(t, "light", v)
}

func TestSettingsRepository_Bool(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	b, err := repo.Bool(SettingEnabled, true)
	require.NoError(t, err)
	assert.True(t, b, "unset key returns the default")

	require.NoError(t, repo.SetBool(SettingEnabled, false))
	b, err = repo.Bool(SettingEnabled, true)
	require.NoError(t, err)
	assert.False(t, b)

	require.NoError(t, repo.Set(SettingEnabled, "garbage"))
	b, err = repo.Bool(SettingEnabled, true)
	require.NoError(t, err)
	assert.True(t, b)
}
