package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsPersistAcrossOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := Open(dir, nil)
	require.NoError(t, err)

	s.Set("city", "Montreal")
	s.Set("units", "metric")
	require.NoError(t, s.Save())

	reopened, err := Open(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "Montreal", reopened.GetString("city", ""))
	assert.Equal(t, []string{"city", "units"}, reopened.Keys())
}

func TestSettingsDefaultsAreShadowed(t *testing.T) {
	t.Parallel()

	s, err := Open(t.TempDir(), map[string]any{"city": "Paris", "refresh": 30.0})
	require.NoError(t, err)

	assert.Equal(t, "Paris", s.GetString("city", ""))
	s.Set("city", "Lyon")
	assert.Equal(t, "Lyon", s.GetString("city", ""))

	s.Delete("city")
	assert.Equal(t, "Paris", s.GetString("city", ""), "deleting restores the default")
	assert.Equal(t, "fallback", s.GetString("refresh", "fallback"), "non-string values use the fallback")
}

func TestSettingsSaveSkipsWhenClean(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := Open(dir, nil)
	require.NoError(t, err)
	require.NoError(t, s.Save())

	_, err = os.Stat(filepath.Join(dir, FileName))
	assert.True(t, os.IsNotExist(err))
}

func TestSettingsRejectsCorruptFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{not json"), 0o644))

	_, err := Open(dir, nil)
	require.Error(t, err)
}
