package store

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/alexisbeaulieu97/deskmate/internal/logger"
	"github.com/alexisbeaulieu97/deskmate/internal/permission"
)

func TestOpenMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "plugins")
	s, err := Open(root)
	require.NoError(t, err)
	assert.Empty(t, s.List())
	assert.DirExists(t, root)
}

func TestOpenCorruptFileIsEmptyAndLogged(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte("{\"plugins\": [oops"), 0o644))

	buf := &bytes.Buffer{}
	log, err := logger.New(logger.Options{Writer: buf})
	require.NoError(t, err)

	s, err := Open(root, WithLogger(log))
	require.NoError(t, err)
	assert.Empty(t, s.List())
	assert.Contains(t, buf.String(), "corrupt")
}

func TestGetOrCreateDefaultsToTrustOnFirstUse(t *testing.T) {
	t.Parallel()

	s, err := Open(t.TempDir())
	require.NoError(t, err)

	rec, err := s.GetOrCreate("Weather")
	require.NoError(t, err)
	assert.True(t, rec.Enabled)
	assert.Equal(t, permission.All, rec.Granted)
	assert.True(t, s.Dirty())

	again, err := s.GetOrCreate("Weather")
	require.NoError(t, err)
	assert.Equal(t, rec, again)
}

func TestGetOrCreateDenyPolicy(t *testing.T) {
	t.Parallel()

	s, err := Open(t.TempDir(), WithPolicy(GrantNone))
	require.NoError(t, err)

	rec, err := s.GetOrCreate("Weather")
	require.NoError(t, err)
	assert.True(t, rec.Enabled)
	assert.Equal(t, permission.None, rec.Granted)
}

func TestGetOrCreateRejectsInvalidIDs(t *testing.T) {
	t.Parallel()

	s, err := Open(t.TempDir())
	require.NoError(t, err)

	for _, id := range []string{"", "../escape", "a/b", ".hidden"} {
		_, err := s.GetOrCreate(id)
		assert.Error(t, err, id)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		root, err := os.MkdirTemp("", "store-roundtrip")
		if err != nil {
			rt.Fatal(err)
		}
		defer os.RemoveAll(root)

		type record struct {
			enabled bool
			granted permission.Set
		}
		ids := rapid.SliceOfNDistinct(rapid.StringMatching(`[A-Za-z][A-Za-z0-9_-]{0,12}`), 1, 8, rapid.ID[string]).Draw(rt, "ids")
		want := make(map[string]record, len(ids))

		s, err := Open(root)
		if err != nil {
			rt.Fatal(err)
		}
		for _, id := range ids {
			rec := record{
				enabled: rapid.Bool().Draw(rt, "enabled"),
				granted: permission.Set(rapid.Uint32Range(0, uint32(permission.All)).Draw(rt, "granted")) & permission.All,
			}
			want[id] = rec
			if err := s.SetEnabled(id, rec.enabled); err != nil {
				rt.Fatal(err)
			}
			if err := s.SetGranted(id, rec.granted); err != nil {
				rt.Fatal(err)
			}
		}
		if err := s.Save(); err != nil {
			rt.Fatal(err)
		}

		reloaded, err := Open(root)
		if err != nil {
			rt.Fatal(err)
		}
		if got := len(reloaded.List()); got != len(want) {
			rt.Fatalf("reloaded %d records, want %d", got, len(want))
		}
		for id, rec := range want {
			got, ok := reloaded.Get(id)
			if !ok {
				rt.Fatalf("record %s missing after reload", id)
			}
			if got.Enabled != rec.enabled || got.Granted != rec.granted {
				rt.Fatalf("record %s: got (%v, %s) want (%v, %s)", id, got.Enabled, got.Granted, rec.enabled, rec.granted)
			}
		}
		if reloaded.Dirty() {
			rt.Fatalf("a freshly loaded store must be clean")
		}
	})
}

func TestSettingsSurviveSave(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	s, err := Open(root)
	require.NoError(t, err)
	require.NoError(t, s.SetSetting("Weather", "city", "Montreal"))
	require.NoError(t, s.Save())

	reloaded, err := Open(root)
	require.NoError(t, err)
	rec, ok := reloaded.Get("Weather")
	require.True(t, ok)
	assert.Equal(t, "Montreal", rec.Settings["city"])

	rec.Settings["city"] = "mutated"
	fresh, _ := reloaded.Get("Weather")
	assert.Equal(t, "Montreal", fresh.Settings["city"], "records are returned as copies")
}

func TestPrivateDataDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	s, err := Open(root)
	require.NoError(t, err)

	dir, err := s.PrivateDataDirectory("Weather")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, DataDirName, "Weather"), dir)
	assert.DirExists(t, dir)

	_, err = s.PrivateDataDirectory("../../etc")
	assert.Error(t, err)
}
