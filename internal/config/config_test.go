package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/alexisbeaulieu97/deskmate/internal/store"
	deskerrors "github.com/alexisbeaulieu97/deskmate/pkg/errors"
)

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		doc    string
		assert func(t *testing.T, opts Options, err error)
	}{
		{
			name: "full document",
			doc: `plugins_dir: /srv/plugins
shared_dir: /srv/shared
log_level: debug
human_logs: true
default_grant: none
lifecycle_timeout: 5s
shared_prefixes: [lib., util.]
listen: 127.0.0.1:9090
`,
			assert: func(t *testing.T, opts Options, err error) {
				require.NoError(t, err)
				assert.Equal(t, Options{
					PluginsDir:       "/srv/plugins",
					SharedDir:        "/srv/shared",
					LogLevel:         "debug",
					HumanLogs:        true,
					DefaultGrant:     "none",
					LifecycleTimeout: 5 * time.Second,
					SharedPrefixes:   []string{"lib.", "util."},
					Listen:           "127.0.0.1:9090",
				}, opts)
				assert.Equal(t, store.GrantNone, opts.GrantPolicy())
			},
		},
		{
			name: "defaults fill missing fields",
			doc:  "plugins_dir: ./plugins\n",
			assert: func(t *testing.T, opts Options, err error) {
				require.NoError(t, err)
				assert.Equal(t, "info", opts.LogLevel)
				assert.Equal(t, "all", opts.DefaultGrant)
				assert.Equal(t, store.GrantAll, opts.GrantPolicy())
				assert.Zero(t, opts.LifecycleTimeout)
			},
		},
		{
			name: "unknown grant policy",
			doc:  "plugins_dir: ./plugins\ndefault_grant: some\n",
			assert: func(t *testing.T, _ Options, err error) {
				var verr *deskerrors.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Contains(t, verr.Field, "DefaultGrant")
			},
		},
		{
			name: "bad log level",
			doc:  "log_level: loud\n",
			assert: func(t *testing.T, _ Options, err error) {
				var verr *deskerrors.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Contains(t, verr.Field, "LogLevel")
			},
		},
		{
			name: "negative timeout",
			doc:  "lifecycle_timeout: -1s\n",
			assert: func(t *testing.T, _ Options, err error) {
				var verr *deskerrors.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Contains(t, verr.Field, "LifecycleTimeout")
			},
		},
		{
			name: "listen must be host:port",
			doc:  "listen: nowhere\n",
			assert: func(t *testing.T, _ Options, err error) {
				var verr *deskerrors.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Contains(t, verr.Field, "Listen")
			},
		},
		{
			name: "syntax error reports line",
			doc:  "plugins_dir: ./plugins\nshared_prefixes: [lib.\n",
			assert: func(t *testing.T, _ Options, err error) {
				var perr *deskerrors.ParseError
				require.ErrorAs(t, err, &perr)
				assert.Equal(t, "config.yaml", perr.Path)
				assert.Positive(t, perr.Line)
				assert.Equal(t, deskerrors.SourceConfig, perr.Source)
				assert.Empty(t, perr.PluginDir())
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			opts, err := Parse("config.yaml", []byte(tc.doc))
			tc.assert(t, opts, err)
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	opts, err := LoadOrDefault(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), opts)

	opts, err = LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), opts)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("plugins_dir: /x\nlog_level: warn\n"), 0o644))
	opts, err = LoadOrDefault(path)
	require.NoError(t, err)
	assert.Equal(t, "/x", opts.PluginsDir)
	assert.Equal(t, "warn", opts.LogLevel)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rapid.Check(t, func(rt *rapid.T) {
		want := Options{
			PluginsDir:       "/" + rapid.StringMatching(`[a-z][a-z0-9_]{0,12}`).Draw(rt, "plugins"),
			SharedDir:        rapid.StringMatching(`(/[a-z]{1,8}){0,2}`).Draw(rt, "shared"),
			LogLevel:         rapid.SampledFrom([]string{"trace", "debug", "info", "warn", "error"}).Draw(rt, "level"),
			HumanLogs:        rapid.Bool().Draw(rt, "human"),
			DefaultGrant:     rapid.SampledFrom([]string{"all", "none"}).Draw(rt, "grant"),
			LifecycleTimeout: time.Duration(rapid.IntRange(0, 600).Draw(rt, "timeout")) * time.Second,
			SharedPrefixes:   rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,6}\.`), 0, 4).Draw(rt, "prefixes"),
		}
		if len(want.SharedPrefixes) == 0 {
			want.SharedPrefixes = nil
		}

		path := filepath.Join(dir, rapid.StringMatching(`[a-z]{8}`).Draw(rt, "file")+".yaml")
		require.NoError(rt, want.Save(path))

		got, err := Load(path)
		require.NoError(rt, err)
		assert.Equal(rt, want, got)
	})
}
