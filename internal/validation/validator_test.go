package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	deskerrors "github.com/alexisbeaulieu97/deskmate/pkg/errors"
)

func TestValidatorIsShared(t *testing.T) {
	t.Parallel()
	assert.Same(t, Validator(), Validator())
}

func TestIsGitURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		url  string
		want bool
	}{
		{"https://github.com/acme/weather.git", true},
		{"ssh://git@github.com/acme/weather.git", true},
		{"git@github.com:acme/weather.git", true},
		{"file:///srv/git/weather", true},
		{"/srv/git/weather", true},
		{"./weather", true},
		{"https:///path", false},
		{"ftp://example.com/repo.git", false},
		{"weather", false},
		{" ", false},
		{"/srv/../etc", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsGitURL(tc.url), tc.url)
	}
}

func TestStructReportsFirstFailure(t *testing.T) {
	t.Parallel()

	type doc struct {
		ID      string `validate:"required,plugin_id"`
		Version string `validate:"omitempty,semver"`
	}

	require.NoError(t, Struct("plugin.yaml", doc{ID: "Weather", Version: "1.2.3"}))

	err := Struct("plugin.yaml", doc{ID: "../evil"})
	var vErr *deskerrors.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "plugin.yaml", vErr.File)
	assert.Equal(t, "ID", vErr.Field)
	assert.Contains(t, vErr.Message, "not a valid plugin ID")

	err = Struct("", doc{ID: "ok", Version: "one"})
	require.True(t, errors.As(err, &vErr))
	assert.Empty(t, vErr.File)
	assert.Equal(t, "Version", vErr.Field)
	assert.Contains(t, vErr.Message, "semantic version")
}
