package permission

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"
)

func genSet() *rapid.Generator[Set] {
	return rapid.Custom(func(t *rapid.T) Set {
		return Set(rapid.Uint32Range(0, uint32(All)).Draw(t, "bits")) & All
	})
}

func TestSetAlgebra(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genSet().Draw(t, "a")
		b := genSet().Draw(t, "b")

		union := a.Union(b)
		if !union.Contains(a) || !union.Contains(b) {
			t.Fatalf("union %s must contain %s and %s", union, a, b)
		}
		inter := a.Intersect(b)
		if !a.Contains(inter) || !b.Contains(inter) {
			t.Fatalf("intersection %s must be within both operands", inter)
		}
		if !a.Union(a.Missing(b)).Contains(b) {
			t.Fatalf("granting the missing bits must satisfy the requirement")
		}
		if a.Contains(b) != a.Missing(b).IsEmpty() {
			t.Fatalf("Contains and Missing disagree for %s / %s", a, b)
		}
	})
}

func TestSetJSONRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := genSet().Draw(t, "set")
		data, err := json.Marshal(s)
		if err != nil {
			t.Fatal(err)
		}
		var decoded Set
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatal(err)
		}
		if decoded != s {
			t.Fatalf("round trip: got %s want %s", decoded, s)
		}
	})
}

func TestSetYAML(t *testing.T) {
	t.Parallel()

	var doc struct {
		Permissions Set `yaml:"permissions"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("permissions: [read_tasks, network, Notifications]\n"), &doc))
	require.Equal(t, ReadTasks|Network|Notifications, doc.Permissions)

	out, err := yaml.Marshal(doc)
	require.NoError(t, err)
	require.Contains(t, string(out), "- network")
}

func TestParseSet(t *testing.T) {
	t.Parallel()

	set, err := ParseSet([]string{"read-tasks", " ui ", ""})
	require.NoError(t, err)
	require.Equal(t, ReadTasks|UI, set)

	all, err := ParseSet([]string{"all"})
	require.NoError(t, err)
	require.Equal(t, All, all)
	require.Equal(t, "all", all.String())
	require.Equal(t, "none", None.String())
	require.Len(t, KnownNames(), 14)

	_, err = ParseSet([]string{"root"})
	require.Error(t, err)
}

func TestDeniedError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("calling tasks: %w", &Denied{PluginID: "weather", Missing: WriteTasks | FileSystem})
	require.True(t, IsDenied(err))
	require.False(t, IsDenied(errors.New("other")))
	require.Contains(t, err.Error(), `plugin "weather"`)
	require.Contains(t, err.Error(), "filesystem,write_tasks")
	require.Contains(t, err.Error(), "deskmate grant weather filesystem write_tasks")
}
