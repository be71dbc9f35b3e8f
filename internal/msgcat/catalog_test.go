package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_EmbeddedDefaults(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)
	require.True(t, c.Has("help.title"))
	require.True(t, c.Has("error.must_capture_select"))
	require.Contains(t, c.Keys(), "click.chain")

	out, err := c.Render("click.moved", map[string]any{"Name": "alice", "Notation": "c3-d4"})
	require.NoError(t, err)
	require.Equal(t, "alice: c3-d4", out)
}

func TestRender_Errors(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)

	if _, err := c.Render("nope.missing", nil); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if _, err := c.Render("click.moved", map[string]any{"Name": "alice"}); err == nil {
		t.Fatalf("expected error for missing data field")
	}
}

func TestNew_OverrideDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("a.yaml", "click:\n  moved: \"{{.Name}} played {{.Notation}}\"\n")
	write("b.yml", "extra:\n  hello: hi\n")
	write("ignored.txt", "click:\n  moved: nope\n")

	c, err := New(dir)
	require.NoError(t, err)
	out, err := c.Render("click.moved", map[string]any{"Name": "bob", "Notation": "f6-e5"})
	require.NoError(t, err)
	require.Equal(t, "bob played f6-e5", out)
	require.True(t, c.Has("extra.hello"))
	require.True(t, c.Has("help.body"))
}

func TestNew_DuplicateOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("game:\n  win: a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("game:\n  win: b\n"), 0o644))

	_, err := New(dir)
	if err == nil || !strings.Contains(err.Error(), "duplicate override key") {
		t.Fatalf("want duplicate key error, got %v", err)
	}
}

func TestFlattenStrings_RejectsNonString(t *testing.T) {
	_, err := parseYAMLToFlat([]byte("a:\n  b: 3\n"))
	require.Error(t, err)
}
