package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tangzhangming/pcode/internal/classinfo"
)

const widget = `
class Widget
   method Widget();
   method Draw() Returns boolean;
end-class;
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint(widget)
	assert.Len(t, a, 64)
	assert.Equal(t, a, Fingerprint(widget))
	assert.NotEqual(t, a, Fingerprint(widget+" "))

	tr := NewTracker()
	assert.True(t, tr.Observe("PKG:Widget", widget))
	assert.False(t, tr.Observe("pkg:widget", widget))
	assert.True(t, tr.Observe("PKG:Widget", widget+"\n"))
	fp, ok := tr.Fingerprint("PKG:WIDGET")
	require.True(t, ok)
	assert.Equal(t, Fingerprint(widget+"\n"), fp)
	tr.Forget("PKG:Widget")
	_, ok = tr.Fingerprint("PKG:Widget")
	assert.False(t, ok)
}

func TestMapProvider(t *testing.T) {
	ctx := context.Background()
	m := NewMap(map[string]string{"PKG:Widget": widget})

	src, found, err := m.TryGetProgramSource(ctx, "pkg:WIDGET")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, widget, src)

	assert.False(t, m.Set("PKG:Widget", widget))
	assert.True(t, m.Set("PKG:Other", "class Other end-class;"))
	assert.Equal(t, []string{"PKG:Other", "PKG:Widget"}, m.Names())
	assert.True(t, m.Delete("pkg:other"))
	assert.False(t, m.Delete("pkg:other"))
	assert.Equal(t, 1, m.Len())

	_, found, err = m.TryGetProgramSource(ctx, "PKG:Missing")
	assert.NoError(t, err)
	assert.False(t, found)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, _, err = m.TryGetProgramSource(cancelled, "PKG:Widget")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDirProvider(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "PKG", "UI", "Widget.pcode"), widget)
	writeFile(t, filepath.Join(root, "LIB", "Util.pcode"), "class Util end-class;")
	writeFile(t, filepath.Join(root, "LIB", "notes.txt"), "ignored")

	d := NewDir(root)
	ctx := context.Background()

	tests := []struct {
		name  string
		found bool
	}{
		{"PKG:UI:Widget", true},
		{"pkg:ui:widget", true},
		{"LIB:Util", true},
		{"LIB:Missing", false},
		{"PKG:UI", false},
		{"PKG:..:LIB:Util", false},
	}
	for _, tt := range tests {
		_, found, err := d.TryGetProgramSource(ctx, tt.name)
		assert.NoError(t, err, tt.name)
		assert.Equal(t, tt.found, found, tt.name)
	}

	var names []string
	require.NoError(t, d.Walk(func(name, _ string) error {
		names = append(names, name)
		return nil
	}))
	assert.ElementsMatch(t, []string{"PKG:UI:Widget", "LIB:Util"}, names)

	assert.NoError(t, NewDir(filepath.Join(root, "absent")).Walk(func(string, string) error {
		return errors.New("unexpected file")
	}))
}

func TestSQLiteProvider(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "programs.db"))
	require.NoError(t, err)
	defer db.Close()

	changed, err := db.Put(ctx, "PKG:Widget", widget)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = db.Put(ctx, "pkg:widget", widget)
	require.NoError(t, err)
	assert.False(t, changed)

	src, found, err := db.TryGetProgramSource(ctx, "PKG:WIDGET")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, widget, src)

	fp, ok, err := db.Fingerprint(ctx, "PKG:Widget")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Fingerprint(widget), fp)

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "LIB", "Util.pcode"), "class Util end-class;")
	writeFile(t, filepath.Join(root, "PKG", "Widget.pcode"), widget)
	n, err := db.ImportDir(ctx, NewDir(root))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	names, err := db.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"LIB:Util", "PKG:Widget"}, names)

	deleted, err := db.Delete(ctx, "lib:util")
	require.NoError(t, err)
	assert.True(t, deleted)
	_, found, err = db.TryGetProgramSource(ctx, "LIB:Util")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestChainFeedsResolver(t *testing.T) {
	ctx := context.Background()
	overlay := NewMap(map[string]string{"PKG:Widget": `
class Widget
   method Draw() Returns string;
end-class;
`})
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "PKG", "Widget.pcode"), widget)
	writeFile(t, filepath.Join(root, "PKG", "Button.pcode"), `
class Button extends Widget
end-class;
`)

	r := classinfo.NewResolver(Chain{overlay, nil, NewDir(root)})
	button, err := r.Resolve(ctx, "PKG:Button")
	require.NoError(t, err)
	require.NotNil(t, button)

	draw := r.FindMethodInfo(ctx, button, "Draw", classinfo.AccessContext{})
	require.NotNil(t, draw)
	assert.Equal(t, "String", draw.Return.String(), "overlay takes precedence over disk")

	failing := Chain{classinfo.ProviderFunc(func(context.Context, string) (string, bool, error) {
		return "", false, errors.New("offline")
	}), overlay}
	_, _, err = failing.TryGetProgramSource(ctx, "PKG:Widget")
	assert.Error(t, err)
}
