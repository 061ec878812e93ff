package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/tangzhangming/pcode/internal/inference"
	"github.com/tangzhangming/pcode/internal/source"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, inference.Quick, cfg.Inference.Mode)
	assert.Equal(t, DefaultTimeout, time.Duration(cfg.Inference.Timeout))
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())

	opts := cfg.Options()
	assert.Equal(t, inference.Quick, opts.Mode)
	assert.Equal(t, DefaultTimeout, opts.Timeout)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "src"), 0755))
	path := filepath.Join(dir, ConfigFileName)
	writeFile(t, path, `
[inference]
mode = "thorough"
timeout = "250ms"
treat_unknown_as_any = true

[source]
dir = "src"

[log]
level = "debug"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, inference.Thorough, cfg.Inference.Mode)
	assert.Equal(t, 250*time.Millisecond, time.Duration(cfg.Inference.Timeout))
	assert.True(t, cfg.Inference.TreatUnknownAsAny)
	assert.False(t, cfg.Inference.Incremental)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, filepath.Join(dir, "src"), cfg.Resolve(cfg.Source.Dir))
	assert.Equal(t, "/abs/path", cfg.Resolve("/abs/path"))
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "unknown.toml")
	writeFile(t, path, "[inference]\nspeed = 3\n")
	_, err := Load(path)
	assert.Error(t, err)

	path = filepath.Join(dir, "mode.toml")
	writeFile(t, path, "[inference]\nmode = \"fast\"\n")
	_, err = Load(path)
	assert.ErrorContains(t, err, "fast")

	path = filepath.Join(dir, "many.toml")
	writeFile(t, path, `
[inference]
timeout = "-1s"
[log]
level = "loud"
[source]
dir = "missing"
`)
	_, err = Load(path)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 3)
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ConfigFileName), "[inference]\nmode = \"disabled\"\n")
	nested := filepath.Join(root, "PKG", "SUB")
	writeFile(t, filepath.Join(nested, "Thing.pcode"), "class Thing\nend-class;\n")

	cfg, err := Discover(filepath.Join(nested, "Thing.pcode"))
	require.NoError(t, err)
	assert.Equal(t, inference.Disabled, cfg.Inference.Mode)
	assert.Equal(t, root, ProjectRoot(nested))

	bare := t.TempDir()
	cfg, err = Discover(bare)
	require.NoError(t, err)
	assert.Equal(t, inference.Quick, cfg.Inference.Mode)
	assert.Equal(t, "", ProjectRoot(bare))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	cfg := Default()
	cfg.Inference.Mode = inference.Thorough
	cfg.Inference.Timeout = Duration(2 * time.Second)
	cfg.Inference.Incremental = true
	cfg.Log.File = "pcode.log"
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# disabled | quick | thorough")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Inference, loaded.Inference)
	assert.Equal(t, cfg.Log, loaded.Log)
}

func TestOpenCatalogAndSources(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "PKG", "Widget.pcode"), "class Widget\nend-class;\n")

	db, err := source.OpenSQLite(ctx, filepath.Join(dir, "sources.db"))
	require.NoError(t, err)
	_, err = db.Put(ctx, "PKG:Gadget", "class Gadget\nend-class;\n")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	writeFile(t, filepath.Join(dir, ConfigFileName), "[source]\ndir = \"src\"\nsqlite = \"sources.db\"\n")
	cfg, err := Discover(dir)
	require.NoError(t, err)

	cat, err := cfg.OpenCatalog()
	require.NoError(t, err)
	_, ok := cat.Function("Len")
	assert.True(t, ok)

	provider, closeFn, err := cfg.Sources(ctx)
	require.NoError(t, err)
	defer func() { assert.NoError(t, closeFn()) }()
	require.NotNil(t, provider)

	for _, name := range []string{"PKG:Widget", "PKG:Gadget"} {
		_, found, err := provider.TryGetProgramSource(ctx, name)
		require.NoError(t, err)
		assert.True(t, found, name)
	}

	assert.Equal(t, filepath.Join(dir, "src"), cfg.SourceDir().Root)

	bare, err := Discover(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, bare.SourceDir())
	assert.Equal(t, bare.Dir(), bare.SourceDir().Root)
	assert.Nil(t, Default().SourceDir())

	provider, closeFn, err = Default().Sources(ctx)
	require.NoError(t, err)
	assert.Nil(t, provider)
	assert.NoError(t, closeFn())
}
