package registry_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/galaxy/internal/domain/registry"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSeederLoadsManifests(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "base.yaml"), `
layers:
  - name: ubuntu
    link: ipfs://ubuntu
  - name: alpine
    link: ipfs://alpine
`)
	writeFile(t, filepath.Join(dir, "nested", "extra.toml"), `
[[layers]]
name = "debian"
link = "ipfs://debian"

[[layers]]
name = "ubuntu"
link = "ipfs://ubuntu-again"
`)
	writeFile(t, filepath.Join(dir, "README.md"), "not a manifest")

	ctx := context.Background()
	m := registry.NewManager(registry.NewMemoryStore())

	result, err := registry.NewSeeder(m, dir, "system").Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, registry.SeedResult{Files: 2, Loaded: 3, Skipped: 1}, result)

	layers, err := m.Layers(ctx, "system")
	require.NoError(t, err)
	assert.Equal(t, []string{"ubuntu", "alpine", "debian"}, layers)

	link, err := m.ResolveLink(ctx, "system", "ubuntu")
	require.NoError(t, err)
	assert.Equal(t, "ipfs://ubuntu", link)
}

func TestSeederIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "base.yml"), "layers:\n  - name: a\n    link: ipfs://a\n")

	ctx := context.Background()
	m := registry.NewManager(registry.NewMemoryStore())
	seeder := registry.NewSeeder(m, dir, "system")

	_, err := seeder.Seed(ctx)
	require.NoError(t, err)
	result, err := seeder.Seed(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Loaded)
	assert.Equal(t, 1, result.Skipped)
}

func TestSeederCountsBadManifests(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "broken.yaml"), "layers: [unterminated")
	writeFile(t, filepath.Join(dir, "empty-name.yaml"), "layers:\n  - name: \"\"\n    link: ipfs://x\n")

	m := registry.NewManager(registry.NewMemoryStore())
	result, err := registry.NewSeeder(m, dir, "system").Seed(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Files)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, 0, result.Loaded)
}

func TestSeederCustomPattern(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "keep", "a.yaml"), "layers:\n  - name: kept\n    link: ipfs://k\n")
	writeFile(t, filepath.Join(dir, "skip", "b.yaml"), "layers:\n  - name: skipped\n    link: ipfs://s\n")

	ctx := context.Background()
	m := registry.NewManager(registry.NewMemoryStore())
	result, err := registry.NewSeeder(m, dir, "system").WithPattern("keep/**/*.yaml").Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Loaded)

	layers, err := m.Layers(ctx, "system")
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, layers)
}

func TestSeederMissingDirectory(t *testing.T) {
	m := registry.NewManager(registry.NewMemoryStore())
	result, err := registry.NewSeeder(m, filepath.Join(t.TempDir(), "absent"), "system").Seed(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result)
}

func TestSeederInvalidPattern(t *testing.T) {
	m := registry.NewManager(registry.NewMemoryStore())
	_, err := registry.NewSeeder(m, t.TempDir(), "system").WithPattern("[").Seed(context.Background())
	assert.Error(t, err)
}

func TestLoadManifestUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layers.json")
	writeFile(t, path, `{"layers":[]}`)

	_, err := registry.LoadManifest(path)
	assert.Error(t, err)
}
