package gen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	require := require.New(t)

	cfg, err := NewConfig("./model", WithPackage("model"))
	require.NoError(err)
	require.Equal("./model", cfg.Schema)
	require.Equal("./model", cfg.Target, "target defaults to the schema directory")
	require.Positive(cfg.Workers)

	_, err = NewConfig("")
	require.Error(err)
	var ce *ConfigError
	require.ErrorAs(err, &ce)
	require.Equal("Schema", ce.Field)
}

func TestConfigOptions(t *testing.T) {
	require := require.New(t)

	cfg, err := NewConfig("./model",
		WithPackage("model"),
		WithTarget("./gen"),
		WithHeader("Source: model/"),
		WithCache("./.remap/snapshot"),
		WithWorkers(2),
	)
	require.NoError(err)
	require.Equal("model", cfg.Package)
	require.Equal("./gen", cfg.Target)
	require.Equal("Source: model/", cfg.Header)
	require.Equal("./.remap/snapshot", cfg.Cache)
	require.Equal(2, cfg.Workers)

	_, err = NewConfig("./model", WithWorkers(0))
	require.Error(err)
	_, err = NewConfig("./model", WithPackage(""))
	require.Error(err)
}

func TestLoadConfig(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "remap.yaml")
	require.NoError(os.WriteFile(path, []byte(`
package: model
schema: ./model
target: ./model
workers: 4
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(err)
	require.Equal("model", cfg.Package)
	require.Equal("./model", cfg.Schema)
	require.Equal(4, cfg.Workers)

	require.NoError(os.WriteFile(path, []byte("package: model\n"), 0o644))
	_, err = LoadConfig(path)
	require.Error(err, "schema directory is required")

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	require.Error(err)
}
