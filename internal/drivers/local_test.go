package drivers

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeArtifact(t *testing.T, base, container, artifact string, data []byte) {
	t.Helper()
	full := filepath.Join(base, container, filepath.FromSlash(artifact))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0750))
	require.NoError(t, os.WriteFile(full, data, 0600))
}

func TestLocalDriver_Get(t *testing.T) {
	base := t.TempDir()
	writeArtifact(t, base, "bucket", "models/scaler.json", []byte(`{"mean":[1]}`))
	driver := NewLocalDriver(base, zap.NewNop())
	ctx := context.Background()

	t.Run("reads nested artifact", func(t *testing.T) {
		rc, err := driver.Get(ctx, "bucket", "models/scaler.json")
		require.NoError(t, err)
		defer rc.Close()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, `{"mean":[1]}`, string(data))
	})

	t.Run("missing artifact is NotFoundError", func(t *testing.T) {
		_, err := driver.Get(ctx, "bucket", "models/absent.json")
		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "models/absent.json", nf.Artifact)
	})
}

func TestLocalDriver_Exists(t *testing.T) {
	base := t.TempDir()
	writeArtifact(t, base, "bucket", "historicos/hist_mes.csv", []byte("atraccion,mes\n"))
	driver := NewLocalDriver(base, zap.NewNop())
	ctx := context.Background()

	ok, err := driver.Exists(ctx, "bucket", "historicos/hist_mes.csv")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = driver.Exists(ctx, "bucket", "historicos/hist_hora.csv")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = driver.Exists(ctx, "bucket", "historicos")
	require.NoError(t, err)
	assert.False(t, ok, "directories are not artifacts")
}
