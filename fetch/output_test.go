package fetch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergedOutputPath(t *testing.T) {
	t.Run("missing output", func(t *testing.T) {
		_, err := mergedOutputPath(t.TempDir())
		assert.ErrorIs(t, err, ErrOutputMissing)
	})

	t.Run("mkv fallback", func(t *testing.T) {
		dir := t.TempDir()
		mkv := filepath.Join(dir, "source_video.mkv")
		require.NoError(t, os.WriteFile(mkv, []byte("x"), 0o644))

		path, err := mergedOutputPath(dir)
		assert.NoError(t, err)
		assert.Equal(t, mkv, path)
	})

	t.Run("mp4 preferred", func(t *testing.T) {
		dir := t.TempDir()
		mp4 := filepath.Join(dir, "source_video.mp4")
		require.NoError(t, os.WriteFile(mp4, []byte("x"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "source_video.mkv"), []byte("x"), 0o644))

		path, err := mergedOutputPath(dir)
		assert.NoError(t, err)
		assert.Equal(t, mp4, path)
	})
}
