package ffmpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vidgrab/config"
)

func TestBuildArgs(t *testing.T) {
	t.Run("fixed scale and audio copy", func(t *testing.T) {
		args := buildArgs("/work/source_video.mp4", 480, "/work/final_video.mp4", nil)
		expected := []string{
			"-i", "/work/source_video.mp4",
			"-vf", "scale=-2:480",
			"-c:a", "copy",
			"-y", "/work/final_video.mp4",
		}
		assert.Equal(t, expected, args)
	})

	t.Run("extra args precede the output", func(t *testing.T) {
		args := buildArgs("in.mp4", 720, "out.mp4", []string{"-preset", "veryfast"})
		expected := []string{
			"-i", "in.mp4",
			"-vf", "scale=-2:720",
			"-c:a", "copy",
			"-preset", "veryfast",
			"-y", "out.mp4",
		}
		assert.Equal(t, expected, args)
	})
}

func TestSplitExtraArgs(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		args, err := SplitExtraArgs("   ")
		assert.NoError(t, err)
		assert.Nil(t, args)
	})

	t.Run("quoted argument", func(t *testing.T) {
		args, err := SplitExtraArgs(`-metadata "title=a b"`)
		assert.NoError(t, err)
		assert.Equal(t, []string{"-metadata", "title=a b"}, args)
	})

	t.Run("unterminated quote", func(t *testing.T) {
		_, err := SplitExtraArgs(`-metadata "broken`)
		assert.Error(t, err)
	})
}

func TestNewRunnerMissingBinary(t *testing.T) {
	cfg := &config.Config{FFBin: "definitely-not-an-ffmpeg-binary"}
	_, err := NewRunner(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
