package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQualityLabel(t *testing.T) {
	t.Run("plain label", func(t *testing.T) {
		h, err := ParseQualityLabel("1080p")
		assert.NoError(t, err)
		assert.Equal(t, 1080, h)
	})

	t.Run("label with suffix", func(t *testing.T) {
		h, err := ParseQualityLabel("720p60")
		assert.NoError(t, err)
		assert.Equal(t, 720, h)
	})

	t.Run("malformed label", func(t *testing.T) {
		_, err := ParseQualityLabel("bad")
		assert.ErrorIs(t, err, ErrInvalidQuality)
	})

	t.Run("empty label", func(t *testing.T) {
		_, err := ParseQualityLabel("")
		assert.ErrorIs(t, err, ErrInvalidQuality)
	})
}

func TestSanitizeTitle(t *testing.T) {
	t.Run("punctuation dropped", func(t *testing.T) {
		assert.Equal(t, "Crazy Video 1 HD", SanitizeTitle("Crazy!! Video #1 (HD)"))
	})

	t.Run("hyphens kept", func(t *testing.T) {
		assert.Equal(t, "some-clip - part 2", SanitizeTitle("some-clip - part 2"))
	})

	t.Run("emoji and symbols dropped", func(t *testing.T) {
		assert.Equal(t, "cat video", SanitizeTitle("cat 🐱 video™"))
	})

	t.Run("trailing whitespace trimmed", func(t *testing.T) {
		assert.Equal(t, "clip", SanitizeTitle("clip!!! "))
	})

	t.Run("nothing survives", func(t *testing.T) {
		assert.Equal(t, "video", SanitizeTitle("日本語!!!"))
	})
}

func TestStripEscapes(t *testing.T) {
	assert.Equal(t, "1.25MiB/s", StripEscapes("\x1b[0;32m1.25MiB/s\x1b[0m"))
	assert.Equal(t, "plain", StripEscapes("plain"))
}
