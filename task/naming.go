package task

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidQuality marks a quality label that does not contain a "<height>p"
// selector. It is fatal to the task carrying it.
var ErrInvalidQuality = errors.New("invalid quality label")

var (
	qualityPattern = regexp.MustCompile(`(\d+)p`)
	sgrEscape      = regexp.MustCompile(`\x1b\[[0-9;]*m`)
)

// ParseQualityLabel extracts the target height from a label such as "1080p".
func ParseQualityLabel(label string) (int, error) {
	m := qualityPattern.FindStringSubmatch(label)
	if m == nil {
		return 0, errors.Wrapf(ErrInvalidQuality, "%q", label)
	}
	height, err := strconv.Atoi(m[1])
	if err != nil || height <= 0 {
		return 0, errors.Wrapf(ErrInvalidQuality, "%q", label)
	}
	return height, nil
}

// SanitizeTitle reduces a source title to a safe display filename stem:
// ASCII letters, digits, spaces and hyphens survive, everything else is
// dropped and trailing spaces trimmed.
func SanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ', r == '-':
			b.WriteRune(r)
		}
	}
	stem := strings.TrimRight(b.String(), " ")
	if stem == "" {
		return "video"
	}
	return stem
}

// StripEscapes removes SGR terminal color sequences from display strings.
// Fetch engines relay yt-dlp output that may still carry them.
func StripEscapes(s string) string {
	return sgrEscape.ReplaceAllString(s, "")
}
