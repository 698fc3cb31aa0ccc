package ffmpeg

import (
	"strings"

	"github.com/google/shlex"
	"github.com/pkg/errors"
)

// SplitExtraArgs splits the configured extra ffmpeg arguments without invoking
// a shell. An empty or blank value yields no arguments.
func SplitExtraArgs(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	args, err := shlex.Split(raw)
	if err != nil {
		return nil, errors.Wrap(err, "invalid FF_EXTRA_ARGS")
	}
	return args, nil
}
