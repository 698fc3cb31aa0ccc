// Package ffmpeg adapts the ffmpeg binary as the transcode engine.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"vidgrab/config"
)

// ErrTranscodeFailed marks a failed ffmpeg invocation. The wrapped message
// carries the tail of ffmpeg's combined output.
var ErrTranscodeFailed = errors.New("transcode failed")

const maxDiagnostic = 2048

// Runner invokes ffmpeg synchronously, one process per transcode.
type Runner struct {
	bin       string
	extraArgs []string
}

func NewRunner(cfg *config.Config) (*Runner, error) {
	if _, err := exec.LookPath(cfg.FFBin); err != nil {
		return nil, errors.Wrapf(err, "ffmpeg binary not found or not in PATH: %s", cfg.FFBin)
	}
	extra, err := SplitExtraArgs(cfg.FFExtraArgs)
	if err != nil {
		return nil, err
	}
	return &Runner{bin: cfg.FFBin, extraArgs: extra}, nil
}

// Transcode rescales inputPath to targetHeight, copying the audio stream, and
// writes the result to outputPath. The width follows from the aspect ratio,
// kept even for encoder compatibility. On failure any partial output is
// removed; the caller must not use outputPath.
func (r *Runner) Transcode(ctx context.Context, inputPath string, targetHeight int, outputPath string) error {
	args := buildArgs(inputPath, targetHeight, outputPath, r.extraArgs)

	cmd := exec.CommandContext(ctx, r.bin, args...)
	var outputBuf bytes.Buffer
	cmd.Stdout = &outputBuf
	cmd.Stderr = &outputBuf

	log.Printf("Executing: %s %s", r.bin, strings.Join(args, " "))

	if err := cmd.Run(); err != nil {
		os.Remove(outputPath)
		return errors.Wrapf(ErrTranscodeFailed, "ffmpeg: %v: %s", err, tail(outputBuf.String()))
	}
	return nil
}

func buildArgs(input string, height int, output string, extra []string) []string {
	args := []string{
		"-i", input,
		"-vf", fmt.Sprintf("scale=-2:%d", height),
		"-c:a", "copy",
	}
	args = append(args, extra...)
	args = append(args, "-y", output)
	return args
}

// tail trims a diagnostic to its last maxDiagnostic bytes; ffmpeg prints the
// actual failure at the end of its output.
func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxDiagnostic {
		s = s[len(s)-maxDiagnostic:]
	}
	return s
}
