// Package fetch adapts the yt-dlp fetch engine to the job engine's contract.
package fetch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/pkg/errors"

	"vidgrab/task"
)

var (
	// ErrSourceUnavailable marks a URL that cannot be resolved or has no
	// playable video stream.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrFetchFailed marks a network or extraction failure during download.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrOutputMissing marks a download that finished without leaving a
	// merged container behind.
	ErrOutputMissing = errors.New("downloaded source file not found")
)

const (
	// Best mp4 video plus m4a audio, merged; falls back to whatever is best.
	formatSelector = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"

	outputStem       = "source_video"
	progressInterval = 500 * time.Millisecond
)

// Client drives the yt-dlp binary through go-ytdlp.
type Client struct{}

func NewClient() (*Client, error) {
	if _, err := exec.LookPath("yt-dlp"); err != nil {
		return nil, errors.Wrap(err, "yt-dlp binary not found in PATH")
	}
	return &Client{}, nil
}

// Probe extracts title, thumbnail and the available video heights without
// downloading anything.
func (c *Client) Probe(ctx context.Context, url string) (*task.Metadata, error) {
	// PrintJSON is required for GetExtractedInfo; without it yt-dlp only
	// writes its human-readable log and the result carries no info dict.
	res, err := ytdlp.New().SkipDownload().PrintJSON().Run(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(ErrSourceUnavailable, "%v", err)
	}

	infos, err := res.GetExtractedInfo()
	if err != nil || len(infos) == 0 {
		return nil, errors.Wrap(ErrSourceUnavailable, "no extractable stream info")
	}
	info := infos[0]

	md := &task.Metadata{Title: "N/A"}
	if info.Title != nil {
		md.Title = *info.Title
	}
	if info.Thumbnail != nil {
		md.Thumbnail = *info.Thumbnail
	}

	seen := make(map[int]bool)
	for _, f := range info.Formats {
		if f == nil || f.Height == nil {
			continue
		}
		if f.VCodec != nil && *f.VCodec == "none" {
			continue
		}
		h := int(*f.Height)
		if h > 0 && !seen[h] {
			seen[h] = true
			md.Heights = append(md.Heights, h)
		}
	}
	if len(md.Heights) == 0 {
		return nil, errors.Wrap(ErrSourceUnavailable, "no playable video stream")
	}
	sort.Sort(sort.Reverse(sort.IntSlice(md.Heights)))

	return md, nil
}

// Fetch downloads and merges the best matching streams into workDir, relaying
// transfer progress to onProgress. The callback runs on go-ytdlp's goroutine,
// not the caller's.
func (c *Client) Fetch(ctx context.Context, url, workDir string, onProgress task.ProgressFunc) (*task.Source, error) {
	dl := ytdlp.New().
		Format(formatSelector).
		MergeOutputFormat("mp4").
		NoPlaylist().
		ForceOverwrites().
		PrintJSON(). // the title and source height come from the info dict
		Output(filepath.Join(workDir, outputStem+".%(ext)s"))

	dl.ProgressFunc(progressInterval, func(update ytdlp.ProgressUpdate) {
		if onProgress == nil {
			return
		}
		switch update.Status {
		case ytdlp.ProgressStatusFinished:
			onProgress(task.Progress{Finished: true})
		case ytdlp.ProgressStatusDownloading:
			onProgress(task.Progress{
				DownloadedBytes: int64(update.DownloadedBytes),
				TotalBytes:      int64(update.TotalBytes),
				Speed:           speedString(update),
			})
		}
	})

	res, err := dl.Run(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(ErrFetchFailed, "%v", err)
	}

	path, err := mergedOutputPath(workDir)
	if err != nil {
		return nil, err
	}

	src := &task.Source{Path: path, Title: "video"}
	if infos, err := res.GetExtractedInfo(); err == nil && len(infos) > 0 {
		if infos[0].Title != nil {
			src.Title = *infos[0].Title
		}
		if infos[0].Height != nil {
			src.Height = int(*infos[0].Height)
		}
	}
	return src, nil
}

// speedString renders a transfer rate from the raw byte counters. go-ytdlp
// exposes counts rather than yt-dlp's formatted rate, so compute our own.
func speedString(update ytdlp.ProgressUpdate) string {
	if update.Started.IsZero() {
		return "N/A"
	}
	elapsed := time.Since(update.Started).Seconds()
	if elapsed <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.1fMB/s", float64(update.DownloadedBytes)/elapsed/1024/1024)
}

// mergedOutputPath locates the merged container. yt-dlp normally remuxes to
// mp4 per our options but falls back to mkv for some codec combinations.
func mergedOutputPath(workDir string) (string, error) {
	for _, ext := range []string{".mp4", ".mkv"} {
		p := filepath.Join(workDir, outputStem+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errors.Wrapf(ErrOutputMissing, "no %s.mp4 or %s.mkv in %s", outputStem, outputStem, workDir)
}
