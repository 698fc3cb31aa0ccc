package task

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"vidgrab/config"
)

// Metadata describes a remote source without downloading it.
type Metadata struct {
	Title     string
	Thumbnail string
	Heights   []int // distinct available stream heights, descending
}

// Source is the merged container produced by a completed fetch.
type Source struct {
	Path   string
	Title  string
	Height int // 0 when the fetch engine did not report one
}

// Progress is one event from the fetch engine's transfer. Either Finished is
// set (transfer done, merge about to start) or the byte counters and display
// speed are. TotalBytes may be zero when the source size is unknown.
type Progress struct {
	Finished        bool
	DownloadedBytes int64
	TotalBytes      int64
	Speed           string
}

// ProgressFunc receives Progress events. It may be invoked from the fetch
// engine's own goroutines.
type ProgressFunc func(Progress)

// Fetcher wraps the external fetch engine.
type Fetcher interface {
	Probe(ctx context.Context, url string) (*Metadata, error)
	Fetch(ctx context.Context, url, workDir string, onProgress ProgressFunc) (*Source, error)
}

// Transcoder wraps the external transcode engine. Transcode blocks until the
// rescaled output exists at outputPath or an error occurred.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath string, targetHeight int, outputPath string) error
}

type job struct {
	task    *Task
	url     string
	quality string
}

// Engine runs the task lifecycle: one queued job per submission, a worker loop
// gated by a concurrency semaphore, and the state machine from pending to a
// terminal status.
type Engine struct {
	cfg        *config.Config
	store      *Store
	fetcher    Fetcher
	transcoder Transcoder
	queue      chan *job
	sem        chan struct{}
}

func NewEngine(cfg *config.Config, store *Store, fetcher Fetcher, transcoder Transcoder) *Engine {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Engine{
		cfg:        cfg,
		store:      store,
		fetcher:    fetcher,
		transcoder: transcoder,
		queue:      make(chan *job, queueSize),
		sem:        make(chan struct{}, maxConcurrency),
	}
}

func (e *Engine) Start(ctx context.Context) {
	log.Println("Job engine started. Concurrency limit:", e.cfg.MaxConcurrency)
	go e.workerLoop(ctx)
}

// workerLoop pulls jobs from the queue and processes them.
func (e *Engine) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Println("Worker loop shutting down.")
			return
		case j := <-e.queue:
			// Wait for a free processing slot
			e.sem <- struct{}{}
			go func(j *job) {
				defer func() { <-e.sem }() // Release slot
				e.run(ctx, j)
			}(j)
		}
	}
}

// Submit registers a new task and enqueues its job. It returns immediately;
// the lifecycle runs in the background and is observed by polling the store.
func (e *Engine) Submit(url, qualityLabel string) *Task {
	t := newTask(shortuuid.New())
	e.store.Put(t)
	e.queue <- &job{task: t, url: url, quality: qualityLabel}
	log.Printf("Task %s submitted for %s (%s)", t.ID(), url, qualityLabel)
	return t
}

// Probe fetches source metadata synchronously, without creating a task.
func (e *Engine) Probe(ctx context.Context, url string) (*Metadata, error) {
	return e.fetcher.Probe(ctx, url)
}

// run is the task state machine. Every failure is absorbed here: the task ends
// in the error state and the process keeps going. The working directory is
// deliberately left behind on failure; only delivery reclaims storage.
func (e *Engine) run(ctx context.Context, j *job) {
	t := j.task
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Task %s panicked: %v", t.ID(), r)
			t.Fail(errors.Errorf("internal error: %v", r))
		}
	}()

	if err := e.checkResources(); err != nil {
		log.Printf("Task %s rejected: %v", t.ID(), err)
		t.Fail(err)
		return
	}

	t.Start()
	workDir, err := os.MkdirTemp(e.cfg.WorkRoot, "vidgrab_")
	if err != nil {
		t.Fail(errors.Wrap(err, "could not allocate working directory"))
		return
	}
	t.setWorkDir(workDir)

	src, err := e.fetcher.Fetch(ctx, j.url, workDir, func(p Progress) {
		if p.Finished {
			t.FinishDownload()
			return
		}
		pct := -1.0
		if p.TotalBytes > 0 {
			pct = float64(p.DownloadedBytes) / float64(p.TotalBytes) * 100
		}
		t.ReportDownload(pct, StripEscapes(strings.TrimSpace(p.Speed)))
	})
	if err != nil {
		log.Printf("Task %s fetch failed: %v", t.ID(), err)
		t.Fail(err)
		return
	}

	requestedHeight, err := ParseQualityLabel(j.quality)
	if err != nil {
		t.Fail(err)
		return
	}

	artifact := src.Path
	if requestedHeight < src.Height {
		t.StartReencode(j.quality)
		output := filepath.Join(workDir, "final_video.mp4")
		if err := e.transcoder.Transcode(ctx, src.Path, requestedHeight, output); err != nil {
			log.Printf("Task %s transcode failed: %v", t.ID(), err)
			t.Fail(err)
			return
		}
		artifact = output
	}

	t.Complete(artifact, SanitizeTitle(src.Title)+".mp4")
	log.Printf("Task %s completed: %s", t.ID(), artifact)
}

// checkResources verifies that the host has enough headroom to start a job.
// A zero threshold disables the corresponding check.
func (e *Engine) checkResources() error {
	if e.cfg.ThrottleCPU > 0 {
		p, err := cpu.Percent(time.Second, false)
		if err != nil {
			log.Printf("Warning: could not get CPU usage: %v", err)
		} else if len(p) > 0 && p[0] > (100.0-e.cfg.ThrottleCPU) {
			return errors.Errorf("not enough idle CPU. Current usage: %.2f%%, idle threshold: %.2f%%", p[0], e.cfg.ThrottleCPU)
		}
	}

	if e.cfg.ThrottleFreeMem > 0 {
		vm, err := mem.VirtualMemory()
		if err != nil {
			log.Printf("Warning: could not get memory usage: %v", err)
		} else if vm.Available < uint64(e.cfg.ThrottleFreeMem) {
			return errors.Errorf("not enough free memory. Available: %d, required: %d", vm.Available, e.cfg.ThrottleFreeMem)
		}
	}

	if e.cfg.ThrottleFreeDisk > 0 {
		root := e.cfg.WorkRoot
		if root == "" {
			root = os.TempDir()
		}
		d, err := disk.Usage(root)
		if err != nil {
			log.Printf("Warning: could not get disk usage for %s: %v", root, err)
		} else if d.Free < uint64(e.cfg.ThrottleFreeDisk) {
			return errors.Errorf("not enough free disk space. Available: %d, required: %d", d.Free, e.cfg.ThrottleFreeDisk)
		}
	}
	return nil
}
