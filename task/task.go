package task

import (
	"sync"
	"time"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusStarting    Status = "starting"
	StatusDownloading Status = "downloading"
	StatusMerging     Status = "merging"
	StatusReencoding  Status = "re-encoding"
	StatusComplete    Status = "complete"
	StatusError       Status = "error"
)

// Terminal reports whether the status is final. Terminal tasks never change again.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// Task is the mutable record of one download(+transcode) job. All field access
// goes through the mutex: the engine's own goroutine and the fetch engine's
// progress callbacks write concurrently, and status polling reads concurrently.
type Task struct {
	id        string
	createdAt time.Time

	mu        sync.Mutex
	status    Status
	progress  float64 // 0..100
	message   string
	filePath  string
	fileName  string
	errDetail string
	workDir   string
}

func newTask(id string) *Task {
	return &Task{
		id:        id,
		createdAt: time.Now(),
		status:    StatusPending,
		message:   "Initializing...",
	}
}

func (t *Task) ID() string { return t.id }

// Snapshot is a consistent read-only projection of a Task, as served by the
// status endpoint.
type Snapshot struct {
	Status      Status  `json:"status"`
	Progress    float64 `json:"progress"`
	Message     string  `json:"message"`
	FilePath    string  `json:"filePath,omitempty"`
	FileName    string  `json:"fileName,omitempty"`
	ErrorDetail string  `json:"errorDetail,omitempty"`
}

func (t *Task) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		Status:      t.status,
		Progress:    t.progress,
		Message:     t.message,
		FilePath:    t.filePath,
		FileName:    t.fileName,
		ErrorDetail: t.errDetail,
	}
}

func (t *Task) WorkDir() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.workDir
}

func (t *Task) setWorkDir(dir string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.workDir = dir
}

// Start marks the task as preparing its download.
func (t *Task) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusPending {
		return
	}
	t.status = StatusStarting
	t.message = "Preparing download..."
}

// ReportDownload records a transfer progress update. pct < 0 means the total
// size is unknown and the previous percentage is kept. Progress never moves
// backwards within the download phase; yt-dlp restarts its byte counters
// between the video and audio legs of a merged download.
func (t *Task) ReportDownload(pct float64, speed string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusStarting && t.status != StatusDownloading {
		return
	}
	t.status = StatusDownloading
	if pct >= 0 {
		if pct > 100 {
			pct = 100
		}
		if pct > t.progress {
			t.progress = pct
		}
	}
	t.message = "Downloading... (" + speed + ")"
}

// FinishDownload marks the transfer as done and the container merge as started.
func (t *Task) FinishDownload() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusStarting && t.status != StatusDownloading {
		return
	}
	t.status = StatusMerging
	t.progress = 100
	t.message = "Download finished, merging formats..."
}

// StartReencode enters the re-encoding phase; progress restarts from zero.
func (t *Task) StartReencode(qualityLabel string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.Terminal() {
		return
	}
	t.status = StatusReencoding
	t.progress = 0
	t.message = "Re-encoding to " + qualityLabel + "..."
}

// Complete records the finished artifact and moves the task to its terminal
// success state.
func (t *Task) Complete(filePath, fileName string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.Terminal() {
		return
	}
	t.status = StatusComplete
	t.progress = 100
	t.message = "Download complete!"
	t.filePath = filePath
	t.fileName = fileName
}

// Fail moves the task to its terminal error state. A task that already reached
// a terminal state is left untouched.
func (t *Task) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.Terminal() {
		return
	}
	t.status = StatusError
	t.errDetail = err.Error()
	t.message = err.Error()
}
