package task

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskLifecycleTransitions(t *testing.T) {
	tk := newTask("t1")
	assert.Equal(t, StatusPending, tk.Snapshot().Status)

	tk.Start()
	snap := tk.Snapshot()
	assert.Equal(t, StatusStarting, snap.Status)
	assert.Equal(t, "Preparing download...", snap.Message)

	tk.ReportDownload(42.5, "1.2MB/s")
	snap = tk.Snapshot()
	assert.Equal(t, StatusDownloading, snap.Status)
	assert.Equal(t, 42.5, snap.Progress)
	assert.Equal(t, "Downloading... (1.2MB/s)", snap.Message)

	tk.FinishDownload()
	snap = tk.Snapshot()
	assert.Equal(t, StatusMerging, snap.Status)
	assert.Equal(t, float64(100), snap.Progress)

	tk.StartReencode("480p")
	snap = tk.Snapshot()
	assert.Equal(t, StatusReencoding, snap.Status)
	assert.Equal(t, float64(0), snap.Progress)
	assert.Equal(t, "Re-encoding to 480p...", snap.Message)

	tk.Complete("/work/final_video.mp4", "My Clip.mp4")
	snap = tk.Snapshot()
	assert.Equal(t, StatusComplete, snap.Status)
	assert.Equal(t, float64(100), snap.Progress)
	assert.Equal(t, "/work/final_video.mp4", snap.FilePath)
	assert.Equal(t, "My Clip.mp4", snap.FileName)
	assert.Empty(t, snap.ErrorDetail)
}

func TestTaskProgressDiscipline(t *testing.T) {
	t.Run("clamped to 100", func(t *testing.T) {
		tk := newTask("t1")
		tk.Start()
		tk.ReportDownload(150, "fast")
		assert.Equal(t, float64(100), tk.Snapshot().Progress)
	})

	t.Run("never decreases within the phase", func(t *testing.T) {
		tk := newTask("t1")
		tk.Start()
		tk.ReportDownload(60, "fast")
		tk.ReportDownload(40, "slow")
		assert.Equal(t, float64(60), tk.Snapshot().Progress)
	})

	t.Run("unknown total keeps previous value", func(t *testing.T) {
		tk := newTask("t1")
		tk.Start()
		tk.ReportDownload(30, "ok")
		tk.ReportDownload(-1, "ok")
		snap := tk.Snapshot()
		assert.Equal(t, float64(30), snap.Progress)
		assert.Equal(t, "Downloading... (ok)", snap.Message)
	})
}

func TestTaskNeverRevertsState(t *testing.T) {
	tk := newTask("t1")
	tk.Start()
	tk.ReportDownload(80, "fast")
	tk.FinishDownload()

	// A late downloading event from the fetch engine must not pull the task
	// back out of merging.
	tk.ReportDownload(10, "slow")
	assert.Equal(t, StatusMerging, tk.Snapshot().Status)
	assert.Equal(t, float64(100), tk.Snapshot().Progress)
}

func TestTaskTerminalStatesAreSticky(t *testing.T) {
	t.Run("complete wins over later failure", func(t *testing.T) {
		tk := newTask("t1")
		tk.Complete("/work/a.mp4", "a.mp4")
		tk.Fail(errors.New("too late"))
		snap := tk.Snapshot()
		assert.Equal(t, StatusComplete, snap.Status)
		assert.Empty(t, snap.ErrorDetail)
	})

	t.Run("error wins over later completion", func(t *testing.T) {
		tk := newTask("t1")
		tk.Fail(errors.New("boom"))
		tk.Complete("/work/a.mp4", "a.mp4")
		snap := tk.Snapshot()
		assert.Equal(t, StatusError, snap.Status)
		assert.Equal(t, "boom", snap.ErrorDetail)
		assert.Empty(t, snap.FilePath)
		assert.Empty(t, snap.FileName)
	})
}
