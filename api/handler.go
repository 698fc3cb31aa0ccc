package api

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"vidgrab/task"
)

type Handler struct {
	engine *task.Engine
	store  *task.Store
}

func NewHandler(engine *task.Engine, store *task.Store) *Handler {
	return &Handler{
		engine: engine,
		store:  store,
	}
}

type InfoRequest struct {
	URL string `json:"url" binding:"required"`
}

type InfoResponse struct {
	Title     string   `json:"title"`
	Thumbnail string   `json:"thumbnail"`
	Qualities []string `json:"qualities"`
}

type DownloadRequest struct {
	URL          string `json:"url" binding:"required"`
	QualityLabel string `json:"qualityLabel" binding:"required"`
}

// handleInfo probes a source URL and lists its available qualities.
func (h *Handler) handleInfo(c *gin.Context) {
	var req InfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	md, err := h.engine.Probe(c.Request.Context(), req.URL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	qualities := make([]string, 0, len(md.Heights))
	for _, height := range md.Heights {
		qualities = append(qualities, fmt.Sprintf("%dp", height))
	}
	c.JSON(http.StatusOK, InfoResponse{
		Title:     md.Title,
		Thumbnail: md.Thumbnail,
		Qualities: qualities,
	})
}

// handleDownload enqueues a download job and returns its task id immediately.
func (h *Handler) handleDownload(c *gin.Context) {
	var req DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t := h.engine.Submit(req.URL, req.QualityLabel)
	c.JSON(http.StatusAccepted, gin.H{"taskId": t.ID()})
}

// handleStatus serves the task record projection for polling clients.
func (h *Handler) handleStatus(c *gin.Context) {
	t, found := h.store.Get(c.Param("taskId"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	c.JSON(http.StatusOK, t.Snapshot())
}

// handleFetch streams a completed artifact and reclaims the task's storage.
// One-shot: once the stream has been initiated the record and working
// directory are removed, so a repeat request sees 404.
func (h *Handler) handleFetch(c *gin.Context) {
	id := c.Param("taskId")
	t, found := h.store.Get(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not ready or task not found"})
		return
	}

	snap := t.Snapshot()
	if snap.Status != task.StatusComplete || snap.FilePath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not ready or task not found"})
		return
	}
	if _, err := os.Stat(snap.FilePath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}

	defer h.store.Reclaim(id)

	c.Header("Content-Type", "video/mp4")
	c.FileAttachment(snap.FilePath, snap.FileName)
}
