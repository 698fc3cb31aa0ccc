package api

import (
	"github.com/gin-gonic/gin"

	"vidgrab/config"
	"vidgrab/task"
)

func SetupRouter(engine *task.Engine, store *task.Store, cfg *config.Config) *gin.Engine {
	r := gin.Default()
	r.Use(CORSMiddleware(cfg))
	h := NewHandler(engine, store)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	grp := r.Group("/api")
	{
		grp.POST("/info", h.handleInfo)
		grp.POST("/download", h.handleDownload)
		grp.GET("/status/:taskId", h.handleStatus)
		grp.GET("/fetch/:taskId", h.handleFetch)
	}
	return r
}
