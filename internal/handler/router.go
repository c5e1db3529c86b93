package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/legalqa/internal/middleware"
	"github.com/xxxsen/legalqa/web"
)

type RouterDeps struct {
	Page           *PageHandler
	Documents      *DocumentHandler
	UploadInterval time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/", deps.Page.Index)
	api.StaticFS("/static", http.FS(web.Static()))

	api.POST("/upload", middleware.RateLimit(deps.UploadInterval), deps.Documents.Upload)
	api.POST("/query", deps.Documents.Query)
	api.GET("/document", deps.Documents.Get)
	api.DELETE("/document", deps.Documents.Delete)
}
