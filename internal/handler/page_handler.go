package handler

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/xxxsen/legalqa/web"
)

type PageHandler struct {
	tmpl        *template.Template
	uploadLimit string
}

func NewPageHandler(maxUploadSize int64) (*PageHandler, error) {
	tmpl, err := template.ParseFS(web.Templates(), "*.html")
	if err != nil {
		return nil, err
	}
	return &PageHandler{tmpl: tmpl, uploadLimit: formatUploadLimit(maxUploadSize)}, nil
}

func (h *PageHandler) Index(c *gin.Context) {
	c.Render(http.StatusOK, render.HTML{
		Template: h.tmpl,
		Name:     "index.html",
		Data: gin.H{
			"Title":       "Legal Document Q&A",
			"UploadLimit": h.uploadLimit,
		},
	})
}
