package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/model"
)

// ListCatalog 列出目录中的课程
// GET /api/catalog
func (h *Handler) ListCatalog(c *gin.Context) {
	cat := h.catalogs.Current()
	c.JSON(http.StatusOK, gin.H{
		"total":   cat.Len(),
		"courses": cat.Entries(),
		"aliases": cat.Aliases(),
	})
}

// ResolveRequest 名称解析请求
type ResolveRequest struct {
	Labels []string `json:"labels" binding:"required"`
}

// Resolve 预览工作表名称的解析结果
// POST /api/resolve
func (h *Handler) Resolve(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "solicitud inválida: " + err.Error()})
		return
	}

	r := h.resolver()
	out := make([]model.ResolvedCourse, 0, len(req.Labels))
	unmatched := 0
	for _, label := range req.Labels {
		rc := r.Resolve(label)
		if !rc.Matched() {
			unmatched++
		}
		out = append(out, rc)
	}
	c.JSON(http.StatusOK, gin.H{
		"results":   out,
		"unmatched": unmatched,
	})
}
