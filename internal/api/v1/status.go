package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/convert"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	CatalogCourses   int  `json:"catalogCourses"`   // 目录课程数
	ConversionOn     bool `json:"conversionOn"`     // 是否启用 pdf 转换
	ConverterFound   bool `json:"converterFound"`   // 是否找到 LibreOffice
	ActiveUploads    int  `json:"activeUploads"`    // 未过期的上传会话
	PendingDownloads int  `json:"pendingDownloads"` // 未下载的压缩包
	HistoryEnabled   bool `json:"historyEnabled"`   // 是否记录运行历史
	TotalUploads     int  `json:"totalUploads"`     // 历史上传次数
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	resp := StatusResponse{
		CatalogCourses:   h.catalogs.Current().Len(),
		ConversionOn:     h.cfg.Conversion.Enabled,
		ActiveUploads:    h.uploads.len(),
		PendingDownloads: h.downloads.len(),
		HistoryEnabled:   h.store != nil && h.cfg.Data.History,
	}

	if lo, ok := h.newConverter().(*convert.LibreOffice); ok && lo != nil {
		resp.ConverterFound = lo.Available()
	}

	if h.store != nil {
		if n, err := h.store.CountUploads(c.Request.Context()); err == nil {
			resp.TotalUploads = n
		}
	}

	c.JSON(http.StatusOK, resp)
}
