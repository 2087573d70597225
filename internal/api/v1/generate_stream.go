package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/config"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/model"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/pipeline"
)

// GenerateRequest 生成请求；Courses 与 Groups 都为空时生成全部课程
type GenerateRequest struct {
	Format  model.OutputFormat `json:"format"`
	Courses []string           `json:"courses"`
	Groups  []pipeline.Group   `json:"groups"`
}

// ArchiveLink 完成事件中的一个下载链接
type ArchiveLink struct {
	Name        string   `json:"name"`
	Category    string   `json:"category,omitempty"`
	Entries     []string `json:"entries"`
	DownloadURL string   `json:"downloadUrl"`
}

// GenerateStream 生成考勤表（SSE 进度 + 完成后提供下载地址）
// POST /api/uploads/:id/generate
func (h *Handler) GenerateStream(c *gin.Context) {
	session, ok := h.uploads.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "sesión de carga no encontrada o expirada"})
		return
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "solicitud inválida: " + err.Error()})
		return
	}
	if req.Format == "" {
		req.Format = model.OutputExcel
	}
	if !req.Format.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("formato desconocido %q", req.Format)})
		return
	}
	if len(req.Courses) == 0 && len(req.Groups) == 0 {
		req.Courses = session.gradebook.Courses()
	}

	roster := session.personnel()
	if len(roster) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no se seleccionó ningún personal"})
		return
	}

	if !h.generating.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"error": "ya hay una generación en curso"})
		return
	}
	defer h.generating.Unlock()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no se admite la respuesta en streaming"})
		return
	}

	send := func(event pipeline.ProgressEvent) {
		b, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(h.log),
		pipeline.WithTempDir(config.GetDataPath(h.cfg, "uploads", "")),
	}
	policy := pipeline.DefaultRetryPolicy()
	policy.Attempts = h.cfg.Conversion.Attempts
	opts = append(opts, pipeline.WithRetryPolicy(policy))
	if conv := h.newConverter(); conv != nil {
		opts = append(opts, pipeline.WithConverter(conv))
	}
	if h.store != nil && h.cfg.Data.History {
		opts = append(opts, pipeline.WithRecorder(h.store))
	}
	opts = append(opts, h.pipelineOpts...)

	orch := pipeline.New(h.resolver(), h.renderer, opts...)
	res, err := orch.Run(c.Request.Context(), pipeline.Request{
		Courses: req.Courses,
		Groups:  req.Groups,
		Roster:  roster,
		Grades:  session.gradebook,
		Format:  req.Format,
		Progress: func(ev pipeline.ProgressEvent) {
			// 完成事件在打包结果落盘后单独发送
			if ev.Type != pipeline.EventDone {
				send(ev)
			}
		},
	})
	if err != nil && res == nil {
		send(errorEvent("Error en la generación: " + err.Error()))
		return
	}
	if errors.Is(err, pipeline.ErrNothingPackaged) {
		send(pipeline.ProgressEvent{
			Type:    "error",
			Message: "No se generó ningún archivo",
			Data: map[string]any{
				"summary":  res.Summary,
				"courses":  res.Courses,
				"warnings": res.Warnings,
			},
			Timestamp: time.Now(),
		})
		return
	}

	links, err := h.publish(res.Archives, apiPrefix(c.Request.URL.Path))
	if err != nil {
		h.log.Error("压缩包写入失败", zap.String("run", res.Summary.ID), zap.Error(err))
		send(errorEvent("No se pudo guardar el archivo comprimido: " + err.Error()))
		return
	}

	send(pipeline.ProgressEvent{
		Type:    pipeline.EventDone,
		Message: "Generación completada",
		Data: map[string]any{
			"percent":   100,
			"summary":   res.Summary,
			"courses":   res.Courses,
			"warnings":  res.Warnings,
			"downloads": links,
		},
		Timestamp: time.Now(),
	})
}

func errorEvent(msg string) pipeline.ProgressEvent {
	return pipeline.ProgressEvent{
		Type:      "error",
		Message:   msg,
		Data:      map[string]any{},
		Timestamp: time.Now(),
	}
}

func apiPrefix(path string) string {
	if strings.HasPrefix(path, "/api/v1/") {
		return "/api/v1"
	}
	return "/api"
}

// publish 把压缩包写入 exports 目录并登记一次性下载链接
func (h *Handler) publish(archives []pipeline.Archive, prefix string) ([]ArchiveLink, error) {
	dir := config.GetDataPath(h.cfg, "exports", "")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	ttl := minutes(h.cfg.Server.DownloadTTLMinutes, 10)

	links := make([]ArchiveLink, 0, len(archives))
	for _, a := range archives {
		f, err := os.CreateTemp(dir, "capacitacion_*.zip")
		if err != nil {
			return nil, err
		}
		if _, err := f.Write(a.Data); err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
			return nil, err
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(f.Name())
			return nil, err
		}
		token := h.downloads.put(f.Name(), a.Name, ttl)
		links = append(links, ArchiveLink{
			Name:        a.Name,
			Category:    a.Category,
			Entries:     a.Entries,
			DownloadURL: fmt.Sprintf("%s/download/%s", prefix, token),
		})
	}
	return links, nil
}

// Download 下载生成的压缩包（一次性）
// GET /api/download/:token
func (h *Handler) Download(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "falta el token"})
		return
	}

	item, ok := h.downloads.take(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "el enlace de descarga expiró"})
		return
	}
	defer os.Remove(item.filePath)

	if _, err := os.Stat(item.filePath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "el archivo ya no existe"})
		return
	}

	c.Header("Content-Disposition", buildContentDisposition(item.fileName))
	c.Header("Content-Type", "application/zip")
	c.File(item.filePath)
}

// buildContentDisposition 非 ASCII 文件名同时给出 ASCII 回退名与 RFC 5987 编码名
func buildContentDisposition(name string) string {
	var ascii strings.Builder
	for _, r := range name {
		switch {
		case r == '"' || r == '\\':
			ascii.WriteByte('_')
		case r < 0x20 || r > 0x7e:
			ascii.WriteByte('_')
		default:
			ascii.WriteRune(r)
		}
	}
	return fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", ascii.String(), url.PathEscape(name))
}
