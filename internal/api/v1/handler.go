package v1

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/catalog"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/config"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/convert"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/exporter"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/pipeline"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/resolver"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/store"
)

// Handler V1 API 处理器
type Handler struct {
	cfg      *config.AppConfig
	catalogs catalog.Source
	store    *store.Store
	renderer *exporter.Renderer
	log      *zap.Logger

	newConverter func() convert.Converter
	pipelineOpts []pipeline.Option

	uploads   *uploadStore
	downloads *downloadStore

	// 转换服务是单实例的，同一时间只允许一次生成
	generating sync.Mutex
}

// Option 处理器选项
type Option func(*Handler)

// WithStore 记录上传与运行历史
func WithStore(s *store.Store) Option {
	return func(h *Handler) { h.store = s }
}

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithConverterFactory 替换 pdf 转换服务的创建方式
func WithConverterFactory(fn func() convert.Converter) Option {
	return func(h *Handler) { h.newConverter = fn }
}

// WithPipelineOptions 追加生成协调器选项
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(h *Handler) { h.pipelineOpts = append(h.pipelineOpts, opts...) }
}

// NewHandler 创建 V1 API 处理器
func NewHandler(cfg *config.AppConfig, catalogs catalog.Source, opts ...Option) *Handler {
	h := &Handler{
		cfg:      cfg,
		catalogs: catalogs,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.renderer = exporter.NewRenderer(cfg.Document, exporter.WithLogger(h.log))
	h.uploads = newUploadStore(minutes(cfg.Server.UploadTTLMinutes, 60))
	h.downloads = newDownloadStore()
	if h.newConverter == nil {
		h.newConverter = h.defaultConverter
	}
	return h
}

func minutes(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Minute
}

func (h *Handler) defaultConverter() convert.Converter {
	if !h.cfg.Conversion.Enabled {
		return nil
	}
	return convert.NewLibreOffice(h.cfg.Conversion.SofficePath, h.cfg.Conversion.Timeout(), h.log)
}

// resolver 以当前目录快照创建解析器，一次运行内不受目录重载影响
func (h *Handler) resolver() *resolver.Resolver {
	return resolver.New(h.catalogs.Current(),
		resolver.WithPartTwoSheet(h.cfg.Catalog.PartTwoSheet),
		resolver.WithLogger(h.log))
}

// Close 释放仍在内存中的上传与下载
func (h *Handler) Close() {
	h.uploads.closeAll()
	h.downloads.removeAll()
}

// RegisterRoutes 注册 V1 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 课程目录
	router.GET("/catalog", h.ListCatalog)
	router.POST("/resolve", h.Resolve)

	// 上传与人员选择
	router.POST("/uploads", h.Upload)
	router.GET("/uploads/:id", h.GetUpload)
	router.POST("/uploads/:id/personnel", h.SelectPersonnel)

	// 生成与下载
	router.POST("/uploads/:id/generate", h.GenerateStream)
	router.GET("/download/:token", h.Download)

	// 运行历史
	router.GET("/runs", h.ListRuns)
	router.GET("/runs/:id", h.GetRun)
}
