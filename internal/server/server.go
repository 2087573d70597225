package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "github.com/LuchoMiranda123/proyecto-certificado-capa/internal/api/v1"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/catalog"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/config"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/store"
)

// DBFileName 运行历史数据库文件名
const DBFileName = "capacitacion.db"

// Server HTTP服务器
type Server struct {
	router *gin.Engine
	http   *http.Server
	store  *store.Store
	v1     *v1.Handler
	log    *zap.Logger
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig, catalogs catalog.Source, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	opts := []v1.Option{v1.WithLogger(log)}

	var sqliteStore *store.Store
	if cfg.Data.History {
		sqliteStore, err = store.New(filepath.Join(dataDir, DBFileName))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		opts = append(opts, v1.WithStore(sqliteStore))
	}

	s := &Server{
		router: gin.New(),
		store:  sqliteStore,
		v1:     v1.NewHandler(cfg, catalogs, opts...),
		log:    log,
	}
	s.setupRoutes()
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery(), s.accessLog())

	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// V1 API 路由
	api := s.router.Group("/api")
	{
		s.v1.RegisterRoutes(api)
	}

	s.router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "capacitacion",
			"api":     "/api",
			"status":  "/api/status",
		})
	})
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("请求",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

// Handler 路由处理器（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器，直到 Shutdown 被调用
func (s *Server) Run() error {
	s.log.Info("服务启动", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 停止接收请求并释放上传、下载与数据库
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	s.v1.Close()
	if s.store != nil {
		err = errors.Join(err, s.store.Close())
	}
	return err
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
