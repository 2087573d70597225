package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/catalog"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/server"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/util"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		port    int
		devMode bool
		open    bool
		dataDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Inicia la API HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			// 命令行端口仅在配置与环境变量都未指定时生效
			if port > 0 && !a.info.PortSpecified {
				cfg.Server.Port = port
			}
			if devMode {
				cfg.Server.DevMode = true
			}
			if dataDir != "" {
				cfg.Data.DataDir = dataDir
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "==========================================")
			fmt.Fprintln(out, "  Capacitación - Formatos de asistencia")
			fmt.Fprintln(out, "==========================================")

			source, closeSource, err := a.catalogSource()
			if err != nil {
				return err
			}
			defer closeSource()

			srv, err := server.NewServer(cfg, source, a.log)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Directorio de datos: %s\n", cfg.Path(cfg.Data.DataDir))
			fmt.Fprintf(out, "Cursos en catálogo: %d\n", source.Current().Len())

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Run()
			}()

			url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
			fmt.Fprintf(out, "Servicio escuchando en %s\n", url)
			if open {
				if err := util.OpenBrowserWithFallback(url); err != nil {
					fmt.Fprintf(out, "No se pudo abrir el navegador, visite: %s\n", url)
				}
			}
			fmt.Fprintln(out, "\nPresione Ctrl+C para detener...")

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("servidor: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			fmt.Fprintln(out, "\nDeteniendo el servicio...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.log.Warn("关闭服务失败", zap.Error(err))
			}
			return <-errCh
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "Puerto (solo si config.toml no define port)")
	cmd.Flags().BoolVar(&devMode, "dev", false, "Modo desarrollo")
	cmd.Flags().BoolVar(&open, "open", false, "Abrir el navegador al iniciar")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directorio de datos (sobrescribe la configuración)")
	return cmd
}

// catalogSource 配置了目录文件且开启监听时返回可热重载的目录
func (a *app) catalogSource() (catalog.Source, func(), error) {
	path := a.cfg.Path(a.cfg.Catalog.Path)
	if path != "" && a.cfg.Catalog.Watch {
		w, err := catalog.Watch(path, a.log)
		if err != nil {
			return nil, nil, err
		}
		return w, func() { _ = w.Close() }, nil
	}
	c, err := a.loadCatalog()
	if err != nil {
		return nil, nil, err
	}
	return catalog.Static{Catalog: c}, func() {}, nil
}
