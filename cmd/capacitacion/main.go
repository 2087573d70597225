package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/catalog"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/config"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/logging"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/resolver"
)

// app 各子命令共享的配置与日志
type app struct {
	verbose    bool
	configPath string

	cfg  *config.AppConfig
	info config.LoadConfigInfo
	log  *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "capacitacion",
		Short:         "Genera los formatos de asistencia de capacitación por curso",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Registro detallado")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Ruta de config.toml (por defecto junto al ejecutable)")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newGenerateCmd(a))
	root.AddCommand(newResolveCmd(a))
	root.AddCommand(newCatalogCmd(a))
	root.AddCommand(newInitCmd(a))
	return root
}

func (a *app) init() error {
	log, err := logging.New(a.verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.log = log

	if a.configPath != "" {
		a.cfg, a.info, err = config.LoadFile(a.configPath)
	} else {
		a.cfg, a.info, err = config.LoadConfigWithInfo()
	}
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	a.log.Debug("配置已加载",
		zap.String("path", a.info.Path),
		zap.Bool("found", a.info.Found),
		zap.Bool("env", a.info.EnvFile))
	return nil
}

func (a *app) loadCatalog() (*catalog.Catalog, error) {
	return catalog.LoadOrEmbedded(a.cfg.Path(a.cfg.Catalog.Path))
}

func (a *app) newResolver(c *catalog.Catalog) *resolver.Resolver {
	return resolver.New(c,
		resolver.WithPartTwoSheet(a.cfg.Catalog.PartTwoSheet),
		resolver.WithLogger(a.log))
}
