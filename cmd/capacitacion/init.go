package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/config"
)

func newInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Escribe config.toml con los valores por defecto",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := filepath.Join(a.cfg.BaseDir, config.FileName)
			if a.info.Found && !force {
				return fmt.Errorf("%s ya existe (use --force para sobrescribir)", path)
			}
			if err := config.SaveConfig(a.cfg); err != nil {
				return fmt.Errorf("guardar configuración: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuración escrita en %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Sobrescribir un config.toml existente")
	return cmd
}
