package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/model"
)

func newResolveCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve <hoja>...",
		Short: "Muestra el curso del catálogo que corresponde a cada nombre de hoja",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.loadCatalog()
			if err != nil {
				return err
			}
			r := a.newResolver(cat)

			results := make([]model.ResolvedCourse, 0, len(args))
			for _, label := range args {
				results = append(results, r.Resolve(label))
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "HOJA\tMÉTODO\tCURSO\tDURACIÓN")
			for _, rc := range results {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rc.RawLabel, rc.Method, rc.CanonicalName, rc.Entry.Duration)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Salida en JSON")
	return cmd
}

func newCatalogCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Lista los cursos del catálogo",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := a.loadCatalog()
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cat.Entries())
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tCURSO\tDURACIÓN\tCAPACITADOR")
			for i, e := range cat.Entries() {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, e.Name, e.Duration, e.Trainer)
			}
			fmt.Fprintf(tw, "\t%d curso(s)\t\t\n", cat.Len())
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Salida en JSON")
	return cmd
}
