package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/config"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/convert"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/exporter"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/ident"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/model"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/parser"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/pipeline"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/server"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/store"
)

type generateOptions struct {
	roster      string
	rosterSheet string
	gradebook   string
	ids         string
	idsFile     string
	courses     []string
	groups      []string
	overrides   []string
	format      string
	out         string
}

func newGenerateCmd(a *app) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Genera los formatos de los cursos seleccionados y los comprime",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.generate(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.roster, "roster", "", "Excel con el personal (DOCUMENTO, APELLIDOS Y NOMBRES, UNIDAD)")
	f.StringVar(&opts.rosterSheet, "roster-sheet", "", "Hoja del personal (por defecto la primera)")
	f.StringVar(&opts.gradebook, "gradebook", "", "Excel maestro de notas, una hoja por curso")
	f.StringVar(&opts.ids, "ids", "", "DNIs separados por saltos de línea, comas o espacios (vacío: todo el personal)")
	f.StringVar(&opts.idsFile, "ids-file", "", "Archivo de texto con los DNIs")
	f.StringArrayVar(&opts.courses, "course", nil, "Hoja del curso, repetible (vacío: todas las hojas)")
	f.StringArrayVar(&opts.groups, "group", nil, `Grupo "Categoría=hoja1|hoja2", repetible; cada grupo genera su propio zip`)
	f.StringArrayVar(&opts.overrides, "override", nil, `Completar datos "DNI|Nombre|Unidad", repetible`)
	f.StringVar(&opts.format, "format", string(model.OutputExcel), "excel, pdf o both")
	f.StringVarP(&opts.out, "out", "o", ".", "Directorio de salida")
	_ = cmd.MarkFlagRequired("roster")
	_ = cmd.MarkFlagRequired("gradebook")
	return cmd
}

// parseGroups 解析 "分类=标签1|标签2"；工作表名本身可能含逗号，因此用竖线分隔
func parseGroups(values []string) ([]pipeline.Group, error) {
	groups := make([]pipeline.Group, 0, len(values))
	for _, v := range values {
		category, list, ok := strings.Cut(v, "=")
		category = strings.TrimSpace(category)
		if !ok || category == "" {
			return nil, fmt.Errorf("grupo inválido %q, se espera Categoría=hoja1|hoja2", v)
		}
		g := pipeline.Group{Category: category}
		for _, c := range strings.Split(list, "|") {
			if c = strings.TrimSpace(c); c != "" {
				g.Courses = append(g.Courses, c)
			}
		}
		if len(g.Courses) == 0 {
			return nil, fmt.Errorf("el grupo %q no tiene cursos", category)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// parseOverrides 解析 "证件号|姓名|单位"，姓名或单位可以留空
func parseOverrides(values []string) ([]parser.Override, error) {
	out := make([]parser.Override, 0, len(values))
	for _, v := range values {
		parts := strings.Split(v, "|")
		if len(parts) < 2 || len(parts) > 3 || ident.Clean(parts[0]) == "" {
			return nil, fmt.Errorf("dato inválido %q, se espera DNI|Nombre|Unidad", v)
		}
		ov := parser.Override{ID: ident.Clean(parts[0]), Name: strings.TrimSpace(parts[1])}
		if len(parts) == 3 {
			ov.Unit = strings.TrimSpace(parts[2])
		}
		out = append(out, ov)
	}
	return out, nil
}

func (a *app) generate(cmd *cobra.Command, opts generateOptions) error {
	format := model.OutputFormat(strings.ToLower(opts.format))
	if !format.Valid() {
		return fmt.Errorf("formato desconocido %q", opts.format)
	}
	groups, err := parseGroups(opts.groups)
	if err != nil {
		return err
	}
	overrides, err := parseOverrides(opts.overrides)
	if err != nil {
		return err
	}

	idsText := opts.ids
	if opts.idsFile != "" {
		b, err := os.ReadFile(opts.idsFile)
		if err != nil {
			return err
		}
		idsText += "\n" + string(b)
	}

	dataDir, err := config.EnsureDataDir(a.cfg)
	if err != nil {
		return fmt.Errorf("crear directorio de datos: %w", err)
	}

	var (
		directory *parser.Directory
		gradebook *parser.Gradebook
		g         errgroup.Group
	)
	g.Go(func() error {
		f, err := os.Open(opts.roster)
		if err != nil {
			return err
		}
		defer f.Close()
		directory, err = parser.ParseRoster(f, parser.RosterOptions{Sheet: opts.rosterSheet})
		return err
	})
	g.Go(func() error {
		f, err := os.Open(opts.gradebook)
		if err != nil {
			return err
		}
		defer f.Close()
		gradebook, err = parser.OpenGradebook(f)
		return err
	})
	if err := g.Wait(); err != nil {
		if gradebook != nil {
			_ = gradebook.Close()
		}
		return err
	}
	defer gradebook.Close()

	ids := ident.ParseList(idsText)
	if len(ids) == 0 {
		for _, r := range directory.Records() {
			ids = append(ids, r.ID)
		}
	}
	roster := directory.Complete(ids, overrides)

	out := cmd.OutOrStdout()
	for _, r := range parser.Incomplete(roster) {
		fmt.Fprintf(out, "aviso: DNI %s sin nombre o unidad (use --override)\n", r.ID)
	}

	courses := opts.courses
	if len(courses) == 0 && len(groups) == 0 {
		courses = gradebook.Courses()
	}

	cat, err := a.loadCatalog()
	if err != nil {
		return err
	}

	pipeOpts := []pipeline.Option{
		pipeline.WithLogger(a.log),
		pipeline.WithTempDir(filepath.Join(dataDir, "uploads")),
	}
	policy := pipeline.DefaultRetryPolicy()
	policy.Attempts = a.cfg.Conversion.Attempts
	pipeOpts = append(pipeOpts, pipeline.WithRetryPolicy(policy))
	if a.cfg.Conversion.Enabled {
		pipeOpts = append(pipeOpts, pipeline.WithConverter(
			convert.NewLibreOffice(a.cfg.Conversion.SofficePath, a.cfg.Conversion.Timeout(), a.log)))
	}
	if a.cfg.Data.History {
		st, err := store.New(filepath.Join(dataDir, server.DBFileName))
		if err != nil {
			a.log.Warn("运行历史不可用", zap.Error(err))
		} else {
			defer st.Close()
			pipeOpts = append(pipeOpts, pipeline.WithRecorder(st))
		}
	}

	renderer := exporter.NewRenderer(a.cfg.Document, exporter.WithLogger(a.log))
	orch := pipeline.New(a.newResolver(cat), renderer, pipeOpts...)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, runErr := orch.Run(ctx, pipeline.Request{
		Courses:  courses,
		Groups:   groups,
		Roster:   roster,
		Grades:   gradebook,
		Format:   format,
		Progress: progressPrinter(out),
	})
	if res == nil {
		return runErr
	}

	if err := os.MkdirAll(opts.out, 0755); err != nil {
		return err
	}
	for _, arc := range res.Archives {
		path := filepath.Join(opts.out, arc.Name)
		if err := os.WriteFile(path, arc.Data, 0644); err != nil {
			return fmt.Errorf("escribir %s: %w", path, err)
		}
		fmt.Fprintf(out, "zip: %s (%d archivo(s))\n", path, len(arc.Entries))
	}

	printSummary(out, res)
	if errors.Is(runErr, pipeline.ErrNothingPackaged) {
		return runErr
	}
	return nil
}

func progressPrinter(w io.Writer) func(pipeline.ProgressEvent) {
	return func(ev pipeline.ProgressEvent) {
		switch ev.Type {
		case pipeline.EventCourseDone:
			if p, ok := ev.Data.(pipeline.CourseProgress); ok {
				fmt.Fprintf(w, "[%d/%d] %3d%% %s\n", p.Index, p.Total, p.Percent, ev.Message)
			}
		case pipeline.EventWarning:
			fmt.Fprintf(w, "aviso: %s\n", ev.Message)
		}
	}
}

func printSummary(w io.Writer, res *pipeline.Result) {
	s := res.Summary
	fmt.Fprintf(w, "\nCursos: %d  empaquetados: %d  fallidos: %d  avisos: %d\n",
		s.Courses, s.Packaged, s.Failed, len(res.Warnings))
	if s.Cancelled {
		fmt.Fprintln(w, "Generación cancelada; se guardó lo completado.")
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "  - %s\n", warn)
	}
}
