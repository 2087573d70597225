package resolver_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/catalog"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/model"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/resolver"
)

var testCourses = []string{
	"IPERC, mapa de riesgos y procedimientos PETS",
	"IPERC, mapa de riesgos y procedimientos PETS (Parte 02)",
	"Salud ocupacional y estilo de vida saludable",
	"Seguridad y prevención en el puesto de trabajo",
	"Prevención de delitos de comercio internacional",
	"Personas y vehículos sospechosos",
	"Legislación y seguridad privada",
	"Normas y procedimientos de seguridad",
	"Fundamentos de SGI - 2025",
	"Fundamentos del Sistema Integrado de Gestión",
	"Eventos indeseables, perturbadores y lugares hostiles",
	"Armas: conocimiento y manipulación",
}

func buildCatalog(t *testing.T, names []string, opts ...catalog.Option) *catalog.Catalog {
	t.Helper()
	entries := make([]model.CatalogEntry, 0, len(names))
	for _, n := range names {
		entries = append(entries, model.CatalogEntry{Name: n, Duration: "00:30:00", Trainer: "T"})
	}
	c, err := catalog.New(entries, opts...)
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	return c
}

func TestResolve(t *testing.T) {
	t.Parallel()

	r := resolver.New(buildCatalog(t, testCourses))

	cases := []struct {
		label  string
		want   string
		method model.MatchMethod
	}{
		{"1_IPERC, mapa de riesgos y pr", "IPERC, mapa de riesgos y procedimientos PETS", model.MatchExactPrefix},
		{"14_IPERC, mapa de riesgos y pro", "IPERC, mapa de riesgos y procedimientos PETS (Parte 02)", model.MatchExactPrefix},
		{"3_Salud ocupacional y estilo de", "Salud ocupacional y estilo de vida saludable", model.MatchExactPrefix},
		{"2_Seguridad y prevención en el", "Seguridad y prevención en el puesto de trabajo", model.MatchExactPrefix},
		{"Prevención de delitos de comer", "Prevención de delitos de comercio internacional", model.MatchExactPrefix},
		{"Personas y vehículos sospechoso", "Personas y vehículos sospechosos", model.MatchExactPrefix},
		{"Fundamentos de SGI - 2025", "Fundamentos de SGI - 2025", model.MatchExactPrefix},
		{"8_Eventos Indeseables y disturb", "Eventos indeseables, perturbadores y lugares hostiles", model.MatchAlias},
		{"armas_ conocimiento y manipu", "Armas: conocimiento y manipulación", model.MatchAlias},
		{"12_salud ocupacional y estilo", "Salud ocupacional y estilo de vida saludable", model.MatchKeyword},
		{"5_IPERC, mapa de riesgos (Parte 02)", "IPERC, mapa de riesgos y procedimientos PETS (Parte 02)", model.MatchKeyword},
		{"Legislacion y seguridad privad", "Legislación y seguridad privada", model.MatchFuzzy},
	}

	for _, tc := range cases {
		got := r.Resolve(tc.label)
		if got.CanonicalName != tc.want {
			t.Fatalf("Resolve(%q)=%q, want %q", tc.label, got.CanonicalName, tc.want)
		}
		if got.Method != tc.method {
			t.Fatalf("Resolve(%q) method=%s, want %s", tc.label, got.Method, tc.method)
		}
		if got.Entry.Name != tc.want || got.Entry.Duration != "00:30:00" {
			t.Fatalf("Resolve(%q) entry=%+v", tc.label, got.Entry)
		}
	}
}

func TestResolveUnmatched(t *testing.T) {
	t.Parallel()

	r := resolver.New(buildCatalog(t, testCourses))

	label := "7_Curso de repostería avanzada"
	got := r.Resolve(label)
	if got.Method != model.MatchUnmatched || got.Matched() {
		t.Fatalf("method=%s, want unmatched", got.Method)
	}
	if got.CanonicalName != label {
		t.Fatalf("canonical=%q, want raw label", got.CanonicalName)
	}
	if got.Entry.Topic != "Curso no encontrado" || got.Entry.Duration != "00:00:00" || got.Entry.Name != label {
		t.Fatalf("unexpected default entry: %+v", got.Entry)
	}
	if got.SheetOrder != 7 || got.SheetOrderPrefix != "7_" {
		t.Fatalf("prefix=%q order=%d", got.SheetOrderPrefix, got.SheetOrder)
	}

	for _, empty := range []string{"", "14_", "___"} {
		if got := r.Resolve(empty); got.Method != model.MatchUnmatched || got.CanonicalName != empty {
			t.Fatalf("Resolve(%q)=%+v, want unmatched", empty, got)
		}
	}
}

func TestResolveDeterministic(t *testing.T) {
	t.Parallel()

	c := buildCatalog(t, testCourses)
	labels := []string{"14_IPERC, mapa de riesgos y pro", "armas_ conocimiento y manipu", "Legislacion y seguridad privad", "xyz"}

	a := resolver.New(c)
	b := resolver.New(c)
	for _, l := range labels {
		first := a.Resolve(l)
		if diff := cmp.Diff(first, a.Resolve(l)); diff != "" {
			t.Fatalf("cached resolve differs for %q:\n%s", l, diff)
		}
		if diff := cmp.Diff(first, b.Resolve(l)); diff != "" {
			t.Fatalf("independent resolve differs for %q:\n%s", l, diff)
		}
	}
}

func TestAliasRequiresCatalogTarget(t *testing.T) {
	t.Parallel()

	names := []string{"Personas y vehículos sospechosos"}
	r := resolver.New(buildCatalog(t, names))
	if got := r.Resolve("armas_ conocimiento y manipu"); got.Method != model.MatchUnmatched {
		t.Fatalf("method=%s, want unmatched when alias target missing", got.Method)
	}
}

func TestCatalogAliasesTakePrecedence(t *testing.T) {
	t.Parallel()

	c := buildCatalog(t, []string{"Primeros auxilios básicos", "Primeros auxilios avanzados"},
		catalog.WithAliases(catalog.Alias{Pattern: "primeros aux", Target: "Primeros auxilios avanzados"}))
	got := resolver.New(c).Resolve("Primeros auxílios")
	if got.CanonicalName != "Primeros auxilios avanzados" || got.Method != model.MatchAlias {
		t.Fatalf("got %q via %s", got.CanonicalName, got.Method)
	}
}

func TestAliasBeatsExactPrefix(t *testing.T) {
	t.Parallel()

	c := buildCatalog(t, []string{"Protocolos y procedimientos de limpieza", "Protocolos y procedimientos de agente parking o valet parking"})
	got := resolver.New(c).Resolve("9_Protocolos y procedimientos de")
	if got.CanonicalName != "Protocolos y procedimientos de agente parking o valet parking" || got.Method != model.MatchAlias {
		t.Fatalf("got %q via %s", got.CanonicalName, got.Method)
	}
}

func TestExactPrefixTieBreaks(t *testing.T) {
	t.Parallel()

	c := buildCatalog(t, []string{
		"Primeros auxilios - 2024",
		"Primeros auxilios en el trabajo",
		"Primeros auxilios",
		"Primeros auxilios - 2025",
	})
	r := resolver.New(c)

	cases := map[string]string{
		"Primeros auxilios":        "Primeros auxilios",
		"Primeros auxilios - 2025": "Primeros auxilios - 2025",
		"Primeros aux":             "Primeros auxilios",
		// 请求了不存在的第二部分：回到第一个候选
		"20_Primeros aux": "Primeros auxilios - 2024",
	}
	for label, want := range cases {
		if got := r.Resolve(label).CanonicalName; got != want {
			t.Fatalf("Resolve(%q)=%q, want %q", label, got, want)
		}
	}

	// 阈值关闭后高序号不再代表第二部分
	off := resolver.New(c, resolver.WithPartTwoSheet(0))
	if got := off.Resolve("20_Primeros aux").CanonicalName; got != "Primeros auxilios" {
		t.Fatalf("with threshold off got %q", got)
	}
}

func TestStrategyOrderIsConfigurable(t *testing.T) {
	t.Parallel()

	c := buildCatalog(t, testCourses)
	r := resolver.New(c, resolver.WithStrategies(resolver.FuzzyStrategy{Threshold: 0.9}))
	got := r.Resolve("3_Salud ocupacional y estilo de")
	if got.Method != model.MatchFuzzy {
		t.Fatalf("method=%s, want fuzzy", got.Method)
	}
}

func TestParseLabel(t *testing.T) {
	t.Parallel()

	q := resolver.ParseLabel("14_IPERC, mapa", resolver.DefaultPartTwoSheet)
	if q.Prefix != "14_" || q.SheetOrder != 14 || q.Cleaned != "IPERC, mapa" || !q.WantsPartTwo {
		t.Fatalf("unexpected query: %+v", q)
	}
	q = resolver.ParseLabel("IPERC parte 2", resolver.DefaultPartTwoSheet)
	if q.SheetOrder != -1 || !q.WantsPartTwo {
		t.Fatalf("unexpected query: %+v", q)
	}
	q = resolver.ParseLabel("007_Fundamentos 2025", resolver.DefaultPartTwoSheet)
	if q.SheetOrder != 7 || q.WantsPartTwo || q.Year != "2025" {
		t.Fatalf("unexpected query: %+v", q)
	}
}

func TestRatio(t *testing.T) {
	t.Parallel()

	if got := resolver.Ratio("abcd", "abce"); math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("Ratio=%v, want 0.75", got)
	}
	if got := resolver.Ratio("legislación", "legislación"); got != 1 {
		t.Fatalf("Ratio identical=%v, want 1", got)
	}
}
