package assembler

import (
	"errors"
	"testing"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/catalog"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/model"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/resolver"
)

type fakeSource map[string][]model.GradeRecord

func (f fakeSource) LoadGrades(sheet string) ([]model.GradeRecord, error) {
	g, ok := f[sheet]
	if !ok {
		return nil, errors.New("sheet not found")
	}
	return g, nil
}

func strp(s string) *string { return &s }

func newAssembler(t *testing.T, src GradeSource) *Assembler {
	t.Helper()
	c := catalog.MustNew([]model.CatalogEntry{
		{Name: "Salud ocupacional y estilo de vida saludable", Duration: "00:30:00", Topic: "Salud"},
		{Name: "Curso roto", Duration: "media hora"},
	})
	return New(resolver.New(c), src, nil)
}

func TestAssembleSumsDurations(t *testing.T) {
	t.Parallel()

	src := fakeSource{"3_Salud ocupacional y estilo de": {
		{ID: "123456", Score: "18", ExamDate: "02/10/2025", ConnectionDuration: "00:45:00"},
		{ID: "22222222", Score: "11", ConnectionDuration: "cuarenta"},
	}}
	a := newAssembler(t, src)

	roster := []model.RosterRecord{
		{ID: "00123456", Name: strp("Pérez, Ana"), Unit: strp("Banco Norte")},
		{ID: "22222222", Name: strp("Ríos, Luis"), Unit: strp("Mina")},
		{ID: "33333333"},
	}
	rc := a.Resolve("3_Salud ocupacional y estilo de")
	data := a.Assemble(rc, roster)

	if !data.GradesLoaded {
		t.Fatalf("grades not loaded")
	}
	if data.Detail.Topic != "Salud" {
		t.Fatalf("detail=%+v", data.Detail)
	}
	wantTotals := []string{"01:15:00", "00:30:00", "00:30:00"}
	for i, w := range wantTotals {
		if got := data.Rows[i].TotalDuration; got != w {
			t.Fatalf("row %d total=%q, want %q", i, got, w)
		}
	}
	if data.Unit() != "Banco Norte" {
		t.Fatalf("unit=%q", data.Unit())
	}
	if len(data.Warnings) != 1 || data.Warnings[0].Kind != model.WarnDurationFormat {
		t.Fatalf("warnings=%+v", data.Warnings)
	}
}

func TestAssembleMissingSheet(t *testing.T) {
	t.Parallel()

	a := newAssembler(t, fakeSource{})
	rc := a.Resolve("3_Salud ocupacional y estilo de")
	data := a.Assemble(rc, []model.RosterRecord{{ID: "1"}})

	if data.GradesLoaded {
		t.Fatalf("GradesLoaded=true for missing sheet")
	}
	if len(data.Rows) != 1 || data.Rows[0].Score != "" || data.Rows[0].TotalDuration != "00:30:00" {
		t.Fatalf("rows=%+v", data.Rows)
	}
	if len(data.Warnings) != 1 || data.Warnings[0].Kind != model.WarnDataLoadError || data.Warnings[0].Course != "3_Salud ocupacional y estilo de" {
		t.Fatalf("warnings=%+v", data.Warnings)
	}
	if data.Unit() != "Sin_Unidad" {
		t.Fatalf("unit=%q", data.Unit())
	}
}

func TestAssembleBadCatalogDuration(t *testing.T) {
	t.Parallel()

	a := newAssembler(t, fakeSource{"Curso roto": {{ID: "1", ConnectionDuration: "00:05:00"}}})
	data := a.Assemble(a.Resolve("Curso roto"), []model.RosterRecord{{ID: "1"}})
	if got := data.Rows[0].TotalDuration; got != "00:05:00" {
		t.Fatalf("total=%q, want connection only", got)
	}
	if len(data.Warnings) != 1 || data.Warnings[0].Kind != model.WarnDurationFormat {
		t.Fatalf("warnings=%+v", data.Warnings)
	}
}

func TestAssembleUnmatchedCourse(t *testing.T) {
	t.Parallel()

	a := newAssembler(t, fakeSource{"Repostería": nil})
	data := a.Assemble(a.Resolve("Repostería"), []model.RosterRecord{{ID: "1"}})
	if data.Resolved.Matched() {
		t.Fatalf("expected unmatched")
	}
	if data.Detail.Topic != "Curso no encontrado" || data.Rows[0].TotalDuration != "00:00:00" {
		t.Fatalf("detail=%+v rows=%+v", data.Detail, data.Rows)
	}
	if len(data.Warnings) != 1 || data.Warnings[0].Kind != model.WarnResolutionMiss {
		t.Fatalf("warnings=%+v", data.Warnings)
	}
}
