package parser_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/model"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/parser"
)

func workbookBytes(t *testing.T, build func(f *excelize.File)) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })
	build(f)
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func setRow(t *testing.T, f *excelize.File, sheet, cell string, values []any) {
	t.Helper()
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		t.Fatalf("set row %s!%s: %v", sheet, cell, err)
	}
}

func TestParseRosterDetectsHeaderRow(t *testing.T) {
	t.Parallel()

	r := workbookBytes(t, func(f *excelize.File) {
		setRow(t, f, "Sheet1", "A1", []any{"REPORTE DE PERSONAL"})
		setRow(t, f, "Sheet1", "A2", []any{"Fecha de corte", "15/10/2025"})
		setRow(t, f, "Sheet1", "A4", []any{"ITEM", "Documento", "Apellidos y Nombres", "Unidad"})
		setRow(t, f, "Sheet1", "A5", []any{1, "00123456", "Pérez Gómez, Ana", "Banco Norte"})
		setRow(t, f, "Sheet1", "A6", []any{2, 7654321, "Ríos Vega, Luis", ""})
		setRow(t, f, "Sheet1", "A7", []any{3, "", "Sin documento", "X"})
		setRow(t, f, "Sheet1", "A8", []any{4, "123456", "Duplicado", "Y"})
	})

	d, err := parser.ParseRoster(r, parser.RosterOptions{})
	if err != nil {
		t.Fatalf("ParseRoster: %v", err)
	}
	if d.Layout.Row != 3 {
		t.Fatalf("header row=%d, want 3", d.Layout.Row)
	}
	if got, want := d.Len(), 2; got != want {
		t.Fatalf("records=%d, want %d", got, want)
	}
	if d.Result.SkippedRows != 2 || len(d.Result.Errors) != 1 {
		t.Fatalf("result=%+v", d.Result)
	}

	rec, ok := d.Find("123456")
	if !ok || rec.NameOrEmpty() != "Pérez Gómez, Ana" || rec.UnitOrEmpty() != "Banco Norte" {
		t.Fatalf("Find(123456)=%+v ok=%v", rec, ok)
	}
	rec, ok = d.Find("07654321")
	if !ok || rec.Unit != nil {
		t.Fatalf("Find(07654321)=%+v ok=%v, want nil unit", rec, ok)
	}
}

func TestParseRosterMissingIDColumn(t *testing.T) {
	t.Parallel()

	r := workbookBytes(t, func(f *excelize.File) {
		setRow(t, f, "Sheet1", "A1", []any{"Nombre", "Unidad"})
	})
	_, err := parser.ParseRoster(r, parser.RosterOptions{})
	if !errors.Is(err, parser.ErrColumnNotFound) {
		t.Fatalf("err=%v, want ErrColumnNotFound", err)
	}
}

func TestSelectAndOverrides(t *testing.T) {
	t.Parallel()

	name := "Pérez, Ana"
	unit := "Banco"
	d := parser.NewDirectory([]model.RosterRecord{{ID: "00123456", Name: &name, Unit: &unit}})

	selected := d.Select([]string{"123456", "99999999"})
	if len(selected) != 2 {
		t.Fatalf("selected=%d, want 2", len(selected))
	}
	if selected[0].ID != "123456" || selected[0].NameOrEmpty() != name {
		t.Fatalf("selected[0]=%+v", selected[0])
	}
	if selected[1].Name != nil || selected[1].Unit != nil {
		t.Fatalf("selected[1] should be incomplete: %+v", selected[1])
	}
	if got := parser.Incomplete(selected); len(got) != 1 || got[0].ID != "99999999" {
		t.Fatalf("Incomplete=%+v", got)
	}

	done := parser.ApplyOverrides(selected, []parser.Override{{ID: "99999999", Name: "Nuevo, Juan", Unit: "Mina Sur"}})
	if len(parser.Incomplete(done)) != 0 {
		t.Fatalf("overrides not applied: %+v", done)
	}
	if selected[1].Name != nil {
		t.Fatalf("ApplyOverrides mutated its input")
	}

	completed := d.Complete([]string{"99999999", "123456"}, []parser.Override{{ID: "99999999", Unit: "Mina Sur"}})
	if completed[0].UnitOrEmpty() != "Mina Sur" || completed[0].Name != nil {
		t.Fatalf("completed[0]=%+v", completed[0])
	}
	if completed[1].NameOrEmpty() != name {
		t.Fatalf("completed[1]=%+v", completed[1])
	}
}

func TestGradebookLoadGrades(t *testing.T) {
	t.Parallel()

	exam := time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)
	r := workbookBytes(t, func(f *excelize.File) {
		if err := f.SetSheetName("Sheet1", "1_IPERC, mapa de riesgos y pr"); err != nil {
			t.Fatalf("rename sheet: %v", err)
		}
		if _, err := f.NewSheet("2_Sin columnas"); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		s := "1_IPERC, mapa de riesgos y pr"
		setRow(t, f, s, "A1", []any{"DNI", "NOTA", "FECHA DEL EXAMEN", "DURACIÓN"})
		setRow(t, f, s, "A2", []any{123456, 18, exam, 0.03125})
		setRow(t, f, s, "A3", []any{"87654321", 15.5, "14/10/2025", "00:20:00"})
		setRow(t, f, s, "A4", []any{"", 20, "", ""})
		setRow(t, f, "2_Sin columnas", "A1", []any{"NOMBRE", "NOTA"})
	})

	g, err := parser.OpenGradebook(r)
	if err != nil {
		t.Fatalf("OpenGradebook: %v", err)
	}
	t.Cleanup(func() { _ = g.Close() })

	if got := g.Courses(); len(got) != 2 || got[0] != "1_IPERC, mapa de riesgos y pr" {
		t.Fatalf("courses=%v", got)
	}

	grades, err := g.LoadGrades("1_IPERC, mapa de riesgos y pr")
	if err != nil {
		t.Fatalf("LoadGrades: %v", err)
	}
	want := []model.GradeRecord{
		{ID: "123456", Score: "18", ExamDate: "15/10/2025", ConnectionDuration: "00:45:00"},
		{ID: "87654321", Score: "15.5", ExamDate: "14/10/2025", ConnectionDuration: "00:20:00"},
	}
	if len(grades) != len(want) {
		t.Fatalf("grades=%+v", grades)
	}
	for i := range want {
		if grades[i] != want[i] {
			t.Fatalf("grades[%d]=%+v, want %+v", i, grades[i], want[i])
		}
	}

	if _, err := g.LoadGrades("2_Sin columnas"); !errors.Is(err, parser.ErrColumnNotFound) {
		t.Fatalf("err=%v, want ErrColumnNotFound", err)
	}
	if _, err := g.LoadGrades("no existe"); !errors.Is(err, parser.ErrSheetNotFound) {
		t.Fatalf("err=%v, want ErrSheetNotFound", err)
	}
}
