package exporter_test

import (
	"bytes"
	"image/color"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/xuri/excelize/v2"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/exporter"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/model"
)

var fixedNow = func() time.Time { return time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC) }

func sampleDetail() model.CatalogEntry {
	return model.CatalogEntry{
		Name:     "IPERC, mapa de riesgos y procedimientos PETS",
		Topic:    "Identificación de peligros",
		Trainer:  "Ing. Carlos Huamán",
		Duration: "00:45:00",
		Content:  "IPERC línea base\nMapa de riesgos",
		Material: "https://capacitacion.example.pe/iperc",
	}
}

func sampleRows() []model.CourseRow {
	return []model.CourseRow{
		{SequenceNo: 1, Name: "Pérez Gómez, Ana", ID: "00123456", Unit: "Banco Norte", Score: "18", ExamDate: "15/10/2025", TotalDuration: "00:55:00"},
		{SequenceNo: 2, Name: "Ríos Vega, Luis", ID: "07654321", Unit: "Banco Norte", Score: "", ExamDate: "", TotalDuration: "00:45:00"},
	}
}

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open rendered workbook: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func cellValue(t *testing.T, f *excelize.File, sheet, axis string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, axis)
	if err != nil {
		t.Fatalf("GetCellValue(%s): %v", axis, err)
	}
	return v
}

func TestRenderLayout(t *testing.T) {
	t.Parallel()

	doc := exporter.DefaultDocument()
	r := exporter.NewRenderer(doc, exporter.WithClock(fixedNow))
	data, err := r.Render(sampleRows(), sampleDetail())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	f := open(t, data)
	sheet := f.GetSheetName(0)
	if want := exporter.SheetTitle(sampleDetail().Name); sheet != want {
		t.Fatalf("sheet=%q, want %q", sheet, want)
	}

	checks := map[string]string{
		"I1":  "JV-GTH-F-111",
		"B7":  "J&V RESGUARDO SAC",
		"A7":  "X",
		"C11": "Identificación de peligros",
		"C13": "Ing. Carlos Huamán",
		"H13": "00:45:00",
		"H15": "2",
		"B16": "Apellidos y Nombres",
		"B17": "Pérez Gómez, Ana",
		"C18": "07654321",
		"E17": "18",
		"G17": "00:55:00",
		"A19": "Responsable del Registro:",
		"G21": "16/10/2026",
	}
	for axis, want := range checks {
		if got := cellValue(t, f, sheet, axis); got != want {
			t.Fatalf("%s=%q, want %q", axis, got, want)
		}
	}
	if !strings.HasPrefix(cellValue(t, f, sheet, "C1"), "FORMATO") {
		t.Fatalf("C1 title missing")
	}
	if got := cellValue(t, f, sheet, "A20"); !strings.Contains(got, doc.RegistrarName) {
		t.Fatalf("A20=%q, want registrar name", got)
	}

	merges, err := f.GetMergeCells(sheet)
	if err != nil {
		t.Fatalf("GetMergeCells: %v", err)
	}
	found := false
	for _, m := range merges {
		if m.GetStartAxis() == "H17" && m.GetEndAxis() == "I17" {
			found = true
		}
	}
	if !found {
		t.Fatalf("observation cells H17:I17 not merged")
	}

	var area string
	for _, dn := range f.GetDefinedName() {
		if dn.Name == "_xlnm.Print_Area" {
			area = dn.RefersTo
		}
	}
	if want := "'" + sheet + "'!$A$1:$I$21"; area != want {
		t.Fatalf("print area=%q, want %q", area, want)
	}
}

func TestRenderEmptyRoster(t *testing.T) {
	t.Parallel()

	r := exporter.NewRenderer(exporter.DefaultDocument(), exporter.WithClock(fixedNow))
	data, err := r.Render(nil, sampleDetail())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	f := open(t, data)
	sheet := f.GetSheetName(0)
	if got := cellValue(t, f, sheet, "H15"); got != "0" {
		t.Fatalf("H15=%q, want 0", got)
	}
	if got := cellValue(t, f, sheet, "A17"); got != "Responsable del Registro:" {
		t.Fatalf("A17=%q, want footer right after headers", got)
	}
}

func writePNG(t *testing.T, dir, name string, w, h int) {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 20, G: 20, B: 120, A: 255})
	if err := imaging.Save(img, filepath.Join(dir, name)); err != nil {
		t.Fatalf("save %s: %v", name, err)
	}
}

func TestRenderSignatures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePNG(t, dir, "firma_a.png", 250, 100)
	writePNG(t, dir, "firma_b.png", 120, 60)
	writePNG(t, dir, "firma_eliana.png", 250, 100)

	doc := exporter.DefaultDocument()
	doc.SignaturesDir = dir
	doc.DefaultSignature = ""

	cases := []struct {
		name string
		ids  []string
		want int
	}{
		{"single", []string{"firma_a"}, 1},
		{"pair", []string{"firma_a", "firma_b.png"}, 2},
		{"one missing of pair", []string{"firma_a", "no_existe"}, 1},
		{"missing", []string{"no_existe"}, 0},
	}
	r := exporter.NewRenderer(doc, exporter.WithClock(fixedNow))
	for _, tc := range cases {
		detail := sampleDetail()
		detail.SignatureIDs = tc.ids
		data, err := r.Render(sampleRows(), detail)
		if err != nil {
			t.Fatalf("%s: Render: %v", tc.name, err)
		}
		f := open(t, data)
		sheet := f.GetSheetName(0)
		pics, err := f.GetPictures(sheet, "F13")
		if err != nil {
			t.Fatalf("%s: GetPictures: %v", tc.name, err)
		}
		if len(pics) != tc.want {
			t.Fatalf("%s: pictures=%d, want %d", tc.name, len(pics), tc.want)
		}
		registrar, err := f.GetPictures(sheet, "G20")
		if err != nil || len(registrar) != 1 {
			t.Fatalf("%s: registrar signature=%d err=%v", tc.name, len(registrar), err)
		}
	}
}

func TestSheetTitle(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Armas: conocimiento y manipulación":              "Armas - conocimiento y manipula",
		"IPERC, mapa de riesgos y procedimientos PETS":    "IPERC, mapa de riesgos y proced",
		"[]":                                              "Curso",
		"Normas y procedimientos de seguridad (Parte 02)": "Normas y procedimientos de segu",
	}
	for in, want := range cases {
		if got := exporter.SheetTitle(in); got != want {
			t.Fatalf("SheetTitle(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestContentRowHeight(t *testing.T) {
	t.Parallel()

	if got := exporter.ContentRowHeight("una línea"); got != 50 {
		t.Fatalf("short content height=%v, want 50", got)
	}
	if got := exporter.ContentRowHeight(strings.Repeat("línea\n", 10)); got != 175 {
		t.Fatalf("10 newlines height=%v, want 175", got)
	}
	if got := exporter.ContentRowHeight(strings.Repeat("x\n", 100)); got != 400 {
		t.Fatalf("long content height=%v, want 400", got)
	}
}
