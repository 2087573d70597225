package archive

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zip"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/model"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Armas: conocimiento y manipulación": "Armas - conocimiento y manipulación",
		"Fundamentos de SGI - 2025":          "Fundamentos de SGI - 2025",
		"a/b\\c":                             "a - b - c",
		"  x  [y]  ":                         "x - y",
		"tab\there\nnew":                     "tab here new",
		"--guiones--":                        "guiones",
		"a -- b":                             "a - b",
		"":                                   "",
	}
	for in, want := range cases {
		got := Sanitize(in)
		if got != want {
			t.Fatalf("Sanitize(%q)=%q, want %q", in, got, want)
		}
		if again := Sanitize(got); again != got {
			t.Fatalf("Sanitize not idempotent for %q: %q -> %q", in, got, again)
		}
	}
}

func TestSanitizeIdempotentOnTrickyInput(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"a:-:b", " - - ", "x|?*y", "IPERC, mapa (Parte 02)", "\x00ctrl\x1f", "ü / ñ"} {
		once := Sanitize(in)
		if twice := Sanitize(once); twice != once {
			t.Fatalf("Sanitize(%q)=%q, again=%q", in, once, twice)
		}
	}
}

func TestArtifactName(t *testing.T) {
	t.Parallel()

	if got := ArtifactName("Armas: conocimiento", "Banco / Norte", "xlsx"); got != "Armas - conocimiento - Banco - Norte.xlsx" {
		t.Fatalf("got %q", got)
	}
	if got := ArtifactName("Curso", "  ", ".pdf"); got != "Curso - Sin_Unidad.pdf" {
		t.Fatalf("got %q", got)
	}
}

func TestArchiveName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		format   model.OutputFormat
		category string
		want     string
	}{
		{model.OutputExcel, "", "Formatos_Capacitacion_Excel.zip"},
		{model.OutputPDF, "", "Formatos_Capacitacion_PDF.zip"},
		{model.OutputBoth, "", "Formatos_Capacitacion_Excel_PDF.zip"},
		{model.OutputPDF, "Seguridad y salud", "Formatos_Capacitacion_Seguridad_y_salud_PDF.zip"},
	}
	for _, tc := range cases {
		if got := ArchiveName(tc.format, tc.category); got != tc.want {
			t.Fatalf("ArchiveName(%s,%q)=%q, want %q", tc.format, tc.category, got, tc.want)
		}
	}
}

func TestWriterDedupesAndKeepsOrder(t *testing.T) {
	t.Parallel()

	w := NewWriter(time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC))
	for _, n := range []string{"b.xlsx", "a.xlsx", "b.xlsx", "b.xlsx"} {
		if _, err := w.Add(n, []byte(n)); err != nil {
			t.Fatalf("add %s: %v", n, err)
		}
	}
	data, err := w.Close()
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := w.Add("late.xlsx", nil); err == nil {
		t.Fatalf("expected error after close")
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	want := []string{"b.xlsx", "a.xlsx", "b (2).xlsx", "b (3).xlsx"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("entries (-want +got):\n%s", diff)
	}

	rc, err := zr.File[2].Open()
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "b.xlsx" {
		t.Fatalf("body=%q", body)
	}
}
