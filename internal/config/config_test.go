package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, info, err := LoadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if info.Found || info.PortSpecified {
		t.Fatalf("info=%+v", info)
	}
	if cfg.Server.Port != 8501 || cfg.Conversion.Attempts != 3 || cfg.Document.FormCode != "JV-GTH-F-111" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.Document.Employers) != 4 || !cfg.Document.Employers[0].Marked {
		t.Fatalf("employers=%+v", cfg.Document.Employers)
	}
}

func TestLoadFileOverridesAndEnv(t *testing.T) {
	dir := t.TempDir()
	toml := `
[server]
port = 9000

[catalog]
path = "cursos.yaml"
part_two_sheet = 20

[document]
registrar_name = "Quispe, Rosa"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvSofficePath+"=/opt/lo/soffice\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvSofficePath, "")
	os.Unsetenv(EnvSofficePath)
	t.Setenv(EnvSignaturesDir, "/srv/firmas")

	cfg, info, err := LoadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !info.Found || !info.PortSpecified || !info.EnvFile {
		t.Fatalf("info=%+v", info)
	}
	if cfg.Server.Port != 9000 || cfg.Catalog.PartTwoSheet != 20 {
		t.Fatalf("server/catalog=%+v %+v", cfg.Server, cfg.Catalog)
	}
	if cfg.Document.RegistrarName != "Quispe, Rosa" || cfg.Document.FormCode != "JV-GTH-F-111" {
		t.Fatalf("document=%+v", cfg.Document)
	}
	if cfg.Conversion.SofficePath != "/opt/lo/soffice" {
		t.Fatalf("soffice=%q, want value from .env", cfg.Conversion.SofficePath)
	}
	if cfg.Document.SignaturesDir != "/srv/firmas" {
		t.Fatalf("signatures=%q", cfg.Document.SignaturesDir)
	}
	if got := cfg.Path(cfg.Catalog.Path); got != filepath.Join(dir, "cursos.yaml") {
		t.Fatalf("catalog path=%q", got)
	}
}

func TestLoadFileRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("[conversion]\nattempts = 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadFile(filepath.Join(dir, FileName)); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestEnsureDataDir(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.BaseDir = dir

	dataDir, err := EnsureDataDir(cfg)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	for _, sub := range []string{"uploads", "exports", "signatures"} {
		if st, err := os.Stat(filepath.Join(dataDir, sub)); err != nil || !st.IsDir() {
			t.Fatalf("missing %s: %v", sub, err)
		}
	}
	if cfg.Document.SignaturesDir != filepath.Join(dir, "data", "signatures") {
		t.Fatalf("signatures=%q", cfg.Document.SignaturesDir)
	}
}
