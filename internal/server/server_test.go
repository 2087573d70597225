package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/catalog"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/config"
)

func TestNewServerRoutes(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BaseDir = t.TempDir()
	cfg.Conversion.Enabled = false

	s, err := NewServer(cfg, catalog.Static{Catalog: catalog.Embedded()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	require.NotNil(t, s.GetStore())

	for _, path := range []string{"/", "/api/status", "/api/catalog", "/api/runs"} {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code, path)
		require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"), path)
	}

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/uploads", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
}
