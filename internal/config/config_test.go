package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cf, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 100, cf.CatalogPageSize)
	assert.Equal(t, 10, cf.CatalogMaxPages)
	assert.Equal(t, 10*time.Second, cf.HTTPTimeout)
	assert.Equal(t, HistoryBackendFile, cf.HistoryBackend)
	assert.Equal(t, "saved_orders", cf.HistoryKey)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CATALOG_MAX_PAGES", "4")
	t.Setenv("HISTORY_BACKEND", "REDIS")
	t.Setenv("HTTP_TIMEOUT", "2s")

	cf, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4, cf.CatalogMaxPages)
	assert.Equal(t, HistoryBackendRedis, cf.HistoryBackend)
	assert.Equal(t, 2*time.Second, cf.HTTPTimeout)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.env")
	require.NoError(t, os.WriteFile(path, []byte("PARTNER_BASE_URL=http://partner.test\nCATALOG_PAGE_SIZE=50\n"), 0o600))

	cf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://partner.test", cf.PartnerBaseURL)
	assert.Equal(t, 50, cf.CatalogPageSize)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "page size too large", env: map[string]string{"CATALOG_PAGE_SIZE": "500"}},
		{name: "max pages above hard cap", env: map[string]string{"CATALOG_MAX_PAGES": "50"}},
		{name: "unknown backend", env: map[string]string{"HISTORY_BACKEND": "sqlite"}},
		{name: "postgres without dsn", env: map[string]string{"HISTORY_BACKEND": "postgres"}},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			for k, v := range testCase.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
