package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/highlights-sync/internal/database"
	"github.com/mrlokans/highlights-sync/internal/vault"
)

func setupHealthTestDB(t *testing.T) (*database.Database, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_health_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return db, cleanup
}

func memVault(t *testing.T) *vault.Vault {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/vault", 0o755))
	return vault.New(fs, "/vault")
}

type brokenVault struct{}

func (brokenVault) IsDir(string) (bool, error) { return false, errors.New("permission denied") }

func getHealth(t *testing.T, controller *HealthController) (int, HealthResponse) {
	t.Helper()
	router := gin.New()
	router.GET("/health", controller.Status)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w.Code, response
}

func TestHealthController_Status(t *testing.T) {
	t.Run("returns healthy when database and vault are usable", func(t *testing.T) {
		db, cleanup := setupHealthTestDB(t)
		defer cleanup()

		code, response := getHealth(t, NewHealthController(db, memVault(t), "1.0.0"))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "1.0.0", response.Version)
		assert.Equal(t, "ok", response.Checks["database"])
		assert.Equal(t, "ok", response.Checks["vault"])
		assert.Contains(t, response.Time, "T")
	})

	t.Run("reports missing dependencies as not configured", func(t *testing.T) {
		code, response := getHealth(t, NewHealthController(nil, nil, "1.0.0"))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "not configured", response.Checks["database"])
		assert.Equal(t, "not configured", response.Checks["vault"])
	})

	t.Run("returns unhealthy when database connection is closed", func(t *testing.T) {
		db, cleanup := setupHealthTestDB(t)
		defer cleanup()
		db.Close()

		code, response := getHealth(t, NewHealthController(db, nil, "1.0.0"))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unhealthy", response.Status)
		assert.Contains(t, response.Checks["database"], "error")
	})

	t.Run("returns unhealthy when vault root is missing", func(t *testing.T) {
		v := vault.New(afero.NewMemMapFs(), "/nowhere")

		code, response := getHealth(t, NewHealthController(nil, v, ""))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "error: vault directory missing", response.Checks["vault"])
	})

	t.Run("returns unhealthy when vault cannot be checked", func(t *testing.T) {
		code, response := getHealth(t, NewHealthController(nil, brokenVault{}, ""))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Contains(t, response.Checks["vault"], "permission denied")
	})
}

func TestHealthResponse_OmitsEmptyVersion(t *testing.T) {
	response := HealthResponse{
		Status: "healthy",
		Time:   "2024-01-01T12:00:00Z",
		Checks: map[string]string{},
	}

	jsonBytes, err := json.Marshal(response)
	require.NoError(t, err)

	assert.NotContains(t, string(jsonBytes), "version")
}
