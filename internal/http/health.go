package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/highlights-sync/internal/database"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// VaultChecker reports whether the vault root is usable.
type VaultChecker interface {
	IsDir(path string) (bool, error)
}

type HealthController struct {
	db      *database.Database
	vault   VaultChecker
	version string
}

func NewHealthController(db *database.Database, vault VaultChecker, version string) *HealthController {
	return &HealthController{
		db:      db,
		vault:   vault,
		version: version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	// Check database connectivity
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
	}

	if h.vault != nil {
		ok, err := h.vault.IsDir(".")
		switch {
		case err != nil:
			checks["vault"] = "error: " + err.Error()
			status = "unhealthy"
		case !ok:
			checks["vault"] = "error: vault directory missing"
			status = "unhealthy"
		default:
			checks["vault"] = "ok"
		}
	} else {
		checks["vault"] = "not configured"
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
