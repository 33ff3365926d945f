package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/highlights-sync/internal/readwise"
	"github.com/mrlokans/highlights-sync/internal/settingsstore"
)

// SchedulePreset is a common cron schedule offered to clients.
type SchedulePreset struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

var schedulePresets = []SchedulePreset{
	{Label: "Every 15 minutes", Value: "*/15 * * * *", Description: "Runs at :00, :15, :30, :45"},
	{Label: "Every 30 minutes", Value: "*/30 * * * *", Description: "Runs at :00, :30"},
	{Label: "Every hour", Value: "0 * * * *", Description: "Runs at the top of every hour"},
	{Label: "Every 6 hours", Value: "0 */6 * * *", Description: "Runs at midnight, 6am, noon, 6pm"},
	{Label: "Daily at midnight", Value: "0 0 * * *", Description: "Runs once daily at 00:00"},
}

const tokenValidationTimeout = 10 * time.Second

var errValidationRateLimited = errors.New("rate limited by Readwise, try again later")

// SettingsController handles sync settings.
type SettingsController struct {
	settings  SettingsStore
	scheduler SyncTrigger
	validator TokenValidator
}

func NewSettingsController(settings SettingsStore, scheduler SyncTrigger, validator TokenValidator) *SettingsController {
	return &SettingsController{
		settings:  settings,
		scheduler: scheduler,
		validator: validator,
	}
}

// SettingsResponse is the response for GET /api/settings
type SettingsResponse struct {
	Config  settingsstore.SyncConfigInfo `json:"config"`
	Presets []SchedulePreset             `json:"presets"`
}

// UpdateSettingsRequest is the request body for PUT /api/settings.
// Omitted fields keep their current value.
type UpdateSettingsRequest struct {
	Token         *string `json:"token"`
	InboxDir      *string `json:"inbox_dir"`
	ReferencesDir *string `json:"references_dir"`
	Enabled       *bool   `json:"enabled"`
	Schedule      *string `json:"schedule"`
}

// ValidateTokenRequest is the request body for validating a token
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

func (c *SettingsController) GetSettings(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, SettingsResponse{
		Config:  c.settings.GetSyncConfigInfo(),
		Presets: schedulePresets,
	})
}

// UpdateSettings validates every provided field before saving any of them.
func (c *SettingsController) UpdateSettings(ctx *gin.Context) {
	var req UpdateSettingsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, "Invalid request: "+err.Error())
		return
	}

	if req.InboxDir != nil {
		if err := settingsstore.ValidateVaultDir(*req.InboxDir); err != nil {
			respondBadRequest(ctx, "Invalid inbox_dir: "+err.Error())
			return
		}
	}
	if req.ReferencesDir != nil {
		if err := settingsstore.ValidateVaultDir(*req.ReferencesDir); err != nil {
			respondBadRequest(ctx, "Invalid references_dir: "+err.Error())
			return
		}
	}
	if req.Schedule != nil {
		if err := settingsstore.ValidateCronSchedule(*req.Schedule); err != nil {
			respondBadRequest(ctx, "Invalid cron schedule: "+err.Error())
			return
		}
	}
	if req.Token != nil && *req.Token != "" && c.validator != nil {
		err := c.validateToken(ctx.Request.Context(), *req.Token)
		if errors.Is(err, errValidationRateLimited) {
			respondError(ctx, http.StatusTooManyRequests, "rate_limited", "Could not validate token: "+err.Error())
			return
		}
		if err != nil {
			respondBadRequest(ctx, "Invalid token: "+err.Error())
			return
		}
	}

	type save struct {
		name  string
		apply func() error
	}
	var saves []save
	if req.Token != nil {
		saves = append(saves, save{"token", func() error { return c.settings.SetToken(*req.Token) }})
	}
	if req.InboxDir != nil {
		saves = append(saves, save{"inbox_dir", func() error { return c.settings.SetInboxDir(*req.InboxDir) }})
	}
	if req.ReferencesDir != nil {
		saves = append(saves, save{"references_dir", func() error { return c.settings.SetReferencesDir(*req.ReferencesDir) }})
	}
	if req.Schedule != nil {
		saves = append(saves, save{"schedule", func() error { return c.settings.SetSyncSchedule(*req.Schedule) }})
	}
	if req.Enabled != nil {
		saves = append(saves, save{"enabled", func() error { return c.settings.SetSyncEnabled(*req.Enabled) }})
	}
	for _, s := range saves {
		if err := s.apply(); err != nil {
			respondInternalError(ctx, err, "save "+s.name)
			return
		}
	}

	if c.scheduler != nil {
		if err := c.scheduler.Reschedule(); err != nil {
			respondInternalError(ctx, err, "reschedule sync")
			return
		}
	}

	c.GetSettings(ctx)
}

// ResetSettings clears database overrides, reverting to env/defaults
func (c *SettingsController) ResetSettings(ctx *gin.Context) {
	if err := c.settings.ClearSyncSettings(); err != nil {
		respondInternalError(ctx, err, "reset settings")
		return
	}

	if c.scheduler != nil {
		_ = c.scheduler.Reschedule()
	}

	c.GetSettings(ctx)
}

// ValidateToken validates a Readwise API token. An empty token checks the
// configured one.
func (c *SettingsController) ValidateToken(ctx *gin.Context) {
	if c.validator == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"valid": false,
			"error": "Readwise client not available",
		})
		return
	}

	var req ValidateTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": "Invalid request",
		})
		return
	}

	token := req.Token
	if token == "" {
		token = c.settings.GetToken()
	}

	if token == "" {
		ctx.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": "No token provided or configured",
		})
		return
	}

	if err := c.validateToken(ctx.Request.Context(), token); err != nil {
		ctx.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"valid":   true,
		"message": "Token is valid",
	})
}

func (c *SettingsController) validateToken(ctx context.Context, token string) error {
	reqCtx, cancel := context.WithTimeout(ctx, tokenValidationTimeout)
	defer cancel()

	err := c.validator.ValidateToken(reqCtx, token)
	switch {
	case errors.Is(err, readwise.ErrInvalidToken):
		return errors.New("invalid or expired token")
	case errors.Is(err, readwise.ErrRateLimited):
		return errValidationRateLimited
	}
	return err
}
