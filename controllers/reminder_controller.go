package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/aaryan/garment-styles-api/config"
	"github.com/aaryan/garment-styles-api/services"
)

// ReminderPolicy picks the configured recipient policy: the platform group
// when one is configured, otherwise the static allow-list.
func ReminderPolicy(cfg *config.Config) services.RecipientPolicy {
	if cfg.ReminderGroupID != "" {
		return services.GroupMembership{GroupID: cfg.ReminderGroupID}
	}
	return services.StaticAllowList(cfg.ReminderMerchants)
}

// PreviewReminderTargets handles GET /api/v1/reminders/targets - shows who
// would receive the next scheduled nudge. Restricted to the privileged
// identity.
func PreviewReminderTargets(c *gin.Context) {
	dir := services.GetDirectory()
	if dir == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DIRECTORY_UNAVAILABLE",
				"message": "No user directory is configured",
			},
		})
		return
	}

	cfg := config.GetConfig()
	reminders := services.NewReminderService(
		services.NewStyleStore(config.GetDB()),
		ReminderPolicy(cfg),
	)

	targets, err := reminders.EligibleTargets(c.Request.Context(), dir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "TARGETING_FAILED",
				"message": "Failed to compute reminder targets",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    targets,
	})
}
