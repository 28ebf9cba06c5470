package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/aaryan/garment-styles-api/config"
	"github.com/aaryan/garment-styles-api/models"
	"github.com/aaryan/garment-styles-api/services"
	"github.com/aaryan/garment-styles-api/utils"
)

// QuantityFields carries the four per-stage quantity inputs as raw strings.
// Blank or unparseable values mean "not reported" and leave the stored
// field untouched.
type QuantityFields struct {
	Cut    string `json:"cut"`
	Stitch string `json:"stitch"`
	Finish string `json:"finish"`
	Pack   string `json:"pack"`
}

func (q QuantityFields) toUpdate() services.QuantityUpdate {
	return services.QuantityUpdate{
		Cut:    utils.ParseOptionalInt(q.Cut),
		Stitch: utils.ParseOptionalInt(q.Stitch),
		Finish: utils.ParseOptionalInt(q.Finish),
		Pack:   utils.ParseOptionalInt(q.Pack),
	}
}

// UpdateStageRequest represents the request body for a single-style stage
// change. Quantities may be supplied up front; otherwise a flow-stage
// transition answers with a pending token to redeem.
type UpdateStageRequest struct {
	Stage      int             `json:"stage" binding:"min=0,max=13"`
	Quantities *QuantityFields `json:"quantities"`
}

// RedeemStageRequest carries the quantity follow-up for a pending change.
type RedeemStageRequest struct {
	Quantities QuantityFields `json:"quantities"`
}

// BulkStageRequest represents the morning-update payload: requested stage
// per style id, plus optional quantities for the flow transitions.
type BulkStageRequest struct {
	Changes    map[string]int            `json:"changes" binding:"required"`
	Quantities map[string]QuantityFields `json:"quantities"`
}

func newStageService() *services.StageService {
	store := services.NewStyleStore(config.GetDB())
	return services.NewStageService(store, services.GetPendingStore())
}

// UpdateStage handles POST /api/v1/styles/:id/stage. A transition landing
// on a flow stage without quantities is answered with 202 and a pending
// token; nothing is committed until the token is redeemed.
func UpdateStage(c *gin.Context) {
	merchant, ok := resolveMerchant(c)
	if !ok {
		return
	}
	id, ok := styleID(c)
	if !ok {
		return
	}
	if _, ok := ownedStyle(c, id, merchant); !ok {
		return
	}

	var req UpdateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	stageService := newStageService()
	var result *services.StageResult
	var err error
	if req.Quantities != nil {
		result, err = stageService.RequestStageWithQuantities(c.Request.Context(), id, req.Stage, req.Quantities.toUpdate())
	} else {
		result, err = stageService.RequestStage(c.Request.Context(), id, req.Stage)
	}
	if err != nil {
		databaseError(c, "Failed to update stage")
		return
	}

	status := http.StatusOK
	if result.PendingToken != "" {
		status = http.StatusAccepted
	}
	c.JSON(status, gin.H{
		"success": true,
		"data":    result,
	})
}

// RedeemStageUpdate handles POST /api/v1/stage-updates/:token - commits a
// pending stage change together with the collected quantities.
func RedeemStageUpdate(c *gin.Context) {
	if _, ok := resolveMerchant(c); !ok {
		return
	}

	token := c.Param("token")

	var req RedeemStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	result, err := newStageService().Redeem(c.Request.Context(), token, req.Quantities.toUpdate())
	if err != nil {
		databaseError(c, "Failed to redeem stage update")
		return
	}

	if !result.Changed {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PENDING_NOT_FOUND",
				"message": "Pending stage update expired or does not exist",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// AbandonStageUpdate handles DELETE /api/v1/stage-updates/:token - drops a
// pending stage change; the style record stays untouched.
func AbandonStageUpdate(c *gin.Context) {
	if _, ok := resolveMerchant(c); !ok {
		return
	}

	if err := newStageService().Abandon(c.Request.Context(), c.Param("token")); err != nil {
		databaseError(c, "Failed to abandon stage update")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"abandoned": true},
	})
}

// BulkStageDiff handles POST /api/v1/styles/bulk-stage/diff - previews a
// morning update: which requested changes are effective, and which ones
// need quantity collection.
func BulkStageDiff(c *gin.Context) {
	merchant, ok := resolveMerchant(c)
	if !ok {
		return
	}

	var req BulkStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	diff, err := newStageService().Diff(merchant, parseChanges(req.Changes))
	if err != nil {
		databaseError(c, "Failed to compute bulk diff")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    diff,
	})
}

// BulkStageUpdate handles POST /api/v1/styles/bulk-stage - applies a
// morning update. Each style commits independently; the response reports
// what was applied and which styles were dispatched.
func BulkStageUpdate(c *gin.Context) {
	merchant, ok := resolveMerchant(c)
	if !ok {
		return
	}

	var req BulkStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	quantities := make(map[uint]services.QuantityUpdate, len(req.Quantities))
	for key, fields := range req.Quantities {
		if id, err := strconv.ParseUint(key, 10, 64); err == nil {
			quantities[uint(id)] = fields.toUpdate()
		}
	}

	result, err := newStageService().ApplyBulk(c.Request.Context(), merchant, parseChanges(req.Changes), quantities)
	if err != nil {
		databaseError(c, "Failed to apply bulk update")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
		"summary": bulkSummary(merchant, result),
	})
}

// parseChanges converts the JSON string-keyed change map to style ids.
// Unparseable keys are dropped, matching the silent-no-op policy for
// unknown ids.
func parseChanges(changes map[string]int) map[uint]int {
	parsed := make(map[uint]int, len(changes))
	for key, stage := range changes {
		if id, err := strconv.ParseUint(key, 10, 64); err == nil {
			parsed[uint(id)] = stage
		}
	}
	return parsed
}

// bulkSummary builds the morning-update summary lines forwarded to the
// privileged identity by the delivery layer.
func bulkSummary(merchant string, result *services.BulkResult) []string {
	if len(result.Applied) == 0 {
		return nil
	}
	lines := []string{"Morning update from " + merchant + ":"}
	for _, change := range result.Applied {
		lines = append(lines, change.Style.Brand+"·"+change.Style.StyleNo+" → "+models.StageLabel(change.NewStage))
	}
	for _, style := range result.Dispatched {
		lines = append(lines, "Dispatched: "+style.Brand+"·"+style.StyleNo)
	}
	return lines
}
