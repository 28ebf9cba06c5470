package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/aaryan/garment-styles-api/config"
	"github.com/aaryan/garment-styles-api/middleware"
	"github.com/aaryan/garment-styles-api/models"
	"github.com/aaryan/garment-styles-api/services"
	"github.com/aaryan/garment-styles-api/utils"
)

// CreateStyleRequest represents the request body for creating a style.
// TotalQty and DispatchDate are optional; unparseable values degrade to
// absent rather than failing the request.
type CreateStyleRequest struct {
	Brand        string `json:"brand" binding:"required"`
	StyleNo      string `json:"style_no" binding:"required"`
	Garment      string `json:"garment" binding:"required"`
	Colour       string `json:"colour" binding:"required"`
	TotalQty     string `json:"total_qty"`
	DispatchDate string `json:"dispatch_date"`
}

// EditStyleRequest represents the request body for editing style info.
// Only provided fields are overwritten.
type EditStyleRequest struct {
	Brand        *string `json:"brand"`
	StyleNo      *string `json:"style_no"`
	Garment      *string `json:"garment"`
	Colour       *string `json:"colour"`
	TotalQty     *string `json:"total_qty"`
	DispatchDate *string `json:"dispatch_date"`
}

// resolveMerchant pulls the caller's merchant identity or writes the 401
// envelope.
func resolveMerchant(c *gin.Context) (string, bool) {
	merchant, err := middleware.GetMerchant(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not resolve merchant identity",
			},
		})
		return "", false
	}
	return merchant, true
}

// styleID parses the :id route parameter.
func styleID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_STYLE_ID",
				"message": "Style id must be a positive integer",
			},
		})
		return 0, false
	}
	return uint(id), true
}

// ownedStyle loads a style and checks it belongs to the caller. Writes the
// 404 envelope when the style does not exist or belongs to someone else;
// the admin identity can reach any style.
func ownedStyle(c *gin.Context, id uint, merchant string) (*models.Style, bool) {
	store := services.NewStyleStore(config.GetDB())
	style, err := store.Get(id)
	if err != nil {
		databaseError(c, "Failed to load style")
		return nil, false
	}
	if style == nil || (style.Merchant != merchant && merchant != config.GetConfig().AdminMerchant) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STYLE_NOT_FOUND",
				"message": "Style not found",
			},
		})
		return nil, false
	}
	return style, true
}

func databaseError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "DATABASE_ERROR",
			"message": message,
		},
	})
}

// CreateStyle handles POST /api/v1/styles - registers a new style for the
// calling merchant, starting at Pre-fit.
func CreateStyle(c *gin.Context) {
	merchant, ok := resolveMerchant(c)
	if !ok {
		return
	}

	var req CreateStyleRequest
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

	store := services.NewStyleStore(config.GetDB())
	style, err := store.Create(merchant, services.StyleInput{
		Brand:        req.Brand,
		StyleNo:      req.StyleNo,
		Garment:      req.Garment,
		Colour:       req.Colour,
		TotalQty:     utils.ParseOptionalInt(req.TotalQty),
		DispatchDate: utils.ParseOptionalString(req.DispatchDate),
	})
	if err != nil {
		databaseError(c, "Failed to create style")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    style,
	})
}

// ListStyles handles GET /api/v1/styles - the calling merchant's active
// styles as display lines, newest first.
func ListStyles(c *gin.Context) {
	merchant, ok := resolveMerchant(c)
	if !ok {
		return
	}

	views := services.NewViewService(services.NewStyleStore(config.GetDB()))
	lines, err := views.ActiveList(merchant)
	if err != nil {
		databaseError(c, "Failed to list styles")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    lines,
	})
}

// ListArchivedStyles handles GET /api/v1/styles/archived - the calling
// merchant's archived styles, newest first.
func ListArchivedStyles(c *gin.Context) {
	merchant, ok := resolveMerchant(c)
	if !ok {
		return
	}

	store := services.NewStyleStore(config.GetDB())
	styles, err := store.ListArchivedByMerchant(merchant)
	if err != nil {
		databaseError(c, "Failed to list archived styles")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    styles,
	})
}

// GetStyle handles GET /api/v1/styles/:id
func GetStyle(c *gin.Context) {
	merchant, ok := resolveMerchant(c)
	if !ok {
		return
	}
	id, ok := styleID(c)
	if !ok {
		return
	}
	style, ok := ownedStyle(c, id, merchant)
	if !ok {
		return
	}

	// Attach a presigned photo URL when the style has one
	if style.PhotoS3Key != nil {
		if photoService := services.GetPhotoService(); photoService != nil {
			if url, err := photoService.GetPhotoURL(*style.PhotoS3Key); err == nil && url != "" {
				style.PhotoURL = &url
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    style,
	})
}

// EditStyle handles PATCH /api/v1/styles/:id - field-level overwrite of the
// style's free-text attributes. Unparseable total_qty is ignored, not an
// error.
func EditStyle(c *gin.Context) {
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

	var req EditStyleRequest
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

	update := services.InfoUpdate{
		Brand:   req.Brand,
		StyleNo: req.StyleNo,
		Garment: req.Garment,
		Colour:  req.Colour,
	}
	if req.TotalQty != nil {
		update.TotalQty = utils.ParseOptionalInt(*req.TotalQty)
	}
	if req.DispatchDate != nil {
		update.DispatchDate = utils.ParseOptionalString(*req.DispatchDate)
	}

	store := services.NewStyleStore(config.GetDB())
	if err := store.UpdateInfo(id, update); err != nil {
		databaseError(c, "Failed to update style")
		return
	}

	style, err := store.Get(id)
	if err != nil {
		databaseError(c, "Failed to load style")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    style,
	})
}

// ArchiveStyle handles DELETE /api/v1/styles/:id - soft delete. The record
// stays in the store and can be restored.
func ArchiveStyle(c *gin.Context) {
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

	store := services.NewStyleStore(config.GetDB())
	changed, err := store.Archive(id)
	if err != nil {
		databaseError(c, "Failed to archive style")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id":      id,
			"changed": changed,
		},
	})
}

// RestoreStyle handles POST /api/v1/styles/:id/restore - reactivates an
// archived style.
func RestoreStyle(c *gin.Context) {
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

	store := services.NewStyleStore(config.GetDB())
	changed, err := store.Restore(id)
	if err != nil {
		databaseError(c, "Failed to restore style")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id":      id,
			"changed": changed,
		},
	})
}
