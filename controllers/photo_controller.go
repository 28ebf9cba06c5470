package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/aaryan/garment-styles-api/config"
	"github.com/aaryan/garment-styles-api/services"
	"github.com/aaryan/garment-styles-api/utils"
)

// UploadStylePhoto handles POST /api/v1/styles/:id/photo - attaches an
// optional PNG photo to a style. Re-uploading replaces the previous photo.
func UploadStylePhoto(c *gin.Context) {
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

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "A photo file is required",
			},
		})
		return
	}

	photoService := services.GetPhotoService()
	if photoService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PHOTOS_UNAVAILABLE",
				"message": "Photo storage is not configured",
			},
		})
		return
	}

	s3Key, err := photoService.UploadPhoto(fileHeader)
	if err != nil {
		var uploadErr *utils.PhotoUploadError
		if errors.As(err, &uploadErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    uploadErr.Code,
					"message": uploadErr.Message,
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": "Failed to upload photo",
			},
		})
		return
	}

	// Replace the previous photo, if any
	if style.PhotoS3Key != nil && *style.PhotoS3Key != s3Key {
		if err := photoService.DeletePhoto(*style.PhotoS3Key); err != nil {
			// the new photo is already stored; old key is orphaned at worst
			c.Error(err)
		}
	}

	store := services.NewStyleStore(config.GetDB())
	if err := store.SetPhotoKey(id, s3Key); err != nil {
		databaseError(c, "Failed to save photo reference")
		return
	}

	url, err := photoService.GetPhotoURL(s3Key)
	if err != nil {
		databaseError(c, "Failed to generate photo URL")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id":        id,
			"photo_key": s3Key,
			"photo_url": url,
		},
	})
}
