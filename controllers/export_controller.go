package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/aaryan/garment-styles-api/config"
	"github.com/aaryan/garment-styles-api/services"
)

func newExportService() *services.ExportService {
	views := services.NewViewService(services.NewStyleStore(config.GetDB()))
	return services.NewExportService(views, services.GetS3Service())
}

func exportFormat(c *gin.Context) (string, bool) {
	format := c.DefaultQuery("format", services.FormatCSV)
	if format != services.FormatCSV && format != services.FormatXLSX {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FORMAT",
				"message": "Format must be csv or xlsx",
			},
		})
		return "", false
	}
	return format, true
}

// DownloadExport handles GET /api/v1/styles/export?format=csv|xlsx - streams
// the calling merchant's production report.
func DownloadExport(c *gin.Context) {
	merchant, ok := resolveMerchant(c)
	if !ok {
		return
	}
	format, ok := exportFormat(c)
	if !ok {
		return
	}

	export, err := newExportService().Build(merchant, format)
	if err != nil {
		databaseError(c, "Failed to build export")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.FileName+`"`)
	c.Data(http.StatusOK, export.ContentType, export.Data)
}

// UploadExport handles POST /api/v1/styles/export?format=csv|xlsx - renders
// the report, uploads it to S3 and returns a presigned link the chat layer
// can forward.
func UploadExport(c *gin.Context) {
	merchant, ok := resolveMerchant(c)
	if !ok {
		return
	}
	format, ok := exportFormat(c)
	if !ok {
		return
	}

	url, err := newExportService().Upload(merchant, format)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "EXPORT_UPLOAD_FAILED",
				"message": "Failed to upload export",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"url": url},
	})
}
