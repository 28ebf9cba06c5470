package services

import (
	"fmt"
	"strings"
	"time"
)

// Export formats supported by the report endpoints.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ExportService renders a merchant's production report and optionally
// delivers it through S3 as a presigned link.
type ExportService struct {
	views *ViewService
	s3    S3Interface
}

// NewExportService creates an export service. s3 may be nil when upload
// delivery is not configured; direct download still works.
func NewExportService(views *ViewService, s3 S3Interface) *ExportService {
	return &ExportService{views: views, s3: s3}
}

// Export is a rendered report ready to serve or upload.
type Export struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Build renders the merchant's report in the requested format.
func (e *ExportService) Build(merchant, format string) (*Export, error) {
	rows, err := e.views.ExportRows(merchant)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatCSV:
		data, err := WriteCSV(rows)
		if err != nil {
			return nil, err
		}
		return &Export{
			FileName:    exportFileName(merchant, FormatCSV),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case FormatXLSX:
		data, err := WriteXLSX(rows)
		if err != nil {
			return nil, err
		}
		return &Export{
			FileName:    exportFileName(merchant, FormatXLSX),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// Upload renders the report, uploads it to S3 and returns a presigned URL
// valid for one hour.
func (e *ExportService) Upload(merchant, format string) (string, error) {
	if e.s3 == nil {
		return "", fmt.Errorf("export upload is not configured")
	}

	export, err := e.Build(merchant, format)
	if err != nil {
		return "", err
	}

	s3Key := fmt.Sprintf("exports/%s", export.FileName)
	if _, err := e.s3.UploadBytes(s3Key, export.ContentType, export.Data); err != nil {
		return "", err
	}

	url, err := e.s3.GetPresignedURL(s3Key)
	if err != nil {
		return "", err
	}
	return url, nil
}

// exportFileName builds a per-merchant dated file name,
// e.g. exports for "Megha" on 2026-08-29 → "megha_styles_2026-08-29.csv".
func exportFileName(merchant, format string) string {
	slug := strings.ToLower(strings.Join(strings.Fields(merchant), "_"))
	if slug == "" {
		slug = "styles"
	}
	return fmt.Sprintf("%s_styles_%s.%s", slug, time.Now().Format("2006-01-02"), format)
}
