package models

import (
	"time"
)

// StageLabels is the fixed production workflow, in order. A style's Stage
// field is an index into this list.
var StageLabels = []string{
	"Pre-fit",
	"Fit",
	"Bulk",
	"Bulk in-house",
	"FPT",
	"GPT",
	"PP",
	"Accessories in-house",
	"Cutting sheet",
	"Inline",
	"Stitching",
	"Finishing",
	"Packing",
	"Dispatch",
}

// Stage indices that have special behaviour.
const (
	StageCuttingSheet = 8
	StageInline       = 9
	StageStitching    = 10
	StageFinishing    = 11
	StagePacking      = 12
	StageDispatch     = 13
)

// Style represents one trackable garment production order for a merchant.
// Quantity fields are pointers so that "never reported" stays distinct from
// "reported as zero"; the export balance logic depends on that distinction.
type Style struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Merchant     string    `gorm:"not null;index" json:"merchant"` // owner, immutable after creation
	Brand        string    `gorm:"not null" json:"brand"`
	StyleNo      string    `gorm:"not null" json:"style_no"`
	Garment      string    `gorm:"not null" json:"garment"`
	Colour       string    `gorm:"not null" json:"colour"`
	Stage        int       `gorm:"not null;default:0" json:"stage"`
	Active       bool      `gorm:"not null;default:true" json:"active"`
	TotalQty     *int      `json:"total_qty"`
	CutQty       *int      `json:"cut_qty"`
	StitchQty    *int      `json:"stitch_qty"`
	FinishQty    *int      `json:"finish_qty"`
	PackQty      *int      `json:"pack_qty"`
	DispatchDate *string   `json:"dispatch_date"` // ISO date string, validated downstream
	PhotoS3Key   *string   `json:"photo_s3_key,omitempty"`
	PhotoURL     *string   `gorm:"-" json:"photo_url,omitempty"` // computed, presigned URL
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Style model
func (Style) TableName() string {
	return "styles"
}

// StageLabel returns the label for the style's current stage.
func (s *Style) StageLabel() string {
	return StageLabel(s.Stage)
}

// Dispatched reports whether the style has reached the terminal stage.
func (s *Style) Dispatched() bool {
	return s.Stage == StageDispatch
}

// StageLabel returns the label for a stage index, or "" if out of range.
func StageLabel(stage int) string {
	if !ValidStage(stage) {
		return ""
	}
	return StageLabels[stage]
}

// ValidStage reports whether stage is a valid index into StageLabels.
func ValidStage(stage int) bool {
	return stage >= 0 && stage < len(StageLabels)
}

// FlowStage reports whether a transition landing on this stage requires the
// follow-up quantity collection step (Cutting sheet through Packing).
func FlowStage(stage int) bool {
	return stage >= StageCuttingSheet && stage <= StagePacking
}

// StageBalance computes total minus done, floored at zero. It returns nil
// when either value is absent or non-positive, which the export layer
// renders as an empty cell.
func StageBalance(total, done *int) *int {
	if total == nil || done == nil || *total <= 0 || *done <= 0 {
		return nil
	}
	bal := *total - *done
	if bal < 0 {
		bal = 0
	}
	return &bal
}
