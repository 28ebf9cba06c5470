package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/aaryan/garment-styles-api/models"
)

// StyleStore is the durable record store for styles. Every mutation is a
// single UPDATE statement keyed by id, which keeps concurrent writers on the
// same record last-write-wins without explicit locking. Absence of a record
// is a normal outcome, never an error: reads return nil and mutations no-op.
type StyleStore struct {
	db *gorm.DB
}

// NewStyleStore creates a store bound to the given database handle.
func NewStyleStore(db *gorm.DB) *StyleStore {
	return &StyleStore{db: db}
}

// StyleInput carries the fields a merchant supplies when creating a style.
// Optional fields left nil are stored as absent.
type StyleInput struct {
	Brand        string
	StyleNo      string
	Garment      string
	Colour       string
	TotalQty     *int
	DispatchDate *string
}

// QuantityUpdate carries the per-stage quantity fields of a report. Nil
// fields are left untouched in the record.
type QuantityUpdate struct {
	Cut    *int
	Stitch *int
	Finish *int
	Pack   *int
}

// Empty reports whether the update carries no fields at all.
func (q QuantityUpdate) Empty() bool {
	return q.Cut == nil && q.Stitch == nil && q.Finish == nil && q.Pack == nil
}

func (q QuantityUpdate) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if q.Cut != nil {
		cols["cut_qty"] = *q.Cut
	}
	if q.Stitch != nil {
		cols["stitch_qty"] = *q.Stitch
	}
	if q.Finish != nil {
		cols["finish_qty"] = *q.Finish
	}
	if q.Pack != nil {
		cols["pack_qty"] = *q.Pack
	}
	return cols
}

// InfoUpdate carries the editable free-text attributes of a style. Only
// non-nil fields are overwritten.
type InfoUpdate struct {
	Brand        *string
	StyleNo      *string
	Garment      *string
	Colour       *string
	TotalQty     *int
	DispatchDate *string
}

func (u InfoUpdate) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if u.Brand != nil {
		cols["brand"] = *u.Brand
	}
	if u.StyleNo != nil {
		cols["style_no"] = *u.StyleNo
	}
	if u.Garment != nil {
		cols["garment"] = *u.Garment
	}
	if u.Colour != nil {
		cols["colour"] = *u.Colour
	}
	if u.TotalQty != nil {
		cols["total_qty"] = *u.TotalQty
	}
	if u.DispatchDate != nil {
		cols["dispatch_date"] = *u.DispatchDate
	}
	return cols
}

// Create inserts a new style for the merchant. New styles always start at
// Pre-fit and active.
func (s *StyleStore) Create(merchant string, input StyleInput) (*models.Style, error) {
	style := models.Style{
		Merchant:     merchant,
		Brand:        input.Brand,
		StyleNo:      input.StyleNo,
		Garment:      input.Garment,
		Colour:       input.Colour,
		Stage:        0,
		Active:       true,
		TotalQty:     input.TotalQty,
		DispatchDate: input.DispatchDate,
	}
	if err := s.db.Create(&style).Error; err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	return &style, nil
}

// Get fetches a single style by id. Returns (nil, nil) when the id does not
// exist.
func (s *StyleStore) Get(id uint) (*models.Style, error) {
	var style models.Style
	err := s.db.First(&style, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch style %d: %w", id, err)
	}
	return &style, nil
}

// ListByMerchant returns the merchant's styles newest-created-first.
func (s *StyleStore) ListByMerchant(merchant string, activeOnly bool) ([]models.Style, error) {
	query := s.db.Where("merchant = ?", merchant)
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var styles []models.Style
	if err := query.Order("created_at DESC, id DESC").Find(&styles).Error; err != nil {
		return nil, fmt.Errorf("failed to list styles for %s: %w", merchant, err)
	}
	return styles, nil
}

// ListArchivedByMerchant returns the merchant's archived styles
// newest-created-first.
func (s *StyleStore) ListArchivedByMerchant(merchant string) ([]models.Style, error) {
	var styles []models.Style
	err := s.db.Where("merchant = ? AND active = ?", merchant, false).
		Order("created_at DESC, id DESC").Find(&styles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list archived styles for %s: %w", merchant, err)
	}
	return styles, nil
}

// ListAll returns every style in the store newest-created-first.
func (s *StyleStore) ListAll() ([]models.Style, error) {
	var styles []models.Style
	if err := s.db.Order("created_at DESC, id DESC").Find(&styles).Error; err != nil {
		return nil, fmt.Errorf("failed to list styles: %w", err)
	}
	return styles, nil
}

// UpdateStage sets the stage of a style. Reaching Dispatch deactivates the
// record in the same statement. Unknown ids are a silent no-op.
func (s *StyleStore) UpdateStage(id uint, stage int) error {
	if !models.ValidStage(stage) {
		return fmt.Errorf("stage %d out of range", stage)
	}
	cols := map[string]interface{}{"stage": stage}
	if stage == models.StageDispatch {
		cols["active"] = false
	}
	if err := s.db.Model(&models.Style{}).Where("id = ?", id).Updates(cols).Error; err != nil {
		return fmt.Errorf("failed to update stage for style %d: %w", id, err)
	}
	return nil
}

// UpdateStageWithQuantities commits a stage change and a quantity report as
// one statement, so a flow-stage update lands all-or-nothing.
func (s *StyleStore) UpdateStageWithQuantities(id uint, stage int, qty QuantityUpdate) error {
	if !models.ValidStage(stage) {
		return fmt.Errorf("stage %d out of range", stage)
	}
	cols := qty.columns()
	cols["stage"] = stage
	if stage == models.StageDispatch {
		cols["active"] = false
	}
	if err := s.db.Model(&models.Style{}).Where("id = ?", id).Updates(cols).Error; err != nil {
		return fmt.Errorf("failed to update style %d: %w", id, err)
	}
	return nil
}

// UpdateQuantities sets only the quantity fields present in the update,
// leaving the others exactly as they were. Unknown ids are a silent no-op.
func (s *StyleStore) UpdateQuantities(id uint, qty QuantityUpdate) error {
	cols := qty.columns()
	if len(cols) == 0 {
		return nil
	}
	if err := s.db.Model(&models.Style{}).Where("id = ?", id).Updates(cols).Error; err != nil {
		return fmt.Errorf("failed to update quantities for style %d: %w", id, err)
	}
	return nil
}

// UpdateInfo overwrites only the provided free-text attributes. Unknown ids
// are a silent no-op.
func (s *StyleStore) UpdateInfo(id uint, update InfoUpdate) error {
	cols := update.columns()
	if len(cols) == 0 {
		return nil
	}
	if err := s.db.Model(&models.Style{}).Where("id = ?", id).Updates(cols).Error; err != nil {
		return fmt.Errorf("failed to update style %d: %w", id, err)
	}
	return nil
}

// SetPhotoKey records the S3 key of the style's uploaded photo.
func (s *StyleStore) SetPhotoKey(id uint, s3Key string) error {
	err := s.db.Model(&models.Style{}).Where("id = ?", id).
		Update("photo_s3_key", s3Key).Error
	if err != nil {
		return fmt.Errorf("failed to set photo for style %d: %w", id, err)
	}
	return nil
}

// Archive soft-deletes a style. Returns true if the style was active and is
// now archived, false when it was already archived or does not exist.
func (s *StyleStore) Archive(id uint) (bool, error) {
	res := s.db.Model(&models.Style{}).
		Where("id = ? AND active = ?", id, true).
		Update("active", false)
	if res.Error != nil {
		return false, fmt.Errorf("failed to archive style %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Restore reactivates an archived style. Returns true if the style was
// archived and is now active again, false otherwise.
func (s *StyleStore) Restore(id uint) (bool, error) {
	res := s.db.Model(&models.Style{}).
		Where("id = ? AND active = ?", id, false).
		Update("active", true)
	if res.Error != nil {
		return false, fmt.Errorf("failed to restore style %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}
