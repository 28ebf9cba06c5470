package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aaryan/garment-styles-api/models"
)

// StageService is the policy layer over the raw store: it decides whether a
// requested transition commits immediately, requires the quantity-collection
// follow-up, or is a no-op, and it applies the dispatch side effect.
// Transitions are not restricted to be monotonic; moving a style backward is
// allowed.
type StageService struct {
	store   *StyleStore
	pending PendingStore
}

// NewStageService creates a stage service over the given store and pending
// store.
func NewStageService(store *StyleStore, pending PendingStore) *StageService {
	return &StageService{store: store, pending: pending}
}

// StageResult describes the outcome of a stage request for one style.
type StageResult struct {
	Style        *models.Style `json:"style,omitempty"`
	Changed      bool          `json:"changed"`
	Dispatched   bool          `json:"dispatched"`
	PendingToken string        `json:"pending_token,omitempty"`
}

// RequestStage handles a single-style stage change. Same-stage requests and
// unknown ids report no change. A transition landing on a flow stage is not
// committed here: the caller gets back a pending token to redeem with the
// collected quantities, or can pass the quantities up front via
// RequestStageWithQuantities.
func (s *StageService) RequestStage(ctx context.Context, id uint, newStage int) (*StageResult, error) {
	if !models.ValidStage(newStage) {
		return nil, fmt.Errorf("stage %d out of range", newStage)
	}

	style, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if style == nil || style.Stage == newStage {
		return &StageResult{Style: style, Changed: false}, nil
	}

	if models.FlowStage(newStage) {
		token := NewPendingToken()
		change := PendingChange{
			StyleID:  id,
			Merchant: style.Merchant,
			Stage:    newStage,
			IssuedAt: time.Now().UTC(),
		}
		if err := s.pending.Put(ctx, token, change); err != nil {
			return nil, err
		}
		return &StageResult{Style: style, Changed: false, PendingToken: token}, nil
	}

	return s.commit(id, newStage, QuantityUpdate{})
}

// RequestStageWithQuantities commits a stage change together with a
// quantity report in a single update, skipping the pending step. Used when
// the caller already collected the quantities (e.g. a combined form).
func (s *StageService) RequestStageWithQuantities(ctx context.Context, id uint, newStage int, qty QuantityUpdate) (*StageResult, error) {
	if !models.ValidStage(newStage) {
		return nil, fmt.Errorf("stage %d out of range", newStage)
	}

	style, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if style == nil || style.Stage == newStage {
		return &StageResult{Style: style, Changed: false}, nil
	}

	return s.commit(id, newStage, qty)
}

// Redeem commits a pending stage change together with the collected
// quantities. Unknown or expired tokens, and styles that vanished in the
// meantime, report no change; nothing is written in those cases.
func (s *StageService) Redeem(ctx context.Context, token string, qty QuantityUpdate) (*StageResult, error) {
	change, err := s.pending.Take(ctx, token)
	if err != nil {
		return nil, err
	}
	if change == nil {
		return &StageResult{Changed: false}, nil
	}

	style, err := s.store.Get(change.StyleID)
	if err != nil {
		return nil, err
	}
	if style == nil {
		return &StageResult{Changed: false}, nil
	}

	return s.commit(change.StyleID, change.Stage, qty)
}

// Abandon drops a pending stage change without committing anything.
func (s *StageService) Abandon(ctx context.Context, token string) error {
	_, err := s.pending.Take(ctx, token)
	return err
}

func (s *StageService) commit(id uint, newStage int, qty QuantityUpdate) (*StageResult, error) {
	if qty.Empty() {
		if err := s.store.UpdateStage(id, newStage); err != nil {
			return nil, err
		}
	} else {
		if err := s.store.UpdateStageWithQuantities(id, newStage, qty); err != nil {
			return nil, err
		}
	}
	style, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	return &StageResult{
		Style:      style,
		Changed:    true,
		Dispatched: newStage == models.StageDispatch,
	}, nil
}

// StageChange is one entry of a bulk update after no-op filtering.
type StageChange struct {
	Style    models.Style `json:"style"`
	NewStage int          `json:"new_stage"`
}

// BulkDiff partitions a bulk update request into the changes that can be
// applied directly and those landing on a flow stage, which need quantity
// collection first. Requests matching the style's current stage, and
// requests for ids the merchant does not own, are dropped silently.
type BulkDiff struct {
	Direct []StageChange `json:"direct"`
	Flow   []StageChange `json:"flow"`
}

// Empty reports whether the diff contains no effective changes.
func (d *BulkDiff) Empty() bool {
	return len(d.Direct) == 0 && len(d.Flow) == 0
}

// Diff filters a requested bulk change set against the merchant's current
// styles.
func (s *StageService) Diff(merchant string, requested map[uint]int) (*BulkDiff, error) {
	styles, err := s.store.ListByMerchant(merchant, true)
	if err != nil {
		return nil, err
	}

	diff := &BulkDiff{}
	// iterate the merchant's styles, not the request map, for stable order
	for _, style := range styles {
		newStage, ok := requested[style.ID]
		if !ok || !models.ValidStage(newStage) || newStage == style.Stage {
			continue
		}
		change := StageChange{Style: style, NewStage: newStage}
		if models.FlowStage(newStage) {
			diff.Flow = append(diff.Flow, change)
		} else {
			diff.Direct = append(diff.Direct, change)
		}
	}
	return diff, nil
}

// BulkResult summarises an applied bulk update. Dispatched lists the styles
// that reached the terminal stage, for the summary sent to the privileged
// identity.
type BulkResult struct {
	Applied    []StageChange  `json:"applied"`
	Dispatched []models.Style `json:"dispatched"`
	Failed     []uint         `json:"failed,omitempty"`
}

// ApplyBulk applies a bulk update. Each style commits independently: its
// stage and quantities land together, but one style failing does not roll
// back the others. Quantities are matched to flow changes by style id.
func (s *StageService) ApplyBulk(ctx context.Context, merchant string, requested map[uint]int, quantities map[uint]QuantityUpdate) (*BulkResult, error) {
	diff, err := s.Diff(merchant, requested)
	if err != nil {
		return nil, err
	}

	result := &BulkResult{}
	apply := func(change StageChange, qty QuantityUpdate) {
		res, err := s.RequestStageWithQuantities(ctx, change.Style.ID, change.NewStage, qty)
		if err != nil {
			result.Failed = append(result.Failed, change.Style.ID)
			return
		}
		if !res.Changed {
			return
		}
		result.Applied = append(result.Applied, StageChange{Style: *res.Style, NewStage: change.NewStage})
		if res.Dispatched {
			result.Dispatched = append(result.Dispatched, *res.Style)
		}
	}

	for _, change := range diff.Direct {
		apply(change, QuantityUpdate{})
	}
	for _, change := range diff.Flow {
		apply(change, quantities[change.Style.ID])
	}
	return result, nil
}
