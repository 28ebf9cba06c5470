package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageLabels(t *testing.T) {
	assert.Len(t, StageLabels, 14, "Workflow should have exactly 14 stages")
	assert.Equal(t, "Pre-fit", StageLabels[0])
	assert.Equal(t, "Dispatch", StageLabels[StageDispatch])
	assert.Equal(t, "Cutting sheet", StageLabels[StageCuttingSheet])
	assert.Equal(t, "Inline", StageLabels[StageInline])
	assert.Equal(t, "Stitching", StageLabels[StageStitching])
	assert.Equal(t, "Finishing", StageLabels[StageFinishing])
	assert.Equal(t, "Packing", StageLabels[StagePacking])
}

func TestStageLabel(t *testing.T) {
	assert.Equal(t, "Fit", StageLabel(1))
	assert.Equal(t, "", StageLabel(-1))
	assert.Equal(t, "", StageLabel(14))
}

func TestValidStage(t *testing.T) {
	assert.True(t, ValidStage(0))
	assert.True(t, ValidStage(13))
	assert.False(t, ValidStage(-1))
	assert.False(t, ValidStage(14))
}

func TestFlowStage(t *testing.T) {
	// Cutting sheet through Packing collect quantities; nothing else does
	flow := map[int]bool{
		StageCuttingSheet: true,
		StageInline:       true,
		StageStitching:    true,
		StageFinishing:    true,
		StagePacking:      true,
	}
	for stage := range StageLabels {
		assert.Equal(t, flow[stage], FlowStage(stage), "stage %d (%s)", stage, StageLabels[stage])
	}
}

func TestStageBalance(t *testing.T) {
	intPtr := func(n int) *int { return &n }

	tests := []struct {
		name     string
		total    *int
		done     *int
		expected *int
	}{
		{"both positive", intPtr(100), intPtr(30), intPtr(70)},
		{"overshoot clamps to zero", intPtr(50), intPtr(60), intPtr(0)},
		{"total absent", nil, intPtr(30), nil},
		{"done absent", intPtr(100), nil, nil},
		{"both absent", nil, nil, nil},
		{"total zero", intPtr(0), intPtr(30), nil},
		{"done zero", intPtr(100), intPtr(0), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StageBalance(tt.total, tt.done)
			if tt.expected == nil {
				assert.Nil(t, got)
			} else {
				assert.NotNil(t, got)
				assert.Equal(t, *tt.expected, *got)
			}
		})
	}
}

func TestStyleHelpers(t *testing.T) {
	style := Style{Stage: StageInline}
	assert.Equal(t, "Inline", style.StageLabel())
	assert.False(t, style.Dispatched())

	style.Stage = StageDispatch
	assert.True(t, style.Dispatched())
}
