package calories

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lifebit/noteagent/pkg/models"
)

func record(kind models.RecordKind, fields models.FieldMap) *models.PartialRecord {
	return &models.PartialRecord{Kind: kind, Fields: fields}
}

func TestEstimate_Cardio(t *testing.T) {
	tests := []struct {
		name     string
		exercise string
		duration float64
		want     float64
	}{
		{"running", "달리기", 30, 315},  // 30 x 10.5
		{"jogging", "조깅", 40, 420},   // running family
		{"walking", "걷기", 60, 270},   // 60 x 4.5
		{"swimming", "수영", 30, 330},  // 30 x 11
		{"cycling", "자전거", 45, 337.5},
		{"unmatched", "등산", 30, 225}, // default 7.5
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := record(models.KindCardio, models.FieldMap{
				models.FieldExerciseName: tt.exercise,
				models.FieldDurationMin:  tt.duration,
			})
			assert.Equal(t, tt.want, Estimate(r))
		})
	}
}

// 60kg x 3 sets x 10 reps with no duration: minutes = max(30, 3x3) = 30,
// so 60*3*10*0.045 + 30*5 = 81 + 150 = 231.0.
func TestEstimate_StrengthWithoutDuration(t *testing.T) {
	r := record(models.KindStrengthEquipment, models.FieldMap{
		models.FieldExerciseName: "벤치프레스",
		models.FieldWeightKg:     60.0,
		models.FieldSets:         3.0,
		models.FieldReps:         10.0,
	})
	assert.Equal(t, 231.0, Estimate(r))
}

// With an explicit 15 minute duration: 81 + 75 = 156.0.
func TestEstimate_StrengthWithDuration(t *testing.T) {
	r := record(models.KindStrengthEquipment, models.FieldMap{
		models.FieldExerciseName: "벤치프레스",
		models.FieldWeightKg:     60.0,
		models.FieldSets:         3.0,
		models.FieldReps:         10.0,
		models.FieldDurationMin:  15.0,
	})
	assert.Equal(t, 156.0, Estimate(r))
}

// Bodyweight substitutes the 70kg nominal weight even if a weight slipped in.
func TestEstimate_BodyweightUsesNominalWeight(t *testing.T) {
	r := record(models.KindStrengthBodyweight, models.FieldMap{
		models.FieldExerciseName: "푸시업",
		models.FieldSets:         3.0,
		models.FieldReps:         15.0,
		models.FieldDurationMin:  10.0,
	})
	// 70*3*15*0.045 + 10*5 = 141.75 + 50 = 191.75 -> 191.8
	assert.Equal(t, 191.8, Estimate(r))
}

func TestEstimate_LongSessionsUseSetEstimate(t *testing.T) {
	r := record(models.KindStrengthEquipment, models.FieldMap{
		models.FieldExerciseName: "스쿼트",
		models.FieldWeightKg:     100.0,
		models.FieldSets:         12.0,
		models.FieldReps:         5.0,
	})
	// minutes = max(30, 12*3) = 36; 100*12*5*0.045 + 36*5 = 270 + 180
	assert.Equal(t, 450.0, Estimate(r))
}

func TestEstimate_NonExerciseIsZero(t *testing.T) {
	assert.Zero(t, Estimate(nil))
	assert.Zero(t, Estimate(record(models.KindDiet, models.FieldMap{models.FieldFoodName: "밥"})))
}
