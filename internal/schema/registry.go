// Package schema declares the per-kind required field sets and completeness
// rules for slot-filling.
package schema

import (
	"strings"

	"github.com/lifebit/noteagent/pkg/models"
)

// kindSchema holds the static field rules for one record kind.
// The required order defines the single-field-at-a-time question sequence.
type kindSchema struct {
	required []string
	excluded []string
}

var schemas = map[models.RecordKind]kindSchema{
	models.KindStrengthEquipment: {
		required: []string{
			models.FieldExerciseName,
			models.FieldSubcategory,
			models.FieldWeightKg,
			models.FieldSets,
			models.FieldReps,
			models.FieldDurationMin,
		},
	},
	models.KindStrengthBodyweight: {
		required: []string{
			models.FieldExerciseName,
			models.FieldSubcategory,
			models.FieldSets,
			models.FieldReps,
			models.FieldDurationMin,
		},
		excluded: []string{models.FieldWeightKg},
	},
	models.KindCardio: {
		required: []string{
			models.FieldExerciseName,
			models.FieldDurationMin,
		},
		excluded: []string{models.FieldWeightKg, models.FieldSets, models.FieldReps},
	},
	models.KindDiet: {
		required: []string{
			models.FieldFoodName,
			models.FieldAmountText,
			models.FieldMealTime,
		},
	},
}

// RequiredFields returns the ordered required field names for kind.
func RequiredFields(kind models.RecordKind) []string {
	sc, ok := schemas[kind]
	if !ok {
		return nil
	}
	out := make([]string, len(sc.required))
	copy(out, sc.required)
	return out
}

// ExcludedFields returns the field names that must stay null for kind.
func ExcludedFields(kind models.RecordKind) []string {
	sc, ok := schemas[kind]
	if !ok {
		return nil
	}
	out := make([]string, len(sc.excluded))
	copy(out, sc.excluded)
	return out
}

// MissingFields returns the required fields not yet satisfied, in question
// order.
func MissingFields(kind models.RecordKind, r *models.PartialRecord) []string {
	var missing []string
	for _, name := range schemas[kind].required {
		if !r.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// NextMissing returns the first unsatisfied required field, ok=false when the
// record is complete.
func NextMissing(kind models.RecordKind, r *models.PartialRecord) (string, bool) {
	for _, name := range schemas[kind].required {
		if !r.Has(name) {
			return name, true
		}
	}
	return "", false
}

// IsComplete reports whether every required field is non-null and non-empty.
func IsComplete(kind models.RecordKind, r *models.PartialRecord) bool {
	_, more := NextMissing(kind, r)
	return !more && kind.Valid()
}

// ApplyExclusions removes collected fields that violate the kind's exclusion
// list and returns the names it cleared.
func ApplyExclusions(kind models.RecordKind, r *models.PartialRecord) []string {
	var violated []string
	for _, name := range schemas[kind].excluded {
		if r.Has(name) {
			delete(r.Fields, name)
			violated = append(violated, name)
		}
	}
	return violated
}

// Keyword lists the original service used to route an utterance to a concrete
// exercise kind. New exercise names fall through to equipment strength and the
// extraction model's category takes over.
var cardioKeywords = []string{
	"달리기", "조깅", "런닝", "워킹", "걷기", "수영", "자전거", "사이클",
	"줄넘기", "등산", "하이킹", "트레드밀", "런닝머신", "일립티컬", "스피닝",
	"로잉", "에어로빅",
}

var bodyweightKeywords = []string{
	"푸시업", "풀업", "플랭크", "크런치", "싯업", "버피",
}

// ClassifyExercise resolves an exercise name to a concrete exercise kind.
func ClassifyExercise(name string) models.RecordKind {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, kw := range cardioKeywords {
		if strings.Contains(n, kw) {
			return models.KindCardio
		}
	}
	for _, kw := range bodyweightKeywords {
		if strings.Contains(n, kw) {
			return models.KindStrengthBodyweight
		}
	}
	return models.KindStrengthEquipment
}
