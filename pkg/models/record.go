// Package models defines the core record types shared across noteagent.
package models

import (
	"strconv"
	"strings"
)

// RecordKind identifies what kind of record a conversation is collecting.
type RecordKind string

const (
	KindStrengthEquipment  RecordKind = "strength_equipment"
	KindStrengthBodyweight RecordKind = "strength_bodyweight"
	KindCardio             RecordKind = "cardio"
	KindDiet               RecordKind = "diet"
)

// Valid reports whether k is one of the known record kinds.
func (k RecordKind) Valid() bool {
	switch k {
	case KindStrengthEquipment, KindStrengthBodyweight, KindCardio, KindDiet:
		return true
	}
	return false
}

// IsExercise reports whether k is one of the exercise kinds.
func (k RecordKind) IsExercise() bool {
	return k == KindStrengthEquipment || k == KindStrengthBodyweight || k == KindCardio
}

// Field names used in PartialRecord field maps.
const (
	FieldExerciseName   = "exercise_name"
	FieldCategory       = "category"
	FieldSubcategory    = "subcategory"
	FieldWeightKg       = "weight_kg"
	FieldSets           = "sets"
	FieldReps           = "reps"
	FieldDurationMin    = "duration_min"
	FieldCaloriesBurned = "calories_burned"

	FieldFoodName   = "food_name"
	FieldAmountText = "amount_text"
	FieldMealTime   = "meal_time"
)

// FieldMap is a mutable name -> value mapping for one record.
// A field is considered null when absent, nil, or the empty string.
type FieldMap map[string]any

// PartialRecord accumulates field values for one in-progress conversation.
// It is a value object: the caller carries it between turns and the engine
// returns the updated copy. Kind is immutable once set; clearing the kind
// means discarding the record.
type PartialRecord struct {
	Kind   RecordKind `json:"kind,omitempty"`
	Fields FieldMap   `json:"fields"`

	// ExtraFoods holds additional foods when a single diet utterance mentions
	// more than one ("식빵 1개와 계란 2개"). The primary food lives in Fields;
	// completeness is judged on the primary only.
	ExtraFoods []FieldMap `json:"extra_foods,omitempty"`
}

// NewPartialRecord returns an empty record of the given kind.
func NewPartialRecord(kind RecordKind) *PartialRecord {
	return &PartialRecord{Kind: kind, Fields: make(FieldMap)}
}

// IsNull reports whether v counts as an unset field value.
func IsNull(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s == "" || strings.EqualFold(s, "null")
	}
	return false
}

// Get returns the value for name, with ok=false when the field is null.
func (r *PartialRecord) Get(name string) (any, bool) {
	if r == nil || r.Fields == nil {
		return nil, false
	}
	v, ok := r.Fields[name]
	if !ok || IsNull(v) {
		return nil, false
	}
	return v, true
}

// Has reports whether the field holds a non-null value.
func (r *PartialRecord) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Set assigns a value, allocating the field map if needed. Null values are
// ignored so a field can never be cleared by accident; discard the whole
// record instead.
func (r *PartialRecord) Set(name string, v any) {
	if IsNull(v) {
		return
	}
	if r.Fields == nil {
		r.Fields = make(FieldMap)
	}
	r.Fields[name] = v
}

// Merge copies non-null values from src into the record. When overwrite is
// false, fields that already hold a non-null value are left untouched; this is
// the overwrite-protection invariant and it holds regardless of what the
// extraction model was instructed to do. Returns the names that changed.
func (r *PartialRecord) Merge(src FieldMap, overwrite bool) []string {
	var changed []string
	for name, v := range src {
		if IsNull(v) {
			continue
		}
		if !overwrite && r.Has(name) {
			continue
		}
		r.Set(name, v)
		changed = append(changed, name)
	}
	return changed
}

// Empty reports whether the record has no kind and no collected fields.
func (r *PartialRecord) Empty() bool {
	if r == nil {
		return true
	}
	if r.Kind != "" {
		return false
	}
	for name := range r.Fields {
		if r.Has(name) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (r *PartialRecord) Clone() *PartialRecord {
	if r == nil {
		return nil
	}
	out := &PartialRecord{Kind: r.Kind, Fields: make(FieldMap, len(r.Fields))}
	for k, v := range r.Fields {
		out.Fields[k] = v
	}
	for _, f := range r.ExtraFoods {
		cp := make(FieldMap, len(f))
		for k, v := range f {
			cp[k] = v
		}
		out.ExtraFoods = append(out.ExtraFoods, cp)
	}
	return out
}

// Text returns the field as a trimmed string.
func (r *PartialRecord) Text(name string) (string, bool) {
	v, ok := r.Get(name)
	if !ok {
		return "", false
	}
	return AsText(v)
}

// Float returns the field as a float64.
func (r *PartialRecord) Float(name string) (float64, bool) {
	v, ok := r.Get(name)
	if !ok {
		return 0, false
	}
	return AsFloat(v)
}

// Int returns the field as an int.
func (r *PartialRecord) Int(name string) (int, bool) {
	f, ok := r.Float(name)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// AsText coerces a field value to a string.
func AsText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	}
	return "", false
}

// AsFloat coerces a field value to a float64. JSON decoding yields float64 for
// numbers, but extraction output sometimes carries numerals as strings
// ("60kg", "3세트"); leading-numeral parsing covers those.
func AsFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		return LeadingNumber(t)
	}
	return 0, false
}

// LeadingNumber parses the leading numeral of a string, tolerating unit
// suffixes ("60kg", "15분", "3.5 km").
func LeadingNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	seenDot := false
	for end < len(s) {
		c := s[end]
		if c >= '0' && c <= '9' {
			end++
			continue
		}
		if c == '.' && !seenDot && end > 0 {
			seenDot = true
			end++
			continue
		}
		break
	}
	if end == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
