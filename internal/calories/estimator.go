// Package calories computes the estimated calories burned for a completed
// exercise record. Pure arithmetic; no I/O.
package calories

import (
	"math"
	"strings"

	"github.com/lifebit/noteagent/pkg/models"
)

// NominalBodyWeightKg substitutes for the weight of bodyweight exercises.
// The stored record keeps weight null; the substitution exists only here.
const NominalBodyWeightKg = 70.0

const (
	strengthWorkFactor  = 0.045 // kcal per kg-set-rep
	strengthMinuteRate  = 5.0
	minStrengthMinutes  = 30.0
	minutesPerSet       = 3.0
	defaultCardioPerMin = 7.5
)

// cardioRates maps exercise-name keywords to kcal per minute.
var cardioRates = []struct {
	keywords []string
	perMin   float64
}{
	{[]string{"달리기", "조깅", "런닝", "러닝"}, 10.5},
	{[]string{"걷기", "워킹", "산책"}, 4.5},
	{[]string{"수영"}, 11.0},
	{[]string{"자전거", "사이클"}, 7.5},
}

// Estimate returns the estimated kcal burned for a complete exercise record,
// rounded to one decimal place. Diet records yield 0.
func Estimate(r *models.PartialRecord) float64 {
	if r == nil || !r.Kind.IsExercise() {
		return 0
	}

	if r.Kind == models.KindCardio {
		return round1(cardio(r))
	}
	return round1(strength(r))
}

func cardio(r *models.PartialRecord) float64 {
	duration, _ := r.Float(models.FieldDurationMin)
	name, _ := r.Text(models.FieldExerciseName)
	return duration * cardioRate(name)
}

func cardioRate(name string) float64 {
	n := strings.ToLower(name)
	for _, entry := range cardioRates {
		for _, kw := range entry.keywords {
			if strings.Contains(n, kw) {
				return entry.perMin
			}
		}
	}
	return defaultCardioPerMin
}

func strength(r *models.PartialRecord) float64 {
	weight, ok := r.Float(models.FieldWeightKg)
	if !ok || r.Kind == models.KindStrengthBodyweight {
		weight = NominalBodyWeightKg
	}
	sets, _ := r.Float(models.FieldSets)
	reps, _ := r.Float(models.FieldReps)

	minutes, ok := r.Float(models.FieldDurationMin)
	if !ok || minutes <= 0 {
		minutes = math.Max(minStrengthMinutes, sets*minutesPerSet)
	}

	return weight*sets*reps*strengthWorkFactor + minutes*strengthMinuteRate
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
