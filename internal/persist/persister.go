// Package persist turns a confirmed record into database rows. It resolves
// catalog entries on demand and never fails a save on a soft concern like
// nutrition lookup; only missing identity or database errors surface.
package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lifebit/noteagent/internal/calories"
	db "github.com/lifebit/noteagent/internal/db/gorm"
	"github.com/lifebit/noteagent/internal/normalize"
	"github.com/lifebit/noteagent/internal/nutrition"
	"github.com/lifebit/noteagent/internal/schema"
	"github.com/lifebit/noteagent/pkg/models"
)

// ErrMissingUser is returned when a save is attempted without a user ID.
var ErrMissingUser = errors.New("persist: missing user id")

// DefaultMealTime is used when the user never said when they ate.
const DefaultMealTime = "간식"

var mealTimes = map[string]bool{
	"아침": true, "점심": true, "저녁": true, "야식": true, "간식": true,
}

// bodyParts maps the Korean subcategory vocabulary onto catalog body parts.
var bodyParts = map[string]string{
	"가슴":  "chest",
	"등":   "back",
	"하체":  "legs",
	"어깨":  "shoulders",
	"팔":   "arms",
	"복근":  "abs",
	"유산소": "cardio",
}

// Saved describes what a successful save wrote.
type Saved struct {
	ExerciseSessionID int64
	MealLogIDs        []int64
	CaloriesBurned    float64
	TotalCalories     float64
	TotalGrams        float64
	// FailedFoods names the foods of a multi-food record that could not be
	// written. The save still counts when at least one food was.
	FailedFoods []string
}

// Persister writes confirmed records.
type Persister struct {
	exercises *db.ExerciseStore
	meals     *db.MealStore
	grams     *normalize.GramEstimator
	nutrition *nutrition.Lookup
}

// New creates a persister over the given stores and resolvers.
func New(exercises *db.ExerciseStore, meals *db.MealStore, grams *normalize.GramEstimator, lookup *nutrition.Lookup) *Persister {
	return &Persister{exercises: exercises, meals: meals, grams: grams, nutrition: lookup}
}

// Save writes the record for the user and returns what was written.
func (p *Persister) Save(ctx context.Context, userID int64, record *models.PartialRecord) (*Saved, error) {
	if userID == 0 {
		return nil, ErrMissingUser
	}
	if record == nil || record.Empty() {
		return nil, fmt.Errorf("persist: empty record")
	}

	if record.Kind == models.KindDiet {
		return p.saveDiet(ctx, userID, record)
	}
	return p.saveExercise(ctx, userID, record)
}

func (p *Persister) saveExercise(ctx context.Context, userID int64, record *models.PartialRecord) (*Saved, error) {
	name, _ := record.Text(models.FieldExerciseName)
	if name == "" {
		return nil, fmt.Errorf("persist: exercise record without a name")
	}

	// Excluded fields may have slipped in from a chatty extraction; null them
	// before they reach a row.
	if violations := schema.ApplyExclusions(record.Kind, record); len(violations) > 0 {
		log.Debug().Strs("fields", violations).Msg("cleared excluded fields before save")
	}

	normalized := normalize.ExerciseName(name)
	bodyPart := resolveBodyPart(record)
	exerciseType := "strength"
	if record.Kind == models.KindCardio {
		exerciseType = "cardio"
	}

	catalog, err := p.exercises.GetOrCreateCatalog(ctx, normalized, bodyPart, exerciseType)
	if err != nil {
		return nil, fmt.Errorf("resolve exercise catalog: %w", err)
	}

	burned := calories.Estimate(record)

	session := &db.ExerciseSession{
		UserID:            userID,
		ExerciseCatalogID: catalog.ExerciseCatalogID,
		Notes:             name,
		CaloriesBurned:    db.NullFloat64(burned),
		ExerciseDate:      time.Now().Format("2006-01-02"),
	}
	if v, ok := record.Int(models.FieldDurationMin); ok {
		session.DurationMinutes = db.NullInt64(int64(v))
	}

	if catalog.BodyPart == "cardio" {
		// Rows on a cardio catalog entry carry a nominal single set and no
		// load, even when the record itself was classified as strength.
		session.Sets = db.NullInt64(1)
	} else {
		if v, ok := record.Int(models.FieldSets); ok {
			session.Sets = db.NullInt64(int64(v))
		}
		if v, ok := record.Int(models.FieldReps); ok {
			session.Reps = db.NullInt64(int64(v))
		}
		if record.Kind == models.KindStrengthEquipment {
			if v, ok := record.Float(models.FieldWeightKg); ok {
				session.Weight = db.NullFloat64(v)
			}
		}
	}

	id, err := p.exercises.InsertSession(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("insert exercise session: %w", err)
	}

	log.Info().
		Int64("user_id", userID).
		Int64("session_id", id).
		Str("exercise", normalized).
		Float64("calories_burned", burned).
		Msg("exercise record saved")

	return &Saved{ExerciseSessionID: id, CaloriesBurned: burned}, nil
}

func (p *Persister) saveDiet(ctx context.Context, userID int64, record *models.PartialRecord) (*Saved, error) {
	mealTime, _ := record.Text(models.FieldMealTime)
	if !mealTimes[mealTime] {
		mealTime = DefaultMealTime
	}
	logDate := time.Now().Format("2006-01-02")

	foods := make([]models.FieldMap, 0, 1+len(record.ExtraFoods))
	foods = append(foods, record.Fields)
	foods = append(foods, record.ExtraFoods...)

	// One bad food must not sink the rest of the meal; failures are collected
	// and the save counts as long as one row was written.
	saved := &Saved{}
	var firstErr error
	for _, fields := range foods {
		name, _ := models.AsText(fields[models.FieldFoodName])
		if name == "" {
			continue
		}
		amount, _ := models.AsText(fields[models.FieldAmountText])

		item, err := p.resolveFood(ctx, name)
		if err != nil {
			log.Warn().Err(err).Str("food", name).Msg("food resolution failed, skipping")
			saved.FailedFoods = append(saved.FailedFoods, name)
			if firstErr == nil {
				firstErr = fmt.Errorf("resolve food %q: %w", name, err)
			}
			continue
		}

		grams := p.grams.EstimateGrams(ctx, name, amount)
		scale := grams / 100

		entry := &db.MealLog{
			UserID:     userID,
			FoodItemID: item.FoodItemID,
			Quantity:   grams,
			MealTime:   mealTime,
			LogDate:    logDate,
			Calories:   round1(item.Calories * scale),
			Carbs:      round1(item.Carbs * scale),
			Protein:    round1(item.Protein * scale),
			Fat:        round1(item.Fat * scale),
		}
		id, err := p.meals.InsertMealLog(ctx, entry)
		if err != nil {
			log.Warn().Err(err).Str("food", name).Msg("meal log insert failed, skipping")
			saved.FailedFoods = append(saved.FailedFoods, name)
			if firstErr == nil {
				firstErr = fmt.Errorf("insert meal log for %q: %w", name, err)
			}
			continue
		}

		saved.MealLogIDs = append(saved.MealLogIDs, id)
		saved.TotalCalories += entry.Calories
		saved.TotalGrams += grams

		log.Info().
			Int64("user_id", userID).
			Int64("meal_log_id", id).
			Str("food", item.Name).
			Float64("grams", grams).
			Float64("calories", entry.Calories).
			Msg("diet record saved")
	}

	if len(saved.MealLogIDs) == 0 {
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, fmt.Errorf("persist: diet record without a food name")
	}
	saved.TotalCalories = round1(saved.TotalCalories)
	return saved, nil
}

// resolveFood finds a food item by exact then substring match, creating one
// from a nutrition lookup when the table has never seen it.
func (p *Persister) resolveFood(ctx context.Context, name string) (*db.FoodItem, error) {
	item, err := p.meals.FindFoodExact(ctx, name)
	if err != nil {
		return nil, err
	}
	if item != nil {
		return item, nil
	}

	item, err = p.meals.FindFoodFuzzy(ctx, name)
	if err != nil {
		return nil, err
	}
	if item != nil {
		return item, nil
	}

	facts, source := p.nutrition.Facts(ctx, name)
	created, err := p.meals.CreateFood(ctx, &db.FoodItem{
		Name:     name,
		Calories: facts.Calories,
		Carbs:    facts.Carbs,
		Protein:  facts.Protein,
		Fat:      facts.Fat,
		Source:   db.NullString(source),
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// resolveBodyPart maps the record's subcategory onto a catalog body part.
// Cardio records and unknown subcategories land on "cardio".
func resolveBodyPart(record *models.PartialRecord) string {
	if record.Kind == models.KindCardio {
		return "cardio"
	}
	sub, _ := record.Text(models.FieldSubcategory)
	if part, ok := bodyParts[sub]; ok {
		return part
	}
	return "cardio"
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
