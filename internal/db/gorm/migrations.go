// Package gorm provides GORM-based database operations for noteagent.
package gorm

import (
	"fmt"
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// runMigrations runs all database migrations using gormigrate.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: Exercise tables
		{
			ID: "001_exercise_tables",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&ExerciseCatalog{}); err != nil {
					return err
				}
				return tx.AutoMigrate(&ExerciseSession{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("exercise_catalog", "exercise_sessions")
			},
		},

		// Migration 002: Diet tables
		{
			ID: "002_diet_tables",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&FoodItem{}); err != nil {
					return err
				}
				return tx.AutoMigrate(&MealLog{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("food_items", "meal_logs")
			},
		},

		// Migration 003: Seed catalog rows for the common cardio exercises so
		// first-time logs resolve without a create.
		{
			ID: "003_seed_cardio_catalog",
			Migrate: func(tx *gorm.DB) error {
				now := time.Now()
				rows := []ExerciseCatalog{
					{Name: "달리기", BodyPart: "cardio"},
					{Name: "걷기", BodyPart: "cardio"},
					{Name: "수영", BodyPart: "cardio"},
					{Name: "자전거", BodyPart: "cardio"},
				}
				for i := range rows {
					rows[i].ExerciseType = NullString("cardio")
					rows[i].CreatedAt = now.Format(time.RFC3339)
					rows[i].CreatedAtEpoch = now.UnixMilli()
				}
				return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Where("name IN ?", []string{"달리기", "걷기", "수영", "자전거"}).
					Delete(&ExerciseCatalog{}).Error
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("run gormigrate migrations: %w", err)
	}

	return nil
}
