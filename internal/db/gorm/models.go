// Package gorm provides GORM-based database operations for noteagent.
package gorm

import (
	"database/sql"
	"time"

	"gorm.io/gorm"
)

// ExerciseCatalog is the canonical reference row for an exercise, deduplicated
// by normalized name and body part. Rows are created on demand when a user
// logs an exercise the catalog has not seen.
type ExerciseCatalog struct {
	ExerciseCatalogID int64          `gorm:"primaryKey;autoIncrement"`
	Name              string         `gorm:"uniqueIndex:idx_catalog_name_part,priority:1;not null"`
	BodyPart          string         `gorm:"type:text;check:body_part IN ('chest', 'back', 'legs', 'shoulders', 'arms', 'abs', 'cardio');uniqueIndex:idx_catalog_name_part,priority:2;not null"`
	ExerciseType      sql.NullString `gorm:"type:text"`
	CreatedAt         string         `gorm:"not null"`
	CreatedAtEpoch    int64          `gorm:"not null"`
}

func (ExerciseCatalog) TableName() string { return "exercise_catalog" }

// BeforeCreate hook to ensure timestamps are set.
func (c *ExerciseCatalog) BeforeCreate(tx *gorm.DB) error {
	if c.CreatedAtEpoch == 0 {
		c.CreatedAtEpoch = time.Now().UnixMilli()
	}
	if c.CreatedAt == "" {
		c.CreatedAt = time.Now().Format(time.RFC3339)
	}
	return nil
}

// ExerciseSession is one confirmed exercise record. Rows are written once and
// never mutated; a correction restarts the conversation instead.
type ExerciseSession struct {
	ExerciseSessionID int64  `gorm:"primaryKey;autoIncrement"`
	UserID            int64  `gorm:"index:idx_sessions_user_date,priority:1;not null"`
	ExerciseCatalogID int64  `gorm:"index;not null"`
	Notes             string `gorm:"type:text"` // exercise name as the user said it
	Weight            sql.NullFloat64
	Sets              sql.NullInt64
	Reps              sql.NullInt64
	DurationMinutes   sql.NullInt64
	CaloriesBurned    sql.NullFloat64
	ExerciseDate      string `gorm:"index:idx_sessions_user_date,priority:2;not null"`
	CreatedAt         string `gorm:"not null"`
	CreatedAtEpoch    int64  `gorm:"index:idx_sessions_created,sort:desc;not null"`
}

func (ExerciseSession) TableName() string { return "exercise_sessions" }

// BeforeCreate hook to ensure timestamps are set.
func (s *ExerciseSession) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if s.CreatedAtEpoch == 0 {
		s.CreatedAtEpoch = now.UnixMilli()
	}
	if s.CreatedAt == "" {
		s.CreatedAt = now.Format(time.RFC3339)
	}
	if s.ExerciseDate == "" {
		s.ExerciseDate = now.Format("2006-01-02")
	}
	return nil
}

// FoodItem is the canonical reference row for a food. Macros are stored per
// 100g regardless of how the food was logged.
type FoodItem struct {
	FoodItemID     int64          `gorm:"primaryKey;autoIncrement"`
	Name           string         `gorm:"uniqueIndex;not null"`
	ServingSize    float64        `gorm:"type:real;default:100"`
	Calories       float64        `gorm:"type:real;not null"`
	Carbs          float64        `gorm:"type:real;not null"`
	Protein        float64        `gorm:"type:real;not null"`
	Fat            float64        `gorm:"type:real;not null"`
	Source         sql.NullString `gorm:"type:text"` // 'lookup' or 'fallback'
	CreatedAt      string         `gorm:"not null"`
	CreatedAtEpoch int64          `gorm:"not null"`
}

func (FoodItem) TableName() string { return "food_items" }

// BeforeCreate hook to ensure timestamps and defaults are set.
func (f *FoodItem) BeforeCreate(tx *gorm.DB) error {
	if f.CreatedAtEpoch == 0 {
		f.CreatedAtEpoch = time.Now().UnixMilli()
	}
	if f.CreatedAt == "" {
		f.CreatedAt = time.Now().Format(time.RFC3339)
	}
	if f.ServingSize == 0 {
		f.ServingSize = 100
	}
	return nil
}

// MealLog is one confirmed diet record. Quantity is grams and the macro
// columns are already scaled to that quantity.
type MealLog struct {
	MealLogID      int64   `gorm:"primaryKey;autoIncrement"`
	UserID         int64   `gorm:"index:idx_meal_logs_user_date,priority:1;not null"`
	FoodItemID     int64   `gorm:"index;not null"`
	Quantity       float64 `gorm:"type:real;not null"`
	MealTime       string  `gorm:"type:text;check:meal_time IN ('아침', '점심', '저녁', '야식', '간식');not null"`
	LogDate        string  `gorm:"index:idx_meal_logs_user_date,priority:2;not null"`
	Calories       float64 `gorm:"type:real"`
	Carbs          float64 `gorm:"type:real"`
	Protein        float64 `gorm:"type:real"`
	Fat            float64 `gorm:"type:real"`
	CreatedAt      string  `gorm:"not null"`
	CreatedAtEpoch int64   `gorm:"index:idx_meal_logs_created,sort:desc;not null"`
}

func (MealLog) TableName() string { return "meal_logs" }

// BeforeCreate hook to ensure timestamps are set.
func (m *MealLog) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if m.CreatedAtEpoch == 0 {
		m.CreatedAtEpoch = now.UnixMilli()
	}
	if m.CreatedAt == "" {
		m.CreatedAt = now.Format(time.RFC3339)
	}
	if m.LogDate == "" {
		m.LogDate = now.Format("2006-01-02")
	}
	return nil
}
