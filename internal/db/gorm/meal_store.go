// Package gorm provides GORM-based database operations for noteagent.
package gorm

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MealStore provides diet-related database operations using GORM.
type MealStore struct {
	db *gorm.DB
}

// NewMealStore creates a new meal store.
func NewMealStore(store *Store) *MealStore {
	return &MealStore{db: store.DB}
}

// FindFoodExact looks up a food by exact name. Returns nil when not found.
func (s *MealStore) FindFoodExact(ctx context.Context, name string) (*FoodItem, error) {
	var item FoodItem
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindFoodFuzzy looks up a food by substring match, oldest row first so the
// match is stable across calls. Returns nil when nothing matches.
func (s *MealStore) FindFoodFuzzy(ctx context.Context, name string) (*FoodItem, error) {
	var item FoodItem
	err := s.db.WithContext(ctx).
		Where("name LIKE ?", "%"+name+"%").
		Order("food_item_id ASC").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateFood stores a new food item. A concurrent create of the same name
// collapses onto the unique index and is retried as a lookup.
func (s *MealStore) CreateFood(ctx context.Context, item *FoodItem) (*FoodItem, error) {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(item).Error
	if err != nil {
		return nil, err
	}
	if item.FoodItemID != 0 {
		return item, nil
	}
	return s.FindFoodExact(ctx, item.Name)
}

// InsertMealLog stores a confirmed diet record and returns its ID.
func (s *MealStore) InsertMealLog(ctx context.Context, log *MealLog) (int64, error) {
	if err := s.db.WithContext(ctx).Create(log).Error; err != nil {
		return 0, err
	}
	return log.MealLogID, nil
}

// MealLogWithFood joins a meal log with its food item's name for display.
type MealLogWithFood struct {
	MealLog
	FoodName string
}

// LogsByDate retrieves a user's meal logs for a date (YYYY-MM-DD) with food
// names resolved, newest first.
func (s *MealStore) LogsByDate(ctx context.Context, userID int64, date string) ([]MealLogWithFood, error) {
	var logs []MealLogWithFood
	err := s.db.WithContext(ctx).
		Model(&MealLog{}).
		Select("meal_logs.*, food_items.name AS food_name").
		Joins("JOIN food_items ON food_items.food_item_id = meal_logs.food_item_id").
		Where("meal_logs.user_id = ? AND meal_logs.log_date = ?", userID, date).
		Order("meal_logs.created_at_epoch DESC").
		Scan(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
