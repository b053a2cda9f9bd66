// Package gorm provides GORM-based database operations for noteagent.
package gorm

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ExerciseStore provides exercise-related database operations using GORM.
type ExerciseStore struct {
	db *gorm.DB
}

// NewExerciseStore creates a new exercise store.
func NewExerciseStore(store *Store) *ExerciseStore {
	return &ExerciseStore{db: store.DB}
}

// GetOrCreateCatalog resolves a catalog row by normalized name and body part,
// creating it when missing. Concurrent creates of the same row collapse onto
// the unique index, so a conflict is retried as a lookup.
func (s *ExerciseStore) GetOrCreateCatalog(ctx context.Context, name, bodyPart, exerciseType string) (*ExerciseCatalog, error) {
	var row ExerciseCatalog
	err := s.db.WithContext(ctx).
		Where("name = ? AND body_part = ?", name, bodyPart).
		First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	row = ExerciseCatalog{
		Name:         name,
		BodyPart:     bodyPart,
		ExerciseType: NullString(exerciseType),
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ExerciseCatalogID != 0 {
		return &row, nil
	}

	// Lost the race, the row exists now.
	err = s.db.WithContext(ctx).
		Where("name = ? AND body_part = ?", name, bodyPart).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// InsertSession stores a confirmed exercise record and returns its ID.
func (s *ExerciseStore) InsertSession(ctx context.Context, session *ExerciseSession) (int64, error) {
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return 0, err
	}
	return session.ExerciseSessionID, nil
}

// SessionsByDate retrieves a user's exercise sessions for a date (YYYY-MM-DD),
// newest first.
func (s *ExerciseStore) SessionsByDate(ctx context.Context, userID int64, date string) ([]ExerciseSession, error) {
	var sessions []ExerciseSession
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND exercise_date = ?", userID, date).
		Order("created_at_epoch DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// CatalogByID retrieves a catalog row by ID. Returns nil when not found.
func (s *ExerciseStore) CatalogByID(ctx context.Context, id int64) (*ExerciseCatalog, error) {
	var row ExerciseCatalog
	err := s.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
