package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/lifebit/noteagent/internal/llm"
	"github.com/lifebit/noteagent/internal/persist"
	"github.com/lifebit/noteagent/internal/session"
	"github.com/lifebit/noteagent/pkg/models"
)

// chatRequest is one conversation turn. The client carries state and record
// between turns; the server holds nothing.
type chatRequest struct {
	UserID  int64                 `json:"user_id"`
	Message string                `json:"message"`
	Kind    string                `json:"kind"` // exercise | diet | a concrete record kind
	State   string                `json:"state"`
	Record  *models.PartialRecord `json:"record"`
	History []llm.Message         `json:"history"`
}

type chatResponse struct {
	Reply  string                `json:"reply"`
	State  string                `json:"state"`
	Record *models.PartialRecord `json:"record,omitempty"`
	Saved  *persist.Saved        `json:"saved,omitempty"`
}

func (s *Service) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	result, err := s.engine.Turn(r.Context(), session.TurnInput{
		UserID:  req.UserID,
		Message: req.Message,
		Kind:    resolveKind(req.Kind),
		State:   session.State(req.State),
		Record:  req.Record,
		History: req.History,
	})
	if errors.Is(err, persist.ErrMissingUser) {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "turn failed")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Reply:  result.Reply,
		State:  string(result.State),
		Record: result.Record,
		Saved:  result.Saved,
	})
}

// resolveKind accepts the coarse exercise/diet tags the client sends on the
// first turn as well as concrete record kinds.
func resolveKind(kind string) models.RecordKind {
	switch kind {
	case "exercise", "운동":
		return models.KindStrengthEquipment
	case "diet", "식단":
		return models.KindDiet
	default:
		return models.RecordKind(kind)
	}
}

func (s *Service) handleExerciseDaily(w http.ResponseWriter, r *http.Request) {
	userID, date, ok := dailyParams(w, r)
	if !ok {
		return
	}

	sessions, err := s.exercises.SessionsByDate(r.Context(), userID, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	type entry struct {
		ID             int64    `json:"id"`
		Name           string   `json:"name"`
		Weight         *float64 `json:"weight_kg,omitempty"`
		Sets           *int64   `json:"sets,omitempty"`
		Reps           *int64   `json:"reps,omitempty"`
		DurationMin    *int64   `json:"duration_min,omitempty"`
		CaloriesBurned *float64 `json:"calories_burned,omitempty"`
	}
	out := make([]entry, 0, len(sessions))
	for _, sess := range sessions {
		e := entry{ID: sess.ExerciseSessionID, Name: sess.Notes}
		if sess.Weight.Valid {
			e.Weight = &sess.Weight.Float64
		}
		if sess.Sets.Valid {
			e.Sets = &sess.Sets.Int64
		}
		if sess.Reps.Valid {
			e.Reps = &sess.Reps.Int64
		}
		if sess.DurationMinutes.Valid {
			e.DurationMin = &sess.DurationMinutes.Int64
		}
		if sess.CaloriesBurned.Valid {
			e.CaloriesBurned = &sess.CaloriesBurned.Float64
		}
		out = append(out, e)
	}

	writeJSON(w, http.StatusOK, map[string]any{"date": date, "sessions": out})
}

func (s *Service) handleDietDaily(w http.ResponseWriter, r *http.Request) {
	userID, date, ok := dailyParams(w, r)
	if !ok {
		return
	}

	logs, err := s.meals.LogsByDate(r.Context(), userID, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	type entry struct {
		ID       int64   `json:"id"`
		Food     string  `json:"food"`
		Grams    float64 `json:"grams"`
		MealTime string  `json:"meal_time"`
		Calories float64 `json:"calories"`
		Carbs    float64 `json:"carbs"`
		Protein  float64 `json:"protein"`
		Fat      float64 `json:"fat"`
	}
	out := make([]entry, 0, len(logs))
	var total float64
	for _, l := range logs {
		out = append(out, entry{
			ID:       l.MealLogID,
			Food:     l.FoodName,
			Grams:    l.Quantity,
			MealTime: l.MealTime,
			Calories: l.Calories,
			Carbs:    l.Carbs,
			Protein:  l.Protein,
			Fat:      l.Fat,
		})
		total += l.Calories
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":           date,
		"meals":          out,
		"total_calories": total,
	})
}

// dailyParams validates user_id and date query parameters. The date defaults
// to today.
func dailyParams(w http.ResponseWriter, r *http.Request) (int64, string, bool) {
	v := r.URL.Query().Get("user_id")
	if v == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return 0, "", false
	}
	userID, err := strconv.ParseInt(v, 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return 0, "", false
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return 0, "", false
	}
	return userID, date, true
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.store.Ping(); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status": status,
		"uptime": time.Since(s.startTime).String(),
	})
}
