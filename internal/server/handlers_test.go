// Package server exposes the conversation engine over HTTP.
package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	db "github.com/lifebit/noteagent/internal/db/gorm"
	"github.com/lifebit/noteagent/internal/llm"
	"github.com/lifebit/noteagent/internal/normalize"
	"github.com/lifebit/noteagent/internal/nutrition"
	"github.com/lifebit/noteagent/internal/persist"
	"github.com/lifebit/noteagent/internal/session"
)

// scriptedModel returns canned replies in order, repeating the last one.
type scriptedModel struct {
	replies []string
	calls   int
}

func (s *scriptedModel) Chat(_ context.Context, _ string, _ []llm.Message) (string, error) {
	reply := s.replies[min(s.calls, len(s.replies)-1)]
	s.calls++
	return reply, nil
}

func testService(t *testing.T, model llm.Client) (*Service, *db.Store) {
	t.Helper()

	store, err := db.NewStore(db.Config{
		Path:     filepath.Join(t.TempDir(), "test.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	persister := persist.New(
		db.NewExerciseStore(store),
		db.NewMealStore(store),
		normalize.NewGramEstimator(nil, nil),
		nutrition.NewLookup(nil, nil),
	)
	engine := session.NewEngine(model, persister)
	return New(engine, store), store
}

func postChat(t *testing.T, svc *Service, body any) (*httptest.ResponseRecorder, chatResponse) {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	svc.router.ServeHTTP(rec, req)

	var resp chatResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestHealth(t *testing.T) {
	svc, _ := testService(t, &scriptedModel{replies: []string{"{}"}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	svc.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestChat_MissingUser(t *testing.T) {
	svc, _ := testService(t, &scriptedModel{replies: []string{"{}"}})

	rec, _ := postChat(t, svc, map[string]any{"message": "안녕하세요"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_InvalidBody(t *testing.T) {
	svc, _ := testService(t, &scriptedModel{replies: []string{"{}"}})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	svc.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_FullConversation(t *testing.T) {
	model := &scriptedModel{replies: []string{
		`{"system_message":{"data":{"exercise_name":"달리기","duration_min":30}}}`,
	}}
	svc, store := testService(t, model)

	// Turn 1: extraction completes the cardio record
	rec, resp := postChat(t, svc, map[string]any{
		"user_id": 1, "message": "달리기 30분 했어요", "kind": "exercise",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "confirmation", resp.State)
	require.NotNil(t, resp.Record)

	// Turn 2: the client round-trips state and record
	rec, resp = postChat(t, svc, map[string]any{
		"user_id": 1, "message": "저장", "state": resp.State, "record": resp.Record,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "complete", resp.State)
	require.NotNil(t, resp.Saved)
	assert.Equal(t, 315.0, resp.Saved.CaloriesBurned)

	var n int64
	store.DB.Model(&db.ExerciseSession{}).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestChat_KoreanKindTag(t *testing.T) {
	model := &scriptedModel{replies: []string{
		`{"system_message":{"data":{"food_name":"밥","amount_text":"1공기","meal_time":"점심"}}}`,
	}}
	svc, _ := testService(t, model)

	rec, resp := postChat(t, svc, map[string]any{
		"user_id": 1, "message": "점심에 밥 한 공기 먹었어", "kind": "식단",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "confirmation", resp.State)
	assert.Equal(t, "diet", string(resp.Record.Kind))
}

func TestExerciseDaily(t *testing.T) {
	svc, store := testService(t, &scriptedModel{replies: []string{"{}"}})
	ctx := context.Background()

	es := db.NewExerciseStore(store)
	catalog, err := es.GetOrCreateCatalog(ctx, "달리기", "cardio", "cardio")
	require.NoError(t, err)
	_, err = es.InsertSession(ctx, &db.ExerciseSession{
		UserID:            1,
		ExerciseCatalogID: catalog.ExerciseCatalogID,
		Notes:             "달리기",
		DurationMinutes:   db.NullInt64(30),
		CaloriesBurned:    db.NullFloat64(315),
		ExerciseDate:      "2026-08-31",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/exercise/daily?user_id=1&date=2026-08-31", nil)
	rec := httptest.NewRecorder()
	svc.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "달리기")
	assert.Contains(t, rec.Body.String(), "315")
}

func TestDietDaily(t *testing.T) {
	svc, store := testService(t, &scriptedModel{replies: []string{"{}"}})
	ctx := context.Background()

	ms := db.NewMealStore(store)
	item, err := ms.CreateFood(ctx, &db.FoodItem{Name: "밥", Calories: 130, Carbs: 28, Protein: 2.7, Fat: 0.3})
	require.NoError(t, err)
	_, err = ms.InsertMealLog(ctx, &db.MealLog{
		UserID:     1,
		FoodItemID: item.FoodItemID,
		Quantity:   210,
		MealTime:   "점심",
		LogDate:    "2026-08-31",
		Calories:   273,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/diet/daily?user_id=1&date=2026-08-31", nil)
	rec := httptest.NewRecorder()
	svc.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_calories":273`)
	assert.Contains(t, rec.Body.String(), "점심")
}

func TestDaily_ParamValidation(t *testing.T) {
	svc, _ := testService(t, &scriptedModel{replies: []string{"{}"}})

	tests := []struct {
		name string
		url  string
		code int
	}{
		{"missing user", "/api/exercise/daily", http.StatusBadRequest},
		{"bad user", "/api/exercise/daily?user_id=abc", http.StatusBadRequest},
		{"bad date", "/api/diet/daily?user_id=1&date=today", http.StatusBadRequest},
		{"default date", "/api/diet/daily?user_id=1", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			rec := httptest.NewRecorder()
			svc.router.ServeHTTP(rec, req)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}
