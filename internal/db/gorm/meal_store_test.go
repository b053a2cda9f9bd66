// Package gorm provides GORM-based database operations for noteagent.
package gorm

import (
	"context"
	"testing"
)

func TestFoodLookup(t *testing.T) {
	store := newTestStore(t)
	ms := NewMealStore(store)
	ctx := context.Background()

	item, err := ms.CreateFood(ctx, &FoodItem{
		Name:     "김치찌개",
		Calories: 90,
		Carbs:    6,
		Protein:  7,
		Fat:      4,
		Source:   NullString("lookup"),
	})
	if err != nil {
		t.Fatalf("create food: %v", err)
	}
	if item.FoodItemID == 0 {
		t.Fatal("expected non-zero food ID")
	}
	if item.ServingSize != 100 {
		t.Errorf("expected default serving size 100, got %v", item.ServingSize)
	}

	exact, err := ms.FindFoodExact(ctx, "김치찌개")
	if err != nil {
		t.Fatalf("exact lookup: %v", err)
	}
	if exact == nil || exact.FoodItemID != item.FoodItemID {
		t.Fatalf("exact lookup mismatch: %+v", exact)
	}

	// Substring match resolves to the same row
	fuzzy, err := ms.FindFoodFuzzy(ctx, "찌개")
	if err != nil {
		t.Fatalf("fuzzy lookup: %v", err)
	}
	if fuzzy == nil || fuzzy.FoodItemID != item.FoodItemID {
		t.Fatalf("fuzzy lookup mismatch: %+v", fuzzy)
	}

	missing, err := ms.FindFoodExact(ctx, "비빔밥")
	if err != nil {
		t.Fatalf("missing lookup: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown food, got %+v", missing)
	}
}

func TestCreateFoodDuplicate(t *testing.T) {
	store := newTestStore(t)
	ms := NewMealStore(store)
	ctx := context.Background()

	first, err := ms.CreateFood(ctx, &FoodItem{Name: "사과", Calories: 52, Carbs: 14, Protein: 0.3, Fat: 0.2})
	if err != nil {
		t.Fatalf("create food: %v", err)
	}

	// Second create with the same name resolves to the existing row
	second, err := ms.CreateFood(ctx, &FoodItem{Name: "사과", Calories: 60, Carbs: 15, Protein: 0.3, Fat: 0.2})
	if err != nil {
		t.Fatalf("create duplicate food: %v", err)
	}
	if second.FoodItemID != first.FoodItemID {
		t.Errorf("expected same food row, got %d and %d", first.FoodItemID, second.FoodItemID)
	}
	if second.Calories != 52 {
		t.Errorf("expected original macros to win, got calories %v", second.Calories)
	}
}

func TestInsertAndQueryMealLogs(t *testing.T) {
	store := newTestStore(t)
	ms := NewMealStore(store)
	ctx := context.Background()

	item, err := ms.CreateFood(ctx, &FoodItem{Name: "밥", Calories: 130, Carbs: 28, Protein: 2.7, Fat: 0.3})
	if err != nil {
		t.Fatalf("create food: %v", err)
	}

	log := &MealLog{
		UserID:     3,
		FoodItemID: item.FoodItemID,
		Quantity:   210,
		MealTime:   "점심",
		LogDate:    "2026-08-31",
		Calories:   273,
		Carbs:      58.8,
		Protein:    5.7,
		Fat:        0.6,
	}
	id, err := ms.InsertMealLog(ctx, log)
	if err != nil {
		t.Fatalf("insert meal log: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero meal log ID")
	}

	got, err := ms.LogsByDate(ctx, 3, "2026-08-31")
	if err != nil {
		t.Fatalf("query meal logs: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 meal log, got %d", len(got))
	}
	if got[0].FoodName != "밥" {
		t.Errorf("expected food name 밥, got %q", got[0].FoodName)
	}
	if got[0].Quantity != 210 {
		t.Errorf("expected quantity 210, got %v", got[0].Quantity)
	}
	if got[0].MealTime != "점심" {
		t.Errorf("expected meal time 점심, got %q", got[0].MealTime)
	}

	if rows, _ := ms.LogsByDate(ctx, 3, "2026-09-01"); len(rows) != 0 {
		t.Errorf("expected no logs for other date, got %d", len(rows))
	}
}
