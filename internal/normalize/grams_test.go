package normalize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifebit/noteagent/internal/llm"
)

// fakeModel returns a fixed reply or error for every chat call.
type fakeModel struct {
	reply string
	err   error
	calls int
}

func (f *fakeModel) Chat(_ context.Context, _ string, _ []llm.Message) (string, error) {
	f.calls++
	return f.reply, f.err
}

func TestEstimateGrams_Deterministic(t *testing.T) {
	e := NewGramEstimator(nil, nil)
	ctx := context.Background()

	tests := []struct {
		food   string
		amount string
		want   float64
	}{
		{"계란", "2개", 120},         // known food, count multiplied
		{"밥", "1공기", 210},         // fixed unit
		{"밥", "반공기", 105},         // half-count prefix
		{"김치찌개", "5g", 5},         // gram literal passes through
		{"우유", "200ml", 200},      // milliliter literal
		{"커피", "1잔", 200},         // fixed unit
		{"미숫가루", "1컵", 240},       // fixed unit
		{"라면", "1그릇", 350},        // class-dependent bowl
		{"비빔밥", "2그릇", 420},       // food table substring, counted
		{"삼겹살", "1접시", 200},       // meat plate
		{"김치", "1접시", 50},         // side-dish plate
		{"피자", "1조각", 150},        // food-specific slice
		{"치즈", "2장", 60},          // sheet unit
		{"정체불명음식", "조금", 180},     // nothing matches
		{"삶은 계란", "3개", 180},      // substring food match (60 x 3)
	}

	for _, tt := range tests {
		t.Run(tt.food+"_"+tt.amount, func(t *testing.T) {
			got := e.EstimateGrams(ctx, tt.food, tt.amount)
			assert.Equal(t, tt.want, got)
			assert.Greater(t, got, 0.0)
			assert.LessOrEqual(t, got, MaxGrams)
		})
	}
}

func TestEstimateGrams_AmbiguousDelegatesToModel(t *testing.T) {
	f := &fakeModel{reply: "85"}
	e := NewGramEstimator(f, nil)

	got := e.EstimateGrams(context.Background(), "호두과자", "5개")
	assert.Equal(t, 85.0, got)
	assert.Equal(t, 1, f.calls)
}

func TestEstimateGrams_ModelFailureFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeModel
		food  string
		want  float64
	}{
		{"error", &fakeModel{err: errors.New("timeout")}, "호두과자", DefaultGrams},
		{"non numeric", &fakeModel{reply: "대략 한 줌 정도요"}, "호두과자", DefaultGrams},
		{"below bound", &fakeModel{reply: "0.5"}, "호두과자", DefaultGrams},
		{"above bound", &fakeModel{reply: "99999"}, "호두과자", DefaultGrams},
		{"side dish fallback", &fakeModel{err: errors.New("timeout")}, "멸치볶음 반찬", SideDishGrams},
		{"no client", nil, "호두과자", DefaultGrams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e *GramEstimator
			if tt.model == nil {
				e = NewGramEstimator(nil, nil)
			} else {
				e = NewGramEstimator(tt.model, nil)
			}
			got := e.EstimateGrams(context.Background(), tt.food, "2개")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEstimateGrams_BareNumberIsAmbiguous(t *testing.T) {
	f := &fakeModel{reply: "300"}
	e := NewGramEstimator(f, nil)

	got := e.EstimateGrams(context.Background(), "마라탕", "2")
	assert.Equal(t, 300.0, got)
}

func TestOverridesReplaceBuiltins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portions.yaml")
	require.NoError(t, os.WriteFile(path, []byte("units:\n  공기: 300\nfoods:\n  계란: 55\n"), 0o644))

	o, err := LoadOverrides(path)
	require.NoError(t, err)

	e := NewGramEstimator(nil, o)
	ctx := context.Background()
	assert.Equal(t, 300.0, e.EstimateGrams(ctx, "밥", "1공기"))
	assert.Equal(t, 110.0, e.EstimateGrams(ctx, "계란", "2개"))
}

func TestLoadOverrides_MissingFileIsEmpty(t *testing.T) {
	o, err := LoadOverrides(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, o.Units())
	_, ok := o.Food("계란")
	assert.False(t, ok)
}

func TestExerciseName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  벤치프레스  ", "벤치프레스"},
		{"벤치 프레스", "벤치 프레스"},
		{"Bench-Press", "benchpress"},
		{"런닝", "달리기"},
		{"사이클링", "자전거"},
		{"턱걸이", "풀업"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExerciseName(tt.in))
	}
}
