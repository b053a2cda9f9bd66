package nutrition

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

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

func TestFacts_ModelAnswer(t *testing.T) {
	model := &fakeModel{reply: `{"calories":130,"carbs":28,"protein":2.7,"fat":0.3}`}
	l := NewLookup(model, nil)

	facts, source := l.Facts(context.Background(), "밥")
	assert.Equal(t, "lookup", source)
	assert.Equal(t, 130.0, facts.Calories)
	assert.Equal(t, 28.0, facts.Carbs)
	assert.Equal(t, 2.7, facts.Protein)
	assert.Equal(t, 0.3, facts.Fat)
	assert.Equal(t, 1, model.calls)
}

func TestFacts_ProseAroundJSON(t *testing.T) {
	model := &fakeModel{reply: "영양성분은 다음과 같습니다:\n```json\n{\"calories\":52,\"carbs\":14,\"protein\":0.3,\"fat\":0.2}\n```"}
	l := NewLookup(model, nil)

	facts, source := l.Facts(context.Background(), "사과")
	assert.Equal(t, "lookup", source)
	assert.Equal(t, 52.0, facts.Calories)
}

func TestFacts_Fallback(t *testing.T) {
	tests := []struct {
		name  string
		model llm.Client
	}{
		{"model error", &fakeModel{err: errors.New("timeout")}},
		{"no JSON in reply", &fakeModel{reply: "잘 모르겠습니다"}},
		{"zero calories", &fakeModel{reply: `{"calories":0,"carbs":10,"protein":1,"fat":1}`}},
		{"implausible calories", &fakeModel{reply: `{"calories":5000,"carbs":10,"protein":1,"fat":1}`}},
		{"negative macros", &fakeModel{reply: `{"calories":100,"carbs":-5,"protein":1,"fat":1}`}},
		{"nil client", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLookup(tt.model, nil)
			facts, source := l.Facts(context.Background(), "정체불명음식")
			assert.Equal(t, "fallback", source)
			assert.Equal(t, FallbackFacts, facts)
		})
	}
}

func TestFacts_EmptyName(t *testing.T) {
	model := &fakeModel{reply: `{"calories":100,"carbs":10,"protein":1,"fat":1}`}
	l := NewLookup(model, nil)

	facts, source := l.Facts(context.Background(), "  ")
	assert.Equal(t, "fallback", source)
	assert.Equal(t, FallbackFacts, facts)
	assert.Zero(t, model.calls)
}

func TestNewPool_EmptyAddr(t *testing.T) {
	assert.Nil(t, NewPool(""))
	assert.NotNil(t, NewPool("localhost:6379"))
}
