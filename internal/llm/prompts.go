package llm

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tiktoken-go/tokenizer"

	"github.com/lifebit/noteagent/pkg/models"
)

// StrictJSONInstruction is the system prompt for the one-shot reparse retry
// after the model returned something that was not valid JSON.
const StrictJSONInstruction = "당신은 반드시 JSON 형식으로만 응답해야 합니다. " +
	"코드블록과 설명 없이 JSON 객체 하나만 출력하세요."

const extractionHeader = `당신은 LifeBit의 기록 AI 어시스턴트입니다.
사용자와의 대화에서 기록 정보를 수집합니다.

규칙:
- 모든 응답은 반드시 JSON 객체 하나뿐이어야 합니다. 일반 텍스트 응답 금지.
- 이미 수집된 필드는 절대 다시 묻지 말고 그 값을 그대로 유지하세요.
- 누락된 정보는 한 번에 하나씩만 질문하세요.
- 숫자 0을 기본값으로 채우지 마세요. 사용자가 말한 값만 사용하세요.

응답 형식:
{
  "response_type": "extraction|validation|confirmation",
  "system_message": {"data": { ... }, "missing_fields": [ ... ]},
  "user_message": {"text": "사용자에게 보여줄 자연어 메시지"}
}
`

const exerciseFields = `수집할 필드 (운동):
- exercise_name: 운동명 (필수)
- category: "근력운동" 또는 "유산소" (자체 판단)
- subcategory: "가슴","등","하체","어깨","팔","복근" 또는 "유산소" (자체 판단)
- weight_kg: 무게(kg). 맨몸운동과 유산소는 null.
- sets, reps: 세트와 횟수. 유산소는 null.
- duration_min: 운동시간(분)
`

const dietFields = `수집할 필드 (식단):
- food_name: 음식명 (필수)
- amount_text: 섭취량 표현 ("1공기", "2개", "1인분" 등)
- meal_time: "아침","점심","저녁","야식","간식" 중 하나
- 한 문장에 여러 음식이 나오면 data를 음식별 객체의 배열로 반환하세요.
`

// BuildExtractionPrompt builds the system prompt for one extraction turn,
// embedding the already-collected record so the model can see what not to ask
// again. The merge step enforces that independently.
func BuildExtractionPrompt(record *models.PartialRecord, diet bool) string {
	var sb strings.Builder
	sb.WriteString(extractionHeader)
	if diet {
		sb.WriteString(dietFields)
	} else {
		sb.WriteString(exerciseFields)
	}

	if record != nil && len(record.Fields) > 0 {
		collected, err := json.MarshalIndent(record.Fields, "", "  ")
		if err == nil {
			sb.WriteString("\n현재 수집된 데이터:\n")
			sb.Write(collected)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// BuildGramsPrompt asks for a single gram number for an ambiguous amount.
func BuildGramsPrompt(foodName, amountText string) string {
	return fmt.Sprintf(
		"음식 '%s'의 섭취량 '%s'는 몇 그램인가요? 숫자 하나만 출력하세요. 단위나 설명 금지.",
		foodName, amountText)
}

// BuildNutritionPrompt asks for per-100g macros as a JSON object.
func BuildNutritionPrompt(foodName string) string {
	return fmt.Sprintf(
		`음식 '%s'의 100g당 영양성분을 JSON으로만 출력하세요: {"calories":0,"carbs":0,"protein":0,"fat":0}`,
		foodName)
}

// DefaultHistoryTokenBudget bounds the conversation tail sent to the model.
const DefaultHistoryTokenBudget = 1500

// TrimHistory keeps the most recent messages whose combined token count fits
// the budget. Counting falls back to a byte heuristic if the tokenizer cannot
// be loaded.
func TrimHistory(messages []Message, budget int) []Message {
	if budget <= 0 {
		budget = DefaultHistoryTokenBudget
	}

	count := func(s string) int { return len(s) / 3 }
	if enc, err := tokenizer.Get(tokenizer.Cl100kBase); err == nil {
		count = func(s string) int {
			ids, _, err := enc.Encode(s)
			if err != nil {
				return len(s) / 3
			}
			return len(ids)
		}
	}

	total := 0
	start := len(messages)
	for i := len(messages) - 1; i >= 0; i-- {
		total += count(messages[i].Content)
		if total > budget {
			break
		}
		start = i
	}
	return messages[start:]
}
