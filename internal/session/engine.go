// Package session drives the slot-filling conversation: one user message in,
// one reply out, with the partial record carried by the caller between turns.
// The record is the source of truth; nothing in the model conversation history
// is authoritative.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/lifebit/noteagent/internal/llm"
	"github.com/lifebit/noteagent/internal/persist"
	"github.com/lifebit/noteagent/internal/schema"
	"github.com/lifebit/noteagent/pkg/models"
)

// State names one position in the conversation state machine.
type State string

const (
	StateExtraction   State = "extraction"
	StateValidation   State = "validation"
	StateConfirmation State = "confirmation"
	StateComplete     State = "complete"
)

// Replies that do not depend on the model.
const (
	greetingReply = "안녕하세요! 운동 기록과 식단 기록을 도와드려요. 어떤 기록을 남기시겠어요? (운동/식단)"
	apologyReply  = "죄송해요, 응답을 처리하지 못했어요. 다시 한 번 말씀해 주시겠어요?"
	savedReply    = "기록이 저장되었습니다!"
	retryReply    = "저장 중 문제가 발생했어요. 잠시 후 다시 '저장'이라고 말씀해 주세요."
)

// fieldQuestions asks for exactly one missing field per turn.
var fieldQuestions = map[string]string{
	models.FieldExerciseName: "어떤 운동을 하셨나요?",
	models.FieldSubcategory:  "어느 부위 운동인가요? (가슴/등/하체/어깨/팔/복근)",
	models.FieldWeightKg:     "몇 kg으로 하셨나요?",
	models.FieldSets:         "몇 세트 하셨나요?",
	models.FieldReps:         "한 세트에 몇 회씩 하셨나요?",
	models.FieldDurationMin:  "운동은 몇 분 동안 하셨나요?",
	models.FieldFoodName:     "어떤 음식을 드셨나요?",
	models.FieldAmountText:   "얼마나 드셨나요? (예: 1공기, 2개)",
	models.FieldMealTime:     "언제 드셨나요? (아침/점심/저녁/야식/간식)",
}

// fieldLabels are the display names used in the confirmation summary.
var fieldLabels = map[string]string{
	models.FieldExerciseName: "운동",
	models.FieldSubcategory:  "부위",
	models.FieldWeightKg:     "무게(kg)",
	models.FieldSets:         "세트",
	models.FieldReps:         "횟수",
	models.FieldDurationMin:  "시간(분)",
	models.FieldFoodName:     "음식",
	models.FieldAmountText:   "섭취량",
	models.FieldMealTime:     "식사 시간",
}

// TurnInput carries one user message plus the state the caller has been
// holding since the previous turn.
type TurnInput struct {
	UserID  int64
	Message string
	// Kind selects the record kind when a new record starts. Exercise kinds
	// are refined once the exercise name is known.
	Kind    models.RecordKind
	State   State
	Record  *models.PartialRecord
	History []llm.Message
}

// TurnResult is what the caller carries into the next turn, plus the reply to
// show the user.
type TurnResult struct {
	State  State
	Record *models.PartialRecord
	Reply  string
	Saved  *persist.Saved
}

// Engine runs the state machine. Safe for concurrent use across sessions; all
// per-conversation state lives in the TurnInput/TurnResult pair.
type Engine struct {
	client    llm.Client
	persister *persist.Persister

	turns   metric.Int64Counter
	retries metric.Int64Counter
	saves   metric.Int64Counter
}

// NewEngine creates an engine over the given model client and persister.
func NewEngine(client llm.Client, persister *persist.Persister) *Engine {
	meter := otel.Meter("noteagent/session")
	turns, _ := meter.Int64Counter("session_turns_total",
		metric.WithDescription("Total conversation turns processed"))
	retries, _ := meter.Int64Counter("session_extraction_retries_total",
		metric.WithDescription("Total extraction parse retries"))
	saves, _ := meter.Int64Counter("session_records_saved_total",
		metric.WithDescription("Total records persisted"))

	return &Engine{
		client:    client,
		persister: persister,
		turns:     turns,
		retries:   retries,
		saves:     saves,
	}
}

// Turn processes one user message. The returned record and state replace
// whatever the caller was holding. An error is returned only for client
// mistakes (missing user) and persistence failures never mutate the record.
func (e *Engine) Turn(ctx context.Context, in TurnInput) (*TurnResult, error) {
	e.turns.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(in.Kind))))

	record := in.Record
	state := in.State
	if record == nil || record.Kind == "" {
		if !in.Kind.Valid() {
			// Nothing active and no kind chosen yet; a stray "저장" after a
			// completed save lands here as a no-op.
			return &TurnResult{State: StateExtraction, Reply: greetingReply}, nil
		}
		record = models.NewPartialRecord(in.Kind)
		state = StateExtraction
	}
	if state == "" || state == StateComplete {
		state = StateExtraction
	}

	switch Classify(in.Message) {
	case DecisionAffirm:
		if schema.IsComplete(record.Kind, record) && (state == StateValidation || state == StateConfirmation) {
			return e.save(ctx, in.UserID, record)
		}
		// Affirm with an incomplete record is just more conversation.
		return e.extract(ctx, in, state, record, false)
	case DecisionReject:
		// Back to validation; the correction message may overwrite exactly
		// the fields it mentions.
		return e.extract(ctx, in, state, record, true)
	default:
		return e.extract(ctx, in, state, record, false)
	}
}

func (e *Engine) save(ctx context.Context, userID int64, record *models.PartialRecord) (*TurnResult, error) {
	saved, err := e.persister.Save(ctx, userID, record)
	if errors.Is(err, persist.ErrMissingUser) {
		return nil, err
	}
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("persist failed, staying in confirmation")
		return &TurnResult{State: StateConfirmation, Record: record, Reply: retryReply}, nil
	}

	e.saves.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(record.Kind))))

	reply := savedReply
	if record.Kind.IsExercise() && saved.CaloriesBurned > 0 {
		reply = fmt.Sprintf("기록이 저장되었습니다! 소모 칼로리는 약 %.1fkcal입니다.", saved.CaloriesBurned)
	} else if record.Kind == models.KindDiet && saved.TotalCalories > 0 {
		reply = fmt.Sprintf("기록이 저장되었습니다! 섭취 칼로리는 약 %.1fkcal입니다.", saved.TotalCalories)
	}

	// The record is spent; the caller starts the next conversation empty.
	return &TurnResult{State: StateComplete, Record: nil, Reply: reply, Saved: saved}, nil
}

func (e *Engine) extract(ctx context.Context, in TurnInput, state State, record *models.PartialRecord, overwrite bool) (*TurnResult, error) {
	extraction, err := e.askModel(ctx, in, record)
	if err != nil {
		// Hand back the record as it stands, including one freshly created
		// this turn, so the retry resumes from the same position.
		return &TurnResult{State: state, Record: record, Reply: apologyReply}, nil
	}

	hadName := record.Has(models.FieldExerciseName)
	if len(extraction.Data) > 0 {
		record.Merge(extraction.Data[0], overwrite)
		if record.Kind == models.KindDiet && len(extraction.Data) > 1 {
			record.ExtraFoods = append(record.ExtraFoods, extraction.Data[1:]...)
		}
	}
	if !hadName {
		e.refineKind(record, extraction)
	}
	schema.ApplyExclusions(record.Kind, record)

	if schema.IsComplete(record.Kind, record) {
		return &TurnResult{
			State:  StateConfirmation,
			Record: record,
			Reply:  confirmationSummary(record),
		}, nil
	}

	next, _ := schema.NextMissing(record.Kind, record)
	question, ok := fieldQuestions[next]
	if !ok {
		question = apologyReply
	}
	return &TurnResult{State: StateValidation, Record: record, Reply: question}, nil
}

// askModel runs one extraction call, retrying once with the strict JSON-only
// instruction when the reply cannot be parsed.
func (e *Engine) askModel(ctx context.Context, in TurnInput, record *models.PartialRecord) (*llm.Extraction, error) {
	system := llm.BuildExtractionPrompt(record, record.Kind == models.KindDiet)
	messages := append(llm.TrimHistory(in.History, llm.DefaultHistoryTokenBudget),
		llm.Message{Role: "user", Content: in.Message})

	reply, err := e.client.Chat(ctx, system, messages)
	if err == nil {
		if extraction, perr := llm.ParseExtraction(reply); perr == nil {
			return extraction, nil
		}
	}

	e.retries.Add(ctx, 1)
	log.Warn().Err(err).Msg("extraction unparseable, retrying with strict instruction")

	reply, err = e.client.Chat(ctx, system+"\n"+llm.StrictJSONInstruction, messages)
	if err != nil {
		return nil, err
	}
	extraction, perr := llm.ParseExtraction(reply)
	if perr != nil {
		return nil, perr
	}
	return extraction, nil
}

// refineKind settles the concrete exercise kind once the name is known. The
// caller's tag only distinguishes exercise from diet; cardio and bodyweight
// are recognized from the name and the extractor's bodyweight flag.
func (e *Engine) refineKind(record *models.PartialRecord, extraction *llm.Extraction) {
	if !record.Kind.IsExercise() {
		return
	}
	name, ok := record.Text(models.FieldExerciseName)
	if !ok {
		return
	}
	kind := schema.ClassifyExercise(name)
	if kind == models.KindStrengthEquipment && extraction.IsBodyweight != nil && *extraction.IsBodyweight {
		kind = models.KindStrengthBodyweight
	}
	record.Kind = kind
}

// confirmationSummary lists every collected field and asks for the save.
func confirmationSummary(record *models.PartialRecord) string {
	var sb strings.Builder
	sb.WriteString("수집된 내용을 확인해 주세요.\n")
	for _, name := range schema.RequiredFields(record.Kind) {
		v, ok := record.Get(name)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "- %s: %v\n", fieldLabels[name], v)
	}
	for _, extra := range record.ExtraFoods {
		if name, ok := models.AsText(extra[models.FieldFoodName]); ok && name != "" {
			amount, _ := models.AsText(extra[models.FieldAmountText])
			fmt.Fprintf(&sb, "- %s: %s %s\n", fieldLabels[models.FieldFoodName], name, amount)
		}
	}
	sb.WriteString("저장할까요? (네/아니오)")
	return sb.String()
}
