// Package normalize converts colloquial Korean quantity expressions into gram
// estimates and canonicalizes exercise names for catalog resolution.
package normalize

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lifebit/noteagent/internal/llm"
	"github.com/lifebit/noteagent/pkg/models"
)

// Gram bounds and fallbacks. An LLM answer outside (MinGrams, MaxGrams] is
// rejected in favor of the fallback constants.
const (
	MinGrams          = 1.0
	MaxGrams          = 2000.0
	DefaultGrams      = 180.0
	SideDishGrams     = 50.0
	NominalCupGrams   = 240.0
	NominalGlassGrams = 200.0
	NominalRiceBowl   = 210.0
)

// fixedUnits are measurement tokens with a single gram value per count.
var fixedUnits = map[string]float64{
	"공기": NominalRiceBowl,
	"컵":  NominalCupGrams,
	"잔":  NominalGlassGrams,
}

// foodGrams is the known-food table: canonical grams for one count of the
// item, multiplied by the leading numeral in the amount text.
var foodGrams = map[string]float64{
	"밥":     210,
	"공기밥":   210,
	"현미밥":   210,
	"계란":    60,
	"달걀":    60,
	"계란후라이": 60,
	"국":     250,
	"찌개":    300,
	"빵":     80,
	"식빵":    35,
	"우유":    200,
	"주스":    200,
	"음료":    200,
	"콜라":    250,
	"사과":    200,
	"바나나":   120,
	"귤":     80,
	"토마토":   150,
	"고구마":   130,
	"감자":    140,
}

// sideDishFoods get the smaller 50g fallback when the model cannot resolve an
// ambiguous amount.
var sideDishFoods = []string{
	"김치", "깍두기", "나물", "무침", "장아찌", "멸치", "젓갈", "반찬",
}

// ambiguousUnits are countable tokens whose gram value depends on the food;
// these are delegated to the model with a constrained single-number prompt.
var ambiguousUnits = []string{
	"개", "인분", "스푼", "숟가락", "큰술", "캔", "병", "쪽", "알", "줌",
}

// GramEstimator resolves amount expressions to grams. The model client is
// optional; without it ambiguous amounts go straight to the fallbacks.
type GramEstimator struct {
	client    llm.Client
	overrides *Overrides
}

// NewGramEstimator returns an estimator backed by the given model client.
func NewGramEstimator(client llm.Client, overrides *Overrides) *GramEstimator {
	return &GramEstimator{client: client, overrides: overrides}
}

// EstimateGrams converts amountText for foodName into grams. It never fails:
// any model error or out-of-bounds answer degrades to a deterministic
// fallback. The result is always within (0, MaxGrams].
func (e *GramEstimator) EstimateGrams(ctx context.Context, foodName, amountText string) float64 {
	food := strings.TrimSpace(foodName)
	amount := strings.TrimSpace(amountText)
	count := leadingCount(amount)

	// 1. Explicit gram or milliliter literal passes through.
	if g, ok := literalGrams(amount); ok {
		return clampGrams(g)
	}

	// 2. Fixed-gram measurement units.
	for unit, grams := range e.unitTable() {
		if strings.Contains(amount, unit) {
			return clampGrams(count * grams)
		}
	}

	// 3. Known-food lookup, count multiplied.
	if grams, ok := e.lookupFood(food); ok {
		return clampGrams(count * grams)
	}

	// 4. Ambiguous countable unit or bare number: ask the model for a single
	// gram figure, clamped hard.
	if e.isAmbiguous(amount) {
		if grams, ok := e.askModel(ctx, food, amount); ok {
			return clampGrams(grams)
		}
		fb := e.fallbackFor(food)
		log.Info().
			Str("food", food).
			Str("amount", amountText).
			Str("rule", "ambiguous_fallback").
			Float64("grams", fb).
			Msg("amount normalization fell back")
		return fb
	}

	// 5. Class-dependent unit multipliers.
	if grams, ok := classUnitGrams(food, amount); ok {
		return clampGrams(count * grams)
	}

	// 6. Nothing matched.
	log.Info().
		Str("food", food).
		Str("amount", amountText).
		Str("rule", "default").
		Float64("grams", DefaultGrams).
		Msg("amount normalization fell back")
	return DefaultGrams
}

func (e *GramEstimator) unitTable() map[string]float64 {
	if e.overrides != nil {
		if units := e.overrides.Units(); len(units) > 0 {
			merged := make(map[string]float64, len(fixedUnits)+len(units))
			for k, v := range fixedUnits {
				merged[k] = v
			}
			for k, v := range units {
				merged[k] = v
			}
			return merged
		}
	}
	return fixedUnits
}

func (e *GramEstimator) lookupFood(food string) (float64, bool) {
	if e.overrides != nil {
		if g, ok := e.overrides.Food(food); ok {
			return g, true
		}
	}
	if g, ok := foodGrams[food]; ok {
		return g, true
	}
	// Substring match covers compounds like "삶은 계란".
	for name, g := range foodGrams {
		if len(name) >= 3 && strings.Contains(food, name) {
			return g, true
		}
	}
	return 0, false
}

func (e *GramEstimator) isAmbiguous(amount string) bool {
	if amount == "" {
		return false
	}
	if _, err := strconv.ParseFloat(amount, 64); err == nil {
		return true // bare number
	}
	for _, unit := range ambiguousUnits {
		if strings.Contains(amount, unit) {
			return true
		}
	}
	return false
}

// askModel requests a single gram number. Any error, non-numeric answer, or
// out-of-bounds value is rejected; the caller falls back.
func (e *GramEstimator) askModel(ctx context.Context, food, amount string) (float64, bool) {
	if e.client == nil {
		return 0, false
	}
	raw, err := e.client.Chat(ctx, "숫자 하나만 출력하세요.", []llm.Message{
		{Role: "user", Content: llm.BuildGramsPrompt(food, amount)},
	})
	if err != nil {
		log.Warn().Err(err).Str("food", food).Str("amount", amount).Msg("gram estimation model call failed")
		return 0, false
	}
	grams, ok := models.LeadingNumber(strings.TrimSpace(raw))
	if !ok || grams <= MinGrams || grams > MaxGrams {
		return 0, false
	}
	log.Info().
		Str("food", food).
		Str("amount", amount).
		Str("rule", "llm").
		Float64("grams", grams).
		Msg("amount resolved by model")
	return grams, true
}

func (e *GramEstimator) fallbackFor(food string) float64 {
	for _, side := range sideDishFoods {
		if strings.Contains(food, side) {
			return SideDishGrams
		}
	}
	return DefaultGrams
}

// literalGrams parses "5g", "150 g", "200ml" style amounts.
func literalGrams(amount string) (float64, bool) {
	lower := strings.ToLower(strings.ReplaceAll(amount, " ", ""))
	for _, suffix := range []string{"g", "ml", "그램", "밀리리터", "cc"} {
		if strings.HasSuffix(lower, suffix) {
			n, ok := models.LeadingNumber(strings.TrimSuffix(lower, suffix))
			if ok && n > 0 {
				return n, true
			}
		}
	}
	return 0, false
}

// classUnitGrams covers units whose weight depends on the food class.
func classUnitGrams(food, amount string) (float64, bool) {
	switch {
	case strings.Contains(amount, "그릇"):
		switch {
		case containsAny(food, "국수", "라면", "면", "우동", "파스타"):
			return 350, true
		case containsAny(food, "국", "탕", "찌개"):
			return 350, true
		case containsAny(food, "밥"):
			return NominalRiceBowl, true
		}
		return 250, true
	case strings.Contains(amount, "접시"):
		switch {
		case containsAny(food, sideDishFoods...):
			return 50, true
		case containsAny(food, "고기", "삼겹살", "불고기"):
			return 200, true
		}
		return 150, true
	case strings.Contains(amount, "조각"):
		switch {
		case containsAny(food, "피자"):
			return 150, true
		case containsAny(food, "케이크", "케익"):
			return 80, true
		case containsAny(food, "빵"):
			return 35, true
		}
		return 50, true
	case strings.Contains(amount, "장"):
		return 30, true
	}
	return 0, false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// leadingCount extracts the count prefix of an amount expression. "반" means
// half; no numeral means one.
func leadingCount(amount string) float64 {
	if strings.HasPrefix(amount, "반") {
		return 0.5
	}
	if n, ok := models.LeadingNumber(amount); ok && n > 0 {
		return n
	}
	return 1
}

func clampGrams(g float64) float64 {
	if g <= 0 {
		return DefaultGrams
	}
	if g > MaxGrams {
		return MaxGrams
	}
	return g
}
