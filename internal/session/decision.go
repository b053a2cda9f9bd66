package session

import "strings"

// Decision classifies one user utterance for the confirmation step.
type Decision int

const (
	// DecisionNeutral treats the message as more field data.
	DecisionNeutral Decision = iota
	// DecisionAffirm saves the record when it is complete.
	DecisionAffirm
	// DecisionReject returns to validation for a correction.
	DecisionReject
)

// Keyword sets from the original product. Matching is literal substring,
// case-insensitive, with affirm checked before reject.
var (
	affirmTokens = []string{"네", "예", "맞아요", "저장", "기록", "완료", "끝", "ok", "yes", "y", "ㅇ"}
	rejectTokens = []string{"아니오", "수정", "바꿔", "아니야", "틀려", "no", "n", "ㄴ"}
)

// Classify maps a user message onto a confirmation decision.
func Classify(message string) Decision {
	m := strings.ToLower(strings.TrimSpace(message))
	if m == "" {
		return DecisionNeutral
	}
	for _, tok := range affirmTokens {
		if strings.Contains(m, tok) {
			return DecisionAffirm
		}
	}
	for _, tok := range rejectTokens {
		if strings.Contains(m, tok) {
			return DecisionReject
		}
	}
	return DecisionNeutral
}
