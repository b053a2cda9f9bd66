package llm

import (
	"errors"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/lifebit/noteagent/pkg/models"
)

// ErrUnparseable is returned when no JSON object could be recovered from the
// model output.
var ErrUnparseable = errors.New("llm: response is not parseable JSON")

// Extraction is the canonical, normalized form of one extraction response.
// The historical service emitted several shapes (system_message.data vs flat
// parsed_data, a single object vs a list of foods); this adapter folds them
// all into one structure so nothing downstream depends on prompt drift.
type Extraction struct {
	ResponseType  string            // extraction | validation | confirmation
	Data          []models.FieldMap // one entry per record; diet may carry several
	MissingFields []string          // advisory only; the schema registry decides
	Message       string            // natural-language reply for the user
	IsBodyweight  *bool
}

// rawExtraction covers every observed response layout at once.
type rawExtraction struct {
	ResponseType  string          `json:"response_type"`
	ParsedData    json.RawMessage `json:"parsed_data"`
	Message       string          `json:"message"`
	MissingFields []string        `json:"missing_fields"`
	SystemMessage struct {
		Data          json.RawMessage `json:"data"`
		MissingFields []string        `json:"missing_fields"`
		UserMessage   struct {
			Text string `json:"text"`
		} `json:"user_message"`
	} `json:"system_message"`
	UserMessage struct {
		Text string `json:"text"`
	} `json:"user_message"`
}

// Canonical names for the field aliases that appeared across prompt versions.
var fieldAliases = map[string]string{
	"exercise": models.FieldExerciseName,
	"name":     models.FieldExerciseName,
	"weight":   models.FieldWeightKg,
	"amount":   models.FieldAmountText,
	"food":     models.FieldFoodName,
	"duration": models.FieldDurationMin,
}

// ParseExtraction normalizes raw model output into an Extraction.
func ParseExtraction(raw string) (*Extraction, error) {
	body := FirstJSONObject(raw)
	if body == "" {
		return nil, ErrUnparseable
	}

	var re rawExtraction
	if err := json.Unmarshal([]byte(body), &re); err != nil {
		return nil, ErrUnparseable
	}

	out := &Extraction{
		ResponseType:  re.ResponseType,
		MissingFields: re.MissingFields,
		Message:       re.Message,
	}
	if out.ResponseType == "" {
		out.ResponseType = "extraction"
	}
	if len(re.SystemMessage.MissingFields) > 0 {
		out.MissingFields = re.SystemMessage.MissingFields
	}
	if re.UserMessage.Text != "" {
		out.Message = re.UserMessage.Text
	} else if re.SystemMessage.UserMessage.Text != "" {
		out.Message = re.SystemMessage.UserMessage.Text
	}

	data := re.SystemMessage.Data
	if len(data) == 0 {
		data = re.ParsedData
	}
	maps, err := decodeDataShapes(data)
	if err != nil {
		return nil, err
	}
	for _, m := range maps {
		out.Data = append(out.Data, canonicalize(m, out))
	}
	return out, nil
}

// decodeDataShapes accepts a JSON object, a list of objects, or nothing.
func decodeDataShapes(data json.RawMessage) ([]map[string]any, error) {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "" || trimmed == "null":
		return nil, nil
	case strings.HasPrefix(trimmed, "["):
		var list []map[string]any
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, ErrUnparseable
		}
		return list, nil
	default:
		var single map[string]any
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, ErrUnparseable
		}
		return []map[string]any{single}, nil
	}
}

func canonicalize(in map[string]any, out *Extraction) models.FieldMap {
	fields := make(models.FieldMap, len(in))
	for k, v := range in {
		if k == "is_bodyweight" {
			if b, ok := v.(bool); ok {
				out.IsBodyweight = &b
			}
			continue
		}
		if canonical, ok := fieldAliases[k]; ok {
			k = canonical
		}
		fields[k] = v
	}
	return fields
}

// FirstJSONObject returns the first balanced top-level JSON object in s,
// tolerating code fences and surrounding prose.
func FirstJSONObject(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
