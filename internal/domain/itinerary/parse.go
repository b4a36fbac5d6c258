package itinerary

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Rejection reasons reported by the model-output parsers. Tests assert on
// these instead of on error strings.
const (
	ReasonBadJSON        = "bad_json"
	ReasonBadShape       = "bad_shape"
	ReasonLengthMismatch = "length_mismatch"
	ReasonNameMismatch   = "name_mismatch"
)

// ParseError explains why a model response was rejected.
type ParseError struct {
	Reason string
	Detail string
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return "model output rejected: " + e.Reason
	}
	return fmt.Sprintf("model output rejected: %s (%s)", e.Reason, e.Detail)
}

// stripCodeFence removes a surrounding markdown fence, which models emit even
// when asked for bare JSON.
func stripCodeFence(raw string) string {
	sanitized := strings.TrimSpace(raw)
	sanitized = strings.TrimPrefix(sanitized, "```json")
	sanitized = strings.TrimSuffix(sanitized, "```")
	sanitized = strings.Trim(sanitized, "`")
	return strings.TrimSpace(strings.TrimPrefix(sanitized, "json"))
}

// decodeStringList accepts either a bare JSON array of strings or an object
// with exactly one key wrapping such an array.
func decodeStringList(raw string) ([]string, error) {
	sanitized := stripCodeFence(raw)
	if sanitized == "" {
		return nil, &ParseError{Reason: ReasonBadJSON, Detail: "empty response"}
	}

	if sanitized[0] == '[' {
		var items []string
		if err := json.Unmarshal([]byte(sanitized), &items); err != nil {
			return nil, &ParseError{Reason: ReasonBadJSON, Detail: err.Error()}
		}
		return cleanStrings(items), nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal([]byte(sanitized), &wrapper); err != nil {
		return nil, &ParseError{Reason: ReasonBadJSON, Detail: err.Error()}
	}
	if len(wrapper) != 1 {
		return nil, &ParseError{Reason: ReasonBadShape, Detail: fmt.Sprintf("expected one wrapping key, got %d", len(wrapper))}
	}
	for _, inner := range wrapper {
		var items []string
		if err := json.Unmarshal(inner, &items); err != nil {
			return nil, &ParseError{Reason: ReasonBadShape, Detail: "wrapped value is not a string array"}
		}
		return cleanStrings(items), nil
	}
	return nil, &ParseError{Reason: ReasonBadShape}
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if clean := strings.TrimSpace(item); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

// scheduleEntry is one rescheduled activity returned by the model.
type scheduleEntry struct {
	Name      string `json:"name"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// decodeSchedule validates a rescheduling response against the original
// activity names. The whole response is rejected unless lengths match and the
// names correspond exactly (order insensitive).
func decodeSchedule(raw string, originalNames []string) ([]scheduleEntry, error) {
	sanitized := stripCodeFence(raw)
	var entries []scheduleEntry
	if err := json.Unmarshal([]byte(sanitized), &entries); err != nil {
		return nil, &ParseError{Reason: ReasonBadJSON, Detail: err.Error()}
	}
	if len(entries) != len(originalNames) {
		return nil, &ParseError{
			Reason: ReasonLengthMismatch,
			Detail: fmt.Sprintf("expected %d entries, got %d", len(originalNames), len(entries)),
		}
	}

	remaining := make(map[string]int, len(originalNames))
	for _, name := range originalNames {
		remaining[strings.ToLower(strings.TrimSpace(name))]++
	}
	for _, entry := range entries {
		key := strings.ToLower(strings.TrimSpace(entry.Name))
		if remaining[key] == 0 {
			return nil, &ParseError{Reason: ReasonNameMismatch, Detail: entry.Name}
		}
		remaining[key]--
	}
	return entries, nil
}
