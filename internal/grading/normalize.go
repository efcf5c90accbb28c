package grading

import (
	"encoding/json"
	"strconv"
	"strings"
)

const (
	placeholderRationale = "No rationale provided."
	placeholderFeedback  = "No feedback provided."
)

// RawResult is the oracle's output as parsed: untrusted, loosely typed.
// Scores may be fractional, negative, out of range, numeric strings, or
// missing entirely.
type RawResult struct {
	Score      interface{}                 `json:"score"`
	Categories map[string]RawCategoryScore `json:"categories"`
	Feedback   string                      `json:"feedback"`
}

type RawCategoryScore struct {
	Score     interface{} `json:"score"`
	Rationale string      `json:"rationale"`
}

// CategoryScore is a normalized per-category grade. Score is always a
// member of the category's tier list.
type CategoryScore struct {
	Score     int    `json:"score"`
	MaxScore  int    `json:"maxScore"`
	Rationale string `json:"rationale"`
}

// GradingResult is the only persisted grading artifact. Score always equals
// the sum of the category scores.
type GradingResult struct {
	Score      int                      `json:"score"`
	Categories map[string]CategoryScore `json:"categories"`
	Feedback   string                   `json:"feedback"`
}

// Normalize converts an untrusted raw scoring object into a trustworthy
// GradingResult. It is total: any input, including nil, yields a complete,
// schema-valid result. It iterates the fixed category set, never the raw
// input's keys, so unexpected categories cannot smuggle in data. The
// oracle's self-reported total is discarded; the total is recomputed as the
// sum of the normalized category scores.
func Normalize(raw *RawResult) GradingResult {
	out := GradingResult{
		Categories: make(map[string]CategoryScore, len(Categories)),
		Feedback:   placeholderFeedback,
	}
	if raw != nil && strings.TrimSpace(raw.Feedback) != "" {
		out.Feedback = raw.Feedback
	}

	total := 0
	for _, meta := range Categories {
		cs := CategoryScore{MaxScore: meta.MaxScore, Rationale: placeholderRationale}
		if raw != nil {
			if rc, ok := raw.Categories[meta.Key]; ok {
				if v, ok := toNumber(rc.Score); ok {
					cs.Score = snapToTier(meta, v)
				}
				if strings.TrimSpace(rc.Rationale) != "" {
					cs.Rationale = rc.Rationale
				}
			}
		}
		total += cs.Score
		out.Categories[meta.Key] = cs
	}
	out.Score = total
	return out
}

// snapToTier clamps v into [0, max] and returns the first tier value not
// exceeding it. Tiers are descending with 0 as the floor, so a score
// between two tiers always lands on the lower one: never round up.
func snapToTier(meta CategoryMeta, v float64) int {
	if v < 0 {
		v = 0
	}
	if v > float64(meta.MaxScore) {
		v = float64(meta.MaxScore)
	}
	for _, t := range meta.Tiers {
		if float64(t) <= v {
			return t
		}
	}
	return 0
}

func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
