package grading

import (
	"bytes"
	"encoding/json"
	"testing"
)

func rawWith(scores map[string]interface{}) *RawResult {
	raw := &RawResult{Categories: map[string]RawCategoryScore{}}
	for k, v := range scores {
		raw.Categories[k] = RawCategoryScore{Score: v, Rationale: "because"}
	}
	return raw
}

func tiersContain(meta CategoryMeta, v int) bool {
	for _, t := range meta.Tiers {
		if t == v {
			return true
		}
	}
	return false
}

func metaFor(t *testing.T, key string) CategoryMeta {
	t.Helper()
	for _, m := range Categories {
		if m.Key == key {
			return m
		}
	}
	t.Fatalf("unknown category %q", key)
	return CategoryMeta{}
}

func TestNormalizeAlwaysLandsOnATier(t *testing.T) {
	inputs := []interface{}{
		-5, 0, 1, 7.9, 14.999, 27, 999, "12", "nonsense", nil,
		json.Number("22.5"), map[string]string{"weird": "shape"},
	}
	for _, meta := range Categories {
		for _, in := range inputs {
			res := Normalize(rawWith(map[string]interface{}{meta.Key: in}))
			got := res.Categories[meta.Key].Score
			if !tiersContain(meta, got) {
				t.Errorf("%s: raw %v normalized to %d, not a valid tier", meta.Key, in, got)
			}
		}
	}
}

func TestNormalizeNeverRoundsUp(t *testing.T) {
	cases := []struct {
		key  string
		raw  interface{}
		want int
	}{
		{"cosmologyAnimeConnection", 27, 25},
		{"cosmologyAnimeConnection", 29.9, 25},
		{"references", 10, 9},
		{"references", 14, 12},
		{"animeIntroduction", 9, 8},
		{"writingQuality", 14.5, 12},
	}
	for _, c := range cases {
		res := Normalize(rawWith(map[string]interface{}{c.key: c.raw}))
		if got := res.Categories[c.key].Score; got != c.want {
			t.Errorf("%s: raw %v = %d, want %d", c.key, c.raw, got, c.want)
		}
	}
}

func TestNormalizeClampsOutOfRange(t *testing.T) {
	res := Normalize(rawWith(map[string]interface{}{
		"animeIntroduction": -3,
		"references":        500,
	}))
	if got := res.Categories["animeIntroduction"].Score; got != 0 {
		t.Errorf("negative raw = %d, want 0", got)
	}
	if got := res.Categories["references"].Score; got != 15 {
		t.Errorf("oversized raw = %d, want max tier 15", got)
	}
}

func TestNormalizeTotalEqualsSum(t *testing.T) {
	raw := rawWith(map[string]interface{}{
		"animeIntroduction":        8,
		"cosmologyAnimeConnection": 15,
		"cosmologicalConcepts":     20,
		"references":               12,
		"writingQuality":           10,
	})
	raw.Score = 999 // oracle's self-reported total is never trusted

	res := Normalize(raw)
	sum := 0
	for _, c := range res.Categories {
		sum += c.Score
	}
	if res.Score != sum {
		t.Fatalf("total %d != category sum %d", res.Score, sum)
	}
	if res.Score != 65 {
		t.Fatalf("total = %d, want 65", res.Score)
	}
}

func TestNormalizeCompleteness(t *testing.T) {
	for _, raw := range []*RawResult{nil, {}, rawWith(map[string]interface{}{"references": 9})} {
		res := Normalize(raw)
		if len(res.Categories) != len(Categories) {
			t.Fatalf("got %d categories, want %d", len(res.Categories), len(Categories))
		}
		for _, meta := range Categories {
			c, ok := res.Categories[meta.Key]
			if !ok {
				t.Fatalf("missing category %s", meta.Key)
			}
			if c.MaxScore != meta.MaxScore {
				t.Errorf("%s maxScore = %d, want %d", meta.Key, c.MaxScore, meta.MaxScore)
			}
		}
	}
}

func TestNormalizeIgnoresUnknownCategories(t *testing.T) {
	res := Normalize(rawWith(map[string]interface{}{"surpriseCategory": 100}))
	if _, ok := res.Categories["surpriseCategory"]; ok {
		t.Fatal("unknown category leaked into output")
	}
	if res.Score != 0 {
		t.Fatalf("total = %d, want 0", res.Score)
	}
}

func TestNormalizePlaceholders(t *testing.T) {
	res := Normalize(&RawResult{
		Categories: map[string]RawCategoryScore{
			"references": {Score: 9, Rationale: "   "},
		},
	})
	for key, c := range res.Categories {
		if c.Rationale == "" {
			t.Errorf("%s: empty rationale in output", key)
		}
	}
	if res.Categories["references"].Rationale != placeholderRationale {
		t.Errorf("blank rationale not replaced: %q", res.Categories["references"].Rationale)
	}
	if res.Feedback != placeholderFeedback {
		t.Errorf("empty feedback not replaced: %q", res.Feedback)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	raw := rawWith(map[string]interface{}{
		"animeIntroduction":        "7",
		"cosmologyAnimeConnection": 23.7,
		"writingQuality":           -1,
	})
	raw.Feedback = "decent effort"

	a, _ := json.Marshal(Normalize(raw))
	b, _ := json.Marshal(Normalize(raw))
	if !bytes.Equal(a, b) {
		t.Fatalf("normalize not idempotent:\n%s\n%s", a, b)
	}
}

func TestNormalizeReferencesScenario(t *testing.T) {
	meta := metaFor(t, "references")
	if meta.MaxScore != 15 {
		t.Fatalf("references max = %d, want 15", meta.MaxScore)
	}

	res := Normalize(&RawResult{Categories: map[string]RawCategoryScore{
		"references": {Score: 10, Rationale: "cites one ArXiv preprint"},
	}})
	c := res.Categories["references"]
	if c.Score != 9 {
		t.Errorf("raw 10 = %d, want 9", c.Score)
	}
	if c.Rationale != "cites one ArXiv preprint" {
		t.Errorf("rationale not carried verbatim: %q", c.Rationale)
	}

	res = Normalize(&RawResult{Categories: map[string]RawCategoryScore{
		"references": {Score: 10},
	}})
	if got := res.Categories["references"].Rationale; got != placeholderRationale {
		t.Errorf("missing rationale = %q, want placeholder", got)
	}
}

func TestNormalizeNumericStringAndNumber(t *testing.T) {
	res := Normalize(rawWith(map[string]interface{}{
		"references":           "12",
		"cosmologicalConcepts": json.Number("25"),
	}))
	if got := res.Categories["references"].Score; got != 12 {
		t.Errorf("string score = %d, want 12", got)
	}
	if got := res.Categories["cosmologicalConcepts"].Score; got != 25 {
		t.Errorf("json.Number score = %d, want 25", got)
	}
}
