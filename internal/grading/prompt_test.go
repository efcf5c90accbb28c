package grading

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestBuildPromptTruncatesReport(t *testing.T) {
	long := strings.Repeat("z", maxReportChars+500)
	p := BuildPrompt(PromptInput{AssignmentTitle: "Report 1", ReportText: long})
	if strings.Count(p.Text, "z") != maxReportChars {
		t.Fatalf("report not truncated to %d chars", maxReportChars)
	}
}

func TestBuildPromptTruncatesOnRuneBoundary(t *testing.T) {
	// "é" is two bytes; an odd leading byte forces the cap to land mid-rune.
	long := "x" + strings.Repeat("é", maxReportChars)
	p := BuildPrompt(PromptInput{AssignmentTitle: "Report 1", ReportText: long})
	if !utf8.ValidString(p.Text) {
		t.Fatal("truncation split a rune; prompt text is not valid UTF-8")
	}
	if strings.Count(p.Text, "é") >= maxReportChars/2 {
		t.Fatal("report not truncated")
	}
}

func TestBuildPromptDefaultRubricFallback(t *testing.T) {
	for _, override := range []string{"", "   \n"} {
		p := BuildPrompt(PromptInput{AssignmentTitle: "Report 1", RubricOverride: override, ReportText: "text"})
		if !strings.Contains(p.Text, "Anime Introduction (10 points):") {
			t.Fatalf("blank override %q did not fall back to the default rubric", override)
		}
	}

	p := BuildPrompt(PromptInput{AssignmentTitle: "Report 1", RubricOverride: "Custom: 100 points for vibes", ReportText: "text"})
	if !strings.Contains(p.Text, "Custom: 100 points for vibes") {
		t.Fatal("override rubric missing from prompt")
	}
	if strings.Contains(p.Text, "Anime Introduction (10 points):") {
		t.Fatal("default rubric leaked alongside override")
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	in := PromptInput{
		AssignmentTitle:       "Report 2",
		AssignmentDescription: "dark matter",
		MaxPoints:             100,
		ReportText:            "my report",
		PageImages:            [][]byte{{1, 2}, {3, 4}},
	}
	a := BuildPrompt(in)
	b := BuildPrompt(in)
	if a.Text != b.Text || a.System != b.System || len(a.Images) != len(b.Images) {
		t.Fatal("prompt not deterministic for identical inputs")
	}
}

func TestBuildPromptImageOrderPreserved(t *testing.T) {
	imgs := [][]byte{{1}, {2}, {3}}
	p := BuildPrompt(PromptInput{AssignmentTitle: "t", ReportText: "r", PageImages: imgs})
	for i := range imgs {
		if &p.Images[i][0] != &imgs[i][0] {
			t.Fatalf("image %d reordered or copied out of order", i)
		}
	}
}

func TestBuildPromptIncludesGuidelinesAndExamples(t *testing.T) {
	p := BuildPrompt(PromptInput{AssignmentTitle: "t", ReportText: "r", MaxPoints: 100})
	for _, want := range []string{"Scoring procedure:", "EXAMPLE A", "Max Points: 100"} {
		if !strings.Contains(p.Text, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if p.System != SystemPrompt {
		t.Error("system instruction not attached")
	}
}
