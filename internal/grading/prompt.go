package grading

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxReportChars bounds how much extracted report text is sent to the
// oracle. Longer reports are truncated silently; the tail is what the
// oracle never sees.
const maxReportChars = 15000

// PromptInput is everything the builder needs. RubricOverride replaces the
// rubric text shown to the oracle when non-blank; it does not change the
// category/tier schema the normalizer accepts.
type PromptInput struct {
	AssignmentTitle       string
	AssignmentDescription string
	RubricOverride        string
	MaxPoints             float64
	ReportText            string
	PageImages            [][]byte // JPEG, in page order
}

// Prompt is the assembled oracle request: system instruction, user text,
// then images in original page order.
type Prompt struct {
	System string
	Text   string
	Images [][]byte
}

// BuildPrompt deterministically serializes the input into the oracle
// request. Pure: identical inputs yield identical prompts.
func BuildPrompt(in PromptInput) Prompt {
	rubric := in.RubricOverride
	if strings.TrimSpace(rubric) == "" {
		rubric = DefaultRubric
	}

	report := in.ReportText
	if len(report) > maxReportChars {
		// Back up to a rune boundary; a split rune is invalid UTF-8 and
		// the model API rejects it.
		cut := maxReportChars
		for cut > 0 && !utf8.RuneStart(report[cut]) {
			cut--
		}
		report = report[:cut]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Assignment: %s\n", in.AssignmentTitle)
	if in.AssignmentDescription != "" {
		fmt.Fprintf(&sb, "Description: %s\n", in.AssignmentDescription)
	}
	fmt.Fprintf(&sb, "\nGrading Rubric:\n%s\n", rubric)
	fmt.Fprintf(&sb, "\n%s\n", ScoringGuidelines)
	fmt.Fprintf(&sb, "\n%s\n", CalibrationExamples)
	fmt.Fprintf(&sb, "\nMax Points: %.0f\n", in.MaxPoints)
	fmt.Fprintf(&sb, "\nStudent Report Content:\n%s\n", report)
	if len(in.PageImages) > 0 {
		fmt.Fprintf(&sb, "\nThe report's %d page(s) follow as images, in order.\n", len(in.PageImages))
	}
	fmt.Fprintf(&sb, "\n%s", FeedbackFormat)

	return Prompt{
		System: SystemPrompt,
		Text:   sb.String(),
		Images: in.PageImages,
	}
}
