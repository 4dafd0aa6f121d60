package prompts

import (
	"fmt"
	"strings"
)

// TaskKind identifies one of the fixed study templates.
type TaskKind string

// Task kinds, one per template in study.json.
const (
	KindShortSummary    TaskKind = "short-summary"
	KindDetailedSummary TaskKind = "detailed-summary"
	KindBulletSummary   TaskKind = "bullet-summary"
	KindQuiz            TaskKind = "quiz"
	KindKeywords        TaskKind = "keywords"
	KindFlashcards      TaskKind = "flashcards"
)

// Placeholders recognised in templates.
const (
	TextPlaceholder       = "{{.Text}}"
	DifficultyPlaceholder = "{{.Difficulty}}"
)

// Kinds lists every task kind.
var Kinds = []TaskKind{
	KindShortSummary,
	KindDetailedSummary,
	KindBulletSummary,
	KindQuiz,
	KindKeywords,
	KindFlashcards,
}

// Params are the values substituted into a template.
type Params struct {
	Text       string
	Difficulty string
}

// SummaryKind maps a summary mode to its template. Unknown modes use the short template.
func SummaryKind(mode string) TaskKind {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "detailed":
		return KindDetailedSummary
	case "bullet":
		return KindBulletSummary
	default:
		return KindShortSummary
	}
}

// Check verifies that the template file holds every task kind and that each
// template takes the text exactly once. Commands call it before serving.
func Check() error {
	keys, err := List(DefaultFile)
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(keys))
	for _, key := range keys {
		present[key] = true
	}

	for _, kind := range Kinds {
		if !present[string(kind)] {
			return fmt.Errorf("prompt %q missing from %s", kind, DefaultFile)
		}
		tmpl, err := Get(DefaultFile, string(kind))
		if err != nil {
			return err
		}
		if n := strings.Count(tmpl, TextPlaceholder); n != 1 {
			return fmt.Errorf("prompt %q has %d %s placeholders, want 1", kind, n, TextPlaceholder)
		}
	}
	return nil
}

// Render fills the template for kind with params.
//
// Substitution is a single left-to-right pass over the template, so user text
// is inserted verbatim even when it contains braces or placeholder syntax.
func Render(kind TaskKind, params Params) (string, error) {
	tmpl, err := Get(DefaultFile, string(kind))
	if err != nil {
		return "", fmt.Errorf("unknown task kind %q: %w", kind, err)
	}
	return Format(tmpl, params), nil
}

// Format substitutes params into an arbitrary template.
func Format(tmpl string, params Params) string {
	r := strings.NewReplacer(
		TextPlaceholder, params.Text,
		DifficultyPlaceholder, params.Difficulty,
	)
	return r.Replace(tmpl)
}
