package studygen

import (
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const (
	maxTakeaways  = 10
	maxFlashcards = 20
	maxOptions    = 4
	minOptions    = 2

	defaultCategory = "General"
)

// tagStripper removes all markup from model output. The model is asked for
// plain text but occasionally wraps answers in HTML anyway.
var tagStripper = bluemonday.StrictPolicy()

// Normalize validates an untrusted payload tree field by field into a
// StudyMaterial. Every field defaults or drops independently; a malformed
// flashcard or quiz entry never invalidates its siblings. Only a missing or
// empty summary is fatal.
func Normalize(payload map[string]any) (*StudyMaterial, error) {
	summary := sanitize(coerceString(payload["summary"]))
	if summary == "" {
		return nil, ErrEmptySummary
	}

	return &StudyMaterial{
		Summary:      summary,
		KeyTakeaways: stringList(payload["keyTakeaways"], maxTakeaways),
		Flashcards:   normalizeFlashcards(payload["flashcards"]),
		Quiz:         normalizeQuiz(payload["quiz"]),
	}, nil
}

// sanitize strips markup and decodes HTML entities the stripper escaped.
func sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(tagStripper.Sanitize(s)))
}

// coerceString stringifies scalar values the way a loose parser would:
// strings pass through, numbers format naturally, everything else is empty.
func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// stringList filters a raw sequence down to non-empty scalar strings,
// capped at max entries.
func stringList(v any, max int) []string {
	raw, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s := sanitize(coerceString(item))
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == max {
			break
		}
	}
	return out
}

func normalizeFlashcards(v any) []Flashcard {
	raw, ok := v.([]any)
	if !ok {
		return []Flashcard{}
	}
	out := make([]Flashcard, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		front := sanitize(coerceString(entry["front"]))
		back := sanitize(coerceString(entry["back"]))
		if front == "" || back == "" {
			continue
		}
		out = append(out, Flashcard{Front: front, Back: back})
		if len(out) == maxFlashcards {
			break
		}
	}
	return out
}

func normalizeQuiz(v any) []QuizItem {
	raw, ok := v.([]any)
	if !ok {
		return []QuizItem{}
	}
	out := make([]QuizItem, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		question := sanitize(coerceString(entry["question"]))
		if question == "" {
			continue
		}
		options := optionList(entry["options"])
		if len(options) < minOptions {
			continue
		}
		if len(options) > maxOptions {
			options = options[:maxOptions]
		}

		idx := resolveAnswerIndex(entry, options)

		explanation := sanitize(coerceString(entry["explanation"]))
		if explanation == "" {
			explanation = fmt.Sprintf("The correct answer is %q.", options[idx])
		}
		category := sanitize(coerceString(entry["category"]))
		if category == "" {
			category = defaultCategory
		}

		out = append(out, QuizItem{
			Question:    question,
			Options:     options,
			AnswerIndex: idx,
			Explanation: explanation,
			Category:    category,
		})
	}
	return out
}

// optionList accepts either an ordered list of scalars or a keyed mapping
// like {"A": ..., "B": ...}. Mapping keys are sorted lexicographically so
// letter keys yield a stable A,B,C,D ordering.
func optionList(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := sanitize(coerceString(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]string, 0, len(keys))
		for _, k := range keys {
			if s := sanitize(coerceString(t[k])); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// answerKeys are the fields checked, in order, when answerIndex itself is
// missing or out of range.
var answerKeys = []string{"correct", "answer", "correctIndex", "correctOption"}

// resolveAnswerIndex maps a heterogeneously encoded answer value to a valid
// position in options. Strategies in order: integer index, single letter
// A-F, exact option text. When all fail the index defaults to 0: a possibly
// wrong but always valid answer is preferred over dropping the question.
// That default can manufacture an incorrect answer key, which is accepted.
func resolveAnswerIndex(entry map[string]any, options []string) int {
	if idx, ok := valueToIndex(entry["answerIndex"], options); ok {
		return idx
	}
	for _, key := range answerKeys {
		v, present := entry[key]
		if !present {
			continue
		}
		if idx, ok := valueToIndex(v, options); ok {
			return idx
		}
		break
	}
	return 0
}

func valueToIndex(v any, options []string) (int, bool) {
	switch t := v.(type) {
	case float64:
		idx := int(t)
		if float64(idx) == t && idx >= 0 && idx < len(options) {
			return idx, true
		}
	case int:
		if t >= 0 && t < len(options) {
			return t, true
		}
	case string:
		s := strings.TrimSpace(t)
		if len(s) == 1 {
			c := s[0] &^ 0x20 // uppercase ASCII letter
			if c >= 'A' && c <= 'F' {
				idx := int(c - 'A')
				if idx < len(options) {
					return idx, true
				}
				return 0, false
			}
		}
		for i, opt := range options {
			if strings.TrimSpace(opt) == s {
				return i, true
			}
		}
	}
	return 0, false
}
