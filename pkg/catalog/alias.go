package catalog

import (
	"fmt"

	"github.com/google/uuid"
)

// record is one raw upstream object.
type record = map[string]any

// accessor extracts a candidate value for a field from a raw record.
type accessor func(record) (any, bool)

// key reads a field by name. Null and blank strings count as absent.
func key(name string) accessor {
	return func(r record) (any, bool) {
		v, ok := r[name]
		if !ok || v == nil {
			return nil, false
		}
		if s, isString := v.(string); isString {
			if _, nonEmpty := asString(s); !nonEmpty {
				return nil, false
			}
		}
		return v, true
	}
}

func keys(names ...string) []accessor {
	out := make([]accessor, len(names))
	for i, n := range names {
		out[i] = key(n)
	}
	return out
}

// aliasTable maps a target field to its accessors in priority order.
type aliasTable map[string][]accessor

func (t aliasTable) str(r record, field string) string {
	for _, acc := range t[field] {
		if v, ok := acc(r); ok {
			if s, ok := asString(v); ok {
				return s
			}
		}
	}
	return ""
}

func (t aliasTable) integer(r record, field string) (int, bool) {
	for _, acc := range t[field] {
		if v, ok := acc(r); ok {
			if n, ok := asInt(v); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func (t aliasTable) float(r record, field string) (float64, bool) {
	for _, acc := range t[field] {
		if v, ok := acc(r); ok {
			if f, ok := asFloat(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

func (t aliasTable) flag(r record, field string) bool {
	for _, acc := range t[field] {
		if v, ok := acc(r); ok {
			if b, ok := asBool(v); ok {
				return b
			}
		}
	}
	return false
}

// id resolves an identifier, falling back to a random UUID.
func (t aliasTable) id(r record, field string) string {
	if s := t.str(r, field); s != "" {
		return s
	}
	return uuid.NewString()
}

// pricePositive derives isPaid from a positive price when no flag is present.
func pricePositive(r record) (any, bool) {
	f, ok := seriesAliases.float(r, "price")
	if !ok {
		return nil, false
	}
	return f > 0, true
}

// validityDays renders validity_days as "N days".
func validityDays(r record) (any, bool) {
	v, ok := key("validity_days")(r)
	if !ok {
		return nil, false
	}
	n, ok := asInt(v)
	if !ok || n <= 0 {
		return nil, false
	}
	return fmt.Sprintf("%d days", n), true
}

var seriesAliases aliasTable

func init() {
	// pricePositive reads seriesAliases, so the table is built here.
	seriesAliases = aliasTable{
		"id":         keys("id", "test_id", "series_id", "slug"),
		"name":       keys("name", "series_name", "title"),
		"logo":       keys("logo", "series_logo", "image", "thumbnail"),
		"isPaid":     append(keys("is_paid", "isPaid", "paid"), pricePositive),
		"totalTests": keys("total_tests", "totalTests", "test_count", "tests"),
		"expiresOn":  append(keys("expires_on", "expiresOn", "expiry", "validity"), validityDays),
		"price":      keys("price", "amount", "cost"),
	}
}

var subjectAliases = aliasTable{
	"id":         keys("id", "subject_id", "subjectid"),
	"name":       keys("name", "subject_name", "title"),
	"logo":       keys("logo", "subject_logo", "image"),
	"totalTests": keys("total_tests", "totalTests", "test_count"),
}

var titleAliases = aliasTable{
	"id":              keys("id", "title_id", "test_id"),
	"name":            keys("name", "title_name", "title"),
	"durationMinutes": keys("duration_minutes", "duration", "time"),
	"totalQuestions":  keys("total_questions", "questions_count", "question_count"),
	"totalMarks":      keys("total_marks", "marks"),
	"questionsUrl":    keys("questions_url", "questions_json_url", "json_url", "url"),
	"isPremium":       keys("is_premium", "is_paid", "premium"),
	"attemptCount":    keys("attempt_count", "attempts", "remaining_attempts"),
}

var questionAliases = aliasTable{
	"id":           keys("id", "question_id", "qid"),
	"questionHtml": keys("question", "question_text", "question_html", "text"),
	"solutionHtml": keys("solution", "explanation", "solution_html"),
}
