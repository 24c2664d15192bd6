package catalog

import (
	"sort"
	"strconv"
	"strings"
)

// NormalizeSeries maps a raw upstream series object to TestSeriesSummary.
func NormalizeSeries(r record) TestSeriesSummary {
	s := TestSeriesSummary{
		ID:        seriesAliases.id(r, "id"),
		Name:      seriesAliases.str(r, "name"),
		Logo:      seriesAliases.str(r, "logo"),
		IsPaid:    seriesAliases.flag(r, "isPaid"),
		ExpiresOn: seriesAliases.str(r, "expiresOn"),
	}
	s.TotalTests, _ = seriesAliases.integer(r, "totalTests")
	if price, ok := seriesAliases.float(r, "price"); ok {
		s.Price = &price
	}
	return s
}

// NormalizeSubject maps a raw upstream subject object to Subject.
func NormalizeSubject(r record) Subject {
	s := Subject{
		ID:   subjectAliases.id(r, "id"),
		Name: subjectAliases.str(r, "name"),
		Logo: subjectAliases.str(r, "logo"),
	}
	s.TotalTests, _ = subjectAliases.integer(r, "totalTests")
	return s
}

// NormalizeTitle maps a raw upstream title object to TestTitle.
func NormalizeTitle(r record) TestTitle {
	t := TestTitle{
		ID:           titleAliases.id(r, "id"),
		Name:         titleAliases.str(r, "name"),
		QuestionsURL: titleAliases.str(r, "questionsUrl"),
		IsPremium:    titleAliases.flag(r, "isPremium"),
	}
	t.DurationMinutes, _ = titleAliases.integer(r, "durationMinutes")
	t.TotalQuestions, _ = titleAliases.integer(r, "totalQuestions")
	t.TotalMarks, _ = titleAliases.integer(r, "totalMarks")
	if n, ok := titleAliases.integer(r, "attemptCount"); ok {
		t.AttemptCount = &n
	}
	return t
}

// NormalizeQuestion maps a raw upstream question object to QuizQuestion.
func NormalizeQuestion(r record) QuizQuestion {
	q := QuizQuestion{
		ID:           questionAliases.id(r, "id"),
		QuestionHTML: questionAliases.str(r, "questionHtml"),
		SolutionHTML: questionAliases.str(r, "solutionHtml"),
		Options:      normalizeOptions(r),
	}
	q.CorrectAnswerID = resolveCorrectAnswer(r, q.Options)
	return q
}

// optionLetter returns the id given to the i-th positional option.
func optionLetter(i int) string {
	if i < 26 {
		return string(rune('a' + i))
	}
	return strconv.Itoa(i + 1)
}

func normalizeOptions(r record) []Option {
	if list, ok := r["options"].([]any); ok {
		opts := make([]Option, 0, len(list))
		for i, item := range list {
			switch v := item.(type) {
			case map[string]any:
				id, ok := asString(v["id"])
				if !ok {
					id = optionLetter(i)
				}
				text, _ := asString(firstPresent(v, "text", "option", "value", "html"))
				opts = append(opts, Option{ID: id, TextHTML: text})
			default:
				text, _ := asString(v)
				opts = append(opts, Option{ID: optionLetter(i), TextHTML: text})
			}
		}
		return opts
	}

	for _, prefix := range []string{"option_", "option"} {
		if opts := numberedOptions(r, prefix); len(opts) > 0 {
			return opts
		}
	}

	var opts []Option
	for _, letter := range []string{"a", "b", "c", "d", "e"} {
		v := firstPresent(r, letter, strings.ToUpper(letter))
		if v == nil {
			continue
		}
		text, _ := asString(v)
		opts = append(opts, Option{ID: letter, TextHTML: text})
	}
	return opts
}

// numberedOptions collects prefix1..prefixN keys in numeric order. Option
// ids are letters by position so they match positional answers.
func numberedOptions(r record, prefix string) []Option {
	type numbered struct {
		n    int
		text string
	}
	var found []numbered
	for k, v := range r {
		rest, ok := strings.CutPrefix(k, prefix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 {
			continue
		}
		text, ok := asString(v)
		if !ok {
			continue
		}
		found = append(found, numbered{n: n, text: text})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	opts := make([]Option, len(found))
	for i, f := range found {
		opts[i] = Option{ID: optionLetter(i), TextHTML: f.text}
	}
	return opts
}

func firstPresent(r record, names ...string) any {
	for _, n := range names {
		if v, ok := key(n)(r); ok {
			return v
		}
	}
	return nil
}

// resolveCorrectAnswer maps the raw answer to an option id. Numbers under
// correct_option are 1-based positions; numbers under the other keys are
// 0-based. Strings that name an option id, or the option text, resolve to
// that option. Anything else is returned as given.
func resolveCorrectAnswer(r record, opts []Option) string {
	candidates := []struct {
		key    string
		offset int
	}{
		{"correct_answer_id", 0},
		{"correct_answer", 0},
		{"answer", 0},
		{"correct_option", 1},
	}

	for _, c := range candidates {
		v, ok := key(c.key)(r)
		if !ok {
			continue
		}
		s, ok := asString(v)
		if !ok {
			continue
		}

		for _, o := range opts {
			if strings.EqualFold(o.ID, s) {
				return o.ID
			}
		}
		if idx, err := strconv.Atoi(s); err == nil {
			pos := idx - c.offset
			if pos >= 0 && pos < len(opts) {
				return opts[pos].ID
			}
		}
		for _, o := range opts {
			if o.TextHTML != "" && o.TextHTML == s {
				return o.ID
			}
		}
		return s
	}
	return ""
}
