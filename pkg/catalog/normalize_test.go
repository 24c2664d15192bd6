package catalog

import (
	"encoding/json"
	"strings"
	"testing"
)

// decodeRecord decodes JSON the same way the client does.
func decodeRecord(t *testing.T, s string) record {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var r record
	if err := dec.Decode(&r); err != nil {
		t.Fatalf("bad fixture %s: %v", s, err)
	}
	return r
}

func TestNormalizeSeries_LegacyShape(t *testing.T) {
	got := NormalizeSeries(decodeRecord(t, `{"test_id": "9", "series_name": "Foo", "is_paid": 1}`))

	if got.ID != "9" || got.Name != "Foo" || !got.IsPaid {
		t.Errorf("got %+v, want id 9, name Foo, paid", got)
	}
	if got.Price != nil {
		t.Errorf("price = %v, want nil", *got.Price)
	}
}

func TestNormalizeSeries_Precedence(t *testing.T) {
	got := NormalizeSeries(decodeRecord(t, `{
		"id": "primary", "test_id": "legacy",
		"name": "", "series_name": "Fallback Name",
		"logo": null, "series_logo": "https://cdn/logo.png",
		"total_tests": "12", "test_count": 99,
		"amount": 499, "cost": 1
	}`))

	if got.ID != "primary" {
		t.Errorf("id = %q, want id to win over test_id", got.ID)
	}
	if got.Name != "Fallback Name" {
		t.Errorf("name = %q, blank name should fall through", got.Name)
	}
	if got.Logo != "https://cdn/logo.png" {
		t.Errorf("logo = %q, null logo should fall through", got.Logo)
	}
	if got.TotalTests != 12 {
		t.Errorf("totalTests = %d, want numeric string 12", got.TotalTests)
	}
	if got.Price == nil || *got.Price != 499 {
		t.Errorf("price = %v, want 499 from amount", got.Price)
	}
	if !got.IsPaid {
		t.Error("isPaid should derive from positive price")
	}
}

func TestNormalizeSeries_PaidFlags(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{`{"is_paid": true}`, true},
		{`{"is_paid": "yes"}`, true},
		{`{"is_paid": "paid"}`, true},
		{`{"is_paid": 0, "price": 100}`, false},
		{`{"isPaid": "false"}`, false},
		{`{"paid": "1"}`, true},
		{`{"price": 0}`, false},
		{`{"price": "250"}`, true},
		{`{}`, false},
	}
	for _, tt := range tests {
		if got := NormalizeSeries(decodeRecord(t, tt.raw)).IsPaid; got != tt.want {
			t.Errorf("%s: isPaid = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeSeries_ExpiresOn(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`{"expires_on": "2026-01-01", "validity_days": 30}`, "2026-01-01"},
		{`{"validity": "1 year"}`, "1 year"},
		{`{"validity_days": 30}`, "30 days"},
		{`{"validity_days": 0}`, ""},
	}
	for _, tt := range tests {
		if got := NormalizeSeries(decodeRecord(t, tt.raw)).ExpiresOn; got != tt.want {
			t.Errorf("%s: expiresOn = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeSeries_FallbackID(t *testing.T) {
	a := NormalizeSeries(decodeRecord(t, `{"name": "No Id"}`))
	b := NormalizeSeries(decodeRecord(t, `{"name": "No Id"}`))

	if len(a.ID) != 36 {
		t.Errorf("fallback id %q is not a uuid", a.ID)
	}
	if a.ID == b.ID {
		t.Error("fallback ids should be unique")
	}
}

func TestNormalizeSeries_LargeNumericID(t *testing.T) {
	got := NormalizeSeries(decodeRecord(t, `{"id": 12345678901234567}`))
	if got.ID != "12345678901234567" {
		t.Errorf("id = %q, want exact digits without exponent", got.ID)
	}
}

func TestNormalizeSubject(t *testing.T) {
	got := NormalizeSubject(decodeRecord(t, `{"subjectid": 7, "subject_name": "Maths", "image": "m.png", "totalTests": 4}`))

	if got.ID != "7" || got.Name != "Maths" || got.Logo != "m.png" || got.TotalTests != 4 {
		t.Errorf("got %+v", got)
	}
}

func TestNormalizeTitle(t *testing.T) {
	got := NormalizeTitle(decodeRecord(t, `{
		"title_id": "t1", "title_name": "Mock 1",
		"duration": "60", "questions_count": 100, "marks": 200,
		"questions_json_url": "https://testseries-assets.classx.co.in/q/1.json",
		"is_paid": "1", "remaining_attempts": 2
	}`))

	if got.ID != "t1" || got.Name != "Mock 1" {
		t.Errorf("id/name = %q/%q", got.ID, got.Name)
	}
	if got.DurationMinutes != 60 || got.TotalQuestions != 100 || got.TotalMarks != 200 {
		t.Errorf("numbers = %d/%d/%d", got.DurationMinutes, got.TotalQuestions, got.TotalMarks)
	}
	if got.QuestionsURL != "https://testseries-assets.classx.co.in/q/1.json" {
		t.Errorf("questionsUrl = %q", got.QuestionsURL)
	}
	if !got.IsPremium {
		t.Error("is_paid should alias isPremium")
	}
	if got.AttemptCount == nil || *got.AttemptCount != 2 {
		t.Errorf("attemptCount = %v, want 2", got.AttemptCount)
	}

	bare := NormalizeTitle(decodeRecord(t, `{"name": "x"}`))
	if bare.AttemptCount != nil {
		t.Error("attemptCount should stay nil when absent")
	}
}

func TestNormalizeQuestion(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantOptions []Option
		wantAnswer  string
	}{
		{
			name:        "string options with zero-based answer",
			raw:         `{"question_id": "1", "question_text": "sin 90?", "options": ["0", "1", "-1"], "correct_answer": 1}`,
			wantOptions: []Option{{"a", "0"}, {"b", "1"}, {"c", "-1"}},
			wantAnswer:  "b",
		},
		{
			name:        "object options with id answer",
			raw:         `{"id": "2", "question": "cos 0?", "options": [{"id": "x", "text": "1"}, {"id": "y", "text": "0"}], "correct_answer": "x"}`,
			wantOptions: []Option{{"x", "1"}, {"y", "0"}},
			wantAnswer:  "x",
		},
		{
			name:        "numbered keys with one-based correct_option",
			raw:         `{"qid": 3, "text": "pick", "option_2": "B", "option_1": "A", "option_3": "C", "correct_option": "3"}`,
			wantOptions: []Option{{"a", "A"}, {"b", "B"}, {"c", "C"}},
			wantAnswer:  "c",
		},
		{
			name:        "letter keys with letter answer",
			raw:         `{"question_html": "<p>q</p>", "a": "one", "b": "two", "answer": "B"}`,
			wantOptions: []Option{{"a", "one"}, {"b", "two"}},
			wantAnswer:  "b",
		},
		{
			name:        "answer given as option text",
			raw:         `{"question": "capital?", "options": ["Paris", "Rome"], "answer": "Rome"}`,
			wantOptions: []Option{{"a", "Paris"}, {"b", "Rome"}},
			wantAnswer:  "b",
		},
		{
			name:        "option1 keys",
			raw:         `{"question": "q", "option1": "first", "option2": "second", "correct_answer_id": "a"}`,
			wantOptions: []Option{{"a", "first"}, {"b", "second"}},
			wantAnswer:  "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeQuestion(decodeRecord(t, tt.raw))
			if len(got.Options) != len(tt.wantOptions) {
				t.Fatalf("options = %+v, want %+v", got.Options, tt.wantOptions)
			}
			for i := range got.Options {
				if got.Options[i] != tt.wantOptions[i] {
					t.Errorf("option %d = %+v, want %+v", i, got.Options[i], tt.wantOptions[i])
				}
			}
			if got.CorrectAnswerID != tt.wantAnswer {
				t.Errorf("correctAnswerId = %q, want %q", got.CorrectAnswerID, tt.wantAnswer)
			}
		})
	}
}

func TestNormalizeQuestion_Solution(t *testing.T) {
	got := NormalizeQuestion(decodeRecord(t, `{"question": "q", "explanation": "<b>because</b>", "options": []}`))
	if got.SolutionHTML != "<b>because</b>" {
		t.Errorf("solutionHtml = %q", got.SolutionHTML)
	}
	if got.QuestionHTML != "q" {
		t.Errorf("questionHtml = %q", got.QuestionHTML)
	}
}

func TestCoercion(t *testing.T) {
	if s, ok := asString(json.Number("1e3")); !ok || s != "1000" {
		t.Errorf("asString(1e3) = %q, %v", s, ok)
	}
	if s, ok := asString(2.5); !ok || s != "2.5" {
		t.Errorf("asString(2.5) = %q, %v", s, ok)
	}
	if _, ok := asString(map[string]any{}); ok {
		t.Error("objects are not strings")
	}
	if n, ok := asInt("42"); !ok || n != 42 {
		t.Errorf("asInt(\"42\") = %d, %v", n, ok)
	}
	if _, ok := asInt("forty"); ok {
		t.Error("non-numeric string should not coerce to int")
	}
	if b, ok := asBool(json.Number("2")); !ok || !b {
		t.Error("non-zero number should be true")
	}
	if _, ok := asBool("maybe"); ok {
		t.Error("unknown string should not coerce to bool")
	}
}
