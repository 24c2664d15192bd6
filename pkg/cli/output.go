package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"quizhub/aggregator/pkg/catalog"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is an aligned table (default).
	FormatText OutputFormat = "text"
	// FormatJSON is indented JSON.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV with a header row.
	FormatCSV OutputFormat = "csv"
)

// ParseOutputFormat parses a --output value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatCSV:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q: must be text, json or csv", s)
}

// Formatter writes command results.
type Formatter interface {
	FormatTo(w io.Writer, data any) error
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatCSV:
		return &CSVFormatter{}
	default:
		return &TextFormatter{}
	}
}

// TextFormatter renders catalog lists as aligned tables. Other values are
// printed with %v.
type TextFormatter struct{}

// FormatTo implements Formatter.
func (f *TextFormatter) FormatTo(w io.Writer, data any) error {
	if qs, ok := data.([]catalog.QuizQuestion); ok {
		return writeQuiz(w, qs)
	}

	headers, rows, ok := table(data)
	if !ok {
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo implements Formatter.
func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// CSVFormatter formats catalog lists as CSV.
type CSVFormatter struct{}

// FormatTo implements Formatter.
func (f *CSVFormatter) FormatTo(w io.Writer, data any) error {
	headers, rows, ok := table(data)
	if !ok {
		return fmt.Errorf("CSV output is not supported for %T", data)
	}

	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(headers); err != nil {
		return err
	}
	if err := csvWriter.WriteAll(rows); err != nil {
		return err
	}
	return csvWriter.Error()
}

// table flattens the catalog list types into rows.
func table(data any) ([]string, [][]string, bool) {
	switch v := data.(type) {
	case []catalog.Provider:
		rows := make([][]string, len(v))
		for i, p := range v {
			rows[i] = []string{p.Name, p.API}
		}
		return []string{"NAME", "API"}, rows, true

	case []catalog.TestSeriesSummary:
		rows := make([][]string, len(v))
		for i, s := range v {
			rows[i] = []string{s.ID, catalog.PlainText(s.Name), s.ProviderName, paid(s.IsPaid), price(s.Price), strconv.Itoa(s.TotalTests), s.ExpiresOn}
		}
		return []string{"ID", "NAME", "PROVIDER", "PAID", "PRICE", "TESTS", "EXPIRES"}, rows, true

	case []catalog.Subject:
		rows := make([][]string, len(v))
		for i, s := range v {
			rows[i] = []string{s.ID, catalog.PlainText(s.Name), strconv.Itoa(s.TotalTests)}
		}
		return []string{"ID", "NAME", "TESTS"}, rows, true

	case []catalog.TestTitle:
		rows := make([][]string, len(v))
		for i, t := range v {
			rows[i] = []string{
				t.ID, catalog.PlainText(t.Name),
				strconv.Itoa(t.DurationMinutes), strconv.Itoa(t.TotalQuestions), strconv.Itoa(t.TotalMarks),
				paid(t.IsPremium), t.QuestionsURL,
			}
		}
		return []string{"ID", "NAME", "MINUTES", "QUESTIONS", "MARKS", "PREMIUM", "QUESTIONS_URL"}, rows, true

	case []catalog.QuizQuestion:
		rows := make([][]string, len(v))
		for i, q := range v {
			opts := make([]string, len(q.Options))
			for j, o := range q.Options {
				opts[j] = o.ID + ") " + catalog.PlainText(o.TextHTML)
			}
			rows[i] = []string{q.ID, catalog.PlainText(q.QuestionHTML), strings.Join(opts, " | "), q.CorrectAnswerID}
		}
		return []string{"ID", "QUESTION", "OPTIONS", "ANSWER"}, rows, true
	}
	return nil, nil, false
}

// writeQuiz prints questions as readable text with the answer marked.
func writeQuiz(w io.Writer, qs []catalog.QuizQuestion) error {
	for i, q := range qs {
		if _, err := fmt.Fprintf(w, "%d. %s\n", i+1, catalog.PlainText(q.QuestionHTML)); err != nil {
			return err
		}
		for _, o := range q.Options {
			marker := " "
			if o.ID == q.CorrectAnswerID {
				marker = "*"
			}
			fmt.Fprintf(w, "  %s %s) %s\n", marker, o.ID, catalog.PlainText(o.TextHTML))
		}
		if sol := catalog.PlainText(q.SolutionHTML); sol != "" {
			fmt.Fprintf(w, "  Solution: %s\n", sol)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func paid(b bool) string {
	if b {
		return "paid"
	}
	return "free"
}

func price(p *float64) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
